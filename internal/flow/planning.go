package flow

import (
	"fmt"
	"math"
	"sort"

	"github.com/sadopc/taskflow/internal/store"
	"github.com/sadopc/taskflow/internal/timeutil"
)

// DefaultSuggestions is how many tasks SuggestTasks returns for limit <= 0.
const DefaultSuggestions = 5

// ShouldShowPlanningPrompt reports whether the plan-your-day prompt is due:
// the day has not been planned and nothing is queued.
func ShouldShowPlanningPrompt(today, lastPlanningDate string, queueLen int) bool {
	return lastPlanningDate != today && queueLen == 0
}

// ShouldShowReflectionPrompt reports whether the end-of-day prompt is due.
func ShouldShowReflectionPrompt(reflectionExists bool, completedToday, queueLen int) bool {
	return !reflectionExists && completedToday > 0 && queueLen > 0
}

// EstimationAccuracy returns the mean estimate, rounded, of the done queue
// entries that have one. It does not compare against actual time.
func EstimationAccuracy(queue []QueueEntry) (int, bool) {
	sum, n := 0, 0
	for _, q := range queue {
		if q.Done && q.EstimatedTime > 0 {
			sum += q.EstimatedTime
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return int(math.Round(float64(sum) / float64(n))), true
}

// SetDailyTimeAvailable stores today's time budget and marks the day as
// planned.
func (e *Engine) SetDailyTimeAvailable(minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("%w: daily time must not be negative", ErrValidation)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.planning.DailyTimeAvailable = minutes
	e.planning.LastPlanningDate = e.today()
	e.persist(store.KeyDailyTime, store.KeyLastPlanning)
	e.log.Info("day planned", "date", e.planning.LastPlanningDate, "minutes", minutes)
	return nil
}

func (e *Engine) Planning() PlanningState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.planning
}

// PlanningPromptDue applies ShouldShowPlanningPrompt to the current state.
func (e *Engine) PlanningPromptDue() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return ShouldShowPlanningPrompt(e.today(), e.planning.LastPlanningDate, len(e.queue))
}

// ReflectionPromptDue applies ShouldShowReflectionPrompt to the current
// state. Completed-today counts queued tasks finished on today's date.
func (e *Engine) ReflectionPromptDue() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	today := e.today()
	return ShouldShowReflectionPrompt(e.findReflection(today) != nil, e.completedTodayLocked(today), len(e.queue))
}

func (e *Engine) completedTodayLocked(today string) int {
	n := 0
	for _, id := range e.queue {
		t := e.findTask(id)
		if t != nil && t.Done && t.CompletedAt != nil && timeutil.Date(*t.CompletedAt) == today {
			n++
		}
	}
	return n
}

// SuggestTasks proposes open, unqueued tasks that fit in what is left of the
// daily budget, highest priority first and then shortest first.
func (e *Engine) SuggestTasks(limit int) []Task {
	if limit <= 0 {
		limit = DefaultSuggestions
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	committed := 0
	for _, id := range e.queue {
		if t := e.findTask(id); t != nil && !t.Done {
			committed += t.EstimatedTime
		}
	}
	remaining := e.planning.DailyTimeAvailable - committed
	if remaining < 0 {
		remaining = 0
	}

	var out []Task
	for _, t := range e.tasks {
		if t.Done || e.queueIndex(t.ID) >= 0 || t.EstimatedTime > remaining {
			continue
		}
		out = append(out, cloneTask(t))
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := timeutil.PriorityRank(string(out[i].Priority)), timeutil.PriorityRank(string(out[j].Priority))
		if ri != rj {
			return ri > rj
		}
		return out[i].EstimatedTime < out[j].EstimatedTime
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Schedule summarises today's queue against the daily budget.
func (e *Engine) Schedule() Schedule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entries := e.projectQueue()
	s := Schedule{
		DailyTimeAvailable: e.planning.DailyTimeAvailable,
		TotalCount:         len(entries),
	}
	var done []QueueEntry
	for _, q := range entries {
		s.TotalEstimated += q.EstimatedTime
		if q.Done {
			done = append(done, q)
		}
	}
	s.CompletedCount = len(done)
	s.CompletedEstimated = timeutil.TotalEstimated(done)
	s.ActualTime = timeutil.TotalActual(done)
	s.RemainingEstimated = s.TotalEstimated - s.CompletedEstimated
	s.OverBudget = s.TotalEstimated > s.DailyTimeAvailable
	s.Status = timeutil.Compare(s.ActualTime, s.CompletedEstimated)
	if text, ok := timeutil.AccuracyText(s.ActualTime, s.CompletedEstimated); ok {
		s.AccuracyText = text
	}
	return s
}
