package flow

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sadopc/taskflow/internal/store"
)

// SaveReflection records today's reflection, replacing any earlier one for
// the same date. Planned time and task counts are taken from the current
// budget and queue.
func (e *Engine) SaveReflection(in ReflectionInput) (Reflection, error) {
	if err := validateRating("estimation accuracy", in.EstimationAccuracy); err != nil {
		return Reflection{}, err
	}
	if err := validateRating("productivity", in.Productivity); err != nil {
		return Reflection{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	today := e.today()
	completed := 0
	for _, id := range e.queue {
		if t := e.findTask(id); t != nil && t.Done {
			completed++
		}
	}
	r := Reflection{
		ID:                 uuid.NewString(),
		Date:               today,
		PlannedTime:        e.planning.DailyTimeAvailable,
		CompletedTasks:     completed,
		TotalTasks:         len(e.queue),
		EstimationAccuracy: in.EstimationAccuracy,
		Productivity:       in.Productivity,
		Challenges:         in.Challenges,
		Wins:               in.Wins,
		TomorrowFocus:      in.TomorrowFocus,
		SavedAt:            e.now(),
	}

	kept := e.reflections[:0:0]
	for _, old := range e.reflections {
		if old.Date != today {
			kept = append(kept, old)
		}
	}
	e.reflections = append(kept, r)
	e.persist(store.KeyReflections)
	e.log.Info("reflection saved", "date", today, "completed", completed, "total", r.TotalTasks)
	return r, nil
}

// GetReflection returns the reflection saved for date (YYYY-MM-DD).
func (e *Engine) GetReflection(date string) (Reflection, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if r := e.findReflection(date); r != nil {
		return *r, true
	}
	return Reflection{}, false
}

func (e *Engine) TodayReflection() (Reflection, bool) {
	return e.GetReflection(e.today())
}

// Reflections returns every reflection ordered by date.
func (e *Engine) Reflections() []Reflection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sortedReflections()
}

func (e *Engine) findReflection(date string) *Reflection {
	for i := range e.reflections {
		if e.reflections[i].Date == date {
			return &e.reflections[i]
		}
	}
	return nil
}

func validateRating(name string, v int) error {
	if v < 1 || v > 5 {
		return fmt.Errorf("%w: %s must be between 1 and 5", ErrValidation, name)
	}
	return nil
}
