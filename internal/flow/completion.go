package flow

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sadopc/taskflow/internal/store"
)

// RequestCompletion begins completing a task. A running timer is stopped and
// its elapsed minutes become the actual time; without one the last recorded
// actual time is kept. manual, when non-nil, overrides both. The task stays
// pending until ConfirmCompletion or SkipCompletion finalizes it, and cannot
// be completed, timed or requested again meanwhile.
func (e *Engine) RequestCompletion(id string, manual *int) (PendingCompletion, error) {
	if manual != nil && *manual < 0 {
		return PendingCompletion{}, fmt.Errorf("%w: actual time must not be negative", ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.findTask(id)
	if t == nil {
		return PendingCompletion{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	if t.Done {
		return PendingCompletion{}, fmt.Errorf("%w: task %s is already done", ErrInvalidState, id)
	}
	if _, ok := e.pending[id]; ok {
		return PendingCompletion{}, fmt.Errorf("%w: task %s has a completion in progress", ErrInvalidState, id)
	}

	wasRunning := t.IsTimerRunning
	actual := t.ActualTime
	if wasRunning {
		actual = e.stopTimerLocked(t)
	}
	if manual != nil {
		actual = *manual
	}
	t.ActualTime = actual

	e.pendingSeq++
	p := PendingCompletion{
		TaskID:          id,
		TaskText:        t.Text,
		EstimatedTime:   t.EstimatedTime,
		ActualTime:      actual,
		TimerWasRunning: wasRunning,
		NeedsFeedback:   t.EstimatedTime > 0 || actual > 0 || wasRunning,
		RequestedAt:     e.now(),
		seq:             e.pendingSeq,
	}
	e.pending[id] = p
	if wasRunning || manual != nil {
		e.persist(store.KeyTasks)
	}
	return p, nil
}

// ConfirmCompletion records one insight from fb and marks the task done.
func (e *Engine) ConfirmCompletion(p PendingCompletion, fb Feedback) (Task, error) {
	if err := validateFeedback(fb); err != nil {
		return Task{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.claimPendingLocked(p)
	if err != nil {
		return Task{}, err
	}

	insight := TaskInsight{
		ID:            uuid.NewString(),
		TaskID:        p.TaskID,
		EstimatedTime: p.EstimatedTime,
		ActualTime:    p.ActualTime,
		Accuracy:      fb.Accuracy,
		Notes:         strings.TrimSpace(fb.Notes),
		TimeDiff:      p.TimeDiff(),
		RecordedAt:    e.now(),
	}
	if insight.TimeDiff > 0 {
		insight.DelayReason = fb.DelayReason
	}
	e.insights = append(e.insights, insight)
	e.finishLocked(t, p.ActualTime)
	e.persist(store.KeyTasks, store.KeyInsights)
	e.log.Info("task completed", "task_id", t.ID, "actual", t.ActualTime, "estimated", t.EstimatedTime, "feedback", true)
	return cloneTask(*t), nil
}

// SkipCompletion marks the task done without recording an insight.
func (e *Engine) SkipCompletion(p PendingCompletion) (Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.claimPendingLocked(p)
	if err != nil {
		return Task{}, err
	}
	e.finishLocked(t, p.ActualTime)
	e.persist(store.KeyTasks)
	e.log.Info("task completed", "task_id", t.ID, "actual", t.ActualTime, "estimated", t.EstimatedTime, "feedback", false)
	return cloneTask(*t), nil
}

// CompleteTask runs both completion phases. A nil fb skips feedback.
func (e *Engine) CompleteTask(id string, manual *int, fb *Feedback) (Task, error) {
	if fb != nil {
		if err := validateFeedback(*fb); err != nil {
			return Task{}, err
		}
	}
	p, err := e.RequestCompletion(id, manual)
	if err != nil {
		return Task{}, err
	}
	if fb != nil {
		return e.ConfirmCompletion(p, *fb)
	}
	return e.SkipCompletion(p)
}

// PendingFor returns the outstanding completion for a task, if any.
func (e *Engine) PendingFor(id string) (PendingCompletion, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.pending[id]
	return p, ok
}

// UndoCompletion reopens a done task. Its actual time and any recorded
// insight are kept.
func (e *Engine) UndoCompletion(id string) (Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.findTask(id)
	if t == nil {
		return Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	if !t.Done {
		return Task{}, fmt.Errorf("%w: task %s is not done", ErrInvalidState, id)
	}
	e.undoLocked(t)
	e.persist(store.KeyTasks)
	return cloneTask(*t), nil
}

// Insights returns the completion feedback log, oldest first.
func (e *Engine) Insights() []TaskInsight {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]TaskInsight(nil), e.insights...)
}

func (e *Engine) claimPendingLocked(p PendingCompletion) (*Task, error) {
	cur, ok := e.pending[p.TaskID]
	if !ok || cur.seq != p.seq {
		return nil, fmt.Errorf("%w: no pending completion for task %s", ErrInvalidState, p.TaskID)
	}
	delete(e.pending, p.TaskID)
	t := e.findTask(p.TaskID)
	if t == nil {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, p.TaskID)
	}
	return t, nil
}

func validateFeedback(fb Feedback) error {
	if fb.Accuracy < 1 || fb.Accuracy > 5 {
		return fmt.Errorf("%w: accuracy must be between 1 and 5", ErrValidation)
	}
	return nil
}
