package flow

import (
	"fmt"
	"time"

	"github.com/sadopc/taskflow/internal/store"
	"github.com/sadopc/taskflow/internal/timeutil"
)

// StartTimer starts tracking time on a task. Any other running timer is
// stopped first; its minutes go to that task's tracked total but not to its
// actual time. Starting a task that is already running is a no-op.
func (e *Engine) StartTimer(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.findTask(id)
	if t == nil {
		return fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	if t.Done {
		return fmt.Errorf("%w: task %s is already done", ErrInvalidState, id)
	}
	if _, ok := e.pending[id]; ok {
		return fmt.Errorf("%w: task %s has a completion in progress", ErrInvalidState, id)
	}
	if t.IsTimerRunning {
		return nil
	}

	for i := range e.tasks {
		other := &e.tasks[i]
		if other.ID == id || !other.IsTimerRunning {
			continue
		}
		minutes := e.stopTimerLocked(other)
		e.log.Info("timer preempted", "task_id", other.ID, "minutes", minutes, "by", id)
	}

	now := e.now()
	t.StartTime = &now
	t.IsTimerRunning = true
	e.persist(store.KeyTasks)
	e.log.Debug("timer started", "task_id", id)
	return nil
}

// StopTimer stops the running timer on a task and returns the elapsed
// minutes, which become the task's actual time.
func (e *Engine) StopTimer(id string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.findTask(id)
	if t == nil {
		return 0, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	if !t.IsTimerRunning {
		return 0, fmt.Errorf("%w: no timer running on task %s", ErrInvalidState, id)
	}
	minutes := e.stopTimerLocked(t)
	t.ActualTime = minutes
	e.persist(store.KeyTasks)
	e.log.Debug("timer stopped", "task_id", id, "minutes", minutes)
	return minutes, nil
}

// stopTimerLocked clears the running state, adds the session to TrackedTime
// and returns the whole minutes elapsed. It does not touch ActualTime.
func (e *Engine) stopTimerLocked(t *Task) int {
	minutes, _ := ElapsedMinutes(*t, e.now())
	t.TrackedTime += minutes
	t.IsTimerRunning = false
	t.StartTime = nil
	return minutes
}

// ElapsedMinutes returns the whole minutes since the task's timer started.
// The second result is false when no timer is running.
func ElapsedMinutes(t Task, now time.Time) (int, bool) {
	if !t.IsTimerRunning || t.StartTime == nil {
		return 0, false
	}
	return timeutil.ElapsedMinutes(*t.StartTime, now), true
}

// ActiveTimer returns the running timer, if any.
func (e *Engine) ActiveTimer() (ActiveTimer, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, t := range e.tasks {
		if t.IsTimerRunning && t.StartTime != nil {
			return ActiveTimer{TaskID: t.ID, StartTime: *t.StartTime}, true
		}
	}
	return ActiveTimer{}, false
}

// TimerElapsed returns the wall-clock duration of the running timer at now.
func (e *Engine) TimerElapsed(now time.Time) (time.Duration, bool) {
	at, ok := e.ActiveTimer()
	if !ok {
		return 0, false
	}
	d := now.Sub(at.StartTime)
	if d < 0 {
		d = 0
	}
	return d, true
}
