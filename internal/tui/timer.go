package tui

import (
	"time"

	"github.com/sadopc/taskflow/internal/flow"
)

// timerModel mirrors the engine's single running timer for display. The
// engine owns the timer state; this model only caches what the header and
// dashboard render between ticks.
type timerModel struct {
	engine *flow.Engine

	taskID    string
	taskText  string
	startTime time.Time
	elapsed   time.Duration

	// Idle detection: a running timer with no key activity for idleTimeout
	// is flagged so the user notices time piling up.
	lastActivity time.Time
	idleTimeout  time.Duration
	isIdle       bool
}

func newTimerModel(e *flow.Engine) timerModel {
	t := timerModel{
		engine:       e,
		lastActivity: e.Now(),
		idleTimeout:  5 * time.Minute,
	}
	t.sync()
	return t
}

// sync reloads the running timer from the engine.
func (t *timerModel) sync() {
	at, ok := t.engine.ActiveTimer()
	if !ok {
		t.taskID, t.taskText = "", ""
		t.elapsed = 0
		t.isIdle = false
		return
	}
	if at.TaskID != t.taskID {
		t.lastActivity = t.engine.Now()
		t.isIdle = false
	}
	t.taskID = at.TaskID
	t.startTime = at.StartTime
	if task, ok := t.engine.GetTask(at.TaskID); ok {
		t.taskText = task.Text
	}
	t.elapsed, _ = t.engine.TimerElapsed(t.engine.Now())
}

func (t *timerModel) start(taskID string) error {
	if err := t.engine.StartTimer(taskID); err != nil {
		return err
	}
	t.lastActivity = t.engine.Now()
	t.isIdle = false
	t.sync()
	return nil
}

// stop stops the running timer and returns the minutes it added.
func (t *timerModel) stop() (int, error) {
	if t.taskID == "" {
		return 0, nil
	}
	minutes, err := t.engine.StopTimer(t.taskID)
	if err != nil {
		return 0, err
	}
	t.sync()
	return minutes, nil
}

func (t *timerModel) tick() {
	t.sync()
	if t.running() && !t.isIdle && t.engine.Now().Sub(t.lastActivity) > t.idleTimeout {
		t.isIdle = true
	}
}

func (t *timerModel) recordActivity() {
	t.lastActivity = t.engine.Now()
	t.isIdle = false
}

func (t timerModel) running() bool {
	return t.taskID != ""
}

func (t timerModel) idle() bool {
	return t.isIdle
}

func (t timerModel) currentElapsed() time.Duration {
	if !t.running() {
		return 0
	}
	return t.elapsed
}
