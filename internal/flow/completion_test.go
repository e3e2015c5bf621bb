package flow

import (
	"errors"
	"testing"
	"time"
)

func TestRequestCompletionNeedsFeedback(t *testing.T) {
	e, c, _ := newTestEngine(t)
	p := mustProject(t, e, "P")

	tests := []struct {
		name     string
		estimate int
		manual   *int
		timer    time.Duration
		want     bool
	}{
		{"nothing known", 0, nil, 0, false},
		{"estimate only", 20, nil, 0, true},
		{"manual actual", 0, intPtr(5), 0, true},
		{"timer under a minute", 0, nil, 30 * time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := mustTask(t, e, p, tt.name, tt.estimate)
			if tt.timer > 0 {
				e.StartTimer(id)
				c.Advance(tt.timer)
			}
			pc, err := e.RequestCompletion(id, tt.manual)
			if err != nil {
				t.Fatal(err)
			}
			if pc.NeedsFeedback != tt.want {
				t.Fatalf("NeedsFeedback = %v, want %v (%+v)", pc.NeedsFeedback, tt.want, pc)
			}
			if _, err := e.SkipCompletion(pc); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestConfirmCompletionRecordsInsight(t *testing.T) {
	e, c, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 20)
	e.StartTimer(id)
	c.Advance(30 * time.Minute)

	pc, err := e.RequestCompletion(id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !pc.TimerWasRunning || pc.ActualTime != 30 || !pc.OverEstimate() || pc.TimeDiff() != 10 {
		t.Fatalf("pending = %+v", pc)
	}
	if mustGet(t, e, id).Done {
		t.Fatal("task must not be done while pending")
	}

	task, err := e.ConfirmCompletion(pc, Feedback{Accuracy: 2, Notes: "  slow  ", DelayReason: DelayReasons[1]})
	if err != nil {
		t.Fatal(err)
	}
	if !task.Done || task.ActualTime != 30 || task.CompletedAt == nil {
		t.Fatalf("task = %+v", task)
	}
	ins := e.Insights()
	if len(ins) != 1 {
		t.Fatalf("insights = %d, want 1", len(ins))
	}
	got := ins[0]
	if got.TaskID != id || got.EstimatedTime != 20 || got.ActualTime != 30 || got.TimeDiff != 10 ||
		got.Accuracy != 2 || got.Notes != "slow" || got.DelayReason != DelayReasons[1] {
		t.Fatalf("insight = %+v", got)
	}
}

func TestDelayReasonOnlyWhenOver(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 30)
	if _, err := e.CompleteTask(id, intPtr(20), &Feedback{Accuracy: 5, DelayReason: "Other"}); err != nil {
		t.Fatal(err)
	}
	if got := e.Insights()[0].DelayReason; got != "" {
		t.Fatalf("delay reason = %q for an under-estimate", got)
	}
}

func TestSkipCompletionRecordsNothing(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 20)
	pc, _ := e.RequestCompletion(id, nil)
	task, err := e.SkipCompletion(pc)
	if err != nil {
		t.Fatal(err)
	}
	if !task.Done || len(e.Insights()) != 0 {
		t.Fatalf("task = %+v, insights = %d", task, len(e.Insights()))
	}
}

func TestPendingCompletionBlocksOtherCommands(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 20)
	pc, _ := e.RequestCompletion(id, nil)

	if _, err := e.RequestCompletion(id, nil); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second request err = %v", err)
	}
	if err := e.StartTimer(id); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("start timer while pending err = %v", err)
	}
	if _, err := e.ToggleTaskDone(id, nil); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("toggle while pending err = %v", err)
	}
	if got, ok := e.PendingFor(id); !ok || got.TaskID != id {
		t.Fatalf("PendingFor = %+v, %v", got, ok)
	}

	if _, err := e.SkipCompletion(pc); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.PendingFor(id); ok {
		t.Fatal("pending should be cleared")
	}
	// Finalizing twice fails and records nothing.
	if _, err := e.ConfirmCompletion(pc, Feedback{Accuracy: 3}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("confirm after skip err = %v", err)
	}
	if len(e.Insights()) != 0 {
		t.Fatal("no insight expected")
	}
}

func TestStalePendingRejected(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 20)

	first, _ := e.RequestCompletion(id, nil)
	e.SkipCompletion(first)
	e.UndoCompletion(id)
	second, _ := e.RequestCompletion(id, nil)

	if _, err := e.ConfirmCompletion(first, Feedback{Accuracy: 3}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("stale token err = %v", err)
	}
	if _, err := e.ConfirmCompletion(second, Feedback{Accuracy: 3}); err != nil {
		t.Fatal(err)
	}
}

func TestConfirmCompletionValidatesAccuracy(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 20)
	pc, _ := e.RequestCompletion(id, nil)

	for _, a := range []int{0, 6, -1} {
		if _, err := e.ConfirmCompletion(pc, Feedback{Accuracy: a}); !errors.Is(err, ErrValidation) {
			t.Fatalf("accuracy %d err = %v", a, err)
		}
	}
	// A rejected confirm leaves the completion pending.
	if _, err := e.ConfirmCompletion(pc, Feedback{Accuracy: 4}); err != nil {
		t.Fatal(err)
	}
}

func TestCompleteTaskTwiceRejected(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 20)
	fb := &Feedback{Accuracy: 4}

	if _, err := e.CompleteTask(id, nil, fb); err != nil {
		t.Fatal(err)
	}
	if _, err := e.CompleteTask(id, nil, fb); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second completion err = %v", err)
	}
	if n := len(e.Insights()); n != 1 {
		t.Fatalf("insights = %d, want 1", n)
	}
	if _, err := e.CompleteTask("nope", nil, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id err = %v", err)
	}
}

func TestUndoCompletionKeepsInsight(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 20)

	if _, err := e.UndoCompletion(id); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("undo open task err = %v", err)
	}
	e.CompleteTask(id, intPtr(15), &Feedback{Accuracy: 4})
	task, err := e.UndoCompletion(id)
	if err != nil {
		t.Fatal(err)
	}
	if task.Done || task.CompletedAt != nil || task.ActualTime != 15 {
		t.Fatalf("task = %+v", task)
	}
	if len(e.Insights()) != 1 {
		t.Fatal("undo must not retract insights")
	}
}

func TestTimedCompletionAfterUndo(t *testing.T) {
	e, c, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 0)

	if _, err := e.CompleteTask(id, intPtr(10), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := e.UndoCompletion(id); err != nil {
		t.Fatal(err)
	}
	if err := e.StartTimer(id); err != nil {
		t.Fatal(err)
	}
	c.Advance(5 * time.Minute)

	task, err := e.CompleteTask(id, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if task.ActualTime != 5 {
		t.Fatalf("actual = %d, want 5 (elapsed minutes of the running timer)", task.ActualTime)
	}
}

func TestCompletionKeepsStoppedSession(t *testing.T) {
	e, c, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 0)

	e.StartTimer(id)
	c.Advance(8 * time.Minute)
	e.StopTimer(id)

	pc, err := e.RequestCompletion(id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if pc.TimerWasRunning || pc.ActualTime != 8 {
		t.Fatalf("pending = %+v, want actual 8 from the stopped session", pc)
	}
}

func intPtr(n int) *int { return &n }
