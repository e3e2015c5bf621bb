package flow

import (
	"testing"
	"time"
)

// End-to-end flows through the public command surface.

func TestScenarioTimedCompletion(t *testing.T) {
	e, c, _ := newTestEngine(t)
	p := mustProject(t, e, "Demo")
	id := mustTask(t, e, p, "Write report", 30)
	e.AddToQueue(id)
	if err := e.StartTimer(id); err != nil {
		t.Fatal(err)
	}
	c.Advance(5 * time.Minute)

	task, err := e.CompleteTask(id, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !task.Done || task.ActualTime != 5 || task.CompletedAt == nil || task.IsTimerRunning || task.StartTime != nil {
		t.Fatalf("task = %+v", task)
	}

	q := e.ListQueue()
	if len(q) != 1 {
		t.Fatalf("queue length = %d", len(q))
	}
	entry := q[0]
	if entry.Done != task.Done || entry.ActualTime != task.ActualTime || entry.IsTimerRunning ||
		entry.CompletedAt == nil || !entry.CompletedAt.Equal(*task.CompletedAt) || entry.ProjectName != "Demo" {
		t.Fatalf("queue entry %+v does not mirror task %+v", entry, task)
	}
}

func TestScenarioQueueTwice(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 0)
	e.AddToQueue(id)
	e.AddToQueue(id)
	if e.QueueLen() != 1 {
		t.Fatalf("queue length = %d, want 1", e.QueueLen())
	}
}

func TestScenarioTimerHandoff(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	a := mustTask(t, e, p, "A", 0)
	b := mustTask(t, e, p, "B", 0)
	e.StartTimer(a)
	e.StartTimer(b)
	if mustGet(t, e, a).IsTimerRunning || !mustGet(t, e, b).IsTimerRunning {
		t.Fatal("B should own the only running timer")
	}
}

func TestScenarioToggleUndoKeepsActual(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 0)

	e.ToggleTaskDone(id, intPtr(12))
	task, err := e.ToggleTaskDone(id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if task.Done || task.CompletedAt != nil || task.ActualTime != 12 {
		t.Fatalf("task = %+v", task)
	}
}

func TestScenarioPlanningPrompt(t *testing.T) {
	if !ShouldShowPlanningPrompt("2024-01-02", "2024-01-01", 0) {
		t.Fatal("expected prompt with an empty queue")
	}
	if ShouldShowPlanningPrompt("2024-01-02", "2024-01-01", 3) {
		t.Fatal("expected no prompt with queued tasks")
	}
}
