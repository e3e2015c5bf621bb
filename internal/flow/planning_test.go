package flow

import (
	"errors"
	"testing"
	"time"
)

// ============================================================
// Planning
// ============================================================

func TestShouldShowPlanningPrompt(t *testing.T) {
	tests := []struct {
		today, last string
		queueLen    int
		want        bool
	}{
		{"2024-01-02", "2024-01-01", 0, true},
		{"2024-01-02", "2024-01-01", 3, false},
		{"2024-01-02", "2024-01-02", 0, false},
		{"2024-01-02", "", 0, true},
	}
	for _, tt := range tests {
		if got := ShouldShowPlanningPrompt(tt.today, tt.last, tt.queueLen); got != tt.want {
			t.Errorf("ShouldShowPlanningPrompt(%q, %q, %d) = %v, want %v", tt.today, tt.last, tt.queueLen, got, tt.want)
		}
	}
}

func TestShouldShowReflectionPrompt(t *testing.T) {
	tests := []struct {
		exists    bool
		completed int
		queueLen  int
		want      bool
	}{
		{false, 1, 1, true},
		{true, 1, 1, false},
		{false, 0, 3, false},
		{false, 2, 0, false},
	}
	for _, tt := range tests {
		if got := ShouldShowReflectionPrompt(tt.exists, tt.completed, tt.queueLen); got != tt.want {
			t.Errorf("ShouldShowReflectionPrompt(%v, %d, %d) = %v, want %v", tt.exists, tt.completed, tt.queueLen, got, tt.want)
		}
	}
}

func TestSetDailyTimeAvailable(t *testing.T) {
	e, _, _ := newTestEngine(t)
	if !e.PlanningPromptDue() {
		t.Fatal("planning prompt should be due on a fresh day")
	}
	if err := e.SetDailyTimeAvailable(-1); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative minutes err = %v", err)
	}
	if err := e.SetDailyTimeAvailable(360); err != nil {
		t.Fatal(err)
	}
	pl := e.Planning()
	if pl.DailyTimeAvailable != 360 || pl.LastPlanningDate != "2024-01-02" {
		t.Fatalf("planning = %+v", pl)
	}
	if e.PlanningPromptDue() {
		t.Fatal("planning prompt should not be due after planning")
	}
}

func TestPlanningPromptNextDay(t *testing.T) {
	e, c, _ := newTestEngine(t)
	e.SetDailyTimeAvailable(300)
	c.Advance(24 * time.Hour)
	if !e.PlanningPromptDue() {
		t.Fatal("planning prompt should be due the next day")
	}
	p := mustProject(t, e, "P")
	e.AddToQueue(mustTask(t, e, p, "T", 0))
	if e.PlanningPromptDue() {
		t.Fatal("a non-empty queue suppresses the planning prompt")
	}
}

func TestReflectionPromptDue(t *testing.T) {
	e, c, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	a := mustTask(t, e, p, "A", 10)
	b := mustTask(t, e, p, "B", 10)
	e.AddTasksToQueue([]string{a, b})

	if e.ReflectionPromptDue() {
		t.Fatal("nothing completed yet")
	}
	e.CompleteTask(a, nil, nil)
	if !e.ReflectionPromptDue() {
		t.Fatal("reflection should be due after a completion")
	}
	if _, err := e.SaveReflection(ReflectionInput{EstimationAccuracy: 3, Productivity: 4}); err != nil {
		t.Fatal(err)
	}
	if e.ReflectionPromptDue() {
		t.Fatal("reflection already saved today")
	}

	// Completions from an earlier day do not count today.
	c.Advance(24 * time.Hour)
	if e.ReflectionPromptDue() {
		t.Fatal("yesterday's completion should not trigger today's prompt")
	}
}

func TestEstimationAccuracy(t *testing.T) {
	q := []QueueEntry{
		{Task: Task{Done: true, EstimatedTime: 30}},
		{Task: Task{Done: true, EstimatedTime: 45}},
		{Task: Task{Done: true}},
		{Task: Task{Done: false, EstimatedTime: 100}},
	}
	got, ok := EstimationAccuracy(q)
	if !ok || got != 38 {
		t.Fatalf("EstimationAccuracy = %d, %v, want 38 (mean of 30 and 45, rounded)", got, ok)
	}
	if _, ok := EstimationAccuracy(nil); ok {
		t.Fatal("empty queue should have no accuracy")
	}
	if _, ok := EstimationAccuracy(q[2:]); ok {
		t.Fatal("no completed task with an estimate")
	}
}

// The current metric averages estimates and ignores tracked time. This test
// records the behaviour a real accuracy measure would have.
func TestEstimationAccuracyComparesActualTime(t *testing.T) {
	t.Skip("pending: EstimationAccuracy averages estimates instead of comparing them with actual time")

	q := []QueueEntry{
		{Task: Task{Done: true, EstimatedTime: 30, ActualTime: 30}},
	}
	if got, _ := EstimationAccuracy(q); got != 100 {
		t.Fatalf("accuracy = %d, want 100 for a perfect estimate", got)
	}
}

func TestSuggestTasks(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetDailyTimeAvailable(120)
	p := mustProject(t, e, "P")

	add := func(text string, est int, pr Priority) string {
		id, err := e.AddTask(NewTask{ProjectID: p, Text: text, EstimatedTime: est, Priority: pr})
		if err != nil {
			t.Fatal(err)
		}
		return id
	}
	queued := add("queued", 60, PriorityHigh)
	e.AddToQueue(queued)
	add("too long", 90, PriorityHigh)
	lowShort := add("low short", 10, PriorityLow)
	highLong := add("high long", 50, PriorityHigh)
	highShort := add("high short", 20, PriorityHigh)
	med := add("medium", 15, PriorityMedium)
	done := add("done", 5, PriorityHigh)
	e.ToggleTaskDone(done, nil)

	got := e.SuggestTasks(0)
	want := []string{highShort, highLong, med, lowShort}
	if len(got) != len(want) {
		t.Fatalf("suggestions = %d, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("suggestion %d = %q, want %q", i, got[i].Text, want[i])
		}
	}
	if got := e.SuggestTasks(2); len(got) != 2 {
		t.Fatalf("limit ignored: %d", len(got))
	}
}

func TestSchedule(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetDailyTimeAvailable(60)
	p := mustProject(t, e, "P")
	a := mustTask(t, e, p, "A", 40)
	b := mustTask(t, e, p, "B", 30)
	e.AddTasksToQueue([]string{a, b})
	e.CompleteTask(a, intPtr(50), nil)

	s := e.Schedule()
	if s.TotalEstimated != 70 || s.CompletedEstimated != 40 || s.RemainingEstimated != 30 {
		t.Fatalf("schedule estimates = %+v", s)
	}
	if s.ActualTime != 50 || s.CompletedCount != 1 || s.TotalCount != 2 || !s.OverBudget {
		t.Fatalf("schedule = %+v", s)
	}
	if s.AccuracyText != "25% over estimates" {
		t.Fatalf("accuracy text = %q", s.AccuracyText)
	}
}

// ============================================================
// Reflections
// ============================================================

func TestSaveReflectionRoundTrip(t *testing.T) {
	e, c, _ := newTestEngine(t)
	e.SetDailyTimeAvailable(300)
	p := mustProject(t, e, "P")
	a := mustTask(t, e, p, "A", 10)
	b := mustTask(t, e, p, "B", 10)
	e.AddTasksToQueue([]string{a, b})
	e.CompleteTask(a, nil, nil)

	in := ReflectionInput{
		EstimationAccuracy: 4,
		Productivity:       5,
		Challenges:         "meetings",
		Wins:               "shipped",
		TomorrowFocus:      "tests",
	}
	saved, err := e.SaveReflection(in)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := e.GetReflection("2024-01-02")
	if !ok {
		t.Fatal("reflection not found")
	}
	if got != saved {
		t.Fatalf("GetReflection = %+v, want %+v", got, saved)
	}
	if got.EstimationAccuracy != 4 || got.Productivity != 5 || got.Challenges != "meetings" ||
		got.Wins != "shipped" || got.TomorrowFocus != "tests" {
		t.Fatalf("user fields = %+v", got)
	}
	if got.PlannedTime != 300 || got.CompletedTasks != 1 || got.TotalTasks != 2 || !got.SavedAt.Equal(c.Now()) {
		t.Fatalf("derived fields = %+v", got)
	}
}

func TestSaveReflectionReplacesSameDay(t *testing.T) {
	e, c, _ := newTestEngine(t)
	e.SaveReflection(ReflectionInput{EstimationAccuracy: 1, Productivity: 1})
	e.SaveReflection(ReflectionInput{EstimationAccuracy: 5, Productivity: 5})
	if n := len(e.Reflections()); n != 1 {
		t.Fatalf("reflections = %d, want 1", n)
	}
	if r, _ := e.TodayReflection(); r.Productivity != 5 {
		t.Fatalf("reflection not replaced: %+v", r)
	}

	c.Advance(24 * time.Hour)
	e.SaveReflection(ReflectionInput{EstimationAccuracy: 3, Productivity: 3})
	rs := e.Reflections()
	if len(rs) != 2 || rs[0].Date != "2024-01-02" || rs[1].Date != "2024-01-03" {
		t.Fatalf("reflections = %+v", rs)
	}
}

func TestSaveReflectionValidation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	bad := []ReflectionInput{
		{EstimationAccuracy: 0, Productivity: 3},
		{EstimationAccuracy: 3, Productivity: 6},
	}
	for _, in := range bad {
		if _, err := e.SaveReflection(in); !errors.Is(err, ErrValidation) {
			t.Fatalf("SaveReflection(%+v) err = %v", in, err)
		}
	}
	if _, ok := e.TodayReflection(); ok {
		t.Fatal("invalid reflections must not be stored")
	}
}
