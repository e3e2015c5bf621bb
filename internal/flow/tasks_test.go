package flow

import (
	"errors"
	"testing"
	"time"
)

// ============================================================
// Projects
// ============================================================

func TestAddProjectValidation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := e.AddProject(name); !errors.Is(err, ErrValidation) {
			t.Fatalf("AddProject(%q) err = %v, want ErrValidation", name, err)
		}
	}
	if len(e.ListProjects()) != 0 {
		t.Fatal("failed adds must not change state")
	}

	id := mustProject(t, e, "  Demo  ")
	p, ok := e.GetProject(id)
	if !ok || p.Name != "Demo" || p.Category != CategoryWork {
		t.Fatalf("project = %+v", p)
	}
}

func TestCreateProjectCategory(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p, err := e.CreateProject(NewProject{Name: "Gym", Category: CategoryHealth, Tags: []string{"a", " a ", ""}})
	if err != nil {
		t.Fatal(err)
	}
	if p.Category != CategoryHealth || len(p.Tags) != 1 {
		t.Fatalf("project = %+v", p)
	}
	if _, err := e.CreateProject(NewProject{Name: "X", Category: "hobby"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown category err = %v", err)
	}
}

func TestUpdateProject(t *testing.T) {
	e, _, _ := newTestEngine(t)
	id := mustProject(t, e, "Old")
	if err := e.UpdateProject(id, ProjectUpdate{Name: "New", Category: CategoryLearning}); err != nil {
		t.Fatal(err)
	}
	if got := e.ProjectName(id); got != "New" {
		t.Fatalf("name = %q", got)
	}
	if err := e.UpdateProject("nope", ProjectUpdate{Name: "X"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id err = %v", err)
	}
	if err := e.UpdateProject(id, ProjectUpdate{Name: " "}); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank name err = %v", err)
	}
	if got := e.ProjectName("nope"); got != UnknownProjectName {
		t.Fatalf("missing project name = %q", got)
	}
}

func TestSelectProject(t *testing.T) {
	e, _, _ := newTestEngine(t)
	id := mustProject(t, e, "P")
	if err := e.SelectProject("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if err := e.SelectProject(id); err != nil {
		t.Fatal(err)
	}
	if e.SelectedProjectID() != id {
		t.Fatal("selection not stored")
	}
	if err := e.SelectProject(""); err != nil {
		t.Fatal(err)
	}
	if e.SelectedProjectID() != "" {
		t.Fatal("selection not cleared")
	}
}

func TestSplitTags(t *testing.T) {
	got := SplitTags(" go, cli ,,go")
	if len(got) != 2 || got[0] != "go" || got[1] != "cli" {
		t.Fatalf("SplitTags = %v", got)
	}
	if got := SplitTags(""); got == nil || len(got) != 0 {
		t.Fatalf("SplitTags(\"\") = %#v", got)
	}
}

// ============================================================
// Tasks
// ============================================================

func TestAddTaskValidation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p := mustProject(t, e, "P")

	tests := []struct {
		name string
		nt   NewTask
	}{
		{"blank text", NewTask{ProjectID: p, Text: "  "}},
		{"no project", NewTask{Text: "x"}},
		{"unknown project", NewTask{ProjectID: "nope", Text: "x"}},
		{"bad priority", NewTask{ProjectID: p, Text: "x", Priority: "urgent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.AddTask(tt.nt); !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
	if len(e.ListTasks("")) != 0 {
		t.Fatal("failed adds must not change state")
	}
}

func TestAddTaskDefaults(t *testing.T) {
	e, c, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id, err := e.AddTask(NewTask{ProjectID: p, Text: " Write ", EstimatedTime: -10})
	if err != nil {
		t.Fatal(err)
	}
	task := mustGet(t, e, id)
	if task.Text != "Write" || task.Priority != PriorityMedium || task.EstimatedTime != 0 {
		t.Fatalf("task = %+v", task)
	}
	if task.Done || task.IsTimerRunning || task.CompletedAt != nil || task.StartTime != nil {
		t.Fatalf("new task has lifecycle state: %+v", task)
	}
	if !task.CreatedAt.Equal(c.Now()) {
		t.Fatalf("createdAt = %v", task.CreatedAt)
	}
}

func TestListTasksByProject(t *testing.T) {
	e, _, _ := newTestEngine(t)
	a := mustProject(t, e, "A")
	b := mustProject(t, e, "B")
	mustTask(t, e, a, "a1", 0)
	mustTask(t, e, b, "b1", 0)
	mustTask(t, e, a, "a2", 0)

	got := e.ListTasks(a)
	if len(got) != 2 || got[0].Text != "a1" || got[1].Text != "a2" {
		t.Fatalf("ListTasks(a) = %+v", got)
	}
	if len(e.ListTasks("")) != 3 {
		t.Fatal("ListTasks(\"\") should return all tasks")
	}
}

func TestUpdateTaskFields(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "Old", 10)

	if err := e.UpdateTaskTime(id, 45); err != nil {
		t.Fatal(err)
	}
	if err := e.UpdateTaskNotes(id, "some notes"); err != nil {
		t.Fatal(err)
	}
	if err := e.UpdateTaskName(id, "  New  "); err != nil {
		t.Fatal(err)
	}
	if err := e.UpdateTaskPriority(id, PriorityHigh); err != nil {
		t.Fatal(err)
	}
	if err := e.UpdateTaskTags(id, []string{"x", "y"}); err != nil {
		t.Fatal(err)
	}
	task := mustGet(t, e, id)
	if task.EstimatedTime != 45 || task.Notes != "some notes" || task.Text != "New" || task.Priority != PriorityHigh || len(task.Tags) != 2 {
		t.Fatalf("task = %+v", task)
	}

	// Blank names keep the previous name.
	if err := e.UpdateTaskName(id, "   "); err != nil {
		t.Fatal(err)
	}
	if got := mustGet(t, e, id).Text; got != "New" {
		t.Fatalf("name = %q, want New", got)
	}
}

func TestUpdateTaskErrors(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 10)

	if err := e.UpdateTaskTime("nope", 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id err = %v", err)
	}
	if err := e.UpdateTaskNotes("nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id err = %v", err)
	}
	if err := e.UpdateTaskName("nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id err = %v", err)
	}
	if err := e.UpdateTaskTime(id, -1); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative time err = %v", err)
	}
	if err := e.UpdateTaskPriority(id, "soon"); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad priority err = %v", err)
	}
	if got := mustGet(t, e, id).EstimatedTime; got != 10 {
		t.Fatalf("estimate changed to %d after failed update", got)
	}
}

// countingStorage counts SetMany calls on top of a real store.
type countingStorage struct {
	Storage
	writes int
}

func (c *countingStorage) SetMany(values map[string][]byte) error {
	c.writes++
	return c.Storage.SetMany(values)
}

func TestUpdateTask(t *testing.T) {
	cs := &countingStorage{Storage: newTestStore(t)}
	e := Open(cs)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "Old", 10)

	cs.writes = 0
	err := e.UpdateTask(id, TaskUpdate{
		Name:          " New ",
		Priority:      PriorityHigh,
		EstimatedTime: 45,
		Notes:         "n",
		Tags:          []string{"x", "x", "y"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if cs.writes != 1 {
		t.Fatalf("writes = %d, want 1", cs.writes)
	}
	task := mustGet(t, e, id)
	if task.Text != "New" || task.Priority != PriorityHigh || task.EstimatedTime != 45 || task.Notes != "n" || len(task.Tags) != 2 {
		t.Fatalf("task = %+v", task)
	}

	// Blank name and priority keep the current values.
	if err := e.UpdateTask(id, TaskUpdate{EstimatedTime: 5}); err != nil {
		t.Fatal(err)
	}
	task = mustGet(t, e, id)
	if task.Text != "New" || task.Priority != PriorityHigh || task.EstimatedTime != 5 {
		t.Fatalf("task = %+v", task)
	}
}

func TestUpdateTaskRejectsWithoutPartialWrite(t *testing.T) {
	cs := &countingStorage{Storage: newTestStore(t)}
	e := Open(cs)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "Keep", 10)
	before := mustGet(t, e, id)

	tests := []struct {
		name string
		id   string
		u    TaskUpdate
		want error
	}{
		{"bad priority", id, TaskUpdate{Name: "Renamed", Priority: "soon", EstimatedTime: 30}, ErrValidation},
		{"negative estimate", id, TaskUpdate{Name: "Renamed", Priority: PriorityLow, EstimatedTime: -1}, ErrValidation},
		{"unknown task", "nope", TaskUpdate{Name: "Renamed"}, ErrNotFound},
	}
	for _, tt := range tests {
		cs.writes = 0
		if err := e.UpdateTask(tt.id, tt.u); !errors.Is(err, tt.want) {
			t.Fatalf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
		if cs.writes != 0 {
			t.Fatalf("%s: writes = %d, want 0", tt.name, cs.writes)
		}
		if got := mustGet(t, e, id); got.Text != before.Text || got.Priority != before.Priority || got.EstimatedTime != before.EstimatedTime {
			t.Fatalf("%s: task changed to %+v", tt.name, got)
		}
	}
}

func TestToggleTaskDone(t *testing.T) {
	e, c, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 30)

	actual := 25
	task, err := e.ToggleTaskDone(id, &actual)
	if err != nil {
		t.Fatal(err)
	}
	if !task.Done || task.ActualTime != 25 || task.CompletedAt == nil || !task.CompletedAt.Equal(c.Now()) {
		t.Fatalf("after complete: %+v", task)
	}

	task, err = e.ToggleTaskDone(id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if task.Done || task.CompletedAt != nil || task.ActualTime != 25 {
		t.Fatalf("after undo: %+v", task)
	}

	if _, err := e.ToggleTaskDone("nope", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id err = %v", err)
	}
	neg := -3
	if _, err := e.ToggleTaskDone(id, &neg); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative actual err = %v", err)
	}
}

func TestToggleTaskDoneStopsTimer(t *testing.T) {
	e, c, _ := newTestEngine(t)
	p := mustProject(t, e, "P")
	id := mustTask(t, e, p, "T", 30)

	if err := e.StartTimer(id); err != nil {
		t.Fatal(err)
	}
	c.Advance(7*time.Minute + 40*time.Second)
	task, err := e.ToggleTaskDone(id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if task.ActualTime != 7 || task.IsTimerRunning || task.StartTime != nil {
		t.Fatalf("task = %+v", task)
	}
	if _, ok := e.ActiveTimer(); ok {
		t.Fatal("timer should be cleared")
	}
}
