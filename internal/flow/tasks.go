package flow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sadopc/taskflow/internal/store"
	"github.com/sadopc/taskflow/internal/timeutil"
)

// AddTask creates a task in an existing project and returns its id.
func (e *Engine) AddTask(nt NewTask) (string, error) {
	text := strings.TrimSpace(nt.Text)
	if text == "" {
		return "", fmt.Errorf("%w: task text is required", ErrValidation)
	}
	if nt.Priority == "" {
		nt.Priority = PriorityMedium
	}
	if !timeutil.ValidPriority(string(nt.Priority)) {
		return "", fmt.Errorf("%w: priority must be 'low', 'medium', or 'high'", ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if nt.ProjectID == "" || e.findProject(nt.ProjectID) == nil {
		return "", fmt.Errorf("%w: project %q does not exist", ErrValidation, nt.ProjectID)
	}

	t := Task{
		ID:            uuid.NewString(),
		ProjectID:     nt.ProjectID,
		Text:          text,
		Priority:      nt.Priority,
		EstimatedTime: timeutil.Clamp(nt.EstimatedTime),
		Notes:         nt.Notes,
		Tags:          cleanTags(nt.Tags),
		DueDate:       nt.DueDate,
		CreatedAt:     e.now(),
	}
	e.tasks = append(e.tasks, t)
	e.persist(store.KeyTasks)
	e.log.Debug("task created", "task_id", t.ID, "project_id", t.ProjectID)
	return t.ID, nil
}

func (e *Engine) GetTask(id string) (Task, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t := e.findTask(id)
	if t == nil {
		return Task{}, false
	}
	return cloneTask(*t), true
}

// ListTasks returns the tasks of projectID in creation order, or every task
// when projectID is empty.
func (e *Engine) ListTasks(projectID string) []Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Task
	for _, t := range e.tasks {
		if projectID == "" || t.ProjectID == projectID {
			out = append(out, cloneTask(t))
		}
	}
	return out
}

// UpdateTaskTime sets the estimate in minutes.
func (e *Engine) UpdateTaskTime(id string, minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("%w: estimated time must not be negative", ErrValidation)
	}
	return e.mutateTask(id, func(t *Task) error {
		t.EstimatedTime = minutes
		return nil
	})
}

func (e *Engine) UpdateTaskNotes(id, notes string) error {
	return e.mutateTask(id, func(t *Task) error {
		t.Notes = notes
		return nil
	})
}

// UpdateTaskName renames a task. A blank name leaves the old one in place.
func (e *Engine) UpdateTaskName(id, name string) error {
	name = strings.TrimSpace(name)
	return e.mutateTask(id, func(t *Task) error {
		if name == "" {
			return errUnchanged
		}
		t.Text = name
		return nil
	})
}

func (e *Engine) UpdateTaskPriority(id string, p Priority) error {
	if !timeutil.ValidPriority(string(p)) {
		return fmt.Errorf("%w: priority must be 'low', 'medium', or 'high'", ErrValidation)
	}
	return e.mutateTask(id, func(t *Task) error {
		t.Priority = p
		return nil
	})
}

func (e *Engine) UpdateTaskTags(id string, tags []string) error {
	return e.mutateTask(id, func(t *Task) error {
		t.Tags = cleanTags(tags)
		return nil
	})
}

// UpdateTask validates u and then applies every field in one write. A rejected
// update leaves the task untouched.
func (e *Engine) UpdateTask(id string, u TaskUpdate) error {
	name := strings.TrimSpace(u.Name)
	if u.Priority != "" && !timeutil.ValidPriority(string(u.Priority)) {
		return fmt.Errorf("%w: priority must be 'low', 'medium', or 'high'", ErrValidation)
	}
	if u.EstimatedTime < 0 {
		return fmt.Errorf("%w: estimated time must not be negative", ErrValidation)
	}
	return e.mutateTask(id, func(t *Task) error {
		if name != "" {
			t.Text = name
		}
		if u.Priority != "" {
			t.Priority = u.Priority
		}
		t.EstimatedTime = u.EstimatedTime
		t.Notes = u.Notes
		t.Tags = cleanTags(u.Tags)
		return nil
	})
}

// ToggleTaskDone flips a task between done and not done. Completing a task
// stops its timer; when actual is nil the running session's minutes become
// the actual time, or the recorded one is kept. Undoing clears CompletedAt and
// keeps ActualTime as history.
func (e *Engine) ToggleTaskDone(id string, actual *int) (Task, error) {
	if actual != nil && *actual < 0 {
		return Task{}, fmt.Errorf("%w: actual time must not be negative", ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.findTask(id)
	if t == nil {
		return Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	if _, ok := e.pending[id]; ok {
		return Task{}, fmt.Errorf("%w: task %s has a completion in progress", ErrInvalidState, id)
	}

	if t.Done {
		e.undoLocked(t)
	} else {
		minutes := t.ActualTime
		if t.IsTimerRunning {
			minutes = e.stopTimerLocked(t)
		}
		if actual != nil {
			minutes = *actual
		}
		e.finishLocked(t, minutes)
	}
	e.persist(store.KeyTasks)
	return cloneTask(*t), nil
}

// errUnchanged lets a mutation opt out of persisting without failing.
var errUnchanged = errors.New("unchanged")

// mutateTask applies fn to the task under the engine lock. Queue entries are
// projections of the task table, so there is nothing else to keep in sync.
func (e *Engine) mutateTask(id string, fn func(*Task) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.findTask(id)
	if t == nil {
		return fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	if err := fn(t); err != nil {
		if err == errUnchanged {
			return nil
		}
		return err
	}
	e.persist(store.KeyTasks)
	return nil
}

func (e *Engine) finishLocked(t *Task, actual int) {
	now := e.now()
	t.Done = true
	t.CompletedAt = &now
	t.ActualTime = actual
	t.IsTimerRunning = false
	t.StartTime = nil
}

func (e *Engine) undoLocked(t *Task) {
	t.Done = false
	t.CompletedAt = nil
}

func (e *Engine) findTask(id string) *Task {
	for i := range e.tasks {
		if e.tasks[i].ID == id {
			return &e.tasks[i]
		}
	}
	return nil
}
