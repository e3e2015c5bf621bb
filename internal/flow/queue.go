package flow

import (
	"fmt"

	"github.com/sadopc/taskflow/internal/store"
)

// AddToQueue appends a task to today's queue. It reports false, and changes
// nothing, when the task is unknown or already queued.
func (e *Engine) AddToQueue(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.enqueueLocked(id) {
		return false
	}
	e.persist(store.KeyQueue)
	return true
}

// AddTasksToQueue queues several tasks at once, as chosen while planning the
// day, and returns how many were added.
func (e *Engine) AddTasksToQueue(ids []string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, id := range ids {
		if e.enqueueLocked(id) {
			n++
		}
	}
	if n > 0 {
		e.persist(store.KeyQueue)
	}
	return n
}

// RemoveFromQueue drops a task from the queue. The task itself is untouched.
func (e *Engine) RemoveFromQueue(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.queueIndex(id)
	if i < 0 {
		return false
	}
	e.queue = append(e.queue[:i], e.queue[i+1:]...)
	e.persist(store.KeyQueue)
	return true
}

// MoveInQueue moves a queued task to position index, clamped to the queue
// bounds.
func (e *Engine) MoveInQueue(id string, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	from := e.queueIndex(id)
	if from < 0 {
		return fmt.Errorf("%w: task %s is not queued", ErrNotFound, id)
	}
	if index < 0 {
		index = 0
	}
	if index > len(e.queue)-1 {
		index = len(e.queue) - 1
	}
	if index == from {
		return nil
	}
	q := append(e.queue[:from:from], e.queue[from+1:]...)
	q = append(q[:index], append([]string{id}, q[index:]...)...)
	e.queue = q
	e.persist(store.KeyQueue)
	return nil
}

// ListQueue returns today's queue in order, projected from the task table.
func (e *Engine) ListQueue() []QueueEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.projectQueue()
}

func (e *Engine) QueueLen() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.queue)
}

// InQueue reports whether the task is queued.
func (e *Engine) InQueue(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.queueIndex(id) >= 0
}

func (e *Engine) enqueueLocked(id string) bool {
	if e.findTask(id) == nil || e.queueIndex(id) >= 0 {
		return false
	}
	e.queue = append(e.queue, id)
	return true
}

func (e *Engine) queueIndex(id string) int {
	for i, qid := range e.queue {
		if qid == id {
			return i
		}
	}
	return -1
}

func (e *Engine) projectQueue() []QueueEntry {
	out := make([]QueueEntry, 0, len(e.queue))
	for _, id := range e.queue {
		t := e.findTask(id)
		if t == nil {
			continue
		}
		out = append(out, QueueEntry{Task: cloneTask(*t), ProjectName: e.projectName(t.ProjectID)})
	}
	return out
}
