// Package flow is the task and queue state engine: projects, tasks, today's
// queue, the single running timer, completion bookkeeping, and daily
// planning and reflection.
//
// An Engine is loaded once from Storage and writes through on every
// mutation. Each command runs under one lock, so readers never observe a
// task and its queue projection out of step.
package flow

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sadopc/taskflow/internal/store"
	"github.com/sadopc/taskflow/internal/timeutil"
)

// DefaultDailyMinutes is the daily budget used before the user plans a day.
const DefaultDailyMinutes = 480

// Storage is the key/value contract the engine persists through.
// *store.Store satisfies it.
type Storage interface {
	Get(key string) ([]byte, bool, error)
	SetMany(values map[string][]byte) error
	Remove(key string) error
}

type Engine struct {
	mu      sync.RWMutex
	storage Storage
	now     func() time.Time
	log     *slog.Logger

	projects          []Project
	tasks             []Task
	queue             []string
	selectedProjectID string
	planning          PlanningState
	reflections       []Reflection
	insights          []TaskInsight

	pending    map[string]PendingCompletion
	pendingSeq uint64

	warnings []string
}

type Option func(*Engine)

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithDefaultDailyMinutes sets the budget used when none is stored yet.
func WithDefaultDailyMinutes(minutes int) Option {
	return func(e *Engine) {
		if minutes >= 0 {
			e.planning.DailyTimeAvailable = minutes
		}
	}
}

// Open builds an engine from whatever storage holds. Unreadable or corrupt
// keys fall back to defaults and are reported through Warnings; Open never
// fails. A nil storage gives a purely in-memory engine.
func Open(storage Storage, opts ...Option) *Engine {
	e := &Engine{
		storage:  storage,
		now:      time.Now,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		planning: PlanningState{DailyTimeAvailable: DefaultDailyMinutes},
		pending:  make(map[string]PendingCompletion),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.load()
	e.reconcile()
	return e
}

// Warnings returns the persistence problems seen so far this session.
func (e *Engine) Warnings() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.warnings...)
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

func (e *Engine) today() string {
	return timeutil.Date(e.now())
}

func (e *Engine) warn(msg string, err error, attrs ...any) {
	w := fmt.Sprintf("%s: %v", msg, err)
	e.warnings = append(e.warnings, w)
	e.log.Warn(msg, append(attrs, "error", err)...)
}

func (e *Engine) load() {
	if e.storage == nil {
		return
	}
	for _, key := range store.AllKeys {
		switch key {
		case store.KeyProjects:
			decodeKey(e, key, &e.projects)
		case store.KeyTasks:
			decodeKey(e, key, &e.tasks)
		case store.KeyQueue:
			decodeKey(e, key, &e.queue)
		case store.KeySelectedProject:
			decodeKey(e, key, &e.selectedProjectID)
		case store.KeyDailyTime:
			decodeKey(e, key, &e.planning.DailyTimeAvailable)
		case store.KeyLastPlanning:
			decodeKey(e, key, &e.planning.LastPlanningDate)
		case store.KeyReflections:
			decodeKey(e, key, &e.reflections)
		case store.KeyInsights:
			decodeKey(e, key, &e.insights)
		default:
			e.log.Warn("no decoder for state key", "key", key)
		}
	}
}

// decodeKey leaves dst untouched when the key is absent or unreadable.
func decodeKey[T any](e *Engine, key string, dst *T) {
	data, ok, err := e.storage.Get(key)
	if err != nil {
		e.warn("load state", err, "key", key)
		return
	}
	if !ok || len(data) == 0 || string(data) == "null" {
		return
	}
	// A corrupt blob must not leave a half-filled collection behind.
	var scratch T
	if err := json.Unmarshal(data, &scratch); err != nil {
		e.warn("decode state", err, "key", key)
		return
	}
	*dst = scratch
}

// reconcile repairs invariants a hand-edited or crashed store could break.
func (e *Engine) reconcile() {
	if e.planning.DailyTimeAvailable < 0 {
		e.planning.DailyTimeAvailable = 0
	}

	// At most one running timer; the most recent start wins.
	var running *Task
	for i := range e.tasks {
		t := &e.tasks[i]
		if t.Tags == nil {
			t.Tags = []string{}
		}
		t.EstimatedTime = timeutil.Clamp(t.EstimatedTime)
		t.ActualTime = timeutil.Clamp(t.ActualTime)
		t.TrackedTime = timeutil.Clamp(t.TrackedTime)
		if !t.IsTimerRunning {
			t.StartTime = nil
			continue
		}
		if t.Done || t.StartTime == nil {
			t.IsTimerRunning = false
			t.StartTime = nil
			continue
		}
		if running == nil || t.StartTime.After(*running.StartTime) {
			if running != nil {
				running.IsTimerRunning = false
				running.StartTime = nil
			}
			running = t
		} else {
			t.IsTimerRunning = false
			t.StartTime = nil
		}
	}

	// The queue holds weak references: drop unknown ids and duplicates.
	seen := make(map[string]bool, len(e.queue))
	queue := e.queue[:0]
	for _, id := range e.queue {
		if seen[id] || e.findTask(id) == nil {
			continue
		}
		seen[id] = true
		queue = append(queue, id)
	}
	e.queue = queue

	for i := range e.projects {
		if e.projects[i].Category == "" {
			e.projects[i].Category = CategoryWork
		}
		if e.projects[i].Tags == nil {
			e.projects[i].Tags = []string{}
		}
	}
}

// persist writes the named keys in one storage transaction. Failures are
// downgraded to warnings: the session carries on with in-memory state.
func (e *Engine) persist(keys ...string) {
	if e.storage == nil {
		return
	}
	values := make(map[string][]byte, len(keys))
	for _, k := range keys {
		data, err := json.Marshal(e.valueFor(k))
		if err != nil {
			e.warn("encode state", err, "key", k)
			return
		}
		values[k] = data
	}
	if err := e.storage.SetMany(values); err != nil {
		e.warn("persist state", err, "keys", keys)
	}
}

func (e *Engine) valueFor(key string) any {
	switch key {
	case store.KeyProjects:
		return e.projects
	case store.KeyTasks:
		return e.tasks
	case store.KeyQueue:
		return e.queue
	case store.KeySelectedProject:
		return e.selectedProjectID
	case store.KeyDailyTime:
		return e.planning.DailyTimeAvailable
	case store.KeyLastPlanning:
		return e.planning.LastPlanningDate
	case store.KeyReflections:
		return e.reflections
	case store.KeyInsights:
		return e.insights
	}
	return nil
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		Projects:          e.copyProjects(),
		Tasks:             e.copyTasks(e.tasks),
		Queue:             e.projectQueue(),
		SelectedProjectID: e.selectedProjectID,
		Planning:          e.planning,
		Reflections:       e.sortedReflections(),
		Insights:          append([]TaskInsight(nil), e.insights...),
	}
}

func (e *Engine) copyProjects() []Project {
	out := make([]Project, len(e.projects))
	for i, p := range e.projects {
		p.Tags = append([]string{}, p.Tags...)
		out[i] = p
	}
	return out
}

func (e *Engine) copyTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = cloneTask(t)
	}
	return out
}

func cloneTask(t Task) Task {
	t.Tags = append([]string{}, t.Tags...)
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		t.CompletedAt = &c
	}
	if t.StartTime != nil {
		s := *t.StartTime
		t.StartTime = &s
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

func (e *Engine) sortedReflections() []Reflection {
	out := append([]Reflection(nil), e.reflections...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
