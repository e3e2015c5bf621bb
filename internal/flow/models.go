package flow

import (
	"time"

	"github.com/sadopc/taskflow/internal/timeutil"
)

type Priority string

const (
	PriorityLow    Priority = timeutil.PriorityLow
	PriorityMedium Priority = timeutil.PriorityMedium
	PriorityHigh   Priority = timeutil.PriorityHigh
)

// Category groups projects for the analytics breakdown.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryLearning Category = "learning"
	CategoryHealth   Category = "health"
	CategoryOther    Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryWork, CategoryPersonal, CategoryLearning, CategoryHealth, CategoryOther}

func validCategory(c Category) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Category    Category  `json:"category"`
	Color       string    `json:"color,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewProject carries the fields accepted when creating a project.
type NewProject struct {
	Name        string
	Description string
	Tags        []string
	Category    Category
	Color       string
}

// ProjectUpdate replaces the editable fields of a project.
type ProjectUpdate struct {
	Name        string
	Description string
	Tags        []string
	Category    Category
}

type Task struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"projectId"`
	Text           string     `json:"text"`
	Done           bool       `json:"done"`
	Priority       Priority   `json:"priority"`
	EstimatedTime  int        `json:"estimatedTime"`
	ActualTime     int        `json:"actualTime,omitempty"`
	TrackedTime    int        `json:"trackedTime,omitempty"` // every timer session, preempted ones included
	Notes          string     `json:"notes,omitempty"`
	Tags           []string   `json:"tags"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	IsTimerRunning bool       `json:"isTimerRunning"`
	StartTime      *time.Time `json:"startTime,omitempty"`
}

func (t Task) Estimate() int { return t.EstimatedTime }
func (t Task) Actual() int   { return t.ActualTime }

// NewTask carries the fields accepted when creating a task. EstimatedTime is
// coerced to a non-negative value; an empty Priority means medium.
type NewTask struct {
	ProjectID     string
	Text          string
	Priority      Priority
	EstimatedTime int
	Notes         string
	Tags          []string
	DueDate       *time.Time
}

// TaskUpdate is a full edit of a task's user-editable fields. A blank Name or
// an empty Priority keeps the current value.
type TaskUpdate struct {
	Name          string
	Priority      Priority
	EstimatedTime int
	Notes         string
	Tags          []string
}

// QueueEntry is a task as it appears in today's queue. Entries are projected
// from the task table on every read, so they never disagree with it.
type QueueEntry struct {
	Task
	ProjectName string `json:"projectName"`
}

// ActiveTimer identifies the single running timer.
type ActiveTimer struct {
	TaskID    string
	StartTime time.Time
}

type PlanningState struct {
	DailyTimeAvailable int    `json:"dailyTimeAvailable"`
	LastPlanningDate   string `json:"lastPlanningDate,omitempty"`
}

type Reflection struct {
	ID                 string    `json:"id"`
	Date               string    `json:"date"`
	PlannedTime        int       `json:"plannedTime"`
	CompletedTasks     int       `json:"completedTasks"`
	TotalTasks         int       `json:"totalTasks"`
	EstimationAccuracy int       `json:"estimationAccuracy"`
	Productivity       int       `json:"productivity"`
	Challenges         string    `json:"challenges"`
	Wins               string    `json:"wins"`
	TomorrowFocus      string    `json:"tomorrowFocus"`
	SavedAt            time.Time `json:"savedAt"`
}

// ReflectionInput holds the user-entered part of a reflection. Ratings run
// from 1 to 5.
type ReflectionInput struct {
	EstimationAccuracy int
	Productivity       int
	Challenges         string
	Wins               string
	TomorrowFocus      string
}

// TaskInsight is the feedback captured when a task is completed. Insights are
// append-only.
type TaskInsight struct {
	ID            string    `json:"id"`
	TaskID        string    `json:"taskId"`
	EstimatedTime int       `json:"estimatedTime"`
	ActualTime    int       `json:"actualTime"`
	Accuracy      int       `json:"accuracy"`
	Notes         string    `json:"notes"`
	TimeDiff      int       `json:"timeDiff"`
	DelayReason   string    `json:"delayReason,omitempty"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// Feedback is what the user answers in the completion prompt.
type Feedback struct {
	Accuracy    int
	Notes       string
	DelayReason string
}

// DelayReasons are the canned answers offered when a task ran over.
var DelayReasons = []string{
	"Over Optimistic estimate",
	"Got Distracted",
	"Blocked by Dependency",
	"More complex than expected",
	"Learning to complete task",
	"Other",
}

// PendingCompletion is the first half of a two-phase completion. It is
// finalized by ConfirmCompletion or SkipCompletion.
type PendingCompletion struct {
	TaskID          string
	TaskText        string
	EstimatedTime   int
	ActualTime      int
	TimerWasRunning bool
	NeedsFeedback   bool
	RequestedAt     time.Time

	seq uint64
}

// TimeDiff is actual minus estimated minutes.
func (p PendingCompletion) TimeDiff() int { return p.ActualTime - p.EstimatedTime }

// OverEstimate reports whether the task took longer than estimated.
func (p PendingCompletion) OverEstimate() bool { return p.TimeDiff() > 0 }

// Schedule summarises today's queue against the daily budget.
type Schedule struct {
	DailyTimeAvailable int
	TotalEstimated     int
	CompletedEstimated int
	RemainingEstimated int
	ActualTime         int
	CompletedCount     int
	TotalCount         int
	Status             timeutil.Status
	AccuracyText       string
	OverBudget         bool
}

// Snapshot is a deep copy of the engine state for read-only consumers.
type Snapshot struct {
	Projects          []Project
	Tasks             []Task
	Queue             []QueueEntry
	SelectedProjectID string
	Planning          PlanningState
	Reflections       []Reflection
	Insights          []TaskInsight
}
