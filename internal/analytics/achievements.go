package analytics

import (
	"time"

	"github.com/sadopc/taskflow/internal/flow"
	"github.com/sadopc/taskflow/internal/timeutil"
)

// Achievement is a milestone derived from current data. Nothing is stored,
// so an achievement disappears again if the data behind it changes.
type Achievement struct {
	ID          string
	Title       string
	Description string
	Progress    int
	Target      int
	Unlocked    bool
}

type metric int

const (
	metricCompleted metric = iota
	metricBestStreak
	metricTrackedMinutes
)

type milestone struct {
	id, title, desc string
	metric          metric
	target          int
}

var milestones = []milestone{
	{"first-task", "First Step", "Complete your first task", metricCompleted, 1},
	{"ten-tasks", "Getting Things Done", "Complete 10 tasks", metricCompleted, 10},
	{"fifty-tasks", "Task Master", "Complete 50 tasks", metricCompleted, 50},
	{"streak-3", "On a Roll", "Complete tasks 3 days in a row", metricBestStreak, 3},
	{"streak-7", "Week Warrior", "Complete tasks 7 days in a row", metricBestStreak, 7},
	{"tracked-600", "Deep Work", "Track 10 hours of work", metricTrackedMinutes, 600},
}

// Achievements evaluates every milestone against tasks. Progress is capped
// at the target.
func Achievements(tasks []flow.Task, now time.Time) []Achievement {
	done := Completed(tasks, PeriodAll, now)
	values := map[metric]int{
		metricCompleted:      len(done),
		metricBestStreak:     ComputeStreaks(tasks, now).Best,
		metricTrackedMinutes: timeutil.TotalActual(done),
	}

	out := make([]Achievement, len(milestones))
	for i, m := range milestones {
		v := values[m.metric]
		progress := v
		if progress > m.target {
			progress = m.target
		}
		out[i] = Achievement{
			ID:          m.id,
			Title:       m.title,
			Description: m.desc,
			Progress:    progress,
			Target:      m.target,
			Unlocked:    v >= m.target,
		}
	}
	return out
}
