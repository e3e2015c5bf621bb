package analytics

import (
	"sort"
	"time"

	"github.com/sadopc/taskflow/internal/flow"
	"github.com/sadopc/taskflow/internal/timeutil"
)

// HeatmapDays is the width of the activity heatmap: twelve weeks.
const HeatmapDays = 84

// Streaks holds the current and best runs of consecutive days with at least
// one completed task.
type Streaks struct {
	Current int
	Best    int
}

// ComputeStreaks walks backward from today. A day with no completions yet
// does not break the current streak; counting then starts from yesterday.
func ComputeStreaks(tasks []flow.Task, now time.Time) Streaks {
	days := completionsByDay(tasks, now.Location())
	if len(days) == 0 {
		return Streaks{}
	}

	var s Streaks
	d := timeutil.StartOfDay(now)
	if days[timeutil.Date(d)] == 0 {
		d = d.AddDate(0, 0, -1)
	}
	for days[timeutil.Date(d)] > 0 {
		s.Current++
		d = d.AddDate(0, 0, -1)
	}

	dates := make([]time.Time, 0, len(days))
	for ds := range days {
		t, err := time.ParseInLocation(timeutil.DateLayout, ds, now.Location())
		if err != nil {
			continue
		}
		dates = append(dates, t)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	run := 0
	for i, t := range dates {
		if i > 0 && timeutil.Date(dates[i-1].AddDate(0, 0, 1)) == timeutil.Date(t) {
			run++
		} else {
			run = 1
		}
		if run > s.Best {
			s.Best = run
		}
	}
	return s
}

// HeatmapDay is one cell of the activity heatmap.
type HeatmapDay struct {
	Date  string
	Count int
	Level int
}

// HeatmapLevel buckets a completion count into intensity 0 to 4.
func HeatmapLevel(count int) int {
	switch {
	case count <= 0:
		return 0
	case count >= 4:
		return 4
	default:
		return count
	}
}

// Heatmap returns the last HeatmapDays days ending today, oldest first.
func Heatmap(tasks []flow.Task, now time.Time) []HeatmapDay {
	days := completionsByDay(tasks, now.Location())
	start := timeutil.StartOfDay(now).AddDate(0, 0, -(HeatmapDays - 1))
	out := make([]HeatmapDay, HeatmapDays)
	for i := range out {
		date := timeutil.Date(start.AddDate(0, 0, i))
		n := days[date]
		out[i] = HeatmapDay{Date: date, Count: n, Level: HeatmapLevel(n)}
	}
	return out
}
