package analytics

import (
	"time"

	"github.com/sadopc/taskflow/internal/flow"
	"github.com/sadopc/taskflow/internal/timeutil"
)

// TrendPoint is the completion total of one day or one week.
type TrendPoint struct {
	Start   time.Time
	Label   string
	Count   int
	Minutes int
}

// DailyTrend returns one point per day for the last days days, oldest first.
// Minutes are estimated minutes.
func DailyTrend(tasks []flow.Task, now time.Time, days int) []TrendPoint {
	if days <= 0 {
		return nil
	}
	start := timeutil.StartOfDay(now).AddDate(0, 0, -(days - 1))
	out := make([]TrendPoint, days)
	idx := make(map[string]int, days)
	for i := range out {
		d := start.AddDate(0, 0, i)
		out[i] = TrendPoint{Start: d, Label: d.Format("Mon 02")}
		idx[timeutil.Date(d)] = i
	}
	for _, t := range tasks {
		if !t.Done || t.CompletedAt == nil {
			continue
		}
		if i, ok := idx[timeutil.Date(t.CompletedAt.In(now.Location()))]; ok {
			out[i].Count++
			out[i].Minutes += t.EstimatedTime
		}
	}
	return out
}

// StartOfWeek returns the Monday starting t's week.
func StartOfWeek(t time.Time) time.Time {
	d := timeutil.StartOfDay(t)
	wd := int(d.Weekday())
	if wd == 0 {
		wd = 7
	}
	return d.AddDate(0, 0, -(wd - 1))
}

// WeeklyTrend returns one point per Monday-based week for the last weeks
// weeks, oldest first, the current week included.
func WeeklyTrend(tasks []flow.Task, now time.Time, weeks int) []TrendPoint {
	if weeks <= 0 {
		return nil
	}
	first := StartOfWeek(now).AddDate(0, 0, -7*(weeks-1))
	out := make([]TrendPoint, weeks)
	for i := range out {
		d := first.AddDate(0, 0, 7*i)
		out[i] = TrendPoint{Start: d, Label: d.Format("Jan 02")}
	}
	for _, t := range tasks {
		if !t.Done || t.CompletedAt == nil {
			continue
		}
		if i := weekIndex(first, t.CompletedAt.In(now.Location()), weeks); i >= 0 {
			out[i].Count++
			out[i].Minutes += t.EstimatedTime
		}
	}
	return out
}

// AccuracyPoint is the mean actual/estimate ratio of one week's insights.
// A ratio above 1 means work ran over its estimates.
type AccuracyPoint struct {
	Start   time.Time
	Label   string
	Ratio   float64
	Samples int
}

// EstimateAccuracyTrend averages actual/estimate over the insights recorded
// in each of the last weeks weeks. Insights missing either side are skipped;
// weeks without samples have a zero ratio.
func EstimateAccuracyTrend(insights []flow.TaskInsight, now time.Time, weeks int) []AccuracyPoint {
	if weeks <= 0 {
		return nil
	}
	first := StartOfWeek(now).AddDate(0, 0, -7*(weeks-1))
	out := make([]AccuracyPoint, weeks)
	sums := make([]float64, weeks)
	for i := range out {
		d := first.AddDate(0, 0, 7*i)
		out[i] = AccuracyPoint{Start: d, Label: d.Format("Jan 02")}
	}
	for _, in := range insights {
		if in.EstimatedTime <= 0 || in.ActualTime <= 0 {
			continue
		}
		if i := weekIndex(first, in.RecordedAt.In(now.Location()), weeks); i >= 0 {
			sums[i] += float64(in.ActualTime) / float64(in.EstimatedTime)
			out[i].Samples++
		}
	}
	for i := range out {
		if out[i].Samples > 0 {
			out[i].Ratio = sums[i] / float64(out[i].Samples)
		}
	}
	return out
}

func weekIndex(first, t time.Time, weeks int) int {
	if t.Before(first) || !t.Before(first.AddDate(0, 0, 7*weeks)) {
		return -1
	}
	for i := weeks - 1; i >= 0; i-- {
		if !t.Before(first.AddDate(0, 0, 7*i)) {
			return i
		}
	}
	return -1
}
