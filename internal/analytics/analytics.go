// Package analytics derives read-only dashboard views from task history:
// period filters, breakdowns, streaks, the heatmap, achievements and trends.
// Nothing here mutates state; every function is a pure projection of its
// arguments and the supplied clock reading.
package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sadopc/taskflow/internal/flow"
	"github.com/sadopc/taskflow/internal/timeutil"
)

type Period string

const (
	PeriodDay     Period = "day"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
	PeriodAll     Period = "all"
)

// Periods lists the selectable periods in display order.
var Periods = []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear, PeriodAll}

var periodDays = map[Period]int{
	PeriodWeek:    7,
	PeriodMonth:   30,
	PeriodQuarter: 90,
	PeriodYear:    365,
}

// ParsePeriod accepts a period name in any case.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Periods {
		if v == p {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q (want day, week, month, quarter, year or all)", s)
}

func (p Period) Title() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// Completed returns the done tasks completed within p as seen at now. Day
// means the same calendar date as now; the other periods are rolling
// windows of a fixed number of days.
func Completed(tasks []flow.Task, p Period, now time.Time) []flow.Task {
	today := timeutil.Date(now)
	var cutoff time.Time
	if n, ok := periodDays[p]; ok {
		cutoff = now.Add(-time.Duration(n) * 24 * time.Hour)
	}

	var out []flow.Task
	for _, t := range tasks {
		if !t.Done || t.CompletedAt == nil {
			continue
		}
		at := t.CompletedAt.In(now.Location())
		switch p {
		case PeriodDay:
			if timeutil.Date(at) != today {
				continue
			}
		case PeriodAll:
		default:
			if at.Before(cutoff) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Summary totals a set of completed tasks.
type Summary struct {
	Count            int
	EstimatedMinutes int
	TrackedMinutes   int
}

func Summarize(tasks []flow.Task) Summary {
	return Summary{
		Count:            len(tasks),
		EstimatedMinutes: timeutil.TotalEstimated(tasks),
		TrackedMinutes:   timeutil.TotalActual(tasks),
	}
}

// ProjectGroup is one row of the per-project breakdown.
type ProjectGroup struct {
	ProjectID        string
	ProjectName      string
	Category         flow.Category
	Tasks            []flow.Task
	EstimatedMinutes int
	TrackedMinutes   int
}

func (g ProjectGroup) Count() int { return len(g.Tasks) }

// ProjectBreakdown groups tasks by project, largest estimated total first.
func ProjectBreakdown(tasks []flow.Task, projects []flow.Project) []ProjectGroup {
	byID := indexProjects(projects)
	groups := map[string]*ProjectGroup{}
	var order []string
	for _, t := range tasks {
		g, ok := groups[t.ProjectID]
		if !ok {
			g = &ProjectGroup{ProjectID: t.ProjectID, ProjectName: flow.UnknownProjectName, Category: flow.CategoryOther}
			if p, ok := byID[t.ProjectID]; ok {
				g.ProjectName = p.Name
				g.Category = p.Category
			}
			groups[t.ProjectID] = g
			order = append(order, t.ProjectID)
		}
		g.Tasks = append(g.Tasks, t)
		g.EstimatedMinutes += t.EstimatedTime
		g.TrackedMinutes += t.ActualTime
	}

	out := make([]ProjectGroup, 0, len(order))
	for _, id := range order {
		out = append(out, *groups[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EstimatedMinutes != out[j].EstimatedMinutes {
			return out[i].EstimatedMinutes > out[j].EstimatedMinutes
		}
		return out[i].ProjectName < out[j].ProjectName
	})
	return out
}

// CategoryTotal is the estimated time spent in one project category.
type CategoryTotal struct {
	Category flow.Category
	Count    int
	Minutes  int
}

// CategoryBreakdown sums estimated minutes by the owning project's category.
// Tasks of unknown projects count as "other". Empty categories are omitted.
func CategoryBreakdown(tasks []flow.Task, projects []flow.Project) []CategoryTotal {
	byID := indexProjects(projects)
	totals := map[flow.Category]*CategoryTotal{}
	for _, t := range tasks {
		cat := flow.CategoryOther
		if p, ok := byID[t.ProjectID]; ok && p.Category != "" {
			cat = p.Category
		}
		ct, ok := totals[cat]
		if !ok {
			ct = &CategoryTotal{Category: cat}
			totals[cat] = ct
		}
		ct.Count++
		ct.Minutes += t.EstimatedTime
	}

	var out []CategoryTotal
	for _, c := range flow.Categories {
		if ct, ok := totals[c]; ok {
			out = append(out, *ct)
			delete(totals, c)
		}
	}
	// Unrecognised categories follow the known ones, sorted by name.
	var rest []flow.Category
	for c := range totals {
		rest = append(rest, c)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, c := range rest {
		out = append(out, *totals[c])
	}
	return out
}

func indexProjects(projects []flow.Project) map[string]flow.Project {
	m := make(map[string]flow.Project, len(projects))
	for _, p := range projects {
		m[p.ID] = p
	}
	return m
}

// completionsByDay counts done tasks per calendar date in loc.
func completionsByDay(tasks []flow.Task, loc *time.Location) map[string]int {
	days := map[string]int{}
	for _, t := range tasks {
		if t.Done && t.CompletedAt != nil {
			days[timeutil.Date(t.CompletedAt.In(loc))]++
		}
	}
	return days
}
