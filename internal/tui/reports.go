package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/taskflow/internal/analytics"
	"github.com/sadopc/taskflow/internal/flow"
	"github.com/sadopc/taskflow/internal/timeutil"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

const (
	trendDays  = 7
	trendWeeks = 8
)

type reportsModel struct {
	engine *flow.Engine
	width  int
	height int

	mode   reportMode
	period int // index into analytics.Periods
	offset int // 7-day blocks or trendWeeks blocks back from today (0 = current)

	snap flow.Snapshot
	now  time.Time

	chart barchart.Model
}

func newReportsModel(e *flow.Engine) reportsModel {
	return reportsModel{
		engine: e,
		period: 1, // week
		chart:  barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	snap flow.Snapshot
	now  time.Time
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return reportsDataMsg{snap: r.engine.Snapshot(), now: r.engine.Now()}
	}
}

func (r reportsModel) currentPeriod() analytics.Period {
	return analytics.Periods[r.period]
}

// chartEnd is the last day shown by the chart after applying the offset.
func (r reportsModel) chartEnd() time.Time {
	if r.mode == reportWeekly {
		return r.now.AddDate(0, 0, -7*trendWeeks*r.offset)
	}
	return r.now.AddDate(0, 0, -trendDays*r.offset)
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.snap = msg.snap
		r.now = msg.now
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			r.buildChart()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			r.buildChart()
		case key.Matches(msg, keys.Toggle):
			if r.mode == reportDaily {
				r.mode = reportWeekly
			} else {
				r.mode = reportDaily
			}
			r.offset = 0
			r.buildChart()
		case key.Matches(msg, keys.Up):
			r.period = (r.period + len(analytics.Periods) - 1) % len(analytics.Periods)
		case key.Matches(msg, keys.Down):
			r.period = (r.period + 1) % len(analytics.Periods)
		}
	}
	return r, nil
}

func (r reportsModel) trend() ([]analytics.TrendPoint, int) {
	end := r.chartEnd()
	if r.mode == reportWeekly {
		return analytics.WeeklyTrend(r.snap.Tasks, end, trendWeeks), 7
	}
	return analytics.DailyTrend(r.snap.Tasks, end, trendDays), 1
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if r.height > 40 {
		chartHeight = 14
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	colors := map[string]string{}
	for _, p := range r.snap.Projects {
		colors[p.ID] = p.Color
	}

	points, spanDays := r.trend()
	var bars []barchart.BarData
	for _, pt := range points {
		var inBar []flow.Task
		end := pt.Start.AddDate(0, 0, spanDays)
		for _, t := range r.snap.Tasks {
			if t.Done && t.CompletedAt != nil {
				at := t.CompletedAt.In(r.now.Location())
				if !at.Before(pt.Start) && at.Before(end) {
					inBar = append(inBar, t)
				}
			}
		}

		// One stacked segment per project, in estimated minutes.
		var values []barchart.BarValue
		for _, g := range analytics.ProjectBreakdown(inBar, r.snap.Projects) {
			c := colors[g.ProjectID]
			if c == "" {
				c = string(colorMuted)
			}
			values = append(values, barchart.BarValue{
				Name:  g.ProjectName,
				Value: float64(g.EstimatedMinutes),
				Style: lipgloss.NewStyle().Foreground(lipgloss.Color(c)),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  pt.Label,
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if r.mode == reportDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	points, _ := r.trend()
	dateLabel := ""
	if len(points) > 0 {
		dateLabel = mutedStyle.Render(fmt.Sprintf("%s to %s",
			points[0].Start.Format("Jan 02"), points[len(points)-1].Start.Format("Jan 02, 2006")))
	}

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", dateLabel,
	)

	left := lipgloss.JoinVertical(lipgloss.Left,
		r.renderSummary(),
		"",
		r.renderBreakdown(),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		r.renderStreaks(),
		"",
		r.renderAchievements(),
	)
	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(max(30, w/2)).Render(left), right)

	nav := mutedStyle.Render("  ←/→: navigate  space: daily/weekly  ↑/↓: period")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", columns, "", r.renderAccuracy(), "", nav,
		),
	)
}

func (r reportsModel) renderSummary() string {
	p := r.currentPeriod()
	done := analytics.Completed(r.snap.Tasks, p, r.now)
	sum := analytics.Summarize(done)
	rows := []string{
		titleStyle.Render(p.Title()),
		fmt.Sprintf("  %s tasks completed", highlightStyle.Render(humanize.Comma(int64(sum.Count)))),
		fmt.Sprintf("  %s estimated, %s tracked",
			timeutil.FormatMinutes(sum.EstimatedMinutes), timeutil.FormatMinutes(sum.TrackedMinutes)),
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderBreakdown() string {
	done := analytics.Completed(r.snap.Tasks, r.currentPeriod(), r.now)
	if len(done) == 0 {
		return mutedStyle.Render("  No data for this period")
	}
	rows := []string{mutedStyle.Render(fmt.Sprintf("  %-18s %8s %6s", "Project", "Estimate", "Tasks"))}
	for _, g := range analytics.ProjectBreakdown(done, r.snap.Projects) {
		rows = append(rows, fmt.Sprintf("  %-18s %8s %6d",
			truncate(g.ProjectName, 18), timeutil.FormatMinutes(g.EstimatedMinutes), g.Count()))
	}
	rows = append(rows, "")
	for _, c := range analytics.CategoryBreakdown(done, r.snap.Projects) {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-18s %8s %6d",
			c.Category, timeutil.FormatMinutes(c.Minutes), c.Count)))
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderStreaks() string {
	st := analytics.ComputeStreaks(r.snap.Tasks, r.now)
	title := titleStyle.Render("Activity") + mutedStyle.Render(fmt.Sprintf("  streak %d, best %d", st.Current, st.Best))
	return lipgloss.JoinVertical(lipgloss.Left, title, renderHeatmap(analytics.Heatmap(r.snap.Tasks, r.now)))
}

// renderHeatmap lays days out in columns of seven, oldest first.
func renderHeatmap(days []analytics.HeatmapDay) string {
	rows := make([]string, 7)
	for i, d := range days {
		level := d.Level
		if level >= len(heatmapColors) {
			level = len(heatmapColors) - 1
		}
		rows[i%7] += lipgloss.NewStyle().Foreground(heatmapColors[level]).Render("■ ")
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderAchievements() string {
	rows := []string{titleStyle.Render("Achievements")}
	for _, a := range analytics.Achievements(r.snap.Tasks, r.now) {
		if a.Unlocked {
			rows = append(rows, successStyle.Render("  ★ "+a.Title))
			continue
		}
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  ☆ %s  %s/%s",
			a.Title, humanize.Comma(int64(a.Progress)), humanize.Comma(int64(a.Target)))))
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderAccuracy() string {
	var cells []string
	for _, pt := range analytics.EstimateAccuracyTrend(r.snap.Insights, r.now, trendWeeks) {
		if pt.Samples == 0 {
			cells = append(cells, mutedStyle.Render(fmt.Sprintf("%s  -  ", pt.Label)))
			continue
		}
		style := successStyle
		switch {
		case pt.Ratio > 1.25:
			style = errorStyle
		case pt.Ratio > 1:
			style = warningStyle
		}
		cells = append(cells, style.Render(fmt.Sprintf("%s %.2fx", pt.Label, pt.Ratio)))
	}
	return titleStyle.Render("Actual / estimate by week") + "\n  " + strings.Join(cells, "  ")
}
