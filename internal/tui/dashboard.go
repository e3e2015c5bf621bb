package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/taskflow/internal/flow"
	"github.com/sadopc/taskflow/internal/timeutil"
)

var accuracyOptions = []huh.Option[int]{
	huh.NewOption("1 - way off", 1),
	huh.NewOption("2", 2),
	huh.NewOption("3 - close enough", 3),
	huh.NewOption("4", 4),
	huh.NewOption("5 - spot on", 5),
}

type dashboardModel struct {
	engine *flow.Engine
	timer  timerModel
	width  int
	height int

	queue      []flow.QueueEntry
	schedule   flow.Schedule
	lastDone   *time.Time
	cursor     int
	planDue    bool
	reflectDue bool

	// Completion feedback form
	formActive bool
	form       *huh.Form
	pending    flow.PendingCompletion
	fbAccuracy *int
	fbNotes    *string
	fbReason   *string
}

func newDashboardModel(e *flow.Engine) dashboardModel {
	acc, notes, reason := 3, "", ""
	return dashboardModel{
		engine:     e,
		timer:      newTimerModel(e),
		fbAccuracy: &acc,
		fbNotes:    &notes,
		fbReason:   &reason,
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) isRunning() bool { return d.timer.running() }
func (d dashboardModel) isIdle() bool    { return d.timer.idle() }
func (d dashboardModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

type dashboardDataMsg struct {
	queue      []flow.QueueEntry
	schedule   flow.Schedule
	lastDone   *time.Time
	planDue    bool
	reflectDue bool
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		var last *time.Time
		for _, t := range d.engine.ListTasks("") {
			if t.Done && t.CompletedAt != nil && (last == nil || t.CompletedAt.After(*last)) {
				last = t.CompletedAt
			}
		}
		return dashboardDataMsg{
			queue:      d.engine.ListQueue(),
			schedule:   d.engine.Schedule(),
			lastDone:   last,
			planDue:    d.engine.PlanningPromptDue(),
			reflectDue: d.engine.ReflectionPromptDue(),
		}
	}
}

func (d dashboardModel) selected() (flow.QueueEntry, bool) {
	if d.cursor < 0 || d.cursor >= len(d.queue) {
		return flow.QueueEntry{}, false
	}
	return d.queue[d.cursor], true
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(dashboardDataMsg); ok {
		d.queue = msg.queue
		d.schedule = msg.schedule
		d.lastDone = msg.lastDone
		d.planDue = msg.planDue
		d.reflectDue = msg.reflectDue
		d.cursor = clampCursor(d.cursor, len(d.queue))
		d.timer.sync()
		return d, nil
	}
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tickMsg:
		d.timer.tick()
		return d, nil

	case tea.KeyMsg:
		d.timer.recordActivity()

		switch {
		case key.Matches(msg, keys.Up):
			if d.cursor > 0 {
				d.cursor--
			}
		case key.Matches(msg, keys.Down):
			if d.cursor < len(d.queue)-1 {
				d.cursor++
			}
		case key.Matches(msg, keys.Start):
			if e, ok := d.selected(); ok {
				return d.startTimer(e.ID)
			}
			return d, statusCmd("Queue is empty. Add tasks from Projects or Plan.")
		case key.Matches(msg, keys.Stop):
			return d.stopTimer()
		case key.Matches(msg, keys.Complete):
			if e, ok := d.selected(); ok {
				return d.requestCompletion(e.ID)
			}
		case key.Matches(msg, keys.Undo):
			if e, ok := d.selected(); ok {
				if _, err := d.engine.UndoCompletion(e.ID); err != nil {
					return d, errorCmd(err)
				}
				return d, tea.Batch(changedCmd, statusCmd("Reopened "+e.Text))
			}
		case key.Matches(msg, keys.Remove):
			if e, ok := d.selected(); ok {
				d.engine.RemoveFromQueue(e.ID)
				return d, changedCmd
			}
		case key.Matches(msg, keys.MoveUp):
			return d.move(-1)
		case key.Matches(msg, keys.MoveDown):
			return d.move(1)
		}
	}
	return d, nil
}

func (d dashboardModel) move(delta int) (dashboardModel, tea.Cmd) {
	e, ok := d.selected()
	if !ok {
		return d, nil
	}
	to := d.cursor + delta
	if to < 0 || to >= len(d.queue) {
		return d, nil
	}
	if err := d.engine.MoveInQueue(e.ID, to); err != nil {
		return d, errorCmd(err)
	}
	d.cursor = to
	return d, changedCmd
}

func (d dashboardModel) startTimer(taskID string) (dashboardModel, tea.Cmd) {
	if err := d.timer.start(taskID); err != nil {
		return d, errorCmd(err)
	}
	text := d.timer.taskText
	return d, tea.Batch(changedCmd, func() tea.Msg { return timerStartedMsg{taskText: text} })
}

func (d dashboardModel) stopTimer() (dashboardModel, tea.Cmd) {
	if !d.timer.running() {
		return d, nil
	}
	text := d.timer.taskText
	minutes, err := d.timer.stop()
	if err != nil {
		return d, errorCmd(err)
	}
	return d, tea.Batch(changedCmd, func() tea.Msg {
		return timerStoppedMsg{taskText: text, minutes: minutes}
	})
}

// requestCompletion starts the two-phase completion. Tasks with nothing to
// compare finish immediately; the rest open the feedback form. A completion
// left pending by a failed save reopens its form.
func (d dashboardModel) requestCompletion(taskID string) (dashboardModel, tea.Cmd) {
	if p, ok := d.engine.PendingFor(taskID); ok {
		return d.showFeedbackForm(p)
	}
	p, err := d.engine.RequestCompletion(taskID, nil)
	if err != nil {
		return d, errorCmd(err)
	}
	d.timer.sync()
	if !p.NeedsFeedback {
		task, err := d.engine.SkipCompletion(p)
		if err != nil {
			return d, errorCmd(err)
		}
		return d, tea.Batch(changedCmd, func() tea.Msg { return taskCompletedMsg{task: task} })
	}
	return d.showFeedbackForm(p)
}

func (d dashboardModel) showFeedbackForm(p flow.PendingCompletion) (dashboardModel, tea.Cmd) {
	*d.fbAccuracy = 3
	*d.fbNotes = ""
	*d.fbReason = ""
	d.pending = p

	fields := []huh.Field{
		huh.NewSelect[int]().Title("How accurate was your estimate?").
			Options(accuracyOptions...).Value(d.fbAccuracy),
	}
	if p.OverEstimate() {
		reasons := make([]huh.Option[string], len(flow.DelayReasons))
		for i, r := range flow.DelayReasons {
			reasons[i] = huh.NewOption(r, r)
		}
		*d.fbReason = flow.DelayReasons[0]
		fields = append(fields, huh.NewSelect[string]().Title("What slowed you down?").
			Options(reasons...).Value(d.fbReason))
	}
	fields = append(fields, huh.NewText().Title("Notes").CharLimit(500).Value(d.fbNotes))

	d.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		return d.skipFeedback()
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	switch d.form.State {
	case huh.StateAborted:
		return d.skipFeedback()
	case huh.StateCompleted:
		d.formActive = false
		d.form = nil
		task, err := d.engine.ConfirmCompletion(d.pending, flow.Feedback{
			Accuracy:    *d.fbAccuracy,
			Notes:       *d.fbNotes,
			DelayReason: *d.fbReason,
		})
		if err != nil {
			return d, errorCmd(err)
		}
		return d, tea.Batch(changedCmd, func() tea.Msg { return taskCompletedMsg{task: task, feedback: true} })
	}

	return d, cmd
}

// skipFeedback closes the form and finishes the pending completion without
// an insight. Dismissing the prompt never leaves the task pending.
func (d dashboardModel) skipFeedback() (dashboardModel, tea.Cmd) {
	d.formActive = false
	d.form = nil
	task, err := d.engine.SkipCompletion(d.pending)
	if err != nil {
		return d, errorCmd(err)
	}
	return d, tea.Batch(changedCmd, func() tea.Msg { return taskCompletedMsg{task: task} })
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	if d.formActive && d.form != nil {
		return d.renderFeedbackForm(contentWidth)
	}

	panels := []string{d.renderTimerPanel(contentWidth)}
	if banner := d.renderPrompts(); banner != "" {
		panels = append(panels, banner)
	}
	panels = append(panels, d.renderSchedulePanel(contentWidth), d.renderQueuePanel(contentWidth))
	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

func (d dashboardModel) renderFeedbackForm(w int) string {
	p := d.pending
	title := titleStyle.Render("Completed: " + p.TaskText)
	diff := p.TimeDiff()
	var line string
	switch {
	case p.EstimatedTime == 0:
		line = fmt.Sprintf("Tracked %s (no estimate)", timeutil.FormatMinutes(p.ActualTime))
	case diff > 0:
		line = warningStyle.Render(fmt.Sprintf("Estimated %s, took %s (%s over)",
			timeutil.FormatMinutes(p.EstimatedTime), timeutil.FormatMinutes(p.ActualTime), timeutil.FormatMinutes(diff)))
	default:
		line = successStyle.Render(fmt.Sprintf("Estimated %s, took %s",
			timeutil.FormatMinutes(p.EstimatedTime), timeutil.FormatMinutes(p.ActualTime)))
	}
	hint := mutedStyle.Render("esc: skip feedback")
	return activePanelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, line, "", d.form.View(), hint),
	)
}

func (d dashboardModel) renderPrompts() string {
	var lines []string
	if d.planDue {
		lines = append(lines, accentStyle.Render("  ◆ New day: press 3 to plan how much time you have"))
	}
	if d.reflectDue {
		lines = append(lines, accentStyle.Render("  ◆ Queue finished: press 3 then r to reflect on the day"))
	}
	return strings.Join(lines, "\n")
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.timer.running() {
		timeStr := formatDuration(d.timer.currentElapsed())
		timeDisplay := timerRunningStyle.Width(w - 6).Render(timeStr)
		indicator := successStyle.Render("●  RUNNING")
		if d.timer.idle() {
			timeDisplay = timerIdleStyle.Width(w - 6).Render(timeStr)
			indicator = warningStyle.Render("●  IDLE? press x to stop")
		}
		content := lipgloss.JoinVertical(lipgloss.Center,
			timeDisplay,
			indicator,
			highlightStyle.Render(d.timer.taskText),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		timerStyle.Width(w-6).Render("00:00:00"),
		mutedStyle.Render("■  STOPPED"),
		mutedStyle.Render("Select a task and press s to start tracking"),
	)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderSchedulePanel(w int) string {
	s := d.schedule
	title := titleStyle.Render("Today")
	budget := highlightStyle.Render(timeutil.FormatMinutes(s.DailyTimeAvailable) + " available")
	rows := []string{fmt.Sprintf("%s  %s", title, budget)}

	planned := fmt.Sprintf("  Planned %s  ·  done %d/%d  ·  remaining %s",
		timeutil.FormatMinutes(s.TotalEstimated), s.CompletedCount, s.TotalCount,
		timeutil.FormatMinutes(s.RemainingEstimated))
	rows = append(rows, planned)
	if s.OverBudget {
		rows = append(rows, errorStyle.Render(fmt.Sprintf("  Over budget by %s",
			timeutil.FormatMinutes(s.TotalEstimated-s.DailyTimeAvailable))))
	}
	if s.AccuracyText != "" {
		style, ok := comparisonStyles[s.Status]
		if !ok {
			style = mutedStyle
		}
		rows = append(rows, "  "+style.Render(s.AccuracyText)+
			mutedStyle.Render(fmt.Sprintf(" (tracked %s)", timeutil.FormatMinutes(s.ActualTime))))
	}
	if d.lastDone != nil {
		rows = append(rows, mutedStyle.Render("  Last completed "+humanize.RelTime(*d.lastDone, d.engine.Now(), "ago", "from now")))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderQueuePanel(w int) string {
	title := titleStyle.Render("Queue")
	if len(d.queue) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("Nothing queued. Press a on a task in Projects, or take suggestions in Plan."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title}
	for i, e := range d.queue {
		rows = append(rows, d.renderQueueRow(i, e, w))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  s: start  x: stop  c: complete  u: undo  d: remove  K/J: reorder"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderQueueRow(i int, e flow.QueueEntry, w int) string {
	cursor := "  "
	style := normalItemStyle
	if i == d.cursor {
		cursor = "> "
		style = selectedItemStyle
	}
	mark := "[ ]"
	if e.Done {
		mark = "[x]"
		if i != d.cursor {
			style = doneItemStyle
		}
	}
	if e.IsTimerRunning {
		mark = successStyle.Render(" ● ")
	}

	badge := priorityStyles[timeutil.PriorityCategory(string(e.Priority))].Render(fmt.Sprintf("%-6s", e.Priority))
	times := timeutil.FormatMinutes(e.EstimatedTime)
	if e.ActualTime > 0 {
		times = fmt.Sprintf("%s / %s", timeutil.FormatMinutes(e.ActualTime), times)
	}
	text := truncate(e.Text, max(10, w-50))
	return fmt.Sprintf("%s%s %s %s %s",
		cursor, mark, style.Render(fmt.Sprintf("%-*s", max(10, w-50), text)), badge,
		mutedStyle.Render(fmt.Sprintf("%-14s %s", truncate(e.ProjectName, 14), times)))
}
