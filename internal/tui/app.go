// Package tui is the interactive terminal front end over a flow.Engine.
package tui

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskflow/internal/analytics"
	"github.com/sadopc/taskflow/internal/export"
	"github.com/sadopc/taskflow/internal/flow"
)

// Options configures the App.
type Options struct {
	ExportDir   string // defaults to the home directory
	Suggestions int    // tasks offered when planning; flow.DefaultSuggestions when 0
	Logger      *slog.Logger
}

var exportFormats = []export.Format{export.FormatCSV, export.FormatJSON}

// App is the root Bubble Tea model.
type App struct {
	engine *flow.Engine
	opts   Options
	log    *slog.Logger
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard dashboardModel
	projects  projectsModel
	plan      planModel
	reports   reportsModel

	help   help.Model
	status string
	isErr  bool

	seenWarnings int // engine warnings already shown
}

func NewApp(e *flow.Engine, opts Options) App {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.ExportDir == "" {
		opts.ExportDir, _ = os.UserHomeDir()
	}
	if opts.Suggestions <= 0 {
		opts.Suggestions = flow.DefaultSuggestions
	}

	h := help.New()
	h.ShowAll = false

	a := App{
		engine:     e,
		opts:       opts,
		log:        opts.Logger,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(e),
		projects:   newProjectsModel(e),
		plan:       newPlanModel(e, opts.Suggestions),
		reports:    newReportsModel(e),
		help:       h,
	}
	a.checkWarnings()
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		a.projects.refresh(),
		a.plan.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.projects.setSize(a.width, contentHeight)
		a.plan.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		return a, a.reports.refresh()

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			return a, a.dashboard.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewProjects
			return a, a.projects.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewPlan
			return a, a.plan.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// Always route ticks to the dashboard so the footer timer stays live.
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case dataChangedMsg:
		a.checkWarnings()
		return a, tea.Batch(
			a.dashboard.loadData(),
			a.projects.refresh(),
			a.plan.refresh(),
			a.reports.refresh(),
		)

	case statusMsg:
		a.status = msg.text
		a.isErr = msg.isError
		if msg.isError {
			a.log.Warn("command failed", "detail", msg.text)
		}
		return a, nil

	case timerStartedMsg:
		a.setStatus("Timer started: " + msg.taskText)
		return a, nil

	case timerStoppedMsg:
		a.setStatus(fmt.Sprintf("Timer stopped: %s (+%dm)", msg.taskText, msg.minutes))
		return a, nil

	case taskCompletedMsg:
		text := "Completed " + msg.task.Text
		if msg.feedback {
			text += " (feedback saved)"
		}
		a.setStatus(text)
		return a, nil

	case exportDoneMsg:
		a.setStatus(fmt.Sprintf("Exported %d tasks to %s", msg.count, msg.path))
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string) {
	a.status = text
	a.isErr = false
}

// checkWarnings shows engine warnings not yet seen in the footer as an error.
func (a *App) checkWarnings() {
	w := a.engine.Warnings()
	if len(w) <= a.seenWarnings {
		return
	}
	fresh := w[a.seenWarnings:]
	a.seenWarnings = len(w)
	a.status = "Storage: " + fresh[len(fresh)-1]
	if n := len(fresh); n > 1 {
		a.status += fmt.Sprintf(" (+%d more)", n-1)
	}
	a.isErr = true
}

// updateActiveView routes msg to the view that owns it. Data messages go to
// their view regardless of which tab is showing.
func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.(type) {
	case dashboardDataMsg:
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd
	case projectsDataMsg, tasksDataMsg:
		a.projects, cmd = a.projects.update(msg)
		return a, cmd
	case planDataMsg:
		a.plan, cmd = a.plan.update(msg)
		return a, cmd
	case reportsDataMsg:
		a.reports, cmd = a.reports.update(msg)
		return a, cmd
	}

	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	case viewPlan:
		a.plan, cmd = a.plan.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.formActive
	case viewProjects:
		return a.projects.formActive
	case viewPlan:
		return a.plan.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewProjects:
		return a.projects.refresh()
	case viewPlan:
		return a.plan.refresh()
	case viewReports:
		return a.reports.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewProjects:
		content = a.projects.view()
	case viewPlan:
		content = a.plan.view()
	case viewReports:
		content = a.reports.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("taskflow")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.isErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	if a.dashboard.isRunning() {
		elapsed := formatDuration(a.dashboard.elapsed())
		timerInfo = successStyle.Render(" ● " + elapsed)
		if a.dashboard.isIdle() {
			timerInfo = warningStyle.Render(" ● " + elapsed + " idle")
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	period := a.reports.currentPeriod()
	var rows []string
	rows = append(rows, titleStyle.Render("Export Completed Tasks"))
	rows = append(rows, mutedStyle.Render("Period: "+period.Title()+" (change it in Reports)"))
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+string(f)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportFormats[a.exportCursor], a.reports.currentPeriod())
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(f export.Format, p analytics.Period) tea.Cmd {
	return func() tea.Msg {
		snap := a.engine.Snapshot()
		now := a.engine.Now()
		tasks := analytics.Completed(snap.Tasks, p, now)

		if err := os.MkdirAll(a.opts.ExportDir, 0o755); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		path := export.DefaultPath(a.opts.ExportDir, f, string(p), now)
		if err := export.Write(f, tasks, snap.Insights, snap.Projects, path); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		a.log.Info("exported tasks", "format", f, "period", p, "count", len(tasks), "path", path)
		return exportDoneMsg{path: path, count: len(tasks)}
	}
}
