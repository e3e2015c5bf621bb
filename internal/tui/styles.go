package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskflow/internal/timeutil"
)

// Color palette
var (
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorSecondary = lipgloss.Color("#2EC4B6")
	colorAccent    = lipgloss.Color("#FF6B6B")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

// Styles
var (
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	// Timer
	timerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Align(lipgloss.Center)

	timerRunningStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorSuccess).
				Align(lipgloss.Center)

	timerIdleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarning).
			Align(lipgloss.Center)

	// Text
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	accentStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	doneItemStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Strikethrough(true)
)

// Priority badges, keyed by timeutil.PriorityCategory.
var priorityStyles = map[string]lipgloss.Style{
	"danger":  lipgloss.NewStyle().Foreground(colorError).Bold(true),
	"warning": lipgloss.NewStyle().Foreground(colorWarning),
	"success": lipgloss.NewStyle().Foreground(colorSecondary),
	"neutral": mutedStyle,
}

// Heatmap cell colors by intensity level 0 to 4.
var heatmapColors = []lipgloss.Color{
	colorSubtle,
	lipgloss.Color("#1E5631"),
	lipgloss.Color("#2E8B57"),
	lipgloss.Color("#3CB371"),
	colorSuccess,
}

// Status colors for timeutil.Compare results.
var comparisonStyles = map[timeutil.Status]lipgloss.Style{
	timeutil.StatusOnTime:            successStyle,
	timeutil.StatusSlightlyOver:      warningStyle,
	timeutil.StatusSignificantlyOver: errorStyle,
}
