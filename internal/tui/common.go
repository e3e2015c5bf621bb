package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/taskflow/internal/flow"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewProjects
	viewPlan
	viewReports
)

var viewNames = []string{"Today", "Projects", "Plan", "Reports"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path  string
	count int
}

// dataChangedMsg tells every view to reload from the engine.
type dataChangedMsg struct{}

type timerStartedMsg struct {
	taskText string
}

type timerStoppedMsg struct {
	taskText string
	minutes  int
}

type taskCompletedMsg struct {
	task     flow.Task
	feedback bool
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

// errorCmd turns an engine error into a status line. Validation and state
// errors already read well; anything else gets an "Error:" prefix.
func errorCmd(err error) tea.Cmd {
	text := err.Error()
	if !errors.Is(err, flow.ErrValidation) && !errors.Is(err, flow.ErrInvalidState) && !errors.Is(err, flow.ErrNotFound) {
		text = "Error: " + text
	}
	return func() tea.Msg { return statusMsg{text: text, isError: true} }
}

func changedCmd() tea.Msg { return dataChangedMsg{} }

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func clampCursor(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}
