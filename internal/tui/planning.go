package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskflow/internal/flow"
	"github.com/sadopc/taskflow/internal/timeutil"
)

type planForm int

const (
	planFormBudget planForm = iota + 1
	planFormReflection
)

var ratingOptions = []huh.Option[int]{
	huh.NewOption("1", 1),
	huh.NewOption("2", 2),
	huh.NewOption("3", 3),
	huh.NewOption("4", 4),
	huh.NewOption("5", 5),
}

// planModel covers both ends of the day: setting the budget and picking
// suggested tasks in the morning, and the reflection in the evening.
type planModel struct {
	engine       *flow.Engine
	width        int
	height       int
	suggestLimit int

	planning    flow.PlanningState
	schedule    flow.Schedule
	suggestions []flow.Task
	picked      map[string]bool
	cursor      int
	planDue     bool
	reflectDue  bool
	reflection  *flow.Reflection
	history     []flow.Reflection
	avgEstimate int
	hasAverage  bool

	formActive bool
	form       *huh.Form
	formType   planForm

	// Form values as pointers (survive value copies)
	budget     *string
	accRating  *int
	prodRating *int
	challenges *string
	wins       *string
	focus      *string
}

func newPlanModel(e *flow.Engine, suggestLimit int) planModel {
	budget, challenges, wins, focus := "", "", "", ""
	acc, prod := 3, 3
	return planModel{
		engine:       e,
		suggestLimit: suggestLimit,
		picked:       map[string]bool{},
		budget:       &budget,
		accRating:    &acc,
		prodRating:   &prod,
		challenges:   &challenges,
		wins:         &wins,
		focus:        &focus,
	}
}

func (p *planModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type planDataMsg struct {
	planning    flow.PlanningState
	schedule    flow.Schedule
	suggestions []flow.Task
	planDue     bool
	reflectDue  bool
	reflection  *flow.Reflection
	history     []flow.Reflection
	avgEstimate int
	hasAverage  bool
}

func (p planModel) refresh() tea.Cmd {
	return func() tea.Msg {
		msg := planDataMsg{
			planning:    p.engine.Planning(),
			schedule:    p.engine.Schedule(),
			suggestions: p.engine.SuggestTasks(p.suggestLimit),
			planDue:     p.engine.PlanningPromptDue(),
			reflectDue:  p.engine.ReflectionPromptDue(),
			history:     p.engine.Reflections(),
		}
		if r, ok := p.engine.TodayReflection(); ok {
			msg.reflection = &r
		}
		msg.avgEstimate, msg.hasAverage = flow.EstimationAccuracy(p.engine.ListQueue())
		return msg
	}
}

func (p planModel) update(msg tea.Msg) (planModel, tea.Cmd) {
	if msg, ok := msg.(planDataMsg); ok {
		p.planning = msg.planning
		p.schedule = msg.schedule
		p.suggestions = msg.suggestions
		p.planDue = msg.planDue
		p.reflectDue = msg.reflectDue
		p.reflection = msg.reflection
		p.history = msg.history
		p.avgEstimate, p.hasAverage = msg.avgEstimate, msg.hasAverage
		p.cursor = clampCursor(p.cursor, len(p.suggestions))
		live := make(map[string]bool, len(p.picked))
		for _, t := range p.suggestions {
			if p.picked[t.ID] {
				live[t.ID] = true
			}
		}
		p.picked = live
		return p, nil
	}
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, keys.Down):
			if p.cursor < len(p.suggestions)-1 {
				p.cursor++
			}
		case key.Matches(msg, keys.Toggle):
			if p.cursor < len(p.suggestions) {
				id := p.suggestions[p.cursor].ID
				p.picked[id] = !p.picked[id]
			}
		case key.Matches(msg, keys.Queue):
			return p.queuePicked()
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return p.showBudgetForm()
		case key.Matches(msg, keys.Reflect):
			return p.showReflectionForm()
		}
	}
	return p, nil
}

// queuePicked adds the picked suggestions, or the one under the cursor when
// nothing is picked, to today's queue in suggestion order.
func (p planModel) queuePicked() (planModel, tea.Cmd) {
	var ids []string
	for _, t := range p.suggestions {
		if p.picked[t.ID] {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 && p.cursor < len(p.suggestions) {
		ids = []string{p.suggestions[p.cursor].ID}
	}
	if len(ids) == 0 {
		return p, nil
	}
	n := p.engine.AddTasksToQueue(ids)
	p.picked = map[string]bool{}
	return p, tea.Batch(changedCmd, statusCmd(fmt.Sprintf("Queued %d suggested tasks", n)))
}

func (p planModel) showBudgetForm() (planModel, tea.Cmd) {
	*p.budget = strconv.Itoa(p.planning.DailyTimeAvailable)
	p.formType = planFormBudget
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("How many minutes can you work today?").
				Value(p.budget).Validate(validMinutes),
		).Title("Plan your day"),
	).WithShowHelp(true).WithShowErrors(true)
	p.formActive = true
	return p, p.form.Init()
}

func (p planModel) showReflectionForm() (planModel, tea.Cmd) {
	*p.accRating, *p.prodRating = 3, 3
	*p.challenges, *p.wins, *p.focus = "", "", ""
	if r := p.reflection; r != nil {
		*p.accRating, *p.prodRating = r.EstimationAccuracy, r.Productivity
		*p.challenges, *p.wins, *p.focus = r.Challenges, r.Wins, r.TomorrowFocus
	}
	p.formType = planFormReflection
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().Title("How accurate were your estimates? (1-5)").
				Options(ratingOptions...).Value(p.accRating),
			huh.NewSelect[int]().Title("How productive did you feel? (1-5)").
				Options(ratingOptions...).Value(p.prodRating),
		).Title("Reflect on today"),
		huh.NewGroup(
			huh.NewText().Title("What got in the way?").Value(p.challenges),
			huh.NewText().Title("What went well?").Value(p.wins),
			huh.NewInput().Title("Focus for tomorrow").Value(p.focus),
		),
	).WithShowHelp(true).WithShowErrors(true)
	p.formActive = true
	return p, p.form.Init()
}

func (p planModel) updateForm(msg tea.Msg) (planModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateAborted {
		p.formActive = false
		p.form = nil
		return p, nil
	}
	if p.form.State == huh.StateCompleted {
		p.formActive = false
		p.form = nil
		return p, p.submitForm()
	}

	return p, cmd
}

func (p planModel) submitForm() tea.Cmd {
	switch p.formType {
	case planFormBudget:
		minutes := timeutil.ParseMinutes(*p.budget)
		if err := p.engine.SetDailyTimeAvailable(minutes); err != nil {
			return errorCmd(err)
		}
		return tea.Batch(changedCmd, statusCmd("Planned "+timeutil.FormatMinutes(minutes)+" for today"))
	case planFormReflection:
		_, err := p.engine.SaveReflection(flow.ReflectionInput{
			EstimationAccuracy: *p.accRating,
			Productivity:       *p.prodRating,
			Challenges:         strings.TrimSpace(*p.challenges),
			Wins:               strings.TrimSpace(*p.wins),
			TomorrowFocus:      strings.TrimSpace(*p.focus),
		})
		if err != nil {
			return errorCmd(err)
		}
		return tea.Batch(changedCmd, statusCmd("Reflection saved"))
	}
	return nil
}

func (p planModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		return panelStyle.Width(w).Render(p.form.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		p.renderBudgetPanel(w),
		p.renderSuggestionsPanel(w),
		p.renderReflectionPanel(w),
	)
}

func (p planModel) renderBudgetPanel(w int) string {
	title := titleStyle.Render("Daily Plan")
	rows := []string{title}
	if p.planDue {
		rows = append(rows, accentStyle.Render("  You have not planned today yet. Press enter to set your available time."))
	}
	last := p.planning.LastPlanningDate
	if last == "" {
		last = "never"
	}
	rows = append(rows,
		fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(18).Render("Available today"),
			highlightStyle.Render(timeutil.FormatMinutes(p.planning.DailyTimeAvailable))),
		fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(18).Render("Queued estimate"),
			highlightStyle.Render(timeutil.FormatMinutes(p.schedule.TotalEstimated))),
		fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(18).Render("Last planned"), mutedStyle.Render(last)),
	)
	if p.hasAverage {
		rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(18).Render("Avg done estimate"),
			mutedStyle.Render(timeutil.FormatMinutes(p.avgEstimate))))
	}
	if p.schedule.OverBudget {
		rows = append(rows, errorStyle.Render("  Queue exceeds the time you have"))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p planModel) renderSuggestionsPanel(w int) string {
	title := titleStyle.Render("Suggestions")
	if len(p.suggestions) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No open tasks fit in the remaining time."),
		))
	}

	rows := []string{title}
	for i, t := range p.suggestions {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		box := "[ ]"
		if p.picked[t.ID] {
			box = "[x]"
		}
		badge := priorityStyles[timeutil.PriorityCategory(string(t.Priority))].Render(fmt.Sprintf("%-6s", t.Priority))
		rows = append(rows, fmt.Sprintf("%s%s %s %s %s", cursor, box, badge,
			mutedStyle.Render(fmt.Sprintf("%6s", timeutil.FormatMinutes(t.EstimatedTime))),
			style.Render(truncate(t.Text, max(10, w-30)))))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  space: pick  a: add to today  enter: set time  r: reflect"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p planModel) renderReflectionPanel(w int) string {
	title := titleStyle.Render("Reflection")
	rows := []string{title}
	if p.reflectDue {
		rows = append(rows, accentStyle.Render("  Your queue is done. Press r to reflect on the day."))
	}
	if r := p.reflection; r != nil {
		rows = append(rows,
			fmt.Sprintf("  Today: %d/%d tasks, estimates %d/5, productivity %d/5",
				r.CompletedTasks, r.TotalTasks, r.EstimationAccuracy, r.Productivity))
		if r.Wins != "" {
			rows = append(rows, successStyle.Render("  + ")+r.Wins)
		}
		if r.Challenges != "" {
			rows = append(rows, warningStyle.Render("  - ")+r.Challenges)
		}
		if r.TomorrowFocus != "" {
			rows = append(rows, highlightStyle.Render("  → ")+r.TomorrowFocus)
		}
	} else if !p.reflectDue {
		rows = append(rows, mutedStyle.Render("  No reflection for today yet."))
	}

	// Most recent earlier days, newest first.
	shown := 0
	for i := len(p.history) - 1; i >= 0 && shown < 5; i-- {
		r := p.history[i]
		if p.reflection != nil && r.Date == p.reflection.Date {
			continue
		}
		if shown == 0 {
			rows = append(rows, "", mutedStyle.Render("  Earlier"))
		}
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %s  %d/%d tasks  estimates %d/5  productivity %d/5",
			r.Date, r.CompletedTasks, r.TotalTasks, r.EstimationAccuracy, r.Productivity)))
		shown++
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
