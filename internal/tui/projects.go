package tui

import (
	"errors"
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

var projectColors = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

type projectForm int

const (
	formNone projectForm = iota
	formNewProject
	formEditProject
	formNewTask
	formEditTask
)

type projectsModel struct {
	engine *flow.Engine
	width  int
	height int

	projects     []flow.Project
	tasks        []flow.Task
	selectedID   string
	cursor       int
	taskCursor   int
	viewingTasks bool // true = viewing tasks of the project under the cursor

	formActive bool
	form       *huh.Form
	formType   projectForm
	editingID  string

	// Form field pointers (survive value copies)
	formName     *string
	formDesc     *string
	formColor    *string
	formCategory *string
	formTags     *string
	formPriority *string
	formEstimate *string
	formNotes    *string
}

func newProjectsModel(e *flow.Engine) projectsModel {
	name, desc, color, cat, tags := "", "", projectColors[0], string(flow.CategoryWork), ""
	prio, est, notes := string(flow.PriorityMedium), "", ""
	return projectsModel{
		engine:       e,
		formName:     &name,
		formDesc:     &desc,
		formColor:    &color,
		formCategory: &cat,
		formTags:     &tags,
		formPriority: &prio,
		formEstimate: &est,
		formNotes:    &notes,
	}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type projectsDataMsg struct {
	projects   []flow.Project
	selectedID string
}

type tasksDataMsg struct {
	tasks []flow.Task
}

func (p projectsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return projectsDataMsg{
			projects:   p.engine.ListProjects(),
			selectedID: p.engine.SelectedProjectID(),
		}
	}
}

func (p projectsModel) refreshTasks() tea.Cmd {
	proj, ok := p.current()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return tasksDataMsg{tasks: p.engine.ListTasks(proj.ID)}
	}
}

func (p projectsModel) current() (flow.Project, bool) {
	if p.cursor < 0 || p.cursor >= len(p.projects) {
		return flow.Project{}, false
	}
	return p.projects[p.cursor], true
}

func (p projectsModel) currentTask() (flow.Task, bool) {
	if p.taskCursor < 0 || p.taskCursor >= len(p.tasks) {
		return flow.Task{}, false
	}
	return p.tasks[p.taskCursor], true
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case projectsDataMsg:
		p.projects = msg.projects
		p.selectedID = msg.selectedID
		p.cursor = clampCursor(p.cursor, len(p.projects))
		if p.viewingTasks {
			return p, p.refreshTasks()
		}
		return p, nil

	case tasksDataMsg:
		p.tasks = msg.tasks
		p.taskCursor = clampCursor(p.taskCursor, len(p.tasks))
		return p, nil
	}

	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if p.viewingTasks {
			return p.updateTaskView(msg)
		}
		return p.updateProjectList(msg)
	}
	return p, nil
}

func (p projectsModel) updateProjectList(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.projects)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if proj, ok := p.current(); ok {
			if err := p.engine.SelectProject(proj.ID); err != nil {
				return p, errorCmd(err)
			}
			p.selectedID = proj.ID
			p.viewingTasks = true
			p.taskCursor = 0
			return p, p.refreshTasks()
		}
	case key.Matches(msg, keys.New):
		return p.showProjectForm(formNewProject)
	case key.Matches(msg, keys.Edit):
		if _, ok := p.current(); ok {
			return p.showProjectForm(formEditProject)
		}
	}
	return p, nil
}

func (p projectsModel) updateTaskView(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		p.viewingTasks = false
		return p, nil
	case key.Matches(msg, keys.Up):
		if p.taskCursor > 0 {
			p.taskCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.taskCursor < len(p.tasks)-1 {
			p.taskCursor++
		}
	case key.Matches(msg, keys.New):
		return p.showTaskForm(formNewTask)
	case key.Matches(msg, keys.Edit):
		if _, ok := p.currentTask(); ok {
			return p.showTaskForm(formEditTask)
		}
	case key.Matches(msg, keys.Queue):
		if t, ok := p.currentTask(); ok {
			if p.engine.AddToQueue(t.ID) {
				return p, tea.Batch(changedCmd, statusCmd("Added to today: "+t.Text))
			}
			return p, statusCmd("Already queued: " + t.Text)
		}
	case key.Matches(msg, keys.Toggle):
		if t, ok := p.currentTask(); ok {
			if _, err := p.engine.ToggleTaskDone(t.ID, nil); err != nil {
				return p, errorCmd(err)
			}
			return p, changedCmd
		}
	case key.Matches(msg, keys.Start):
		if t, ok := p.currentTask(); ok {
			if err := p.engine.StartTimer(t.ID); err != nil {
				return p, errorCmd(err)
			}
			return p, tea.Batch(changedCmd, func() tea.Msg { return timerStartedMsg{taskText: t.Text} })
		}
	}
	return p, nil
}

func categoryOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(flow.Categories))
	for i, c := range flow.Categories {
		opts[i] = huh.NewOption(string(c), string(c))
	}
	return opts
}

func requiredName(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("name is required")
	}
	return nil
}

func validMinutes(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err != nil || n < 0 {
		return errors.New("enter whole minutes, e.g. 45")
	}
	return nil
}

func (p projectsModel) showProjectForm(ft projectForm) (projectsModel, tea.Cmd) {
	*p.formName = ""
	*p.formDesc = ""
	*p.formColor = projectColors[len(p.projects)%len(projectColors)]
	*p.formCategory = string(flow.CategoryWork)
	*p.formTags = ""
	p.formType = ft
	p.editingID = ""

	if ft == formEditProject {
		proj, _ := p.current()
		*p.formName = proj.Name
		*p.formDesc = proj.Description
		*p.formCategory = string(proj.Category)
		*p.formTags = strings.Join(proj.Tags, ", ")
		p.editingID = proj.ID
	}

	fields := []huh.Field{
		huh.NewInput().Title("Project Name").Value(p.formName).Validate(requiredName),
		huh.NewInput().Title("Description").Value(p.formDesc),
		huh.NewSelect[string]().Title("Category").Options(categoryOptions()...).Value(p.formCategory),
	}
	if ft == formNewProject {
		colorOptions := make([]huh.Option[string], len(projectColors))
		for i, c := range projectColors {
			colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", c), c)
		}
		fields = append(fields, huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(p.formColor))
	}
	fields = append(fields, huh.NewInput().Title("Tags (comma-separated)").Value(p.formTags))

	p.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showTaskForm(ft projectForm) (projectsModel, tea.Cmd) {
	*p.formName = ""
	*p.formPriority = string(flow.PriorityMedium)
	*p.formEstimate = ""
	*p.formTags = ""
	*p.formNotes = ""
	p.formType = ft
	p.editingID = ""

	if ft == formEditTask {
		t, _ := p.currentTask()
		*p.formName = t.Text
		*p.formPriority = string(t.Priority)
		*p.formEstimate = strconv.Itoa(t.EstimatedTime)
		*p.formTags = strings.Join(t.Tags, ", ")
		*p.formNotes = t.Notes
		p.editingID = t.ID
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").Value(p.formName).Validate(requiredName),
			huh.NewSelect[string]().Title("Priority").
				Options(
					huh.NewOption("High", string(flow.PriorityHigh)),
					huh.NewOption("Medium", string(flow.PriorityMedium)),
					huh.NewOption("Low", string(flow.PriorityLow)),
				).Value(p.formPriority),
			huh.NewInput().Title("Estimate (minutes)").Value(p.formEstimate).Validate(validMinutes),
			huh.NewInput().Title("Tags (comma-separated)").Value(p.formTags),
			huh.NewText().Title("Notes").Value(p.formNotes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	// Check for escape to cancel form
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
		if err := p.submitForm(); err != nil {
			return p, errorCmd(err)
		}
		return p, changedCmd
	}

	return p, cmd
}

func (p projectsModel) submitForm() error {
	tags := flow.SplitTags(*p.formTags)
	switch p.formType {
	case formNewProject:
		_, err := p.engine.CreateProject(flow.NewProject{
			Name:        *p.formName,
			Description: *p.formDesc,
			Tags:        tags,
			Category:    flow.Category(*p.formCategory),
			Color:       *p.formColor,
		})
		return err
	case formEditProject:
		return p.engine.UpdateProject(p.editingID, flow.ProjectUpdate{
			Name:        *p.formName,
			Description: *p.formDesc,
			Tags:        tags,
			Category:    flow.Category(*p.formCategory),
		})
	case formNewTask:
		proj, ok := p.current()
		if !ok {
			return nil
		}
		_, err := p.engine.AddTask(flow.NewTask{
			ProjectID:     proj.ID,
			Text:          *p.formName,
			Priority:      flow.Priority(*p.formPriority),
			EstimatedTime: timeutil.ParseMinutes(*p.formEstimate),
			Notes:         *p.formNotes,
			Tags:          tags,
		})
		return err
	case formEditTask:
		return p.saveTask(p.editingID, tags)
	}
	return nil
}

// saveTask writes the edit form back as one update.
func (p projectsModel) saveTask(id string, tags []string) error {
	return p.engine.UpdateTask(id, flow.TaskUpdate{
		Name:          *p.formName,
		Priority:      flow.Priority(*p.formPriority),
		EstimatedTime: timeutil.ParseMinutes(*p.formEstimate),
		Notes:         *p.formNotes,
		Tags:          tags,
	})
}

func (p projectsModel) view() string {
	if p.formActive && p.form != nil {
		var title string
		switch p.formType {
		case formNewProject:
			title = "New Project"
		case formEditProject:
			title = "Edit Project"
		case formNewTask:
			title = "New Task"
		case formEditTask:
			title = "Edit Task"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", p.form.View())
		return panelStyle.Width(p.width - 4).Render(content)
	}

	if p.viewingTasks {
		return p.renderTaskView()
	}
	return p.renderProjectList()
}

func colorDot(c string) string {
	if c == "" {
		c = string(colorMuted)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render("●")
}

func (p projectsModel) renderProjectList() string {
	w := p.width - 4
	title := titleStyle.Render("Projects")

	if len(p.projects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-3s %-24s %-10s %s", "", "Name", "Category", "Description"))
	rows = append(rows, header)

	for i, proj := range p.projects {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		sel := " "
		if proj.ID == p.selectedID {
			sel = "*"
		}
		row := style.Render(fmt.Sprintf("%s%s", cursor, sel)) + colorDot(proj.Color) +
			style.Render(fmt.Sprintf(" %-24s %-10s ", truncate(proj.Name, 24), proj.Category)) +
			mutedStyle.Render(truncate(proj.Description, max(10, w-48)))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  enter: tasks"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p projectsModel) renderTaskView() string {
	w := p.width - 4
	proj, _ := p.current()
	title := titleStyle.Render(fmt.Sprintf("%s %s · Tasks", colorDot(proj.Color), proj.Name))

	if len(p.tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i, task := range p.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == p.taskCursor {
			cursor = "> "
			style = selectedItemStyle
		} else if task.Done {
			style = doneItemStyle
		}
		mark := "[ ]"
		if task.Done {
			mark = "[x]"
		}
		if task.IsTimerRunning {
			mark = successStyle.Render(" ● ")
		}
		queued := " "
		if p.engine.InQueue(task.ID) {
			queued = highlightStyle.Render("◆")
		}
		badge := priorityStyles[timeutil.PriorityCategory(string(task.Priority))].Render(fmt.Sprintf("%-6s", task.Priority))
		tags := ""
		if len(task.Tags) > 0 {
			tags = mutedStyle.Render(" [" + strings.Join(task.Tags, ", ") + "]")
		}
		rows = append(rows, fmt.Sprintf("%s%s %s %s %s %s%s",
			cursor, mark, queued, badge,
			mutedStyle.Render(fmt.Sprintf("%6s", timeutil.FormatMinutes(task.EstimatedTime))),
			style.Render(truncate(task.Text, max(10, w-40))), tags))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  a: add to today  space: toggle done  s: start timer  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
