package flow

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sadopc/taskflow/internal/store"
)

// UnknownProjectName is shown for tasks whose project cannot be found.
const UnknownProjectName = "Unknown"

// AddProject creates a project named name and returns its id.
func (e *Engine) AddProject(name string) (string, error) {
	p, err := e.CreateProject(NewProject{Name: name})
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// CreateProject creates a project from np. The name is trimmed and must not
// be blank; an empty category means work.
func (e *Engine) CreateProject(np NewProject) (Project, error) {
	name := strings.TrimSpace(np.Name)
	if name == "" {
		return Project{}, fmt.Errorf("%w: project name is required", ErrValidation)
	}
	if np.Category == "" {
		np.Category = CategoryWork
	}
	if !validCategory(np.Category) {
		return Project{}, fmt.Errorf("%w: unknown category %q", ErrValidation, np.Category)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: np.Description,
		Tags:        cleanTags(np.Tags),
		Category:    np.Category,
		Color:       np.Color,
		CreatedAt:   e.now(),
	}
	e.projects = append(e.projects, p)
	e.persist(store.KeyProjects)
	e.log.Info("project created", "project_id", p.ID, "name", p.Name)
	return p, nil
}

// UpdateProject replaces the name, description, tags and category of a
// project.
func (e *Engine) UpdateProject(id string, u ProjectUpdate) error {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return fmt.Errorf("%w: project name is required", ErrValidation)
	}
	if u.Category == "" {
		u.Category = CategoryWork
	}
	if !validCategory(u.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, u.Category)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.findProject(id)
	if p == nil {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	p.Name = name
	p.Description = u.Description
	p.Tags = cleanTags(u.Tags)
	p.Category = u.Category
	e.persist(store.KeyProjects)
	return nil
}

func (e *Engine) GetProject(id string) (Project, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p := e.findProject(id)
	if p == nil {
		return Project{}, false
	}
	out := *p
	out.Tags = append([]string{}, p.Tags...)
	return out, true
}

// ProjectName returns the project's name, or "Unknown".
func (e *Engine) ProjectName(id string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.projectName(id)
}

// ListProjects returns projects in creation order.
func (e *Engine) ListProjects() []Project {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.copyProjects()
}

// SelectProject remembers the project new tasks are added to. An empty id
// clears the selection.
func (e *Engine) SelectProject(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id == "" {
		e.selectedProjectID = ""
		if e.storage != nil {
			if err := e.storage.Remove(store.KeySelectedProject); err != nil {
				e.warn("persist state", err, "key", store.KeySelectedProject)
			}
		}
		return nil
	}
	if e.findProject(id) == nil {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	e.selectedProjectID = id
	e.persist(store.KeySelectedProject)
	return nil
}

func (e *Engine) SelectedProjectID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selectedProjectID
}

func (e *Engine) findProject(id string) *Project {
	for i := range e.projects {
		if e.projects[i].ID == id {
			return &e.projects[i]
		}
	}
	return nil
}

func (e *Engine) projectName(id string) string {
	if p := e.findProject(id); p != nil {
		return p.Name
	}
	return UnknownProjectName
}

// cleanTags trims tags and drops blanks and duplicates, keeping order.
func cleanTags(tags []string) []string {
	out := []string{}
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma-separated tag list as typed into a form.
func SplitTags(s string) []string {
	return cleanTags(strings.Split(s, ","))
}
