package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/deojon/studio/internal/store"
	"github.com/deojon/studio/types"
)

// CreateProjectParams are the user-supplied fields of a new project.
type CreateProjectParams struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"dueDate"`
	Members     []string `json:"members"`
}

// CreateProcessParams are the user-supplied fields of a new process.
type CreateProcessParams struct {
	ProjectID   string   `json:"projectId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Members     []string `json:"members"`
}

// ProjectQuery narrows the derived projects before paging.
type ProjectQuery struct {
	store.Query
	Status types.ProjectStatus
}

// ProjectService encapsulates project and process use-cases. Project
// progress and status are always derived from the process collection.
type ProjectService struct {
	base
	projects  *store.Collection[types.Project]
	processes *store.Collection[types.Process]
}

func NewProjectService(projects *store.Collection[types.Project], processes *store.Collection[types.Process], opts ...Option) *ProjectService {
	return &ProjectService{
		base:      newBase(opts),
		projects:  projects,
		processes: processes,
	}
}

// CreateProject adds a project.
func (s *ProjectService) CreateProject(ctx context.Context, actor types.User, params CreateProjectParams) (types.Project, error) {
	if actor.ID == "" {
		return types.Project{}, ErrNoSession
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return types.Project{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if params.DueDate != "" && !validDate(params.DueDate) {
		return types.Project{}, fmt.Errorf("%w: due date must be YYYY-MM-DD", ErrValidation)
	}

	project := types.Project{
		ID:          s.newID("p"),
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		DueDate:     params.DueDate,
		Members:     slices.Clone(params.Members),
		Status:      types.StatusInProgress,
		CreatedAt:   s.now(),
	}
	if err := s.projects.Add(project); err != nil {
		return types.Project{}, err
	}

	publish(ctx, s.broadcaster, actor, types.CategoryProject, types.ActionCreate, project.ID, project)
	return project, nil
}

// UpdateProject replaces the editable fields of a project. Progress and
// Status supplied by the caller are ignored.
func (s *ProjectService) UpdateProject(ctx context.Context, actor types.User, project types.Project) (types.Project, error) {
	if actor.ID == "" {
		return types.Project{}, ErrNoSession
	}
	title := strings.TrimSpace(project.Title)
	if title == "" {
		return types.Project{}, fmt.Errorf("%w: title is required", ErrValidation)
	}

	updated, err := s.projects.Mutate(project.ID, func(current types.Project) (types.Project, error) {
		current.Title = title
		current.Description = strings.TrimSpace(project.Description)
		current.DueDate = project.DueDate
		current.Members = slices.Clone(project.Members)
		return current, nil
	})
	if err != nil {
		return types.Project{}, err
	}

	derived := s.derive(updated)
	publish(ctx, s.broadcaster, actor, types.CategoryProject, types.ActionUpdate, derived.ID, derived)
	return derived, nil
}

// CreateProcess adds a process to an existing project. Processes keep
// insertion order, oldest first.
func (s *ProjectService) CreateProcess(ctx context.Context, actor types.User, params CreateProcessParams) (types.Process, error) {
	if actor.ID == "" {
		return types.Process{}, ErrNoSession
	}
	if _, err := s.projects.Get(params.ProjectID); err != nil {
		return types.Process{}, fmt.Errorf("project %s: %w", params.ProjectID, err)
	}
	if err := validateProcess(params.Title, params.StartDate, params.EndDate); err != nil {
		return types.Process{}, err
	}

	process := types.Process{
		ID:          s.newID("pr"),
		ProjectID:   params.ProjectID,
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		Members:     slices.Clone(params.Members),
		AuthorID:    actor.ID,
		CreatedAt:   s.now(),
	}
	if err := s.processes.Append(process); err != nil {
		return types.Process{}, err
	}

	publish(ctx, s.broadcaster, actor, types.CategoryProcess, types.ActionCreate, process.ID, process)
	return process, nil
}

// UpdateProcess replaces the editable fields of a process authored by actor.
func (s *ProjectService) UpdateProcess(ctx context.Context, actor types.User, process types.Process) (types.Process, error) {
	if err := validateProcess(process.Title, process.StartDate, process.EndDate); err != nil {
		return types.Process{}, err
	}

	updated, err := s.processes.Mutate(process.ID, func(current types.Process) (types.Process, error) {
		if err := authorize(actor.ID, current); err != nil {
			return current, err
		}
		current.Title = strings.TrimSpace(process.Title)
		current.Description = strings.TrimSpace(process.Description)
		current.StartDate = process.StartDate
		current.EndDate = process.EndDate
		current.Members = slices.Clone(process.Members)
		current.IsCompleted = process.IsCompleted
		return current, nil
	})
	if err != nil {
		return types.Process{}, err
	}

	publish(ctx, s.broadcaster, actor, types.CategoryProcess, types.ActionUpdate, updated.ID, updated)
	return updated, nil
}

// ToggleProcess flips the completion flag of a process authored by actor.
func (s *ProjectService) ToggleProcess(ctx context.Context, actor types.User, id string) (types.Process, error) {
	updated, err := s.processes.Mutate(id, func(current types.Process) (types.Process, error) {
		if err := authorize(actor.ID, current); err != nil {
			return current, err
		}
		current.IsCompleted = !current.IsCompleted
		return current, nil
	})
	if err != nil {
		return types.Process{}, err
	}

	publish(ctx, s.broadcaster, actor, types.CategoryProcess, types.ActionUpdate, updated.ID, updated)
	return updated, nil
}

// Project returns one project with derived progress.
func (s *ProjectService) Project(id string) (types.Project, error) {
	project, err := s.projects.Get(id)
	if err != nil {
		return types.Project{}, err
	}
	return s.derive(project), nil
}

// All returns every project with derived progress, in store order.
func (s *ProjectService) All() []types.Project {
	return WithProgress(s.projects.List(), s.processes.List())
}

// Projects returns a page of derived projects.
func (s *ProjectService) Projects(q ProjectQuery) store.Page[types.Project] {
	all := s.All()
	filtered := all[:0]
	for _, p := range all {
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		filtered = append(filtered, p)
	}
	return store.Paginate(filtered, q.Query, projectText)
}

// Processes returns the processes of projectID, or every process when
// projectID is empty.
func (s *ProjectService) Processes(projectID string) []types.Process {
	all := s.processes.List()
	if projectID == "" {
		return all
	}
	out := all[:0]
	for _, p := range all {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	return out
}

// ApplyProjectSync merges a remote PROJECT envelope.
func (s *ProjectService) ApplyProjectSync(ctx context.Context, msg types.SyncMessage) error {
	switch msg.Action {
	case types.ActionCreate, types.ActionUpdate:
		if msg.Payload.Project == nil {
			return fmt.Errorf("%w: %s without project", types.ErrPayloadMismatch, msg.Action)
		}
		s.projects.Merge([]types.Project{*msg.Payload.Project})
	case types.ActionDelete:
		if err := s.projects.Delete(msg.TargetID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

// ApplyProcessSync merges a remote PROCESS envelope.
func (s *ProjectService) ApplyProcessSync(ctx context.Context, msg types.SyncMessage) error {
	switch msg.Action {
	case types.ActionCreate, types.ActionUpdate:
		p := msg.Payload.Process
		if p == nil {
			return fmt.Errorf("%w: %s without process", types.ErrPayloadMismatch, msg.Action)
		}
		if _, err := s.processes.Get(p.ID); errors.Is(err, store.ErrNotFound) {
			return s.processes.Append(*p)
		}
		return s.processes.Update(*p)
	case types.ActionDelete:
		if err := s.processes.Delete(msg.TargetID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (s *ProjectService) derive(project types.Project) types.Project {
	project.Progress = Progress(s.Processes(project.ID))
	project.Status = StatusFor(project.Progress)
	return project
}

func validateProcess(title, start, end string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if start != "" && !validDate(start) {
		return fmt.Errorf("%w: start date must be YYYY-MM-DD", ErrValidation)
	}
	if end != "" && !validDate(end) {
		return fmt.Errorf("%w: end date must be YYYY-MM-DD", ErrValidation)
	}
	if start != "" && end != "" && end < start {
		return fmt.Errorf("%w: end date precedes start date", ErrValidation)
	}
	return nil
}

func projectText(p types.Project) []string {
	return []string{p.Title, p.Description}
}
