package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deojon/studio/internal/store"
	"github.com/deojon/studio/types"
)

// CreateTaskParams are the user-supplied fields of a new task.
type CreateTaskParams struct {
	Text       string `json:"text"`
	TargetDate string `json:"targetDate"`
	IsPublic   bool   `json:"isPublic"`
}

// TaskQuery narrows the visible tasks before paging.
type TaskQuery struct {
	store.Query
	Completed *bool
	AuthorID  string
}

// TaskService encapsulates task use-cases.
type TaskService struct {
	base
	tasks *store.Collection[types.Task]
}

func NewTaskService(tasks *store.Collection[types.Task], opts ...Option) *TaskService {
	return &TaskService{base: newBase(opts), tasks: tasks}
}

// Create adds a task authored by actor.
func (s *TaskService) Create(ctx context.Context, actor types.User, params CreateTaskParams) (types.Task, error) {
	if actor.ID == "" {
		return types.Task{}, ErrNoSession
	}
	text := strings.TrimSpace(params.Text)
	if text == "" {
		return types.Task{}, fmt.Errorf("%w: text is required", ErrValidation)
	}
	if !validDate(params.TargetDate) {
		return types.Task{}, fmt.Errorf("%w: target date must be YYYY-MM-DD", ErrValidation)
	}

	now := s.now()
	task := types.Task{
		ID:           s.newID("task"),
		Text:         text,
		TargetDate:   params.TargetDate,
		RegDate:      now.Format(dateLayout),
		Author:       actor.Name,
		AuthorID:     actor.ID,
		AuthorAvatar: actor.Avatar,
		IsPublic:     params.IsPublic,
		CreatedAt:    now,
	}
	if err := s.tasks.Add(task); err != nil {
		return types.Task{}, err
	}

	publish(ctx, s.broadcaster, actor, types.CategoryTask, types.ActionCreate, task.ID, task)
	return task, nil
}

// Update replaces the editable fields of a task. Authorship, id and
// registration data are kept from the stored record.
func (s *TaskService) Update(ctx context.Context, actor types.User, task types.Task) (types.Task, error) {
	text := strings.TrimSpace(task.Text)
	if text == "" {
		return types.Task{}, fmt.Errorf("%w: text is required", ErrValidation)
	}
	if !validDate(task.TargetDate) {
		return types.Task{}, fmt.Errorf("%w: target date must be YYYY-MM-DD", ErrValidation)
	}

	updated, err := s.tasks.Mutate(task.ID, func(current types.Task) (types.Task, error) {
		if err := authorize(actor.ID, current); err != nil {
			return current, err
		}
		current.Text = text
		current.TargetDate = task.TargetDate
		current.Completed = task.Completed
		current.IsPublic = task.IsPublic
		return current, nil
	})
	if err != nil {
		return types.Task{}, err
	}

	publish(ctx, s.broadcaster, actor, types.CategoryTask, types.ActionUpdate, updated.ID, updated)
	return updated, nil
}

// ToggleComplete flips the completion flag of a task.
func (s *TaskService) ToggleComplete(ctx context.Context, actor types.User, id string) (types.Task, error) {
	updated, err := s.tasks.Mutate(id, func(current types.Task) (types.Task, error) {
		if err := authorize(actor.ID, current); err != nil {
			return current, err
		}
		current.Completed = !current.Completed
		return current, nil
	})
	if err != nil {
		return types.Task{}, err
	}

	publish(ctx, s.broadcaster, actor, types.CategoryTask, types.ActionUpdate, updated.ID, updated)
	return updated, nil
}

// Delete removes a task authored by actor.
func (s *TaskService) Delete(ctx context.Context, actor types.User, id string) error {
	err := s.tasks.DeleteIf(id, func(current types.Task) error {
		return authorize(actor.ID, current)
	})
	if err != nil {
		return err
	}

	publish(ctx, s.broadcaster, actor, types.CategoryTask, types.ActionDelete, id, nil)
	return nil
}

// Get returns a task if viewerID may see it.
func (s *TaskService) Get(viewerID, id string) (types.Task, error) {
	task, err := s.tasks.Get(id)
	if err != nil {
		return types.Task{}, err
	}
	if !CanView(task, viewerID) {
		return types.Task{}, store.ErrNotFound
	}
	return task, nil
}

// Visible returns the tasks viewerID may see.
func (s *TaskService) Visible(viewerID string) []types.Task {
	return VisibleTasks(s.tasks.List(), viewerID)
}

// List returns a page of the tasks viewerID may see.
func (s *TaskService) List(viewerID string, q TaskQuery) store.Page[types.Task] {
	visible := s.Visible(viewerID)
	filtered := visible[:0]
	for _, t := range visible {
		if q.Completed != nil && t.Completed != *q.Completed {
			continue
		}
		if q.AuthorID != "" && t.AuthorID != q.AuthorID {
			continue
		}
		filtered = append(filtered, t)
	}
	return store.Paginate(filtered, q.Query, taskText)
}

// ApplySync merges a remote TASK envelope.
func (s *TaskService) ApplySync(ctx context.Context, msg types.SyncMessage) error {
	switch msg.Action {
	case types.ActionCreate, types.ActionUpdate:
		if msg.Payload.Task == nil {
			return fmt.Errorf("%w: %s without task", types.ErrPayloadMismatch, msg.Action)
		}
		s.tasks.Merge([]types.Task{*msg.Payload.Task})
	case types.ActionDelete:
		if err := s.tasks.Delete(msg.TargetID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

func taskText(t types.Task) []string {
	return []string{t.Text, t.Author}
}
