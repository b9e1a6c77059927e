package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deojon/studio/internal/store"
	"github.com/deojon/studio/types"
)

// CreatePostParams are the user-supplied fields of a board post.
type CreatePostParams struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// BoardService encapsulates discussion board use-cases.
type BoardService struct {
	base
	posts *store.Collection[types.BoardPost]
}

func NewBoardService(posts *store.Collection[types.BoardPost], opts ...Option) *BoardService {
	return &BoardService{base: newBase(opts), posts: posts}
}

// Create publishes a new post authored by actor.
func (s *BoardService) Create(ctx context.Context, actor types.User, params CreatePostParams) (types.BoardPost, error) {
	if actor.ID == "" {
		return types.BoardPost{}, ErrNoSession
	}
	title, content, err := validatePost(params.Title, params.Content)
	if err != nil {
		return types.BoardPost{}, err
	}

	now := s.now()
	post := types.BoardPost{
		ID:           s.newID("post"),
		Title:        title,
		Content:      content,
		Author:       actor.Name,
		AuthorID:     actor.ID,
		AuthorAvatar: actor.Avatar,
		RegDate:      now.Format(dateLayout),
		CreatedAt:    now,
	}
	if err := s.posts.Add(post); err != nil {
		return types.BoardPost{}, err
	}

	publish(ctx, s.broadcaster, actor, types.CategoryBoard, types.ActionCreate, post.ID, post)
	return post, nil
}

// Update edits the title and content of a post authored by actor.
func (s *BoardService) Update(ctx context.Context, actor types.User, id string, params CreatePostParams) (types.BoardPost, error) {
	title, content, err := validatePost(params.Title, params.Content)
	if err != nil {
		return types.BoardPost{}, err
	}

	updated, err := s.posts.Mutate(id, func(current types.BoardPost) (types.BoardPost, error) {
		if err := authorize(actor.ID, current); err != nil {
			return current, err
		}
		current.Title = title
		current.Content = content
		return current, nil
	})
	if err != nil {
		return types.BoardPost{}, err
	}

	publish(ctx, s.broadcaster, actor, types.CategoryBoard, types.ActionUpdate, updated.ID, updated)
	return updated, nil
}

// Delete removes a post authored by actor.
func (s *BoardService) Delete(ctx context.Context, actor types.User, id string) error {
	err := s.posts.DeleteIf(id, func(current types.BoardPost) error {
		return authorize(actor.ID, current)
	})
	if err != nil {
		return err
	}

	publish(ctx, s.broadcaster, actor, types.CategoryBoard, types.ActionDelete, id, nil)
	return nil
}

// Open returns a post for its detail view and counts the view. View
// counts are local and not broadcast.
func (s *BoardService) Open(id string) (types.BoardPost, error) {
	return s.posts.Mutate(id, func(current types.BoardPost) (types.BoardPost, error) {
		current.Views++
		return current, nil
	})
}

// Get returns a post without counting a view.
func (s *BoardService) Get(id string) (types.BoardPost, error) {
	return s.posts.Get(id)
}

// List returns a page of posts matching q on title and content.
func (s *BoardService) List(q store.Query) store.Page[types.BoardPost] {
	return store.Paginate(s.posts.List(), q, postText)
}

// ApplySync merges a remote BOARD envelope. A remote copy never lowers
// the local view count.
func (s *BoardService) ApplySync(ctx context.Context, msg types.SyncMessage) error {
	switch msg.Action {
	case types.ActionCreate, types.ActionUpdate:
		remote := msg.Payload.Board
		if remote == nil {
			return fmt.Errorf("%w: %s without post", types.ErrPayloadMismatch, msg.Action)
		}
		post := *remote
		if local, err := s.posts.Get(post.ID); err == nil {
			post.Views = max(post.Views, local.Views)
		}
		s.posts.Merge([]types.BoardPost{post})
	case types.ActionDelete:
		if err := s.posts.Delete(msg.TargetID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

func validatePost(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return "", "", fmt.Errorf("%w: title is required", ErrValidation)
	}
	if content == "" {
		return "", "", fmt.Errorf("%w: content is required", ErrValidation)
	}
	return title, content, nil
}

func postText(p types.BoardPost) []string {
	return []string{p.Title, p.Content}
}
