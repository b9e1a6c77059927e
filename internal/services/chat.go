package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/deojon/studio/internal/store"
	"github.com/deojon/studio/types"
)

const clockLayout = "15:04"

// ChatService keeps the team chat history of the current day.
type ChatService struct {
	base
	messages *store.Collection[types.ChatMessage]

	mu      sync.Mutex
	lastDay string
}

func NewChatService(messages *store.Collection[types.ChatMessage], opts ...Option) *ChatService {
	s := &ChatService{base: newBase(opts), messages: messages}
	s.lastDay = s.now().Format(dateLayout)
	return s
}

// Send appends a message from actor. Blank text is ignored and reported
// as a validation error.
func (s *ChatService) Send(ctx context.Context, actor types.User, text string) (types.ChatMessage, error) {
	if actor.ID == "" {
		return types.ChatMessage{}, ErrNoSession
	}
	if strings.TrimSpace(text) == "" {
		return types.ChatMessage{}, fmt.Errorf("%w: message is empty", ErrValidation)
	}

	now := s.now()
	msg := types.ChatMessage{
		ID:        s.newID("chat"),
		Sender:    actor.Name,
		SenderID:  actor.ID,
		Avatar:    actor.Avatar,
		Text:      text,
		Time:      now.Format(clockLayout),
		CreatedAt: now,
	}
	if err := s.messages.Append(msg); err != nil {
		return types.ChatMessage{}, err
	}

	publish(ctx, s.broadcaster, actor, types.CategoryChat, types.ActionCreate, msg.ID, msg)
	return msg, nil
}

// Messages returns the history, oldest first.
func (s *ChatService) Messages() []types.ChatMessage {
	return s.messages.List()
}

// ResetIfNewDay clears the history when the local calendar day of now
// differs from the day seen on the previous call. It reports whether the
// history was cleared.
func (s *ChatService) ResetIfNewDay(now time.Time) bool {
	today := now.Format(dateLayout)

	s.mu.Lock()
	changed := today != s.lastDay
	s.lastDay = today
	s.mu.Unlock()

	if !changed {
		return false
	}
	s.messages.Reset()
	log.Printf("[chat] day changed to %s, history cleared", today)
	return true
}

// ApplySync appends a remote CHAT message unless it is already present.
func (s *ChatService) ApplySync(ctx context.Context, msg types.SyncMessage) error {
	if msg.Action != types.ActionCreate {
		return nil
	}
	if msg.Payload.Chat == nil {
		return fmt.Errorf("%w: %s without message", types.ErrPayloadMismatch, msg.Action)
	}
	if err := s.messages.Append(*msg.Payload.Chat); err != nil && !errors.Is(err, store.ErrDuplicateID) {
		return err
	}
	return nil
}
