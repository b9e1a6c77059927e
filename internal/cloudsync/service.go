package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/deojon/studio/types"
)

// ErrPollInFlight is returned when a fetch for the same category is
// already running.
var ErrPollInFlight = errors.New("poll already in flight")

// Service broadcasts local mutations and fetches remote ones through a
// Transport. Watermarks and in-flight flags are per Service value.
type Service struct {
	transport Transport
	now       func() time.Time

	mu          sync.Mutex
	lastFetched map[types.SyncCategory]int64
	inFlight    map[types.SyncCategory]bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService constructs a Service over transport.
func NewService(transport Transport, opts ...Option) *Service {
	s := &Service{
		transport:   transport,
		now:         time.Now,
		lastFetched: make(map[types.SyncCategory]int64),
		inFlight:    make(map[types.SyncCategory]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Broadcast builds an envelope for one local mutation and publishes it.
// The envelope is returned even when publishing fails so that callers
// can log it; the local change is never rolled back.
func (s *Service) Broadcast(
	ctx context.Context,
	category types.SyncCategory,
	action types.SyncAction,
	targetID string,
	payload any,
	userID, userName string,
) (types.SyncMessage, error) {
	msg, err := NewMessage(category, action, targetID, payload, userID, userName, s.now())
	if err != nil {
		return types.SyncMessage{}, err
	}
	if err := s.transport.Publish(ctx, msg); err != nil {
		return msg, fmt.Errorf("broadcast %s_%s: %w", category, action, err)
	}
	return msg, nil
}

// Heartbeat publishes a presence ping for the user.
func (s *Service) Heartbeat(ctx context.Context, userID, userName string) (types.SyncMessage, error) {
	return s.Broadcast(ctx, types.CategoryHeartbeat, types.ActionPing, userID, types.Presence{Status: "online"}, userID, userName)
}

// FetchUpdates returns the envelopes of category newer than the last
// fetched timestamp and advances the watermark. For draining transports
// every delivered envelope is returned, late ones included. Overlapping
// calls for one category fail fast with ErrPollInFlight.
func (s *Service) FetchUpdates(ctx context.Context, category types.SyncCategory) ([]types.SyncMessage, error) {
	s.mu.Lock()
	if s.inFlight[category] {
		s.mu.Unlock()
		return nil, ErrPollInFlight
	}
	s.inFlight[category] = true
	after := s.lastFetched[category]
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight[category] = false
		s.mu.Unlock()
	}()

	fetched, err := s.transport.Fetch(ctx, category, after)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", category, err)
	}

	drains := false
	if d, ok := s.transport.(Drainer); ok {
		drains = d.Drains()
	}

	var out []types.SyncMessage
	high := after
	for _, msg := range fetched {
		if msg.Category != category || (!drains && msg.Meta.Timestamp <= after) {
			continue
		}
		out = append(out, msg)
		high = max(high, msg.Meta.Timestamp)
	}

	s.mu.Lock()
	if high > s.lastFetched[category] {
		s.lastFetched[category] = high
	}
	s.mu.Unlock()
	return out, nil
}

// LastFetched returns the watermark of category in Unix milliseconds.
func (s *Service) LastFetched(category types.SyncCategory) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFetched[category]
}

// Rewind sets the watermark of category, for example to replay the log
// after a restart.
func (s *Service) Rewind(category types.SyncCategory, ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFetched[category] = ts
}
