package cloudsync

import (
	"context"
	"slices"
	"sync"

	"github.com/deojon/studio/types"
)

// Transport durably publishes envelopes and returns the envelopes of a
// category newer than a timestamp. Delivery is at-least-once; callers
// deduplicate by envelope id.
type Transport interface {
	Publish(ctx context.Context, msg types.SyncMessage) error
	Fetch(ctx context.Context, category types.SyncCategory, after int64) ([]types.SyncMessage, error)
}

// Pruner is implemented by transports that retain envelopes and can drop
// the ones older than a Unix millisecond timestamp.
type Pruner interface {
	Prune(ctx context.Context, before int64) (int64, error)
}

// Drainer is implemented by transports whose Fetch consumes what it
// returns. Their envelopes are delivered once, possibly out of timestamp
// order, so the fetch watermark must not filter them.
type Drainer interface {
	Drains() bool
}

// MemoryTransport keeps envelopes in process memory. It is the offline
// default and lets several services share one log in tests.
type MemoryTransport struct {
	mu       sync.RWMutex
	messages []types.SyncMessage
}

// NewMemoryTransport constructs an empty in-memory log.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{}
}

func (t *MemoryTransport) Publish(ctx context.Context, msg types.SyncMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
	return nil
}

func (t *MemoryTransport) Fetch(ctx context.Context, category types.SyncCategory, after int64) ([]types.SyncMessage, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []types.SyncMessage
	for _, msg := range t.messages {
		if msg.Category == category && msg.Meta.Timestamp > after {
			out = append(out, msg)
		}
	}
	return out, nil
}

// Prune drops envelopes stamped before the cutoff.
func (t *MemoryTransport) Prune(ctx context.Context, before int64) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.messages[:0]
	for _, msg := range t.messages {
		if msg.Meta.Timestamp >= before {
			kept = append(kept, msg)
		}
	}
	removed := int64(len(t.messages) - len(kept))
	t.messages = kept
	return removed, nil
}

// Messages returns everything published so far.
func (t *MemoryTransport) Messages() []types.SyncMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.messages)
}
