package cloudsync

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/deojon/studio/types"
)

// Applier merges envelopes of one category into a local store.
type Applier interface {
	ApplySync(ctx context.Context, msg types.SyncMessage) error
}

// ApplierFunc adapts a function to Applier.
type ApplierFunc func(ctx context.Context, msg types.SyncMessage) error

func (f ApplierFunc) ApplySync(ctx context.Context, msg types.SyncMessage) error {
	return f(ctx, msg)
}

type version struct {
	ts int64
	id string
}

func (v version) less(o version) bool {
	if v.ts != o.ts {
		return v.ts < o.ts
	}
	return v.id < o.id
}

// Merger applies remote envelopes to local stores.
//
// Replays are idempotent: an envelope id is applied at most once. Each
// batch is reordered by (timestamp, id) before applying, and an envelope
// older than the last one applied to the same target is discarded, so
// out-of-order delivery converges on the newest state. An envelope whose
// applier fails is not recorded as seen and is retried when it is
// delivered again, unless its payload can never apply.
type Merger struct {
	mu       sync.Mutex
	appliers map[types.SyncCategory]Applier
	seen     map[string]int64
	latest   map[string]version
}

// NewMerger constructs an empty Merger.
func NewMerger() *Merger {
	return &Merger{
		appliers: make(map[types.SyncCategory]Applier),
		seen:     make(map[string]int64),
		latest:   make(map[string]version),
	}
}

// Register routes envelopes of category to applier.
func (m *Merger) Register(category types.SyncCategory, applier Applier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appliers[category] = applier
}

// MarkSeen records locally produced envelopes so that their echo from
// the transport is not applied again.
func (m *Merger) MarkSeen(msg types.SyncMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[msg.ID] = msg.Meta.Timestamp
	m.advance(msg)
}

// Forget drops the seen records of envelopes stamped before the cutoff
// and returns how many were dropped. Per-target versions are kept, so a
// replay of a forgotten envelope still cannot roll a target back.
func (m *Merger) Forget(before int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for id, ts := range m.seen {
		if ts < before {
			delete(m.seen, id)
			dropped++
		}
	}
	return dropped
}

// Seen returns the number of envelope ids currently remembered.
func (m *Merger) Seen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

// Apply merges msgs and reports how many envelopes changed local state.
// Failures of individual envelopes are joined into the returned error;
// the remaining envelopes are still applied.
func (m *Merger) Apply(ctx context.Context, msgs []types.SyncMessage) (int, error) {
	ordered := slices.Clone(msgs)
	slices.SortStableFunc(ordered, func(a, b types.SyncMessage) int {
		if c := cmp.Compare(a.Meta.Timestamp, b.Meta.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	applied := 0
	var errs []error
	for _, msg := range ordered {
		if _, dup := m.seen[msg.ID]; dup {
			continue
		}

		v := version{ts: msg.Meta.Timestamp, id: msg.ID}
		if last, ok := m.latest[targetKey(msg)]; ok && v.less(last) {
			m.seen[msg.ID] = msg.Meta.Timestamp
			continue
		}

		applier, ok := m.appliers[msg.Category]
		if !ok {
			m.seen[msg.ID] = msg.Meta.Timestamp
			continue
		}
		if err := applier.ApplySync(ctx, msg); err != nil {
			if errors.Is(err, types.ErrPayloadMismatch) {
				m.seen[msg.ID] = msg.Meta.Timestamp
			}
			errs = append(errs, fmt.Errorf("apply %s: %w", msg.ID, err))
			continue
		}
		m.seen[msg.ID] = msg.Meta.Timestamp
		m.advance(msg)
		applied++
	}
	return applied, errors.Join(errs...)
}

func (m *Merger) advance(msg types.SyncMessage) {
	key := targetKey(msg)
	v := version{ts: msg.Meta.Timestamp, id: msg.ID}
	if last, ok := m.latest[key]; !ok || last.less(v) {
		m.latest[key] = v
	}
}

func targetKey(msg types.SyncMessage) string {
	return string(msg.Category) + "/" + msg.TargetID
}

// LocalBroadcaster publishes local mutations and marks them seen, so the
// copy that comes back from the transport is not merged a second time.
type LocalBroadcaster struct {
	Service *Service
	Merger  *Merger
}

func (b LocalBroadcaster) Broadcast(
	ctx context.Context,
	category types.SyncCategory,
	action types.SyncAction,
	targetID string,
	payload any,
	userID, userName string,
) (types.SyncMessage, error) {
	msg, err := b.Service.Broadcast(ctx, category, action, targetID, payload, userID, userName)
	if msg.ID != "" && b.Merger != nil {
		b.Merger.MarkSeen(msg)
	}
	return msg, err
}
