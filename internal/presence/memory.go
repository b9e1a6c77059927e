package presence

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryTracker is a process-local Tracker used when no Redis is configured.
type MemoryTracker struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	entry   Entry
	expires time.Time
}

func NewMemoryTracker(ttl time.Duration) *MemoryTracker {
	return &MemoryTracker{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (t *MemoryTracker) Touch(_ context.Context, entry Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[entry.UserID] = memoryEntry{entry: entry, expires: t.now().Add(t.ttl)}
	return nil
}

func (t *MemoryTracker) Online(_ context.Context) ([]Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	out := make([]Entry, 0, len(t.entries))
	for id, e := range t.entries {
		if !now.Before(e.expires) {
			delete(t.entries, id)
			continue
		}
		out = append(out, e.entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
