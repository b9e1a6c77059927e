package cloudsync

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/deojon/studio/types"
)

// DefaultInterval is the heartbeat and polling cadence.
const DefaultInterval = 10 * time.Second

// DefaultRetention is how long merged envelope ids are remembered and
// how long an in-process transport keeps envelopes.
const DefaultRetention = 24 * time.Hour

// TickFunc runs on every runner tick before the heartbeat, for local
// policies such as the midnight chat reset.
type TickFunc func(now time.Time)

// Runner drives the periodic heartbeat and poll for one signed-in user.
// It runs on a single goroutine; Stop cancels it and waits for the
// current tick to finish, after which no heartbeat is sent.
type Runner struct {
	service    *Service
	merger     *Merger
	interval   time.Duration
	retention  time.Duration
	categories []types.SyncCategory
	onTick     []TickFunc
	now        func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner constructs a Runner polling categories every interval.
func NewRunner(service *Service, merger *Merger, interval time.Duration, categories []types.SyncCategory) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{
		service:    service,
		merger:     merger,
		interval:   interval,
		retention:  DefaultRetention,
		categories: categories,
		now:        time.Now,
	}
}

// OnTick registers fn to run at the start of every tick.
func (r *Runner) OnTick(fn TickFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onTick = append(r.onTick, fn)
}

// SetRetention changes how far back compaction keeps envelopes.
func (r *Runner) SetRetention(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d > 0 {
		r.retention = d
	}
}

// Start sends an immediate heartbeat and begins ticking for user. A
// running loop for a previous user is stopped first.
func (r *Runner) Start(ctx context.Context, user types.User) {
	r.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	r.heartbeat(ctx, user)
	go r.loop(ctx, user, done)
}

// Stop cancels the loop and waits for it to exit. It is safe to call
// when the runner is not running.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Tick performs one cycle: tick hooks, heartbeat, a poll and merge of
// every category, then compaction of state older than the retention.
func (r *Runner) Tick(ctx context.Context, user types.User) {
	r.mu.Lock()
	hooks := append([]TickFunc(nil), r.onTick...)
	r.mu.Unlock()

	now := r.now()
	for _, fn := range hooks {
		fn(now)
	}

	r.heartbeat(ctx, user)
	r.Poll(ctx)
	r.compact(ctx)
}

// compact forgets merged ids past the retention and prunes the memory
// transport, which has no external retention of its own. Durable
// transports are pruned by `studio sync prune`.
func (r *Runner) compact(ctx context.Context) {
	r.mu.Lock()
	retention := r.retention
	r.mu.Unlock()

	cutoff := r.service.now().Add(-retention).UnixMilli()
	if r.merger != nil {
		r.merger.Forget(cutoff)
	}
	if mem, ok := r.service.transport.(*MemoryTransport); ok {
		if _, err := mem.Prune(ctx, cutoff); err != nil {
			log.Printf("[sync] pruning memory transport failed: %v", err)
		}
	}
}

// Poll fetches and merges every category once. Categories with a poll
// still in flight are skipped.
func (r *Runner) Poll(ctx context.Context) {
	for _, category := range r.categories {
		if ctx.Err() != nil {
			return
		}
		msgs, err := r.service.FetchUpdates(ctx, category)
		if errors.Is(err, ErrPollInFlight) {
			continue
		}
		if err != nil {
			log.Printf("[sync] polling %s failed: %v", category, err)
			continue
		}
		if len(msgs) == 0 || r.merger == nil {
			continue
		}
		if _, err := r.merger.Apply(ctx, msgs); err != nil {
			log.Printf("[sync] merging %s failed: %v", category, err)
		}
	}
}

func (r *Runner) loop(ctx context.Context, user types.User, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(ctx, user)
		}
	}
}

func (r *Runner) heartbeat(ctx context.Context, user types.User) {
	if _, err := r.service.Heartbeat(ctx, user.ID, user.Name); err != nil {
		log.Printf("[sync] heartbeat for %s failed: %v", user.ID, err)
	}
}
