// Package workspace wires the entity stores, domain services, session and
// sync machinery of one studio node.
package workspace

import (
	"context"
	"time"

	"github.com/deojon/studio/internal/cloudsync"
	"github.com/deojon/studio/internal/presence"
	"github.com/deojon/studio/internal/prefs"
	"github.com/deojon/studio/internal/services"
	"github.com/deojon/studio/internal/store"
	"github.com/deojon/studio/types"
)

// Options configures New. Zero values select in-memory defaults.
type Options struct {
	Transport cloudsync.Transport
	Prefs     services.PreferenceStore
	Presence  presence.Tracker
	Mailer    services.Mailer
	Interval  time.Duration
	Seed      Seed
	Clock     func() time.Time
}

// Workspace is the composed domain state of one node.
type Workspace struct {
	Tasks    *services.TaskService
	Projects *services.ProjectService
	Board    *services.BoardService
	Chat     *services.ChatService
	Auth     *services.AuthService
	Session  *services.Session

	Sync     *cloudsync.Service
	Merger   *cloudsync.Merger
	Runner   *cloudsync.Runner
	Presence presence.Tracker

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a workspace. Background sync starts when the session logs
// in and stops when it logs out.
func New(ctx context.Context, opts Options) *Workspace {
	if opts.Transport == nil {
		opts.Transport = cloudsync.NewMemoryTransport()
	}
	if opts.Prefs == nil {
		opts.Prefs = prefs.NewMemoryStore()
	}
	if opts.Interval <= 0 {
		opts.Interval = cloudsync.DefaultInterval
	}
	if opts.Presence == nil {
		opts.Presence = presence.NewMemoryTracker(presence.TTLFor(opts.Interval))
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	syncService := cloudsync.NewService(opts.Transport, cloudsync.WithClock(opts.Clock))
	merger := cloudsync.NewMerger()
	broadcaster := cloudsync.LocalBroadcaster{Service: syncService, Merger: merger}

	serviceOpts := []services.Option{
		services.WithBroadcaster(broadcaster),
		services.WithClock(opts.Clock),
	}

	w := &Workspace{
		Tasks:    services.NewTaskService(store.NewCollection(opts.Seed.Tasks...), serviceOpts...),
		Projects: services.NewProjectService(store.NewCollection(opts.Seed.Projects...), store.NewCollection(opts.Seed.Processes...), serviceOpts...),
		Board:    services.NewBoardService(store.NewCollection(opts.Seed.Posts...), serviceOpts...),
		Chat:     services.NewChatService(store.NewCollection[types.ChatMessage](), serviceOpts...),
		Auth:     services.NewAuthService(store.NewCollection(opts.Seed.Accounts...), opts.Mailer),
		Sync:     syncService,
		Merger:   merger,
		Presence: opts.Presence,
	}
	w.Session = services.NewSession(w.Auth, opts.Prefs)

	merger.Register(types.CategoryProject, cloudsync.ApplierFunc(w.Projects.ApplyProjectSync))
	merger.Register(types.CategoryProcess, cloudsync.ApplierFunc(w.Projects.ApplyProcessSync))
	merger.Register(types.CategoryTask, w.Tasks)
	merger.Register(types.CategoryBoard, w.Board)
	merger.Register(types.CategoryChat, w.Chat)
	merger.Register(types.CategoryHeartbeat, presence.Applier{Tracker: opts.Presence})

	w.Runner = cloudsync.NewRunner(syncService, merger, opts.Interval, types.SyncCategories)
	w.Runner.OnTick(func(now time.Time) {
		w.Chat.ResetIfNewDay(now)
	})

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.Session.OnLogin(func(user types.User) {
		w.Runner.Start(w.ctx, user)
	})
	w.Session.OnLogout(w.Runner.Stop)

	return w
}

// Heartbeat publishes a presence ping for user and records it locally.
func (w *Workspace) Heartbeat(ctx context.Context, user types.User) error {
	msg, err := w.Sync.Heartbeat(ctx, user.ID, user.Name)
	if msg.ID != "" {
		if _, applyErr := w.Merger.Apply(ctx, []types.SyncMessage{msg}); applyErr != nil && err == nil {
			err = applyErr
		}
	}
	return err
}

// Close stops background sync.
func (w *Workspace) Close() {
	w.Runner.Stop()
	w.cancel()
}
