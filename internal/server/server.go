package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/deojon/studio/config"
	"github.com/deojon/studio/internal/handlers"
	"github.com/deojon/studio/internal/mail"
	"github.com/deojon/studio/internal/presence"
	"github.com/deojon/studio/internal/services"
	"github.com/deojon/studio/internal/workspace"
	"github.com/deojon/studio/types"
)

// Server wraps the HTTP server, router and the workspace it serves.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	workspace  *workspace.Workspace
	closers    []io.Closer
}

// New opens the configured backends, builds the workspace and starts its
// background sync under a node identity.
func New(ctx context.Context, cfg config.Config, seed workspace.Seed) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	transport, transportCloser, err := OpenTransport(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closers := []io.Closer{transportCloser}

	ttl := presence.TTLFor(cfg.Sync.Interval)
	var tracker presence.Tracker = presence.NewMemoryTracker(ttl)
	if cfg.RedisURL != "" {
		redisTracker, err := presence.NewRedisTracker(cfg.RedisURL, ttl)
		if err != nil {
			_ = transportCloser.Close()
			return nil, err
		}
		tracker = redisTracker
		closers = append(closers, redisTracker)
	}

	var mailer services.Mailer
	if sender := mail.NewSender(cfg.Mail); sender.IsConfigured() {
		mailer = sender
	}

	ws := workspace.New(ctx, workspace.Options{
		Transport: transport,
		Presence:  tracker,
		Mailer:    mailer,
		Interval:  cfg.Sync.Interval,
		Seed:      seed,
	})
	ws.Runner.Start(ctx, nodeIdentity())

	router := NewRouter(ws, jwtSecret)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		workspace:  ws,
		closers:    closers,
	}, nil
}

// NewRouter mounts the workspace API.
func NewRouter(ws *workspace.Workspace, jwtSecret string) *chi.Mux {
	authMiddleware := handlers.RequireAuth(jwtSecret)
	projectHandler := handlers.NewProjectHandler(ws.Projects, ws.Auth)
	syncHandler := handlers.NewSyncHandler(ws.Sync, ws.Merger, ws.Presence, ws.Heartbeat, ws.Auth)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, ws.Auth, jwtSecret)
	})
	router.Route("/tasks", func(r chi.Router) {
		handlers.TaskRouter(r, ws.Tasks, ws.Auth, authMiddleware)
	})
	router.Route("/projects", func(r chi.Router) {
		handlers.ProjectRouter(r, projectHandler, authMiddleware)
	})
	router.Route("/processes", func(r chi.Router) {
		handlers.ProcessRouter(r, projectHandler, authMiddleware)
	})
	router.Route("/board", func(r chi.Router) {
		handlers.BoardRouter(r, ws.Board, ws.Auth, authMiddleware)
	})
	router.Route("/chat", func(r chi.Router) {
		handlers.ChatRouter(r, ws.Chat, ws.Auth, authMiddleware)
	})
	router.Route("/sync", func(r chi.Router) {
		handlers.SyncRouter(r, syncHandler, authMiddleware)
	})
	router.Route("/presence", func(r chi.Router) {
		handlers.PresenceRouter(r, syncHandler, authMiddleware)
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	log.Printf("[server] listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops background sync, then the HTTP server, then the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.workspace.Close()
	err := s.httpServer.Shutdown(ctx)
	for _, c := range s.closers {
		if cerr := c.Close(); cerr != nil {
			log.Printf("[server] closing backend: %v", cerr)
		}
	}
	return err
}

func nodeIdentity() types.User {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return types.User{ID: "node-" + host, Name: host}
}
