package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/deojon/studio/internal/cloudsync"
	"github.com/deojon/studio/internal/presence"
	"github.com/deojon/studio/internal/services"
	"github.com/deojon/studio/types"
)

// SyncHandler exposes manual cloud sync and presence.
type SyncHandler struct {
	service   *cloudsync.Service
	merger    *cloudsync.Merger
	tracker   presence.Tracker
	heartbeat func(ctx context.Context, user types.User) error
	auth      *services.AuthService
}

func NewSyncHandler(
	service *cloudsync.Service,
	merger *cloudsync.Merger,
	tracker presence.Tracker,
	heartbeat func(ctx context.Context, user types.User) error,
	auth *services.AuthService,
) *SyncHandler {
	return &SyncHandler{
		service:   service,
		merger:    merger,
		tracker:   tracker,
		heartbeat: heartbeat,
		auth:      auth,
	}
}

// SyncRouter registers /sync routes.
func SyncRouter(r chi.Router, handler *SyncHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Post("/{category}", handler.Pull)
}

// PresenceRouter registers /presence routes.
func PresenceRouter(r chi.Router, handler *SyncHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Get("/", handler.Online)
	r.Post("/", handler.Heartbeat)
}

// Pull fetches and merges the pending envelopes of one category.
func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	category := types.SyncCategory(strings.ToUpper(chi.URLParam(r, "category")))
	if !category.Valid() {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	msgs, err := h.service.FetchUpdates(r.Context(), category)
	if errors.Is(err, cloudsync.ErrPollInFlight) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		log.Printf("[sync] manual pull of %s failed: %v", category, err)
		writeError(w, http.StatusBadGateway, "failed to fetch updates")
		return
	}

	applied, err := h.merger.Apply(r.Context(), msgs)
	if err != nil {
		log.Printf("[sync] merging %s failed: %v", category, err)
	}

	writeJSON(w, http.StatusOK, PullResponse{
		Category:    category,
		Fetched:     len(msgs),
		Applied:     applied,
		LastFetched: h.service.LastFetched(category),
	})
}

// Heartbeat marks the caller online and returns who else is.
func (h *SyncHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	if err := h.heartbeat(r.Context(), actor); err != nil {
		log.Printf("[presence] heartbeat for %s failed: %v", actor.ID, err)
	}
	h.Online(w, r)
}

func (h *SyncHandler) Online(w http.ResponseWriter, r *http.Request) {
	entries, err := h.tracker.Online(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load presence")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type PullResponse struct {
	Category    types.SyncCategory `json:"category"`
	Fetched     int                `json:"fetched"`
	Applied     int                `json:"applied"`
	LastFetched int64              `json:"lastFetched"`
}
