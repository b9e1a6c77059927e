package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deojon/studio/internal/services"
)

// BoardHandler provides HTTP handlers for board posts.
type BoardHandler struct {
	board *services.BoardService
	auth  *services.AuthService
}

// BoardRouter registers board routes. Reading the board is public;
// opening a post counts a view.
func BoardRouter(r chi.Router, board *services.BoardService, auth *services.AuthService, authMiddleware func(http.Handler) http.Handler) {
	handler := &BoardHandler{board: board, auth: auth}

	r.Get("/", handler.ListPosts)
	r.With(authMiddleware).Post("/", handler.CreatePost)
	r.Route("/{postID}", func(r chi.Router) {
		r.Get("/", handler.OpenPost)
		r.With(authMiddleware).Put("/", handler.UpdatePost)
		r.With(authMiddleware).Delete("/", handler.DeletePost)
	})
}

func (h *BoardHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.board.List(q))
}

func (h *BoardHandler) OpenPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.board.Open(chi.URLParam(r, "postID"))
	if err != nil {
		writeServiceError(w, err, "failed to fetch post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *BoardHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	var req services.CreatePostParams
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.board.Create(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, err, "failed to create post")
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *BoardHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	var req services.CreatePostParams
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.board.Update(r.Context(), actor, chi.URLParam(r, "postID"), req)
	if err != nil {
		writeServiceError(w, err, "failed to update post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *BoardHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	if err := h.board.Delete(r.Context(), actor, chi.URLParam(r, "postID")); err != nil {
		writeServiceError(w, err, "failed to delete post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
