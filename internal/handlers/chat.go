package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deojon/studio/internal/services"
)

type ChatHandler struct {
	chat *services.ChatService
	auth *services.AuthService
}

// ChatRouter registers team chat routes.
func ChatRouter(r chi.Router, chat *services.ChatService, auth *services.AuthService, authMiddleware func(http.Handler) http.Handler) {
	handler := &ChatHandler{chat: chat, auth: auth}

	r.Use(authMiddleware)
	r.Get("/", handler.ListMessages)
	r.Post("/", handler.SendMessage)
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.chat.Messages())
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	var req SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.chat.Send(r.Context(), actor, req.Text)
	if err != nil {
		writeServiceError(w, err, "failed to send message")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

type SendMessageRequest struct {
	Text string `json:"text"`
}
