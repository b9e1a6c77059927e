package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/deojon/studio/internal/services"
	"github.com/deojon/studio/types"
)

// TaskHandler provides HTTP handlers for tasks.
type TaskHandler struct {
	tasks *services.TaskService
	auth  *services.AuthService
}

// TaskRouter registers task routes. Every route requires authentication
// because visibility depends on the viewer.
func TaskRouter(r chi.Router, tasks *services.TaskService, auth *services.AuthService, authMiddleware func(http.Handler) http.Handler) {
	handler := &TaskHandler{tasks: tasks, auth: auth}

	r.Use(authMiddleware)
	r.Get("/", handler.ListTasks)
	r.Post("/", handler.CreateTask)
	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", handler.GetTask)
		r.Put("/", handler.UpdateTask)
		r.Delete("/", handler.DeleteTask)
		r.Post("/toggle", handler.ToggleTask)
	})
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	completed, err := parseOptionalBool(r.URL.Query().Get("completed"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid completed")
		return
	}

	page := h.tasks.List(actor.ID, services.TaskQuery{
		Query:     q,
		Completed: completed,
		AuthorID:  strings.TrimSpace(r.URL.Query().Get("authorId")),
	})
	writeJSON(w, http.StatusOK, page)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	task, err := h.tasks.Get(actor.ID, chi.URLParam(r, "taskID"))
	if err != nil {
		writeServiceError(w, err, "failed to fetch task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	var req services.CreateTaskParams
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.Create(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, err, "failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	var req types.Task
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ID = chi.URLParam(r, "taskID")

	task, err := h.tasks.Update(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, err, "failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	task, err := h.tasks.ToggleComplete(r.Context(), actor, chi.URLParam(r, "taskID"))
	if err != nil {
		writeServiceError(w, err, "failed to toggle task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	if err := h.tasks.Delete(r.Context(), actor, chi.URLParam(r, "taskID")); err != nil {
		writeServiceError(w, err, "failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
