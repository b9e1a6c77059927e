package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/deojon/studio/internal/services"
	"github.com/deojon/studio/types"
)

// ProjectHandler provides HTTP handlers for projects and their processes.
type ProjectHandler struct {
	projects *services.ProjectService
	auth     *services.AuthService
}

func NewProjectHandler(projects *services.ProjectService, auth *services.AuthService) *ProjectHandler {
	return &ProjectHandler{projects: projects, auth: auth}
}

// ProjectRouter registers /projects routes. Reads are public.
func ProjectRouter(r chi.Router, handler *ProjectHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/", handler.ListProjects)
	r.With(authMiddleware).Post("/", handler.CreateProject)
	r.Route("/{projectID}", func(r chi.Router) {
		r.Get("/", handler.GetProject)
		r.With(authMiddleware).Put("/", handler.UpdateProject)
		r.Get("/processes", handler.ListProcesses)
		r.With(authMiddleware).Post("/processes", handler.CreateProcess)
	})
}

// ProcessRouter registers /processes routes.
func ProcessRouter(r chi.Router, handler *ProjectHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Put("/{processID}", handler.UpdateProcess)
	r.Post("/{processID}/toggle", handler.ToggleProcess)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := types.ProjectStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	switch status {
	case "", types.StatusInProgress, types.StatusCompleted:
	default:
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	writeJSON(w, http.StatusOK, h.projects.Projects(services.ProjectQuery{Query: q, Status: status}))
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.Project(chi.URLParam(r, "projectID"))
	if err != nil {
		writeServiceError(w, err, "failed to fetch project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	var req services.CreateProjectParams
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.projects.CreateProject(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, err, "failed to create project")
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	var req types.Project
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ID = chi.URLParam(r, "projectID")

	project, err := h.projects.UpdateProject(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, err, "failed to update project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) ListProcesses(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if _, err := h.projects.Project(projectID); err != nil {
		writeServiceError(w, err, "failed to fetch project")
		return
	}
	writeJSON(w, http.StatusOK, h.projects.Processes(projectID))
}

func (h *ProjectHandler) CreateProcess(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	var req services.CreateProcessParams
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ProjectID = chi.URLParam(r, "projectID")

	process, err := h.projects.CreateProcess(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, err, "failed to create process")
		return
	}
	writeJSON(w, http.StatusCreated, process)
}

func (h *ProjectHandler) UpdateProcess(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	var req types.Process
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ID = chi.URLParam(r, "processID")

	process, err := h.projects.UpdateProcess(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, err, "failed to update process")
		return
	}
	writeJSON(w, http.StatusOK, process)
}

func (h *ProjectHandler) ToggleProcess(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, h.auth)
	if err != nil {
		writeServiceError(w, err, "unauthorized")
		return
	}

	process, err := h.projects.ToggleProcess(r.Context(), actor, chi.URLParam(r, "processID"))
	if err != nil {
		writeServiceError(w, err, "failed to toggle process")
		return
	}
	writeJSON(w, http.StatusOK, process)
}
