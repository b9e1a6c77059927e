package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/deojon/studio/internal/services"
	"github.com/deojon/studio/internal/store"
	"github.com/deojon/studio/types"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func userIDFromContext(ctx context.Context) (string, error) {
	subject, ok := ctx.Value(contextSubjectKey).(string)
	if !ok {
		return "", errors.New("missing subject")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("invalid subject")
	}
	return subject, nil
}

// actorFromRequest resolves the authenticated member of r.
func actorFromRequest(r *http.Request, auth *services.AuthService) (types.User, error) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		return types.User{}, services.ErrNoSession
	}
	user, err := auth.Resolve(userID)
	if err != nil {
		return types.User{}, services.ErrNoSession
	}
	return user, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps domain errors to HTTP statuses. Unknown errors
// are reported as 500 with fallback as the message.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, types.ErrPayloadMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNoSession), errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicateID), errors.Is(err, services.ErrIDUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request")
	}
	return nil
}

// parseQuery reads keyword, sortBy, page and limit. Missing values take
// the store defaults; malformed numbers are rejected.
func parseQuery(r *http.Request) (store.Query, error) {
	values := r.URL.Query()
	q := store.Query{
		Keyword: strings.TrimSpace(values.Get("keyword")),
		SortBy:  store.SortBy(strings.TrimSpace(values.Get("sortBy"))),
		Page:    store.DefaultPage,
		Limit:   store.DefaultLimit,
	}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return store.Query{}, errors.New("invalid page")
		}
		q.Page = page
	}

	rawLimit := strings.TrimSpace(values.Get("limit"))
	if rawLimit == "" {
		rawLimit = strings.TrimSpace(values.Get("per_page"))
	}
	if rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit < 1 {
			return store.Query{}, errors.New("invalid limit")
		}
		q.Limit = limit
	}

	switch q.SortBy {
	case "", store.SortLatest, store.SortOldest, store.SortViews:
	default:
		return store.Query{}, errors.New("invalid sortBy")
	}

	return q.Normalize(), nil
}

func parseOptionalBool(raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
