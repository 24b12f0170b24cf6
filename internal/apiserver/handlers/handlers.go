// Package handlers contains HTTP handlers for the CRUD API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"noteflow/internal/store"
	"noteflow/pkg/api"
)

// StoreFactory combines the interfaces needed for the CRUD API to function.
type StoreFactory interface {
	Ping(ctx context.Context) error
	store.UserStore
	store.NoteStore
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	store  StoreFactory
	logger *slog.Logger
}

// New creates a new Handlers instance with the given store dependency.
func New(s StoreFactory, logger *slog.Logger) *Handlers {
	return &Handlers{store: s, logger: logger}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}

// Healthz reports process liveness. It answers 200 as long as the
// server loop is alive.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.respondJson(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Readyz reports readiness. The service only accepts traffic once the
// database answers a ping.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.httpError(w, "Database unavailable", http.StatusServiceUnavailable)
		return
	}
	h.respondJson(w, http.StatusOK, map[string]string{"status": "ready"})
}

// storeErrorStatus maps the store error taxonomy onto HTTP status codes.
// Errors are matched with errors.As so wrapped store errors map the same
// as bare ones.
func storeErrorStatus(err error) int {
	var (
		validation *store.ValidationError
		conflict   *store.ConflictError
		notFound   *store.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
