package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"noteflow/internal/auth"
	"noteflow/internal/logger"
	"noteflow/internal/store"
	"noteflow/pkg/api"

	"github.com/google/uuid"
)

// StoreUser handles POST /api/storeUser.
// It registers a new user with a hashed password.
func (h *Handlers) StoreUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.StoreUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		h.httpError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: auth.HashPassword(req.Password),
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.store.CreateUser(ctx, user); err != nil {
		var conflict *store.ConflictError
		if errors.As(err, &conflict) {
			h.httpError(w, "Email already registered", http.StatusConflict)
			return
		}
		logger.FromContext(ctx, h.logger).Error("failed to create user", slog.String("error", err.Error()))
		h.httpError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.StoreUserResponse{
		OK:    true,
		ID:    user.ID,
		Email: user.Email,
	})
}

// GetUser handles GET /api/getUser?email=.
// It returns an array of matching user projections, never the password hash.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		// Missing query parameter returns a plain-text 400, matching the
		// public API contract.
		http.Error(w, "Call /api/getUser is missing the email parameter", http.StatusBadRequest)
		return
	}

	records, err := h.store.GetUserByEmail(ctx, email)
	if err != nil {
		logger.FromContext(ctx, h.logger).Error("failed to get user", slog.String("error", err.Error()))
		h.httpError(w, "Failed to look up user", storeErrorStatus(err))
		return
	}

	// An empty result is a valid response: the caller distinguishes
	// absence by the empty array.
	resp := make([]api.UserRecord, 0, len(records))
	for _, rec := range records {
		resp = append(resp, api.UserRecord{
			ID:          rec.ID,
			Email:       rec.Email,
			DisplayName: rec.DisplayName,
			CreatedAt:   rec.CreatedAt,
		})
	}

	h.respondJson(w, http.StatusOK, resp)
}
