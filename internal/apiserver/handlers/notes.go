package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"noteflow/internal/logger"
	"noteflow/internal/store"
	"noteflow/pkg/api"

	"github.com/google/uuid"
)

// StoreNotes handles POST /api/storeNotes.
// It creates a new note for a user. Content is stored as-is.
func (h *Handlers) StoreNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.StoreNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.UserID == "" {
		h.httpError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	note := &store.Note{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.CreateNote(ctx, note); err != nil {
		logger.FromContext(ctx, h.logger).Error("failed to create note", slog.String("error", err.Error()))
		h.httpError(w, "Failed to create note", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.StoreNotesResponse{OK: true, ID: note.ID})
}

// GetNotes handles GET /api/getNotes?user_id=.
// It returns all notes for a user, newest first.
func (h *Handlers) GetNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		http.Error(w, "Call /api/getNotes is missing the user_id parameter", http.StatusBadRequest)
		return
	}

	notes, err := h.store.ListNotes(ctx, userID)
	if err != nil {
		logger.FromContext(ctx, h.logger).Error("failed to list notes", slog.String("error", err.Error()))
		h.httpError(w, "Failed to list notes", storeErrorStatus(err))
		return
	}

	resp := make([]api.NoteRecord, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, api.NoteRecord{
			ID:        n.ID,
			UserID:    n.UserID,
			Content:   n.Content,
			CreatedAt: n.CreatedAt,
			UpdatedAt: n.UpdatedAt,
		})
	}

	h.respondJson(w, http.StatusOK, resp)
}

// SaveNotes handles POST /api/saveNotes.
// It replaces the content of the user's notes and refreshes updated_at.
// The match is by user_id alone; a multi-note user has every note replaced.
func (h *Handlers) SaveNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SaveNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.UserID == "" {
		h.httpError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	changes, err := h.store.UpdateNoteContent(ctx, req.UserID, req.Content)
	if err != nil {
		logger.FromContext(ctx, h.logger).Error("failed to save notes", slog.String("error", err.Error()))
		h.httpError(w, "Failed to save notes", storeErrorStatus(err))
		return
	}

	h.respondJson(w, http.StatusOK, api.SaveNotesResponse{
		OK:      true,
		ID:      req.UserID,
		Changes: changes,
	})
}
