// Package notes exposes the owner-scoped note API. Every operation derives
// its owner from the verified request context; there is no way to reach
// another owner's records through these handlers.
package notes

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jot-sh/jot/cmd/jotd/handlers/common"
	"github.com/jot-sh/jot/internal/httpmw"
	"github.com/jot-sh/jot/internal/notes"
)

// CreateRequest is the note creation payload.
type CreateRequest struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// UpdateRequest is the note rewrite payload. Tags are replaced wholesale.
type UpdateRequest struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// ListResponse wraps a note listing.
type ListResponse struct {
	Notes []notes.Note `json:"notes"`
}

// Handler processes note requests.
type Handler struct {
	store notes.Store
}

// New creates a notes handler.
func New(store notes.Store) *Handler {
	return &Handler{store: store}
}

// Create adds a note for the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := httpmw.OwnerID(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrorCodeUnauthorized, "")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeInvalidRequest, "Invalid request body")
		return
	}
	if req.Content == "" {
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeInvalidRequest, "content is required")
		return
	}

	now := time.Now()
	note := &notes.Note{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Content:   req.Content,
		Tags:      req.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.Create(r.Context(), note); err != nil {
		common.WriteError(w, http.StatusInternalServerError, common.ErrorCodeServerError,
			"An unexpected error occurred processing the request")
		return
	}

	common.WriteJSON(w, http.StatusCreated, note)
}

// List returns the caller's notes.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := httpmw.OwnerID(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrorCodeUnauthorized, "")
		return
	}

	list, err := h.store.List(r.Context(), ownerID)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, common.ErrorCodeServerError,
			"An unexpected error occurred processing the request")
		return
	}
	if list == nil {
		list = []notes.Note{}
	}

	common.WriteJSON(w, http.StatusOK, ListResponse{Notes: list})
}

// Get returns one of the caller's notes. A note owned by someone else is
// reported exactly like a note that does not exist.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := httpmw.OwnerID(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrorCodeUnauthorized, "")
		return
	}

	note, err := h.store.Get(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, note)
}

// Update rewrites one of the caller's notes.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := httpmw.OwnerID(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrorCodeUnauthorized, "")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeInvalidRequest, "Invalid request body")
		return
	}
	if req.Content == "" {
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeInvalidRequest, "content is required")
		return
	}

	note, err := h.store.Update(r.Context(), ownerID, chi.URLParam(r, "id"), req.Content, req.Tags)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, note)
}

// Delete removes one of the caller's notes.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := httpmw.OwnerID(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrorCodeUnauthorized, "")
		return
	}

	if err := h.store.Delete(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, notes.ErrNotFound) {
		common.WriteError(w, http.StatusNotFound, common.ErrorCodeNotFound, "Note not found")
		return
	}
	common.WriteError(w, http.StatusInternalServerError, common.ErrorCodeServerError,
		"An unexpected error occurred processing the request")
}
