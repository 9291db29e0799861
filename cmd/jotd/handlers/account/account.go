// Package account handles registration and identity introspection.
package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jot-sh/jot/cmd/jotd/handlers/common"
	"github.com/jot-sh/jot/internal/httpmw"
	"github.com/jot-sh/jot/internal/users"
)

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// UserResponse is the account shape returned to clients. The password hash
// never leaves the store.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Handler processes account requests.
type Handler struct {
	users *users.Service
}

// New creates an account handler.
func New(userSvc *users.Service) *Handler {
	return &Handler{users: userSvc}
}

// Register creates an account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeInvalidRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeInvalidRequest,
			"email and password are required")
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			common.WriteError(w, http.StatusConflict, common.ErrorCodeConflict, "Email already registered")
			return
		}
		common.WriteError(w, http.StatusInternalServerError, common.ErrorCodeServerError,
			"An unexpected error occurred processing the request")
		return
	}

	common.WriteJSON(w, http.StatusCreated, UserResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

// Me returns the owner identity the caller's credential asserts.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := httpmw.OwnerID(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrorCodeUnauthorized, "")
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"id": ownerID})
}
