// Package approve handles the human side of device authorization: a user
// proves who they are and binds their identity to a pending request by its
// user code. The device code never passes through this surface.
package approve

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jot-sh/jot/cmd/jotd/handlers/common"
	"github.com/jot-sh/jot/internal/devicegrant"
	"github.com/jot-sh/jot/internal/users"
)

// Request is the approval payload. Approve false denies the request.
type Request struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserCode string `json:"user_code"`
	Approve  bool   `json:"approve"`
}

// Handler processes approval and denial requests.
type Handler struct {
	grant *devicegrant.Grant
	users *users.Service
}

// New creates an approval handler.
func New(grant *devicegrant.Grant, userSvc *users.Service) *Handler {
	return &Handler{grant: grant, users: userSvc}
}

// ServeHTTP authenticates the caller and resolves the pending request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		common.WriteError(w, http.StatusMethodNotAllowed, common.ErrorCodeInvalidRequest, "POST method required")
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeInvalidRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.UserCode == "" {
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeInvalidRequest,
			"email, password and user_code are required")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrBadCredentials) {
			common.WriteError(w, http.StatusUnauthorized, common.ErrorCodeUnauthorized,
				"Invalid email or password")
			return
		}
		common.WriteError(w, http.StatusInternalServerError, common.ErrorCodeServerError,
			"An unexpected error occurred processing the request")
		return
	}

	if req.Approve {
		err = h.grant.Approve(r.Context(), req.UserCode, user.ID)
	} else {
		err = h.grant.Deny(r.Context(), req.UserCode)
	}
	if err != nil {
		h.writeResolveError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, devicegrant.ErrNotFound):
		common.WriteError(w, http.StatusNotFound, common.ErrorCodeNotFound,
			"No device authorization matches that code")
	case errors.Is(err, devicegrant.ErrExpired):
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeExpiredToken,
			"The code has expired; restart the login on your device")
	case errors.Is(err, devicegrant.ErrAlreadyResolved):
		common.WriteError(w, http.StatusConflict, common.ErrorCodeAlreadyResolved,
			"The device authorization has already been resolved")
	default:
		common.WriteError(w, http.StatusInternalServerError, common.ErrorCodeServerError,
			"An unexpected error occurred processing the request")
	}
}
