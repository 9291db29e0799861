// Package device handles device authorization initiation.
package device

import (
	"net/http"

	"github.com/jot-sh/jot/cmd/jotd/handlers/common"
	"github.com/jot-sh/jot/internal/devicegrant"
)

// Handler processes device code requests.
type Handler struct {
	grant *devicegrant.Grant
}

// New creates a device code request handler.
func New(grant *devicegrant.Grant) *Handler {
	return &Handler{grant: grant}
}

// ServeHTTP starts a device authorization flow and returns the code pair.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		common.WriteError(w, http.StatusMethodNotAllowed, common.ErrorCodeInvalidRequest, "POST method required")
		return
	}

	auth, err := h.grant.Start(r.Context())
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, common.ErrorCodeServerError, "Failed to create device authorization")
		return
	}

	common.WriteJSON(w, http.StatusOK, auth)
}
