// Package token handles device authorization polling.
package token

import (
	"errors"
	"net/http"
	"time"

	"github.com/jot-sh/jot/cmd/jotd/handlers/common"
	"github.com/jot-sh/jot/internal/devicegrant"
)

// grantDeviceCode is the RFC 8628 grant type the poll endpoint accepts.
const grantDeviceCode = "urn:ietf:params:oauth:grant-type:device_code"

// Response is the credential payload returned exactly once per device code.
type Response struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Handler processes token polling requests.
type Handler struct {
	grant    *devicegrant.Grant
	tokenTTL time.Duration
}

// New creates a token polling handler. tokenTTL is only echoed to the client
// as expires_in; the credential itself carries its own expiry.
func New(grant *devicegrant.Grant, tokenTTL time.Duration) *Handler {
	return &Handler{grant: grant, tokenTTL: tokenTTL}
}

// ServeHTTP answers a poll: pending, slow_down, a terminal failure, or the
// session credential.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		common.WriteError(w, http.StatusMethodNotAllowed, common.ErrorCodeInvalidRequest, "POST method required")
		return
	}

	if err := r.ParseForm(); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeInvalidRequest, "Invalid request format")
		return
	}

	if grantType := r.Form.Get("grant_type"); grantType != grantDeviceCode {
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeUnsupportedGrant,
			"Only "+grantDeviceCode+" is supported")
		return
	}

	deviceCode := r.Form.Get("device_code")
	if deviceCode == "" {
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeInvalidRequest,
			"The device_code parameter is REQUIRED")
		return
	}

	credential, err := h.grant.Poll(r.Context(), deviceCode)
	if err != nil {
		h.writePollError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, Response{
		AccessToken: credential,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.tokenTTL.Seconds()),
	})
}

func (h *Handler) writePollError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, devicegrant.ErrAuthorizationPending):
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeAuthorizationPending,
			"The authorization request is still pending")
	case errors.Is(err, devicegrant.ErrSlowDown):
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeSlowDown,
			"Polling interval must be increased by 5 seconds")
	case errors.Is(err, devicegrant.ErrDenied):
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeAccessDenied,
			"The authorization request was denied")
	case errors.Is(err, devicegrant.ErrExpired):
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeExpiredToken,
			"The device_code is invalid or expired")
	case errors.Is(err, devicegrant.ErrConflict):
		common.WriteError(w, http.StatusBadRequest, common.ErrorCodeInvalidGrant,
			"The device_code has already been redeemed")
	default:
		common.WriteError(w, http.StatusInternalServerError, common.ErrorCodeServerError,
			"An unexpected error occurred processing the request")
	}
}
