// Package common holds response helpers shared by jotd handlers.
package common

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Error codes used across the API surface.
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeUnsupportedGrant     = "unsupported_grant_type"
	ErrorCodeAuthorizationPending = "authorization_pending"
	ErrorCodeSlowDown             = "slow_down"
	ErrorCodeAccessDenied         = "access_denied"
	ErrorCodeExpiredToken         = "expired_token"
	ErrorCodeNotFound             = "not_found"
	ErrorCodeAlreadyResolved      = "already_resolved"
	ErrorCodeUnauthorized         = "unauthorized"
	ErrorCodeConflict             = "conflict"
	ErrorCodeServerError          = "server_error"
)

// ErrorResponse is the error body shape, matching the RFC 8628 token
// endpoint vocabulary.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// SetJSONHeaders sets the headers every JSON response carries. Responses are
// never cacheable: most of them contain codes or credentials.
func SetJSONHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
}

// WriteError sends a standardized error response.
func WriteError(w http.ResponseWriter, status int, code, description string) {
	SetJSONHeaders(w)
	w.WriteHeader(status)

	response := ErrorResponse{
		Error:            code,
		ErrorDescription: strings.TrimSpace(description),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		WriteEncodingError(w)
	}
}

// WriteJSON sends a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	SetJSONHeaders(w)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		WriteEncodingError(w)
	}
}

// WriteEncodingError handles JSON encoding failures with a hand-built body.
func WriteEncodingError(w http.ResponseWriter) {
	_, _ = w.Write([]byte(`{"error":"server_error","error_description":"Failed to encode response"}`))
}
