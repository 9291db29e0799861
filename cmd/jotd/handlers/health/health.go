// Package health handles liveness checks.
package health

import (
	"context"
	"encoding/json"
	"net/http"
)

// Checker reports whether a backing component is reachable.
type Checker interface {
	CheckHealth(ctx context.Context) error
}

// Response is the health check body.
type Response struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Handler processes health check requests.
type Handler struct {
	checkers map[string]Checker
	version  string
}

// New creates a health handler over named component checkers.
func New(checkers map[string]Checker) *Handler {
	return &Handler{checkers: checkers}
}

// WithVersion sets the version reported in responses.
func (h *Handler) WithVersion(version string) *Handler {
	h.version = version
	return h
}

// ServeHTTP reports overall and per-component health.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	response := Response{
		Status:  "healthy",
		Version: h.version,
		Details: make(map[string]string),
	}

	for name, checker := range h.checkers {
		if err := checker.CheckHealth(r.Context()); err != nil {
			response.Status = "unhealthy"
			response.Details[name] = "unhealthy"
		} else {
			response.Details[name] = "healthy"
		}
	}

	if response.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
	}
}
