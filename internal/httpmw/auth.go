// Package httpmw holds the HTTP middleware shared by jotd handlers.
package httpmw

import (
	"context"
	"net/http"
	"strings"
)

type contextKey int

const ownerKey contextKey = iota

// Verifier validates a bearer credential and returns the owner identity it
// asserts.
type Verifier interface {
	Verify(token string) (string, error)
}

// RequireAuth rejects any request without a valid bearer credential before
// handler logic runs, and attaches the verified owner id to the request
// context. The failure response carries no detail about why verification
// failed or what the request targeted.
func RequireAuth(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			ownerID, err := v.Verify(token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), ownerKey, ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerID returns the verified owner identity attached by RequireAuth.
func OwnerID(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(ownerKey).(string)
	return ownerID, ok && ownerID != ""
}

// WithOwnerID attaches an owner identity to a context, for handler tests.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey, ownerID)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
