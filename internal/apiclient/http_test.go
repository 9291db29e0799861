package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, handler http.Handler) *HTTP {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewHTTP(srv.URL)
	if err != nil {
		t.Fatalf("NewHTTP() error = %v", err)
	}
	return client
}

func TestStartDeviceAuth(t *testing.T) {
	want := &StartResponse{
		DeviceCode:      "device-code-1",
		UserCode:        "BCDF-GHJK",
		VerificationURI: "https://jot.example.com/device",
		ExpiresIn:       600,
		Interval:        5,
	}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/device/code" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(want)
	}))

	got, err := client.StartDeviceAuth(context.Background())
	if err != nil {
		t.Fatalf("StartDeviceAuth() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("StartDeviceAuth() mismatch (-want +got):\n%s", diff)
	}
}

func TestPollTokenSuccess(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		if got := r.Form.Get("grant_type"); got != grantDeviceCode {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.Form.Get("device_code"); got != "device-code-1" {
			t.Errorf("device_code = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "session-credential",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))

	tok, err := client.PollToken(context.Background(), "device-code-1")
	if err != nil {
		t.Fatalf("PollToken() error = %v", err)
	}
	if tok.AccessToken != "session-credential" || tok.TokenType != "Bearer" {
		t.Errorf("PollToken() = %+v", tok)
	}
	if tok.Expiry.IsZero() {
		t.Error("token has no expiry")
	}
}

func TestPollTokenErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{name: "pending", code: "authorization_pending", wantErr: ErrAuthorizationPending},
		{name: "slow down", code: "slow_down", wantErr: ErrSlowDown},
		{name: "denied", code: "access_denied", wantErr: ErrAccessDenied},
		{name: "expired", code: "expired_token", wantErr: ErrExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": tt.code})
			}))

			if _, err := client.PollToken(context.Background(), "device-code-1"); !errors.Is(err, tt.wantErr) {
				t.Errorf("PollToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnknownErrorKeepsDescription(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "conflict",
			"error_description": "Email already registered",
		})
	}))

	_, err := client.PollToken(context.Background(), "device-code-1")
	if err == nil {
		t.Fatal("PollToken() succeeded on 409")
	}
	for _, want := range []string{"conflict", "Email already registered"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestWithTokenSendsBearer(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"notes": []Note{}})
	}))

	authed := client.WithToken(&oauth2.Token{AccessToken: "session-credential", TokenType: "Bearer"})
	notes, err := authed.ListNotes(context.Background())
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("ListNotes() = %+v, want empty", notes)
	}
	if gotAuth != "Bearer session-credential" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}
