package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

func healthy(context.Context) error   { return nil }
func unhealthy(context.Context) error { return errors.New("unreachable") }

func TestServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		checkers   map[string]Checker
		wantStatus int
		wantBody   string
	}{
		{
			name: "all healthy",
			checkers: map[string]Checker{
				"postgres": checkerFunc(healthy),
				"grant":    checkerFunc(healthy),
			},
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
		},
		{
			name: "one component down",
			checkers: map[string]Checker{
				"postgres": checkerFunc(unhealthy),
				"grant":    checkerFunc(healthy),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := New(tt.checkers).WithVersion("test")

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body Response
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if body.Status != tt.wantBody {
				t.Errorf("status field = %q, want %q", body.Status, tt.wantBody)
			}
			if body.Version != "test" {
				t.Errorf("version = %q, want test", body.Version)
			}
			if len(body.Details) != len(tt.checkers) {
				t.Errorf("details = %+v, want %d entries", body.Details, len(tt.checkers))
			}
		})
	}
}
