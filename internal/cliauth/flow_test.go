package cliauth

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/oauth2"

	"github.com/jot-sh/jot/internal/apiclient"
)

var testStart = &apiclient.StartResponse{
	DeviceCode:      "device-code-1",
	UserCode:        "BCDF-GHJK",
	VerificationURI: "https://jot.example.com/device",
	ExpiresIn:       600,
	Interval:        5,
}

// sleepRecorder captures every requested wait without actually waiting.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newTestFlow(mock *apiclient.Mock, opts ...FlowOption) (*Flow, *sleepRecorder, *bytes.Buffer) {
	rec := &sleepRecorder{}
	out := &bytes.Buffer{}
	all := append([]FlowOption{
		WithOutput(out),
		WithSleep(rec.sleep),
	}, opts...)
	return NewFlow(mock, all...), rec, out
}

func TestLoginSuccess(t *testing.T) {
	mock := &apiclient.Mock{
		Start: testStart,
		PollResults: []apiclient.PollResult{
			{Err: apiclient.ErrAuthorizationPending},
			{Err: apiclient.ErrAuthorizationPending},
			{Token: &oauth2.Token{AccessToken: "session-credential"}},
		},
	}
	flow, rec, out := newTestFlow(mock)

	tok, err := flow.Login(context.Background())
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tok.AccessToken != "session-credential" {
		t.Errorf("AccessToken = %q", tok.AccessToken)
	}
	if mock.Polls() != 3 {
		t.Errorf("polled %d times, want 3", mock.Polls())
	}

	// Every wait uses the server's advertised interval.
	for i, d := range rec.waits {
		if d != 5*time.Second {
			t.Errorf("wait %d = %v, want 5s", i, d)
		}
	}

	if !strings.Contains(out.String(), "BCDF-GHJK") {
		t.Errorf("output missing user code: %q", out.String())
	}
	if !strings.Contains(out.String(), testStart.VerificationURI) {
		t.Errorf("output missing verification URI: %q", out.String())
	}
}

func TestLoginSlowDownGrowsInterval(t *testing.T) {
	mock := &apiclient.Mock{
		Start: testStart,
		PollResults: []apiclient.PollResult{
			{Err: apiclient.ErrSlowDown},
			{Err: apiclient.ErrSlowDown},
			{Token: &oauth2.Token{AccessToken: "session-credential"}},
		},
	}
	flow, rec, _ := newTestFlow(mock)

	if _, err := flow.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	want := []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second}
	if diff := cmp.Diff(want, rec.waits); diff != "" {
		t.Errorf("waits mismatch (-want +got):\n%s", diff)
	}
}

func TestLoginTerminalErrors(t *testing.T) {
	tests := []struct {
		name    string
		pollErr error
		wantErr error
	}{
		{name: "denied", pollErr: apiclient.ErrAccessDenied, wantErr: ErrDenied},
		{name: "expired", pollErr: apiclient.ErrExpiredToken, wantErr: ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &apiclient.Mock{
				Start:       testStart,
				PollResults: []apiclient.PollResult{{Err: tt.pollErr}},
			}
			flow, _, _ := newTestFlow(mock)

			if _, err := flow.Login(context.Background()); !errors.Is(err, tt.wantErr) {
				t.Errorf("Login() error = %v, want %v", err, tt.wantErr)
			}
			if mock.Polls() != 1 {
				t.Errorf("polled %d times after terminal answer, want 1", mock.Polls())
			}
		})
	}
}

func TestLoginCeiling(t *testing.T) {
	mock := &apiclient.Mock{
		Start:       testStart,
		PollResults: []apiclient.PollResult{{Err: apiclient.ErrAuthorizationPending}},
	}
	flow, _, _ := newTestFlow(mock, WithCeiling(-time.Second))

	if _, err := flow.Login(context.Background()); !errors.Is(err, ErrTimedOut) {
		t.Errorf("Login() error = %v, want ErrTimedOut", err)
	}
	if mock.Polls() != 0 {
		t.Errorf("polled %d times past the deadline, want 0", mock.Polls())
	}
}

func TestLoginContextCancelled(t *testing.T) {
	mock := &apiclient.Mock{
		Start:       testStart,
		PollResults: []apiclient.PollResult{{Err: apiclient.ErrAuthorizationPending}},
	}
	flow, _, _ := newTestFlow(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := flow.Login(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Login() error = %v, want context.Canceled", err)
	}
}

func TestLoginStartFailure(t *testing.T) {
	mock := &apiclient.Mock{StartErr: errors.New("connection refused")}
	flow, _, _ := newTestFlow(mock)

	if _, err := flow.Login(context.Background()); err == nil {
		t.Error("Login() succeeded with failing start")
	}
}

func TestLoginDefaultsMissingInterval(t *testing.T) {
	start := *testStart
	start.Interval = 0
	mock := &apiclient.Mock{
		Start:       &start,
		PollResults: []apiclient.PollResult{{Token: &oauth2.Token{AccessToken: "session-credential"}}},
	}
	flow, rec, _ := newTestFlow(mock)

	if _, err := flow.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if len(rec.waits) != 1 || rec.waits[0] != 5*time.Second {
		t.Errorf("waits = %v, want one 5s wait", rec.waits)
	}
}
