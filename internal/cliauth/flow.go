// Package cliauth drives the CLI side of device authorization: start a
// flow, show the human their code, poll until the server resolves it.
package cliauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/oauth2"

	"github.com/jot-sh/jot/internal/apiclient"
)

// DefaultCeiling bounds the whole login attempt in wall-clock time,
// independent of the per-poll interval, so a server that never visibly
// resolves the flow cannot hold the CLI forever.
const DefaultCeiling = 15 * time.Minute

// slowDownStep is added to the interval on each slow_down response.
const slowDownStep = 5 * time.Second

// Terminal login failures. Each is distinct so the CLI can tell the user
// what actually happened.
var (
	ErrDenied   = errors.New("login denied in the browser")
	ErrExpired  = errors.New("login code expired before it was approved")
	ErrTimedOut = errors.New("login timed out waiting for approval")
)

// Flow runs the device authorization login.
type Flow struct {
	client  apiclient.Authorizer
	ceiling time.Duration
	out     io.Writer
	sleep   func(ctx context.Context, d time.Duration) error
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithCeiling overrides the overall login deadline.
func WithCeiling(d time.Duration) FlowOption {
	return func(f *Flow) {
		f.ceiling = d
	}
}

// WithOutput redirects user-facing messages.
func WithOutput(w io.Writer) FlowOption {
	return func(f *Flow) {
		f.out = w
	}
}

// WithSleep overrides the inter-poll wait, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) FlowOption {
	return func(f *Flow) {
		f.sleep = sleep
	}
}

// NewFlow creates a login flow over the given transport.
func NewFlow(client apiclient.Authorizer, opts ...FlowOption) *Flow {
	f := &Flow{
		client:  client,
		ceiling: DefaultCeiling,
		out:     os.Stdout,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Login runs the flow to completion and returns the session credential.
// Cancelling ctx abandons the attempt with no server-side cleanup needed:
// the pending request just expires.
func (f *Flow) Login(ctx context.Context) (*oauth2.Token, error) {
	start, err := f.client.StartDeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting device authorization: %w", err)
	}

	fmt.Fprintf(f.out, "To log in, visit:\n\n    %s\n\nand enter the code: %s\n\n", start.VerificationURI, start.UserCode)

	interval := time.Duration(start.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(f.ceiling)

	for {
		if time.Now().After(deadline) {
			return nil, ErrTimedOut
		}
		if err := f.sleep(ctx, interval); err != nil {
			return nil, err
		}

		token, err := f.client.PollToken(ctx, start.DeviceCode)
		switch {
		case err == nil:
			return token, nil
		case errors.Is(err, apiclient.ErrAuthorizationPending):
			continue
		case errors.Is(err, apiclient.ErrSlowDown):
			interval += slowDownStep
			continue
		case errors.Is(err, apiclient.ErrAccessDenied):
			return nil, ErrDenied
		case errors.Is(err, apiclient.ErrExpiredToken):
			return nil, ErrExpired
		default:
			return nil, fmt.Errorf("polling for credential: %w", err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
