// Package apiclient is the CLI's transport to a jotd server. The Authorizer
// interface exists so the login flow can run against either the live HTTP
// implementation or the in-memory test double.
package apiclient

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// Terminal and non-terminal poll outcomes, mapped from the server's error
// vocabulary.
var (
	// ErrAuthorizationPending means keep polling.
	ErrAuthorizationPending = errors.New("authorization pending")

	// ErrSlowDown means keep polling at a longer interval.
	ErrSlowDown = errors.New("server requested slower polling")

	// ErrAccessDenied means the human refused; stop polling.
	ErrAccessDenied = errors.New("authorization denied")

	// ErrExpiredToken means the device code lapsed; stop polling.
	ErrExpiredToken = errors.New("device code expired")
)

// StartResponse is the device authorization the server hands back when a
// flow begins.
type StartResponse struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval"`
}

// Note mirrors the server's note shape.
type Note struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// Authorizer is the capability the login flow needs: start a device
// authorization and poll it for a credential.
type Authorizer interface {
	StartDeviceAuth(ctx context.Context) (*StartResponse, error)
	PollToken(ctx context.Context, deviceCode string) (*oauth2.Token, error)
}
