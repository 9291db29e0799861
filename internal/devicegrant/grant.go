// Package devicegrant implements the device authorization grant: a CLI with
// no browser obtains a session credential by having a human approve a short
// code out of band, in the shape of the OAuth 2.0 flow from RFC 8628.
package devicegrant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jot-sh/jot/internal/validation"
)

const (
	// DefaultLifetime is how long a request stays approvable.
	DefaultLifetime = 10 * time.Minute

	// DefaultPollInterval is the minimum interval between client polls.
	DefaultPollInterval = 5 * time.Second

	// maxCodeAttempts bounds user code collision retries.
	maxCodeAttempts = 5
)

// TokenIssuer mints a session credential for an owner. Issuance is pure:
// signing has no side effects, so the grant can sign first and only hand the
// credential out if it wins the Approved to Consumed transition.
type TokenIssuer interface {
	Issue(ownerID string) (string, error)
}

// Grant manages the device authorization lifecycle against a Store.
type Grant struct {
	store    Store
	issuer   TokenIssuer
	baseURL  string
	lifetime time.Duration
	interval time.Duration
	now      func() time.Time
}

// New creates a grant manager. baseURL is where humans are sent to approve.
func New(store Store, issuer TokenIssuer, baseURL string, opts ...Option) *Grant {
	g := &Grant{
		store:    store,
		issuer:   issuer,
		baseURL:  baseURL,
		lifetime: DefaultLifetime,
		interval: DefaultPollInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start creates a new pending request and returns the codes the client needs.
// User code generation retries on collision with a live request.
func (g *Grant) Start(ctx context.Context) (*Authorization, error) {
	deviceCode, err := generateDeviceCode()
	if err != nil {
		return nil, fmt.Errorf("generating device code: %w", err)
	}

	now := g.now()
	req := &Request{
		DeviceCode: deviceCode,
		State:      StatePending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(g.lifetime),
		Interval:   int(g.interval.Seconds()),
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		userCode, err := generateUserCode()
		if err != nil {
			return nil, fmt.Errorf("generating user code: %w", err)
		}
		req.UserCode = validation.Normalize(userCode)

		err = g.store.Save(ctx, req)
		if errors.Is(err, ErrDuplicateUserCode) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("saving device request: %w", err)
		}

		uri, complete := g.buildVerificationURIs(req.UserCode)
		return &Authorization{
			DeviceCode:              req.DeviceCode,
			UserCode:                validation.Format(req.UserCode),
			VerificationURI:         uri,
			VerificationURIComplete: complete,
			ExpiresIn:               int(g.lifetime.Seconds()),
			Interval:                req.Interval,
		}, nil
	}

	return nil, fmt.Errorf("user code collision persisted after %d attempts", maxCodeAttempts)
}

// Approve binds ownerID to the request identified by userCode. The caller
// must have authenticated the human first; no device code is accepted here.
func (g *Grant) Approve(ctx context.Context, userCode, ownerID string) error {
	req, err := g.resolveUserCode(ctx, userCode)
	if err != nil {
		return err
	}

	if err := g.store.Transition(ctx, req.DeviceCode, StatePending, StateApproved, ownerID, g.now()); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrAlreadyResolved
		}
		return fmt.Errorf("approving device request: %w", err)
	}
	return nil
}

// Deny marks the request identified by userCode as refused by the human.
func (g *Grant) Deny(ctx context.Context, userCode string) error {
	req, err := g.resolveUserCode(ctx, userCode)
	if err != nil {
		return err
	}

	if err := g.store.Transition(ctx, req.DeviceCode, StatePending, StateDenied, "", g.now()); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrAlreadyResolved
		}
		return fmt.Errorf("denying device request: %w", err)
	}
	return nil
}

// resolveUserCode looks up a request for the approval surface, applying lazy
// expiry before any other evaluation.
func (g *Grant) resolveUserCode(ctx context.Context, userCode string) (*Request, error) {
	if err := validation.ValidateUserCode(userCode); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, err)
	}

	req, err := g.store.GetByUserCode(ctx, validation.Normalize(userCode))
	if err != nil {
		return nil, fmt.Errorf("getting device request: %w", err)
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if g.expired(req) {
		return nil, ErrExpired
	}
	if req.State != StatePending {
		return nil, ErrAlreadyResolved
	}
	return req, nil
}

// Poll answers a client's device code query. On an approved request it signs
// a credential and consumes the request in one conditional update; under
// concurrent polls exactly one caller receives the credential and the rest
// observe ErrConflict.
//
// Unknown device codes surface as ErrExpired so a caller can never learn
// whether a given device code ever existed.
func (g *Grant) Poll(ctx context.Context, deviceCode string) (string, error) {
	req, err := g.store.GetByDeviceCode(ctx, deviceCode)
	if err != nil {
		return "", fmt.Errorf("getting device request: %w", err)
	}
	if req == nil {
		return "", ErrExpired
	}

	now := g.now()
	if g.expired(req) {
		return "", ErrExpired
	}

	switch req.State {
	case StatePending, StateApproved:
		if now.Sub(req.LastPoll) < time.Duration(req.Interval)*time.Second {
			return "", ErrSlowDown
		}
		if err := g.store.UpdateLastPoll(ctx, deviceCode, now); err != nil {
			return "", fmt.Errorf("updating poll time: %w", err)
		}
	case StateDenied:
		return "", ErrDenied
	default:
		return "", ErrConflict
	}

	if req.State == StatePending {
		return "", ErrAuthorizationPending
	}

	// Sign before consuming: issuance is side-effect free, so a lost race
	// just discards the signed string and at most one credential escapes.
	token, err := g.issuer.Issue(req.OwnerID)
	if err != nil {
		return "", fmt.Errorf("issuing credential: %w", err)
	}

	if err := g.store.Transition(ctx, deviceCode, StateApproved, StateConsumed, "", now); err != nil {
		if errors.Is(err, ErrConflict) {
			return "", ErrConflict
		}
		return "", fmt.Errorf("consuming device request: %w", err)
	}

	return token, nil
}

// CheckHealth verifies the backing store is reachable.
func (g *Grant) CheckHealth(ctx context.Context) error {
	return g.store.CheckHealth(ctx)
}

// expired computes expiry lazily at read time, before any stored state is
// trusted.
func (g *Grant) expired(req *Request) bool {
	return !g.now().Before(req.ExpiresAt)
}
