package devicegrant

import (
	"context"
	"time"
)

// Store persists device authorization requests. Implementations must make
// Transition a single atomic conditional update so that concurrent pollers,
// approval attempts, and expiry checks cannot interleave.
type Store interface {
	// Save stores a new request. It fails with ErrDuplicateUserCode if the
	// user code is already claimed by a live (non-terminal, unexpired)
	// request.
	Save(ctx context.Context, req *Request) error

	// GetByDeviceCode retrieves a request by device code. Returns
	// (nil, nil) when no record exists.
	GetByDeviceCode(ctx context.Context, deviceCode string) (*Request, error)

	// GetByUserCode retrieves a request by normalized user code. Returns
	// (nil, nil) when no record exists.
	GetByUserCode(ctx context.Context, userCode string) (*Request, error)

	// Transition applies a compare-and-swap state change: the stored
	// request must currently be in state from and must not have expired as
	// of now, otherwise ErrConflict is returned and nothing changes. When
	// ownerID is non-empty it is bound to the request as part of the same
	// update.
	Transition(ctx context.Context, deviceCode string, from, to State, ownerID string, now time.Time) error

	// UpdateLastPoll records the time of an accepted poll.
	UpdateLastPoll(ctx context.Context, deviceCode string, t time.Time) error

	// CheckHealth verifies the storage backend is reachable.
	CheckHealth(ctx context.Context) error
}
