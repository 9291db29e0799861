package devicegrant

import "errors"

// Outcomes of device grant operations. Guard failures are typed values
// recovered by callers, never panics or generic failures.
var (
	// ErrNotFound indicates no request exists for the given user code.
	ErrNotFound = errors.New("device request not found")

	// ErrExpired indicates the request's lifetime has elapsed. Polls for
	// unknown device codes also surface this error so that a caller can
	// never learn whether a given device code ever existed.
	ErrExpired = errors.New("device request expired")

	// ErrDenied indicates the human declined the request.
	ErrDenied = errors.New("authorization denied")

	// ErrAuthorizationPending indicates the human has not yet acted.
	ErrAuthorizationPending = errors.New("authorization pending")

	// ErrSlowDown indicates the client polled before the advertised
	// interval elapsed and must back off.
	ErrSlowDown = errors.New("polling too frequently")

	// ErrConflict indicates a state transition guard failed: the request
	// was concurrently consumed, or is not in the state the transition
	// requires.
	ErrConflict = errors.New("conflicting device request state")

	// ErrAlreadyResolved indicates an approval or denial was attempted on
	// a request that is no longer pending.
	ErrAlreadyResolved = errors.New("device request already resolved")

	// ErrDuplicateUserCode indicates a freshly generated user code collides
	// with a live request. Generation retries on this.
	ErrDuplicateUserCode = errors.New("user code already in use")
)
