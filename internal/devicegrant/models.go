package devicegrant

import "time"

// State tracks a device authorization request through its lifecycle.
// Transitions are monotonic: a request never moves backward, and only
// Approved has a further legal move (to Consumed).
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateDenied   State = "denied"
	StateExpired  State = "expired"
	StateConsumed State = "consumed"
)

// Terminal reports whether no approval or denial can follow this state.
func (s State) Terminal() bool {
	switch s {
	case StateDenied, StateExpired, StateConsumed:
		return true
	}
	return false
}

// legalTransition reports whether a request may move between the two states.
// Pending resolves to Approved or Denied, Approved is consumed, and nothing
// else moves; in particular no state ever moves backward.
func legalTransition(from, to State) bool {
	switch {
	case from == StatePending && (to == StateApproved || to == StateDenied):
		return true
	case from == StateApproved && to == StateConsumed:
		return true
	}
	return false
}

// Request is a device authorization request record. The device code is a
// high-entropy secret known only to the polling client; the user code is the
// short form the human enters in their browser. OwnerID is empty until the
// request is approved.
type Request struct {
	DeviceCode string    `json:"device_code"`
	UserCode   string    `json:"user_code"`
	State      State     `json:"state"`
	OwnerID    string    `json:"owner_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Interval   int       `json:"interval"`
	LastPoll   time.Time `json:"last_poll"`
}

// Authorization is what the polling client receives when it starts a flow,
// mirroring the RFC 8628 section 3.2 response shape.
type Authorization struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval"`
}
