package devicegrant

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// retentionGrace keeps expired records readable for a while so the approval
// surface can answer "expired" instead of "not found". User codes become
// reusable at expiry regardless.
const retentionGrace = time.Hour

// MemoryStore is an in-memory Store for single-node deployments and tests.
// Records are evicted by TTL; transitions are serialized by a mutex.
type MemoryStore struct {
	mu        sync.Mutex
	cache     *ttlcache.Cache[string, *Request]
	userCodes map[string]string // user code -> device code
	now       func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the time source, for tests.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a memory-backed store with automatic eviction.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		userCodes: make(map[string]string),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, *Request](),
	)
	s.cache.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, item *ttlcache.Item[string, *Request]) {
		s.mu.Lock()
		defer s.mu.Unlock()
		req := item.Value()
		if s.userCodes[req.UserCode] == req.DeviceCode {
			delete(s.userCodes, req.UserCode)
		}
	})
	go s.cache.Start()
	return s
}

// Close stops the eviction goroutine.
func (s *MemoryStore) Close() {
	s.cache.Stop()
}

// Save stores a new request, claiming its user code. A user code held by a
// live request cannot be claimed again until that request expires or reaches
// a terminal state.
func (s *MemoryStore) Save(_ context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if deviceCode, ok := s.userCodes[req.UserCode]; ok {
		if item := s.cache.Get(deviceCode); item != nil {
			existing := item.Value()
			if !existing.State.Terminal() && s.now().Before(existing.ExpiresAt) {
				return ErrDuplicateUserCode
			}
		}
	}

	stored := *req
	s.cache.Set(req.DeviceCode, &stored, time.Until(req.ExpiresAt)+retentionGrace)
	s.userCodes[req.UserCode] = req.DeviceCode
	return nil
}

// GetByDeviceCode retrieves a copy of the request for deviceCode.
func (s *MemoryStore) GetByDeviceCode(_ context.Context, deviceCode string) (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(deviceCode), nil
}

// GetByUserCode retrieves a copy of the request claimed by userCode.
func (s *MemoryStore) GetByUserCode(_ context.Context, userCode string) (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deviceCode, ok := s.userCodes[userCode]
	if !ok {
		return nil, nil
	}
	return s.getLocked(deviceCode), nil
}

// Transition applies the compare-and-swap state change under the store lock.
func (s *MemoryStore) Transition(_ context.Context, deviceCode string, from, to State, ownerID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !legalTransition(from, to) {
		return ErrConflict
	}

	item := s.cache.Get(deviceCode)
	if item == nil {
		return ErrConflict
	}

	req := item.Value()
	if req.State != from || !now.Before(req.ExpiresAt) {
		return ErrConflict
	}

	req.State = to
	if ownerID != "" {
		req.OwnerID = ownerID
	}
	return nil
}

// UpdateLastPoll records the time of an accepted poll.
func (s *MemoryStore) UpdateLastPoll(_ context.Context, deviceCode string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.cache.Get(deviceCode)
	if item == nil {
		return ErrConflict
	}
	item.Value().LastPoll = t
	return nil
}

// CheckHealth always succeeds for the in-process store.
func (s *MemoryStore) CheckHealth(_ context.Context) error {
	return nil
}

func (s *MemoryStore) getLocked(deviceCode string) *Request {
	item := s.cache.Get(deviceCode)
	if item == nil {
		return nil
	}
	copied := *item.Value()
	return &copied
}
