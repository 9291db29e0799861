package devicegrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	deviceKeyPrefix = "devicereq:"
	userKeyPrefix   = "usercode:"
)

// claimUserCodeScript atomically claims a user code unless it is held by a
// live request. Returns 1 on success, 0 on collision.
var claimUserCodeScript = redis.NewScript(`
local existing = redis.call("GET", KEYS[1])
if existing then
  local rec = redis.call("GET", ARGV[4] .. existing)
  if rec then
    local r = cjson.decode(rec)
    if (r.state == "pending" or r.state == "approved") and tonumber(r.expires_at) > tonumber(ARGV[2]) then
      return 0
    end
  end
end
redis.call("SET", KEYS[1], ARGV[1], "EX", ARGV[3])
return 1
`)

// touchPollScript rewrites only the last_poll field. The rest of the record
// is never round-tripped through the client, so a concurrent Transition can
// not be rolled back by a stale read.
// Returns 1 on success, 0 when no record exists.
var touchPollScript = redis.NewScript(`
local rec = redis.call("GET", KEYS[1])
if not rec then return 0 end
local r = cjson.decode(rec)
r.last_poll = tonumber(ARGV[1])
redis.call("SET", KEYS[1], cjson.encode(r), "KEEPTTL")
return 1
`)

// transitionScript is the compare-and-swap state change: the stored request
// must be in the expected state and unexpired, otherwise nothing changes.
// Returns 1 on success, 0 on guard failure.
var transitionScript = redis.NewScript(`
local rec = redis.call("GET", KEYS[1])
if not rec then return 0 end
local r = cjson.decode(rec)
if r.state ~= ARGV[1] then return 0 end
if tonumber(r.expires_at) <= tonumber(ARGV[4]) then return 0 end
r.state = ARGV[2]
if ARGV[3] ~= "" then r.owner_id = ARGV[3] end
redis.call("SET", KEYS[1], cjson.encode(r), "KEEPTTL")
return 1
`)

// redisRequest is the stored record shape. Timestamps are unix seconds so
// the transition script can compare them.
type redisRequest struct {
	DeviceCode string `json:"device_code"`
	UserCode   string `json:"user_code"`
	State      string `json:"state"`
	OwnerID    string `json:"owner_id,omitempty"`
	CreatedAt  int64  `json:"created_at"`
	ExpiresAt  int64  `json:"expires_at"`
	Interval   int    `json:"interval"`
	LastPoll   int64  `json:"last_poll"`
}

func toRedisRequest(req *Request) *redisRequest {
	return &redisRequest{
		DeviceCode: req.DeviceCode,
		UserCode:   req.UserCode,
		State:      string(req.State),
		OwnerID:    req.OwnerID,
		CreatedAt:  req.CreatedAt.Unix(),
		ExpiresAt:  req.ExpiresAt.Unix(),
		Interval:   req.Interval,
		LastPoll:   req.LastPoll.Unix(),
	}
}

func (r *redisRequest) toRequest() *Request {
	return &Request{
		DeviceCode: r.DeviceCode,
		UserCode:   r.UserCode,
		State:      State(r.State),
		OwnerID:    r.OwnerID,
		CreatedAt:  time.Unix(r.CreatedAt, 0),
		ExpiresAt:  time.Unix(r.ExpiresAt, 0),
		Interval:   r.Interval,
		LastPoll:   time.Unix(r.LastPoll, 0),
	}
}

// RedisStore implements Store on Redis. Record TTLs include a grace period
// past expiry so the approval surface can report "expired" rather than
// "not found"; once Redis reaps a record the two are indistinguishable,
// which the polling surface requires anyway.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisClock overrides the time source, for tests.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		s.now = now
	}
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckHealth verifies Redis connectivity.
func (s *RedisStore) CheckHealth(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Save stores a new request after atomically claiming its user code.
func (s *RedisStore) Save(ctx context.Context, req *Request) error {
	now := s.now()
	ttl := req.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return errors.New("request has already expired")
	}

	claimed, err := claimUserCodeScript.Run(ctx, s.client,
		[]string{userKeyPrefix + req.UserCode},
		req.DeviceCode,
		now.Unix(),
		int((ttl + retentionGrace).Seconds()),
		deviceKeyPrefix,
	).Int()
	if err != nil {
		return fmt.Errorf("claiming user code: %w", err)
	}
	if claimed == 0 {
		return ErrDuplicateUserCode
	}

	data, err := json.Marshal(toRedisRequest(req))
	if err != nil {
		return fmt.Errorf("marshaling device request: %w", err)
	}

	if err := s.client.Set(ctx, deviceKeyPrefix+req.DeviceCode, data, ttl+retentionGrace).Err(); err != nil {
		return fmt.Errorf("saving device request: %w", err)
	}
	return nil
}

// GetByDeviceCode retrieves a request by device code.
func (s *RedisStore) GetByDeviceCode(ctx context.Context, deviceCode string) (*Request, error) {
	return s.get(ctx, deviceKeyPrefix+deviceCode)
}

// GetByUserCode retrieves a request through the user code reference.
func (s *RedisStore) GetByUserCode(ctx context.Context, userCode string) (*Request, error) {
	deviceCode, err := s.client.Get(ctx, userKeyPrefix+userCode).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting user code reference: %w", err)
	}
	return s.GetByDeviceCode(ctx, deviceCode)
}

// Transition applies the compare-and-swap state change in a single script
// evaluation.
func (s *RedisStore) Transition(ctx context.Context, deviceCode string, from, to State, ownerID string, now time.Time) error {
	if !legalTransition(from, to) {
		return ErrConflict
	}

	ok, err := transitionScript.Run(ctx, s.client,
		[]string{deviceKeyPrefix + deviceCode},
		string(from),
		string(to),
		ownerID,
		now.Unix(),
	).Int()
	if err != nil {
		return fmt.Errorf("transitioning device request: %w", err)
	}
	if ok == 0 {
		return ErrConflict
	}
	return nil
}

// UpdateLastPoll records the time of an accepted poll. The script touches
// only the last_poll field so state and owner survive concurrent transitions.
func (s *RedisStore) UpdateLastPoll(ctx context.Context, deviceCode string, t time.Time) error {
	ok, err := touchPollScript.Run(ctx, s.client,
		[]string{deviceKeyPrefix + deviceCode},
		t.Unix(),
	).Int()
	if err != nil {
		return fmt.Errorf("updating poll time: %w", err)
	}
	if ok == 0 {
		return ErrConflict
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, key string) (*Request, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting device request: %w", err)
	}

	var stored redisRequest
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("unmarshaling device request: %w", err)
	}
	return stored.toRequest(), nil
}
