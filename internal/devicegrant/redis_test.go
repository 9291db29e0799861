package devicegrant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, clock *fakeClock) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, WithRedisClock(clock.Now))
}

func newRedisTestRequest(clock *fakeClock, deviceCode, userCode string) *Request {
	now := clock.Now()
	return &Request{
		DeviceCode: deviceCode,
		UserCode:   userCode,
		State:      StatePending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(10 * time.Minute),
		Interval:   5,
	}
}

func TestRedisStoreUserCodeClaim(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestRedisStore(t, clock)

	if err := store.Save(ctx, newRedisTestRequest(clock, "dc-1", "BCDFGHJK")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A live request holds its user code.
	if err := store.Save(ctx, newRedisTestRequest(clock, "dc-2", "BCDFGHJK")); !errors.Is(err, ErrDuplicateUserCode) {
		t.Fatalf("Save() duplicate error = %v, want ErrDuplicateUserCode", err)
	}

	// After expiry the code is reusable.
	clock.Advance(11 * time.Minute)
	if err := store.Save(ctx, newRedisTestRequest(clock, "dc-2", "BCDFGHJK")); err != nil {
		t.Fatalf("Save() after expiry error = %v", err)
	}

	got, err := store.GetByUserCode(ctx, "BCDFGHJK")
	if err != nil {
		t.Fatalf("GetByUserCode() error = %v", err)
	}
	if got == nil || got.DeviceCode != "dc-2" {
		t.Errorf("GetByUserCode() = %+v, want dc-2", got)
	}
}

func TestRedisStoreUserCodeFreedByTerminalState(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestRedisStore(t, clock)

	if err := store.Save(ctx, newRedisTestRequest(clock, "dc-1", "BCDFGHJK")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Transition(ctx, "dc-1", StatePending, StateDenied, "", clock.Now()); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}

	if err := store.Save(ctx, newRedisTestRequest(clock, "dc-2", "BCDFGHJK")); err != nil {
		t.Errorf("Save() after denial error = %v, want reuse allowed", err)
	}
}

func TestRedisStoreTransition(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestRedisStore(t, clock)

	if err := store.Save(ctx, newRedisTestRequest(clock, "dc-1", "BCDFGHJK")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	tests := []struct {
		name    string
		from    State
		to      State
		ownerID string
		wantErr error
	}{
		{name: "skip to consumed conflicts", from: StatePending, to: StateConsumed, wantErr: ErrConflict},
		{name: "pending to approved", from: StatePending, to: StateApproved, ownerID: "owner-1"},
		{name: "repeat approval conflicts", from: StatePending, to: StateApproved, ownerID: "owner-2", wantErr: ErrConflict},
		{name: "approved to consumed", from: StateApproved, to: StateConsumed},
		{name: "backward move conflicts", from: StateConsumed, to: StateApproved, wantErr: ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Transition(ctx, "dc-1", tt.from, tt.to, tt.ownerID, clock.Now())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Transition() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	got, err := store.GetByDeviceCode(ctx, "dc-1")
	if err != nil {
		t.Fatalf("GetByDeviceCode() error = %v", err)
	}
	if got.OwnerID != "owner-1" {
		t.Errorf("owner = %q, want owner-1 (losing transition must not rebind)", got.OwnerID)
	}
	if got.State != StateConsumed {
		t.Errorf("state = %q, want consumed", got.State)
	}
}

func TestRedisStoreTransitionExpiredGuard(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestRedisStore(t, clock)

	if err := store.Save(ctx, newRedisTestRequest(clock, "dc-1", "BCDFGHJK")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	late := clock.Now().Add(11 * time.Minute)
	if err := store.Transition(ctx, "dc-1", StatePending, StateApproved, "owner-1", late); !errors.Is(err, ErrConflict) {
		t.Errorf("Transition() past expiry error = %v, want ErrConflict", err)
	}
}

func TestRedisStoreUpdateLastPollLeavesStateAlone(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestRedisStore(t, clock)

	if err := store.Save(ctx, newRedisTestRequest(clock, "dc-1", "BCDFGHJK")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Transition(ctx, "dc-1", StatePending, StateApproved, "owner-1", clock.Now()); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}

	polled := clock.Now().Add(3 * time.Second)
	if err := store.UpdateLastPoll(ctx, "dc-1", polled); err != nil {
		t.Fatalf("UpdateLastPoll() error = %v", err)
	}

	got, err := store.GetByDeviceCode(ctx, "dc-1")
	if err != nil {
		t.Fatalf("GetByDeviceCode() error = %v", err)
	}
	if got.State != StateApproved || got.OwnerID != "owner-1" {
		t.Errorf("record = state %q owner %q after poll touch, want approved/owner-1", got.State, got.OwnerID)
	}
	if got.LastPoll.Unix() != polled.Unix() {
		t.Errorf("last poll = %v, want %v", got.LastPoll, polled)
	}

	// A poll touch after consumption must not resurrect the request.
	if err := store.Transition(ctx, "dc-1", StateApproved, StateConsumed, "", clock.Now()); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if err := store.UpdateLastPoll(ctx, "dc-1", polled.Add(time.Second)); err != nil {
		t.Fatalf("UpdateLastPoll() after consumption error = %v", err)
	}

	got, err = store.GetByDeviceCode(ctx, "dc-1")
	if err != nil {
		t.Fatalf("GetByDeviceCode() error = %v", err)
	}
	if got.State != StateConsumed {
		t.Errorf("state = %q after poll touch, want consumed", got.State)
	}
	if err := store.Transition(ctx, "dc-1", StateApproved, StateConsumed, "", clock.Now()); !errors.Is(err, ErrConflict) {
		t.Errorf("re-consumption error = %v, want ErrConflict", err)
	}
}

func TestRedisStoreUnknownCodes(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestRedisStore(t, clock)

	if got, err := store.GetByDeviceCode(ctx, "missing"); err != nil || got != nil {
		t.Errorf("GetByDeviceCode(missing) = %v, %v, want nil, nil", got, err)
	}
	if got, err := store.GetByUserCode(ctx, "missing"); err != nil || got != nil {
		t.Errorf("GetByUserCode(missing) = %v, %v, want nil, nil", got, err)
	}
	if err := store.Transition(ctx, "missing", StatePending, StateApproved, "", clock.Now()); !errors.Is(err, ErrConflict) {
		t.Errorf("Transition(missing) error = %v, want ErrConflict", err)
	}
	if err := store.UpdateLastPoll(ctx, "missing", clock.Now()); !errors.Is(err, ErrConflict) {
		t.Errorf("UpdateLastPoll(missing) error = %v, want ErrConflict", err)
	}
}
