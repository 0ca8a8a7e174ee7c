// Package lock serialises booking attempts for the same (room, date,
// slot) across server instances with a short-lived Redis key.  The lock
// only narrows the race window; the unique index on active reservations
// stays the authority on whether a slot is free.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the key stayed held for the whole wait.
var ErrNotAcquired = errors.New("lock: not acquired")

// releaseScript deletes the key only when it still holds our token so an
// expired lock taken over by another request is never released by us.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// SlotLocker takes per-slot locks in Redis.
type SlotLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

// NewSlotLocker returns a locker whose keys expire after ttl and whose
// Acquire gives up after wait.  A nil client yields nil, which callers
// treat as "no locking".
func NewSlotLocker(rdb *redis.Client, ttl, wait time.Duration) *SlotLocker {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if wait < 0 {
		wait = 0
	}
	return &SlotLocker{rdb: rdb, prefix: "lock:slot:", ttl: ttl, wait: wait, retry: 25 * time.Millisecond}
}

// SlotKey builds the lock key for a room, date and slot.
func SlotKey(building, room, date string, slotID int) string {
	return fmt.Sprintf("%s|%s|%s|%d", building, room, date, slotID)
}

// Acquire takes the lock for key, polling until it is free or the wait
// elapses.  The returned release func is safe to call once.
func (l *SlotLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	full := l.prefix + key
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.rdb.SetNX(ctx, full, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// Release must survive request cancellation.
				rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				_ = releaseScript.Run(rctx, l.rdb, []string{full}, token).Err()
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNotAcquired
		}
		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
