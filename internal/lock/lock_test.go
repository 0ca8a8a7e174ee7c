package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocker(t *testing.T, ttl, wait time.Duration) (*SlotLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSlotLocker(rdb, ttl, wait), mr
}

func TestNewSlotLockerNilClient(t *testing.T) {
	assert.Nil(t, NewSlotLocker(nil, time.Second, time.Second))
}

func TestAcquireAndRelease(t *testing.T) {
	l, mr := newLocker(t, 5*time.Second, 0)
	ctx := context.Background()
	key := SlotKey("B1", "A", "2025-03-10", 3)

	release, err := l.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:slot:"+key))

	_, err = l.Acquire(ctx, key)
	assert.ErrorIs(t, err, ErrNotAcquired)

	release()
	assert.False(t, mr.Exists("lock:slot:"+key))

	release2, err := l.Acquire(ctx, key)
	require.NoError(t, err)
	release2()
}

func TestAcquireWaitsForRelease(t *testing.T) {
	l, _ := newLocker(t, 5*time.Second, 2*time.Second)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	go func() {
		time.Sleep(100 * time.Millisecond)
		release()
	}()

	release2, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	release2()
}

func TestReleaseDoesNotDropForeignLock(t *testing.T) {
	l, mr := newLocker(t, time.Second, 0)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	// The lock expired and someone else took it.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("lock:slot:k", "other-token"))

	release()
	got, err := mr.Get("lock:slot:k")
	require.NoError(t, err)
	assert.Equal(t, "other-token", got)
}
