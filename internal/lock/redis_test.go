package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T, wait time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(mr.Addr(), "", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLocker(client, 5*time.Second, wait)
	l.retry = 10 * time.Millisecond
	return l, mr
}

func TestRedisLockerHoldsAndReleasesKey(t *testing.T) {
	l, mr := newRedisLocker(t, 100*time.Millisecond)

	called := false
	err := l.WithStaffLock(context.Background(), 1, func(ctx context.Context) error {
		called = true
		assert.True(t, mr.Exists("lock:staff:1"))
		assert.Equal(t, 5*time.Second, mr.TTL("lock:staff:1"))
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, mr.Exists("lock:staff:1"))
}

func TestRedisLockerReturnsFnError(t *testing.T) {
	l, mr := newRedisLocker(t, 100*time.Millisecond)

	boom := errors.New("boom")
	err := l.WithStaffLock(context.Background(), 1, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("lock:staff:1"))
}

func TestRedisLockerBusyKeyNotAcquired(t *testing.T) {
	l, mr := newRedisLocker(t, 50*time.Millisecond)
	require.NoError(t, mr.Set("lock:staff:1", "other-holder"))

	called := false
	start := time.Now()
	err := l.WithStaffLock(context.Background(), 1, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.False(t, called)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	got, err := mr.Get("lock:staff:1")
	require.NoError(t, err)
	assert.Equal(t, "other-holder", got)

	// Other staff members are unaffected.
	require.NoError(t, l.WithStaffLock(context.Background(), 2, func(context.Context) error { return nil }))
}

func TestRedisLockerWaitsForRelease(t *testing.T) {
	l, mr := newRedisLocker(t, 2*time.Second)
	require.NoError(t, mr.Set("lock:staff:1", "other-holder"))

	go func() {
		time.Sleep(50 * time.Millisecond)
		mr.Del("lock:staff:1")
	}()

	called := false
	err := l.WithStaffLock(context.Background(), 1, func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRedisLockerWaitHonoursCancel(t *testing.T) {
	l, mr := newRedisLocker(t, 5*time.Second)
	require.NoError(t, mr.Set("lock:staff:1", "other-holder"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.WithStaffLock(ctx, 1, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisLockerReleaseKeepsForeignToken(t *testing.T) {
	l, mr := newRedisLocker(t, 100*time.Millisecond)

	// The key expires mid-call and another process takes it over.
	err := l.WithStaffLock(context.Background(), 1, func(context.Context) error {
		return mr.Set("lock:staff:1", "new-holder")
	})
	require.NoError(t, err)

	got, err := mr.Get("lock:staff:1")
	require.NoError(t, err)
	assert.Equal(t, "new-holder", got)
}

func TestRedisReleaseDirect(t *testing.T) {
	l, mr := newRedisLocker(t, 100*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, mr.Set("lock:staff:9", "mine"))
	require.NoError(t, l.release(ctx, "lock:staff:9", "not-mine"))
	assert.True(t, mr.Exists("lock:staff:9"))

	require.NoError(t, l.release(ctx, "lock:staff:9", "mine"))
	assert.False(t, mr.Exists("lock:staff:9"))

	// Releasing a missing key is not an error.
	require.NoError(t, l.release(ctx, "lock:staff:9", "mine"))
}

func TestNewRedisClientFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(addr, "", "")
	assert.Error(t, err)
}
