package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesSameStaff(t *testing.T) {
	l := NewLocalLocker()

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithStaffLock(context.Background(), 1, func(ctx context.Context) error {
				n := inside.Add(1)
				if n > maxSeen.Load() {
					maxSeen.Store(n)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
	assert.Empty(t, l.slots, "idle slots are dropped")
}

func TestLocalLockerIndependentStaff(t *testing.T) {
	l := NewLocalLocker()

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = l.WithStaffLock(context.Background(), 1, func(ctx context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	done := make(chan error, 1)
	go func() {
		done <- l.WithStaffLock(context.Background(), 2, func(ctx context.Context) error { return nil })
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("lock for staff 2 blocked behind staff 1")
	}
	close(release)
}

func TestLocalLockerHonoursCancellation(t *testing.T) {
	l := NewLocalLocker()

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = l.WithStaffLock(context.Background(), 1, func(ctx context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := l.WithStaffLock(ctx, 1, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
}
