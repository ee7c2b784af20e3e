package lock

import (
	"context"
	"sync"
)

// LocalLocker serializes within one process. It is the locker for the
// single-process SQLite deployment.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[int64]*slot)}
}

// WithStaffLock waits for the staff member's slot or for ctx to end.
func (l *LocalLocker) WithStaffLock(ctx context.Context, staffID int64, fn func(ctx context.Context) error) error {
	s := l.acquireRef(staffID)
	defer l.releaseRef(staffID, s)

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.ch }()

	return fn(ctx)
}

func (l *LocalLocker) acquireRef(staffID int64) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[staffID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[staffID] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) releaseRef(staffID int64, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, staffID)
	}
}
