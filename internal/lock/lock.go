// Package lock serializes calendar writes per staff member so a conflict
// check and the write that follows it cannot interleave with another
// request for the same calendar.
package lock

import (
	"context"
	"errors"
)

var ErrNotAcquired = errors.New("staff calendar lock not acquired")

// Locker guards critical sections per staff member.
type Locker interface {
	WithStaffLock(ctx context.Context, staffID int64, fn func(ctx context.Context) error) error
}
