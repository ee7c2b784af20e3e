package appointment

import (
	"context"
	"time"
)

// Repository is the appointment store. Every method joins a transaction
// carried by ctx.
type Repository interface {
	Insert(ctx context.Context, a *Appointment) (int64, error)
	Update(ctx context.Context, id int64, c Changes) error
	Delete(ctx context.Context, id int64) error
	GetDetail(ctx context.Context, id int64) (*Detail, error)

	// FindOverlapping returns appointments of staffID whose defined range
	// collides with [start, end], skipping excludeID when it is non-zero.
	FindOverlapping(ctx context.Context, staffID int64, start, end time.Time, excludeID int64) ([]Detail, error)
	Search(ctx context.Context, c Criteria) ([]Detail, error)
	Unsynced(ctx context.Context) ([]Detail, error)
	MonthlyStatistics(ctx context.Context, from, to time.Time) (*MonthlyStatistics, error)
	CountByStaff(ctx context.Context, staffID int64) (int64, error)

	InsertEvent(ctx context.Context, ev EventLog) error

	// InTx runs fn in one transaction.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LockStaff serialises writers of one staff calendar until the
	// surrounding transaction ends.
	LockStaff(ctx context.Context, staffID int64) error
}
