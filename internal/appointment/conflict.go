package appointment

import (
	"context"
	"fmt"
	"time"
)

// ConflictDetector finds appointments of one staff member whose time range
// collides with a candidate range.
type ConflictDetector struct {
	repo Repository
}

func NewConflictDetector(repo Repository) *ConflictDetector {
	return &ConflictDetector{repo: repo}
}

// Check is read-only. excludeID skips the appointment being edited; pass 0
// when creating.
func (d *ConflictDetector) Check(ctx context.Context, staffID int64, start, end time.Time, excludeID int64) (*ConflictResult, error) {
	conflicts, err := d.repo.FindOverlapping(ctx, staffID, start, end, excludeID)
	if err != nil {
		return nil, fmt.Errorf("check conflicts: %w", err)
	}
	return &ConflictResult{
		HasConflict: len(conflicts) > 0,
		Conflicts:   conflicts,
	}, nil
}
