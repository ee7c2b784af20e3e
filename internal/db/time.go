package db

import (
	"fmt"
	"time"

	"github.com/hackgods/workshop-scheduler/internal/clock"
)

// TimeLayout is the text form of timestamps stored in SQLite. It sorts
// lexicographically in time order.
const TimeLayout = "2006-01-02T15:04:05"

var scanLayouts = []string{
	TimeLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02",
}

// Time converts t into the argument form the driver stores: time.Time for
// Postgres `timestamp` columns, fixed-width text for SQLite.
func (d Driver) Time(t time.Time) any {
	if d == DriverSQLite {
		return t.Format(TimeLayout)
	}
	return t
}

// NullableTime is Time for optional columns; nil maps to NULL.
func (d Driver) NullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return d.Time(*t)
}

// NullTime scans timestamp columns from either driver.
type NullTime struct {
	Time  time.Time
	Valid bool
}

func (n *NullTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		n.Time, n.Valid = time.Time{}, false
		return nil
	case time.Time:
		n.Time, n.Valid = clock.WallClock(v), true
		return nil
	case string:
		return n.parse(v)
	case []byte:
		return n.parse(string(v))
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
}

// Ptr returns nil for NULL.
func (n NullTime) Ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func (n *NullTime) parse(s string) error {
	for _, layout := range scanLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			n.Time, n.Valid = clock.WallClock(t), true
			return nil
		}
	}
	return fmt.Errorf("scan timestamp: unrecognised value %q", s)
}
