package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/workshop-scheduler/internal/clock"
)

const dateLayout = "2006-01-02"

// Layouts without an offset are read as business-local wall-clock time.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05.999999999",
}

// ParseTimestamp reads a form timestamp. Values carrying an offset are
// converted into loc before the zone is dropped.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		if loc != nil {
			t = t.In(loc)
		}
		return clock.WallClock(t), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return clock.WallClock(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a valid timestamp", s)
}

// ParseDate reads a calendar date. A full timestamp is accepted and
// truncated to its date.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := ParseTimestamp(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a valid date", s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
