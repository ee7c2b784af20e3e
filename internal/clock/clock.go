// Package clock supplies "now" in the business timezone as a wall-clock
// reading, the form every stored timestamp uses.
package clock

import "time"

type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New returns a clock for loc; a nil loc means time.Local.
func New(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc, now: time.Now}
}

// Fixed returns a clock frozen at the wall-clock reading of t.
func Fixed(t time.Time) *Clock {
	return &Clock{loc: time.UTC, now: func() time.Time { return WallClock(t) }}
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now is the current wall-clock time, seconds precision.
func (c *Clock) Now() time.Time {
	return WallClock(c.now().In(c.loc))
}

// Today is midnight of the current day.
func (c *Clock) Today() time.Time {
	n := c.Now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// WallClock keeps the clock reading of t and drops its zone.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
