package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", "2025-06-10T"+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name           string
		es, ee, cs, ce string
		want           bool
	}{
		{"touching after", "09:00", "10:00", "10:00", "11:00", false},
		{"touching before", "10:00", "11:00", "09:00", "10:00", false},
		{"partial tail", "10:00", "11:00", "10:30", "11:30", true},
		{"partial head", "10:30", "11:30", "10:00", "11:00", true},
		{"candidate inside", "09:00", "12:00", "10:00", "11:00", true},
		{"existing inside", "10:15", "10:45", "10:00", "11:00", true},
		{"identical", "10:00", "11:00", "10:00", "11:00", true},
		{"disjoint", "08:00", "09:00", "10:00", "11:00", false},
		{"zero length candidate at existing end", "09:00", "10:00", "10:00", "10:00", true},
		{"zero length existing at candidate start", "10:00", "10:00", "10:00", "11:00", true},
		{"zero length existing at candidate end", "11:00", "11:00", "10:00", "11:00", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(at(tc.es), at(tc.ee), at(tc.cs), at(tc.ce))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOverlapsSymmetricForPositiveRanges(t *testing.T) {
	r1s, r1e := at("10:00"), at("11:00")
	r2s, r2e := at("10:30"), at("11:30")
	assert.True(t, Overlaps(r2s, r2e, r1s, r1e))
	assert.True(t, Overlaps(r1s, r1e, r2s, r2e))
}

// For ranges of positive length the three clauses reduce to the usual
// half-open test; only zero-length ranges differ.
func TestOverlapsMatchesHalfOpenForPositiveRanges(t *testing.T) {
	base := at("08:00")
	slot := func(i int) time.Time { return base.Add(time.Duration(i) * 15 * time.Minute) }

	for es := 0; es < 8; es++ {
		for ee := es + 1; ee <= 8; ee++ {
			for cs := 0; cs < 8; cs++ {
				for ce := cs + 1; ce <= 8; ce++ {
					halfOpen := slot(es).Before(slot(ce)) && slot(ee).After(slot(cs))
					assert.Equal(t, halfOpen, Overlaps(slot(es), slot(ee), slot(cs), slot(ce)),
						"existing [%d,%d) candidate [%d,%d)", es, ee, cs, ce)
				}
			}
		}
	}
}
