package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNowUsesBusinessZone(t *testing.T) {
	instant := time.Date(2025, 6, 10, 23, 30, 15, 500, time.UTC)
	c := &Clock{loc: time.FixedZone("UTC+2", 2*3600), now: func() time.Time { return instant }}

	assert.Equal(t, time.Date(2025, 6, 11, 1, 30, 15, 0, time.UTC), c.Now())
	assert.Equal(t, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC), c.Today())
}

func TestFixed(t *testing.T) {
	c := Fixed(time.Date(2025, 12, 31, 18, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), c.Today())
	assert.Equal(t, time.UTC, c.Location())
}
