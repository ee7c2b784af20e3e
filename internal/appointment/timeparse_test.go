package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2025-06-10T09:00",
		"2025-06-10T09:00:00",
		"2025-06-10 09:00",
		" 2025-06-10 09:00:00 ",
		"2025-06-10T09:00:00.000",
	} {
		got, err := ParseTimestamp(in, time.UTC)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTimestamp("10/06/2025 9am", time.UTC)
	assert.Error(t, err)
	_, err = ParseTimestamp("", time.UTC)
	assert.Error(t, err)
}

func TestParseTimestampConvertsOffsetsToBusinessTime(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)

	got, err := ParseTimestamp("2025-06-10T00:00:00Z", tokyo)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC), got)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-06-10", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("2025-06-10T17:45", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("June 10", time.UTC)
	assert.Error(t, err)
}
