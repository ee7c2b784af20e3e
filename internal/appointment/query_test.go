package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/workshop-scheduler/internal/validation"
)

func TestCompileFilterDefaults(t *testing.T) {
	c, err := CompileFilter(Filter{}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, SortByStartTime, c.Sort)
	assert.False(t, c.Descending)
	assert.Zero(t, c.Limit)
	assert.Zero(t, c.Offset)
	assert.Nil(t, c.From)
	assert.Nil(t, c.To)
}

func TestCompileFilterPagination(t *testing.T) {
	cases := []struct {
		page, limit int
		wantLimit   int
		wantOffset  int
	}{
		{page: 0, limit: 10, wantLimit: 10, wantOffset: 0},
		{page: 1, limit: 10, wantLimit: 10, wantOffset: 0},
		{page: 3, limit: 10, wantLimit: 10, wantOffset: 20},
		{page: 4, limit: 0, wantLimit: 0, wantOffset: 0},
	}
	for _, tc := range cases {
		c, err := CompileFilter(Filter{Page: tc.page, Limit: tc.limit}, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, tc.wantLimit, c.Limit, "page %d limit %d", tc.page, tc.limit)
		assert.Equal(t, tc.wantOffset, c.Offset, "page %d limit %d", tc.page, tc.limit)
	}
}

func TestCompileFilterDatesAreInclusiveDays(t *testing.T) {
	c, err := CompileFilter(Filter{StartDate: "2025-06-10", EndDate: "2025-06-12"}, time.UTC)
	require.NoError(t, err)
	require.NotNil(t, c.From)
	require.NotNil(t, c.To)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), *c.From)
	assert.Equal(t, time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC), *c.To)
}

func TestCompileFilterSortAliases(t *testing.T) {
	c, err := CompileFilter(Filter{SortBy: "customerName", SortOrder: "DESC"}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, SortByCustomerName, c.Sort)
	assert.True(t, c.Descending)
}

func TestCompileFilterCollectsEveryProblem(t *testing.T) {
	_, err := CompileFilter(Filter{
		SortBy:          "price",
		SortOrder:       "sideways",
		BillingStatuses: []string{"refunded"},
		StartDate:       "yesterday",
		Limit:           -1,
	}, time.UTC)

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 5)
}
