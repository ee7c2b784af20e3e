package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	var c Collector
	assert.True(t, c.Empty())
	assert.NoError(t, c.Err())

	c.Require("customer name", "  ")
	c.Require("business category", "repair")
	c.Addf("end time %q is not a valid timestamp", "later")

	err := c.Err()
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{
		"customer name is required",
		`end time "later" is not a valid timestamp`,
	}, verr.Problems)
	assert.Equal(t, `validation failed: customer name is required; end time "later" is not a valid timestamp`, err.Error())
}
