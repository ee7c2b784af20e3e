package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func setupEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "schedctl.db"))
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("TIMEZONE", "UTC")
}

func TestMigrateAndEmptyReports(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date (sqlite)")

	out, err = run(t, "today")
	require.NoError(t, err)
	assert.Contains(t, out, "0 appointment(s)")

	out, err = run(t, "stats", "--year", "2025", "--month", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-06")
	assert.Contains(t, out, "total:     0")
}

func TestCheckCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "check", "--staff", "1", "--start", "2025-06-10T09:00", "--end", "2025-06-10T10:00")
	require.NoError(t, err)
	assert.Contains(t, out, "no conflicts")

	_, err = run(t, "check", "--staff", "1", "--start", "2025-06-10T10:00", "--end", "2025-06-10T09:00")
	assert.Error(t, err)
}

func TestStatsRejectsBadMonth(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "stats", "--year", "2025", "--month", "13")
	assert.Error(t, err)
}
