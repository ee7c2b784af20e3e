// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hackgods/workshop-scheduler/internal/db"
)

// Open returns an in-memory SQLite database with the schema applied. It is
// closed when the test ends.
func Open(t *testing.T) db.Conn {
	t.Helper()

	conn, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err, "open in-memory sqlite")

	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}
