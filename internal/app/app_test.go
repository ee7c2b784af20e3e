package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/workshop-scheduler/internal/appointment"
	"github.com/hackgods/workshop-scheduler/internal/config"
	"github.com/hackgods/workshop-scheduler/internal/staff"
)

func TestNewWiresSQLiteWithoutRedis(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		DatabaseURL: filepath.Join(t.TempDir(), "scheduler.db"),
		Location:    time.UTC,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := New(ctx, cfg, logger)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Redis)

	s, err := a.Staff.Create(ctx, staff.CreateInput{Name: "Ken"})
	require.NoError(t, err)

	d, err := a.Appointments.Create(ctx, appointment.CreateInput{
		CustomerName:     "Acme Co.",
		StaffID:          s.ID,
		StartTime:        "2030-01-01T09:00",
		BusinessCategory: "repair",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ken", d.StaffName)
}
