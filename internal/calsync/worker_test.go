package calsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/workshop-scheduler/internal/appointment"
	"github.com/hackgods/workshop-scheduler/internal/clock"
	"github.com/hackgods/workshop-scheduler/internal/db/dbtest"
	"github.com/hackgods/workshop-scheduler/internal/lock"
	"github.com/hackgods/workshop-scheduler/internal/staff"
)

type fakePusher struct {
	mu     sync.Mutex
	fail   map[int64]bool
	pushed []int64
}

func (p *fakePusher) Push(_ context.Context, appt appointment.Detail) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[appt.ID] {
		return "", errors.New("calendar unavailable")
	}
	p.pushed = append(p.pushed, appt.ID)
	return fmt.Sprintf("/cal/appointment-%d.ics", appt.ID), nil
}

func newServices(t *testing.T) (*appointment.Service, *staff.Service) {
	t.Helper()
	conn := dbtest.Open(t)
	clk := clock.Fixed(time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC))

	repo := appointment.NewSQLRepository(conn)
	staffSvc := staff.NewService(staff.NewRepository(conn), repo, clk, nil)
	return appointment.NewService(repo, staffSvc, lock.NewLocalLocker(), clk, nil), staffSvc
}

func TestWorkerRunOnce(t *testing.T) {
	ctx := context.Background()
	appts, staffSvc := newServices(t)

	ken, err := staffSvc.Create(ctx, staff.CreateInput{Name: "Ken"})
	require.NoError(t, err)
	_, err = staffSvc.SetAuthStatus(ctx, ken.ID, staff.AuthAuthorized)
	require.NoError(t, err)
	mia, err := staffSvc.Create(ctx, staff.CreateInput{Name: "Mia"})
	require.NoError(t, err)

	create := func(staffID int64, start string) *appointment.Detail {
		d, err := appts.Create(ctx, appointment.CreateInput{
			CustomerName:     "Walk-in",
			StaffID:          staffID,
			StartTime:        start,
			BusinessCategory: "repair",
		})
		require.NoError(t, err)
		return d
	}
	first := create(ken.ID, "2025-06-10T09:00")
	second := create(ken.ID, "2025-06-11T09:00")
	create(mia.ID, "2025-06-10T09:00")

	pusher := &fakePusher{fail: map[int64]bool{second.ID: true}}
	w := NewWorker(appts, pusher, nil)

	res, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Pushed: 1, Failed: 1}, res)
	assert.Equal(t, []int64{first.ID}, pusher.pushed)

	got, err := appts.Get(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ExternalEventID)
	assert.Equal(t, fmt.Sprintf("/cal/appointment-%d.ics", first.ID), *got.ExternalEventID)

	// The failed one is retried on the next run.
	delete(pusher.fail, second.ID)
	res, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Pushed: 1}, res)

	res, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	appts, _ := newServices(t)
	w := NewWorker(appts, &fakePusher{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
