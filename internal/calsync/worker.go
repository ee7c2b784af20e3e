// Package calsync pushes appointments of calendar-authorised staff to an
// external calendar and records the returned reference.
package calsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hackgods/workshop-scheduler/internal/appointment"
)

// Pusher publishes one appointment and returns the reference to store.
type Pusher interface {
	Push(ctx context.Context, appt appointment.Detail) (string, error)
}

// Appointments is the part of the appointment service the worker drives.
type Appointments interface {
	GetUnsynced(ctx context.Context) ([]appointment.Detail, error)
	MarkSynced(ctx context.Context, id int64, externalEventID string) (*appointment.Detail, error)
}

type Result struct {
	Pushed int
	Failed int
}

type Worker struct {
	appointments Appointments
	pusher       Pusher
	logger       *slog.Logger
	runTimeout   time.Duration
}

func NewWorker(appointments Appointments, pusher Pusher, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		appointments: appointments,
		pusher:       pusher,
		logger:       logger,
		runTimeout:   time.Minute,
	}
}

// RunOnce pushes every unsynced appointment. A failed push is logged and
// counted; it does not stop the run.
func (w *Worker) RunOnce(ctx context.Context) (Result, error) {
	var res Result

	pending, err := w.appointments.GetUnsynced(ctx)
	if err != nil {
		return res, fmt.Errorf("load unsynced appointments: %w", err)
	}

	for _, appt := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		ref, err := w.pusher.Push(ctx, appt)
		if err != nil {
			w.logger.Warn("calendar push failed", "appointment_id", appt.ID, "error", err)
			res.Failed++
			continue
		}
		if _, err := w.appointments.MarkSynced(ctx, appt.ID, ref); err != nil {
			w.logger.Error("mark synced failed", "appointment_id", appt.ID, "ref", ref, "error", err)
			res.Failed++
			continue
		}
		res.Pushed++
	}
	return res, nil
}

// Run calls RunOnce at startup and then every interval until ctx is done.
func (w *Worker) Run(ctx context.Context, interval time.Duration) {
	w.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutdown signal received, stopping sync worker")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.runTimeout)
	defer cancel()

	start := time.Now()
	res, err := w.RunOnce(runCtx)
	if err != nil {
		w.logger.Error("sync run error", "error", err, "pushed", res.Pushed, "failed", res.Failed)
		return
	}
	w.logger.Info("sync run complete",
		"pushed", res.Pushed, "failed", res.Failed, "duration", time.Since(start))
}
