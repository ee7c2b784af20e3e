package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/workshop-scheduler/internal/appointment"
	"github.com/hackgods/workshop-scheduler/internal/clock"
	"github.com/hackgods/workshop-scheduler/internal/db"
	"github.com/hackgods/workshop-scheduler/internal/masterdata"
	"github.com/hackgods/workshop-scheduler/internal/staff"
)

type RouterConfig struct {
	Appointments *appointment.Service
	Staff        *staff.Service
	MasterData   *masterdata.Service
	Clock        *clock.Clock
	DB           db.Conn
	Redis        *redis.Client // optional
	Logger       *slog.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	// Health endpoints
	health := NewHealthHandler(cfg.DB, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Appointment endpoints
	appts := cfg.Appointments
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(appts))
		r.Get("/", searchAppointmentsHandler(appts))
		r.Get("/range", dateRangeHandler(appts))
		r.Get("/today", todayHandler(appts))
		r.Get("/unsynced", unsyncedHandler(appts))
		r.Get("/statistics/monthly", monthlyStatisticsHandler(appts, cfg.Clock))
		r.Post("/conflicts", checkConflictHandler(appts))

		r.Get("/{id}", getAppointmentHandler(appts))
		r.Patch("/{id}", updateAppointmentHandler(appts))
		r.Delete("/{id}", deleteAppointmentHandler(appts))
		r.Post("/{id}/complete", completeAppointmentHandler(appts))
		r.Put("/{id}/billing-status", billingStatusHandler(appts))
		r.Post("/{id}/sync", markSyncedHandler(appts))
	})

	// Staff endpoints
	r.Route("/staff", func(r chi.Router) {
		r.Get("/", listStaffHandler(cfg.Staff))
		r.Post("/", createStaffHandler(cfg.Staff))
		r.Get("/{id}", getStaffHandler(cfg.Staff))
		r.Patch("/{id}", updateStaffHandler(cfg.Staff))
		r.Delete("/{id}", deleteStaffHandler(cfg.Staff))
		r.Put("/{id}/auth-status", staffAuthStatusHandler(cfg.Staff))
	})

	// Master data endpoints
	r.Route("/master/{kind}", func(r chi.Router) {
		r.Get("/", listEntriesHandler(cfg.MasterData))
		r.Post("/", createEntryHandler(cfg.MasterData))
		r.Patch("/{id}", updateEntryHandler(cfg.MasterData))
		r.Delete("/{id}", deleteEntryHandler(cfg.MasterData))
	})

	return r
}
