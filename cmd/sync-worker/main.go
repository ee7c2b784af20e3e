package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/workshop-scheduler/internal/app"
	"github.com/hackgods/workshop-scheduler/internal/calsync"
	"github.com/hackgods/workshop-scheduler/internal/config"
	"github.com/hackgods/workshop-scheduler/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New("sync-worker", cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("sync-worker starting up", "env", cfg.Env, "interval", cfg.SyncInterval)

	if !cfg.CalDAV.Enabled() {
		logger.Error("CALDAV_URL and CALDAV_CALENDAR_PATH are required")
		os.Exit(1)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancelOpen := context.WithTimeout(rootCtx, 10*time.Second)
	a, err := app.New(openCtx, cfg, logger)
	cancelOpen()
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	pusher, err := calsync.NewCalDAVPusher(calsync.CalDAVConfig{
		BaseURL:      cfg.CalDAV.URL,
		Username:     cfg.CalDAV.Username,
		Password:     cfg.CalDAV.Password,
		CalendarPath: cfg.CalDAV.CalendarPath,
		Location:     cfg.Location,
	}, logger)
	if err != nil {
		logger.Error("caldav setup failed", "error", err)
		os.Exit(1)
	}

	calsync.NewWorker(a.Appointments, pusher, logger).Run(rootCtx, cfg.SyncInterval)
}
