package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hackgods/workshop-scheduler/internal/api"
	"github.com/hackgods/workshop-scheduler/internal/app"
	"github.com/hackgods/workshop-scheduler/internal/config"
	"github.com/hackgods/workshop-scheduler/internal/logging"
	"github.com/hackgods/workshop-scheduler/internal/telemetry"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New("api-server", cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("api-server starting up", "env", cfg.Env, "http_port", cfg.HTTPPort, "timezone", cfg.Location.String())

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(rootCtx, "workshop-scheduler", logger)

	openCtx, cancelOpen := context.WithTimeout(rootCtx, 10*time.Second)
	a, err := app.New(openCtx, cfg, logger)
	cancelOpen()
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	router := api.NewRouter(api.RouterConfig{
		Appointments: a.Appointments,
		Staff:        a.Staff,
		MasterData:   a.MasterData,
		Clock:        a.Clock,
		DB:           a.DB,
		Redis:        a.Redis,
		Logger:       logger,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           otelhttp.NewHandler(router, "workshop-scheduler"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutting down api-server")
	case err := <-serveErr:
		if err != nil {
			logger.Error("http server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown error", "error", err)
	}
}
