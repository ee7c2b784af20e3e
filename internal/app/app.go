// Package app wires the services shared by the server, the sync worker
// and the command-line tool.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/hackgods/workshop-scheduler/internal/appointment"
	"github.com/hackgods/workshop-scheduler/internal/clock"
	"github.com/hackgods/workshop-scheduler/internal/config"
	"github.com/hackgods/workshop-scheduler/internal/db"
	"github.com/hackgods/workshop-scheduler/internal/lock"
	"github.com/hackgods/workshop-scheduler/internal/masterdata"
	"github.com/hackgods/workshop-scheduler/internal/staff"
)

type App struct {
	Config       config.Config
	Logger       *slog.Logger
	DB           db.Conn
	Redis        *redis.Client // nil when REDIS_ADDR is unset
	Clock        *clock.Clock
	Appointments *appointment.Service
	Staff        *staff.Service
	MasterData   *masterdata.Service
}

// New opens the database (applying the schema) and, when configured, Redis.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Info("database ready", "driver", conn.Driver().String())

	a := &App{
		Config: cfg,
		Logger: logger,
		DB:     conn,
		Clock:  clock.New(cfg.Location),
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.RedisAddr != "" {
		rdb, err := lock.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.Redis = rdb
		locker = lock.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockWait)
		logger.Info("connected to Redis", "addr", cfg.RedisAddr)
	}

	repo := appointment.NewSQLRepository(conn)
	a.Staff = staff.NewService(staff.NewRepository(conn), repo, a.Clock, logger)
	a.Appointments = appointment.NewService(repo, a.Staff, locker, a.Clock, logger)
	a.MasterData = masterdata.NewService(conn, a.Clock, logger)
	return a, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("error closing redis", "error", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Warn("error closing database", "error", err)
	}
}
