package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgConn implements Conn on a pgx pool.
type PgConn struct {
	pool *pgxpool.Pool
}

func ConnectPostgres(ctx context.Context, dsn string) (*PgConn, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PgConn{pool: pool}, nil
}

func (c *PgConn) Driver() Driver { return DriverPostgres }

func (c *PgConn) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *PgConn) Close() error {
	c.pool.Close()
	return nil
}

func (c *PgConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return pgExec(ctx, c.pool, query, args...)
}

func (c *PgConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return pgQuery(ctx, c.pool, query, args...)
}

func (c *PgConn) QueryRow(ctx context.Context, query string, args ...any) Row {
	return c.pool.QueryRow(ctx, Rebind(query), args...)
}

func (c *PgConn) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(withTx(ctx, &pgTx{tx: tx})); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (c *PgConn) AdvisoryLock(ctx context.Context, key int64) error {
	ex, ok := txFromContext(ctx)
	if !ok {
		return errors.New("advisory lock requires a transaction")
	}
	if _, err := ex.Exec(ctx, `SELECT pg_advisory_xact_lock(?)`, key); err != nil {
		return fmt.Errorf("advisory lock %d: %w", key, err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return pgExec(ctx, t.tx, query, args...)
}

func (t *pgTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return pgQuery(ctx, t.tx, query, args...)
}

func (t *pgTx) QueryRow(ctx context.Context, query string, args ...any) Row {
	return t.tx.QueryRow(ctx, Rebind(query), args...)
}

// pgxExecQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxExecQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func pgExec(ctx context.Context, q pgxExecQuerier, query string, args ...any) (int64, error) {
	tag, err := q.Exec(ctx, Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func pgQuery(ctx context.Context, q pgxExecQuerier, query string, args ...any) (Rows, error) {
	rows, err := q.Query(ctx, Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return &pgRows{rows: rows}, nil
}

// pgRows adapts pgx.Rows, whose Close returns nothing.
type pgRows struct {
	rows pgx.Rows
}

func (r *pgRows) Next() bool             { return r.rows.Next() }
func (r *pgRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgRows) Err() error             { return r.rows.Err() }

func (r *pgRows) Close() error {
	r.rows.Close()
	return nil
}
