package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"
)

// unicodeLower replaces SQLite's LOWER, which folds ASCII letters only, so
// SQL-side folding agrees with strings.ToLower.
const unicodeLower = "unicode_lower"

func init() {
	err := sqlite.RegisterDeterministicScalarFunction(unicodeLower, 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case nil:
				return nil, nil
			case string:
				return strings.ToLower(v), nil
			case []byte:
				return strings.ToLower(string(v)), nil
			default:
				return v, nil
			}
		})
	if err != nil {
		panic(fmt.Sprintf("register %s: %v", unicodeLower, err))
	}
}

// SQLiteConn implements Conn on a single-connection database/sql pool.
type SQLiteConn struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. Accepts plain
// paths, `sqlite://` and `file:` URLs, and ":memory:".
func OpenSQLite(ctx context.Context, path string) (*SQLiteConn, error) {
	path = strings.TrimPrefix(path, "sqlite://")
	if path == "" {
		path = "scheduler.db"
	}

	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
	}

	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One writer at a time; this also keeps ":memory:" databases alive and
	// makes every transaction exclusive.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteConn{db: sqlDB}, nil
}

func (c *SQLiteConn) Driver() Driver { return DriverSQLite }

func (c *SQLiteConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *SQLiteConn) Close() error {
	return c.db.Close()
}

func (c *SQLiteConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return sqlExec(ctx, c.db, query, args...)
}

func (c *SQLiteConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

func (c *SQLiteConn) QueryRow(ctx context.Context, query string, args ...any) Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

func (c *SQLiteConn) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(withTx(ctx, &sqlTx{tx: tx})); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// AdvisoryLock is a no-op: the pool holds a single connection, so a
// transaction already excludes every other writer.
func (c *SQLiteConn) AdvisoryLock(ctx context.Context, key int64) error {
	return nil
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return sqlExec(ctx, t.tx, query, args...)
}

func (t *sqlTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *sqlTx) QueryRow(ctx context.Context, query string, args ...any) Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func sqlExec(ctx context.Context, ex sqlExecer, query string, args ...any) (int64, error) {
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
