// Package db is the storage access layer shared by every repository.
// Queries are written once with `?` placeholders and run unchanged on
// either Postgres or SQLite.
package db

import (
	"context"
	"strings"
)

// Driver identifies the database backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string {
	return string(d)
}

// Lower folds expr to lower case in SQL with the same Unicode rules as
// strings.ToLower.
func (d Driver) Lower(expr string) string {
	if d == DriverSQLite {
		return unicodeLower + "(" + expr + ")"
	}
	return "LOWER(" + expr + ")"
}

// DetectDriver picks a backend from a connection string. An empty URL means
// the local SQLite file.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "sqlite://"),
		strings.HasPrefix(url, "file:"),
		url == ":memory:",
		strings.HasSuffix(url, ".db"),
		strings.HasSuffix(url, ".sqlite"),
		strings.HasSuffix(url, ".sqlite3"):
		return DriverSQLite
	default:
		return DriverPostgres
	}
}

// Row abstracts pgx.Row and *sql.Row.
type Row interface {
	Scan(dest ...any) error
}

// Rows abstracts pgx.Rows and *sql.Rows.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Executor runs statements. Implementations rebind `?` placeholders as the
// driver requires.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
}

// Conn is an open database.
type Conn interface {
	Executor

	Driver() Driver
	Ping(ctx context.Context) error

	// InTx runs fn inside a transaction carried by the context passed to fn.
	// Calls nested inside an existing transaction join it.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	// AdvisoryLock takes a transaction-scoped lock on key. It must be called
	// inside InTx.
	AdvisoryLock(ctx context.Context, key int64) error

	Close() error
}

type txKey struct{}

func withTx(ctx context.Context, ex Executor) context.Context {
	return context.WithValue(ctx, txKey{}, ex)
}

func txFromContext(ctx context.Context) (Executor, bool) {
	ex, ok := ctx.Value(txKey{}).(Executor)
	return ex, ok && ex != nil
}

// From returns the transaction stored in ctx, or conn when there is none.
// Repositories call it for every statement so they work the same inside and
// outside InTx.
func From(ctx context.Context, conn Conn) Executor {
	if ex, ok := txFromContext(ctx); ok {
		return ex
	}
	return conn
}

// InTransaction reports whether ctx carries a transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := txFromContext(ctx)
	return ok
}
