package db

import (
	"context"
	"embed"
	"fmt"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the schema for the connection's driver. Every statement
// is idempotent, so it runs on each start.
func Migrate(ctx context.Context, conn Conn) error {
	name := fmt.Sprintf("migrations/%s.sql", conn.Driver())
	schema, err := migrations.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	if _, err := conn.Exec(ctx, string(schema)); err != nil {
		return fmt.Errorf("apply %s: %w", name, err)
	}
	return nil
}

// Open connects to url (see DetectDriver) and applies the schema.
func Open(ctx context.Context, url string) (Conn, error) {
	var (
		conn Conn
		err  error
	)
	switch DetectDriver(url) {
	case DriverPostgres:
		conn, err = ConnectPostgres(ctx, url)
	default:
		conn, err = OpenSQLite(ctx, url)
	}
	if err != nil {
		return nil, err
	}

	if err := Migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}
