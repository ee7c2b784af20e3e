// Package crud holds the single-table storage operations every entity
// shares. Entity repositories embed a Repository by value and add their
// own queries next to it.
package crud

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/workshop-scheduler/internal/db"
)

var ErrNotFound = errors.New("record not found")

// Field is one column assignment for Insert and UpdateByID.
type Field struct {
	Column string
	Value  any
}

type Fields []Field

// Set appends a column assignment.
func (f Fields) Set(column string, value any) Fields {
	return append(f, Field{Column: column, Value: value})
}

// Table describes how an entity maps onto SQL.
type Table[T any] struct {
	// Name is the table written by Insert, UpdateByID and DeleteByID.
	Name string
	// From is the read source; defaults to Name. It may hold joins.
	From string
	// IDColumn is the primary key as referenced in From; defaults to "id".
	IDColumn string
	// Columns are selected in order and handed to Scan.
	Columns []string
	Scan    func(row db.Row) (T, error)
	// SoftDelete filters rows with deleted_at set out of every read.
	SoftDelete bool
	// DeletedColumn is deleted_at as referenced in From.
	DeletedColumn string
}

type Repository[T any] struct {
	conn  db.Conn
	table Table[T]
}

func New[T any](conn db.Conn, table Table[T]) Repository[T] {
	if table.From == "" {
		table.From = table.Name
	}
	if table.IDColumn == "" {
		table.IDColumn = "id"
	}
	if table.DeletedColumn == "" {
		table.DeletedColumn = "deleted_at"
	}
	return Repository[T]{conn: conn, table: table}
}

func (r Repository[T]) Conn() db.Conn {
	return r.conn
}

// Insert writes a row and returns its generated id.
func (r Repository[T]) Insert(ctx context.Context, fields Fields) (int64, error) {
	if len(fields) == 0 {
		return 0, errors.New("insert: no fields")
	}

	cols := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
		args[i] = f.Value
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		r.table.Name, strings.Join(cols, ", "), db.Placeholders(len(fields)))

	var id int64
	if err := db.From(ctx, r.conn).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateByID assigns fields on one row and reports the affected count.
func (r Repository[T]) UpdateByID(ctx context.Context, id int64, fields Fields) (int64, error) {
	if len(fields) == 0 {
		return 0, errors.New("update: no fields")
	}

	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		sets[i] = f.Column + " = ?"
		args = append(args, f.Value)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", r.table.Name, strings.Join(sets, ", "))
	if r.table.SoftDelete {
		query += " AND deleted_at IS NULL"
	}
	return db.From(ctx, r.conn).Exec(ctx, query, args...)
}

// DeleteByID removes one row.
func (r Repository[T]) DeleteByID(ctx context.Context, id int64) (int64, error) {
	return db.From(ctx, r.conn).Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.table.Name), id)
}

// SoftDeleteByID stamps deleted_at on a live row.
func (r Repository[T]) SoftDeleteByID(ctx context.Context, id int64, at time.Time) (int64, error) {
	return db.From(ctx, r.conn).Exec(ctx,
		fmt.Sprintf("UPDATE %s SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL", r.table.Name),
		r.conn.Driver().Time(at), r.conn.Driver().Time(at), id)
}

// Get loads one row by id.
func (r Repository[T]) Get(ctx context.Context, id int64) (T, error) {
	return r.QueryOne(ctx, r.table.IDColumn+" = ?", id)
}

// QueryOne returns the first row matching where, or ErrNotFound.
func (r Repository[T]) QueryOne(ctx context.Context, where string, args ...any) (T, error) {
	row := db.From(ctx, r.conn).QueryRow(ctx, r.selectSQL(where, "", "")+" LIMIT 1", args...)
	v, err := r.table.Scan(row)
	if err != nil {
		var zero T
		if db.IsNoRows(err) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return v, nil
}

// Query returns every row matching where (may be empty) in orderBy order.
// tail is appended verbatim, for LIMIT/OFFSET.
func (r Repository[T]) Query(ctx context.Context, where, orderBy, tail string, args ...any) ([]T, error) {
	rows, err := db.From(ctx, r.conn).Query(ctx, r.selectSQL(where, orderBy, tail), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []T{}
	for rows.Next() {
		v, err := r.table.Scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of rows matching where.
func (r Repository[T]) Count(ctx context.Context, where string, args ...any) (int64, error) {
	query := "SELECT COUNT(*) FROM " + r.table.From + r.whereSQL(where)
	var n int64
	if err := db.From(ctx, r.conn).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r Repository[T]) selectSQL(where, orderBy, tail string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(r.table.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(r.table.From)
	b.WriteString(r.whereSQL(where))
	if orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBy)
	}
	if tail != "" {
		b.WriteString(" ")
		b.WriteString(tail)
	}
	return b.String()
}

func (r Repository[T]) whereSQL(where string) string {
	var clauses []string
	if r.table.SoftDelete {
		clauses = append(clauses, r.table.DeletedColumn+" IS NULL")
	}
	if where != "" {
		clauses = append(clauses, "("+where+")")
	}
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}
