package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/workshop-scheduler/internal/crud"
	"github.com/hackgods/workshop-scheduler/internal/db"
)

// staffLockNamespace keeps advisory lock keys for staff calendars apart
// from any other advisory lock user.
const staffLockNamespace int64 = 0x57AF << 32

var detailColumns = []string{
	"a.id", "a.customer_name", "a.staff_id", "a.vehicle_type", "a.vehicle_number", "a.contact",
	"a.start_time", "a.end_time", "a.actual_start_time", "a.actual_end_time",
	"a.business_category", "a.business_detail", "a.notes", "a.billing_status", "a.external_event_id",
	"a.created_at", "a.updated_at",
	"COALESCE(s.name, '')", "COALESCE(s.color, '')",
}

// SQLRepository stores appointments in the `appointments` table.
type SQLRepository struct {
	rows crud.Repository[Detail]
	conn db.Conn
}

var _ Repository = (*SQLRepository)(nil)

func NewSQLRepository(conn db.Conn) *SQLRepository {
	return &SQLRepository{
		conn: conn,
		rows: crud.New(conn, crud.Table[Detail]{
			Name:     "appointments",
			From:     "appointments a LEFT JOIN staff s ON s.id = a.staff_id",
			IDColumn: "a.id",
			Columns:  detailColumns,
			Scan:     scanDetail,
		}),
	}
}

func scanDetail(row db.Row) (Detail, error) {
	var (
		d                                  Detail
		start, end, actualStart, actualEnd db.NullTime
		createdAt, updatedAt               db.NullTime
		billing                            string
	)
	err := row.Scan(
		&d.ID,
		&d.CustomerName,
		&d.StaffID,
		&d.VehicleType,
		&d.VehicleNumber,
		&d.Contact,
		&start,
		&end,
		&actualStart,
		&actualEnd,
		&d.BusinessCategory,
		&d.BusinessDetail,
		&d.Notes,
		&billing,
		&d.ExternalEventID,
		&createdAt,
		&updatedAt,
		&d.StaffName,
		&d.StaffColor,
	)
	if err != nil {
		return Detail{}, err
	}
	d.StartTime = start.Time
	d.EndTime = end.Ptr()
	d.ActualStartTime = actualStart.Ptr()
	d.ActualEndTime = actualEnd.Ptr()
	d.BillingStatus = BillingStatus(billing)
	d.CreatedAt = createdAt.Time
	d.UpdatedAt = updatedAt.Time
	return d, nil
}

func (r *SQLRepository) Insert(ctx context.Context, a *Appointment) (int64, error) {
	d := r.conn.Driver()
	return r.rows.Insert(ctx, crud.Fields{}.
		Set("customer_name", a.CustomerName).
		Set("staff_id", a.StaffID).
		Set("vehicle_type", a.VehicleType).
		Set("vehicle_number", a.VehicleNumber).
		Set("contact", a.Contact).
		Set("start_time", d.Time(a.StartTime)).
		Set("end_time", d.NullableTime(a.EndTime)).
		Set("actual_start_time", d.NullableTime(a.ActualStartTime)).
		Set("actual_end_time", d.NullableTime(a.ActualEndTime)).
		Set("business_category", a.BusinessCategory).
		Set("business_detail", a.BusinessDetail).
		Set("notes", a.Notes).
		Set("billing_status", string(a.BillingStatus)).
		Set("external_event_id", a.ExternalEventID).
		Set("created_at", d.Time(a.CreatedAt)).
		Set("updated_at", d.Time(a.UpdatedAt)))
}

func (r *SQLRepository) Update(ctx context.Context, id int64, c Changes) error {
	d := r.conn.Driver()
	var f crud.Fields
	if c.CustomerName != nil {
		f = f.Set("customer_name", *c.CustomerName)
	}
	if c.StaffID != nil {
		f = f.Set("staff_id", *c.StaffID)
	}
	if c.StartTime != nil {
		f = f.Set("start_time", d.Time(*c.StartTime))
	}
	f = setTime(f, d, "end_time", c.EndTime)
	f = setTime(f, d, "actual_start_time", c.ActualStartTime)
	f = setTime(f, d, "actual_end_time", c.ActualEndTime)
	f = setString(f, "vehicle_type", c.VehicleType)
	f = setString(f, "vehicle_number", c.VehicleNumber)
	f = setString(f, "contact", c.Contact)
	if c.BusinessCategory != nil {
		f = f.Set("business_category", *c.BusinessCategory)
	}
	f = setString(f, "business_detail", c.BusinessDetail)
	f = setString(f, "notes", c.Notes)
	if c.BillingStatus != nil {
		f = f.Set("billing_status", string(*c.BillingStatus))
	}
	f = setString(f, "external_event_id", c.ExternalEventID)
	f = f.Set("updated_at", d.Time(c.UpdatedAt))

	n, err := r.rows.UpdateByID(ctx, id, f)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func setTime(f crud.Fields, d db.Driver, column string, v Nullable[time.Time]) crud.Fields {
	if !v.Set {
		return f
	}
	return f.Set(column, d.NullableTime(v.Value))
}

func setString(f crud.Fields, column string, v Nullable[string]) crud.Fields {
	if !v.Set {
		return f
	}
	return f.Set(column, v.Value)
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.rows.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *SQLRepository) GetDetail(ctx context.Context, id int64) (*Detail, error) {
	d, err := r.rows.Get(ctx, id)
	if err != nil {
		if errors.Is(err, crud.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *SQLRepository) FindOverlapping(ctx context.Context, staffID int64, start, end time.Time, excludeID int64) ([]Detail, error) {
	d := r.conn.Driver()
	where := "a.staff_id = ? AND a.end_time IS NOT NULL AND " + conflictPredicate
	args := append([]any{staffID}, conflictArgs(d.Time(start), d.Time(end))...)
	if excludeID != 0 {
		where += " AND a.id <> ?"
		args = append(args, excludeID)
	}
	return r.rows.Query(ctx, where, "a.start_time ASC, a.id ASC", "", args...)
}

func (r *SQLRepository) Search(ctx context.Context, c Criteria) ([]Detail, error) {
	d := r.conn.Driver()
	var (
		clauses []string
		args    []any
	)

	if kw := strings.TrimSpace(c.Keyword); kw != "" {
		pattern := "%" + escapeLike(strings.ToLower(kw)) + "%"
		var ors []string
		for _, col := range []string{"a.customer_name", "a.vehicle_type", "a.business_detail"} {
			ors = append(ors, d.Lower("COALESCE("+col+", '')")+` LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}
	if len(c.StaffIDs) > 0 {
		clauses = append(clauses, "a.staff_id IN ("+db.Placeholders(len(c.StaffIDs))+")")
		for _, id := range c.StaffIDs {
			args = append(args, id)
		}
	}
	if len(c.BusinessCategories) > 0 {
		clauses = append(clauses, "a.business_category IN ("+db.Placeholders(len(c.BusinessCategories))+")")
		for _, cat := range c.BusinessCategories {
			args = append(args, cat)
		}
	}
	if len(c.BillingStatuses) > 0 {
		clauses = append(clauses, "a.billing_status IN ("+db.Placeholders(len(c.BillingStatuses))+")")
		for _, b := range c.BillingStatuses {
			args = append(args, string(b))
		}
	}
	if c.From != nil {
		clauses = append(clauses, "a.start_time >= ?")
		args = append(args, d.Time(*c.From))
	}
	if c.To != nil {
		clauses = append(clauses, "a.start_time < ?")
		args = append(args, d.Time(*c.To))
	}

	sortCol := "a.start_time"
	switch c.Sort {
	case SortByCustomerName:
		sortCol = "a.customer_name"
	case SortByStaffID:
		sortCol = "a.staff_id"
	}
	dir := "ASC"
	if c.Descending {
		dir = "DESC"
	}
	orderBy := fmt.Sprintf("%s %s, a.id %s", sortCol, dir, dir)

	tail := ""
	if c.Limit > 0 {
		tail = "LIMIT ? OFFSET ?"
		args = append(args, c.Limit, c.Offset)
	}

	return r.rows.Query(ctx, strings.Join(clauses, " AND "), orderBy, tail, args...)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *SQLRepository) Unsynced(ctx context.Context) ([]Detail, error) {
	return r.rows.Query(ctx,
		"s.auth_status = 'authorized' AND s.deleted_at IS NULL AND a.external_event_id IS NULL",
		"a.start_time ASC, a.id ASC", "")
}

func (r *SQLRepository) MonthlyStatistics(ctx context.Context, from, to time.Time) (*MonthlyStatistics, error) {
	d := r.conn.Driver()
	ex := db.From(ctx, r.conn)
	window := "start_time >= ? AND start_time < ?"
	args := []any{d.Time(from), d.Time(to)}

	stats := &MonthlyStatistics{
		Year:              from.Year(),
		Month:             int(from.Month()),
		BillingBreakdown:  map[BillingStatus]int64{},
		CategoryBreakdown: map[string]int64{},
	}

	err := ex.QueryRow(ctx,
		"SELECT COUNT(*), COUNT(actual_end_time) FROM appointments WHERE "+window, args...,
	).Scan(&stats.Total, &stats.Completed)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}

	if err := groupCounts(ctx, ex, "billing_status", window, args, func(k string, n int64) {
		stats.BillingBreakdown[BillingStatus(k)] = n
	}); err != nil {
		return nil, err
	}
	if err := groupCounts(ctx, ex, "business_category", window, args, func(k string, n int64) {
		stats.CategoryBreakdown[k] = n
	}); err != nil {
		return nil, err
	}
	return stats, nil
}

func groupCounts(ctx context.Context, ex db.Executor, column, where string, args []any, add func(string, int64)) error {
	rows, err := ex.Query(ctx, fmt.Sprintf(
		"SELECT %[1]s, COUNT(*) FROM appointments WHERE %[2]s GROUP BY %[1]s", column, where), args...)
	if err != nil {
		return fmt.Errorf("group by %s: %w", column, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		add(key, n)
	}
	return rows.Err()
}

func (r *SQLRepository) CountByStaff(ctx context.Context, staffID int64) (int64, error) {
	return r.rows.Count(ctx, "a.staff_id = ?", staffID)
}

func (r *SQLRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	var payload any
	if ev.Payload != nil {
		payload = string(ev.Payload)
	}
	_, err := db.From(ctx, r.conn).Exec(ctx,
		"INSERT INTO event_logs (event_type, appointment_id, payload, created_at) VALUES (?, ?, ?, ?)",
		ev.EventType, ev.AppointmentID, payload, r.conn.Driver().Time(ev.CreatedAt))
	return err
}

// Events lists the audit log of one appointment, oldest first.
func (r *SQLRepository) Events(ctx context.Context, appointmentID int64) ([]EventLog, error) {
	rows, err := db.From(ctx, r.conn).Query(ctx,
		"SELECT id, event_type, appointment_id, payload, created_at FROM event_logs WHERE appointment_id = ? ORDER BY id",
		appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []EventLog{}
	for rows.Next() {
		var (
			ev        EventLog
			payload   *string
			createdAt db.NullTime
		)
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.AppointmentID, &payload, &createdAt); err != nil {
			return nil, err
		}
		if payload != nil {
			ev.Payload = []byte(*payload)
		}
		ev.CreatedAt = createdAt.Time
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *SQLRepository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.conn.InTx(ctx, fn)
}

func (r *SQLRepository) LockStaff(ctx context.Context, staffID int64) error {
	return r.conn.AdvisoryLock(ctx, staffLockNamespace|staffID)
}
