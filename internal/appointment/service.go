package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hackgods/workshop-scheduler/internal/clock"
	"github.com/hackgods/workshop-scheduler/internal/db"
	"github.com/hackgods/workshop-scheduler/internal/lock"
	"github.com/hackgods/workshop-scheduler/internal/validation"
)

// StaffDirectory answers whether a staff member exists.
type StaffDirectory interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service is the only writer of appointments. It validates requests, runs
// the conflict check and the write under one staff calendar lock, and
// fronts the query and statistics components for callers.
type Service struct {
	repo      Repository
	staff     StaffDirectory
	locker    lock.Locker
	clock     *clock.Clock
	logger    *slog.Logger
	conflicts *ConflictDetector
	queries   *QueryEngine
	stats     *StatisticsAggregator
}

func NewService(repo Repository, staff StaffDirectory, locker lock.Locker, clk *clock.Clock, logger *slog.Logger) *Service {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		staff:     staff,
		locker:    locker,
		clock:     clk,
		logger:    logger,
		conflicts: NewConflictDetector(repo),
		queries:   NewQueryEngine(repo, clk),
		stats:     NewStatisticsAggregator(repo),
	}
}

// Create validates in, rejects it when its range collides with another
// appointment of the same staff member, and stores it.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Detail, error) {
	appt, err := s.newAppointment(ctx, in)
	if err != nil {
		return nil, err
	}

	if appt.StartTime.Before(s.clock.Now()) {
		s.logger.Warn("appointment starts in the past",
			"staff_id", appt.StaffID, "start_time", appt.StartTime.Format(db.TimeLayout))
	}

	var id int64
	write := func(ctx context.Context) error {
		if appt.EndTime != nil {
			if err := s.ensureNoConflict(ctx, appt.StaffID, appt.StartTime, *appt.EndTime, 0); err != nil {
				return err
			}
		}

		newID, err := s.repo.Insert(ctx, appt)
		if err != nil {
			if db.IsOverlapViolation(err) {
				return &ConflictError{}
			}
			return fmt.Errorf("insert appointment: %w", err)
		}
		id = newID

		return s.recordEvent(ctx, EventAppointmentCreated, id, map[string]any{
			"staff_id":   appt.StaffID,
			"start_time": appt.StartTime.Format(db.TimeLayout),
			"end_time":   formatOptional(appt.EndTime),
		})
	}

	if appt.EndTime != nil {
		err = s.withStaffCalendar(ctx, appt.StaffID, write)
	} else {
		err = s.repo.InTx(ctx, write)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment created", "appointment_id", id, "staff_id", appt.StaffID)
	return s.repo.GetDetail(ctx, id)
}

// Update applies the fields present in in. Only those fields are
// validated, and the conflict check runs again when the staff member or
// either end of the range changes.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Detail, error) {
	existing, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	changes, err := s.changesFor(ctx, existing, in)
	if err != nil {
		return nil, err
	}

	staffID := existing.StaffID
	if changes.StaffID != nil {
		staffID = *changes.StaffID
	}
	start := existing.StartTime
	if changes.StartTime != nil {
		start = *changes.StartTime
	}
	end := existing.EndTime
	if changes.EndTime.Set {
		end = changes.EndTime.Value
	}
	recheck := (in.StaffID != nil || in.StartTime != nil || in.EndTime != nil) && end != nil

	write := func(ctx context.Context) error {
		if recheck {
			if err := s.ensureNoConflict(ctx, staffID, start, *end, id); err != nil {
				return err
			}
		}
		if err := s.repo.Update(ctx, id, changes); err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return err
			}
			if db.IsOverlapViolation(err) {
				return &ConflictError{}
			}
			return fmt.Errorf("update appointment: %w", err)
		}
		return s.recordEvent(ctx, EventAppointmentUpdated, id, map[string]any{
			"staff_id":   staffID,
			"start_time": start.Format(db.TimeLayout),
			"end_time":   formatOptional(end),
		})
	}

	if recheck {
		err = s.withStaffCalendar(ctx, staffID, write)
	} else {
		err = s.repo.InTx(ctx, write)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment updated", "appointment_id", id)
	return s.repo.GetDetail(ctx, id)
}

// Complete records the actual end time, defaulting to now. The scheduled
// range is not re-checked.
func (s *Service) Complete(ctx context.Context, id int64, actualEnd string) (*Detail, error) {
	at := s.clock.Now()
	if strings.TrimSpace(actualEnd) != "" {
		t, err := ParseTimestamp(actualEnd, s.clock.Location())
		if err != nil {
			return nil, &validation.Error{Problems: []string{"actual end time: " + err.Error()}}
		}
		at = t
	}

	err := s.applyChanges(ctx, id, Changes{ActualEndTime: SetTo(at)}, EventAppointmentCompleted, map[string]any{
		"actual_end_time": at.Format(db.TimeLayout),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("appointment completed", "appointment_id", id)
	return s.repo.GetDetail(ctx, id)
}

// UpdateBillingStatus moves the appointment to any billing status.
func (s *Service) UpdateBillingStatus(ctx context.Context, id int64, status string) (*Detail, error) {
	b, err := ParseBillingStatus(status)
	if err != nil {
		return nil, &validation.Error{Problems: []string{err.Error()}}
	}

	err = s.applyChanges(ctx, id, Changes{BillingStatus: &b}, EventAppointmentBillingUpdated, map[string]any{
		"billing_status": string(b),
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetDetail(ctx, id)
}

// MarkSynced stores the external calendar reference of the appointment.
func (s *Service) MarkSynced(ctx context.Context, id int64, externalEventID string) (*Detail, error) {
	ref := strings.TrimSpace(externalEventID)
	if ref == "" {
		return nil, &validation.Error{Problems: []string{"external event id is required"}}
	}

	err := s.applyChanges(ctx, id, Changes{ExternalEventID: SetTo(ref)}, EventAppointmentSynced, map[string]any{
		"external_event_id": ref,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetDetail(ctx, id)
}

// Delete removes the appointment permanently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return err
			}
			return fmt.Errorf("delete appointment: %w", err)
		}
		return s.recordEvent(ctx, EventAppointmentDeleted, id, nil)
	})
	if err != nil {
		return err
	}
	s.logger.Info("appointment deleted", "appointment_id", id)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	return s.repo.GetDetail(ctx, id)
}

// CheckTimeConflict is the read-only conflict check offered to callers
// before they submit a form.
func (s *Service) CheckTimeConflict(ctx context.Context, staffID int64, start, end string, excludeID int64) (*ConflictResult, error) {
	var v validation.Collector
	if staffID <= 0 {
		v.Add("staff is required")
	}
	cs := requireTime(&v, "start time", start, s.clock.Location())
	ce := requireTime(&v, "end time", end, s.clock.Location())
	if cs != nil && ce != nil && ce.Before(*cs) {
		v.Add("end time must not be before start time")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return s.conflicts.Check(ctx, staffID, *cs, *ce, excludeID)
}

func (s *Service) Search(ctx context.Context, f Filter) ([]Detail, error) {
	return s.queries.Search(ctx, f)
}

func (s *Service) GetByDateRange(ctx context.Context, startDate, endDate string) ([]Detail, error) {
	return s.queries.ByDateRange(ctx, startDate, endDate)
}

func (s *Service) GetToday(ctx context.Context) ([]Detail, error) {
	return s.queries.Today(ctx)
}

func (s *Service) GetUnsynced(ctx context.Context) ([]Detail, error) {
	return s.queries.Unsynced(ctx)
}

func (s *Service) GetMonthlyStatistics(ctx context.Context, year, month int) (*MonthlyStatistics, error) {
	return s.stats.Monthly(ctx, year, month)
}

// CountByStaff lets the staff service refuse to delete referenced staff.
func (s *Service) CountByStaff(ctx context.Context, staffID int64) (int64, error) {
	return s.repo.CountByStaff(ctx, staffID)
}

// withStaffCalendar runs fn holding the staff lock and, inside one
// transaction, the matching storage-level lock.
func (s *Service) withStaffCalendar(ctx context.Context, staffID int64, fn func(ctx context.Context) error) error {
	err := s.locker.WithStaffLock(ctx, staffID, func(ctx context.Context) error {
		return s.repo.InTx(ctx, func(ctx context.Context) error {
			if err := s.repo.LockStaff(ctx, staffID); err != nil {
				return fmt.Errorf("lock staff calendar: %w", err)
			}
			return fn(ctx)
		})
	})
	if errors.Is(err, lock.ErrNotAcquired) {
		return ErrCalendarBusy
	}
	return err
}

func (s *Service) ensureNoConflict(ctx context.Context, staffID int64, start, end time.Time, excludeID int64) error {
	res, err := s.conflicts.Check(ctx, staffID, start, end, excludeID)
	if err != nil {
		return err
	}
	if res.HasConflict {
		s.logger.Info("appointment rejected by conflict check",
			"staff_id", staffID, "conflicts", len(res.Conflicts))
		return &ConflictError{Conflicts: res.Conflicts}
	}
	return nil
}

// applyChanges runs one of the single-purpose state updates.
func (s *Service) applyChanges(ctx context.Context, id int64, c Changes, event string, payload map[string]any) error {
	c.UpdatedAt = s.clock.Now()
	return s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, id, c); err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return err
			}
			return fmt.Errorf("update appointment: %w", err)
		}
		return s.recordEvent(ctx, event, id, payload)
	})
}

func (s *Service) recordEvent(ctx context.Context, eventType string, appointmentID int64, payload map[string]any) error {
	var raw []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		raw = b
	}
	if err := s.repo.InsertEvent(ctx, EventLog{
		EventType:     eventType,
		AppointmentID: &appointmentID,
		Payload:       raw,
		CreatedAt:     s.clock.Now(),
	}); err != nil {
		return fmt.Errorf("log %s: %w", eventType, err)
	}
	return nil
}

func formatOptional(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(db.TimeLayout)
}
