package staff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hackgods/workshop-scheduler/internal/clock"
	"github.com/hackgods/workshop-scheduler/internal/crud"
	"github.com/hackgods/workshop-scheduler/internal/db"
	"github.com/hackgods/workshop-scheduler/internal/validation"
)

// AppointmentCounter reports how many appointments reference a staff member.
type AppointmentCounter interface {
	CountByStaff(ctx context.Context, staffID int64) (int64, error)
}

type Service struct {
	repo         *Repository
	appointments AppointmentCounter
	clock        *clock.Clock
	logger       *slog.Logger
}

func NewService(repo *Repository, appointments AppointmentCounter, clk *clock.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:         repo,
		appointments: appointments,
		clock:        clk,
		logger:       logger,
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Staff, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Color == "" {
		in.Color = DefaultColor
	}
	if in.PermissionLevel == "" {
		in.PermissionLevel = PermissionStaff
	}

	var v validation.Collector
	v.Require("name", in.Name)
	if !in.PermissionLevel.Valid() {
		v.Addf("permission level %q is not one of admin, staff, viewer", in.PermissionLevel)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, in, s.clock.Now())
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("create staff: %w", err)
	}

	s.logger.Info("staff created", "staff_id", id, "name", in.Name)
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Staff, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Staff, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return list, nil
}

// Exists reports whether id names a live staff member.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrStaffNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("load staff: %w", err)
	}
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Staff, error) {
	var (
		v      validation.Collector
		fields crud.Fields
	)
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		v.Require("name", name)
		fields = fields.Set("name", name)
	}
	if in.Color != nil {
		v.Require("color", *in.Color)
		fields = fields.Set("color", *in.Color)
	}
	if in.Email != nil {
		if *in.Email == "" {
			fields = fields.Set("email", nil)
		} else {
			fields = fields.Set("email", *in.Email)
		}
	}
	if in.PermissionLevel != nil {
		if !in.PermissionLevel.Valid() {
			v.Addf("permission level %q is not one of admin, staff, viewer", *in.PermissionLevel)
		}
		fields = fields.Set("permission_level", string(*in.PermissionLevel))
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return s.repo.GetByID(ctx, id)
	}

	if err := s.repo.Update(ctx, id, fields, s.clock.Now()); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		if errors.Is(err, ErrStaffNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update staff: %w", err)
	}
	return s.repo.GetByID(ctx, id)
}

// SetAuthStatus records the outcome of the external calendar authorization.
func (s *Service) SetAuthStatus(ctx context.Context, id int64, status AuthStatus) (*Staff, error) {
	if !status.Valid() {
		return nil, &validation.Error{Problems: []string{
			fmt.Sprintf("auth status %q is not one of unauthorized, authorized, expired", status),
		}}
	}
	if err := s.repo.Update(ctx, id, crud.Fields{}.Set("auth_status", string(status)), s.clock.Now()); err != nil {
		if errors.Is(err, ErrStaffNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update auth status: %w", err)
	}
	return s.repo.GetByID(ctx, id)
}

// Delete soft-deletes a staff member that no appointment references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	n, err := s.appointments.CountByStaff(ctx, id)
	if err != nil {
		return fmt.Errorf("count appointments: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w (%d)", ErrHasAppointments, n)
	}

	if err := s.repo.Delete(ctx, id, s.clock.Now()); err != nil {
		if errors.Is(err, ErrStaffNotFound) {
			return err
		}
		return fmt.Errorf("delete staff: %w", err)
	}
	s.logger.Info("staff deleted", "staff_id", id)
	return nil
}
