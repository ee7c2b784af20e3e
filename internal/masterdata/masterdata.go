// Package masterdata keeps the controlled vocabularies that populate
// appointment fields: vehicle types, customers and business categories.
package masterdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hackgods/workshop-scheduler/internal/clock"
	"github.com/hackgods/workshop-scheduler/internal/crud"
	"github.com/hackgods/workshop-scheduler/internal/db"
	"github.com/hackgods/workshop-scheduler/internal/validation"
)

type Kind string

const (
	KindVehicleType      Kind = "vehicle_type"
	KindCustomer         Kind = "customer"
	KindBusinessCategory Kind = "business_category"
)

// ParseKind accepts the singular form or the plural used in URLs.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSuffix(strings.ReplaceAll(s, "-", "_"), "s") {
	case "vehicle_type":
		return KindVehicleType, nil
	case "customer":
		return KindCustomer, nil
	case "business_category", "business_categorie":
		return KindBusinessCategory, nil
	}
	return "", &validation.Error{Problems: []string{fmt.Sprintf("unknown master data kind %q", s)}}
}

var (
	ErrEntryNotFound = errors.New("master data entry not found")
	ErrDuplicate     = errors.New("an entry with this name already exists")
)

type Entry struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	Detail    *string   `json:"detail,omitempty"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Input struct {
	Name      *string `json:"name"`
	Detail    *string `json:"detail"`
	SortOrder *int    `json:"sort_order"`
}

type Service struct {
	repo   crud.Repository[Entry]
	clock  *clock.Clock
	logger *slog.Logger
}

func NewService(conn db.Conn, clk *clock.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo: crud.New(conn, crud.Table[Entry]{
			Name:       "master_entries",
			Columns:    []string{"id", "kind", "name", "detail", "sort_order", "created_at", "updated_at"},
			Scan:       scanEntry,
			SoftDelete: true,
		}),
		clock:  clk,
		logger: logger,
	}
}

func scanEntry(row db.Row) (Entry, error) {
	var (
		e                    Entry
		createdAt, updatedAt db.NullTime
	)
	if err := row.Scan(&e.ID, &e.Kind, &e.Name, &e.Detail, &e.SortOrder, &createdAt, &updatedAt); err != nil {
		return Entry{}, err
	}
	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time
	return e, nil
}

func (s *Service) List(ctx context.Context, kind Kind) ([]Entry, error) {
	entries, err := s.repo.Query(ctx, "kind = ?", "sort_order ASC, name ASC", "", string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return entries, nil
}

func (s *Service) Get(ctx context.Context, kind Kind, id int64) (*Entry, error) {
	e, err := s.repo.QueryOne(ctx, "id = ? AND kind = ?", id, string(kind))
	if err != nil {
		if errors.Is(err, crud.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	return &e, nil
}

func (s *Service) Create(ctx context.Context, kind Kind, in Input) (*Entry, error) {
	name := ""
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	var v validation.Collector
	v.Require("name", name)
	if err := v.Err(); err != nil {
		return nil, err
	}

	sortOrder := 0
	if in.SortOrder != nil {
		sortOrder = *in.SortOrder
	}

	now := s.repo.Conn().Driver().Time(s.clock.Now())
	id, err := s.repo.Insert(ctx, crud.Fields{}.
		Set("kind", string(kind)).
		Set("name", name).
		Set("detail", emptyToNil(in.Detail)).
		Set("sort_order", sortOrder).
		Set("created_at", now).
		Set("updated_at", now))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}

	s.logger.Info("master data created", "kind", kind, "id", id, "name", name)
	return s.Get(ctx, kind, id)
}

func (s *Service) Update(ctx context.Context, kind Kind, id int64, in Input) (*Entry, error) {
	if _, err := s.Get(ctx, kind, id); err != nil {
		return nil, err
	}

	var (
		v      validation.Collector
		fields crud.Fields
	)
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		v.Require("name", name)
		fields = fields.Set("name", name)
	}
	if in.Detail != nil {
		fields = fields.Set("detail", emptyToNil(in.Detail))
	}
	if in.SortOrder != nil {
		fields = fields.Set("sort_order", *in.SortOrder)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return s.Get(ctx, kind, id)
	}

	fields = fields.Set("updated_at", s.repo.Conn().Driver().Time(s.clock.Now()))
	if _, err := s.repo.UpdateByID(ctx, id, fields); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("update %s: %w", kind, err)
	}
	return s.Get(ctx, kind, id)
}

// Delete hides the entry; appointments keep the text they were saved with.
func (s *Service) Delete(ctx context.Context, kind Kind, id int64) error {
	if _, err := s.Get(ctx, kind, id); err != nil {
		return err
	}
	if _, err := s.repo.SoftDeleteByID(ctx, id, s.clock.Now()); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	s.logger.Info("master data deleted", "kind", kind, "id", id)
	return nil
}

func emptyToNil(s *string) any {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return *s
}
