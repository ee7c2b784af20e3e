package staff

import (
	"context"
	"errors"
	"time"

	"github.com/hackgods/workshop-scheduler/internal/crud"
	"github.com/hackgods/workshop-scheduler/internal/db"
)

// Repository stores staff in the `staff` table with soft delete.
type Repository struct {
	crud.Repository[Staff]
}

func NewRepository(conn db.Conn) *Repository {
	return &Repository{
		Repository: crud.New(conn, crud.Table[Staff]{
			Name: "staff",
			Columns: []string{
				"id", "name", "color", "email", "permission_level", "auth_status", "created_at", "updated_at",
			},
			Scan:       scanStaff,
			SoftDelete: true,
		}),
	}
}

func scanStaff(row db.Row) (Staff, error) {
	var (
		s                    Staff
		createdAt, updatedAt db.NullTime
	)
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Color,
		&s.Email,
		&s.PermissionLevel,
		&s.AuthStatus,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return Staff{}, err
	}
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time
	return s, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Staff, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		if errors.Is(err, crud.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repository) List(ctx context.Context) ([]Staff, error) {
	return r.Query(ctx, "", "name ASC, id ASC", "")
}

func (r *Repository) Create(ctx context.Context, in CreateInput, now time.Time) (int64, error) {
	d := r.Conn().Driver()
	return r.Insert(ctx, crud.Fields{}.
		Set("name", in.Name).
		Set("color", in.Color).
		Set("email", in.Email).
		Set("permission_level", string(in.PermissionLevel)).
		Set("auth_status", string(AuthUnauthorized)).
		Set("created_at", d.Time(now)).
		Set("updated_at", d.Time(now)))
}

func (r *Repository) Update(ctx context.Context, id int64, fields crud.Fields, now time.Time) error {
	fields = fields.Set("updated_at", r.Conn().Driver().Time(now))
	n, err := r.UpdateByID(ctx, id, fields)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaffNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64, now time.Time) error {
	n, err := r.SoftDeleteByID(ctx, id, now)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaffNotFound
	}
	return nil
}
