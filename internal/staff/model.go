package staff

import (
	"errors"
	"time"
)

type PermissionLevel string

const (
	PermissionAdmin  PermissionLevel = "admin"
	PermissionStaff  PermissionLevel = "staff"
	PermissionViewer PermissionLevel = "viewer"
)

func (p PermissionLevel) Valid() bool {
	switch p {
	case PermissionAdmin, PermissionStaff, PermissionViewer:
		return true
	}
	return false
}

// AuthStatus is the state of the member's external calendar authorization.
type AuthStatus string

const (
	AuthUnauthorized AuthStatus = "unauthorized"
	AuthAuthorized   AuthStatus = "authorized"
	AuthExpired      AuthStatus = "expired"
)

func (s AuthStatus) Valid() bool {
	switch s {
	case AuthUnauthorized, AuthAuthorized, AuthExpired:
		return true
	}
	return false
}

const DefaultColor = "#3B82F6"

var (
	ErrStaffNotFound   = errors.New("staff member not found")
	ErrDuplicateName   = errors.New("a staff member with this name already exists")
	ErrHasAppointments = errors.New("staff member still has appointments")
)

type Staff struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Color           string          `json:"color"`
	Email           *string         `json:"email,omitempty"`
	PermissionLevel PermissionLevel `json:"permission_level"`
	AuthStatus      AuthStatus      `json:"auth_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type CreateInput struct {
	Name            string          `json:"name"`
	Color           string          `json:"color"`
	Email           *string         `json:"email"`
	PermissionLevel PermissionLevel `json:"permission_level"`
}

// UpdateInput changes only the non-nil fields.
type UpdateInput struct {
	Name            *string          `json:"name"`
	Color           *string          `json:"color"`
	Email           *string          `json:"email"`
	PermissionLevel *PermissionLevel `json:"permission_level"`
}
