package appointment

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type BillingStatus string

const (
	BillingUnbilled  BillingStatus = "unbilled"
	BillingBilled    BillingStatus = "billed"
	BillingPaid      BillingStatus = "paid"
	BillingCancelled BillingStatus = "cancelled"
)

var BillingStatuses = []BillingStatus{BillingUnbilled, BillingBilled, BillingPaid, BillingCancelled}

func ParseBillingStatus(s string) (BillingStatus, error) {
	for _, b := range BillingStatuses {
		if string(b) == strings.TrimSpace(s) {
			return b, nil
		}
	}
	return "", fmt.Errorf("billing status %q is not one of unbilled, billed, paid, cancelled", s)
}

const (
	EventAppointmentCreated        = "APPOINTMENT_CREATED"
	EventAppointmentUpdated        = "APPOINTMENT_UPDATED"
	EventAppointmentCompleted      = "APPOINTMENT_COMPLETED"
	EventAppointmentBillingUpdated = "APPOINTMENT_BILLING_UPDATED"
	EventAppointmentSynced         = "APPOINTMENT_SYNCED"
	EventAppointmentDeleted        = "APPOINTMENT_DELETED"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrTimeConflict        = errors.New("time range conflicts with an existing appointment")
	ErrCalendarBusy        = errors.New("staff calendar is being updated, please retry")
)

// Appointment is one scheduled service engagement. Times are wall-clock
// readings in the business timezone.
type Appointment struct {
	ID               int64
	CustomerName     string
	StaffID          int64
	VehicleType      *string
	VehicleNumber    *string
	Contact          *string
	StartTime        time.Time
	EndTime          *time.Time
	ActualStartTime  *time.Time
	ActualEndTime    *time.Time
	BusinessCategory string
	BusinessDetail   *string
	Notes            *string
	BillingStatus    BillingStatus
	ExternalEventID  *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Completed reports whether the actual end time has been recorded.
func (a Appointment) Completed() bool {
	return a.ActualEndTime != nil
}

// Detail is an appointment joined with its staff member's display fields.
// Both are empty when the staff row no longer exists.
type Detail struct {
	Appointment
	StaffName  string
	StaffColor string
}

// CreateInput is the appointment form. Empty strings mean "not given".
type CreateInput struct {
	CustomerName     string `json:"customer_name"`
	StaffID          int64  `json:"staff_id"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	ActualStartTime  string `json:"actual_start_time"`
	ActualEndTime    string `json:"actual_end_time"`
	VehicleType      string `json:"vehicle_type"`
	VehicleNumber    string `json:"vehicle_number"`
	Contact          string `json:"contact"`
	BusinessCategory string `json:"business_category"`
	BusinessDetail   string `json:"business_detail"`
	Notes            string `json:"notes"`
	BillingStatus    string `json:"billing_status"`
}

// UpdateInput is a partial form: nil fields are untouched, and an empty
// string clears an optional field.
type UpdateInput struct {
	CustomerName     *string `json:"customer_name"`
	StaffID          *int64  `json:"staff_id"`
	StartTime        *string `json:"start_time"`
	EndTime          *string `json:"end_time"`
	ActualStartTime  *string `json:"actual_start_time"`
	ActualEndTime    *string `json:"actual_end_time"`
	VehicleType      *string `json:"vehicle_type"`
	VehicleNumber    *string `json:"vehicle_number"`
	Contact          *string `json:"contact"`
	BusinessCategory *string `json:"business_category"`
	BusinessDetail   *string `json:"business_detail"`
	Notes            *string `json:"notes"`
	BillingStatus    *string `json:"billing_status"`
	ExternalEventID  *string `json:"external_event_id"`
}

// Nullable is an update to an optional column. Set false leaves the column
// alone; Set with a nil Value clears it.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func SetTo[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

func Clear[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// Changes lists the columns one update writes.
type Changes struct {
	CustomerName     *string
	StaffID          *int64
	StartTime        *time.Time
	EndTime          Nullable[time.Time]
	ActualStartTime  Nullable[time.Time]
	ActualEndTime    Nullable[time.Time]
	VehicleType      Nullable[string]
	VehicleNumber    Nullable[string]
	Contact          Nullable[string]
	BusinessCategory *string
	BusinessDetail   Nullable[string]
	Notes            Nullable[string]
	BillingStatus    *BillingStatus
	ExternalEventID  Nullable[string]
	UpdatedAt        time.Time
}

// Filter is the search request. Zero values mean "no constraint".
type Filter struct {
	Keyword            string
	StaffIDs           []int64
	BusinessCategories []string
	BillingStatuses    []string
	StartDate          string
	EndDate            string
	SortBy             string
	SortOrder          string
	Page               int
	Limit              int
}

type SortField string

const (
	SortByStartTime    SortField = "start_time"
	SortByCustomerName SortField = "customer_name"
	SortByStaffID      SortField = "staff_id"
)

// Criteria is a validated Filter in storage terms.
type Criteria struct {
	Keyword            string
	StaffIDs           []int64
	BusinessCategories []string
	BillingStatuses    []BillingStatus
	// From and To bound start_time as [From, To).
	From       *time.Time
	To         *time.Time
	Sort       SortField
	Descending bool
	Limit      int
	Offset     int
}

// ConflictResult is the outcome of a conflict check.
type ConflictResult struct {
	HasConflict bool
	Conflicts   []Detail
}

// ConflictError rejects a write whose time range overlaps other
// appointments of the same staff member.
type ConflictError struct {
	Conflicts []Detail
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return ErrTimeConflict.Error()
	}
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		end := ""
		if c.EndTime != nil {
			end = c.EndTime.Format("15:04")
		}
		parts = append(parts, fmt.Sprintf("#%d %s %s %s-%s",
			c.ID, c.CustomerName, c.StartTime.Format("2006-01-02"), c.StartTime.Format("15:04"), end))
	}
	return fmt.Sprintf("%s: %s", ErrTimeConflict.Error(), strings.Join(parts, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrTimeConflict
}

// MonthlyStatistics summarises one calendar month by start time.
type MonthlyStatistics struct {
	Year              int
	Month             int
	Total             int64
	Completed         int64
	BillingBreakdown  map[BillingStatus]int64
	CategoryBreakdown map[string]int64
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *int64
	Payload       []byte
	CreatedAt     time.Time
}
