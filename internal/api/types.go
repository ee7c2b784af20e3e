package api

import (
	"time"

	"github.com/hackgods/workshop-scheduler/internal/appointment"
	"github.com/hackgods/workshop-scheduler/internal/db"
	"github.com/hackgods/workshop-scheduler/internal/masterdata"
	"github.com/hackgods/workshop-scheduler/internal/staff"
)

// Every response body is an envelope.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type AppointmentResponse struct {
	ID               int64   `json:"id"`
	CustomerName     string  `json:"customer_name"`
	StaffID          int64   `json:"staff_id"`
	StaffName        string  `json:"staff_name"`
	StaffColor       string  `json:"staff_color"`
	VehicleType      *string `json:"vehicle_type"`
	VehicleNumber    *string `json:"vehicle_number"`
	Contact          *string `json:"contact"`
	StartTime        string  `json:"start_time"`
	EndTime          *string `json:"end_time"`
	ActualStartTime  *string `json:"actual_start_time"`
	ActualEndTime    *string `json:"actual_end_time"`
	BusinessCategory string  `json:"business_category"`
	BusinessDetail   *string `json:"business_detail"`
	Notes            *string `json:"notes"`
	BillingStatus    string  `json:"billing_status"`
	ExternalEventID  *string `json:"external_event_id"`
	Completed        bool    `json:"completed"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func toAppointmentResponse(d appointment.Detail) AppointmentResponse {
	return AppointmentResponse{
		ID:               d.ID,
		CustomerName:     d.CustomerName,
		StaffID:          d.StaffID,
		StaffName:        d.StaffName,
		StaffColor:       d.StaffColor,
		VehicleType:      d.VehicleType,
		VehicleNumber:    d.VehicleNumber,
		Contact:          d.Contact,
		StartTime:        formatTime(d.StartTime),
		EndTime:          formatOptionalTime(d.EndTime),
		ActualStartTime:  formatOptionalTime(d.ActualStartTime),
		ActualEndTime:    formatOptionalTime(d.ActualEndTime),
		BusinessCategory: d.BusinessCategory,
		BusinessDetail:   d.BusinessDetail,
		Notes:            d.Notes,
		BillingStatus:    string(d.BillingStatus),
		ExternalEventID:  d.ExternalEventID,
		Completed:        d.Completed(),
		CreatedAt:        formatTime(d.CreatedAt),
		UpdatedAt:        formatTime(d.UpdatedAt),
	}
}

func toAppointmentList(list []appointment.Detail) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toAppointmentResponse(d))
	}
	return out
}

type ConflictResponse struct {
	HasConflict bool                  `json:"has_conflict"`
	Conflicts   []AppointmentResponse `json:"conflicting_appointments"`
}

type MonthlyStatisticsResponse struct {
	Year              int              `json:"year"`
	Month             int              `json:"month"`
	Total             int64            `json:"total"`
	Completed         int64            `json:"completed"`
	BillingBreakdown  map[string]int64 `json:"billing_breakdown"`
	CategoryBreakdown map[string]int64 `json:"category_breakdown"`
}

func toStatisticsResponse(s *appointment.MonthlyStatistics) MonthlyStatisticsResponse {
	billing := make(map[string]int64, len(s.BillingBreakdown))
	for k, v := range s.BillingBreakdown {
		billing[string(k)] = v
	}
	return MonthlyStatisticsResponse{
		Year:              s.Year,
		Month:             s.Month,
		Total:             s.Total,
		Completed:         s.Completed,
		BillingBreakdown:  billing,
		CategoryBreakdown: s.CategoryBreakdown,
	}
}

type StaffResponse struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Color           string  `json:"color"`
	Email           *string `json:"email"`
	PermissionLevel string  `json:"permission_level"`
	AuthStatus      string  `json:"auth_status"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func toStaffResponse(s staff.Staff) StaffResponse {
	return StaffResponse{
		ID:              s.ID,
		Name:            s.Name,
		Color:           s.Color,
		Email:           s.Email,
		PermissionLevel: string(s.PermissionLevel),
		AuthStatus:      string(s.AuthStatus),
		CreatedAt:       formatTime(s.CreatedAt),
		UpdatedAt:       formatTime(s.UpdatedAt),
	}
}

type EntryResponse struct {
	ID        int64   `json:"id"`
	Kind      string  `json:"kind"`
	Name      string  `json:"name"`
	Detail    *string `json:"detail"`
	SortOrder int     `json:"sort_order"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func toEntryResponse(e masterdata.Entry) EntryResponse {
	return EntryResponse{
		ID:        e.ID,
		Kind:      string(e.Kind),
		Name:      e.Name,
		Detail:    e.Detail,
		SortOrder: e.SortOrder,
		CreatedAt: formatTime(e.CreatedAt),
		UpdatedAt: formatTime(e.UpdatedAt),
	}
}

type CompleteRequest struct {
	ActualEndTime string `json:"actual_end_time"`
}

type BillingStatusRequest struct {
	BillingStatus string `json:"billing_status"`
}

type SyncRequest struct {
	ExternalEventID string `json:"external_event_id"`
}

type ConflictCheckRequest struct {
	StaffID   int64  `json:"staff_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	ExcludeID int64  `json:"exclude_id"`
}

type AuthStatusRequest struct {
	AuthStatus string `json:"auth_status"`
}

// Times leave the API as business-local wall-clock readings.
func formatTime(t time.Time) string {
	return t.Format(db.TimeLayout)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
