package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/workshop-scheduler/internal/appointment"
	"github.com/hackgods/workshop-scheduler/internal/clock"
	"github.com/hackgods/workshop-scheduler/internal/db/dbtest"
	"github.com/hackgods/workshop-scheduler/internal/lock"
	"github.com/hackgods/workshop-scheduler/internal/masterdata"
	"github.com/hackgods/workshop-scheduler/internal/staff"
)

type testServer struct {
	handler http.Handler
	staffID int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	conn := dbtest.Open(t)
	clk := clock.Fixed(time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo := appointment.NewSQLRepository(conn)
	staffSvc := staff.NewService(staff.NewRepository(conn), repo, clk, logger)
	ken, err := staffSvc.Create(context.Background(), staff.CreateInput{Name: "Ken"})
	require.NoError(t, err)

	return &testServer{
		staffID: ken.ID,
		handler: NewRouter(RouterConfig{
			Appointments: appointment.NewService(repo, staffSvc, lock.NewLocalLocker(), clk, logger),
			Staff:        staffSvc,
			MasterData:   masterdata.NewService(conn, clk, logger),
			Clock:        clk,
			DB:           conn,
			Logger:       logger,
			Env:          "test",
			Version:      "test",
		}),
	}
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, testEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (s *testServer) createAppointment(t *testing.T, start, end string) AppointmentResponse {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/appointments", map[string]any{
		"customer_name":     "Acme Co.",
		"staff_id":          s.staffID,
		"start_time":        start,
		"end_time":          end,
		"business_category": "repair",
	})
	require.Equal(t, http.StatusCreated, code)
	require.True(t, env.Success)

	var appt AppointmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &appt))
	return appt
}

func TestCreateAndGetAppointment(t *testing.T) {
	s := newTestServer(t)
	created := s.createAppointment(t, "2025-06-10T09:00", "2025-06-10T10:00")

	assert.Equal(t, "2025-06-10T09:00:00", created.StartTime)
	require.NotNil(t, created.EndTime)
	assert.Equal(t, "2025-06-10T10:00:00", *created.EndTime)
	assert.Equal(t, "unbilled", created.BillingStatus)
	assert.Equal(t, "Ken", created.StaffName)
	assert.Equal(t, "2025-06-10T08:00:00", created.CreatedAt)

	code, env := s.do(t, http.MethodGet, "/appointments/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestStatusCodes(t *testing.T) {
	s := newTestServer(t)
	created := s.createAppointment(t, "2025-06-10T09:00", "2025-06-10T10:00")

	code, env := s.do(t, http.MethodPost, "/appointments", map[string]any{
		"customer_name": "Beta", "staff_id": s.staffID, "business_category": "repair",
		"start_time": "2025-06-10T09:30", "end_time": "2025-06-10T10:30",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)
	assert.Equal(t, "time_conflict", env.Error.Code)
	var conflicts []AppointmentResponse
	require.NoError(t, json.Unmarshal(env.Error.Details, &conflicts))
	require.Len(t, conflicts, 1)
	assert.Equal(t, created.ID, conflicts[0].ID)

	code, env = s.do(t, http.MethodPost, "/appointments", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_failed", env.Error.Code)
	var problems []string
	require.NoError(t, json.Unmarshal(env.Error.Details, &problems))
	assert.Len(t, problems, 4)

	code, env = s.do(t, http.MethodGet, "/appointments/999", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "appointment_not_found", env.Error.Code)

	code, env = s.do(t, http.MethodGet, "/appointments/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_id", env.Error.Code)

	code, env = s.do(t, http.MethodDelete, "/staff/"+itoa(s.staffID), nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "staff_has_appointments", env.Error.Code)
}

func TestAppointmentStateEndpoints(t *testing.T) {
	s := newTestServer(t)
	created := s.createAppointment(t, "2025-06-10T09:00", "2025-06-10T10:00")
	base := "/appointments/" + itoa(created.ID)

	code, env := s.do(t, http.MethodPatch, base, map[string]any{"notes": "bring keys"})
	require.Equal(t, http.StatusOK, code)
	var appt AppointmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &appt))
	require.NotNil(t, appt.Notes)
	assert.Equal(t, "bring keys", *appt.Notes)

	code, env = s.do(t, http.MethodPost, base+"/complete", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &appt))
	assert.True(t, appt.Completed)

	code, env = s.do(t, http.MethodPut, base+"/billing-status", map[string]string{"billing_status": "paid"})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &appt))
	assert.Equal(t, "paid", appt.BillingStatus)

	code, env = s.do(t, http.MethodPost, base+"/sync", map[string]string{"external_event_id": "evt-9"})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &appt))
	require.NotNil(t, appt.ExternalEventID)
	assert.Equal(t, "evt-9", *appt.ExternalEventID)

	code, _ = s.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSearchAndViews(t *testing.T) {
	s := newTestServer(t)
	s.createAppointment(t, "2025-06-10T09:00", "2025-06-10T10:00")
	s.createAppointment(t, "2025-06-11T09:00", "2025-06-11T10:00")

	list := func(path string) []AppointmentResponse {
		code, env := s.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, code, path)
		var out []AppointmentResponse
		require.NoError(t, json.Unmarshal(env.Data, &out))
		return out
	}

	assert.Len(t, list("/appointments?keyword=acme&staff_id="+itoa(s.staffID)), 2)
	assert.Len(t, list("/appointments?start_date=2025-06-11&end_date=2025-06-11"), 1)
	assert.Len(t, list("/appointments?limit=1&page=2&sort_order=desc"), 1)
	assert.Empty(t, list("/appointments?keyword=nomatch"))
	assert.Len(t, list("/appointments/today"), 1)
	assert.Len(t, list("/appointments/range?start_date=2025-06-10&end_date=2025-06-11"), 2)
	assert.Empty(t, list("/appointments/unsynced"))

	code, env := s.do(t, http.MethodGet, "/appointments?page=two", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_failed", env.Error.Code)

	code, env = s.do(t, http.MethodGet, "/appointments/statistics/monthly?year=2025&month=6", nil)
	require.Equal(t, http.StatusOK, code)
	var stats MonthlyStatisticsResponse
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, map[string]int64{"unbilled": 2}, stats.BillingBreakdown)

	code, env = s.do(t, http.MethodGet, "/appointments/statistics/monthly", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 6, stats.Month)
}

func TestConflictCheckEndpoint(t *testing.T) {
	s := newTestServer(t)
	created := s.createAppointment(t, "2025-06-10T09:00", "2025-06-10T10:00")

	check := func(start, end string, exclude int64) ConflictResponse {
		code, env := s.do(t, http.MethodPost, "/appointments/conflicts", map[string]any{
			"staff_id": s.staffID, "start_time": start, "end_time": end, "exclude_id": exclude,
		})
		require.Equal(t, http.StatusOK, code)
		var res ConflictResponse
		require.NoError(t, json.Unmarshal(env.Data, &res))
		return res
	}

	assert.True(t, check("2025-06-10T09:30", "2025-06-10T10:30", 0).HasConflict)
	assert.False(t, check("2025-06-10T10:00", "2025-06-10T11:00", 0).HasConflict)
	assert.False(t, check("2025-06-10T09:00", "2025-06-10T10:00", created.ID).HasConflict)
}

func TestStaffAndMasterDataEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/staff", map[string]any{"name": "Mia"})
	require.Equal(t, http.StatusCreated, code)
	var mia StaffResponse
	require.NoError(t, json.Unmarshal(env.Data, &mia))
	assert.Equal(t, "unauthorized", mia.AuthStatus)

	code, _ = s.do(t, http.MethodPost, "/staff", map[string]any{"name": "Mia"})
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(t, http.MethodPut, "/staff/"+itoa(mia.ID)+"/auth-status", map[string]string{"auth_status": "authorized"})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &mia))
	assert.Equal(t, "authorized", mia.AuthStatus)

	code, _ = s.do(t, http.MethodDelete, "/staff/"+itoa(mia.ID), nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, "/master/business-categories", nil)
	require.Equal(t, http.StatusOK, code)
	var cats []EntryResponse
	require.NoError(t, json.Unmarshal(env.Data, &cats))
	assert.Len(t, cats, 5)

	code, env = s.do(t, http.MethodPost, "/master/vehicle-types", map[string]any{"name": "Sedan"})
	require.Equal(t, http.StatusCreated, code)
	var sedan EntryResponse
	require.NoError(t, json.Unmarshal(env.Data, &sedan))

	code, _ = s.do(t, http.MethodDelete, "/master/vehicle-types/"+itoa(sedan.ID), nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, "/master/planets", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "unknown_kind", env.Error.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
