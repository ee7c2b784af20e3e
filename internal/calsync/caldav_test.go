package calsync

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/workshop-scheduler/internal/appointment"
)

func strPtr(s string) *string { return &s }

func sampleDetail() appointment.Detail {
	end := time.Date(2025, 6, 10, 10, 30, 0, 0, time.UTC)
	return appointment.Detail{
		Appointment: appointment.Appointment{
			ID:               7,
			CustomerName:     "Acme Co.",
			StaffID:          1,
			VehicleType:      strPtr("Hilux"),
			VehicleNumber:    strPtr("300-A-1234"),
			StartTime:        time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
			EndTime:          &end,
			BusinessCategory: "repair",
			Notes:            strPtr("brake pads"),
			BillingStatus:    appointment.BillingUnbilled,
		},
		StaffName: "Ken",
	}
}

func TestBuildCalendar(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	stamp := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	cal := BuildCalendar(sampleDetail(), tokyo, stamp)
	require.Len(t, cal.Children, 1)

	event := cal.Children[0]
	assert.Equal(t, ical.CompEvent, event.Name)
	assert.Equal(t, "appointment-7@workshop-scheduler", event.Props.Get(ical.PropUID).Value)
	assert.Equal(t, "repair: Acme Co.", event.Props.Get(ical.PropSummary).Value)
	assert.Equal(t, "20250610T000000Z", event.Props.Get(ical.PropDateTimeStart).Value)
	assert.Equal(t, "20250610T013000Z", event.Props.Get(ical.PropDateTimeEnd).Value)

	desc := event.Props.Get(ical.PropDescription).Value
	assert.Contains(t, desc, "Staff: Ken")
	assert.Contains(t, desc, "Vehicle: Hilux 300-A-1234")
	assert.Contains(t, desc, "Notes: brake pads")

	var buf strings.Builder
	require.NoError(t, ical.NewEncoder(&buf).Encode(cal))
	assert.Contains(t, buf.String(), "BEGIN:VEVENT")
}

func TestBuildCalendarDefaultsEnd(t *testing.T) {
	d := sampleDetail()
	d.EndTime = nil

	cal := BuildCalendar(d, time.UTC, time.Now())
	event := cal.Children[0]
	assert.Equal(t, "20250610T090000Z", event.Props.Get(ical.PropDateTimeStart).Value)
	assert.Equal(t, "20250610T100000Z", event.Props.Get(ical.PropDateTimeEnd).Value)
}

type recordingServer struct {
	mu     sync.Mutex
	status int
	paths  []string
	bodies []string
}

func (s *recordingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Method == http.MethodPut {
		s.paths = append(s.paths, r.URL.Path)
		s.bodies = append(s.bodies, string(body))
	}
	w.WriteHeader(s.status)
}

func (s *recordingServer) puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

func newPusher(t *testing.T, srv *recordingServer, threshold uint32) *CalDAVPusher {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	p, err := NewCalDAVPusher(CalDAVConfig{
		BaseURL:          ts.URL,
		Username:         "sync",
		Password:         "secret",
		CalendarPath:     "/calendars/workshop/",
		Location:         time.UTC,
		FailureThreshold: threshold,
		OpenTimeout:      time.Minute,
	}, nil)
	require.NoError(t, err)
	return p
}

func TestCalDAVPusherPutsEvent(t *testing.T) {
	srv := &recordingServer{status: http.StatusCreated}
	p := newPusher(t, srv, 3)

	ref, err := p.Push(context.Background(), sampleDetail())
	require.NoError(t, err)
	assert.Equal(t, "/calendars/workshop/appointment-7.ics", ref)

	require.Equal(t, 1, srv.puts())
	assert.Equal(t, "/calendars/workshop/appointment-7.ics", srv.paths[0])
	assert.Contains(t, srv.bodies[0], "UID:appointment-7@workshop-scheduler")
	assert.Contains(t, srv.bodies[0], "SUMMARY:repair: Acme Co.")
}

func TestCalDAVPusherOpensBreaker(t *testing.T) {
	srv := &recordingServer{status: http.StatusInternalServerError}
	p := newPusher(t, srv, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := p.Push(ctx, sampleDetail())
		require.Error(t, err)
	}

	_, err := p.Push(ctx, sampleDetail())
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState), "got %v", err)
	assert.Equal(t, 2, srv.puts())
}
