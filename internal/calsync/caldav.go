package calsync

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/sony/gobreaker/v2"

	"github.com/hackgods/workshop-scheduler/internal/appointment"
)

const productID = "-//Workshop Scheduler//Calendar Sync//EN"

// defaultDuration stands in for a missing end time.
const defaultDuration = time.Hour

type CalDAVConfig struct {
	BaseURL      string
	Username     string
	Password     string
	CalendarPath string
	// Location is the business timezone appointment times are read in.
	Location *time.Location
	// FailureThreshold consecutive failures open the breaker for
	// OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// CalDAVPusher writes each appointment as one VEVENT object.
type CalDAVPusher struct {
	client       *caldav.Client
	calendarPath string
	loc          *time.Location
	breaker      *gobreaker.CircuitBreaker[string]
	now          func() time.Time
}

func NewCalDAVPusher(cfg CalDAVConfig, logger *slog.Logger) (*CalDAVPusher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(httpClient, cfg.Username, cfg.Password), cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "caldav",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &CalDAVPusher{
		client:       client,
		calendarPath: strings.TrimSuffix(cfg.CalendarPath, "/") + "/",
		loc:          cfg.Location,
		breaker:      breaker,
		now:          time.Now,
	}, nil
}

// Push PUTs the appointment and returns the object path as its reference.
func (p *CalDAVPusher) Push(ctx context.Context, appt appointment.Detail) (string, error) {
	path := p.ObjectPath(appt.ID)
	cal := BuildCalendar(appt, p.loc, p.now())

	return p.breaker.Execute(func() (string, error) {
		if _, err := p.client.PutCalendarObject(ctx, path, cal); err != nil {
			return "", fmt.Errorf("put %s: %w", path, err)
		}
		return path, nil
	})
}

func (p *CalDAVPusher) ObjectPath(id int64) string {
	return fmt.Sprintf("%sappointment-%d.ics", p.calendarPath, id)
}

// EventUID is stable per appointment so a re-push replaces the event.
func EventUID(id int64) string {
	return fmt.Sprintf("appointment-%d@workshop-scheduler", id)
}

// BuildCalendar renders one appointment. Its wall-clock times are placed in
// loc and written as UTC.
func BuildCalendar(appt appointment.Detail, loc *time.Location, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	start := inLocation(appt.StartTime, loc)
	end := start.Add(defaultDuration)
	if appt.EndTime != nil {
		end = inLocation(*appt.EndTime, loc)
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, EventUID(appt.ID))
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
	event.Props.SetText(ical.PropSummary, fmt.Sprintf("%s: %s", appt.BusinessCategory, appt.CustomerName))
	event.Props.SetText(ical.PropDescription, describe(appt))

	cal.Children = append(cal.Children, event.Component)
	return cal
}

func describe(appt appointment.Detail) string {
	var lines []string
	if appt.StaffName != "" {
		lines = append(lines, "Staff: "+appt.StaffName)
	}
	if v := vehicle(appt); v != "" {
		lines = append(lines, "Vehicle: "+v)
	}
	if appt.Contact != nil {
		lines = append(lines, "Contact: "+*appt.Contact)
	}
	if appt.BusinessDetail != nil {
		lines = append(lines, "Detail: "+*appt.BusinessDetail)
	}
	if appt.Notes != nil {
		lines = append(lines, "Notes: "+*appt.Notes)
	}
	return strings.Join(lines, "\n")
}

func vehicle(appt appointment.Detail) string {
	var parts []string
	if appt.VehicleType != nil {
		parts = append(parts, *appt.VehicleType)
	}
	if appt.VehicleNumber != nil {
		parts = append(parts, *appt.VehicleNumber)
	}
	return strings.Join(parts, " ")
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}
