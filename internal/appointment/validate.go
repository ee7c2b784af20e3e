package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/workshop-scheduler/internal/validation"
)

// newAppointment checks every rule of the create form at once.
func (s *Service) newAppointment(ctx context.Context, in CreateInput) (*Appointment, error) {
	var v validation.Collector
	loc := s.clock.Location()
	now := s.clock.Now()

	name := strings.TrimSpace(in.CustomerName)
	category := strings.TrimSpace(in.BusinessCategory)
	v.Require("customer name", name)
	if in.StaffID <= 0 {
		v.Add("staff is required")
	}
	v.Require("business category", category)

	start := requireTime(&v, "start time", in.StartTime, loc)
	end := optionalTime(&v, "end time", in.EndTime, loc)
	actualStart := optionalTime(&v, "actual start time", in.ActualStartTime, loc)
	actualEnd := optionalTime(&v, "actual end time", in.ActualEndTime, loc)
	if start != nil && end != nil && end.Before(*start) {
		v.Add("end time must not be before start time")
	}
	if actualStart != nil && actualEnd != nil && actualEnd.Before(*actualStart) {
		v.Add("actual end time must not be before actual start time")
	}

	billing := BillingUnbilled
	if strings.TrimSpace(in.BillingStatus) != "" {
		b, err := ParseBillingStatus(in.BillingStatus)
		if err != nil {
			v.Add(err.Error())
		}
		billing = b
	}

	if in.StaffID > 0 {
		if err := s.requireStaff(ctx, &v, in.StaffID); err != nil {
			return nil, err
		}
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	return &Appointment{
		CustomerName:     name,
		StaffID:          in.StaffID,
		VehicleType:      optString(in.VehicleType),
		VehicleNumber:    optString(in.VehicleNumber),
		Contact:          optString(in.Contact),
		StartTime:        *start,
		EndTime:          end,
		ActualStartTime:  actualStart,
		ActualEndTime:    actualEnd,
		BusinessCategory: category,
		BusinessDetail:   optString(in.BusinessDetail),
		Notes:            optString(in.Notes),
		BillingStatus:    billing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// changesFor validates only the fields present in the patch. The start and
// end ordering check runs only when the patch carries a start or end time;
// it then compares the merged pair, taking the stored value for whichever
// one the patch leaves alone. A patch without time fields skips the check.
func (s *Service) changesFor(ctx context.Context, existing *Detail, in UpdateInput) (Changes, error) {
	var v validation.Collector
	loc := s.clock.Location()
	c := Changes{UpdatedAt: s.clock.Now()}

	if in.CustomerName != nil {
		name := strings.TrimSpace(*in.CustomerName)
		v.Require("customer name", name)
		c.CustomerName = &name
	}
	if in.StaffID != nil {
		if *in.StaffID <= 0 {
			v.Add("staff is required")
		} else {
			if err := s.requireStaff(ctx, &v, *in.StaffID); err != nil {
				return Changes{}, err
			}
			c.StaffID = in.StaffID
		}
	}
	if in.BusinessCategory != nil {
		category := strings.TrimSpace(*in.BusinessCategory)
		v.Require("business category", category)
		c.BusinessCategory = &category
	}

	startOK, endOK := true, true
	if in.StartTime != nil {
		c.StartTime = requireTime(&v, "start time", *in.StartTime, loc)
		startOK = c.StartTime != nil
	}
	if in.EndTime != nil {
		c.EndTime, endOK = patchTime(&v, "end time", *in.EndTime, loc)
	}
	if (in.StartTime != nil || in.EndTime != nil) && startOK && endOK {
		start := existing.StartTime
		if c.StartTime != nil {
			start = *c.StartTime
		}
		end := existing.EndTime
		if c.EndTime.Set {
			end = c.EndTime.Value
		}
		if end != nil && end.Before(start) {
			v.Add("end time must not be before start time")
		}
	}

	if in.ActualStartTime != nil {
		c.ActualStartTime, _ = patchTime(&v, "actual start time", *in.ActualStartTime, loc)
	}
	if in.ActualEndTime != nil {
		c.ActualEndTime, _ = patchTime(&v, "actual end time", *in.ActualEndTime, loc)
	}

	c.VehicleType = patchString(in.VehicleType)
	c.VehicleNumber = patchString(in.VehicleNumber)
	c.Contact = patchString(in.Contact)
	c.BusinessDetail = patchString(in.BusinessDetail)
	c.Notes = patchString(in.Notes)
	c.ExternalEventID = patchString(in.ExternalEventID)

	if in.BillingStatus != nil {
		b, err := ParseBillingStatus(*in.BillingStatus)
		if err != nil {
			v.Add(err.Error())
		} else {
			c.BillingStatus = &b
		}
	}

	if err := v.Err(); err != nil {
		return Changes{}, err
	}
	return c, nil
}

// requireStaff adds a problem when id names no live staff member. Storage
// failures are returned, not collected.
func (s *Service) requireStaff(ctx context.Context, v *validation.Collector, id int64) error {
	if s.staff == nil {
		return nil
	}
	ok, err := s.staff.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("look up staff %d: %w", id, err)
	}
	if !ok {
		v.Addf("staff member %d does not exist", id)
	}
	return nil
}

func requireTime(v *validation.Collector, field, s string, loc *time.Location) *time.Time {
	if strings.TrimSpace(s) == "" {
		v.Addf("%s is required", field)
		return nil
	}
	t, err := ParseTimestamp(s, loc)
	if err != nil {
		v.Addf("%s: %v", field, err)
		return nil
	}
	return &t
}

func optionalTime(v *validation.Collector, field, s string, loc *time.Location) *time.Time {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return requireTime(v, field, s, loc)
}

// patchTime reads an optional time from a patch; blank clears the column.
// ok is false when s is malformed.
func patchTime(v *validation.Collector, field, s string, loc *time.Location) (Nullable[time.Time], bool) {
	if strings.TrimSpace(s) == "" {
		return Clear[time.Time](), true
	}
	t := requireTime(v, field, s, loc)
	if t == nil {
		return Nullable[time.Time]{}, false
	}
	return SetTo(*t), true
}

func patchString(p *string) Nullable[string] {
	if p == nil {
		return Nullable[string]{}
	}
	if v := optString(*p); v != nil {
		return SetTo(*v)
	}
	return Clear[string]()
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
