package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/workshop-scheduler/internal/clock"
	"github.com/hackgods/workshop-scheduler/internal/validation"
)

var sortAliases = map[string]SortField{
	"":              SortByStartTime,
	"start_time":    SortByStartTime,
	"startTime":     SortByStartTime,
	"customer_name": SortByCustomerName,
	"customerName":  SortByCustomerName,
	"staff_id":      SortByStaffID,
	"staffId":       SortByStaffID,
}

// QueryEngine serves the read side: filtered search plus the date range,
// today and unsynced views.
type QueryEngine struct {
	repo  Repository
	clock *clock.Clock
}

func NewQueryEngine(repo Repository, clk *clock.Clock) *QueryEngine {
	return &QueryEngine{repo: repo, clock: clk}
}

// Search returns the appointments matching every filter given. An empty
// result is not an error.
func (q *QueryEngine) Search(ctx context.Context, f Filter) ([]Detail, error) {
	c, err := CompileFilter(f, q.clock.Location())
	if err != nil {
		return nil, err
	}
	out, err := q.repo.Search(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("search appointments: %w", err)
	}
	return out, nil
}

// ByDateRange returns appointments starting on any day from startDate to
// endDate inclusive, earliest first.
func (q *QueryEngine) ByDateRange(ctx context.Context, startDate, endDate string) ([]Detail, error) {
	var v validation.Collector
	from := requireDate(&v, "start date", startDate, q.clock.Location())
	to := requireDate(&v, "end date", endDate, q.clock.Location())
	if from != nil && to != nil && to.Before(*from) {
		v.Add("end date must not be before start date")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return q.between(ctx, *from, to.AddDate(0, 0, 1))
}

// Today returns the appointments starting on the current business day.
func (q *QueryEngine) Today(ctx context.Context) ([]Detail, error) {
	today := q.clock.Today()
	return q.between(ctx, today, today.AddDate(0, 0, 1))
}

// Unsynced returns appointments with no external calendar reference whose
// staff member has authorised calendar sync.
func (q *QueryEngine) Unsynced(ctx context.Context) ([]Detail, error) {
	out, err := q.repo.Unsynced(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unsynced appointments: %w", err)
	}
	return out, nil
}

func (q *QueryEngine) between(ctx context.Context, from, to time.Time) ([]Detail, error) {
	out, err := q.repo.Search(ctx, Criteria{From: &from, To: &to, Sort: SortByStartTime})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

// CompileFilter validates f and turns it into storage criteria. Date bounds
// are inclusive days, so the upper bound becomes midnight after EndDate.
func CompileFilter(f Filter, loc *time.Location) (Criteria, error) {
	var v validation.Collector
	c := Criteria{
		Keyword:  strings.TrimSpace(f.Keyword),
		StaffIDs: f.StaffIDs,
	}

	for _, cat := range f.BusinessCategories {
		if cat = strings.TrimSpace(cat); cat != "" {
			c.BusinessCategories = append(c.BusinessCategories, cat)
		}
	}
	for _, s := range f.BillingStatuses {
		if strings.TrimSpace(s) == "" {
			continue
		}
		b, err := ParseBillingStatus(s)
		if err != nil {
			v.Add(err.Error())
			continue
		}
		c.BillingStatuses = append(c.BillingStatuses, b)
	}

	if strings.TrimSpace(f.StartDate) != "" {
		c.From = requireDate(&v, "start date", f.StartDate, loc)
	}
	if strings.TrimSpace(f.EndDate) != "" {
		if to := requireDate(&v, "end date", f.EndDate, loc); to != nil {
			next := to.AddDate(0, 0, 1)
			c.To = &next
		}
	}

	sort, ok := sortAliases[strings.TrimSpace(f.SortBy)]
	if !ok {
		v.Addf("sort by %q is not one of start_time, customer_name, staff_id", f.SortBy)
	}
	c.Sort = sort

	switch strings.ToLower(strings.TrimSpace(f.SortOrder)) {
	case "", "asc":
	case "desc":
		c.Descending = true
	default:
		v.Addf("sort order %q is not one of asc, desc", f.SortOrder)
	}

	if f.Limit < 0 {
		v.Add("limit must not be negative")
	}
	if f.Limit > 0 {
		c.Limit = f.Limit
		if f.Page > 1 {
			c.Offset = (f.Page - 1) * f.Limit
		}
	}

	if err := v.Err(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

func requireDate(v *validation.Collector, field, s string, loc *time.Location) *time.Time {
	if strings.TrimSpace(s) == "" {
		v.Addf("%s is required", field)
		return nil
	}
	t, err := ParseDate(s, loc)
	if err != nil {
		v.Addf("%s: %v", field, err)
		return nil
	}
	return &t
}
