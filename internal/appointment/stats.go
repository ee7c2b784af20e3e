package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/hackgods/workshop-scheduler/internal/validation"
)

// StatisticsAggregator rolls appointments up per calendar month.
type StatisticsAggregator struct {
	repo Repository
}

func NewStatisticsAggregator(repo Repository) *StatisticsAggregator {
	return &StatisticsAggregator{repo: repo}
}

// Monthly counts appointments starting in [first of month, first of next
// month). Breakdowns only carry keys that occur.
func (s *StatisticsAggregator) Monthly(ctx context.Context, year, month int) (*MonthlyStatistics, error) {
	from, to, err := MonthBounds(year, month)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.MonthlyStatistics(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("monthly statistics: %w", err)
	}
	return stats, nil
}

// MonthBounds returns the half-open window of a 1-based month.
func MonthBounds(year, month int) (time.Time, time.Time, error) {
	var v validation.Collector
	if year < 1 || year > 9999 {
		v.Addf("year %d is out of range", year)
	}
	if month < 1 || month > 12 {
		v.Addf("month %d is not between 1 and 12", month)
	}
	if err := v.Err(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0), nil
}
