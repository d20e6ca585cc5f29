package app

import (
	"context"
	"time"

	"healthtrack/internal/domain"

	"go.uber.org/zap"
)

// ChartsService assembles the per-day series behind the calendar and
// weekly-chart views. Water comes from the local history cache; steps are
// fetched live from the health source for each day.
type ChartsService struct {
	// Now reports the current time; nil means time.Now.
	Now func() time.Time

	history *HistoryService
	source  domain.HealthSource
	log     *zap.Logger
}

// NewChartsService creates a ChartsService backed by the given history and
// source.
func NewChartsService(history *HistoryService, source domain.HealthSource, log *zap.Logger) *ChartsService {
	return &ChartsService{history: history, source: source, log: log}
}

// DayPoint is a single data point returned by GetDaily.
type DayPoint struct {
	Day     string  `json:"day"`
	WaterMl float64 `json:"waterMl"`
	Steps   float64 `json:"steps"`
}

// GetDaily returns per-day chart data for the last days days, oldest
// first. A failed steps query for a day yields 0 for that day.
func (s *ChartsService) GetDaily(ctx context.Context, days int) []DayPoint {
	if days <= 0 {
		days = 7
	}
	if days > 366 {
		days = 366
	}

	today := s.now()
	points := make([]DayPoint, 0, days)

	for i := days - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		day := domain.DayKey(d)
		start := domain.StartOfDay(d)
		end := start.AddDate(0, 0, 1)

		steps, err := s.source.CumulativeSum(ctx, domain.MetricSteps, start, end)
		if err != nil {
			s.log.Warn("steps query failed for day",
				zap.String("day", day), zap.Error(err))
			steps = 0
		}

		points = append(points, DayPoint{
			Day:     day,
			WaterMl: s.history.Get(day),
			Steps:   steps,
		})
	}
	return points
}

func (s *ChartsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
