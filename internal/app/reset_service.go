package app

import (
	"context"
	"sync"
	"time"

	"healthtrack/internal/domain"

	"go.uber.org/zap"
)

// ResetResult reports the outcome of a day-rollover check.
type ResetResult struct {
	DidReset     bool
	PreviousDate time.Time
}

// ResetService detects the calendar-day transition and coordinates
// archival, zeroing and the downstream recompute. It is invoked at process
// start, on the periodic trigger and on the day-changed signal; redundant
// and concurrent calls are safe.
type ResetService struct {
	metrics *MetricsService
	log     *zap.Logger

	mu        sync.Mutex
	listeners []func(ResetResult)
}

// NewResetService creates a ResetService operating on the given metrics
// owner.
func NewResetService(metrics *MetricsService, log *zap.Logger) *ResetService {
	return &ResetService{metrics: metrics, log: log}
}

// OnReset registers a listener for reset events. Wire listeners during
// startup.
func (s *ResetService) OnReset(fn func(ResetResult)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// CheckAndReset compares now's calendar day against the last recorded
// update and resets the running values if the day has changed. Calling it
// again within the same day is a no-op.
func (s *ResetService) CheckAndReset(ctx context.Context, now time.Time) (ResetResult, error) {
	res, err := s.metrics.RolloverIfNeeded(ctx, now)
	if err != nil || !res.DidReset {
		return res, err
	}

	s.log.Info("running values reset for new day",
		zap.String("previousDay", domain.DayKey(res.PreviousDate)),
		zap.String("today", domain.DayKey(now)))

	s.mu.Lock()
	fns := append([]func(ResetResult){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(res)
	}
	return res, nil
}
