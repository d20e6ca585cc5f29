// Package trigger drives the periodic refresh and day-rollover checks.
package trigger

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler invokes the rollover check and the health refresh on a
// best-effort cadence. Downstream code never assumes exact timing; the
// rollover check itself is idempotent.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// New builds a Scheduler that runs refresh and resetCheck every fifteen
// minutes and an extra resetCheck at local midnight, which doubles as the
// calendar-day-changed signal.
func New(log *zap.Logger, refresh func(context.Context), resetCheck func(context.Context, time.Time)) (*Scheduler, error) {
	c := cron.New()

	if _, err := c.AddFunc("@every 15m", func() {
		ctx := context.Background()
		resetCheck(ctx, time.Now())
		refresh(ctx)
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc("0 0 * * *", func() {
		resetCheck(context.Background(), time.Now())
	}); err != nil {
		return nil, err
	}

	return &Scheduler{cron: c, log: log}, nil
}

// Start launches the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.log.Info("periodic trigger started")
	s.cron.Start()
}

// Stop halts the schedule; running jobs finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("periodic trigger stopped")
}
