package usecase

import (
	"context"
	"time"

	"ContentCurator/internal/ports"
)

// Scheduler wires the cron driver with the cycle use case.
type Scheduler struct {
	driver ports.Scheduler
	cycle  *Cycle
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.Scheduler, cycle *Cycle) *Scheduler {
	return &Scheduler{driver: driver, cycle: cycle}
}

// Start registers the cycle with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.cycle == nil {
		return nil
	}

	job := func(time.Time) {
		_ = s.cycle.Run(ctx)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
