// Package scheduler provides cron-based scheduling of the alert
// reconciliation sweep.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepRunner is the reconciliation entry point the scheduler fires.
type SweepRunner interface {
	Sweep(ctx context.Context) (int, error)
}

// Config holds the scheduler configuration
type Config struct {
	// Schedule is a cron expression for when to run the sweep
	// (e.g. "*/5 * * * *" for every five minutes)
	Schedule string
	// Timeout is the maximum duration for one complete sweep pass
	Timeout time.Duration
	// Enabled determines if the scheduler should run
	Enabled bool
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Schedule: "*/5 * * * *",
		Timeout:  2 * time.Minute,
		Enabled:  true,
	}
}

// Scheduler manages the periodic sweep job. Each tick is a
// self-contained invocation; cron fires the next tick on schedule
// regardless of how the previous one went.
type Scheduler struct {
	cron    *cron.Cron
	runner  SweepRunner
	config  Config
	logger  *slog.Logger
	entryID cron.EntryID
}

// New creates a new Scheduler instance
func New(cfg Config, runner SweepRunner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		runner: runner,
		config: cfg,
		logger: logger,
	}
}

// Start begins the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Sweep scheduler is disabled, skipping start")
		return nil
	}

	// Convert standard cron (5 fields) to cron with seconds (6 fields)
	schedule := "0 " + s.config.Schedule

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return err
	}

	s.entryID = entryID
	s.cron.Start()

	s.logger.Info("Sweep scheduler started",
		slog.String("schedule", s.config.Schedule),
		slog.Duration("timeout", s.config.Timeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping sweep scheduler...")
	return s.cron.Stop()
}

// RunNow triggers an immediate sweep (useful for manual triggers)
func (s *Scheduler) RunNow() {
	go s.runSweep()
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug("Starting scheduled sweep pass")

	fired, err := s.runner.Sweep(ctx)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Sweep pass failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		return
	}

	s.logger.Info("Sweep pass completed",
		slog.Int("alerts_fired", fired),
		slog.Duration("duration", duration),
	)
}

// GetNextRunTime returns the next scheduled run time
func (s *Scheduler) GetNextRunTime() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	entry := s.cron.Entry(s.entryID)
	return entry.Next
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
