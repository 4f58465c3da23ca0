package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"BurnSentinel/internal/pipeline"
)

// Scheduler triggers pipeline runs on a cron cadence and on demand.
// Each invocation gets its own deadline from the configured timeout
// budget so a slow upstream can never run past the next trigger.
type Scheduler struct {
	Cron    *cron.Cron
	Runner  *pipeline.Runner
	Timeout time.Duration
	Ctx     context.Context

	log *logrus.Entry
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner *pipeline.Runner, timeout time.Duration) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Runner:  runner,
		Timeout: timeout,
		Ctx:     ctx,
		log:     logrus.WithField("component", "scheduler"),
	}
}

// Register adds the periodic pipeline task.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.task); err != nil {
		return fmt.Errorf("register pipeline task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	s.log.Info("scheduler stopped")
}

// RunNow executes one pipeline run immediately (manual trigger /
// RUN_ON_START) and returns its report.
func (s *Scheduler) RunNow() *pipeline.RunReport {
	ctx, cancel := context.WithTimeout(s.Ctx, s.Timeout)
	defer cancel()
	return s.Runner.Run(ctx)
}

func (s *Scheduler) task() {
	report := s.RunNow()
	entry := s.log.WithFields(logrus.Fields{
		"status":   report.Status,
		"duration": report.Duration.String(),
	})
	if report.Err != nil {
		entry.WithError(report.Err).Warn("scheduled run finished")
		return
	}
	entry.Info("scheduled run finished")
}
