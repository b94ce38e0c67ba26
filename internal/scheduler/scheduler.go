// Package scheduler runs block/allow jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a scheduled task.
type Job func(ctx context.Context) error

// jobTimeout bounds a single scheduled run; a wedged browser must not block
// the next firing forever.
const jobTimeout = 10 * time.Minute

// Scheduler manages periodic toggle runs.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// New creates a scheduler in the given timezone ("" means local time).
func New(timezone string, log *zap.Logger) (*Scheduler, error) {
	loc := time.Local
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
		}
	}

	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
		log:  log,
	}, nil
}

// AddJob registers a job under a standard cron spec, e.g. "0 21 * * *".
func (s *Scheduler) AddJob(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		s.log.Info("scheduled job starting", zap.String("job", name))
		start := time.Now()

		if err := job(ctx); err != nil {
			s.log.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.log.Info("scheduled job completed",
			zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("schedule job %s (%q): %w", name, spec, err)
	}

	s.log.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Start begins firing jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling; the returned context is done once running jobs
// finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
