package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/retailpos-backend/pkg/logger"
	"github.com/angelmondragon/retailpos-backend/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

// Job is one unit of periodic housekeeping.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type SchedulerParams struct {
	Logger   *logger.Logger
	Lease    Lease
	Metrics  *metrics.JobMetrics
	Interval time.Duration
	Jobs     []Job
}

// Scheduler runs its jobs once at start and then on every interval tick,
// skipping cycles another instance already holds.
type Scheduler struct {
	logg     *logger.Logger
	lease    Lease
	metrics  *metrics.JobMetrics
	interval time.Duration
	jobs     []Job
}

func NewScheduler(params SchedulerParams) (*Scheduler, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lease == nil {
		return nil, errors.New("lease required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	jobs := make([]Job, 0, len(params.Jobs))
	for _, job := range params.Jobs {
		if job != nil {
			jobs = append(jobs, job)
		}
	}
	return &Scheduler{
		logg:     params.Logger,
		lease:    params.Lease,
		metrics:  params.Metrics,
		interval: interval,
		jobs:     jobs,
	}, nil
}

// Run blocks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.cycle(ctx); err != nil {
		s.logg.Error(ctx, "maintenance.cycle_failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.cycle(ctx); err != nil {
				s.logg.Error(ctx, "maintenance.cycle_failed", err)
			}
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) error {
	held, err := s.lease.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire lease: %w", err)
	}
	if !held {
		s.logg.Info(ctx, "maintenance.cycle_skipped")
		return nil
	}
	defer func() {
		if err := s.lease.Release(ctx); err != nil {
			s.logg.Error(ctx, "maintenance.lease_release_failed", err)
		}
	}()

	// a failing job does not stop the ones after it
	for _, job := range s.jobs {
		s.runJob(ctx, job)
	}
	return nil
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	ctx = s.logg.WithField(ctx, "job", job.Name())
	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)
	s.metrics.Observe(job.Name(), elapsed, err)

	ctx = s.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "maintenance.job_failed", err)
		return
	}
	s.logg.Info(ctx, "maintenance.job_completed")
}
