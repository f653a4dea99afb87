package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/menuguard/pkg/observability"
)

// Purger removes expired entries; DBStore satisfies it
type Purger interface {
	Cleanup(ctx context.Context, policy RetentionPolicy) (int64, error)
}

// PurgeScheduler runs retention cleanup on a cron schedule
type PurgeScheduler struct {
	purger   Purger
	policy   RetentionPolicy
	schedule string
	recorder *Recorder
	logger   *observability.Logger
	metrics  *observability.Metrics
	timeout  time.Duration

	mu   sync.Mutex
	cron *cron.Cron
}

// NewPurgeScheduler validates schedule and returns an unstarted scheduler
func NewPurgeScheduler(purger Purger, policy RetentionPolicy, schedule string, recorder *Recorder, logger *observability.Logger, metrics *observability.Metrics) (*PurgeScheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	if policy.RetentionDays <= 0 {
		return nil, fmt.Errorf("retention days must be positive, got %d", policy.RetentionDays)
	}
	return &PurgeScheduler{
		purger:   purger,
		policy:   policy,
		schedule: schedule,
		recorder: recorder,
		logger:   logger,
		metrics:  metrics,
		timeout:  10 * time.Minute,
	}, nil
}

// Start schedules the purge job
func (s *PurgeScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		_, _ = s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule purge job: %w", err)
	}
	c.Start()
	s.cron = c

	s.logger.WithField("schedule", s.schedule).
		WithField("retention_days", s.policy.RetentionDays).
		Info("System log purge scheduled")
	return nil
}

// Stop halts scheduling and waits for a running job until ctx is done
func (s *PurgeScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs a single purge and records the outcome
func (s *PurgeScheduler) RunOnce(ctx context.Context) (deleted int64, err error) {
	defer observability.RecoverPanic(s.logger, "system log purge")

	start := time.Now()
	deleted, err = s.purger.Cleanup(ctx, s.policy)
	if s.metrics != nil {
		s.metrics.AuditPurgeDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.logger.WithError(err).Error("System log purge failed")
		s.recorder.Error(ctx, "", ActionLogCleanup, "scheduled system log cleanup failed", err.Error())
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.AuditPurgedTotal.Add(float64(deleted))
	}
	s.logger.WithField("deleted", deleted).Info("System log purge completed")
	s.recorder.Info(ctx, "", ActionLogCleanup,
		fmt.Sprintf("deleted %d system logs older than %d days", deleted, s.policy.RetentionDays))
	return deleted, nil
}
