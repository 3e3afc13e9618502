package core

// scheduler.go prunes old run records in the background.
//
// The scheduler is long-running and context-aware for graceful shutdown. A
// failed purge is logged and retried on the next tick; it never stops the
// application.

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultRetentionDays     = 30
	defaultRetentionInterval = 24 * time.Hour
)

// StartRetentionScheduler purges runs older than cfg.Days immediately, then
// every cfg.CheckInterval, until ctx is cancelled.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	if cfg.Days <= 0 {
		cfg.Days = defaultRetentionDays
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = defaultRetentionInterval
	}

	slog.Info("retention scheduler started",
		"retention_days", cfg.Days,
		"check_interval", cfg.CheckInterval.String(),
	)

	s.runRetentionJob(ctx, cfg.Days)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			s.runRetentionJob(ctx, cfg.Days)
		}
	}
}

// runRetentionJob performs one purge cycle.
func (s *Service) runRetentionJob(ctx context.Context, days int) {
	start := time.Now()
	purged, err := s.PurgeOldRuns(ctx, days)
	if err != nil {
		slog.Error("run purge failed", "error", err)
		return
	}
	slog.Info("purged old runs",
		"runs_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// PurgeOldRuns deletes runs created more than days ago.
func (s *Service) PurgeOldRuns(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	n, err := s.store.PurgeBefore(ctx, cutoff)
	s.metrics.ObserveStore("purge", err)
	return n, err
}
