package core

// scheduler.go keeps the displayed catalog in step with the published
// sheet. A failed run is logged and the previous snapshot stays current;
// the next tick tries again.

import (
	"context"
	"log/slog"
	"time"
)

// StartRefreshScheduler refreshes immediately, then every interval, until
// ctx is cancelled. Run it in its own goroutine.
func (s *Service) StartRefreshScheduler(ctx context.Context, interval time.Duration) {
	slog.Info("refresh scheduler started", "interval", interval.String())

	s.runRefreshJob(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.runRefreshJob(ctx)
		}
	}
}

// runRefreshJob performs one refresh. Refresh itself logs the outcome.
func (s *Service) runRefreshJob(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	slog.Debug("scheduled refresh started")
	if _, err := s.Refresh(ctx); err != nil {
		slog.Warn("scheduled refresh failed; keeping previous snapshot",
			"error", err,
			"code", MapError(err).Code,
		)
	}
}
