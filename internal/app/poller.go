package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/lectern/internal/learn"
)

const maxBackoff = 10 * time.Minute

// Refresher is the part of the tracker the poller drives.
type Refresher interface {
	RefreshProgress(ctx context.Context) (*learn.Progress, error)
	RefreshLessons(ctx context.Context) ([]learn.Lesson, error)
}

// StartPoller launches a background goroutine that refreshes progress and
// lessons every interval, backing off after consecutive failures. It returns
// immediately. A non-positive interval disables polling.
func StartPoller(ctx context.Context, r Refresher, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("poller")
	if interval <= 0 {
		logger.Info("background polling disabled")
		return
	}

	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()
		failures := 0

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if err := refresh(ctx, r); err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				wait := calculateBackoff(failures, interval)
				logger.Warn("poll failed",
					zap.Int("failures", failures),
					zap.Duration("retry_in", wait),
					zap.Error(err),
				)
				timer.Reset(wait)
				continue
			}
			if failures > 0 {
				logger.Info("poll recovered", zap.Int("after_failures", failures))
			}
			failures = 0
			timer.Reset(interval)
		}
	}()
}

func refresh(ctx context.Context, r Refresher) error {
	if _, err := r.RefreshProgress(ctx); err != nil {
		return err
	}
	if _, err := r.RefreshLessons(ctx); err != nil {
		return err
	}
	return nil
}

// calculateBackoff returns base·2^failures, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures < 0 {
		failures = 0
	}
	backoff := base
	for range failures {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return min(backoff, maxBackoff)
}
