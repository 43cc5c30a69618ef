package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Pinger is any client with a health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitFor pings until it succeeds, doubling the delay between attempts.
func WaitFor(ctx context.Context, p Pinger, name string, maxRetries int, initialDelay time.Duration, log *zap.Logger) error {
	return WaitForRetryable(ctx, p, name, maxRetries, initialDelay, log, nil)
}

// WaitForRetryable is WaitFor with a classifier; a ping error for which
// retryable returns false ends the wait at once. A nil retryable retries everything.
func WaitForRetryable(ctx context.Context, p Pinger, name string, maxRetries int, initialDelay time.Duration, log *zap.Logger, retryable func(error) bool) error {
	var err error
	delay := initialDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = p.Ping(pingCtx)
		cancel()
		if err == nil {
			if attempt > 1 {
				log.Info(name+" connected", zap.Int("attempt", attempt))
			}
			return nil
		}
		if retryable != nil && !retryable(err) {
			return fmt.Errorf("%s: %w", name, err)
		}
		if attempt == maxRetries {
			break
		}

		log.Warn(name+" not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Int("maxRetries", maxRetries),
			zap.Duration("nextRetryIn", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s unavailable after %d attempts: %w", name, maxRetries, err)
}
