package services

import (
	"context"
	"errors"
	"time"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

// RetryConfig configures exponential backoff for store operations.
type RetryConfig struct {
	MaxAttempts int           // Attempts including the first; values below 1 mean 1
	BaseDelay   time.Duration // Delay after the first failure
	MaxDelay    time.Duration // Upper bound of any delay
	Multiplier  float64       // Growth factor between delays
}

// publishRetryConfig derives the retry policy for store operations.
func publishRetryConfig(attempts int, base time.Duration) RetryConfig {
	return RetryConfig{
		MaxAttempts: max(attempts, 1),
		BaseDelay:   base,
		MaxDelay:    16 * base,
		Multiplier:  2,
	}
}

// delay returns the wait before the given retry (1 for the first retry).
func (c RetryConfig) delay(retry int) time.Duration {
	d := float64(c.BaseDelay)
	for i := 1; i < retry; i++ {
		d *= c.Multiplier
		if c.MaxDelay > 0 && d >= float64(c.MaxDelay) {
			return c.MaxDelay
		}
	}
	return time.Duration(d)
}

// permanent reports whether retrying err cannot help: the store rejected
// the request itself, or the caller gave up.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// retry runs op until it succeeds, fails permanently, runs out of
// attempts or ctx is done. The operation always runs at least once.
func retry(ctx context.Context, config RetryConfig, op func(context.Context) error) error {
	attempts := max(config.MaxAttempts, 1)
	var err error
	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil || permanent(err) || attempt == attempts {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		timer := time.NewTimer(config.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
