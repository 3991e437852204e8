// Package retry runs operations under a bounded exponential backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

type Config struct {
	MaxAttempts int           // Maximum number of attempts, including the first one.
	BaseDelay   time.Duration // Base delay for exponential backoff.
	MaxDelay    time.Duration // Maximum delay between attempts.
	Jitter      bool          // Adds ±25% random variation to each delay.
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    10 * time.Second,
		Jitter:      true,
	}
}

// Retryable is implemented by errors that know whether repeating the
// failed operation can succeed.
type Retryable interface {
	IsRetryable() bool
}

// Do calls op until it succeeds, returns a non-retryable error, or
// cfg.MaxAttempts is reached. A MaxAttempts below 1 is treated as 1.
func Do(ctx context.Context, cfg Config, op func(context.Context) error) error {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry: cancelled before attempt %d: %w", attempt, err)
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry: cancelled: %w", ctx.Err())
		case <-time.After(Delay(attempt, cfg)):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", maxAttempts, lastErr)
}

// IsRetryable reports whether any error in err's chain asks to be retried.
func IsRetryable(err error) bool {
	var r Retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return false
}

// Delay returns the wait before the attempt following attempt:
// BaseDelay * 2^(attempt-1), capped at MaxDelay, with optional jitter.
func Delay(attempt int, cfg Config) time.Duration {
	exponential := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt-1))
	if cfg.MaxDelay > 0 && exponential > float64(cfg.MaxDelay) {
		exponential = float64(cfg.MaxDelay)
	}
	delay := time.Duration(exponential)

	if cfg.Jitter {
		jitter := float64(delay) * 0.25 * (rand.Float64()*2 - 1)
		delay = time.Duration(float64(delay) + jitter)
		if delay < 0 {
			delay = cfg.BaseDelay
		}
	}
	return delay
}
