// Package retry implements exponential backoff with jitter for
// transient upstream failures (spec.md §7: base 1s, factor 2, up to 3
// attempts, random jitter), grounded on the original
// utils/retry_logic.py calculate_backoff function and built on
// github.com/sethvargo/go-retry rather than hand-rolled sleep loops.
package retry

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/errkind"
)

// Config mirrors retry_logic.py's retry_async defaults.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultConfig matches spec.md §7: the first attempt plus up to 2
// retries, 3 attempts in all.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 2,
		BaseDelay:  1 * time.Second,
		MaxDelay:   60 * time.Second,
	}
}

// Do runs fn with exponential backoff and jitter, retrying only errors
// tagged errkind.TransientUpstream. Any other error returns immediately.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	backoff := retry.NewExponential(cfg.BaseDelay)
	backoff = retry.WithMaxRetries(uint64(cfg.MaxRetries), backoff)
	backoff = retry.WithCappedDuration(cfg.MaxDelay, backoff)
	backoff = retry.WithJitter(cfg.BaseDelay/2, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errkind.Is(err, errkind.TransientUpstream) {
			return retry.RetryableError(err)
		}
		return err
	})
}
