// Package retry re-runs a failed video download a bounded number of times,
// doubling the pause between attempts.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Config bounds the retries of one download. The zero value makes a single attempt.
type Config struct {
	// MaxRetries is the number of extra attempts after the first one.
	// Negative values count as zero.
	MaxRetries int
	// BaseDelay is the pause before the first retry. Defaults to 1ms.
	BaseDelay time.Duration
	// MaxDelay caps the doubled pause. Defaults to BaseDelay.
	MaxDelay time.Duration

	// OnRetry, if set, runs before each pause with the 1-based retry number,
	// the error of the previous attempt and the pause about to start.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (c Config) withDefaults() Config {
	c.MaxRetries = max(c.MaxRetries, 0)
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = c.BaseDelay
	}
	return c
}

// Do calls attempt until it succeeds, until retryable rejects its error, or
// until the retries run out. A canceled ctx ends the pause with ctx.Err().
//
// Errors are returned as is when no retry was configured; otherwise the last
// one is wrapped with the retry count.
func Do(ctx context.Context, cfg Config, attempt func() error, retryable func(error) bool) error {
	cfg = cfg.withDefaults()
	delay := cfg.BaseDelay

	err := attempt()
	for n := 1; err != nil && n <= cfg.MaxRetries; n++ {
		if !retryable(err) {
			return err
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(n, err, delay)
		}
		if werr := wait(ctx, delay); werr != nil {
			return werr
		}
		delay = min(delay*2, cfg.MaxDelay)
		err = attempt()
	}

	if err == nil || cfg.MaxRetries == 0 || !retryable(err) {
		return err
	}
	return fmt.Errorf("gave up after %d retries: %w", cfg.MaxRetries, err)
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
