package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	MaxTotalTimeout time.Duration
	// Jitter spreads each delay by up to this fraction in either direction.
	Jitter float64
}

// DefaultConfig is the startup policy used while waiting for backing stores.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     10,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		BackoffFactor:   2.0,
		MaxTotalTimeout: 60 * time.Second,
		Jitter:          0.2,
	}
}

// QuickConfig is a short policy for calls made on background side-effect paths.
func QuickConfig() Config {
	return Config{
		MaxAttempts:     3,
		InitialDelay:    200 * time.Millisecond,
		MaxDelay:        2 * time.Second,
		BackoffFactor:   2.0,
		MaxTotalTimeout: 10 * time.Second,
	}
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var perm *permanentError
	return errors.As(err, &perm)
}

type delayedError struct {
	err   error
	after time.Duration
}

func (d *delayedError) Error() string { return d.err.Error() }
func (d *delayedError) Unwrap() error { return d.err }

// After marks err as retryable no sooner than wait, as when an upstream
// answers 429 with a Retry-After header.
func After(err error, wait time.Duration) error {
	if err == nil {
		return nil
	}
	return &delayedError{err: err, after: wait}
}

// Do executes the given function with exponential backoff retry logic
func Do(ctx context.Context, cfg Config, fn func() error) error {
	return DoWithLog(ctx, cfg, "operation", fn, nil)
}

// DoWithLog runs fn until it succeeds, returns a Permanent error, runs out of
// attempts or the context (bounded by MaxTotalTimeout) ends. logFn, when set,
// sees every failure that will be retried.
func DoWithLog(ctx context.Context, cfg Config, serviceName string, fn func() error, logFn func(attempt int, err error, nextDelay time.Duration)) error {
	if cfg.MaxTotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxTotalTimeout)
		defer cancel()
	}
	attempts := max(cfg.MaxAttempts, 1)

	var lastErr error
	base := cfg.InitialDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return aborted(serviceName, attempt-1, err, lastErr)
		}

		err := fn()
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		wait := cfg.spread(base)
		var delayed *delayedError
		if errors.As(err, &delayed) && delayed.after > wait {
			wait = delayed.after
		}
		if logFn != nil {
			logFn(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return aborted(serviceName, attempt, ctx.Err(), lastErr)
		case <-timer.C:
		}
		base = cfg.grow(base)
	}

	return fmt.Errorf("%s: max retry attempts (%d) exceeded: %w", serviceName, attempts, lastErr)
}

func (c Config) grow(d time.Duration) time.Duration {
	factor := c.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	next := time.Duration(float64(d) * factor)
	if c.MaxDelay > 0 && next > c.MaxDelay {
		next = c.MaxDelay
	}
	return next
}

func (c Config) spread(d time.Duration) time.Duration {
	if c.Jitter <= 0 || d <= 0 {
		return d
	}
	j := min(c.Jitter, 1)
	offset := (rand.Float64()*2 - 1) * j * float64(d)
	return d + time.Duration(offset)
}

func aborted(serviceName string, attempts int, ctxErr, lastErr error) error {
	if lastErr != nil {
		return fmt.Errorf("%s: retry aborted after %d attempts: %w (last error: %v)", serviceName, attempts, ctxErr, lastErr)
	}
	return fmt.Errorf("%s: retry aborted: %w", serviceName, ctxErr)
}
