// Package retry wraps exponential backoff for external provider calls
//
// Transient failures (network, timeout, 5xx-shaped errors) are retried up to
// a capped attempt count; everything else fails fast
package retry

import (
	"context"
	"errors"
	"net"
	"time"

	perr "cleanse/internal/platform/errors"

	"github.com/cenkalti/backoff/v4"
)

// Config bounds the retry loop
type Config struct {
	MaxAttempts int           // total attempts including the first; <=0 means default
	Initial     time.Duration // first backoff interval
	Max         time.Duration // backoff cap
	Multiplier  float64
}

// Default mirrors the tuning used for provider calls
func Default() Config {
	return Config{
		MaxAttempts: 3,
		Initial:     200 * time.Millisecond,
		Max:         5 * time.Second,
		Multiplier:  2.0,
	}
}

func (c Config) withDefaults() Config {
	d := Default()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.Initial <= 0 {
		c.Initial = d.Initial
	}
	if c.Max <= 0 {
		c.Max = d.Max
	}
	if c.Multiplier <= 1 {
		c.Multiplier = d.Multiplier
	}
	return c
}

// Do runs fn with exponential backoff until it succeeds, exhausts attempts,
// returns a non-transient error, or ctx is done
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.Initial
	bo.MaxInterval = cfg.Max
	bo.Multiplier = cfg.Multiplier
	bo.MaxElapsedTime = 0 // attempt count is the cap, not wall time

	var b backoff.BackOff = backoff.WithContext(bo, ctx)
	b = backoff.WithMaxRetries(b, uint64(cfg.MaxAttempts-1))

	return backoff.Retry(func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !Transient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

// Transient reports whether err warrants another attempt
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}

	switch perr.CodeOf(err) {
	case perr.ErrorCodeUnavailable, perr.ErrorCodeTooManyRequests:
		return true
	case perr.ErrorCodeUnauthorized, perr.ErrorCodeForbidden,
		perr.ErrorCodeInvalidArgument, perr.ErrorCodeValidation,
		perr.ErrorCodeFormat, perr.ErrorCodeClassification:
		return false
	}

	// backend-specific retry hints (eg Postgres SQLSTATE classes)
	return perr.Retryable(err)
}
