// Package batch runs validations in fixed-size concurrent chunks
//
// A chunk's items run concurrently; the next chunk starts only after the
// previous one finishes, with an optional delay in between so external
// providers see a bounded request rate
package batch

import (
	"context"
	"time"

	"cleanse/internal/core/verdict"
	"cleanse/internal/platform/config"
	perr "cleanse/internal/platform/errors"
	"cleanse/internal/platform/logger"
)

// Config controls chunking and failure behavior
type Config struct {
	Concurrency     int           // chunk size, default 10
	Delay           time.Duration // pause between chunks
	ContinueOnError bool          // record failures instead of aborting
}

// FromConfig reads CORE_BATCH_* settings
func FromConfig(cfg config.Conf) Config {
	bf := cfg.Prefix("CORE_BATCH_")
	return Config{
		Concurrency:     bf.MayInt("CONCURRENCY", 10),
		Delay:           bf.MayDuration("DELAY", 0),
		ContinueOnError: bf.MayBool("CONTINUE_ON_ERROR", true),
	}
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 10
	}
	return c
}

// Outcome is one item's result, in input order
type Outcome struct {
	Index  int             `json:"index"`
	Result *verdict.Result `json:"result,omitempty"`
	Err    string          `json:"error,omitempty"`
}

// Fn validates the item at index i
type Fn func(ctx context.Context, i int) (*verdict.Result, error)

// Run validates n items through fn and returns outcomes in input order
// Without ContinueOnError the first failing chunk aborts the run; outcomes
// gathered so far are still returned
func Run(ctx context.Context, n int, cfg Config, fn Fn) ([]Outcome, error) {
	cfg = cfg.withDefaults()
	out := make([]Outcome, n)

	for start := 0; start < n; start += cfg.Concurrency {
		if err := ctx.Err(); err != nil {
			return out[:start], perr.Wrap(err, perr.ErrorCodeUnavailable, "batch canceled")
		}

		end := min(start+cfg.Concurrency, n)
		done := make(chan struct{})
		for i := start; i < end; i++ {
			go func(i int) {
				defer func() { done <- struct{}{} }()
				res, err := fn(ctx, i)
				o := Outcome{Index: i, Result: res}
				if err != nil {
					o.Err = err.Error()
				}
				out[i] = o
			}(i)
		}
		for i := start; i < end; i++ {
			<-done
		}

		if !cfg.ContinueOnError {
			for i := start; i < end; i++ {
				if out[i].Err != "" {
					logger.C(ctx).Warn().Int("index", i).Str("error", out[i].Err).Msg("batch aborted")
					return out[:end], perr.Newf(perr.ErrorCodeValidation, "batch item %d failed: %s", i, out[i].Err)
				}
			}
		}

		if cfg.Delay > 0 && end < n {
			select {
			case <-ctx.Done():
				return out[:end], perr.Wrap(ctx.Err(), perr.ErrorCodeUnavailable, "batch canceled")
			case <-time.After(cfg.Delay):
			}
		}
	}
	return out, nil
}
