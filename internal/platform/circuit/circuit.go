// Package circuit implements a rolling-window failure-rate circuit breaker
//
// The breaker trips open when the failure rate over a sliding time window
// crosses a threshold (given a minimum sample count). After a cooldown it
// admits a single half-open trial call: success closes the breaker, failure
// reopens it for another cooldown. State is queryable without a live call so
// health reporting can surface "unavailable" cheaply
package circuit

import (
	"context"
	"sync"
	"time"

	perr "cleanse/internal/platform/errors"
)

// State of a breaker
type State string

// States
const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// ErrOpen is returned by Do when the breaker refuses the call
var ErrOpen = perr.New(perr.ErrorCodeUnavailable, "circuit open")

// Option configures a Breaker
type Option func(*Breaker)

// WithWindow sets the rolling sample window
func WithWindow(d time.Duration) Option { return func(b *Breaker) { b.window = d } }

// WithFailureRate sets the trip threshold in [0,1]
func WithFailureRate(r float64) Option { return func(b *Breaker) { b.failureRate = r } }

// WithMinSamples sets the minimum observations before the rate is considered
func WithMinSamples(n int) Option { return func(b *Breaker) { b.minSamples = n } }

// WithCooldown sets how long the breaker stays open before a half-open trial
func WithCooldown(d time.Duration) Option { return func(b *Breaker) { b.cooldown = d } }

// WithClock injects a time source for tests
func WithClock(now func() time.Time) Option { return func(b *Breaker) { b.now = now } }

type sample struct {
	at   time.Time
	fail bool
}

// Breaker guards calls to one external dependency
type Breaker struct {
	name string

	window      time.Duration
	failureRate float64
	minSamples  int
	cooldown    time.Duration
	now         func() time.Time

	mu       sync.Mutex
	state    State
	samples  []sample
	openedAt time.Time
	trialing bool // half-open trial call in flight
}

// New constructs a closed Breaker with sane defaults
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:        name,
		window:      30 * time.Second,
		failureRate: 0.5,
		minSamples:  5,
		cooldown:    15 * time.Second,
		now:         time.Now,
		state:       StateClosed,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Name returns the breaker's dependency label
func (b *Breaker) Name() string { return b.name }

// State returns the current state, accounting for an elapsed cooldown
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// IsOpen reports whether calls are currently refused
func (b *Breaker) IsOpen() bool { return b.State() == StateOpen }

// Allow reserves permission for one call
// Open: false until the cooldown elapses, then a single half-open trial passes
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.stateLocked() {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.trialing {
			return false
		}
		b.trialing = true
		return true
	default:
		return false
	}
}

// RecordSuccess feeds a successful call outcome
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stateLocked() == StateHalfOpen {
		// trial succeeded, close and start fresh
		b.state = StateClosed
		b.samples = b.samples[:0]
		b.trialing = false
		return
	}
	b.observe(false)
}

// RecordFailure feeds a failed call outcome and may trip the breaker
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stateLocked() == StateHalfOpen {
		// trial failed, reopen for another cooldown
		b.state = StateOpen
		b.openedAt = b.now()
		b.trialing = false
		return
	}
	b.observe(true)

	if b.state != StateClosed {
		return
	}
	n := len(b.samples)
	if n < b.minSamples {
		return
	}
	fails := 0
	for _, s := range b.samples {
		if s.fail {
			fails++
		}
	}
	if float64(fails)/float64(n) >= b.failureRate {
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

// Reset force-closes the breaker and clears its window
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.samples = b.samples[:0]
	b.trialing = false
}

// Do runs fn under the breaker, mapping refusals to ErrOpen
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.Allow() {
		return ErrOpen
	}
	err := fn(ctx)
	if err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

// stateLocked resolves open -> half-open once the cooldown has elapsed
func (b *Breaker) stateLocked() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		b.state = StateHalfOpen
		b.trialing = false
	}
	return b.state
}

// observe appends an outcome and evicts samples outside the window
func (b *Breaker) observe(fail bool) {
	now := b.now()
	b.samples = append(b.samples, sample{at: now, fail: fail})

	cutoff := now.Add(-b.window)
	i := 0
	for ; i < len(b.samples); i++ {
		if b.samples[i].at.After(cutoff) {
			break
		}
	}
	if i > 0 {
		b.samples = append(b.samples[:0], b.samples[i:]...)
	}
}
