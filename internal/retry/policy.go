// Package retry contains the caller-side retry policies used
// around the non-blocking push/pop operations of the ring queue.
//
// The ring queue never waits: a full queue on push or an empty queue
// on pop is reported to the caller, which decides how to retry.
package retry

import (
	"context"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy is a retry policy. It is not safe for concurrent use:
// every producer/consumer owns its own policy.
type Policy interface {
	// Wait is called after an unsuccessful attempt.
	// It returns the context error once the context is done.
	Wait(ctx context.Context) error

	// Reset is called after a successful attempt.
	Reset()
}

// New returns the policy described by the configuration.
func New(cfg *Config) Policy {
	switch cfg.Kind {
	case KindSpin:
		return NewSpin(cfg.SpinCheckEvery)
	case KindBackoff:
		return NewBackoff(cfg.InitialInterval, cfg.MaxInterval, cfg.Multiplier)
	default:
		return NewYield()
	}
}

////////////
//  SPIN  //
////////////

var _ Policy = (*Spin)(nil)

// Spin is a busy-spin policy. Every checkEvery attempts it checks
// the context and yields the processor once, so the other side of the
// queue can run even when GOMAXPROCS is 1.
type Spin struct {
	checkEvery int
	attempts   int
}

// NewSpin returns a new busy-spin policy.
func NewSpin(checkEvery int) *Spin {
	return &Spin{
		checkEvery: max(1, checkEvery),
	}
}

// Wait implements the Policy interface.
func (s *Spin) Wait(ctx context.Context) error {
	s.attempts++
	if s.attempts < s.checkEvery {
		return nil
	}

	s.attempts = 0
	if err := ctx.Err(); err != nil {
		return err
	}

	runtime.Gosched()

	return nil
}

// Reset implements the Policy interface.
func (s *Spin) Reset() {
	s.attempts = 0
}

/////////////
//  YIELD  //
/////////////

var _ Policy = (*Yield)(nil)

// Yield is a policy that yields the processor to other goroutines
// between attempts.
type Yield struct{}

// NewYield returns a new yield policy.
func NewYield() *Yield {
	return &Yield{}
}

// Wait implements the Policy interface.
func (y *Yield) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runtime.Gosched()

	return nil
}

// Reset implements the Policy interface.
func (y *Yield) Reset() {}

///////////////
//  BACKOFF  //
///////////////

var _ Policy = (*Backoff)(nil)

// Backoff is an exponential backoff policy.
type Backoff struct {
	expBackoff *backoff.ExponentialBackOff
	timer      *time.Timer
}

// NewBackoff returns a new exponential backoff policy.
func NewBackoff(initialInterval, maxInterval time.Duration, multiplier float64) *Backoff {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = initialInterval
	expBackoff.MaxInterval = maxInterval
	expBackoff.Multiplier = multiplier
	expBackoff.Reset()

	return &Backoff{
		expBackoff: expBackoff,
	}
}

// Wait implements the Policy interface.
func (b *Backoff) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	interval := b.expBackoff.NextBackOff()
	if interval == backoff.Stop {
		interval = b.expBackoff.MaxInterval
	}

	if b.timer == nil {
		b.timer = time.NewTimer(interval)
	} else {
		b.timer.Reset(interval)
	}

	select {
	case <-ctx.Done():
		b.timer.Stop()
		return ctx.Err()
	case <-b.timer.C:
		return nil
	}
}

// Reset implements the Policy interface.
func (b *Backoff) Reset() {
	b.expBackoff.Reset()
}
