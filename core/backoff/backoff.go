// Package backoff provides a bounded, overridable exponential retry-delay
// sequence shared by every outbound Discord call site.
package backoff

import (
	"context"
	"time"
)

const (
	defaultBase       = 500 * time.Millisecond
	defaultMaxDelay   = 16 * time.Second
	defaultMultiplier = 2.0
)

// Backoff yields successive wait durations for retrying a failed call.
// The zero number of retries means the sequence is unlimited and callers
// decide when to give up. Not safe for concurrent use; each call site owns
// its own instance.
type Backoff struct {
	base       time.Duration
	maxDelay   time.Duration
	multiplier float64
	maxRetries int

	attempts int
	exp      int
	override *time.Duration
}

// Option configures a Backoff.
type Option func(*Backoff)

// WithBase sets the first retry delay.
func WithBase(d time.Duration) Option {
	return func(b *Backoff) {
		if d > 0 {
			b.base = d
		}
	}
}

// WithMaxDelay caps individual delays.
func WithMaxDelay(d time.Duration) Option {
	return func(b *Backoff) {
		if d > 0 {
			b.maxDelay = d
		}
	}
}

// WithMultiplier sets the exponential growth factor.
func WithMultiplier(m float64) Option {
	return func(b *Backoff) {
		if m > 1 {
			b.multiplier = m
		}
	}
}

// WithMaxRetries bounds the number of delays produced before the sequence
// stops. Zero keeps the sequence unlimited.
func WithMaxRetries(n int) Option {
	return func(b *Backoff) {
		if n > 0 {
			b.maxRetries = n
		}
	}
}

// New returns a Backoff with the exponential defaults applied.
func New(opts ...Option) *Backoff {
	b := &Backoff{
		base:       defaultBase,
		maxDelay:   defaultMaxDelay,
		multiplier: defaultMultiplier,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Next yields the wait before the next retry. ok is false once the retry
// ceiling has been reached; the sequence simply stops producing.
func (b *Backoff) Next() (time.Duration, bool) {
	if b.maxRetries > 0 && b.attempts >= b.maxRetries {
		return 0, false
	}
	b.attempts++

	// An override counts against the retry ceiling but leaves the
	// exponential position untouched.
	if b.override != nil {
		d := *b.override
		b.override = nil
		return d, true
	}
	d := b.delay(b.exp)
	b.exp++
	return d, true
}

// Wait yields the next delay and sleeps it out. It returns false when the
// sequence is exhausted or ctx is cancelled first.
func (b *Backoff) Wait(ctx context.Context) bool {
	d, ok := b.Next()
	if !ok {
		return false
	}
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// SetNext overrides exactly the next yielded delay, typically with a
// server-supplied rate-limit wait. The exponential schedule resumes after.
func (b *Backoff) SetNext(d time.Duration) {
	if d < 0 {
		d = 0
	}
	b.override = &d
}

// Reset restarts the schedule and attempt counter and drops any pending
// override.
func (b *Backoff) Reset() {
	b.attempts = 0
	b.exp = 0
	b.override = nil
}

// Attempts returns how many delays have been yielded since construction or
// the last Reset.
func (b *Backoff) Attempts() int {
	return b.attempts
}

// MaxDelay exposes the configured delay ceiling so call sites can treat
// server waits beyond it as fatal.
func (b *Backoff) MaxDelay() time.Duration {
	return b.maxDelay
}

func (b *Backoff) delay(n int) time.Duration {
	d := float64(b.base)
	for i := 0; i < n; i++ {
		d *= b.multiplier
		if d >= float64(b.maxDelay) {
			return b.maxDelay
		}
	}
	if d > float64(b.maxDelay) {
		return b.maxDelay
	}
	return time.Duration(d)
}
