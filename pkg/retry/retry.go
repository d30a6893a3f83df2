// Package retry provides a small, composable pacing policy for "try until
// it works or until the bounds run out" loops.
//
// A Policy is built from up to three bounds and iterated with a
// range-over-func sequence. Each yielded Wait represents permission to make
// one attempt; any sleeping the policy imposes has already happened by the
// time the value is delivered, so consumers simply attempt on every
// iteration and break on success:
//
//	policy, err := retry.New(
//	    retry.WithMaxTime(5*time.Second),
//	    retry.WithBackoff(100*time.Millisecond),
//	)
//	if err != nil {
//	    return err
//	}
//	for range policy.Attempts() {
//	    if err = try(); err == nil {
//	        break
//	    }
//	}
//
// The bounds compose in a fixed order regardless of the order the options
// are given: an unbounded base sequence, then the attempt cap, then the
// time budget, then backoff pacing. That order is part of the contract;
// rearranging it changes how budgets are reported and capped.
//
// Pacing suspends the calling goroutine directly with time.Sleep. Policies
// carry no context and never inspect errors; the caller decides what
// success means. A policy is cheap to construct, and each call to Attempts
// returns an independent sequence whose clock starts when iteration begins.
package retry

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"time"
)

// ErrUnbounded is returned by New when no bound is configured. A policy
// that retries forever with no pacing can only be built deliberately, never
// by omission.
var ErrUnbounded = errors.New("retry: policy needs at least one bound (attempts, time, or backoff)")

// Wait is the value yielded before each attempt.
//
// Budgeted reports whether a wall-clock budget constrains the loop; when it
// is true, Budget holds the time remaining for further attempts after any
// backoff delay already taken. An unbudgeted Wait means "attempt now".
type Wait struct {
	Budget   time.Duration
	Budgeted bool
}

// Policy is an immutable, reusable description of retry bounds.
type Policy struct {
	maxAttempts int           // 0 = no attempt cap
	maxTime     time.Duration // 0 = no time budget
	backoff     time.Duration // 0 = no pacing

	// Seams for deterministic tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// Option configures a Policy under construction.
type Option func(*settings)

type settings struct {
	attempts    int
	attemptsSet bool
	maxTime     time.Duration
	maxTimeSet  bool
	backoff     time.Duration
	backoffSet  bool
}

// WithMaxAttempts caps the sequence at n attempts. n must be at least 1.
func WithMaxAttempts(n int) Option {
	return func(s *settings) {
		s.attempts = n
		s.attemptsSet = true
	}
}

// WithMaxTime bounds the sequence to a wall-clock budget measured from the
// moment iteration begins. The budget must be positive.
func WithMaxTime(d time.Duration) Option {
	return func(s *settings) {
		s.maxTime = d
		s.maxTimeSet = true
	}
}

// WithBackoff paces attempts with exponential delays: the n-th attempt
// (n ≥ 1, counting from zero) is preceded by a sleep of base × 2^(n−1),
// capped at the remaining time budget when one is present. The first
// attempt is never delayed. base must be positive.
func WithBackoff(base time.Duration) Option {
	return func(s *settings) {
		s.backoff = base
		s.backoffSet = true
	}
}

// New validates the requested bounds and builds a Policy. At least one
// option is required; zero or negative bound values are rejected rather
// than treated as "unset".
func New(opts ...Option) (*Policy, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	if !s.attemptsSet && !s.maxTimeSet && !s.backoffSet {
		return nil, ErrUnbounded
	}
	if s.attemptsSet && s.attempts < 1 {
		return nil, fmt.Errorf("retry: max attempts must be at least 1, got %d", s.attempts)
	}
	if s.maxTimeSet && s.maxTime <= 0 {
		return nil, fmt.Errorf("retry: time budget must be positive, got %v", s.maxTime)
	}
	if s.backoffSet && s.backoff <= 0 {
		return nil, fmt.Errorf("retry: backoff base must be positive, got %v", s.backoff)
	}

	return &Policy{
		maxAttempts: s.attempts,
		maxTime:     s.maxTime,
		backoff:     s.backoff,
		now:         time.Now,
		sleep:       time.Sleep,
	}, nil
}

// Attempts returns a fresh attempt sequence. The time budget, if any, is
// measured from the first pull. Iterate it once and discard it; breaking
// out early stops all further pacing immediately.
func (p *Policy) Attempts() iter.Seq[Wait] {
	seq := unbounded()
	if p.maxAttempts > 0 {
		seq = capAttempts(seq, p.maxAttempts)
	}
	if p.maxTime > 0 {
		seq = capTime(seq, p.maxTime, p.now)
	}
	if p.backoff > 0 {
		seq = pace(seq, p.backoff, p.sleep)
	}
	return seq
}

// unbounded yields "attempt now" forever. Never exposed on its own: New
// refuses to build a policy with no bound on top of it.
func unbounded() iter.Seq[Wait] {
	return func(yield func(Wait) bool) {
		for yield(Wait{}) {
		}
	}
}

// capAttempts passes through at most max values.
func capAttempts(inner iter.Seq[Wait], max int) iter.Seq[Wait] {
	return func(yield func(Wait) bool) {
		n := 0
		for w := range inner {
			if n >= max {
				return
			}
			if !yield(w) {
				return
			}
			n++
		}
	}
}

// capTime yields the full budget first without consuming an inner value,
// then converts each inner value into the remaining budget, stopping once
// it is spent. Composed with an attempt cap this admits one more attempt
// than the cap alone; that asymmetry is inherited behavior and relied on
// nowhere, but kept for compatibility with the sequence shape.
func capTime(inner iter.Seq[Wait], budget time.Duration, now func() time.Time) iter.Seq[Wait] {
	return func(yield func(Wait) bool) {
		start := now()
		if !yield(Wait{Budget: budget, Budgeted: true}) {
			return
		}
		for range inner {
			remaining := budget - now().Sub(start)
			if remaining <= 0 {
				return
			}
			if !yield(Wait{Budget: remaining, Budgeted: true}) {
				return
			}
		}
	}
}

// pace sleeps before every value after the first. The uncapped delay
// doubles per attempt and saturates instead of overflowing; the slept
// delay is capped at the reported budget, which is reduced by the time
// actually spent sleeping.
func pace(inner iter.Seq[Wait], base time.Duration, sleep func(time.Duration)) iter.Seq[Wait] {
	return func(yield func(Wait) bool) {
		first := true
		next := base
		for w := range inner {
			if first {
				first = false
				if !yield(w) {
					return
				}
				continue
			}

			delay := next
			if next <= math.MaxInt64/2 {
				next *= 2
			} else {
				next = math.MaxInt64
			}

			if w.Budgeted {
				delay = min(delay, w.Budget)
				w.Budget -= delay
			}
			sleep(delay)

			if !yield(w) {
				return
			}
		}
	}
}
