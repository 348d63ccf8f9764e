// Package circuit provides a small counting circuit breaker for calls into
// external collaborators (registry lookups, policy evaluators). The breaker
// only tracks state; the caller decides what its fallback is. For policy
// evaluation the fallback is always a rejection, so an unhealthy evaluator can
// deny access but never force it.
package circuit

import (
	"sync"
	"time"
)

// State of the breaker.
type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
)

// StateChange reports a transition caused by a recorded outcome.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker counts consecutive failures and successes. It opens after
// failureThreshold consecutive failures and closes again after
// successThreshold consecutive successes.
type Breaker struct {
	mu               sync.Mutex
	name             string
	state            State
	failureThreshold int
	successThreshold int
	failures         int
	successes        int
	cooldown         time.Duration
	openedAt         time.Time
	lastProbe        time.Time
	now              func() time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many consecutive successes close an open breaker.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithCooldown sets how long an open breaker waits before letting a probe
// call through.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// New creates a closed breaker with default thresholds (5 failures, 1 success)
// and a 30 second probe cooldown.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 1,
		cooldown:         30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the breaker's name, used for logging and metrics labels.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsOpen reports whether calls should take the fallback path.
func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// Allow reports whether the caller should attempt the primary path. It returns
// true while the breaker is closed, and once per cooldown period while open so
// a recovered collaborator can close the circuit again.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateClosed {
		return true
	}
	now := b.now()
	last := b.lastProbe
	if last.IsZero() {
		last = b.openedAt
	}
	if now.Sub(last) >= b.cooldown {
		b.lastProbe = now
		return true
	}
	return false
}

// RecordFailure notes a failed call. It returns whether the caller should use
// its fallback, and whether this outcome transitioned the breaker.
func (b *Breaker) RecordFailure() (useFallback bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes = 0
	if b.state == StateOpen {
		return true, StateChange{}
	}

	b.failures++
	if b.failures >= b.failureThreshold {
		b.state = StateOpen
		b.failures = 0
		b.openedAt = b.now()
		b.lastProbe = time.Time{}
		return true, StateChange{Opened: true}
	}
	return false, StateChange{}
}

// RecordSuccess notes a successful call. It returns whether the caller can use
// the primary path again, and whether this outcome transitioned the breaker.
func (b *Breaker) RecordSuccess() (usePrimary bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state == StateClosed {
		return true, StateChange{}
	}

	b.successes++
	if b.successes >= b.successThreshold {
		b.state = StateClosed
		b.successes = 0
		return true, StateChange{Closed: true}
	}
	return false, StateChange{}
}

// Reset forces the breaker closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
	b.openedAt = time.Time{}
	b.lastProbe = time.Time{}
}
