package mind

import (
	"sync"
	"time"
)

// BreakerState is the circuit breaker's current state (spec §4.1).
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	breakerFailureThreshold = 3
	breakerCooldown         = 30 * time.Second
)

// breaker is a per-Pathway circuit breaker: Closed after 3 consecutive
// failures it trips Open for a 30s cooldown, then allows one HalfOpen probe
// (spec §4.1). Adapted from the teacher's internal/circuitbreaker package,
// generalized from "Temporal dispatch" to "any pathway invocation".
type breaker struct {
	mu            sync.Mutex
	state         BreakerState
	failureCount  int
	lastTripped   time.Time
	onStateChange func(from, to BreakerState)

	nowFunc func() time.Time
}

func newBreaker() *breaker {
	return &breaker{state: BreakerClosed, nowFunc: time.Now}
}

// allow reports whether the next call should reach the client. While Open it
// rejects locally without contacting the client, until the cooldown elapses,
// at which point it transitions to HalfOpen and allows exactly one probe.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if b.nowFunc().After(b.lastTripped.Add(breakerCooldown)) {
			b.setState(BreakerHalfOpen)
			return true
		}
		return false
	case BreakerHalfOpen:
		return false
	default:
		return false
	}
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount = 0
	if b.state == BreakerHalfOpen {
		b.setState(BreakerClosed)
	}
}

func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount++
	switch b.state {
	case BreakerClosed:
		if b.failureCount >= breakerFailureThreshold {
			b.setState(BreakerOpen)
			b.lastTripped = b.nowFunc()
		}
	case BreakerHalfOpen:
		b.setState(BreakerOpen)
		b.lastTripped = b.nowFunc()
	}
}

func (b *breaker) currentState() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// setState transitions the breaker and fires the callback if registered.
// Caller must hold b.mu.
func (b *breaker) setState(to BreakerState) {
	from := b.state
	b.state = to
	if b.onStateChange != nil && from != to {
		b.onStateChange(from, to)
	}
}
