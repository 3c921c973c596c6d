// Package recovery retries failed operations according to per-category
// strategies, under a per-operation circuit breaker, attaching diagnostic
// breadcrumbs from bounded probes between attempts.
package recovery

import (
	"sync"
	"time"

	"github.com/kuuzuki-ai/kuuzuki/internal/event"
	"github.com/kuuzuki-ai/kuuzuki/internal/logging"
)

// Circuit breaker parameters.
const (
	// FailureThreshold opens a circuit after this many recorded failures.
	FailureThreshold = 10
	// OpenTimeout is how long an open circuit blocks before admitting a
	// single probe.
	OpenTimeout = 60 * time.Second
)

// CircuitState is one circuit's position in the state machine.
type CircuitState string

const (
	StateClosed   CircuitState = "closed"
	StateOpen     CircuitState = "open"
	StateHalfOpen CircuitState = "half-open"
)

// Key builds a circuit key from an operation and optional tool name.
// With neither, everything shares the global circuit.
func Key(operation, tool string) string {
	if operation == "" {
		return "global"
	}
	if tool == "" {
		return operation
	}
	return operation + ":" + tool
}

type circuit struct {
	state       CircuitState
	failures    int
	lastFailure time.Time
	probing     bool
}

// CircuitBreaker tracks failure counts per key. It is an injected state
// object: production wiring composes exactly one per process, tests
// instantiate isolated instances. Access to a key's counters is
// serialized so concurrent failures are never under-counted.
type CircuitBreaker struct {
	mu       sync.Mutex
	circuits map[string]*circuit

	threshold int
	timeout   time.Duration
	now       func() time.Time
}

// BreakerOption configures a CircuitBreaker.
type BreakerOption func(*CircuitBreaker)

// WithBreakerThreshold overrides the failure threshold.
func WithBreakerThreshold(n int) BreakerOption {
	return func(cb *CircuitBreaker) { cb.threshold = n }
}

// WithBreakerTimeout overrides the open-circuit timeout.
func WithBreakerTimeout(d time.Duration) BreakerOption {
	return func(cb *CircuitBreaker) { cb.timeout = d }
}

// WithBreakerClock injects a clock for tests.
func WithBreakerClock(now func() time.Time) BreakerOption {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// NewCircuitBreaker creates a breaker with the default threshold and
// timeout.
func NewCircuitBreaker(opts ...BreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		circuits:  make(map[string]*circuit),
		threshold: FailureThreshold,
		timeout:   OpenTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Allow reports whether a call for this key may proceed. An open circuit
// blocks until the timeout elapses, then admits exactly one probe; the
// probe's outcome (RecordSuccess or RecordFailure) decides what happens
// next.
func (cb *CircuitBreaker) Allow(key string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[key]
	if !ok {
		return true
	}

	switch c.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		// A probe is already in flight.
		return false
	case StateOpen:
		if cb.now().Sub(c.lastFailure) < cb.timeout {
			return false
		}
		c.state = StateHalfOpen
		c.probing = true
		cb.publishTransition(key, c)
		return true
	}
	return true
}

// RecordSuccess closes the circuit and zeroes its failure count.
func (cb *CircuitBreaker) RecordSuccess(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[key]
	if !ok {
		return
	}
	changed := c.state != StateClosed || c.failures != 0
	c.state = StateClosed
	c.failures = 0
	c.probing = false
	if changed {
		cb.publishTransition(key, c)
	}
}

// RecordFailure counts a failure. Crossing the threshold opens the
// circuit; a failed probe reopens it and restarts the timeout.
func (cb *CircuitBreaker) RecordFailure(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[key]
	if !ok {
		c = &circuit{state: StateClosed}
		cb.circuits[key] = c
	}

	c.failures++
	c.lastFailure = cb.now()

	switch {
	case c.state == StateHalfOpen:
		c.state = StateOpen
		c.probing = false
		cb.publishTransition(key, c)
	case c.state == StateClosed && c.failures >= cb.threshold:
		c.state = StateOpen
		cb.publishTransition(key, c)
	}
}

// State returns the current state for a key.
func (cb *CircuitBreaker) State(key string) CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[key]
	if !ok {
		return StateClosed
	}
	return c.state
}

// Failures returns the current consecutive-failure count for a key.
func (cb *CircuitBreaker) Failures(key string) int {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[key]
	if !ok {
		return 0
	}
	return c.failures
}

// publishTransition emits a state-change event. Caller holds mu;
// delivery is asynchronous, so subscribers never run under the lock.
func (cb *CircuitBreaker) publishTransition(key string, c *circuit) {
	logging.Info().
		Str("circuit", key).
		Str("state", string(c.state)).
		Int("failures", c.failures).
		Msg("circuit state change")
	event.Publish(event.Event{
		Type: event.CircuitStateChange,
		Data: event.CircuitStateChangeData{
			Key:      key,
			State:    string(c.state),
			Failures: c.failures,
		},
	})
}
