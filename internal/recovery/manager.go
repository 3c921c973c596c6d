package recovery

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kuuzuki-ai/kuuzuki/internal/kerror"
	"github.com/kuuzuki-ai/kuuzuki/internal/logging"
)

// Operation is a retryable unit of work. Results travel through the
// closure; the manager only sees success or failure.
type Operation func(ctx context.Context) error

// ErrorRecorder receives every classified failure.
type ErrorRecorder interface {
	RecordError(*kerror.KuuzukiError)
}

// Options describe the operation being executed.
type Options struct {
	// Operation names the circuit, e.g. "network_request".
	Operation string
	// Tool further scopes the circuit key when set.
	Tool      string
	SessionID string
	RequestID string

	// ResourceIntensive caps the operation at a single attempt
	// regardless of category.
	ResourceIntensive bool
}

// Manager runs operations under per-category retry strategies and the
// circuit breaker. Waits use timers selected against the caller's
// context, never thread-occupying sleeps.
type Manager struct {
	breaker  *CircuitBreaker
	recorder ErrorRecorder

	wait   func(ctx context.Context, d time.Duration) bool
	probes func(kerror.Category) (string, Probe)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithWait injects the delay function for tests.
func WithWait(wait func(ctx context.Context, d time.Duration) bool) ManagerOption {
	return func(m *Manager) { m.wait = wait }
}

// WithProbes injects the category-to-probe mapping for tests.
func WithProbes(probes func(kerror.Category) (string, Probe)) ManagerOption {
	return func(m *Manager) { m.probes = probes }
}

// NewManager creates a recovery manager. recorder may be nil when no
// analytics sink is wired.
func NewManager(breaker *CircuitBreaker, recorder ErrorRecorder, opts ...ManagerOption) *Manager {
	m := &Manager{
		breaker:  breaker,
		recorder: recorder,
		wait:     timerWait,
		probes:   probeFor,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Execute runs op, retrying per the classified error's strategy with
// exponential backoff, up to the strategy's attempt budget. Breaker
// failures are recorded per attempt, independent of the retry loop. On
// cancellation the most recent error is surfaced, never a synthetic
// cancellation error.
func (m *Manager) Execute(ctx context.Context, opts Options, op Operation) error {
	key := Key(opts.Operation, opts.Tool)
	ectx := kerror.Context{SessionID: opts.SessionID, RequestID: opts.RequestID}

	var (
		lastErr *kerror.KuuzukiError
		bo      backoff.BackOff
	)

	for attempt := 1; ; attempt++ {
		if !m.breaker.Allow(key) {
			if lastErr != nil {
				return lastErr
			}
			ke := kerror.NewCircuitOpenError(key).WithContext(ectx)
			m.record(ke)
			return ke
		}

		err := op(ctx)
		if err == nil {
			m.breaker.RecordSuccess(key)
			return nil
		}
		m.breaker.RecordFailure(key)

		ke := kerror.Classify(err, ectx)
		// Carry breadcrumbs from earlier attempts when the tool body
		// produced a fresh error instance. Copied into a fresh slice so
		// later appends never write into the prior error's backing array.
		if lastErr != nil && ke != lastErr {
			crumbs := make([]kerror.Breadcrumb, 0, len(lastErr.Breadcrumbs)+len(ke.Breadcrumbs))
			crumbs = append(crumbs, lastErr.Breadcrumbs...)
			ke.Breadcrumbs = append(crumbs, ke.Breadcrumbs...)
		}
		lastErr = ke
		m.record(ke)

		strat := StrategyFor(ke.Category)
		maxAttempts := strat.MaxAttempts()
		if opts.ResourceIntensive {
			maxAttempts = 1
		}

		if !strat.CanRecover || !ke.Recoverable || attempt >= maxAttempts {
			return m.terminal(ke, strat)
		}

		if name, probe := m.probes(ke.Category); probe != nil {
			ke.AddBreadcrumb(kerror.Breadcrumb{
				Attempt:    attempt,
				Probe:      name,
				Diagnostic: runProbe(ctx, probe),
			})
		} else {
			ke.AddBreadcrumb(kerror.Breadcrumb{Attempt: attempt})
		}

		if bo == nil {
			bo = newRetryBackoff(strat)
		}
		delay := bo.NextBackOff()
		if delay == backoff.Stop {
			return m.terminal(ke, strat)
		}

		logging.Debug().
			Str("circuit", key).
			Int("attempt", attempt).
			Dur("delay", delay).
			Str("category", string(ke.Category)).
			Msg("retrying after failure")

		if !m.wait(ctx, delay) {
			return lastErr
		}
	}
}

// terminal finalizes an error once retries are exhausted or the category
// is non-recoverable, attaching the strategy's fallback hint.
func (m *Manager) terminal(ke *kerror.KuuzukiError, strat Strategy) *kerror.KuuzukiError {
	if strat.Fallback != "" {
		if ke.Context.Metadata == nil {
			ke.Context.Metadata = make(map[string]any)
		}
		ke.Context.Metadata["fallback"] = strat.Fallback
	}
	return ke
}

func (m *Manager) record(ke *kerror.KuuzukiError) {
	if m.recorder != nil {
		m.recorder.RecordError(ke)
	}
}

// newRetryBackoff builds the delay schedule retryDelay, 2×retryDelay,
// 4×retryDelay and so on, without jitter so the schedule is exact.
func newRetryBackoff(strat Strategy) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = strat.RetryDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2.0
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// timerWait blocks for d or until ctx is done. Returns false on
// cancellation.
func timerWait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
