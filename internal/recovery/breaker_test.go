package recovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type breakerClock struct {
	t time.Time
}

func (c *breakerClock) now() time.Time { return c.t }

func (c *breakerClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker() (*CircuitBreaker, *breakerClock) {
	clock := &breakerClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewCircuitBreaker(WithBreakerClock(clock.now)), clock
}

func TestKey(t *testing.T) {
	assert.Equal(t, "network_request:providerX", Key("network_request", "providerX"))
	assert.Equal(t, "network_request", Key("network_request", ""))
	assert.Equal(t, "global", Key("", ""))
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	cb, _ := newTestBreaker()
	key := Key("network_request", "providerX")

	for i := 0; i < FailureThreshold-1; i++ {
		cb.RecordFailure(key)
		assert.True(t, cb.Allow(key), "circuit stays closed below the threshold")
	}

	cb.RecordFailure(key)
	assert.Equal(t, StateOpen, cb.State(key))
	assert.False(t, cb.Allow(key), "the next call short-circuits")
}

func TestBreakerAdmitsExactlyOneProbeAfterTimeout(t *testing.T) {
	cb, clock := newTestBreaker()
	key := "op:tool"

	for i := 0; i < FailureThreshold; i++ {
		cb.RecordFailure(key)
	}
	require.False(t, cb.Allow(key))

	clock.advance(OpenTimeout)

	assert.True(t, cb.Allow(key), "one probe admitted after the timeout")
	assert.Equal(t, StateHalfOpen, cb.State(key))
	assert.False(t, cb.Allow(key), "no second call while the probe is in flight")
}

func TestBreakerProbeSuccessClosesAndZeroes(t *testing.T) {
	cb, clock := newTestBreaker()
	key := "op:tool"

	for i := 0; i < FailureThreshold; i++ {
		cb.RecordFailure(key)
	}
	clock.advance(OpenTimeout)
	require.True(t, cb.Allow(key))

	cb.RecordSuccess(key)

	assert.Equal(t, StateClosed, cb.State(key))
	assert.Zero(t, cb.Failures(key))
	assert.True(t, cb.Allow(key))
}

func TestBreakerProbeFailureReopensAndRestartsTimeout(t *testing.T) {
	cb, clock := newTestBreaker()
	key := "op:tool"

	for i := 0; i < FailureThreshold; i++ {
		cb.RecordFailure(key)
	}
	clock.advance(OpenTimeout)
	require.True(t, cb.Allow(key))

	cb.RecordFailure(key)

	assert.Equal(t, StateOpen, cb.State(key))
	assert.False(t, cb.Allow(key))

	// Half the timeout is not enough after the failed probe.
	clock.advance(OpenTimeout / 2)
	assert.False(t, cb.Allow(key))

	clock.advance(OpenTimeout / 2)
	assert.True(t, cb.Allow(key), "full timeout after the failed probe admits another")
}

func TestBreakerKeysAreIndependent(t *testing.T) {
	cb, _ := newTestBreaker()

	for i := 0; i < FailureThreshold; i++ {
		cb.RecordFailure("op:a")
	}

	assert.False(t, cb.Allow("op:a"))
	assert.True(t, cb.Allow("op:b"))
	assert.True(t, cb.Allow("global"))
}
