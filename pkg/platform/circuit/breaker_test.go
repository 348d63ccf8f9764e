package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_InitialState(t *testing.T) {
	b := New("registry")
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "registry", b.Name())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("registry", WithFailureThreshold(3))

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	// Third consecutive failure opens the circuit.
	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())
}

func TestBreaker_ClosesAfterSuccessThreshold(t *testing.T) {
	b := New("registry", WithFailureThreshold(1), WithSuccessThreshold(2))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)
	assert.True(t, b.IsOpen())

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("registry", WithFailureThreshold(3))

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordSuccess()

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_FailureResetsSuccessCount(t *testing.T) {
	b := New("registry", WithFailureThreshold(1), WithSuccessThreshold(3))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.RecordSuccess()
	b.RecordSuccess()

	// A failure while open discards accumulated successes.
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.RecordSuccess()
	b.RecordSuccess()
	assert.True(t, b.IsOpen())
	b.RecordSuccess()
	assert.False(t, b.IsOpen())
}

func TestBreaker_OpenCircuitReturnsFallback(t *testing.T) {
	b := New("registry", WithFailureThreshold(1))

	b.RecordFailure()

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened)
}

func TestBreaker_AllowProbesAfterCooldown(t *testing.T) {
	b := New("registry", WithFailureThreshold(1), WithCooldown(time.Minute))

	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }

	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.False(t, b.Allow())

	// One probe is let through per cooldown window.
	clock = clock.Add(time.Minute)
	assert.True(t, b.Allow())
	assert.False(t, b.Allow())

	// A successful probe closes the circuit and restores normal flow.
	b.RecordSuccess()
	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
}

func TestBreaker_Reset(t *testing.T) {
	b := New("registry", WithFailureThreshold(1))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
}
