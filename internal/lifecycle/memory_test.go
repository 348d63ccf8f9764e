package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGate(t *testing.T) {
	ctx := context.Background()
	gate := NewMemoryGate()

	paused, err := gate.Paused(ctx)
	require.NoError(t, err)
	assert.False(t, paused)

	require.NoError(t, gate.Pause(ctx))
	paused, err = gate.Paused(ctx)
	require.NoError(t, err)
	assert.True(t, paused)

	// Pausing twice is harmless.
	require.NoError(t, gate.Pause(ctx))
	paused, err = gate.Paused(ctx)
	require.NoError(t, err)
	assert.True(t, paused)

	require.NoError(t, gate.Resume(ctx))
	paused, err = gate.Paused(ctx)
	require.NoError(t, err)
	assert.False(t, paused)
}
