//go:build integration

package delegate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "stow/pkg/domain"
	"stow/pkg/testutil/containers"
)

func TestPostgresStore_Integration(t *testing.T) {
	ctx := context.Background()
	pc := containers.NewPostgresContainer(t)
	pc.ApplySchema(t)
	store := NewPostgresStore(pc.DB)

	owner := id.NewIdentity()
	delegate := id.NewIdentity()

	ok, err := store.IsDelegate(ctx, owner, delegate)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Authorize(ctx, owner, delegate))
	// Idempotent upsert.
	require.NoError(t, store.Authorize(ctx, owner, delegate))

	ok, err = store.IsDelegate(ctx, owner, delegate)
	require.NoError(t, err)
	assert.True(t, ok)

	// Directional.
	ok, err = store.IsDelegate(ctx, delegate, owner)
	require.NoError(t, err)
	assert.False(t, ok)
}
