package challenge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
)

func TestInMemorySessionStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewInMemorySessionStore()
	sess := NewSession(domain.NewEntryID(), time.Now())

	require.NoError(t, store.Create(ctx, sess))
	assert.ErrorIs(t, store.Create(ctx, sess), sentinel.ErrConflict)

	token, err := store.GetToken(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, token, "fresh session is unsolved")

	require.NoError(t, store.PutToken(ctx, sess.ID, "tok-1"))
	token, err = store.GetToken(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.GetToken(ctx, sess.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemorySessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewInMemorySessionStore()
	sess := NewSession(domain.NewEntryID(), time.Now().Add(-SessionTTL-time.Minute))

	require.NoError(t, store.Create(ctx, sess))
	_, err := store.GetToken(ctx, sess.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.ErrorIs(t, store.PutToken(ctx, sess.ID, "late"), sentinel.ErrNotFound)
}

func TestStoreSurface(t *testing.T) {
	ctx := context.Background()
	store := NewInMemorySessionStore()
	sess := NewSession(domain.NewEntryID(), time.Now())
	surface := NewStoreSurface(store, sess)

	require.NoError(t, surface.Load(ctx))
	assert.Equal(t, sess.ID, surface.SessionID())

	require.NoError(t, store.PutToken(ctx, sess.ID, "tok-9"))
	token, err := surface.QueryToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-9", token)

	require.NoError(t, surface.Dispose(ctx))
	_, err = surface.QueryToken(ctx)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
