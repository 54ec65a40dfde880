package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGetDelete(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	sess := New()
	sess.Append(SpeakerUser, "hello")
	require.NoError(t, store.Put(ctx, sess))

	loaded, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Len(t, loaded.History, 1)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	sess := New()
	require.NoError(t, store.Put(ctx, sess))

	first, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	first.LastIntent = "VPN"

	second, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, second.LastIntent, "mutating a loaded session must not leak into the store")
}

func TestMemoryStore_SweepDropsExpired(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	live := New()
	stale := New()
	require.NoError(t, store.Put(ctx, stale))

	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Put(ctx, live))

	removed := store.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	_, err := store.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, live.ID)
	assert.NoError(t, err)
}

func TestMemoryStore_Closed(t *testing.T) {
	store := NewMemoryStore(0)
	require.NoError(t, store.Close())

	_, err := store.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, store.Put(context.Background(), New()), ErrStoreClosed)
}
