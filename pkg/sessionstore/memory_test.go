package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestMemoryStore(ttl time.Duration) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(ttl)
	store.now = clock.Now
	return store, clock
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestMemoryStore(time.Minute)

	require.NoError(t, store.Set(ctx, "k", "v"))

	clock.Advance(59 * time.Second)
	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry expires exactly at the TTL")

	set, err := store.SetIfAbsent(ctx, "k", "fresh")
	require.NoError(t, err)
	assert.True(t, set, "expired entry counts as absent")

	value, _, _ := store.Get(ctx, "k")
	assert.Equal(t, "fresh", value)
}

func TestMemoryStore_SetRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestMemoryStore(time.Minute)

	require.NoError(t, store.Set(ctx, "k", "v"))
	clock.Advance(45 * time.Second)
	require.NoError(t, store.Set(ctx, "k", "v"))
	clock.Advance(45 * time.Second)

	_, ok, _ := store.Get(ctx, "k")
	assert.True(t, ok)
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestMemoryStore(time.Minute)

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "b", "2"))
	clock.Advance(30 * time.Second)
	require.NoError(t, store.Set(ctx, "c", "3"))
	clock.Advance(30 * time.Second)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, 1, store.Len())

	removed, err = store.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestMemoryStore_Closed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, _, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Set(ctx, "k", "v"), ErrClosed)
	_, err = store.SetIfAbsent(ctx, "k", "v")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Remove(ctx, "k"), ErrClosed)
	_, err = store.Sweep(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewMemoryStore_DefaultTTL(t *testing.T) {
	store := NewMemoryStore(0)
	assert.Equal(t, DefaultTTL, store.ttl)
}
