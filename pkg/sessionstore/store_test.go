package sessionstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/devportal/pkg/observability"
)

// runStoreContract exercises the behavior every backend must share
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		value, ok, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, value)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k1", "v1"))
		value, ok, err := store.Get(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v1", value)

		require.NoError(t, store.Set(ctx, "k1", "v2"))
		value, _, _ = store.Get(ctx, "k1")
		assert.Equal(t, "v2", value)
	})

	t.Run("set if absent", func(t *testing.T) {
		set, err := store.SetIfAbsent(ctx, "marker", "first")
		require.NoError(t, err)
		assert.True(t, set)

		set, err = store.SetIfAbsent(ctx, "marker", "second")
		require.NoError(t, err)
		assert.False(t, set)

		value, _, _ := store.Get(ctx, "marker")
		assert.Equal(t, "first", value)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "gone", "x"))
		require.NoError(t, store.Remove(ctx, "gone"))
		_, ok, err := store.Get(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.NoError(t, store.Remove(ctx, "never-existed"))

		set, err := store.SetIfAbsent(ctx, "gone", "again")
		require.NoError(t, err)
		assert.True(t, set, "removed key is absent again")
	})

	t.Run("set if absent is exclusive under concurrency", func(t *testing.T) {
		var winners int32
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				set, err := store.SetIfAbsent(ctx, "race", fmt.Sprintf("v%d", i))
				if err == nil && set {
					atomic.AddInt32(&winners, 1)
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, int32(1), winners)
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()
	runStoreContract(t, store)
}

func TestRedisStore_Contract(t *testing.T) {
	store, _, cleanup := setupRedisStoreTest(t)
	defer cleanup()
	runStoreContract(t, store)
}

func TestInstrument(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	store := Instrument(NewMemoryStore(time.Minute), metrics)

	runStoreContract(t, store)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SessionStoreOpsTotal.WithLabelValues("remove", "ok")))
	_, err := store.(Sweeper).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionStoreOpsTotal.WithLabelValues("sweep", "ok")))

	assert.Same(t, store, Instrument(store, nil), "nil metrics leaves store unwrapped")
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store, mr, cleanup := setupRedisStoreTest(t)
	defer cleanup()

	set, err := store.SetIfAbsent(ctx, "loginStatus", "check-Login-status")
	require.NoError(t, err)
	require.True(t, set)

	assert.Equal(t, time.Minute, mr.TTL("loginStatus"))

	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Get(ctx, "loginStatus")
	require.NoError(t, err)
	assert.False(t, ok)

	set, err = store.SetIfAbsent(ctx, "loginStatus", "check-Login-status")
	require.NoError(t, err)
	assert.True(t, set)
}

func TestRedisStore_Errors(t *testing.T) {
	ctx := context.Background()
	store, mr, _ := setupRedisStoreTest(t)
	defer store.Close()

	mr.Close()

	_, _, err := store.Get(ctx, "k")
	assert.ErrorContains(t, err, "redis get failed")

	_, err = store.SetIfAbsent(ctx, "k", "v")
	assert.ErrorContains(t, err, "redis setnx failed")
}

func TestNewRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewRedisClient("redis://"+mr.Addr(), 5)
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, 5, client.Options().PoolSize)

	_, err = NewRedisClient("invalid://url", 0)
	assert.ErrorContains(t, err, "invalid redis URL")

	_, err = NewRedisClient("redis://127.0.0.1:1", 0)
	assert.ErrorContains(t, err, "failed to connect to redis")
}

// setupRedisStoreTest creates a miniredis instance and returns the store and cleanup function
func setupRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := NewRedisClient("redis://"+mr.Addr(), 0)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create Redis client: %v", err)
	}

	store := NewRedisStore(client, time.Minute)
	cleanup := func() {
		store.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		b, err := Open(ctx, Options{Backend: "memory"}, nil)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, b.Store)
		assert.Nil(t, b.DB)
		assert.Nil(t, b.Redis)
	})

	t.Run("redis", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()

		b, err := Open(ctx, Options{Backend: "redis", RedisURL: "redis://" + mr.Addr(), TTL: time.Minute},
			observability.NewMetrics(prometheus.NewRegistry()))
		require.NoError(t, err)
		defer b.Store.Close()
		assert.NotNil(t, b.Redis)

		require.NoError(t, b.Store.Set(ctx, "k", "v"))
		assert.True(t, mr.Exists("k"))
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(ctx, Options{Backend: "cookie"}, nil)
		assert.ErrorContains(t, err, "unknown session store backend")
	})
}
