package theme

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/devportal/pkg/observability"
)

// notify reports a tenant on ch without blocking the watcher loop
func notify(ch chan string) func(string) {
	return func(tenant string) {
		select {
		case ch <- tenant:
		default:
		}
	}
}

func TestWatcher_ReportsTenantChanges(t *testing.T) {
	ctx := context.Background()
	store := setupFileStoreTest(t)
	require.NoError(t, store.Put(ctx, "acme.com", []byte(`{"themes":{"light":{}}}`)))

	changed := make(chan string, 16)
	watcher, err := NewWatcher(store, notify(changed), observability.NopLogger())
	require.NoError(t, err)
	watcher.Start()
	defer watcher.Close()

	path := filepath.Join(store.Root(), "acme.com", "apim", "defaultTheme.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"themes":{"light":{"palette":{}}}}`), 0644))

	select {
	case tenant := <-changed:
		assert.Equal(t, "acme.com", tenant)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported for edited theme")
	}
}

func TestWatcher_WatchesNewTenants(t *testing.T) {
	ctx := context.Background()
	store := setupFileStoreTest(t)

	changed := make(chan string, 16)
	watcher, err := NewWatcher(store, notify(changed), observability.NopLogger())
	require.NoError(t, err)
	watcher.Start()
	defer watcher.Close()

	require.NoError(t, store.Put(ctx, "new.tenant", []byte(`{}`)))

	select {
	case tenant := <-changed:
		assert.Equal(t, "new.tenant", tenant)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported for new tenant")
	}
}

func TestWatcher_CacheInvalidation(t *testing.T) {
	ctx := context.Background()
	store := setupFileStoreTest(t)
	require.NoError(t, store.Put(ctx, "acme.com", []byte(`{"themes":{"light":{"custom":{"title":{"prefix":"Old"}}}}}`)))

	cache := NewCachedResolver(NewStoreFetcher(store), 10, time.Hour, nil)
	th, err := cache.Fetch(ctx, "acme.com")
	require.NoError(t, err)
	require.Equal(t, "Old", th.Title())

	watcher, err := NewWatcher(store, cache.Invalidate, observability.NopLogger())
	require.NoError(t, err)
	watcher.Start()
	defer watcher.Close()

	require.NoError(t, store.Put(ctx, "acme.com", []byte(`{"themes":{"light":{"custom":{"title":{"prefix":"New"}}}}}`)))

	assert.Eventually(t, func() bool {
		th, err := cache.Fetch(ctx, "acme.com")
		return err == nil && th.Title() == "New"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_Close(t *testing.T) {
	store := setupFileStoreTest(t)
	watcher, err := NewWatcher(store, func(string) {}, observability.NopLogger())
	require.NoError(t, err)
	watcher.Start()
	assert.NoError(t, watcher.Close())
}
