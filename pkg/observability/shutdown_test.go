package observability

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShutdownManager_DefaultTimeout(t *testing.T) {
	sm := NewShutdownManager(NopLogger(), 0)
	assert.Equal(t, 30*time.Second, sm.shutdownTimeout)

	sm = NewShutdownManager(NopLogger(), time.Second, &http.Server{}, &http.Server{})
	assert.Equal(t, time.Second, sm.shutdownTimeout)
	assert.Len(t, sm.servers, 2)
}

func TestShutdownManager_RunsFunctions(t *testing.T) {
	sm := NewShutdownManager(NopLogger(), time.Second, &http.Server{Addr: ":0"}, nil)

	var calls int32
	for i := 0; i < 3; i++ {
		sm.RegisterShutdownFunc(func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}

	require.NoError(t, sm.Shutdown())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestShutdownManager_CollectsErrors(t *testing.T) {
	sm := NewShutdownManager(NopLogger(), time.Second)

	boom := errors.New("session store close failed")
	sm.RegisterShutdownFunc(func(ctx context.Context) error { return boom })
	sm.RegisterShutdownFunc(func(ctx context.Context) error { return nil })

	err := sm.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestShutdownManager_RecoversPanics(t *testing.T) {
	sm := NewShutdownManager(NopLogger(), time.Second)
	sm.RegisterShutdownFunc(func(ctx context.Context) error { panic("watcher exploded") })

	assert.NotPanics(t, func() {
		assert.NoError(t, sm.Shutdown())
	})
}

func TestShutdownManager_Timeout(t *testing.T) {
	sm := NewShutdownManager(NopLogger(), 20*time.Millisecond)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		time.Sleep(500 * time.Millisecond)
		return nil
	})

	err := sm.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestRecoverPanic(t *testing.T) {
	t.Run("swallows panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			defer RecoverPanic(NopLogger(), "test")
			panic("boom")
		})
	})
}
