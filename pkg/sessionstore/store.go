package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/devportal/pkg/observability"
)

// ErrClosed is returned when operations are attempted on a closed store
var ErrClosed = errors.New("session store is closed")

// DefaultTTL models the lifetime of browser session storage
const DefaultTTL = 30 * time.Minute

// Store is a key-value store for browser-session scoped values.
// Implementations must be safe for concurrent use. Keys passed to a Store are
// already scoped to a browser session (see Session).
type Store interface {
	// Get returns the value and true, or "" and false when the key is absent
	// or expired.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes the value, replacing any previous one, and refreshes its TTL.
	Set(ctx context.Context, key, value string) error

	// SetIfAbsent writes the value only when the key is absent or expired.
	// It reports whether this call stored the value. The check and the write
	// are a single atomic operation.
	SetIfAbsent(ctx context.Context, key, value string) (bool, error)

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Sweeper is implemented by stores whose expired entries must be removed
// explicitly. Redis expires keys natively and does not implement it.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Instrument wraps a store so every operation is recorded in metrics
func Instrument(store Store, metrics *observability.Metrics) Store {
	if metrics == nil {
		return store
	}
	return &instrumentedStore{next: store, metrics: metrics}
}

type instrumentedStore struct {
	next    Store
	metrics *observability.Metrics
}

func (s *instrumentedStore) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	value, ok, err := s.next.Get(ctx, key)
	s.metrics.ObserveSessionOp("get", start, err)
	return value, ok, err
}

func (s *instrumentedStore) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.next.Set(ctx, key, value)
	s.metrics.ObserveSessionOp("set", start, err)
	return err
}

func (s *instrumentedStore) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	start := time.Now()
	set, err := s.next.SetIfAbsent(ctx, key, value)
	s.metrics.ObserveSessionOp("set_if_absent", start, err)
	return set, err
}

func (s *instrumentedStore) Remove(ctx context.Context, key string) error {
	start := time.Now()
	err := s.next.Remove(ctx, key)
	s.metrics.ObserveSessionOp("remove", start, err)
	return err
}

func (s *instrumentedStore) Close() error {
	return s.next.Close()
}

// Unwrap returns the wrapped store
func (s *instrumentedStore) Unwrap() Store {
	return s.next
}

// Sweep forwards to the wrapped store when it supports sweeping
func (s *instrumentedStore) Sweep(ctx context.Context) (int64, error) {
	sweeper, ok := s.next.(Sweeper)
	if !ok {
		return 0, nil
	}
	start := time.Now()
	n, err := sweeper.Sweep(ctx)
	s.metrics.ObserveSessionOp("sweep", start, err)
	return n, err
}
