package sessionstore

import (
	"context"
	"errors"
)

// Session is a view of a Store restricted to one browser session. It is the
// server-side stand-in for the browser's sessionStorage.
type Session struct {
	store Store
	id    string
}

// Scope returns the session view for the given browser session id
func Scope(store Store, id string) *Session {
	return &Session{store: store, id: id}
}

// FromContext scopes the store to the browser session carried by ctx
func FromContext(ctx context.Context, store Store) (*Session, error) {
	id := SessionID(ctx)
	if id == "" {
		return nil, errors.New("no browser session in context")
	}
	return Scope(store, id), nil
}

// ID returns the browser session id
func (s *Session) ID() string {
	return s.id
}

// Key returns the store key for a session-local key
func (s *Session) Key(key string) string {
	return "session:" + s.id + ":" + key
}

// Get returns the value of key in this session
func (s *Session) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, s.Key(key))
}

// Has reports whether key is present in this session
func (s *Session) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}

// Set writes key in this session
func (s *Session) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.Key(key), value)
}

// SetIfAbsent atomically writes key in this session when it is absent
func (s *Session) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	return s.store.SetIfAbsent(ctx, s.Key(key), value)
}

// Remove deletes key from this session
func (s *Session) Remove(ctx context.Context, key string) error {
	return s.store.Remove(ctx, s.Key(key))
}
