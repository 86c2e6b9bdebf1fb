package sessionstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/devportal/pkg/observability"
)

// Options selects and configures a backend
type Options struct {
	// Backend is memory, redis or postgres
	Backend       string
	RedisURL      string
	RedisPoolSize int
	PostgresURL   string
	TTL           time.Duration
}

// Backend is an opened store together with the raw clients, which the
// health checker pings
type Backend struct {
	Store Store
	DB    *sql.DB
	Redis *redis.Client
}

// Open connects the configured backend and wraps it with metrics
func Open(ctx context.Context, opts Options, metrics *observability.Metrics) (*Backend, error) {
	var b Backend

	switch opts.Backend {
	case "", "memory":
		b.Store = NewMemoryStore(opts.TTL)
	case "redis":
		client, err := NewRedisClient(opts.RedisURL, opts.RedisPoolSize)
		if err != nil {
			return nil, err
		}
		b.Redis = client
		b.Store = NewRedisStore(client, opts.TTL)
	case "postgres":
		db, err := OpenPostgres(ctx, opts.PostgresURL)
		if err != nil {
			return nil, err
		}
		store := NewSQLStore(db, opts.TTL)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		b.DB = db
		b.Store = store
	default:
		return nil, fmt.Errorf("unknown session store backend: %s", opts.Backend)
	}

	b.Store = Instrument(b.Store, metrics)
	return &b, nil
}
