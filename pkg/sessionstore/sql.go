package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Schema creates the table used by SQLStore
const Schema = `
CREATE TABLE IF NOT EXISTS portal_session_entries (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    expires_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_portal_session_entries_expires ON portal_session_entries (expires_at);
`

// SQLStore is a PostgreSQL-backed session store
type SQLStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenPostgres opens a PostgreSQL connection with lib/pq and verifies it
func OpenPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// NewSQLStore wraps a database as a session store
func NewSQLStore(db *sql.DB, ttl time.Duration) *SQLStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SQLStore{db: db, ttl: ttl, now: time.Now}
}

// EnsureSchema creates the session table when missing
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create session schema: %w", err)
	}
	return nil
}

// Get returns the value stored under key
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM portal_session_entries WHERE key = $1 AND expires_at > $2`,
		key, s.now(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.wrap("select", err)
	}
	return value, true, nil
}

// Set stores value under key
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO portal_session_entries (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			expires_at = EXCLUDED.expires_at`,
		key, value, s.now().Add(s.ttl),
	)
	if err != nil {
		return s.wrap("upsert", err)
	}
	return nil
}

// SetIfAbsent inserts value under key, or replaces an expired row, in one
// statement. A live row is left untouched and zero rows are affected.
func (s *SQLStore) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	now := s.now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO portal_session_entries (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			expires_at = EXCLUDED.expires_at
		WHERE portal_session_entries.expires_at <= $4`,
		key, value, now.Add(s.ttl), now,
	)
	if err != nil {
		return false, s.wrap("insert", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, s.wrap("insert", err)
	}
	return affected == 1, nil
}

// Remove deletes key
func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM portal_session_entries WHERE key = $1`, key); err != nil {
		return s.wrap("delete", err)
	}
	return nil
}

// Sweep deletes expired rows
func (s *SQLStore) Sweep(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM portal_session_entries WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, s.wrap("sweep", err)
	}
	return result.RowsAffected()
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) wrap(op string, err error) error {
	if errors.Is(err, sql.ErrConnDone) {
		return ErrClosed
	}
	return fmt.Errorf("postgres %s failed: %w", op, err)
}
