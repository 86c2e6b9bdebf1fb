// Package sessionstore provides browser-session scoped key-value storage.
//
// The portal keeps per-tab markers (the passive login redirect marker, the
// permission-denial marker, the signed-in user) on the server, keyed by the
// portal_session cookie. Values expire after a TTL that models the lifetime
// of the browser's session storage.
//
// # Backends
//
//	store := sessionstore.NewMemoryStore(30 * time.Minute)
//	// or
//	store := sessionstore.NewRedisStore(redisClient, ttl)
//	// or
//	store := sessionstore.NewSQLStore(db, ttl)
//
// Every backend implements SetIfAbsent as a single atomic operation: a mutex
// in memory, SETNX in Redis and INSERT ... ON CONFLICT in PostgreSQL.
//
// # Sessions
//
// Middleware issues the cookie and stores the session id in the request
// context. Handlers scope the store to that session:
//
//	sess, err := sessionstore.FromContext(r.Context(), store)
//	set, err := sess.SetIfAbsent(ctx, "loginStatus", "check-Login-status")
//
// # Expiry
//
// Redis expires keys natively. The memory and PostgreSQL stores are swept on
// a cron schedule by ExpirySweeper.
package sessionstore
