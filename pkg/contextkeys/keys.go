// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the portal must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/devportal/pkg/contextkeys"
//	ctx = contextkeys.WithSessionID(ctx, id)
//	id := contextkeys.GetSessionID(ctx)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, outbound probe requests
	// Type: string
	RequestIDKey Key = "request_id"

	// SessionIDKey contains the browser session ID string
	// Set by: sessionstore.Middleware (pkg/sessionstore/middleware.go)
	// Required by: portal handlers, sso handlers
	// Type: string
	SessionIDKey Key = "session_id"

	// SessionCookieKey contains the raw session cookie header value
	// Set by: sessionstore.Middleware
	// Used by: gate.HTTPProber to forward the browser session on the passive probe
	// Type: string
	SessionCookieKey Key = "session_cookie"

	// LoggerKey contains *observability.Logger
	// Set by: httputil.LoggingMiddleware
	// Used by: Handlers that need structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"
)

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithSessionID adds the browser session ID to the context
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// WithSessionCookie adds the serialized session cookie to the context
func WithSessionCookie(ctx context.Context, cookie string) context.Context {
	return context.WithValue(ctx, SessionCookieKey, cookie)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetSessionID retrieves the browser session ID from context
func GetSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(SessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}

// GetSessionCookie retrieves the serialized session cookie from context
func GetSessionCookie(ctx context.Context) string {
	if cookie, ok := ctx.Value(SessionCookieKey).(string); ok {
		return cookie
	}
	return ""
}
