package sessionstore

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/devportal/pkg/contextkeys"
)

// DefaultCookieName is the browser session cookie
const DefaultCookieName = "portal_session"

// CookieConfig configures the browser session cookie
type CookieConfig struct {
	Name   string
	Path   string
	Secure bool
	TTL    time.Duration
}

// Middleware identifies the browser session. A request without a valid
// session cookie gets a fresh random id and the cookie is issued. The id and
// the serialized cookie are stored in the request context.
func Middleware(cfg CookieConfig) func(http.Handler) http.Handler {
	if cfg.Name == "" {
		cfg.Name = DefaultCookieName
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookie *http.Cookie
			if c, err := r.Cookie(cfg.Name); err == nil && validID(c.Value) {
				cookie = c
			} else {
				cookie = &http.Cookie{
					Name:     cfg.Name,
					Value:    uuid.NewString(),
					Path:     cfg.Path,
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   int(cfg.TTL.Seconds()),
				}
				http.SetCookie(w, cookie)
			}

			ctx := contextkeys.WithSessionID(r.Context(), cookie.Value)
			ctx = contextkeys.WithSessionCookie(ctx, (&http.Cookie{Name: cfg.Name, Value: cookie.Value}).String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// SessionID returns the browser session id stored by Middleware
func SessionID(ctx context.Context) string {
	return contextkeys.GetSessionID(ctx)
}

// SessionCookie returns the serialized session cookie stored by Middleware,
// suitable for a Cookie request header
func SessionCookie(ctx context.Context) string {
	return contextkeys.GetSessionCookie(ctx)
}
