package theme

import (
	"context"

	"github.com/platinummonkey/devportal/pkg/observability"
)

// Resolution sources, used as metric labels
const (
	SourceDefault  = "default"
	SourceTenant   = "tenant"
	SourceFallback = "fallback"
)

// Resolver maps a tenant to the theme the page should use. It never fails:
// the default theme stands in for anything that cannot be fetched.
type Resolver struct {
	fetcher       Fetcher
	defaultTheme  *Theme
	defaultTenant string
	metrics       *observability.Metrics
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithDefaultTheme replaces the built-in default theme
func WithDefaultTheme(t *Theme) ResolverOption {
	return func(r *Resolver) {
		if t != nil {
			r.defaultTheme = t
		}
	}
}

// WithDefaultTenant replaces the default tenant sentinel
func WithDefaultTenant(tenant string) ResolverOption {
	return func(r *Resolver) {
		if tenant != "" {
			r.defaultTenant = tenant
		}
	}
}

// WithMetrics records resolutions in metrics
func WithMetrics(m *observability.Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver creates a resolver over fetcher
func NewResolver(fetcher Fetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher:       fetcher,
		defaultTheme:  Builtin(),
		defaultTenant: DefaultTenant,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default returns the default theme
func (r *Resolver) Default() *Theme {
	return r.defaultTheme
}

// IsDefaultTenant reports whether tenant resolves to the default theme
// without a fetch: no tenant, or the default tenant sentinel
func (r *Resolver) IsDefaultTenant(tenant string) bool {
	return tenant == "" || tenant == r.defaultTenant
}

// Resolve returns the tenant's theme, or the default theme when the tenant
// is the default one or its theme cannot be fetched. The result is never nil.
func (r *Resolver) Resolve(ctx context.Context, tenant string) *Theme {
	if r.IsDefaultTenant(tenant) {
		r.metrics.RecordThemeResolution(ctx, SourceDefault)
		return r.defaultTheme
	}

	theme, err := r.fetcher.Fetch(ctx, tenant)
	if err != nil || theme == nil {
		observability.FromContext(ctx).
			WithField("tenant", tenant).
			WithError(err).
			Debug("Tenant theme unavailable, using default theme")
		r.metrics.RecordThemeResolution(ctx, SourceFallback)
		return r.defaultTheme
	}

	r.metrics.RecordThemeResolution(ctx, SourceTenant)
	return theme
}
