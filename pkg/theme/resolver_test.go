package theme

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/devportal/pkg/observability"
)

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	next := &countingFetcher{failing: map[string]bool{"broken": true}}
	resolver := NewResolver(next, WithMetrics(metrics))

	t.Run("no tenant uses default without fetch", func(t *testing.T) {
		assert.Same(t, resolver.Default(), resolver.Resolve(ctx, ""))
		assert.Equal(t, int32(0), next.calls.Load())
	})

	t.Run("default tenant uses default without fetch", func(t *testing.T) {
		assert.Same(t, resolver.Default(), resolver.Resolve(ctx, DefaultTenant))
		assert.Equal(t, int32(0), next.calls.Load())
	})

	t.Run("tenant theme", func(t *testing.T) {
		th := resolver.Resolve(ctx, "acme.com")
		assert.Equal(t, "acme.com", th.Custom.Title.Prefix)
		assert.Equal(t, int32(1), next.calls.Load())
	})

	t.Run("failure falls back to default", func(t *testing.T) {
		assert.Same(t, resolver.Default(), resolver.Resolve(ctx, "broken"))
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ThemeResolutionsTotal.WithLabelValues(SourceDefault)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ThemeResolutionsTotal.WithLabelValues(SourceTenant)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ThemeResolutionsTotal.WithLabelValues(SourceFallback)))
}

func TestResolver_NilThemeFallsBack(t *testing.T) {
	nilFetcher := FetcherFunc(func(ctx context.Context, tenant string) (*Theme, error) {
		return nil, nil
	})
	resolver := NewResolver(nilFetcher)
	assert.Same(t, resolver.Default(), resolver.Resolve(context.Background(), "acme.com"))
}

func TestResolver_Options(t *testing.T) {
	custom := &Theme{Custom: Custom{Title: Title{Prefix: "Custom"}}}
	resolver := NewResolver(&countingFetcher{},
		WithDefaultTheme(custom),
		WithDefaultTenant("super.tenant"),
		WithDefaultTheme(nil),
		WithDefaultTenant(""),
	)

	assert.Same(t, custom, resolver.Default())
	assert.True(t, resolver.IsDefaultTenant("super.tenant"))
	assert.False(t, resolver.IsDefaultTenant(DefaultTenant))
	assert.True(t, resolver.IsDefaultTenant(""))
}
