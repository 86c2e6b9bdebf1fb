package theme

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/devportal/pkg/observability"
)

// maxThemeSize bounds a hosted theme document
const maxThemeSize = 1 << 20

// Fetcher loads the light theme of a tenant
type Fetcher interface {
	Fetch(ctx context.Context, tenant string) (*Theme, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, tenant string) (*Theme, error)

// Fetch calls f(ctx, tenant)
func (f FetcherFunc) Fetch(ctx context.Context, tenant string) (*Theme, error) {
	return f(ctx, tenant)
}

// HTTPFetcher fetches tenant themes from their hosting location:
// {base}/site/public/tenant_themes/{tenant}/apim/defaultTheme.json
type HTTPFetcher struct {
	base       string
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher. base is the origin followed by the
// application context, e.g. https://portal.example.com/devportal.
func NewHTTPFetcher(base string, httpClient *http.Client) *HTTPFetcher {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &HTTPFetcher{base: base, httpClient: httpClient}
}

// URL returns the hosting URL of a tenant theme
func (f *HTTPFetcher) URL(tenant string) string {
	return f.base + "/site/public/tenant_themes/" + url.PathEscape(tenant) + "/apim/defaultTheme.json"
}

// Fetch retrieves and parses the tenant's theme document
func (f *HTTPFetcher) Fetch(ctx context.Context, tenant string) (theme *Theme, err error) {
	ctx, span := observability.StartSpan(ctx, "theme.fetch", attribute.String("tenant", tenant))
	defer func() { observability.EndSpan(span, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(tenant), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create theme request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch theme: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: tenant %s", ErrNotFound, tenant)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("theme fetch failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThemeSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read theme: %w", err)
	}

	return ParseDocument(data)
}

// StoreFetcher reads tenant themes straight from a hosting store, for
// deployments where this server also hosts the themes
type StoreFetcher struct {
	store Store
}

// NewStoreFetcher creates a fetcher over store
func NewStoreFetcher(store Store) *StoreFetcher {
	return &StoreFetcher{store: store}
}

// Fetch reads and parses the tenant's theme document
func (f *StoreFetcher) Fetch(ctx context.Context, tenant string) (theme *Theme, err error) {
	ctx, span := observability.StartSpan(ctx, "theme.fetch", attribute.String("tenant", tenant))
	defer func() { observability.EndSpan(span, err) }()

	if !ValidTenant(tenant) {
		return nil, ErrInvalidTenant
	}

	data, err := f.store.Get(ctx, tenant)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read theme: %w", err)
	}

	return ParseDocument(data)
}
