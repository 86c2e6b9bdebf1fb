package settings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/devportal/pkg/observability"
)

// ErrUnexpectedStatus is returned when the settings API answers with a non-2xx status
var ErrUnexpectedStatus = errors.New("unexpected settings response status")

// maxSettingsSize bounds the settings payload read from the API
const maxSettingsSize = 1 << 20

// Client fetches the runtime settings
type Client interface {
	Fetch(ctx context.Context) (*Settings, error)
}

// ClientFunc adapts a function to the Client interface
type ClientFunc func(ctx context.Context) (*Settings, error)

// Fetch calls f(ctx)
func (f ClientFunc) Fetch(ctx context.Context) (*Settings, error) {
	return f(ctx)
}

// Static returns a client that always answers with s
func Static(s *Settings) Client {
	return ClientFunc(func(ctx context.Context) (*Settings, error) {
		return s, nil
	})
}

// HTTPClient fetches settings from the settings API over HTTP
type HTTPClient struct {
	url        string
	httpClient *http.Client
}

// NewHTTPClient creates a settings client for the given settings URL. A nil
// httpClient gets an instrumented client. The client sets no timeout of its
// own: a fetch runs until the API answers.
func NewHTTPClient(url string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &HTTPClient{url: url, httpClient: httpClient}
}

// URL returns the settings endpoint
func (c *HTTPClient) URL() string {
	return c.url
}

// Fetch retrieves and parses the settings payload
func (c *HTTPClient) Fetch(ctx context.Context) (settings *Settings, err error) {
	ctx, span := observability.StartSpan(ctx, "settings.fetch", attribute.String("url", c.url))
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	logger := observability.FromContext(ctx).WithField("url", c.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSettingsSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	settings, err = Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	logger.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("Settings fetched")
	return settings, nil
}
