package gate

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/devportal/pkg/contextkeys"
	"github.com/platinummonkey/devportal/pkg/httputil"
	"github.com/platinummonkey/devportal/pkg/sessionstore"
)

// Prober calls the passive probe endpoint and returns the HTTP status of
// whatever answered
type Prober interface {
	Probe(ctx context.Context) (int, error)
}

// ProberFunc adapts a function to the Prober interface
type ProberFunc func(ctx context.Context) (int, error)

// Probe calls f(ctx)
func (f ProberFunc) Probe(ctx context.Context) (int, error) {
	return f(ctx)
}

// HTTPProber requests the probe endpoint on behalf of the browser. The
// browser's session cookie is forwarded and redirects are not followed: a
// redirect towards the identity provider is itself a response.
type HTTPProber struct {
	url        string
	httpClient *http.Client
}

// NewHTTPProber creates a prober for the absolute probe URL
func NewHTTPProber(url string, httpClient *http.Client) *HTTPProber {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	client := *httpClient
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &HTTPProber{url: url, httpClient: &client}
}

// URL returns the probe URL
func (p *HTTPProber) URL() string {
	return p.url
}

// Probe issues the request and reports the response status
func (p *HTTPProber) Probe(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create probe request: %w", err)
	}

	if cookie := sessionstore.SessionCookie(ctx); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	if requestID := contextkeys.GetRequestID(ctx); requestID != "" {
		req.Header.Set(httputil.RequestIDHeader, requestID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode, nil
}
