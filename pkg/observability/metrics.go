package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Bootstrap metrics
	BootstrapTotal        *prometheus.CounterVec
	BootstrapDuration     prometheus.Histogram
	SettingsFetchTotal    *prometheus.CounterVec
	ThemeResolutionsTotal *prometheus.CounterVec
	ThemeCacheTotal       *prometheus.CounterVec
	PassiveProbeTotal     *prometheus.CounterVec
	ActiveControllers     prometheus.Gauge

	// Session store metrics
	SessionStoreOpsTotal   *prometheus.CounterVec
	SessionStoreOpDuration *prometheus.HistogramVec
	SessionStoreSweptTotal prometheus.Counter

	otel *OTelMetrics
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devportal_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "devportal_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "devportal_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "route"},
		),

		BootstrapTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devportal_bootstrap_total",
				Help: "Total number of page bootstraps by rendered view",
			},
			[]string{"view"},
		),
		BootstrapDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "devportal_bootstrap_duration_seconds",
				Help:    "Time from mount until settings, theme and gate have settled",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		SettingsFetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devportal_settings_fetch_total",
				Help: "Total number of settings fetches",
			},
			[]string{"status"},
		),
		ThemeResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devportal_theme_resolutions_total",
				Help: "Total number of theme resolutions by source",
			},
			[]string{"source"},
		),
		ThemeCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devportal_theme_cache_total",
				Help: "Tenant theme cache lookups",
			},
			[]string{"result"},
		),
		PassiveProbeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devportal_passive_probe_total",
				Help: "Passive login gate outcomes",
			},
			[]string{"path", "result"},
		),
		ActiveControllers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "devportal_active_controllers",
				Help: "Number of mounted controllers held in the registry",
			},
		),

		SessionStoreOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devportal_session_store_ops_total",
				Help: "Total number of session store operations",
			},
			[]string{"op", "status"},
		),
		SessionStoreOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "devportal_session_store_op_duration_seconds",
				Help:    "Session store operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"op"},
		),
		SessionStoreSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "devportal_session_store_swept_total",
				Help: "Expired session entries removed by the sweeper",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.BootstrapTotal,
		m.BootstrapDuration,
		m.SettingsFetchTotal,
		m.ThemeResolutionsTotal,
		m.ThemeCacheTotal,
		m.PassiveProbeTotal,
		m.ActiveControllers,
		m.SessionStoreOpsTotal,
		m.SessionStoreOpDuration,
		m.SessionStoreSweptTotal,
	)

	return m
}

// WithOTel mirrors the bootstrap recordings into OpenTelemetry instruments
func (m *Metrics) WithOTel(o *OTelMetrics) *Metrics {
	m.otel = o
	return m
}

// RecordBootstrap records a settled mount and the view it rendered
func (m *Metrics) RecordBootstrap(ctx context.Context, view string, duration time.Duration) {
	if m == nil {
		return
	}
	m.BootstrapTotal.WithLabelValues(view).Inc()
	m.BootstrapDuration.Observe(duration.Seconds())
	m.otel.RecordBootstrap(ctx, view, duration)
}

// RecordSettingsFetch records the outcome of a settings fetch
func (m *Metrics) RecordSettingsFetch(ctx context.Context, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SettingsFetchTotal.WithLabelValues(status).Inc()
	m.otel.RecordSettingsFetch(ctx, err)
}

// RecordThemeResolution records where a resolved theme came from
func (m *Metrics) RecordThemeResolution(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.ThemeResolutionsTotal.WithLabelValues(source).Inc()
	m.otel.RecordThemeResolution(ctx, source)
}

// RecordThemeCache records a tenant theme cache lookup
func (m *Metrics) RecordThemeCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ThemeCacheTotal.WithLabelValues(result).Inc()
}

// RecordProbe records a passive login gate outcome
func (m *Metrics) RecordProbe(ctx context.Context, path, result string) {
	if m == nil {
		return
	}
	m.PassiveProbeTotal.WithLabelValues(path, result).Inc()
	m.otel.RecordGateDecision(ctx, path, result)
}

// ObserveSessionOp records one session store operation
func (m *Metrics) ObserveSessionOp(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SessionStoreOpsTotal.WithLabelValues(op, status).Inc()
	m.SessionStoreOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel prefers the mux route template so tenant and view ids do not
// explode label cardinality
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// InstrumentRouter installs HTTPMetricsMiddleware as router middleware, the
// only place where mux exposes the matched route. A nil metrics is a no-op.
func InstrumentRouter(router *mux.Router, metrics *Metrics) {
	if metrics == nil {
		return
	}
	router.Use(HTTPMetricsMiddleware(metrics))
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(serveMux *http.ServeMux, registry *prometheus.Registry) {
	serveMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
