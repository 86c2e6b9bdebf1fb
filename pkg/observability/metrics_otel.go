package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer and meter name used across the portal
const InstrumentationName = "github.com/platinummonkey/devportal"

// Tracer returns the portal tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// OTelMetrics holds OpenTelemetry metric instruments for the bootstrap path.
// They are exported through the OTLP meter provider set up by InitOTel and
// are no-ops while OpenTelemetry is disabled.
type OTelMetrics struct {
	mountDuration metric.Float64Histogram
	settingsFetch metric.Int64Counter
	themeFetch    metric.Int64Counter
	gateDecisions metric.Int64Counter
}

// NewOTelMetrics creates the OTel instruments from the global meter provider
func NewOTelMetrics() (*OTelMetrics, error) {
	meter := otel.Meter(InstrumentationName)

	m := &OTelMetrics{}
	var err error

	m.mountDuration, err = meter.Float64Histogram(
		"devportal.bootstrap.duration",
		metric.WithDescription("Time until a mounted page has settled"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bootstrap duration histogram: %w", err)
	}

	m.settingsFetch, err = meter.Int64Counter(
		"devportal.settings.fetches",
		metric.WithDescription("Settings fetches by outcome"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings fetch counter: %w", err)
	}

	m.themeFetch, err = meter.Int64Counter(
		"devportal.theme.resolutions",
		metric.WithDescription("Theme resolutions by source"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create theme resolution counter: %w", err)
	}

	m.gateDecisions, err = meter.Int64Counter(
		"devportal.gate.decisions",
		metric.WithDescription("Passive login gate decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate decision counter: %w", err)
	}

	return m, nil
}

// RecordBootstrap records the settle time of one mount and the view it produced
func (m *OTelMetrics) RecordBootstrap(ctx context.Context, view string, duration time.Duration) {
	if m == nil {
		return
	}
	m.mountDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("view", view)))
}

// RecordSettingsFetch records a settings fetch outcome
func (m *OTelMetrics) RecordSettingsFetch(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.settingsFetch.Add(ctx, 1, metric.WithAttributes(attribute.Bool("error", err != nil)))
}

// RecordThemeResolution records where a theme came from (default, cache, remote, fallback)
func (m *OTelMetrics) RecordThemeResolution(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.themeFetch.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordGateDecision records the gate decision and its result
func (m *OTelMetrics) RecordGateDecision(ctx context.Context, decision, result string) {
	if m == nil {
		return
	}
	m.gateDecisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision", decision),
		attribute.String("result", result),
	))
}
