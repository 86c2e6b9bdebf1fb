package gate

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/devportal/pkg/observability"
	"github.com/platinummonkey/devportal/pkg/sessionstore"
	"github.com/platinummonkey/devportal/pkg/settings"
)

// Probe results, used as metric labels
const (
	ResultRedirect = "redirect"
	ResultCleared  = "cleared"
	ResultResponse = "response"
	ResultError    = "error"
)

// Outcome is the effect of one gate run on the page state
type Outcome struct {
	Decision Decision
	State    State

	// Redirect is the full-page redirect target, set only when the external
	// branch sends the browser to the probe endpoint
	Redirect string

	AuthResponse bool
	ExternalIDP  bool

	// Err is the failure that stopped the run, already logged
	Err error
}

// Gate runs the passive login check
type Gate struct {
	appContext string
	prober     Prober
	metrics    *observability.Metrics
}

// New creates a gate for the application context (e.g. /devportal)
func New(appContext string, prober Prober, metrics *observability.Metrics) *Gate {
	return &Gate{
		appContext: appContext,
		prober:     prober,
		metrics:    metrics,
	}
}

// ProbeURL returns the redirect target of the external branch
func (g *Gate) ProbeURL() string {
	return g.appContext + ProbePath
}

// WithReturnTo adds the page the browser should come back to onto a probe
// redirect. target is a path with an optional query.
func WithReturnTo(redirect, target string) string {
	if target == "" {
		return redirect
	}
	u, err := url.Parse(redirect)
	if err != nil {
		return redirect
	}
	q := u.Query()
	q.Set(ReturnToParam, target)
	u.RawQuery = q.Encode()
	return u.String()
}

// Run evaluates the gate against the resolved settings and performs the
// chosen probe. It never retries and never returns an error; failures are
// logged and reported in Outcome.Err.
func (g *Gate) Run(ctx context.Context, sess *sessionstore.Session, cond Conditions, s *settings.Settings) (out Outcome) {
	out.Decision = Evaluate(cond, s)

	switch out.Decision {
	case AwaitSettings:
		out.State = AwaitingSettings
		return out
	case NotApplicable:
		out.State = StateNotApplicable
		return out
	}

	ctx, span := observability.StartSpan(ctx, "gate.run", attribute.String("decision", out.Decision.String()))
	defer func() { observability.EndSpan(span, out.Err) }()

	logger := observability.FromContext(ctx).WithField("decision", out.Decision.String())

	if out.Decision == ProbeExternal {
		g.runExternal(ctx, sess, &out, logger)
	} else {
		g.runDirect(ctx, &out, logger)
	}
	return out
}

// runExternal issues the one-time redirect, or consumes the marker of the
// redirect that brought the browser back. A store failure never redirects,
// so a broken store cannot cause a redirect loop.
func (g *Gate) runExternal(ctx context.Context, sess *sessionstore.Session, out *Outcome, logger *observability.Logger) {
	out.ExternalIDP = true

	if sess == nil {
		out.Err = errors.New("no browser session")
		out.State = Resolved
		logger.WithError(out.Err).Warn("Passive login check skipped")
		g.metrics.RecordProbe(ctx, out.Decision.String(), ResultError)
		return
	}

	set, err := sess.SetIfAbsent(ctx, LoginStatusKey, LoginStatusValue)
	if err != nil {
		out.Err = fmt.Errorf("failed to set login status marker: %w", err)
		out.State = Resolved
		logger.WithError(err).Warn("Passive login check skipped")
		g.metrics.RecordProbe(ctx, out.Decision.String(), ResultError)
		return
	}

	if set {
		out.Redirect = g.ProbeURL()
		out.State = ProbingExternal
		logger.WithField("redirect", out.Redirect).Debug("Redirecting to passive login probe")
		g.metrics.RecordProbe(ctx, out.Decision.String(), ResultRedirect)
		return
	}

	if err := sess.Remove(ctx, LoginStatusKey); err != nil {
		out.Err = fmt.Errorf("failed to clear login status marker: %w", err)
		logger.WithError(err).Warn("Failed to clear login status marker")
	}
	out.State = Resolved
	g.metrics.RecordProbe(ctx, out.Decision.String(), ResultCleared)
}

// runDirect probes the endpoint once. Any HTTP response counts; a transport
// failure leaves the gate probing, which keeps content suppressed.
func (g *Gate) runDirect(ctx context.Context, out *Outcome, logger *observability.Logger) {
	out.State = ProbingDirect

	status, err := g.prober.Probe(ctx)
	if err != nil {
		out.Err = fmt.Errorf("passive login probe failed: %w", err)
		logger.WithError(err).Error("Error while probing passive login")
		g.metrics.RecordProbe(ctx, out.Decision.String(), ResultError)
		return
	}

	logger.WithField("status", status).Debug("Passive login probe answered")
	out.AuthResponse = true
	out.State = Resolved
	g.metrics.RecordProbe(ctx, out.Decision.String(), ResultResponse)
}
