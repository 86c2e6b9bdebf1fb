package portal

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/devportal/pkg/gate"
	"github.com/platinummonkey/devportal/pkg/observability"
	"github.com/platinummonkey/devportal/pkg/sessionstore"
	"github.com/platinummonkey/devportal/pkg/settings"
	"github.com/platinummonkey/devportal/pkg/theme"
)

// SessionState is the state of one mounted page
type SessionState struct {
	// Settings is nil until the settings fetch resolves and never reverts to nil
	Settings *settings.Settings

	// TenantDomain is "" when no tenant is known
	TenantDomain string

	// Theme is nil until the first resolution completes
	Theme *theme.Theme

	AuthResponse bool
	ExternalIDP  bool

	// Redirect is a pending full-page redirect
	Redirect string
}

// Services are the collaborators shared by every controller
type Services struct {
	AppContext string
	Mode       gate.Mode
	Settings   settings.Client
	Themes     *theme.Resolver
	Gate       *gate.Gate
	Metrics    *observability.Metrics
}

// Controller is the root of one page load. It loads settings, resolves the
// theme and runs the passive login gate, then holds the resulting state for
// the exposed context API.
type Controller struct {
	id   string
	svc  *Services
	sess *sessionstore.Session

	mu        sync.RWMutex
	state     SessionState
	cond      gate.Conditions
	gateState gate.State
	themeGen  uint64
}

// NewController creates an unmounted controller. sess may be nil when the
// request carries no browser session.
func NewController(svc *Services, sess *sessionstore.Session) *Controller {
	return &Controller{
		id:        uuid.NewString(),
		svc:       svc,
		sess:      sess,
		cond:      gate.Conditions{Passive: svc.Mode.Passive, NonAnonymous: svc.Mode.NonAnonymous},
		gateState: gate.Idle,
	}
}

// ID returns the view id under which the controller is registered
func (c *Controller) ID() string {
	return c.id
}

// SessionID returns the browser session that mounted the controller
func (c *Controller) SessionID() string {
	if c.sess == nil {
		return ""
	}
	return c.sess.ID()
}

// Mount runs the settings load and the theme resolution concurrently and
// returns when both have finished. The gate runs after the settings load,
// with the loaded value. Request cancellation does not stop a started mount.
func (c *Controller) Mount(ctx context.Context, tenant string) {
	ctx = context.WithoutCancel(ctx)
	logger := observability.FromContext(ctx).WithField("view", c.id)
	ctx = observability.WithLogger(ctx, logger)

	ctx, span := observability.StartSpan(ctx, "portal.mount",
		attribute.String("view", c.id),
		attribute.String("tenant", tenant),
	)

	c.loadConditions(ctx)

	c.mu.Lock()
	c.state.TenantDomain = tenant
	c.themeGen++
	gen := c.themeGen
	c.gateState = gate.AwaitingSettings
	c.mu.Unlock()

	var g errgroup.Group
	g.Go(func() (err error) {
		defer observability.RecoverPanic(logger, "settings load")
		return c.loadSettings(ctx)
	})
	g.Go(func() error {
		defer observability.RecoverPanic(logger, "theme resolution")
		c.resolveTheme(ctx, gen, tenant)
		return nil
	})

	err := g.Wait()
	if err != nil {
		logger.WithError(err).Error("Error while receiving settings")
	}
	observability.EndSpan(span, err)
}

func (c *Controller) loadConditions(ctx context.Context) {
	if c.sess == nil {
		return
	}

	cond, err := gate.LoadConditions(ctx, c.sess, c.svc.Mode)
	if err != nil {
		observability.FromContext(ctx).WithError(err).Warn("Failed to read session markers")
	}

	c.mu.Lock()
	c.cond = cond
	c.mu.Unlock()
}

func (c *Controller) loadSettings(ctx context.Context) error {
	s, err := c.svc.Settings.Fetch(ctx)
	c.svc.Metrics.RecordSettingsFetch(ctx, err)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	c.SetSettings(s)
	c.runGate(ctx, s)
	return nil
}

func (c *Controller) runGate(ctx context.Context, s *settings.Settings) {
	c.mu.Lock()
	cond := c.cond
	c.gateState = gate.Deciding
	c.mu.Unlock()

	out := c.svc.Gate.Run(ctx, c.sess, cond, s)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gateState = out.State
	if out.AuthResponse {
		c.state.AuthResponse = true
	}
	if out.ExternalIDP {
		c.state.ExternalIDP = true
	}
	if out.Redirect != "" {
		c.state.Redirect = out.Redirect
	}
}

// resolveTheme stores the theme only if no newer resolution was started
func (c *Controller) resolveTheme(ctx context.Context, gen uint64, tenant string) {
	t := c.svc.Themes.Resolve(ctx, tenant)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.themeGen {
		c.state.Theme = t
	}
}

// SetTenantDomain records the tenant and re-resolves the theme. When calls
// overlap, the most recent one wins.
func (c *Controller) SetTenantDomain(ctx context.Context, tenant string) {
	c.mu.Lock()
	c.state.TenantDomain = tenant
	c.themeGen++
	gen := c.themeGen
	c.mu.Unlock()

	c.resolveTheme(context.WithoutCancel(ctx), gen, tenant)
}

// SetSettings replaces the settings. A nil value is ignored.
func (c *Controller) SetSettings(s *settings.Settings) {
	if s == nil {
		return
	}
	c.mu.Lock()
	c.state.Settings = s
	c.mu.Unlock()
}

// State returns a snapshot of the page state
func (c *Controller) State() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Conditions returns the gate inputs read at mount
func (c *Controller) Conditions() gate.Conditions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cond
}

// GateState returns the state the passive login gate reached
func (c *Controller) GateState() gate.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gateState
}

// Exposed returns the context published to the page
func (c *Controller) Exposed() ExposedContext {
	return exposedContext(c.id, c.State())
}
