package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/devportal/pkg/gate"
	"github.com/platinummonkey/devportal/pkg/sessionstore"
	"github.com/platinummonkey/devportal/pkg/settings"
	"github.com/platinummonkey/devportal/pkg/theme"
)

const testContext = "/devportal"

const acmeThemeJSON = `{
	"palette": {"primary": {"main": "#aa0000"}},
	"custom": {
		"title": {"prefix": "[Acme]", "sufix": " Portal"},
		"tenantCustomCss": "site/public/tenant_themes/<tenant-domain>/custom.css"
	}
}`

// fixture holds the collaborators of a controller under test
type fixture struct {
	svc    *Services
	store  sessionstore.Store
	probes int
}

func mustSettings(t *testing.T, external bool) *settings.Settings {
	t.Helper()
	s, err := settings.FromMap(map[string]interface{}{
		"identityProvider": map[string]interface{}{"external": external},
		"app":              map[string]interface{}{"context": testContext},
	})
	require.NoError(t, err)
	return s
}

func acmeTheme(t *testing.T) *theme.Theme {
	t.Helper()
	th, err := theme.Parse([]byte(acmeThemeJSON))
	require.NoError(t, err)
	return th
}

// setupPortalTest builds services with settings from s (nil: fetch fails),
// an acme.com tenant theme and a probe that answers 200 unless probeErr is set
func setupPortalTest(t *testing.T, mode gate.Mode, s *settings.Settings, probeErr error) *fixture {
	t.Helper()

	store := sessionstore.NewMemoryStore(time.Minute)
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store}

	client := settings.ClientFunc(func(ctx context.Context) (*settings.Settings, error) {
		if s == nil {
			return nil, errors.New("settings API unavailable")
		}
		return s, nil
	})

	acme := acmeTheme(t)
	fetcher := theme.FetcherFunc(func(ctx context.Context, tenant string) (*theme.Theme, error) {
		if tenant == "acme.com" {
			return acme, nil
		}
		return nil, theme.ErrNotFound
	})

	prober := gate.ProberFunc(func(ctx context.Context) (int, error) {
		f.probes++
		if probeErr != nil {
			return 0, probeErr
		}
		return 200, nil
	})

	f.svc = &Services{
		AppContext: testContext,
		Mode:       mode,
		Settings:   client,
		Themes:     theme.NewResolver(fetcher),
		Gate:       gate.New(testContext, prober, nil),
	}
	return f
}

func (f *fixture) session(id string) *sessionstore.Session {
	return sessionstore.Scope(f.store, id)
}

// mount mounts a controller for the session and renders path
func (f *fixture) mount(sess *sessionstore.Session, tenant, path string) (*Controller, View) {
	c := NewController(f.svc, sess)
	c.Mount(context.Background(), tenant)
	return c, Render(c.State(), Inputs{
		ViewID:     c.ID(),
		AppContext: testContext,
		Conditions: c.Conditions(),
		Path:       path,
	})
}
