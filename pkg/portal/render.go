package portal

import (
	"strings"

	"github.com/platinummonkey/devportal/pkg/gate"
	"github.com/platinummonkey/devportal/pkg/settings"
	"github.com/platinummonkey/devportal/pkg/theme"
)

// ViewKind is what a page load renders
type ViewKind int

const (
	// ViewEmpty renders nothing: settings or theme are missing
	ViewEmpty ViewKind = iota
	// ViewLoading is the placeholder shown while the passive login check holds content back
	ViewLoading
	// ViewShell is the themed application shell
	ViewShell
	// ViewRedirect sends the browser elsewhere
	ViewRedirect
)

func (k ViewKind) String() string {
	switch k {
	case ViewLoading:
		return "loading"
	case ViewShell:
		return "shell"
	case ViewRedirect:
		return "redirect"
	default:
		return "empty"
	}
}

// Routes inside the shell
const (
	RouteLogout    = "logout"
	RouteProtected = "protected"
)

// ExposedContext is published to the page and readable through the context API
type ExposedContext struct {
	View         string             `json:"view"`
	Settings     *settings.Settings `json:"settings"`
	TenantDomain *string            `json:"tenantDomain"`
}

func exposedContext(view string, state SessionState) ExposedContext {
	ec := ExposedContext{
		View:     view,
		Settings: state.Settings,
	}
	if state.TenantDomain != "" {
		tenant := state.TenantDomain
		ec.TenantDomain = &tenant
	}
	return ec
}

// Inputs are the values Render reads besides the page state
type Inputs struct {
	ViewID     string
	AppContext string
	Conditions gate.Conditions

	// Path is the request path below the application context
	Path string
}

// View is a rendered page
type View struct {
	Kind     ViewKind
	Redirect string

	Title      string
	Stylesheet string
	Theme      *theme.Theme
	Route      string
	Context    ExposedContext
}

// Render decides what the page shows. A pending redirect wins, then the
// passive login placeholder, then the shell once settings and theme are both
// present. Anything else renders nothing.
func Render(state SessionState, in Inputs) View {
	if state.Redirect != "" {
		return View{Kind: ViewRedirect, Redirect: state.Redirect}
	}

	if in.Conditions.Suppresses(state.AuthResponse, state.ExternalIDP) {
		return View{Kind: ViewLoading}
	}

	if state.Settings == nil || state.Theme == nil {
		return View{Kind: ViewEmpty}
	}

	return View{
		Kind:       ViewShell,
		Title:      state.Theme.Title(),
		Stylesheet: state.Theme.StylesheetURL(in.AppContext, state.TenantDomain),
		Theme:      state.Theme,
		Route:      routeFor(in.Path),
		Context:    exposedContext(in.ViewID, state),
	}
}

func routeFor(path string) string {
	if path == "/logout" || strings.HasPrefix(path, "/logout/") {
		return RouteLogout
	}
	return RouteProtected
}
