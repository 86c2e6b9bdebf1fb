package portal

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/devportal/pkg/gate"
	"github.com/platinummonkey/devportal/pkg/httputil"
	"github.com/platinummonkey/devportal/pkg/observability"
	"github.com/platinummonkey/devportal/pkg/sessionstore"
	"github.com/platinummonkey/devportal/pkg/settings"
	"github.com/platinummonkey/devportal/pkg/theme"
)

// Handlers serves portal pages and the exposed context API
type Handlers struct {
	svc      *Services
	store    sessionstore.Store
	registry *Registry
	renderer *Renderer
}

// NewHandlers creates the handlers
func NewHandlers(svc *Services, store sessionstore.Store, registry *Registry, renderer *Renderer) *Handlers {
	return &Handlers{
		svc:      svc,
		store:    store,
		registry: registry,
		renderer: renderer,
	}
}

// RegisterRoutes registers the context API and the page catch-all. It must be
// called after every other route under the application context.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	ctx := h.svc.AppContext

	api := router.PathPrefix(ctx + "/api/context").Subrouter()
	api.HandleFunc("/{view}", h.getContext).Methods("GET")
	api.HandleFunc("/{view}/tenant", h.setTenantDomain).Methods("PUT")
	api.HandleFunc("/{view}/settings", h.setSettings).Methods("PUT")

	if ctx != "" {
		router.Handle(ctx, h.pageHandler()).Methods("GET")
	}
	router.PathPrefix(ctx + "/").Handler(h.pageHandler()).Methods("GET")
}

func (h *Handlers) pageHandler() http.Handler {
	return httputil.NoStoreMiddleware(http.HandlerFunc(h.page))
}

// contextResponse is the exposed context together with the active theme
type contextResponse struct {
	ExposedContext
	Theme *theme.Theme `json:"theme"`
}

func newContextResponse(c *Controller) contextResponse {
	return contextResponse{
		ExposedContext: c.Exposed(),
		Theme:          c.State().Theme,
	}
}

// tenantRequest is the body of PUT {context}/api/context/{view}/tenant
type tenantRequest struct {
	TenantDomain *string `json:"tenantDomain"`
}

// page mounts a controller for the request and renders its view
func (h *Handlers) page(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	sess, err := sessionstore.FromContext(ctx, h.store)
	if err != nil {
		logger.WithError(err).Debug("Mounting without a browser session")
		sess = nil
	}

	c := NewController(h.svc, sess)
	c.Mount(ctx, r.URL.Query().Get("tenant"))

	path := strings.TrimPrefix(r.URL.Path, h.svc.AppContext)
	if path == "" {
		path = "/"
	}

	view := Render(c.State(), Inputs{
		ViewID:     c.ID(),
		AppContext: h.svc.AppContext,
		Conditions: c.Conditions(),
		Path:       path,
	})
	switch view.Kind {
	case ViewShell:
		h.registry.Add(c)
	case ViewRedirect:
		view.Redirect = gate.WithReturnTo(view.Redirect, r.URL.RequestURI())
	}

	h.svc.Metrics.RecordBootstrap(ctx, view.Kind.String(), time.Since(start))
	logger.WithFields(map[string]interface{}{
		"view":       c.ID(),
		"kind":       view.Kind.String(),
		"gate_state": c.GateState().String(),
	}).Debug("Page bootstrapped")

	if err := h.renderer.Write(w, r, view); err != nil {
		logger.WithError(err).Error("Failed to render page")
	}
}

// controller returns the view's controller or writes a 404
func (h *Handlers) controller(w http.ResponseWriter, r *http.Request) (*Controller, bool) {
	view, ok := httputil.ParsePathStringOrError(w, r, "view")
	if !ok {
		return nil, false
	}

	c, err := h.registry.Get(sessionstore.SessionID(r.Context()), view)
	if err != nil {
		if errors.Is(err, ErrViewNotFound) {
			httputil.WriteNotFoundError(w, err.Error())
		} else {
			httputil.WriteInternalError(w, err)
		}
		return nil, false
	}
	return c, true
}

// getContext handles GET {context}/api/context/{view}
func (h *Handlers) getContext(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	_ = httputil.WriteSuccess(w, newContextResponse(c))
}

// setTenantDomain handles PUT {context}/api/context/{view}/tenant
func (h *Handlers) setTenantDomain(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}

	var req tenantRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	tenant := ""
	if req.TenantDomain != nil {
		tenant = *req.TenantDomain
	}
	if tenant != "" && !theme.ValidTenant(tenant) {
		httputil.WriteBadRequest(w, theme.ErrInvalidTenant.Error())
		return
	}

	c.SetTenantDomain(r.Context(), tenant)
	_ = httputil.WriteSuccess(w, newContextResponse(c))
}

// setSettings handles PUT {context}/api/context/{view}/settings. A null body
// leaves the settings unchanged.
func (h *Handlers) setSettings(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}

	var s *settings.Settings
	if !httputil.ParseJSONOrError(w, r, &s) {
		return
	}

	c.SetSettings(s)
	_ = httputil.WriteSuccess(w, newContextResponse(c))
}
