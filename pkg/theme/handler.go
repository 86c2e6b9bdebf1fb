package theme

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/devportal/pkg/httputil"
	"github.com/platinummonkey/devportal/pkg/observability"
)

// Handler serves hosted tenant theme documents from a Store. It expects a
// gorilla/mux route with a {tenant} variable.
type Handler struct {
	store Store
}

// NewHandler creates a handler over store
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the hosting route under prefix, normally the
// application context
func (h *Handler) RegisterRoutes(router *mux.Router, prefix string) {
	router.Handle(prefix+"/site/public/tenant_themes/{tenant}/apim/defaultTheme.json", h).Methods(http.MethodGet)
}

// ServeHTTP writes the raw theme document
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tenant := mux.Vars(r)["tenant"]
	if !ValidTenant(tenant) {
		httputil.WriteBadRequest(w, ErrInvalidTenant.Error())
		return
	}

	data, err := h.store.Get(r.Context(), tenant)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.WriteNotFoundError(w, "theme not found")
			return
		}
		observability.FromContext(r.Context()).WithError(err).WithField("tenant", tenant).Error("Failed to load tenant theme")
		httputil.WriteInternalError(w, errors.New("failed to load theme"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
