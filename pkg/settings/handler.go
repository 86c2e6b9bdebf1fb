package settings

import (
	"net/http"

	"github.com/platinummonkey/devportal/pkg/httputil"
	"github.com/platinummonkey/devportal/pkg/observability"
)

// Handler serves a fixed settings payload, standing in for the settings API
type Handler struct {
	settings *Settings
}

// NewHandler creates a handler serving s
func NewHandler(s *Settings) *Handler {
	return &Handler{settings: s}
}

// ServeHTTP writes the settings payload as JSON
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	if err := httputil.WriteSuccess(w, h.settings); err != nil {
		observability.FromContext(r.Context()).WithError(err).Warn("Failed to write settings")
	}
}
