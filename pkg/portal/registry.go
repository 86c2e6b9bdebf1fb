package portal

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/devportal/pkg/observability"
)

const (
	// DefaultRegistrySize is the number of mounted controllers kept
	DefaultRegistrySize = 4096

	// DefaultRegistryTTL is how long a mounted page can use the context API
	DefaultRegistryTTL = 30 * time.Minute
)

// Registry keeps mounted controllers so the page can reach them through the
// context API. A controller is only visible to the browser session that
// mounted it.
type Registry struct {
	views   *lru.LRU[string, *Controller]
	metrics *observability.Metrics
}

// NewRegistry creates a registry bounded by size and ttl
func NewRegistry(size int, ttl time.Duration, metrics *observability.Metrics) *Registry {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	if ttl <= 0 {
		ttl = DefaultRegistryTTL
	}

	r := &Registry{metrics: metrics}
	r.views = lru.NewLRU[string, *Controller](size, func(string, *Controller) {
		if r.metrics != nil {
			r.metrics.ActiveControllers.Dec()
		}
	}, ttl)
	return r
}

// Add registers a mounted controller
func (r *Registry) Add(c *Controller) {
	r.views.Add(c.ID(), c)
	if r.metrics != nil {
		r.metrics.ActiveControllers.Inc()
	}
}

// Get returns the controller of view if it was mounted by sessionID
func (r *Registry) Get(sessionID, view string) (*Controller, error) {
	c, ok := r.views.Get(view)
	if !ok || sessionID == "" || c.SessionID() != sessionID {
		return nil, ErrViewNotFound
	}
	return c, nil
}

// Len returns the number of live controllers
func (r *Registry) Len() int {
	return r.views.Len()
}
