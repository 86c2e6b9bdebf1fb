package sessionstore

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/devportal/pkg/observability"
)

// ExpirySweeper periodically removes expired entries from a store
type ExpirySweeper struct {
	cron    *cron.Cron
	store   Sweeper
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewExpirySweeper schedules Sweep on the store with a cron spec such as
// "@every 1m". It returns nil when the store expires entries on its own.
func NewExpirySweeper(store Store, schedule string, logger *observability.Logger, metrics *observability.Metrics) (*ExpirySweeper, error) {
	base := store
	if u, ok := store.(interface{ Unwrap() Store }); ok {
		base = u.Unwrap()
	}
	if _, ok := base.(Sweeper); !ok {
		return nil, nil
	}
	sweeper := store.(Sweeper)

	s := &ExpirySweeper{
		cron:    cron.New(),
		store:   sweeper,
		logger:  logger,
		metrics: metrics,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	return s, nil
}

// Start begins the schedule in the background
func (s *ExpirySweeper) Start() {
	s.cron.Start()
	s.logger.Info("Session expiry sweeper started")
}

// Stop stops the schedule and waits for a running sweep to finish or ctx to end
func (s *ExpirySweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ExpirySweeper) run() {
	defer observability.RecoverPanic(s.logger, "session expiry sweep")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.store.Sweep(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Session expiry sweep failed")
		return
	}
	if removed > 0 {
		s.logger.Debugf("Removed %d expired session entries", removed)
		if s.metrics != nil {
			s.metrics.SessionStoreSweptTotal.Add(float64(removed))
		}
	}
}
