package scanner

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RefreshFunc pulls one snapshot into the quote cache and reports its size
type RefreshFunc func(ctx context.Context) (int, error)

// Refresher keeps the quote cache warm by calling a RefreshFunc on a fixed
// interval. Consecutive failed refreshes escalate the same way failed scan
// cycles do, so a dead feed cannot leave the scanner silently starved.
type Refresher struct {
	source   string
	refresh  RefreshFunc
	interval time.Duration
	clock    Clock
	tracker  *failureTracker
	logger   zerolog.Logger
}

// NewRefresher creates a refresher that escalates after threshold
// consecutive failures. A zero threshold never escalates.
func NewRefresher(
	source string,
	refresh RefreshFunc,
	interval time.Duration,
	threshold int,
	clock Clock,
	logger zerolog.Logger,
) *Refresher {
	if clock == nil {
		clock = SystemClock()
	}
	return &Refresher{
		source:   source,
		refresh:  refresh,
		interval: interval,
		clock:    clock,
		tracker:  newFailureTracker(threshold),
		logger:   logger.With().Str("component", "refresher").Str("source", source).Logger(),
	}
}

// Run refreshes until ctx is cancelled (returns nil) or the feed fails
// persistently (returns an error wrapping models.ErrPersistentUpstreamFailure).
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info().Dur("interval", r.interval).Msg("refresh loop started")

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := r.refresh(ctx)
		if err != nil && ctx.Err() != nil {
			return nil
		}
		if err != nil {
			r.logger.Warn().Err(err).Msg("refresh failed")
		} else {
			r.logger.Debug().Int("quotes", n).Msg("refreshed")
		}
		if escalated := r.tracker.record(r.source, err != nil); escalated != nil {
			r.logger.Error().Err(escalated).Msg("escalating persistent upstream failure")
			return escalated
		}

		select {
		case <-ctx.Done():
			return nil
		case <-r.clock.After(r.interval):
		}
	}
}
