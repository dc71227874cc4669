package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/metrics"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/service"
)

// State of the scan loop
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateEvaluating State = "evaluating"
	StateAlerting   State = "alerting"
	StateStopped    State = "stopped"
)

// Status is a point-in-time view of the runner
type Status struct {
	State       State     `json:"state"`
	Cycle       uint64    `json:"cycle"`
	Mappings    int       `json:"mappings"`
	LastCycleAt time.Time `json:"last_cycle_at"`
	LastAlerts  int       `json:"last_alerts"`
}

// Publisher receives the alerts of each cycle
type Publisher interface {
	Publish(ctx context.Context, alerts []models.Alert) int
}

var _ Publisher = (*service.AlertService)(nil)

// Runner drives the scanner in sequential cycles until cancelled or until a
// collaborator has failed for too many consecutive cycles.
type Runner struct {
	scanner   *Scanner
	publisher Publisher
	mappings  []models.MarketMapping
	params    models.ScanParams
	clock     Clock
	cooldown  *Cooldown
	tracker   *failureTracker
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	mu     sync.RWMutex
	status Status
}

// NewRunner creates a new runner over a fixed set of mappings
func NewRunner(
	scanner *Scanner,
	publisher Publisher,
	mappings []models.MarketMapping,
	params models.ScanParams,
	clock Clock,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Runner {
	if clock == nil {
		clock = SystemClock()
	}
	return &Runner{
		scanner:   scanner,
		publisher: publisher,
		mappings:  mappings,
		params:    params,
		clock:     clock,
		cooldown:  NewCooldown(params.AlertCooldown),
		tracker:   newFailureTracker(params.EscalationThreshold),
		metrics:   m,
		logger:    logger.With().Str("component", "runner").Logger(),
		status:    Status{State: StateIdle, Mappings: len(mappings)},
	}
}

// Run loops until ctx is cancelled (returns nil) or a collaborator fails
// persistently (returns an error wrapping models.ErrPersistentUpstreamFailure).
// Cancellation is observed between cycles.
func (r *Runner) Run(ctx context.Context) error {
	defer r.setState(StateStopped)

	r.logger.Info().
		Int("mappings", len(r.mappings)).
		Dur("poll_interval", r.params.PollInterval).
		Msg("scan loop started")

	for {
		if ctx.Err() != nil {
			r.logger.Info().Msg("scan loop stopped")
			return nil
		}

		if _, err := r.RunOnce(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			r.logger.Info().Msg("scan loop stopped")
			return nil
		case <-r.clock.After(r.params.PollInterval):
		}
	}
}

// RunOnce executes one full cycle and hands its alerts to the publisher
func (r *Runner) RunOnce(ctx context.Context) ([]models.Alert, error) {
	started := r.clock.Now()
	cycle := r.nextCycle()

	r.setState(StateFetching)
	results := r.scanner.Fetch(ctx, r.mappings, r.params)

	r.setState(StateEvaluating)
	alerts, stats := r.scanner.Evaluate(results, r.params)
	alerts, suppressed := r.cooldown.Filter(alerts, r.clock.Now())
	for i := 0; i < suppressed; i++ {
		r.metrics.Drop(metrics.DropCooldown)
	}
	for i := range alerts {
		alerts[i].Cycle = cycle
	}

	r.setState(StateAlerting)
	failures := 0
	if len(alerts) > 0 && r.publisher != nil {
		failures = r.publisher.Publish(ctx, alerts)
	}

	elapsed := r.clock.Now().Sub(started)
	r.metrics.Cycle(elapsed.Seconds(), failures)
	r.finishCycle(started, len(alerts))

	r.logger.Info().
		Uint64("cycle", cycle).
		Int("mappings", stats.Mappings).
		Int("alerts", len(alerts)).
		Int("suppressed", suppressed).
		Int("delivery_failures", failures).
		Interface("drops", stats.Drops).
		Dur("elapsed", elapsed).
		Msg("cycle complete")

	// Failures caused by our own shutdown say nothing about upstream health
	if ctx.Err() != nil {
		return alerts, nil
	}
	if err := r.tracker.observe(stats); err != nil {
		r.logger.Error().Err(err).Msg("escalating persistent upstream failure")
		return alerts, err
	}
	return alerts, nil
}

// Status returns the current runner status
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Mappings returns the resolved mappings the runner scans
func (r *Runner) Mappings() []models.MarketMapping {
	return r.mappings
}

func (r *Runner) nextCycle() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.Cycle++
	return r.status.Cycle
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.status.State = s
	r.mu.Unlock()
}

func (r *Runner) finishCycle(at time.Time, alerts int) {
	r.mu.Lock()
	r.status.State = StateIdle
	r.status.LastCycleAt = at
	r.status.LastAlerts = alerts
	r.mu.Unlock()
}

// failureTracker counts consecutive cycles in which a collaborator had at
// least one failed fetch and no successful one.
type failureTracker struct {
	threshold   int
	consecutive map[string]int
}

func newFailureTracker(threshold int) *failureTracker {
	return &failureTracker{
		threshold:   threshold,
		consecutive: make(map[string]int),
	}
}

func (t *failureTracker) observe(stats CycleStats) error {
	for _, source := range []string{SourceContracts, SourceSportsbook} {
		fetches, failures := stats.Fetches[source], stats.Failures[source]
		if fetches == 0 {
			continue
		}
		if err := t.record(source, failures >= fetches); err != nil {
			return err
		}
	}
	return nil
}

// record counts one cycle for source and escalates once the failing streak
// reaches the threshold. A zero threshold never escalates.
func (t *failureTracker) record(source string, failed bool) error {
	if !failed {
		t.consecutive[source] = 0
		return nil
	}
	t.consecutive[source]++
	if t.threshold > 0 && t.consecutive[source] >= t.threshold {
		return fmt.Errorf("%w: %s failed %d consecutive cycles",
			models.ErrPersistentUpstreamFailure, source, t.consecutive[source])
	}
	return nil
}
