// Package scanner compares prediction-market contract prices against
// de-vigged sportsbook fair value and emits scored alerts.
package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/metrics"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/service"
)

// Collaborator names used for failure tracking and metrics
const (
	SourceContracts  = "contracts"
	SourceSportsbook = "sportsbook"
	SourceOddsFeed   = "odds_feed"
)

// FetchResult holds what the two sources returned for one mapping
type FetchResult struct {
	Mapping     models.MarketMapping
	Contract    models.ContractQuote
	ContractErr error
	Quotes      []models.SportsbookQuote
	QuotesErr   error
}

// CycleStats summarizes one cycle for logging and failure escalation
type CycleStats struct {
	Mappings  int
	Alerts    int
	Drops     map[string]int
	Fetches   map[string]int
	Failures  map[string]int
	StartedAt time.Time
}

func newCycleStats(mappings int, started time.Time) CycleStats {
	return CycleStats{
		Mappings:  mappings,
		Drops:     make(map[string]int),
		Fetches:   make(map[string]int),
		Failures:  make(map[string]int),
		StartedAt: started,
	}
}

// Scanner evaluates mappings against the two quote sources. It holds no
// state between cycles.
type Scanner struct {
	contracts service.ContractQuoteSource
	books     service.SportsbookQuoteSource
	clock     Clock
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewScanner creates a new scanner. m may be nil.
func NewScanner(
	contracts service.ContractQuoteSource,
	books service.SportsbookQuoteSource,
	clock Clock,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Scanner {
	if clock == nil {
		clock = SystemClock()
	}
	return &Scanner{
		contracts: contracts,
		books:     books,
		clock:     clock,
		metrics:   m,
		logger:    logger.With().Str("component", "scanner").Logger(),
	}
}

// RunCycle fetches and evaluates every mapping once and returns the alerts
func (s *Scanner) RunCycle(ctx context.Context, mappings []models.MarketMapping, params models.ScanParams) ([]models.Alert, CycleStats) {
	results := s.Fetch(ctx, mappings, params)
	return s.Evaluate(results, params)
}

// Fetch pulls quotes for every mapping concurrently. Each fetch runs under
// params.FetchTimeout so one slow upstream cannot stall the rest.
func (s *Scanner) Fetch(ctx context.Context, mappings []models.MarketMapping, params models.ScanParams) []FetchResult {
	results := make([]FetchResult, len(mappings))

	var g errgroup.Group
	if params.FetchConcurrency > 0 {
		g.SetLimit(params.FetchConcurrency)
	}

	for i, mapping := range mappings {
		i, mapping := i, mapping
		g.Go(func() error {
			results[i] = s.fetchOne(ctx, mapping, params.FetchTimeout)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Scanner) fetchOne(ctx context.Context, mapping models.MarketMapping, timeout time.Duration) FetchResult {
	r := FetchResult{Mapping: mapping}

	func() {
		fctx, cancel := withTimeout(ctx, timeout)
		defer cancel()
		r.Contract, r.ContractErr = s.contracts.GetTopOfBook(fctx, mapping.Contract.ContractID)
	}()

	func() {
		fctx, cancel := withTimeout(ctx, timeout)
		defer cancel()
		r.Quotes, r.QuotesErr = s.books.GetQuotes(fctx, mapping.Selection.EventID, mapping.Selection.MarketType)
	}()

	return r
}

// Evaluate turns fetch results into alerts. Every per-mapping failure is
// isolated; alerts are deduplicated on (mapping key, direction).
func (s *Scanner) Evaluate(results []FetchResult, params models.ScanParams) ([]models.Alert, CycleStats) {
	now := s.clock.Now()
	stats := newCycleStats(len(results), now)
	seen := make(map[dedupeKey]struct{}, len(results))
	var alerts []models.Alert

	for _, r := range results {
		alert, reason := s.evaluateOne(r, params, now, &stats)
		if reason == "" {
			key := dedupeKey{mappingKey: alert.MappingKey, direction: alert.Direction}
			if _, dup := seen[key]; dup {
				reason = metrics.DropDuplicate
			} else {
				seen[key] = struct{}{}
				alerts = append(alerts, *alert)
				s.metrics.Alert(string(alert.Direction), string(alert.Bucket))
			}
		}
		if reason != "" {
			stats.Drops[reason]++
			s.metrics.Drop(reason)
		}
	}

	stats.Alerts = len(alerts)
	return alerts, stats
}

func (s *Scanner) evaluateOne(r FetchResult, params models.ScanParams, now time.Time, stats *CycleStats) (*models.Alert, string) {
	mapping := r.Mapping
	log := s.logger.With().Str("market_key", mapping.Key).Logger()

	contractReason := s.classifyFetch(SourceContracts, r.ContractErr, stats)
	quotesReason := s.classifyFetch(SourceSportsbook, r.QuotesErr, stats)

	if contractReason != "" {
		log.Warn().Err(r.ContractErr).Str("contract_id", mapping.Contract.ContractID).Msg("contract quote unavailable, skipping")
		return nil, contractReason
	}
	if quotesReason == metrics.DropNotFound {
		quotesReason = ""
		r.Quotes = nil
	}
	if quotesReason != "" {
		log.Warn().Err(r.QuotesErr).Str("event_id", mapping.Selection.EventID).Msg("sportsbook quotes unavailable, skipping")
		return nil, quotesReason
	}

	cmp, reason, err := Compare(mapping, r.Contract, r.Quotes, params, now)
	if reason != "" {
		if err != nil {
			log.Warn().Err(err).Str("reason", reason).Msg("mapping rejected")
		} else {
			log.Debug().Str("reason", reason).Msg("mapping dropped")
		}
		return nil, reason
	}

	alert, reason := Decide(cmp, params, now)
	if reason != "" {
		log.Debug().
			Str("reason", reason).
			Float64("cheap_edge", cmp.CheapEdge).
			Float64("rich_edge", cmp.RichEdge).
			Msg("no alert")
		return nil, reason
	}

	return alert, ""
}

// classifyFetch counts the fetch toward the collaborator's health. Not found
// and malformed answers still came from a healthy collaborator; anything else
// is an upstream failure.
func (s *Scanner) classifyFetch(source string, err error, stats *CycleStats) string {
	stats.Fetches[source]++
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrNotFound):
		return metrics.DropNotFound
	case models.IsInputError(err):
		return metrics.DropInvalidInput
	default:
		stats.Failures[source]++
		s.metrics.FetchError(source)
		return metrics.DropUpstream
	}
}

type dedupeKey struct {
	mappingKey string
	direction  models.Direction
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
