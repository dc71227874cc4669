// Package alertlog appends every emitted alert to a JSON-lines file, one
// flat record per line, for offline time-series analysis.
package alertlog

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

// DefaultPath is used when no path is configured
const DefaultPath = "alerts.jsonl"

// Sink writes alerts as flat key-value JSON records
type Sink struct {
	mu     sync.Mutex
	out    *trackingWriter
	record zerolog.Logger
	closer io.Closer
	logger zerolog.Logger
}

// trackingWriter remembers the error of the last write, which zerolog
// itself only reports to its global error handler.
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	t.err = err
	return n, err
}

// New creates a sink over an arbitrary writer
func New(w io.Writer, logger zerolog.Logger) *Sink {
	out := &trackingWriter{w: w}
	return &Sink{
		out:    out,
		record: zerolog.New(out),
		logger: logger.With().Str("component", "alert_log").Logger(),
	}
}

// Open appends to the file at path, creating it if needed
func Open(path string, logger zerolog.Logger) (*Sink, error) {
	if path == "" {
		path = DefaultPath
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open alert log: %w", err)
	}

	s := New(f, logger)
	s.closer = f
	s.logger.Info().Str("path", path).Msg("alert log opened")
	return s, nil
}

// Emit appends one record. The caller decides whether a failure matters.
func (s *Sink) Emit(_ context.Context, a models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record.Log().
		Str("alert_id", a.ID.String()).
		Time("emitted_at", a.EmittedAt).
		Uint64("cycle", a.Cycle).
		Str("market_key", a.MappingKey).
		Str("direction", string(a.Direction)).
		Float64("edge_bps", a.EdgeBps).
		Float64("confidence", a.Confidence).
		Str("bucket", string(a.Bucket)).
		Str("contract_id", a.ContractID).
		Str("contract_side", string(a.ContractSide)).
		Str("contract_price", a.ContractPrice.String()).
		Int64("liquidity", a.Liquidity).
		Str("event_id", a.EventID).
		Str("market_type", string(a.MarketType)).
		Str("selection", a.Selection).
		Float64("fair_probability", a.FairProbability).
		Float64("overround", a.Overround).
		Str("vig_method", string(a.VigMethod)).
		Int("book_count", a.BookCount).
		Float64("contract_age_seconds", a.ContractAgeSeconds).
		Float64("sportsbook_age_seconds", a.SportsbookAgeSeconds).
		Send()

	if err := s.out.err; err != nil {
		s.out.err = nil
		return fmt.Errorf("failed to write alert %s: %w", a.ID, err)
	}
	return nil
}

// Close closes the underlying file, if any
func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
