package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/kalshi-odds-scanner/pkg/oddsmath"
)

// MarketType identifies a sportsbook market
type MarketType string

const (
	MarketTypeH2H       MarketType = "h2h"
	MarketTypeSpreads   MarketType = "spreads"
	MarketTypeTotals    MarketType = "totals"
	MarketTypeOutrights MarketType = "outrights"
)

// ParseMarketType validates a raw market type string
func ParseMarketType(s string) (MarketType, error) {
	switch mt := MarketType(strings.ToLower(strings.TrimSpace(s))); mt {
	case MarketTypeH2H, MarketTypeSpreads, MarketTypeTotals, MarketTypeOutrights:
		return mt, nil
	default:
		return "", fmt.Errorf("%w: unknown market type %q", ErrInvalidInput, s)
	}
}

// OddsFormat identifies how a raw odds value is expressed
type OddsFormat string

const (
	OddsFormatAmerican OddsFormat = "american" // e.g., -110, +150
	OddsFormatDecimal  OddsFormat = "decimal"  // e.g., 1.91, 2.50
)

// SportsbookQuote is one bookmaker's line for one selection
type SportsbookQuote struct {
	EventID    string          `json:"event_id"`
	EventTitle string          `json:"event_title,omitempty"`
	Bookmaker  string          `json:"bookmaker"`
	MarketType MarketType      `json:"market_type"`
	Selection  string          `json:"selection"`
	Odds       decimal.Decimal `json:"odds"`
	Format     OddsFormat      `json:"odds_format"`
	ObservedAt time.Time       `json:"observed_at"`
}

// NewSportsbookQuote validates and builds a sportsbook quote
func NewSportsbookQuote(
	eventID, bookmaker string,
	marketType MarketType,
	selection string,
	odds decimal.Decimal,
	format OddsFormat,
	observedAt time.Time,
) (SportsbookQuote, error) {
	q := SportsbookQuote{
		EventID:    eventID,
		Bookmaker:  bookmaker,
		MarketType: marketType,
		Selection:  selection,
		Odds:       odds,
		Format:     format,
		ObservedAt: observedAt,
	}
	if err := q.Validate(); err != nil {
		return SportsbookQuote{}, err
	}
	return q, nil
}

// Validate checks every field of the quote, including the odds value
func (q SportsbookQuote) Validate() error {
	if q.EventID == "" || q.Bookmaker == "" || q.Selection == "" {
		return fmt.Errorf("%w: sportsbook quote requires event_id, bookmaker and selection", ErrInvalidInput)
	}
	if _, err := ParseMarketType(string(q.MarketType)); err != nil {
		return err
	}
	if q.ObservedAt.IsZero() {
		return fmt.Errorf("%w: sportsbook quote %s/%s missing timestamp", ErrInvalidInput, q.EventID, q.Selection)
	}
	_, err := q.ImpliedProbability()
	return err
}

// ImpliedProbability converts the raw odds to an implied probability
func (q SportsbookQuote) ImpliedProbability() (float64, error) {
	switch q.Format {
	case OddsFormatAmerican:
		return oddsmath.AmericanToProbability(q.Odds.InexactFloat64())
	case OddsFormatDecimal:
		return oddsmath.DecimalToProbability(q.Odds.InexactFloat64())
	default:
		return 0, fmt.Errorf("%w: unknown odds format %q", ErrInvalidInput, q.Format)
	}
}

// KafkaQuoteBatchMessage is the Kafka payload carrying sportsbook quotes
type KafkaQuoteBatchMessage struct {
	Quotes    []SportsbookQuote `json:"quotes"`
	Timestamp time.Time         `json:"timestamp"`
	BatchID   string            `json:"batch_id"`
}
