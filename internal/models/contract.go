package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side is a binary contract outcome
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// ParseSide validates a raw side label
func ParseSide(s string) (Side, error) {
	switch side := Side(strings.ToUpper(strings.TrimSpace(s))); side {
	case SideYes, SideNo:
		return side, nil
	default:
		return "", fmt.Errorf("%w: side must be YES or NO, got %q", ErrInvalidInput, s)
	}
}

var one = decimal.NewFromInt(1)

// ContractQuote is the top of book for one prediction-market contract side.
// Prices are fractions of $1.
type ContractQuote struct {
	ContractID string          `json:"contract_id"`
	Side       Side            `json:"side"`
	Bid        decimal.Decimal `json:"bid"`
	Ask        decimal.Decimal `json:"ask"`
	Liquidity  int64           `json:"liquidity"` // contracts available at the best price
	ObservedAt time.Time       `json:"observed_at"`
}

// NewContractQuote validates 0 <= bid <= ask <= 1 and liquidity >= 0
func NewContractQuote(
	contractID string,
	side Side,
	bid, ask decimal.Decimal,
	liquidity int64,
	observedAt time.Time,
) (ContractQuote, error) {
	q := ContractQuote{
		ContractID: contractID,
		Side:       side,
		Bid:        bid,
		Ask:        ask,
		Liquidity:  liquidity,
		ObservedAt: observedAt,
	}
	if err := q.Validate(); err != nil {
		return ContractQuote{}, err
	}
	return q, nil
}

// Validate checks the quote invariants
func (q ContractQuote) Validate() error {
	if q.ContractID == "" {
		return fmt.Errorf("%w: contract quote missing contract_id", ErrInvalidInput)
	}
	if _, err := ParseSide(string(q.Side)); err != nil {
		return err
	}
	if q.Bid.IsNegative() || q.Bid.GreaterThan(q.Ask) || q.Ask.GreaterThan(one) {
		return fmt.Errorf("%w: contract %s requires 0 <= bid <= ask <= 1, got bid=%s ask=%s",
			ErrInvalidInput, q.ContractID, q.Bid, q.Ask)
	}
	if q.Liquidity < 0 {
		return fmt.Errorf("%w: contract %s has negative liquidity %d", ErrInvalidInput, q.ContractID, q.Liquidity)
	}
	if q.ObservedAt.IsZero() {
		return fmt.Errorf("%w: contract %s missing timestamp", ErrInvalidInput, q.ContractID)
	}
	return nil
}

// ForSide returns the quote expressed for the requested side. Buying NO at
// p is selling YES at 1-p, so the NO book is the YES book mirrored.
func (q ContractQuote) ForSide(side Side) ContractQuote {
	if q.Side == side {
		return q
	}
	flipped := q
	flipped.Side = side
	flipped.Bid = one.Sub(q.Ask)
	flipped.Ask = one.Sub(q.Bid)
	return flipped
}

// Mid returns the midpoint of bid and ask
func (q ContractQuote) Mid() decimal.Decimal {
	return q.Bid.Add(q.Ask).Div(decimal.NewFromInt(2))
}

// Contract describes a listed prediction-market contract, used for matching
type Contract struct {
	ContractID string    `json:"contract_id"`
	EventID    string    `json:"event_id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	CloseTime  time.Time `json:"close_time"`
}

// Selection describes one sportsbook selection, used for matching
type Selection struct {
	EventID    string     `json:"event_id"`
	EventTitle string     `json:"event_title"`
	MarketType MarketType `json:"market_type"`
	Label      string     `json:"selection"`
}
