package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction of a price discrepancy
type Direction string

const (
	DirectionCheap Direction = "cheap" // contract ask below sportsbook fair value
	DirectionRich  Direction = "rich"  // contract bid above sportsbook fair value
)

// Bucket is the three-level confidence classification
type Bucket string

const (
	BucketLow  Bucket = "LOW"
	BucketMed  Bucket = "MED"
	BucketHigh Bucket = "HIGH"
)

// Comparison is the evaluation of one mapping in one cycle. Not persisted.
type Comparison struct {
	Mapping       MarketMapping         `json:"mapping"`
	Contract      ContractQuote         `json:"contract"`
	Quotes        []SportsbookQuote     `json:"quotes"`
	Fair          NormalizedProbability `json:"fair"`
	CheapEdge     float64               `json:"cheap_edge"`
	RichEdge      float64               `json:"rich_edge"`
	ContractAge   time.Duration         `json:"contract_age"`
	SportsbookAge time.Duration         `json:"sportsbook_age"`
}

// Alert is a comparison that cleared every filter
type Alert struct {
	ID         uuid.UUID `json:"id"`
	EmittedAt  time.Time `json:"emitted_at"`
	Cycle      uint64    `json:"cycle"`
	MappingKey string    `json:"market_key"`
	Direction  Direction `json:"direction"`

	EdgeBps    float64 `json:"edge_bps"`
	Confidence float64 `json:"confidence"`
	Bucket     Bucket  `json:"bucket"`

	ContractID    string          `json:"contract_id"`
	ContractSide  Side            `json:"contract_side"`
	ContractPrice decimal.Decimal `json:"contract_price"` // ask for cheap, bid for rich
	Liquidity     int64           `json:"liquidity"`

	EventID         string     `json:"event_id"`
	MarketType      MarketType `json:"market_type"`
	Selection       string     `json:"selection"`
	FairProbability float64    `json:"fair_probability"`
	Overround       float64    `json:"overround"`
	VigMethod       VigMethod  `json:"vig_method"`
	BookCount       int        `json:"book_count"`

	ContractAgeSeconds   float64 `json:"contract_age_seconds"`
	SportsbookAgeSeconds float64 `json:"sportsbook_age_seconds"`
}

// Opportunity aggregates alerts for one mapping and direction
type Opportunity struct {
	MappingKey      string          `json:"market_key"`
	Direction       Direction       `json:"direction"`
	ContractID      string          `json:"contract_id"`
	ContractPrice   decimal.Decimal `json:"contract_price"`
	Liquidity       int64           `json:"liquidity"`
	FairProbability float64         `json:"fair_probability"`
	BookCount       int             `json:"book_count"`
	EdgeBps         float64         `json:"edge_bps"`
	Bucket          Bucket          `json:"bucket"`
	RankScore       float64         `json:"rank_score"`
	AlertCount      int             `json:"alert_count"`
	LastSeen        time.Time       `json:"last_seen"`
}
