package scanner

import (
	"time"

	"github.com/google/uuid"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/metrics"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
	"github.com/cypherlabdev/kalshi-odds-scanner/pkg/oddsmath"
)

// Compare builds the Comparison for one mapping from already-fetched quotes.
// A non-empty reason means the mapping is dropped for this cycle; err is set
// when the drop came from malformed or degenerate data.
func Compare(
	mapping models.MarketMapping,
	quote models.ContractQuote,
	quotes []models.SportsbookQuote,
	params models.ScanParams,
	now time.Time,
) (models.Comparison, string, error) {
	if err := quote.Validate(); err != nil {
		return models.Comparison{}, metrics.DropInvalidInput, err
	}
	contract := quote.ForSide(mapping.Contract.Side)

	contractAge := nonNegative(now.Sub(contract.ObservedAt))
	if params.MaxStaleness > 0 && contractAge > params.MaxStaleness {
		return models.Comparison{}, metrics.DropStale, nil
	}
	if contract.Liquidity < params.MinLiquidity {
		return models.Comparison{}, metrics.DropIlliquid, nil
	}
	if len(quotes) == 0 {
		return models.Comparison{}, metrics.DropNoLine, nil
	}

	fr, reason, err := fairValue(mapping.Selection, quotes, params.MaxStaleness, now)
	if reason != "" {
		return models.Comparison{}, reason, err
	}

	adjusted := fr.fair.Probability * (1 - params.SportsbookFriction)
	ask := contract.Ask.InexactFloat64()
	bid := contract.Bid.InexactFloat64()

	return models.Comparison{
		Mapping:       mapping,
		Contract:      contract,
		Quotes:        fr.quotes,
		Fair:          fr.fair,
		CheapEdge:     adjusted - ask - params.KalshiSlippage,
		RichEdge:      bid - params.KalshiSlippage - adjusted,
		ContractAge:   contractAge,
		SportsbookAge: nonNegative(now.Sub(fr.oldest)),
	}, "", nil
}

// Decide picks the direction for a comparison and, when it clears the
// minimum edge, returns the scored alert.
func Decide(cmp models.Comparison, params models.ScanParams, now time.Time) (*models.Alert, string) {
	direction, edge, ok := selectEdge(cmp.CheapEdge, cmp.RichEdge)
	if !ok {
		return nil, metrics.DropNoEdge
	}

	edgeBps := oddsmath.ToBasisPoints(edge)
	if edgeBps < params.MinEdgeBps {
		return nil, metrics.DropBelowMinEdge
	}

	confidence, bucket := ScoreConfidence(ConfidenceInput{
		EdgeBps:       edgeBps,
		ContractAge:   cmp.ContractAge,
		SportsbookAge: cmp.SportsbookAge,
		Liquidity:     cmp.Contract.Liquidity,
		Fair:          cmp.Fair,
	}, params)

	price := cmp.Contract.Ask
	if direction == models.DirectionRich {
		price = cmp.Contract.Bid
	}

	return &models.Alert{
		ID:                   uuid.New(),
		EmittedAt:            now,
		MappingKey:           cmp.Mapping.Key,
		Direction:            direction,
		EdgeBps:              edgeBps,
		Confidence:           confidence,
		Bucket:               bucket,
		ContractID:           cmp.Contract.ContractID,
		ContractSide:         cmp.Contract.Side,
		ContractPrice:        price,
		Liquidity:            cmp.Contract.Liquidity,
		EventID:              cmp.Mapping.Selection.EventID,
		MarketType:           cmp.Mapping.Selection.MarketType,
		Selection:            cmp.Mapping.Selection.Selection,
		FairProbability:      cmp.Fair.Probability,
		Overround:            cmp.Fair.Overround,
		VigMethod:            cmp.Fair.Method,
		BookCount:            cmp.Fair.BookCount,
		ContractAgeSeconds:   cmp.ContractAge.Seconds(),
		SportsbookAgeSeconds: cmp.SportsbookAge.Seconds(),
	}, ""
}

// selectEdge keeps the larger non-negative edge; cheap wins ties
func selectEdge(cheap, rich float64) (models.Direction, float64, bool) {
	switch {
	case cheap >= 0 && cheap >= rich:
		return models.DirectionCheap, cheap, true
	case rich >= 0:
		return models.DirectionRich, rich, true
	default:
		return "", 0, false
	}
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
