package scanner

import (
	"math"
	"time"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

// Component ceilings; they sum to 1.
const (
	edgeWeight      = 0.4
	freshnessWeight = 0.3
	liquidityWeight = 0.2
	overroundWeight = 0.1

	edgeSaturationBps = 500.0
	overroundCeiling  = 0.10

	highThreshold = 0.75
	medThreshold  = 0.50
)

// ConfidenceInput carries everything the score depends on
type ConfidenceInput struct {
	EdgeBps       float64
	ContractAge   time.Duration
	SportsbookAge time.Duration
	Liquidity     int64
	Fair          models.NormalizedProbability
}

// ScoreConfidence returns a weighted score in [0, 1] and its bucket.
// Multi-way approximations have the overround component halved and are
// always bucketed LOW.
func ScoreConfidence(in ConfidenceInput, params models.ScanParams) (float64, models.Bucket) {
	score := edgeComponent(in.EdgeBps) +
		freshnessComponent(in.ContractAge, in.SportsbookAge, params.MaxStaleness) +
		liquidityComponent(in.Liquidity, params.MinLiquidity) +
		overroundComponent(in.Fair)

	score = clamp(score, 0, 1)

	if in.Fair.IsApproximation() {
		return score, models.BucketLow
	}
	return score, bucketFor(score)
}

func edgeComponent(edgeBps float64) float64 {
	return clamp(edgeBps/edgeSaturationBps*edgeWeight, 0, edgeWeight)
}

func freshnessComponent(contractAge, sportsbookAge, maxStaleness time.Duration) float64 {
	if maxStaleness <= 0 {
		return 0
	}
	age := contractAge
	if sportsbookAge > age {
		age = sportsbookAge
	}
	if age < 0 {
		age = 0
	}
	return clamp(freshnessWeight*(1-age.Seconds()/maxStaleness.Seconds()), 0, freshnessWeight)
}

func liquidityComponent(liquidity, minLiquidity int64) float64 {
	if minLiquidity <= 0 {
		return liquidityWeight
	}
	return liquidityWeight * math.Min(1, float64(liquidity)/float64(2*minLiquidity))
}

func overroundComponent(fair models.NormalizedProbability) float64 {
	c := clamp(overroundWeight*(1-fair.Overround/overroundCeiling), 0, overroundWeight)
	if fair.IsApproximation() {
		c = math.Min(c, overroundWeight/2)
	}
	return c
}

func bucketFor(score float64) models.Bucket {
	switch {
	case score >= highThreshold:
		return models.BucketHigh
	case score >= medThreshold:
		return models.BucketMed
	default:
		return models.BucketLow
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
