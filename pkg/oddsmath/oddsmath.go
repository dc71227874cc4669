// Package oddsmath converts between American odds, decimal odds and implied
// probability, and removes bookmaker vig from quoted probabilities.
//
// All probabilities are fractions in [0, 1]. Every function is pure.
package oddsmath

import (
	"fmt"
	"math"
)

// InvalidOddsError is returned when an odds value cannot exist in its format.
type InvalidOddsError struct {
	Format string
	Value  float64
}

func (e *InvalidOddsError) Error() string {
	return fmt.Sprintf("invalid %s odds: %v", e.Format, e.Value)
}

// DegenerateMarketError is returned when vig cannot be removed from a quote set.
type DegenerateMarketError struct {
	Sum float64
}

func (e *DegenerateMarketError) Error() string {
	return fmt.Sprintf("degenerate market: implied probabilities sum to %v", e.Sum)
}

// AmericanToProbability converts American odds to implied probability.
// Favorites (odds <= -100): |odds| / (|odds| + 100)
// Underdogs (odds >= +100): 100 / (odds + 100)
func AmericanToProbability(odds float64) (float64, error) {
	switch {
	case math.IsNaN(odds) || math.IsInf(odds, 0):
		return 0, &InvalidOddsError{Format: "american", Value: odds}
	case odds <= -100:
		return -odds / (-odds + 100), nil
	case odds >= 100:
		return 100 / (odds + 100), nil
	default:
		return 0, &InvalidOddsError{Format: "american", Value: odds}
	}
}

// DecimalToProbability converts decimal odds to implied probability (1 / odds).
func DecimalToProbability(odds float64) (float64, error) {
	if math.IsNaN(odds) || math.IsInf(odds, 0) || odds <= 1 {
		return 0, &InvalidOddsError{Format: "decimal", Value: odds}
	}
	return 1 / odds, nil
}

// ProbabilityToAmerican converts a probability in (0, 1) to American odds.
// Probabilities of 0.5 and above map to favorite (negative) odds.
func ProbabilityToAmerican(p float64) (float64, error) {
	if !validProbability(p) {
		return 0, fmt.Errorf("probability must be in (0, 1), got %v", p)
	}
	if p >= 0.5 {
		return -100 * p / (1 - p), nil
	}
	return 100 * (1 - p) / p, nil
}

// ProbabilityToDecimal converts a probability in (0, 1) to decimal odds.
func ProbabilityToDecimal(p float64) (float64, error) {
	if !validProbability(p) {
		return 0, fmt.Errorf("probability must be in (0, 1), got %v", p)
	}
	return 1 / p, nil
}

// Overround returns the bookmaker margin of a two-way quote: a + b - 1.
func Overround(a, b float64) float64 {
	return a + b - 1
}

// RemoveVigTwoWay applies proportional normalization to a two-outcome quote
// and returns both fair probabilities plus the overround of the input pair.
func RemoveVigTwoWay(a, b float64) (float64, float64, float64, error) {
	sum := a + b
	if sum <= 0 || math.IsNaN(sum) {
		return 0, 0, 0, &DegenerateMarketError{Sum: sum}
	}
	return a / sum, b / sum, Overround(a, b), nil
}

// RemoveVigPairwise is the best-effort approximation used for markets with
// more than two outcomes: the target outcome is paired against the combined
// probability of every other outcome and normalized two-way. Results carry
// no correctness bound and must be treated as low confidence.
func RemoveVigPairwise(target float64, others []float64) (float64, float64, error) {
	var rest float64
	for _, p := range others {
		rest += p
	}
	fair, _, overround, err := RemoveVigTwoWay(target, rest)
	if err != nil {
		return 0, 0, err
	}
	return fair, overround, nil
}

// ToBasisPoints converts a probability-point edge into basis points.
func ToBasisPoints(edge float64) float64 {
	return edge * 10_000
}

func validProbability(p float64) bool {
	return p > 0 && p < 1 && !math.IsNaN(p)
}
