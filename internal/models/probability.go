package models

import (
	"fmt"
	"math"
)

// VigMethod names how a fair probability was derived
type VigMethod string

const (
	VigMethodProportional VigMethod = "proportional_two_way"
	// VigMethodPairwise marks the multi-way approximation; always low confidence
	VigMethodPairwise VigMethod = "pairwise_approximation"
)

// NormalizedProbability is the vig-adjusted fair probability for a selection
type NormalizedProbability struct {
	Probability float64   `json:"probability"`
	Method      VigMethod `json:"method"`
	Overround   float64   `json:"overround"`
	BookCount   int       `json:"book_count"`
}

// NewNormalizedProbability enforces 0 < p < 1 and overround >= 0
func NewNormalizedProbability(p float64, method VigMethod, overround float64, books int) (NormalizedProbability, error) {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return NormalizedProbability{}, fmt.Errorf("%w: fair probability must be in (0, 1), got %v", ErrInvalidInput, p)
	}
	if math.IsNaN(overround) || overround < 0 {
		return NormalizedProbability{}, fmt.Errorf("%w: negative overround %v", ErrInvalidInput, overround)
	}
	switch method {
	case VigMethodProportional, VigMethodPairwise:
	default:
		return NormalizedProbability{}, fmt.Errorf("%w: unknown vig method %q", ErrInvalidInput, method)
	}
	return NormalizedProbability{
		Probability: p,
		Method:      method,
		Overround:   overround,
		BookCount:   books,
	}, nil
}

// IsApproximation reports whether the probability came from a multi-way market
func (n NormalizedProbability) IsApproximation() bool {
	return n.Method == VigMethodPairwise
}
