package models

import (
	"errors"

	"github.com/cypherlabdev/kalshi-odds-scanner/pkg/oddsmath"
)

var (
	// ErrInvalidInput marks malformed odds, quotes or mapping entries; the item is rejected
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned by quote sources that have no data for an identifier
	ErrNotFound = errors.New("not found")
	// ErrUpstreamUnavailable marks a failed collaborator fetch; the mapping is skipped for the cycle
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrPersistentUpstreamFailure stops the scan loop
	ErrPersistentUpstreamFailure = errors.New("persistent upstream failure")
)

type (
	InvalidOddsError      = oddsmath.InvalidOddsError
	DegenerateMarketError = oddsmath.DegenerateMarketError
)

// IsInputError reports whether err rejects a single malformed item
func IsInputError(err error) bool {
	var invalid *InvalidOddsError
	return errors.Is(err, ErrInvalidInput) || errors.As(err, &invalid)
}

// IsDegenerate reports whether err is a vig-removal failure
func IsDegenerate(err error) bool {
	var degenerate *DegenerateMarketError
	return errors.As(err, &degenerate)
}
