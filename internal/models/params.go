package models

import "time"

// ScanParams holds every tunable the scanner needs for one cycle
type ScanParams struct {
	KalshiSlippage      float64       // subtracted from both edges (0.005 = 0.5%)
	SportsbookFriction  float64       // haircut on the fair probability (0.01 = 1%)
	MinEdgeBps          float64       // minimum selected edge to alert
	MinLiquidity        int64         // minimum contracts at the best price
	MaxStaleness        time.Duration // maximum quote age on either side
	FetchConcurrency    int           // ceiling on concurrent mapping fetches
	FetchTimeout        time.Duration // per-fetch deadline
	AlertCooldown       time.Duration // cross-cycle suppression; zero disables
	EscalationThreshold int           // consecutive failing cycles before giving up
	PollInterval        time.Duration // delay between cycles
}

// DefaultScanParams returns the documented defaults
func DefaultScanParams() ScanParams {
	return ScanParams{
		KalshiSlippage:      0.005,
		SportsbookFriction:  0.01,
		MinEdgeBps:          50,
		MinLiquidity:        10,
		MaxStaleness:        60 * time.Second,
		FetchConcurrency:    8,
		FetchTimeout:        10 * time.Second,
		EscalationThreshold: 5,
		PollInterval:        60 * time.Second,
	}
}
