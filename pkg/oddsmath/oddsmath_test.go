package oddsmath

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

// TestAmericanToProbability_Examples tests the reference conversions
func TestAmericanToProbability_Examples(t *testing.T) {
	p, err := AmericanToProbability(-110)
	require.NoError(t, err)
	assert.InDelta(t, 0.5238, p, 0.0001)

	p, err = AmericanToProbability(150)
	require.NoError(t, err)
	assert.InDelta(t, 0.4000, p, 0.0001)

	p, err = AmericanToProbability(-100)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, tolerance)

	p, err = AmericanToProbability(100)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, tolerance)
}

// TestAmericanToProbability_OpenInterval tests rejection of odds in (-100, +100)
func TestAmericanToProbability_OpenInterval(t *testing.T) {
	for _, odds := range []float64{-99.99, -50, 0, 1, 99} {
		_, err := AmericanToProbability(odds)
		require.Error(t, err, "odds %v", odds)

		var invalid *InvalidOddsError
		assert.True(t, errors.As(err, &invalid))
		assert.Equal(t, "american", invalid.Format)
	}
}

// TestDecimalToProbability tests decimal conversion and its lower bound
func TestDecimalToProbability(t *testing.T) {
	p, err := DecimalToProbability(2.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, tolerance)

	p, err = DecimalToProbability(2.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, p, tolerance)

	for _, odds := range []float64{1.0, 0.5, 0, -2, math.NaN()} {
		_, err := DecimalToProbability(odds)
		var invalid *InvalidOddsError
		assert.True(t, errors.As(err, &invalid), "odds %v", odds)
	}
}

// TestRoundTrip_American tests odds -> probability -> odds recovery
func TestRoundTrip_American(t *testing.T) {
	for _, odds := range []float64{-10000, -450, -200, -110, -100, 100, 101, 150, 333, 2500, 10000} {
		p, err := AmericanToProbability(odds)
		require.NoError(t, err)

		back, err := ProbabilityToAmerican(p)
		require.NoError(t, err)

		// +100 and -100 both describe p = 0.5; the favorite form is canonical.
		if math.Abs(odds) == 100 {
			assert.InDelta(t, 100, math.Abs(back), 1e-6)
			continue
		}
		assert.InDelta(t, odds, back, 1e-6, "odds %v", odds)
	}
}

// TestRoundTrip_Decimal tests odds -> probability -> odds recovery
func TestRoundTrip_Decimal(t *testing.T) {
	for _, odds := range []float64{1.01, 1.5, 1.91, 2.0, 3.75, 11, 101} {
		p, err := DecimalToProbability(odds)
		require.NoError(t, err)

		back, err := ProbabilityToDecimal(p)
		require.NoError(t, err)
		assert.InDelta(t, odds, back, 1e-9*odds)
	}
}

// TestRoundTrip_Probability tests probability -> odds -> probability recovery
func TestRoundTrip_Probability(t *testing.T) {
	for i := 1; i < 100; i++ {
		p := float64(i) / 100

		american, err := ProbabilityToAmerican(p)
		require.NoError(t, err)
		fromAmerican, err := AmericanToProbability(american)
		require.NoError(t, err)
		assert.InDelta(t, p, fromAmerican, tolerance)

		dec, err := ProbabilityToDecimal(p)
		require.NoError(t, err)
		fromDecimal, err := DecimalToProbability(dec)
		require.NoError(t, err)
		assert.InDelta(t, p, fromDecimal, tolerance)
	}
}

// TestProbabilityTo_OutOfRange tests rejection of probabilities outside (0, 1)
func TestProbabilityTo_OutOfRange(t *testing.T) {
	for _, p := range []float64{0, 1, -0.2, 1.5} {
		_, err := ProbabilityToAmerican(p)
		assert.Error(t, err)
		_, err = ProbabilityToDecimal(p)
		assert.Error(t, err)
	}
}

// TestRemoveVigTwoWay_BothMinus110 tests the standard -110/-110 market
func TestRemoveVigTwoWay_BothMinus110(t *testing.T) {
	p, err := AmericanToProbability(-110)
	require.NoError(t, err)

	a, b, overround, err := RemoveVigTwoWay(p, p)
	require.NoError(t, err)
	assert.InDelta(t, 0.0476, overround, 0.0001)
	assert.Equal(t, 0.5, a)
	assert.Equal(t, 0.5, b)
}

// TestRemoveVigTwoWay_Symmetric tests exact halves for symmetric inputs
func TestRemoveVigTwoWay_Symmetric(t *testing.T) {
	for _, p := range []float64{0.51, 0.55, 0.6, 0.75, 0.99} {
		a, b, _, err := RemoveVigTwoWay(p, p)
		require.NoError(t, err)
		assert.Equal(t, 0.5, a)
		assert.Equal(t, 0.5, b)
	}
}

// TestRemoveVigTwoWay_SumsToOne tests that fair probabilities are normalized
func TestRemoveVigTwoWay_SumsToOne(t *testing.T) {
	a, b, overround, err := RemoveVigTwoWay(0.6, 0.45)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, a+b, tolerance)
	assert.InDelta(t, 0.05, overround, tolerance)
	assert.InDelta(t, 0.6/1.05, a, tolerance)
}

// TestRemoveVigTwoWay_Degenerate tests rejection of non-positive sums
func TestRemoveVigTwoWay_Degenerate(t *testing.T) {
	_, _, _, err := RemoveVigTwoWay(0, 0)
	var degenerate *DegenerateMarketError
	require.True(t, errors.As(err, &degenerate))
	assert.Equal(t, 0.0, degenerate.Sum)

	_, _, _, err = RemoveVigTwoWay(0.3, -0.5)
	assert.True(t, errors.As(err, &degenerate))
}

// TestRemoveVigPairwise tests the multi-way approximation
func TestRemoveVigPairwise(t *testing.T) {
	fair, overround, err := RemoveVigPairwise(0.40, []float64{0.35, 0.30})
	require.NoError(t, err)
	assert.InDelta(t, 0.40/1.05, fair, tolerance)
	assert.InDelta(t, 0.05, overround, tolerance)

	_, _, err = RemoveVigPairwise(0, nil)
	assert.Error(t, err)
}

// TestToBasisPoints tests edge conversion
func TestToBasisPoints(t *testing.T) {
	assert.InDelta(t, 350.0, ToBasisPoints(0.035), 1e-9)
	assert.InDelta(t, -50.0, ToBasisPoints(-0.005), 1e-9)
}
