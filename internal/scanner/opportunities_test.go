package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

// TestAggregateOpportunities tests grouping, representative choice and ranking
func TestAggregateOpportunities(t *testing.T) {
	alerts := []models.Alert{
		{MappingKey: "okc", Direction: models.DirectionCheap, EdgeBps: 100, Liquidity: 100, BookCount: 1, EmittedAt: testNow},
		{MappingKey: "okc", Direction: models.DirectionCheap, EdgeBps: 200, Liquidity: 100, BookCount: 3, EmittedAt: testNow.Add(time.Minute)},
		{MappingKey: "okc", Direction: models.DirectionCheap, EdgeBps: 900, Liquidity: 100, BookCount: 3, EmittedAt: testNow.Add(-time.Minute)},
		{MappingKey: "hou", Direction: models.DirectionRich, EdgeBps: 60, Liquidity: 16, BookCount: 1, EmittedAt: testNow},
	}

	opps := AggregateOpportunities(alerts)
	require.Len(t, opps, 2)

	assert.Equal(t, "okc", opps[0].MappingKey)
	assert.Equal(t, 3, opps[0].AlertCount)
	assert.Equal(t, 200.0, opps[0].EdgeBps)
	assert.Equal(t, testNow.Add(time.Minute), opps[0].LastSeen)
	assert.InDelta(t, rankScore(200, 100, 3), opps[0].RankScore, 1e-12)

	assert.Equal(t, "hou", opps[1].MappingKey)
	assert.Equal(t, 1, opps[1].AlertCount)
	assert.Greater(t, opps[0].RankScore, opps[1].RankScore)
}

// TestRankScore tests the ranking formula
func TestRankScore(t *testing.T) {
	// 2 cents * sqrt(100) * (1 + ln 2)
	assert.InDelta(t, 2*10*(1+0.6931471805599453), rankScore(200, 100, 1), 1e-9)
	assert.Equal(t, 0.0, rankScore(0, 100, 1))
	assert.Equal(t, 0.0, rankScore(100, 0, 1))
	assert.Empty(t, AggregateOpportunities(nil))
}
