package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/service"
)

var _ service.QuoteCache = (*RedisCache)(nil)
var _ service.SportsbookQuoteSource = (*RedisCache)(nil)

// testRedisCacheSetup is a helper struct to hold test dependencies
type testRedisCacheSetup struct {
	cache     *RedisCache
	miniRedis *miniredis.Miniredis
	ctx       context.Context
}

// setupTestRedisCache creates a test cache with miniredis
func setupTestRedisCache(t *testing.T) *testRedisCacheSetup {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	config := RedisCacheConfig{
		Addr: mr.Addr(),
		TTL:  5 * time.Minute,
	}

	return &testRedisCacheSetup{
		cache:     NewRedisCache(config, zerolog.Nop()),
		miniRedis: mr,
		ctx:       context.Background(),
	}
}

// cleanup cleans up test resources
func (s *testRedisCacheSetup) cleanup() {
	s.cache.Close()
	s.miniRedis.Close()
}

func quote(book, eventID, selection string, odds int64) models.SportsbookQuote {
	return models.SportsbookQuote{
		EventID:    eventID,
		EventTitle: "Houston Rockets at Oklahoma City Thunder",
		Bookmaker:  book,
		MarketType: models.MarketTypeH2H,
		Selection:  selection,
		Odds:       decimal.NewFromInt(odds),
		Format:     models.OddsFormatAmerican,
		ObservedAt: time.Date(2026, 2, 7, 19, 0, 0, 0, time.UTC),
	}
}

// TestSet_Success tests caching one quote under its key with a TTL
func TestSet_Success(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	err := setup.cache.Set(setup.ctx, quote("draftkings", "evt-1", "Oklahoma City Thunder", -150))
	require.NoError(t, err)

	key := "quotes:evt-1:h2h:draftkings:oklahoma city thunder"
	assert.True(t, setup.miniRedis.Exists(key))
	assert.Equal(t, 5*time.Minute, setup.miniRedis.TTL(key))
}

// TestSet_Invalid tests that malformed quotes never reach Redis
func TestSet_Invalid(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	err := setup.cache.Set(setup.ctx, quote("draftkings", "evt-1", "Thunder", -50))
	assert.Error(t, err)
	assert.Empty(t, setup.miniRedis.Keys())
}

// TestSet_ContextCanceled tests set operation with canceled context
func TestSet_ContextCanceled(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := setup.cache.Set(ctx, quote("draftkings", "evt-1", "Thunder", -150))
	assert.Error(t, err)
}

// TestSetBatch_GetQuotes tests the pipeline write and the event/market read
func TestSetBatch_GetQuotes(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	quotes := []models.SportsbookQuote{
		quote("fanduel", "evt-1", "Thunder", -140),
		quote("fanduel", "evt-1", "Rockets", 120),
		quote("draftkings", "evt-1", "Thunder", -150),
		quote("draftkings", "evt-1", "Rockets", 130),
		quote("draftkings", "evt-2", "Celtics", -200),
		quote("draftkings", "evt-1", "Broken", 50),
	}

	require.NoError(t, setup.cache.SetBatch(setup.ctx, quotes))

	got, err := setup.cache.GetQuotes(setup.ctx, "evt-1", models.MarketTypeH2H)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "draftkings", got[0].Bookmaker)
	assert.Equal(t, "Rockets", got[0].Selection)
	assert.True(t, got[1].Odds.Equal(decimal.NewFromInt(-150)))
	assert.Equal(t, "fanduel", got[3].Bookmaker)

	got, err = setup.cache.GetQuotes(setup.ctx, "evt-1", models.MarketTypeTotals)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestSet_ReplacesLine tests that a newer line overwrites the bookmaker's old one
func TestSet_ReplacesLine(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	require.NoError(t, setup.cache.Set(setup.ctx, quote("draftkings", "evt-1", "Thunder", -150)))
	require.NoError(t, setup.cache.Set(setup.ctx, quote("draftkings", "evt-1", "Thunder", -170)))

	got, err := setup.cache.GetQuotes(setup.ctx, "evt-1", models.MarketTypeH2H)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Odds.Equal(decimal.NewFromInt(-170)))
}

// TestGetQuotes_Expired tests that quotes disappear after the TTL
func TestGetQuotes_Expired(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	require.NoError(t, setup.cache.Set(setup.ctx, quote("draftkings", "evt-1", "Thunder", -150)))
	setup.miniRedis.FastForward(6 * time.Minute)

	got, err := setup.cache.GetQuotes(setup.ctx, "evt-1", models.MarketTypeH2H)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestGetQuotes_RedisDown tests that a dead Redis surfaces as upstream unavailable
func TestGetQuotes_RedisDown(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	setup.miniRedis.Close()

	_, err := setup.cache.GetQuotes(setup.ctx, "evt-1", models.MarketTypeH2H)
	assert.True(t, errors.Is(err, models.ErrUpstreamUnavailable))
}

// TestListSelections tests the distinct selection listing used for candidates
func TestListSelections(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	require.NoError(t, setup.cache.SetBatch(setup.ctx, []models.SportsbookQuote{
		quote("fanduel", "evt-1", "Thunder", -140),
		quote("draftkings", "evt-1", "Thunder", -150),
		quote("draftkings", "evt-1", "Rockets", 130),
	}))

	selections, err := setup.cache.ListSelections(setup.ctx)
	require.NoError(t, err)
	require.Len(t, selections, 2)
	assert.Equal(t, "Rockets", selections[0].Label)
	assert.Equal(t, "Thunder", selections[1].Label)
	assert.Equal(t, "Houston Rockets at Oklahoma City Thunder", selections[0].EventTitle)
}

// TestPing tests Redis connectivity check
func TestPing(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	assert.NoError(t, setup.cache.Ping(setup.ctx))
}
