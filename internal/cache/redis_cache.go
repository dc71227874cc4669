package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

const keyPrefix = "quotes"

// RedisCache caches the latest sportsbook quote per bookmaker and selection
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// RedisCacheConfig holds Redis cache configuration
type RedisCacheConfig struct {
	Addr     string // e.g., "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // e.g., 5 * time.Minute
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(config RedisCacheConfig, logger zerolog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisCache{
		client: client,
		ttl:    config.TTL,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

// quoteKey builds quotes:{event_id}:{market_type}:{bookmaker}:{selection}
func quoteKey(q models.SportsbookQuote) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", keyPrefix, q.EventID, q.MarketType, q.Bookmaker, strings.ToLower(q.Selection))
}

// Set caches one quote, replacing the bookmaker's previous line
func (c *RedisCache) Set(ctx context.Context, quote models.SportsbookQuote) error {
	if err := quote.Validate(); err != nil {
		return fmt.Errorf("refusing to cache quote: %w", err)
	}

	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	key := quoteKey(quote)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in Redis: %w", err)
	}

	c.logger.Debug().
		Str("key", key).
		Dur("ttl", c.ttl).
		Msg("cached sportsbook quote")

	return nil
}

// SetBatch caches multiple quotes in one pipeline. Invalid quotes are skipped.
func (c *RedisCache) SetBatch(ctx context.Context, quotes []models.SportsbookQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	queued := 0

	for _, q := range quotes {
		if err := q.Validate(); err != nil {
			c.logger.Warn().Err(err).Str("event_id", q.EventID).Msg("skipping invalid quote")
			continue
		}
		data, err := json.Marshal(q)
		if err != nil {
			c.logger.Error().Err(err).Msg("failed to marshal quote")
			continue
		}
		pipe.Set(ctx, quoteKey(q), data, c.ttl)
		queued++
	}

	if queued == 0 {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute pipeline: %w", err)
	}

	c.logger.Info().
		Int("count", queued).
		Msg("cached batch of sportsbook quotes")

	return nil
}

// GetQuotes returns every cached quote for an event and market, ordered by
// bookmaker then selection. An empty result means no current line.
func (c *RedisCache) GetQuotes(ctx context.Context, eventID string, marketType models.MarketType) ([]models.SportsbookQuote, error) {
	keys, err := c.scan(ctx, fmt.Sprintf("%s:%s:%s:*", keyPrefix, eventID, marketType))
	if err != nil {
		return nil, err
	}

	quotes := c.load(ctx, keys)
	sort.Slice(quotes, func(i, j int) bool {
		if quotes[i].Bookmaker != quotes[j].Bookmaker {
			return quotes[i].Bookmaker < quotes[j].Bookmaker
		}
		return quotes[i].Selection < quotes[j].Selection
	})

	return quotes, nil
}

// ListSelections returns the distinct selections currently cached
func (c *RedisCache) ListSelections(ctx context.Context) ([]models.Selection, error) {
	keys, err := c.scan(ctx, keyPrefix+":*")
	if err != nil {
		return nil, err
	}

	seen := make(map[models.SelectionRef]struct{})
	var selections []models.Selection
	for _, q := range c.load(ctx, keys) {
		ref := models.SelectionRef{EventID: q.EventID, MarketType: q.MarketType, Selection: q.Selection}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		selections = append(selections, models.Selection{
			EventID:    q.EventID,
			EventTitle: q.EventTitle,
			MarketType: q.MarketType,
			Label:      q.Selection,
		})
	}

	sort.Slice(selections, func(i, j int) bool {
		if selections[i].EventID != selections[j].EventID {
			return selections[i].EventID < selections[j].EventID
		}
		return selections[i].Label < selections[j].Label
	})

	return selections, nil
}

func (c *RedisCache) scan(ctx context.Context, pattern string) ([]string, error) {
	var cursor uint64
	var keys []string

	for {
		var scanKeys []string
		var err error
		scanKeys, cursor, err = c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan keys: %v", models.ErrUpstreamUnavailable, err)
		}

		keys = append(keys, scanKeys...)

		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

func (c *RedisCache) load(ctx context.Context, keys []string) []models.SportsbookQuote {
	quotes := make([]models.SportsbookQuote, 0, len(keys))
	for _, key := range keys {
		data, err := c.client.Get(ctx, key).Bytes()
		if err != nil {
			// expired between SCAN and GET
			if err != redis.Nil {
				c.logger.Warn().Err(err).Str("key", key).Msg("failed to get key")
			}
			continue
		}

		var q models.SportsbookQuote
		if err := json.Unmarshal(data, &q); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to unmarshal quote")
			continue
		}

		quotes = append(quotes, q)
	}
	return quotes
}

// Ping checks Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
