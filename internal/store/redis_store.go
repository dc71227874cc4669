// Package store persists emitted alerts. Every store is append-only.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

const (
	timelineKey = "alerts:timeline" // sorted set: alert id scored by emission time
	payloadKey  = "alerts:payload"  // hash: alert id -> JSON
)

// RedisStore keeps alerts in a time-ordered sorted set plus a payload hash
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// RedisStoreConfig holds Redis store configuration
type RedisStoreConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore creates a new Redis alert store
func NewRedisStore(config RedisStoreConfig, logger zerolog.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client: client,
		logger: logger.With().Str("component", "redis_alert_store").Logger(),
	}
}

// SaveAlert appends an alert. Saving an id twice keeps the first copy.
func (s *RedisStore) SaveAlert(ctx context.Context, alert models.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	id := alert.ID.String()
	pipe := s.client.TxPipeline()
	pipe.HSetNX(ctx, payloadKey, id, data)
	pipe.ZAddNX(ctx, timelineKey, redis.Z{
		Score:  float64(alert.EmittedAt.UnixMilli()),
		Member: id,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}

	s.logger.Debug().Str("alert_id", id).Msg("alert saved")
	return nil
}

// ListRecentAlerts returns at most limit alerts, most recent first
func (s *RedisStore) ListRecentAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		return nil, nil
	}

	ids, err := s.client.ZRevRange(ctx, timelineKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read alert timeline: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	values, err := s.client.HMGet(ctx, payloadKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read alert payloads: %w", err)
	}

	alerts := make([]models.Alert, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			s.logger.Warn().Str("alert_id", ids[i]).Msg("alert payload missing")
			continue
		}
		var alert models.Alert
		if err := json.Unmarshal([]byte(raw), &alert); err != nil {
			s.logger.Warn().Err(err).Str("alert_id", ids[i]).Msg("failed to unmarshal alert")
			continue
		}
		alerts = append(alerts, alert)
	}

	return alerts, nil
}

// Ping checks Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
