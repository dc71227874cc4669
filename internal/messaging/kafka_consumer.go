package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/metrics"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/service"
)

// KafkaConsumer consumes sportsbook quote batches from Kafka into the quote cache
type KafkaConsumer struct {
	reader  *kafka.Reader
	cache   service.QuoteCache
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// KafkaConsumerConfig holds Kafka consumer configuration
type KafkaConsumerConfig struct {
	Brokers []string // e.g., ["localhost:9092"]
	Topic   string   // e.g., "sportsbook_quotes"
	GroupID string   // e.g., "kalshi-odds-scanner"
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(
	config KafkaConsumerConfig,
	cache service.QuoteCache,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       1e3,  // 1KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &KafkaConsumer{
		reader:  reader,
		cache:   cache,
		metrics: m,
		logger:  logger.With().Str("component", "kafka_consumer").Logger(),
	}
}

// Start begins consuming messages from Kafka
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("started consuming from Kafka")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("stopping Kafka consumer")
			return nil

		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					return nil
				}
				c.logger.Error().Err(err).Msg("failed to fetch message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.logger.Error().
					Err(err).
					Int64("offset", msg.Offset).
					Str("key", string(msg.Key)).
					Msg("failed to process message")
				// Don't commit if processing failed
				continue
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("failed to commit message")
			}
		}
	}
}

// processMessage validates a quote batch and caches the valid quotes.
// Invalid quotes are dropped individually; only a cache failure fails the message.
func (c *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var batch models.KafkaQuoteBatchMessage
	if err := json.Unmarshal(msg.Value, &batch); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	valid := make([]models.SportsbookQuote, 0, len(batch.Quotes))
	for _, q := range batch.Quotes {
		if err := q.Validate(); err != nil {
			c.metrics.Drop(metrics.DropInvalidInput)
			c.logger.Warn().
				Err(err).
				Str("batch_id", batch.BatchID).
				Str("event_id", q.EventID).
				Str("bookmaker", q.Bookmaker).
				Msg("dropping invalid quote")
			continue
		}
		valid = append(valid, q)
	}

	if len(valid) == 0 {
		c.logger.Debug().Str("batch_id", batch.BatchID).Msg("quote batch had nothing to cache")
		return nil
	}

	if err := c.cache.SetBatch(ctx, valid); err != nil {
		return fmt.Errorf("failed to cache quotes: %w", err)
	}
	c.metrics.Ingested(len(valid))

	c.logger.Info().
		Int("input_count", len(batch.Quotes)).
		Int("cached_count", len(valid)).
		Str("batch_id", batch.BatchID).
		Msg("cached sportsbook quote batch")

	return nil
}

// Close closes the Kafka reader
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
