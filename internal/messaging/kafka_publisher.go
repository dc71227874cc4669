package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

// messageWriter is the subset of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaAlertPublisher emits alerts to a Kafka topic, keyed by market key so
// every alert for one mapping lands on the same partition.
type KafkaAlertPublisher struct {
	writer messageWriter
	logger zerolog.Logger
}

// KafkaPublisherConfig holds Kafka producer configuration
type KafkaPublisherConfig struct {
	Brokers []string
	Topic   string // e.g., "odds_alerts"
}

// NewKafkaAlertPublisher creates a publisher for the alert topic
func NewKafkaAlertPublisher(config KafkaPublisherConfig, logger zerolog.Logger) *KafkaAlertPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Topic:                  config.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
	}

	return newKafkaAlertPublisher(writer, logger)
}

func newKafkaAlertPublisher(w messageWriter, logger zerolog.Logger) *KafkaAlertPublisher {
	return &KafkaAlertPublisher{
		writer: w,
		logger: logger.With().Str("component", "kafka_alert_publisher").Logger(),
	}
}

// Emit publishes one alert
func (p *KafkaAlertPublisher) Emit(ctx context.Context, alert models.Alert) error {
	value, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(alert.MappingKey),
		Value: value,
		Time:  alert.EmittedAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish alert %s: %w", alert.ID, err)
	}

	p.logger.Debug().
		Str("alert_id", alert.ID.String()).
		Str("market_key", alert.MappingKey).
		Msg("published alert")
	return nil
}

// Close flushes and closes the writer
func (p *KafkaAlertPublisher) Close() error {
	return p.writer.Close()
}
