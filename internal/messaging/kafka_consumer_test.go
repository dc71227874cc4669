package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/metrics"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/mocks"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

// testKafkaConsumerSetup is a helper struct to hold test dependencies
type testKafkaConsumerSetup struct {
	mockCache *mocks.MockQuoteCache
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	ctrl      *gomock.Controller
}

// setupTestKafkaConsumer creates a test consumer with mocked dependencies
func setupTestKafkaConsumer(t *testing.T) *testKafkaConsumerSetup {
	ctrl := gomock.NewController(t)

	return &testKafkaConsumerSetup{
		mockCache: mocks.NewMockQuoteCache(ctrl),
		metrics:   metrics.NewMetrics(prometheus.NewRegistry()),
		logger:    zerolog.Nop(),
		ctrl:      ctrl,
	}
}

// cleanup cleans up test resources
func (s *testKafkaConsumerSetup) cleanup() {
	s.ctrl.Finish()
}

func (s *testKafkaConsumerSetup) newConsumer() *KafkaConsumer {
	config := KafkaConsumerConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "sportsbook_quotes",
		GroupID: "test-group",
	}
	return NewKafkaConsumer(config, s.mockCache, s.metrics, s.logger)
}

func bookQuote(book, selection string, odds int64) models.SportsbookQuote {
	return models.SportsbookQuote{
		EventID:    "evt-1",
		Bookmaker:  book,
		MarketType: models.MarketTypeH2H,
		Selection:  selection,
		Odds:       decimal.NewFromInt(odds),
		Format:     models.OddsFormatAmerican,
		ObservedAt: time.Date(2026, 2, 7, 19, 0, 0, 0, time.UTC),
	}
}

func batchMessage(t *testing.T, quotes ...models.SportsbookQuote) kafka.Message {
	value, err := json.Marshal(models.KafkaQuoteBatchMessage{
		Quotes:    quotes,
		Timestamp: time.Date(2026, 2, 7, 19, 0, 0, 0, time.UTC),
		BatchID:   "batch-123",
	})
	require.NoError(t, err)
	return kafka.Message{Key: []byte("evt-1"), Value: value, Offset: 42}
}

// TestNewKafkaConsumer tests consumer creation
func TestNewKafkaConsumer(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := setup.newConsumer()
	defer consumer.Close()

	assert.NotNil(t, consumer.reader)
	assert.NotNil(t, consumer.cache)
	assert.Equal(t, "sportsbook_quotes", consumer.reader.Config().Topic)
	assert.Equal(t, "test-group", consumer.reader.Config().GroupID)
}

// TestProcessMessage_CachesValidQuotes tests that a batch reaches the cache
func TestProcessMessage_CachesValidQuotes(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := setup.newConsumer()
	defer consumer.Close()

	setup.mockCache.EXPECT().
		SetBatch(gomock.Any(), gomock.Len(2)).
		DoAndReturn(func(_ context.Context, quotes []models.SportsbookQuote) error {
			assert.Equal(t, "Thunder", quotes[0].Selection)
			assert.True(t, quotes[1].Odds.Equal(decimal.NewFromInt(130)))
			return nil
		})

	msg := batchMessage(t, bookQuote("draftkings", "Thunder", -150), bookQuote("draftkings", "Rockets", 130))
	require.NoError(t, consumer.processMessage(context.Background(), msg))

	assert.Equal(t, 2.0, testutil.ToFloat64(setup.metrics.QuotesIngested))
}

// TestProcessMessage_DropsInvalidQuotes tests per-quote validation before caching
func TestProcessMessage_DropsInvalidQuotes(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := setup.newConsumer()
	defer consumer.Close()

	setup.mockCache.EXPECT().SetBatch(gomock.Any(), gomock.Len(1)).Return(nil)

	msg := batchMessage(t,
		bookQuote("draftkings", "Thunder", -150),
		bookQuote("draftkings", "Rockets", 50),
		bookQuote("", "Rockets", 130),
	)
	require.NoError(t, consumer.processMessage(context.Background(), msg))

	assert.Equal(t, 2.0, testutil.ToFloat64(setup.metrics.DropsTotal.WithLabelValues(metrics.DropInvalidInput)))
	assert.Equal(t, 1.0, testutil.ToFloat64(setup.metrics.QuotesIngested))
}

// TestProcessMessage_NothingValid tests that an all-invalid batch skips the cache
func TestProcessMessage_NothingValid(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := setup.newConsumer()
	defer consumer.Close()

	msg := batchMessage(t, bookQuote("draftkings", "Rockets", 50))
	assert.NoError(t, consumer.processMessage(context.Background(), msg))

	msg = batchMessage(t)
	assert.NoError(t, consumer.processMessage(context.Background(), msg))
}

// TestProcessMessage_InvalidJSON tests processing with invalid JSON
func TestProcessMessage_InvalidJSON(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := setup.newConsumer()
	defer consumer.Close()

	err := consumer.processMessage(context.Background(), kafka.Message{Value: []byte("{not json")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal message")
}

// TestProcessMessage_CacheFailure tests that a cache error fails the message
func TestProcessMessage_CacheFailure(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := setup.newConsumer()
	defer consumer.Close()

	setup.mockCache.EXPECT().SetBatch(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	err := consumer.processMessage(context.Background(), batchMessage(t, bookQuote("draftkings", "Thunder", -150)))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to cache quotes")
	assert.Equal(t, 0.0, testutil.ToFloat64(setup.metrics.QuotesIngested))
}

// TestKafkaConsumerConfig tests different configurations
func TestKafkaConsumerConfig(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	tests := []struct {
		name   string
		config KafkaConsumerConfig
	}{
		{
			name: "Single broker",
			config: KafkaConsumerConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "test-topic",
				GroupID: "test-group",
			},
		},
		{
			name: "Multiple brokers",
			config: KafkaConsumerConfig{
				Brokers: []string{"broker1:9092", "broker2:9092", "broker3:9092"},
				Topic:   "test-topic",
				GroupID: "test-group",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer := NewKafkaConsumer(tt.config, setup.mockCache, nil, setup.logger)
			defer consumer.Close()

			readerConfig := consumer.reader.Config()
			assert.Equal(t, tt.config.Topic, readerConfig.Topic)
			assert.Equal(t, tt.config.GroupID, readerConfig.GroupID)
			assert.Equal(t, tt.config.Brokers, readerConfig.Brokers)
			assert.Equal(t, 1000, readerConfig.MinBytes)
			assert.Equal(t, 10000000, readerConfig.MaxBytes)
		})
	}
}

// TestKafkaConsumer_ContextCancellation tests context cancellation handling
func TestKafkaConsumer_ContextCancellation(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := setup.newConsumer()
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- consumer.Start(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Consumer did not stop within timeout")
	}
}
