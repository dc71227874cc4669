package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

const (
	DefaultAlertLimit = 50
	MaxAlertLimit     = 500
)

// AlertService hands emitted alerts to the store and every sink
type AlertService struct {
	store  AlertStore
	sinks  []AlertSink
	logger zerolog.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(
	store AlertStore,
	sinks []AlertSink,
	logger zerolog.Logger,
) *AlertService {
	return &AlertService{
		store:  store,
		sinks:  sinks,
		logger: logger.With().Str("component", "alert_service").Logger(),
	}
}

// Publish delivers each alert once to the store and once to each sink.
// Failures are logged and counted; they never stop delivery of later alerts.
func (s *AlertService) Publish(ctx context.Context, alerts []models.Alert) int {
	failures := 0

	for _, alert := range alerts {
		if s.store != nil {
			if err := s.store.SaveAlert(ctx, alert); err != nil {
				failures++
				s.logger.Warn().
					Err(err).
					Str("alert_id", alert.ID.String()).
					Str("market_key", alert.MappingKey).
					Msg("failed to persist alert")
				// Don't stop on store errors
			}
		}

		for _, sink := range s.sinks {
			if err := sink.Emit(ctx, alert); err != nil {
				failures++
				s.logger.Warn().
					Err(err).
					Str("alert_id", alert.ID.String()).
					Str("market_key", alert.MappingKey).
					Msg("failed to emit alert to sink")
			}
		}

		s.logger.Info().
			Str("alert_id", alert.ID.String()).
			Str("market_key", alert.MappingKey).
			Str("direction", string(alert.Direction)).
			Float64("edge_bps", alert.EdgeBps).
			Str("bucket", string(alert.Bucket)).
			Float64("confidence", alert.Confidence).
			Msg("alert emitted")
	}

	return failures
}

// ListRecentAlerts retrieves recent alerts, most recent first
func (s *AlertService) ListRecentAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no alert store configured")
	}
	if limit <= 0 {
		limit = DefaultAlertLimit
	}
	if limit > MaxAlertLimit {
		limit = MaxAlertLimit
	}

	alerts, err := s.store.ListRecentAlerts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	s.logger.Debug().
		Int("limit", limit).
		Int("count", len(alerts)).
		Msg("retrieved recent alerts")

	return alerts, nil
}
