package service

import (
	"context"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

//go:generate mockgen -source=alert_interface.go -destination=../mocks/mock_alert.go -package=mocks

// AlertStore is an interface that abstracts alert persistence
// Implementations are append-only: alerts are never updated or deleted.
type AlertStore interface {
	SaveAlert(ctx context.Context, alert models.Alert) error
	// ListRecentAlerts returns at most limit alerts, most recent first
	ListRecentAlerts(ctx context.Context, limit int) ([]models.Alert, error)
}

// AlertSink receives every emitted alert exactly once
type AlertSink interface {
	Emit(ctx context.Context, alert models.Alert) error
}
