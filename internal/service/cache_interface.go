package service

import (
	"context"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

//go:generate mockgen -source=cache_interface.go -destination=../mocks/mock_cache.go -package=mocks

// QuoteCache is an interface that abstracts sportsbook quote caching
// This allows for easier testing and mocking
type QuoteCache interface {
	Set(ctx context.Context, quote models.SportsbookQuote) error
	SetBatch(ctx context.Context, quotes []models.SportsbookQuote) error
	GetQuotes(ctx context.Context, eventID string, marketType models.MarketType) ([]models.SportsbookQuote, error)
	Ping(ctx context.Context) error
	Close() error
}
