package service

import (
	"context"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

//go:generate mockgen -source=quote_source_interface.go -destination=../mocks/mock_quote_source.go -package=mocks

// ContractQuoteSource is an interface that abstracts the prediction-market quote feed
// This allows for easier testing and mocking
type ContractQuoteSource interface {
	// GetTopOfBook returns models.ErrNotFound when the contract has no book
	GetTopOfBook(ctx context.Context, contractID string) (models.ContractQuote, error)
}

// SportsbookQuoteSource is an interface that abstracts the sportsbook odds feed
// An empty slice means no current line for the event and market.
type SportsbookQuoteSource interface {
	GetQuotes(ctx context.Context, eventID string, marketType models.MarketType) ([]models.SportsbookQuote, error)
}
