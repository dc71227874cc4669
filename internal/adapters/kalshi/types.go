package kalshi

import (
	"time"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

// orderbookResponse holds price levels as [price_cents, size] pairs
type orderbookResponse struct {
	Orderbook struct {
		Yes [][2]int64 `json:"yes"`
		No  [][2]int64 `json:"no"`
	} `json:"orderbook"`
}

type marketsResponse struct {
	Markets []market `json:"markets"`
	Cursor  string   `json:"cursor"`
}

type market struct {
	Ticker         string `json:"ticker"`
	EventTicker    string `json:"event_ticker"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	Status         string `json:"status"`
	CloseTime      string `json:"close_time"`
	ExpirationTime string `json:"expiration_time"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (m market) toContract() models.Contract {
	title := m.Title
	if title == "" {
		title = m.Subtitle
	}

	closeAt := m.CloseTime
	if closeAt == "" {
		closeAt = m.ExpirationTime
	}
	closeTime, _ := time.Parse(time.RFC3339, closeAt)

	return models.Contract{
		ContractID: m.Ticker,
		EventID:    m.EventTicker,
		Title:      title,
		Status:     m.Status,
		CloseTime:  closeTime,
	}
}
