// Package theoddsapi pulls sportsbook lines from The Odds API aggregator and
// turns them into sportsbook quotes.
package theoddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

const (
	DefaultBaseURL = "https://api.the-odds-api.com/v4"
	defaultTimeout = 10 * time.Second
	userAgent      = "kalshi-odds-scanner/1.0"
)

// Config holds The Odds API client configuration
type Config struct {
	BaseURL string
	APIKey  string
	Sport   string   // e.g., "basketball_nba"
	Regions []string // e.g., ["us"]
	Markets []string // e.g., ["h2h", "spreads", "totals"]
	Timeout time.Duration
}

// Client fetches odds for one sport
type Client struct {
	baseURL    string
	apiKey     string
	sport      string
	regions    []string
	markets    []string
	httpClient *http.Client
	now        func() time.Time
	logger     zerolog.Logger

	mu        sync.RWMutex
	remaining int
}

// NewClient creates a new The Odds API client
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if len(cfg.Regions) == 0 {
		cfg.Regions = []string{"us"}
	}
	if len(cfg.Markets) == 0 {
		cfg.Markets = []string{string(models.MarketTypeH2H)}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		sport:      cfg.Sport,
		regions:    cfg.Regions,
		markets:    cfg.Markets,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With().Str("component", "theoddsapi_client").Logger(),
		remaining:  -1,
	}
}

// FetchQuotes retrieves current odds for the configured sport, regions and markets
func (c *Client) FetchQuotes(ctx context.Context) ([]models.SportsbookQuote, error) {
	if c.sport == "" {
		return nil, fmt.Errorf("%w: odds api sport not configured", models.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", strings.Join(c.regions, ","))
	params.Set("markets", strings.Join(c.markets, ","))
	params.Set("oddsFormat", "american")
	params.Set("dateFormat", "iso")

	fullURL := fmt.Sprintf("%s/sports/%s/odds?%s", c.baseURL, url.PathEscape(c.sport), params.Encode())

	body, err := c.doRequest(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch odds failed: %w", err)
	}

	var events []oddsEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("%w: parse odds response: %v", models.ErrUpstreamUnavailable, err)
	}

	quotes, skipped := parseQuotes(events, c.now())
	c.logger.Info().
		Str("sport", c.sport).
		Int("events", len(events)).
		Int("quotes", len(quotes)).
		Int("skipped", skipped).
		Int("requests_remaining", c.Remaining()).
		Msg("fetched sportsbook odds")

	return quotes, nil
}

// Remaining returns the request quota left as of the last response, or -1 if unknown
func (c *Client) Remaining() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remaining
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", models.ErrInvalidInput, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if remaining := resp.Header.Get("x-requests-remaining"); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.mu.Lock()
			c.remaining = val
			c.mu.Unlock()
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", models.ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: HTTP 404: %s", models.ErrNotFound, string(body))
	default:
		return nil, fmt.Errorf("%w: HTTP %d: %s", models.ErrUpstreamUnavailable, resp.StatusCode, string(body))
	}
}

// parseQuotes flattens events into validated quotes. Unknown markets are
// ignored; invalid outcomes are skipped and counted. Prices with magnitude
// above 10 are American odds, anything else is decimal. Quotes are stamped
// with the receive time; a bookmaker's last_update only says when the line
// last moved, not whether it is still current.
func parseQuotes(events []oddsEvent, receivedAt time.Time) ([]models.SportsbookQuote, int) {
	var quotes []models.SportsbookQuote
	skipped := 0

	for _, event := range events {
		title := ""
		if event.AwayTeam != "" && event.HomeTeam != "" {
			title = event.AwayTeam + " at " + event.HomeTeam
		}

		for _, book := range event.Bookmakers {
			for _, m := range book.Markets {
				marketType, err := models.ParseMarketType(m.Key)
				if err != nil {
					continue
				}

				for _, o := range m.Outcomes {
					format := models.OddsFormatDecimal
					if math.Abs(o.Price) > 10 {
						format = models.OddsFormatAmerican
					}

					q := models.SportsbookQuote{
						EventID:    event.ID,
						EventTitle: title,
						Bookmaker:  book.Key,
						MarketType: marketType,
						Selection:  selectionLabel(marketType, o),
						Odds:       decimal.NewFromFloat(o.Price),
						Format:     format,
						ObservedAt: receivedAt,
					}
					if err := q.Validate(); err != nil {
						skipped++
						continue
					}
					quotes = append(quotes, q)
				}
			}
		}
	}

	return quotes, skipped
}

// selectionLabel folds the line into the label so different points of one
// market never collide, e.g. "Over 220.5" or "Thunder -3.5"
func selectionLabel(marketType models.MarketType, o outcome) string {
	if o.Point == nil {
		return o.Name
	}
	point := strconv.FormatFloat(*o.Point, 'f', -1, 64)
	if marketType == models.MarketTypeSpreads && *o.Point > 0 {
		point = "+" + point
	}
	return o.Name + " " + point
}
