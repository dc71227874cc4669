// Package kalshi is a read-only client for the Kalshi trade API. It reads
// orderbooks and market listings; it never places orders.
package kalshi

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

const (
	DefaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"
	defaultTimeout = 10 * time.Second
	defaultPage    = 200
	maxPages       = 10
)

// Config holds Kalshi client configuration
type Config struct {
	BaseURL        string
	APIKeyID       string
	PrivateKeyPath string // PEM, PKCS8 or PKCS1; requests are unsigned when empty
	SeriesTicker   string // optional market listing filter, e.g. "KXNBAGAME"
	Timeout        time.Duration
}

// Client reads top of book and market listings from Kalshi
type Client struct {
	baseURL      string
	apiKeyID     string
	seriesTicker string
	privateKey   *rsa.PrivateKey
	httpClient   *http.Client
	now          func() time.Time
	logger       zerolog.Logger
}

// NewClient creates a new Kalshi client, loading the signing key if one is configured
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{
		baseURL:      cfg.BaseURL,
		apiKeyID:     cfg.APIKeyID,
		seriesTicker: cfg.SeriesTicker,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger.With().Str("component", "kalshi_client").Logger(),
	}

	if cfg.PrivateKeyPath != "" {
		pemBytes, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read Kalshi private key: %w", err)
		}
		if err := c.SetRSAPrivateKey(pemBytes); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// SetRSAPrivateKey configures RSA-PSS request signing from a PEM key
func (c *Client) SetRSAPrivateKey(pemBytes []byte) error {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return fmt.Errorf("kalshi: no PEM block found in private key")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		pkcs1Key, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return fmt.Errorf("kalshi: parse private key: %w (pkcs1: %v)", err, pkcs1Err)
		}
		c.privateKey = pkcs1Key
		return nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("kalshi: expected RSA private key, got %T", key)
	}
	c.privateKey = rsaKey
	return nil
}

// GetTopOfBook returns the YES top of book for a market ticker. The YES ask
// is implied by the best NO bid; liquidity is the smaller of the two sizes so
// both sides of the contract see the same depth.
func (c *Client) GetTopOfBook(ctx context.Context, contractID string) (models.ContractQuote, error) {
	path := fmt.Sprintf("/markets/%s/orderbook", url.PathEscape(contractID))

	var resp orderbookResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return models.ContractQuote{}, fmt.Errorf("kalshi: get orderbook %s: %w", contractID, err)
	}

	yesBid, yesBidSize := bestLevel(resp.Orderbook.Yes)
	noBid, noBidSize := bestLevel(resp.Orderbook.No)

	bid := cents(yesBid)
	ask := decimal.NewFromInt(1)
	if noBidSize > 0 {
		ask = ask.Sub(cents(noBid))
	}

	liquidity := yesBidSize
	if noBidSize < liquidity {
		liquidity = noBidSize
	}

	quote, err := models.NewContractQuote(contractID, models.SideYes, bid, ask, liquidity, c.now())
	if err != nil {
		return models.ContractQuote{}, fmt.Errorf("kalshi: orderbook %s: %w", contractID, err)
	}
	return quote, nil
}

// ListContracts pages through open markets for candidate matching
func (c *Client) ListContracts(ctx context.Context) ([]models.Contract, error) {
	var contracts []models.Contract
	cursor := ""

	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		params.Set("status", "open")
		params.Set("limit", strconv.Itoa(defaultPage))
		if c.seriesTicker != "" {
			params.Set("series_ticker", c.seriesTicker)
		}
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var resp marketsResponse
		if err := c.get(ctx, "/markets", params, &resp); err != nil {
			return nil, fmt.Errorf("kalshi: list markets: %w", err)
		}

		for _, m := range resp.Markets {
			contracts = append(contracts, m.toContract())
		}

		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}

	c.logger.Debug().Int("count", len(contracts)).Msg("listed Kalshi markets")
	return contracts, nil
}

// get performs a signed GET and decodes the JSON body into out
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", models.ErrInvalidInput, err)
	}
	req.Header.Set("Accept", "application/json")

	if err := c.signRequest(req); err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", models.ErrUpstreamUnavailable, err)
	}

	if err := checkStatus(resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", models.ErrUpstreamUnavailable, err)
	}
	return nil
}

// signRequest adds the RSA-PSS-SHA256 headers over timestamp + method + path.
// Requests go out unsigned when no key is configured; public market data
// does not need them.
func (c *Client) signRequest(req *http.Request) error {
	if c.privateKey == nil {
		return nil
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	message := ts + req.Method + req.URL.Path

	hash := sha256.Sum256([]byte(message))
	signature, err := rsa.SignPSS(rand.Reader, c.privateKey, crypto.SHA256, hash[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return fmt.Errorf("RSA sign: %w", err)
	}

	req.Header.Set("KALSHI-ACCESS-KEY", c.apiKeyID)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", base64.StdEncoding.EncodeToString(signature))
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", ts)
	return nil
}

// checkStatus maps non-2xx responses onto the model error taxonomy
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	if statusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", models.ErrNotFound, apiErr.Error.Message)
	}
	return fmt.Errorf("%w: HTTP %d: %s (%s)", models.ErrUpstreamUnavailable,
		statusCode, apiErr.Error.Message, apiErr.Error.Code)
}

// bestLevel returns the highest priced level; Kalshi books only hold bids
func bestLevel(levels [][2]int64) (price, size int64) {
	for _, l := range levels {
		if l[1] <= 0 {
			continue
		}
		if size == 0 || l[0] > price {
			price, size = l[0], l[1]
		}
	}
	return price, size
}

func cents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
