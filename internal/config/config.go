package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

// Store drivers
const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreNone     = "none"
)

// Config holds all configuration for kalshi-odds-scanner
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Store    StoreConfig    `mapstructure:"store"`
	Kalshi   KalshiConfig   `mapstructure:"kalshi"`
	OddsAPI  OddsAPIConfig  `mapstructure:"odds_api"`
	Matching MatchingConfig `mapstructure:"matching"`
	Scanner  ScannerConfig  `mapstructure:"scanner"`
	AlertLog AlertLogConfig `mapstructure:"alert_log"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Brokers     []string `mapstructure:"brokers"`
	QuotesTopic string   `mapstructure:"quotes_topic"` // sportsbook quote batches to ingest
	GroupID     string   `mapstructure:"group_id"`
	AlertsTopic string   `mapstructure:"alerts_topic"` // empty disables alert publishing
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"` // sportsbook quote lifetime in the cache
}

// StoreConfig selects where alerts are persisted
type StoreConfig struct {
	Driver   string         `mapstructure:"driver"` // redis, postgres, none
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int    `mapstructure:"max_conns"`
}

// KalshiConfig holds Kalshi API configuration
type KalshiConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKeyID       string        `mapstructure:"api_key_id"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	SeriesTicker   string        `mapstructure:"series_ticker"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// OddsAPIConfig holds The Odds API configuration
type OddsAPIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Sport   string        `mapstructure:"sport"`
	Regions []string      `mapstructure:"regions"`
	Markets []string      `mapstructure:"markets"`
	Timeout time.Duration `mapstructure:"timeout"`
	// RefreshInterval must stay well inside scanner.max_staleness or cached
	// lines age out between refreshes
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// MatchingConfig holds mapping resolution and candidate settings
type MatchingConfig struct {
	MappingFile        string  `mapstructure:"mapping_file"`
	CandidateThreshold float64 `mapstructure:"candidate_threshold"`
}

// ScannerConfig holds scan parameters
type ScannerConfig struct {
	KalshiSlippage      float64       `mapstructure:"kalshi_slippage"`
	SportsbookFriction  float64       `mapstructure:"sportsbook_friction"`
	MinEdgeBps          float64       `mapstructure:"min_edge_bps"`
	MinLiquidity        int64         `mapstructure:"min_liquidity"`
	MaxStaleness        time.Duration `mapstructure:"max_staleness"`
	FetchConcurrency    int           `mapstructure:"fetch_concurrency"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	AlertCooldown       time.Duration `mapstructure:"alert_cooldown"`
	EscalationThreshold int           `mapstructure:"escalation_threshold"`
	PollInterval        time.Duration `mapstructure:"poll_interval"`
}

// AlertLogConfig holds the JSON-lines alert log settings
type AlertLogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.quotes_topic", "sportsbook_quotes")
	v.SetDefault("kafka.group_id", "kalshi-odds-scanner")
	v.SetDefault("kafka.alerts_topic", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 5*time.Minute)

	v.SetDefault("store.driver", StoreRedis)
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.host", "localhost")
	v.SetDefault("store.postgres.port", 5432)
	v.SetDefault("store.postgres.database", "kalshi_odds")
	v.SetDefault("store.postgres.user", "postgres")
	v.SetDefault("store.postgres.password", "")
	v.SetDefault("store.postgres.sslmode", "disable")
	v.SetDefault("store.postgres.max_conns", 4)

	v.SetDefault("kalshi.base_url", "https://api.elections.kalshi.com/trade-api/v2")
	v.SetDefault("kalshi.api_key_id", "")
	v.SetDefault("kalshi.private_key_path", "")
	v.SetDefault("kalshi.series_ticker", "")
	v.SetDefault("kalshi.timeout", 10*time.Second)

	v.SetDefault("odds_api.base_url", "https://api.the-odds-api.com/v4")
	v.SetDefault("odds_api.api_key", "")
	v.SetDefault("odds_api.sport", "basketball_nba")
	v.SetDefault("odds_api.regions", []string{"us"})
	v.SetDefault("odds_api.markets", []string{"h2h"})
	v.SetDefault("odds_api.timeout", 10*time.Second)
	v.SetDefault("odds_api.refresh_interval", 20*time.Second)

	v.SetDefault("matching.mapping_file", "mappings.yaml")
	v.SetDefault("matching.candidate_threshold", 0.75)

	defaults := models.DefaultScanParams()
	v.SetDefault("scanner.kalshi_slippage", defaults.KalshiSlippage)
	v.SetDefault("scanner.sportsbook_friction", defaults.SportsbookFriction)
	v.SetDefault("scanner.min_edge_bps", defaults.MinEdgeBps)
	v.SetDefault("scanner.min_liquidity", defaults.MinLiquidity)
	v.SetDefault("scanner.max_staleness", defaults.MaxStaleness)
	v.SetDefault("scanner.fetch_concurrency", defaults.FetchConcurrency)
	v.SetDefault("scanner.fetch_timeout", defaults.FetchTimeout)
	v.SetDefault("scanner.alert_cooldown", defaults.AlertCooldown)
	v.SetDefault("scanner.escalation_threshold", defaults.EscalationThreshold)
	v.SetDefault("scanner.poll_interval", defaults.PollInterval)

	v.SetDefault("alert_log.enabled", true)
	v.SetDefault("alert_log.path", "alerts.jsonl")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvPrefix("KALSHI_ODDS")
	v.AutomaticEnv()
	// Replace . with _ for environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the scanner cannot run with
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreRedis, StorePostgres, StoreNone:
	default:
		return fmt.Errorf("%w: unknown store driver %q", models.ErrInvalidInput, c.Store.Driver)
	}

	s := c.Scanner
	switch {
	case s.KalshiSlippage < 0 || s.KalshiSlippage >= 1:
		return fmt.Errorf("%w: scanner.kalshi_slippage must be in [0, 1)", models.ErrInvalidInput)
	case s.SportsbookFriction < 0 || s.SportsbookFriction >= 1:
		return fmt.Errorf("%w: scanner.sportsbook_friction must be in [0, 1)", models.ErrInvalidInput)
	case s.MinEdgeBps < 0:
		return fmt.Errorf("%w: scanner.min_edge_bps must not be negative", models.ErrInvalidInput)
	case s.MinLiquidity < 0:
		return fmt.Errorf("%w: scanner.min_liquidity must not be negative", models.ErrInvalidInput)
	case s.MaxStaleness <= 0:
		return fmt.Errorf("%w: scanner.max_staleness must be positive", models.ErrInvalidInput)
	case s.FetchConcurrency <= 0:
		return fmt.Errorf("%w: scanner.fetch_concurrency must be positive", models.ErrInvalidInput)
	case s.PollInterval <= 0:
		return fmt.Errorf("%w: scanner.poll_interval must be positive", models.ErrInvalidInput)
	}

	if r := c.OddsAPI.RefreshInterval; r <= 0 || r > s.MaxStaleness/2 {
		return fmt.Errorf("%w: odds_api.refresh_interval must be positive and at most half of scanner.max_staleness", models.ErrInvalidInput)
	}

	if c.Matching.CandidateThreshold < 0 || c.Matching.CandidateThreshold > 1 {
		return fmt.Errorf("%w: matching.candidate_threshold must be in [0, 1]", models.ErrInvalidInput)
	}
	return nil
}

// ToScanParams converts config to scan parameters
func (c *ScannerConfig) ToScanParams() models.ScanParams {
	return models.ScanParams{
		KalshiSlippage:      c.KalshiSlippage,
		SportsbookFriction:  c.SportsbookFriction,
		MinEdgeBps:          c.MinEdgeBps,
		MinLiquidity:        c.MinLiquidity,
		MaxStaleness:        c.MaxStaleness,
		FetchConcurrency:    c.FetchConcurrency,
		FetchTimeout:        c.FetchTimeout,
		AlertCooldown:       c.AlertCooldown,
		EscalationThreshold: c.EscalationThreshold,
		PollInterval:        c.PollInterval,
	}
}
