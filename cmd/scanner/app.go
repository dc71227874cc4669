package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/adapters/kalshi"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/adapters/theoddsapi"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/alertlog"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/cache"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/config"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/matcher"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/messaging"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/metrics"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/scanner"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/service"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/store"
)

// app holds the wired collaborators shared by every command
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *metrics.Metrics

	cache  *cache.RedisCache
	kalshi *kalshi.Client
	odds   *theoddsapi.Client

	store  service.AlertStore
	sinks  []service.AlertSink
	alerts *service.AlertService

	pingers []func(context.Context) error
	closers []io.Closer
}

// newApp connects to Redis, the alert store and the configured sinks
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewMetrics(prometheus.DefaultRegisterer),
	}

	a.cache = cache.NewRedisCache(
		cache.RedisCacheConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		},
		logger,
	)
	a.closers = append(a.closers, a.cache)

	if err := a.cache.Ping(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	a.pingers = append(a.pingers, a.cache.Ping)
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")

	kalshiClient, err := kalshi.NewClient(kalshi.Config{
		BaseURL:        cfg.Kalshi.BaseURL,
		APIKeyID:       cfg.Kalshi.APIKeyID,
		PrivateKeyPath: cfg.Kalshi.PrivateKeyPath,
		SeriesTicker:   cfg.Kalshi.SeriesTicker,
		Timeout:        cfg.Kalshi.Timeout,
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.kalshi = kalshiClient

	a.odds = theoddsapi.NewClient(theoddsapi.Config{
		BaseURL: cfg.OddsAPI.BaseURL,
		APIKey:  cfg.OddsAPI.APIKey,
		Sport:   cfg.OddsAPI.Sport,
		Regions: cfg.OddsAPI.Regions,
		Markets: cfg.OddsAPI.Markets,
		Timeout: cfg.OddsAPI.Timeout,
	}, logger)

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openSinks(); err != nil {
		a.Close()
		return nil, err
	}

	a.alerts = service.NewAlertService(a.store, a.sinks, logger)
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Store.Driver {
	case config.StoreRedis:
		redisStore := store.NewRedisStore(store.RedisStoreConfig{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		}, a.logger)
		a.store = redisStore
		a.closers = append(a.closers, redisStore)
		a.pingers = append(a.pingers, redisStore.Ping)

	case config.StorePostgres:
		pg := a.cfg.Store.Postgres
		pool, err := store.Connect(ctx, store.PostgresConfig{
			DSN:      pg.DSN,
			Host:     pg.Host,
			Port:     pg.Port,
			Database: pg.Database,
			User:     pg.User,
			Password: pg.Password,
			SSLMode:  pg.SSLMode,
			MaxConns: pg.MaxConns,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, closerFunc(func() error { pool.Close(); return nil }))
		a.pingers = append(a.pingers, pool.Ping)

		pgStore := store.NewPostgresStore(pool, a.logger)
		if err := pgStore.Migrate(ctx); err != nil {
			return err
		}
		a.store = pgStore

	case config.StoreNone:
		a.logger.Warn().Msg("alert persistence disabled")
	}

	a.logger.Info().Str("driver", a.cfg.Store.Driver).Msg("alert store ready")
	return nil
}

func (a *app) openSinks() error {
	if a.cfg.AlertLog.Enabled {
		sink, err := alertlog.Open(a.cfg.AlertLog.Path, a.logger)
		if err != nil {
			return err
		}
		a.sinks = append(a.sinks, sink)
		a.closers = append(a.closers, sink)
	}

	if a.cfg.Kafka.AlertsTopic != "" {
		publisher := messaging.NewKafkaAlertPublisher(messaging.KafkaPublisherConfig{
			Brokers: a.cfg.Kafka.Brokers,
			Topic:   a.cfg.Kafka.AlertsTopic,
		}, a.logger)
		a.sinks = append(a.sinks, publisher)
		a.closers = append(a.closers, publisher)
		a.logger.Info().Str("topic", a.cfg.Kafka.AlertsTopic).Msg("publishing alerts to Kafka")
	}
	return nil
}

// loadMappings resolves the mapping file, logging every rejected entry
func (a *app) loadMappings() ([]models.MarketMapping, error) {
	entries, err := matcher.LoadMappingFile(a.cfg.Matching.MappingFile)
	if err != nil {
		return nil, err
	}

	mappings, rejects := matcher.Resolve(entries)
	for _, r := range rejects {
		a.logger.Warn().Err(r.Err).Int("index", r.Index).Str("market_key", r.Key).Msg("rejected mapping entry")
	}

	a.logger.Info().
		Str("file", a.cfg.Matching.MappingFile).
		Int("mappings", len(mappings)).
		Int("rejected", len(rejects)).
		Msg("mappings resolved")
	return mappings, nil
}

// newRunner builds the scan loop over the Kalshi client and the quote cache
func (a *app) newRunner(mappings []models.MarketMapping) *scanner.Runner {
	params := a.cfg.Scanner.ToScanParams()
	s := scanner.NewScanner(a.kalshi, a.cache, scanner.SystemClock(), a.metrics, a.logger)
	return scanner.NewRunner(s, a.alerts, mappings, params, scanner.SystemClock(), a.metrics, a.logger)
}

// syncOdds pulls one snapshot from The Odds API into the cache
func (a *app) syncOdds(ctx context.Context) (int, error) {
	quotes, err := a.odds.FetchQuotes(ctx)
	if err != nil {
		a.metrics.FetchError(scanner.SourceOddsFeed)
		return 0, err
	}
	if err := a.cache.SetBatch(ctx, quotes); err != nil {
		return 0, err
	}
	a.metrics.Ingested(len(quotes))
	return len(quotes), nil
}

// ready reports the first failing dependency
func (a *app) ready(ctx context.Context) error {
	for _, ping := range a.pingers {
		if err := ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases every connection in reverse order of opening
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close resource")
		}
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
