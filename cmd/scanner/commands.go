package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/config"
	httpHandler "github.com/cypherlabdev/kalshi-odds-scanner/internal/handler/http"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/matcher"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/messaging"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/scanner"
)

// runService scans until interrupted, serving the HTTP API alongside. A
// persistent upstream failure stops everything and is returned.
func runService(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().Msg("starting kalshi-odds-scanner")

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	mappings, err := a.loadMappings()
	if err != nil {
		return err
	}
	runner := a.newRunner(mappings)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runner.Run(ctx)
	})

	if cfg.Kafka.Enabled {
		consumer := messaging.NewKafkaConsumer(
			messaging.KafkaConsumerConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.QuotesTopic,
				GroupID: cfg.Kafka.GroupID,
			},
			a.cache,
			a.metrics,
			logger,
		)
		defer consumer.Close()

		g.Go(func() error {
			return consumer.Start(ctx)
		})
	}

	if cfg.OddsAPI.APIKey != "" {
		refresher := scanner.NewRefresher(
			scanner.SourceOddsFeed,
			a.syncOdds,
			cfg.OddsAPI.RefreshInterval,
			cfg.Scanner.EscalationThreshold,
			scanner.SystemClock(),
			logger,
		)
		g.Go(func() error {
			return refresher.Run(ctx)
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		readyHandler(w, r, a)
	})
	mux.Handle("/metrics", promhttp.Handler())
	httpHandler.NewAlertHandler(a.alerts, runner, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown failed")
		}
		return nil
	})

	err = g.Wait()
	logger.Info().Msg("shutdown complete")
	return err
}

// runScan runs a single cycle and prints its alerts
func runScan(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	mappings, err := a.loadMappings()
	if err != nil {
		return err
	}

	alerts, err := a.newRunner(mappings).RunOnce(ctx)
	if err != nil {
		return err
	}
	return printJSON(alerts)
}

// runSyncOdds pulls sportsbook odds into the quote cache once
func runSyncOdds(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.syncOdds(ctx)
	if err != nil {
		return err
	}
	logger.Info().Int("quotes", n).Str("sport", cfg.OddsAPI.Sport).Msg("sportsbook odds synced")
	return nil
}

// runCandidates prints suggested pairings that no mapping covers yet
func runCandidates(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	existing, err := a.loadMappings()
	if err != nil {
		logger.Warn().Err(err).Msg("no existing mappings, suggesting against everything")
		existing = nil
	}

	contracts, err := a.kalshi.ListContracts(ctx)
	if err != nil {
		return err
	}
	selections, err := a.cache.ListSelections(ctx)
	if err != nil {
		return err
	}

	candidates := matcher.SuggestCandidates(contracts, selections, cfg.Matching.CandidateThreshold, existing)
	logger.Info().
		Int("contracts", len(contracts)).
		Int("selections", len(selections)).
		Int("candidates", len(candidates)).
		Msg("candidate pairs scored")
	return printJSON(candidates)
}

// runAlerts prints the most recent stored alerts
func runAlerts(ctx context.Context, cfg *config.Config, limit int, logger zerolog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	alerts, err := a.alerts.ListRecentAlerts(ctx, limit)
	if err != nil {
		return err
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	return printJSON(alerts)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// healthHandler returns 200 if service is running
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// readyHandler returns 200 once the cache and alert store answer
func readyHandler(w http.ResponseWriter, r *http.Request, a *app) {
	if err := a.ready(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("dependency unavailable: " + err.Error()))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
