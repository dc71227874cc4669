package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/config"
)

const usage = `Usage: scanner [flags] <command>

Commands:
  run         scan continuously and serve the HTTP API (default)
  scan        run one cycle and print the alerts
  sync-odds   pull sportsbook odds into the quote cache
  candidates  suggest unmapped contract/selection pairs
  alerts      print the most recent alerts

Flags:
`

func main() {
	flags := pflag.NewFlagSet("scanner", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to the config file")
	limit := flags.IntP("limit", "n", 0, "number of alerts to print (alerts)")
	threshold := flags.Float64("threshold", 0, "minimum similarity score, overrides matching.candidate_threshold (candidates)")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		os.Exit(2)
	}

	command := "run"
	if flags.NArg() > 0 {
		command = flags.Arg(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *threshold > 0 {
		cfg.Matching.CandidateThreshold = *threshold
	}

	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "run":
		err = runService(ctx, cfg, logger)
	case "scan":
		err = runScan(ctx, cfg, logger)
	case "sync-odds":
		err = runSyncOdds(ctx, cfg, logger)
	case "candidates":
		err = runCandidates(ctx, cfg, logger)
	case "alerts":
		err = runAlerts(ctx, cfg, *limit, logger)
	default:
		flags.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error().Err(err).Str("command", command).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

// setupLogger configures the logger based on config
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Logs go to stderr so command output on stdout stays machine readable
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return log.Logger.With().Str("service", "kalshi-odds-scanner").Logger()
}
