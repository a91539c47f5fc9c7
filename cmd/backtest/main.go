package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"meme-sniper/internal/config"
	"meme-sniper/internal/eventlog"
	"meme-sniper/internal/replay"
	"meme-sniper/internal/reporting"
	"meme-sniper/internal/storage"
	"meme-sniper/internal/storage/migrations"
	pgstore "meme-sniper/internal/storage/postgres"
)

func main() {
	eventsPath := flag.String("events", "", "Path to JSONL event capture (required)")
	configPath := flag.String("config", "", "Path to YAML configuration")
	csvPath := flag.String("csv", "", "Write the trade table CSV to this path")
	outPath := flag.String("out", "", "Write the Markdown report to this path (default stdout)")
	postgresDSN := flag.String("postgres-dsn", "", "Persist journal and trades to PostgreSQL")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	if *debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	if *eventsPath == "" {
		logger.Fatal().Msg("--events is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var (
		journal storage.TransitionStore
		trades  storage.TradeStore
	)
	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("run postgres migrations")
		}
		journal = pgstore.NewTransitionStore(pool)
		trades = pgstore.NewTradeStore(pool)
	}

	source, err := eventlog.Open(*eventsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open event capture")
	}
	defer source.Close()

	driver := replay.NewDriver(replay.Config{
		Params:  cfg.Strategy,
		Journal: journal,
		Trades:  trades,
		Log:     logger,
	})

	report, err := driver.Run(ctx, source)
	if err != nil {
		logger.Fatal().Err(err).Msg("replay failed")
	}

	markdown := reporting.RenderMarkdown(report)
	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(markdown), 0o644); err != nil {
			logger.Fatal().Err(err).Str("path", *outPath).Msg("write report")
		}
		logger.Info().Str("path", *outPath).Msg("report written")
	} else {
		fmt.Print(markdown)
	}

	if *csvPath != "" {
		if err := os.WriteFile(*csvPath, []byte(reporting.RenderCSV(report)), 0o644); err != nil {
			logger.Fatal().Err(err).Str("path", *csvPath).Msg("write csv")
		}
		logger.Info().Str("path", *csvPath).Msg("csv written")
	}
}
