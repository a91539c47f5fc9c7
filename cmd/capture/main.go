package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"meme-sniper/internal/domain"
	"meme-sniper/internal/eventlog"
	"meme-sniper/internal/feed"
	"meme-sniper/internal/storage"
	chstore "meme-sniper/internal/storage/clickhouse"
	"meme-sniper/internal/storage/migrations"
)

// capture tails the platform feed and archives every canonical event,
// producing the JSONL stream the backtest binary replays.
func main() {
	endpoint := flag.String("endpoint", "", "Feed websocket endpoint (required)")
	outPath := flag.String("out", "events.jsonl", "JSONL output path")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "Also archive events to ClickHouse")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	if *debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	if *endpoint == "" {
		logger.Fatal().Msg("--endpoint is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("stopping capture")
		cancel()
	}()

	writer, err := eventlog.NewWriter(*outPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open output")
	}
	defer writer.Close()

	var archive storage.EventStore
	if *clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to clickhouse")
		}
		defer conn.Close()
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			logger.Fatal().Err(err).Msg("run clickhouse migrations")
		}
		archive = chstore.NewEventStore(conn)
		logger.Info().Msg("archiving events to clickhouse")
	}

	count := 0
	handler := func(ctx context.Context, ev *domain.MarketEvent) {
		if err := writer.Append(ev); err != nil {
			logger.Error().Err(err).Msg("write event")
			return
		}
		if archive != nil {
			if err := archive.Append(ctx, ev); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
				logger.Error().Err(err).Msg("archive event")
			}
		}
		count++
		if count%1000 == 0 {
			logger.Info().Int("events", count).Msg("capture progress")
		}
	}

	client := feed.NewWSClient(*endpoint, feed.DefaultWSConfig(), logger)
	if err := client.Run(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("feed terminated")
	}
	logger.Info().Int("events", count).Str("path", *outPath).Msg("capture complete")
}
