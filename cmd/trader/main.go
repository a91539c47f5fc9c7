package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"meme-sniper/internal/clock"
	"meme-sniper/internal/config"
	"meme-sniper/internal/domain"
	"meme-sniper/internal/engine"
	"meme-sniper/internal/eventlog"
	"meme-sniper/internal/feed"
	"meme-sniper/internal/filter"
	"meme-sniper/internal/gateway"
	"meme-sniper/internal/observability"
	"meme-sniper/internal/risk"
	"meme-sniper/internal/storage"
	"meme-sniper/internal/storage/memory"
	"meme-sniper/internal/storage/migrations"
	pgstore "meme-sniper/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration")
	endpoint := flag.String("endpoint", "", "Feed websocket endpoint (overrides config)")
	paper := flag.Bool("paper", true, "Fill orders in simulation instead of submitting to a venue")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	if *debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load configuration")
	}
	if *endpoint != "" {
		cfg.Feed.Endpoint = *endpoint
	}
	if cfg.Feed.Endpoint == "" {
		logger.Fatal().Msg("feed endpoint required (--endpoint or feed.endpoint in config)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	// Storage: postgres when configured, in-memory otherwise.
	var (
		journal storage.TransitionStore
		trades  storage.TradeStore
	)
	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pool, err := pgstore.NewPool(ctx, dsn)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("run postgres migrations")
		}
		journal = pgstore.NewTransitionStore(pool)
		trades = pgstore.NewTradeStore(pool)
		logger.Info().Msg("using postgres storage")
	} else {
		journal = memory.NewTransitionStore()
		trades = memory.NewTradeStore()
		logger.Warn().Msg("no postgres DSN configured, journal and trades are in-memory only")
	}

	var gw gateway.Gateway
	if *paper {
		gw = gateway.NewSimGateway()
		logger.Info().Msg("paper trading: orders fill in simulation")
	} else {
		// Live submission needs a venue-specific Submitter wired here.
		logger.Fatal().Msg("no live order submitter configured, run with --paper")
	}

	metrics := observability.NewMetrics("")
	if addr := cfg.Metrics.Addr; addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			logger.Info().Str("addr", addr).Msg("metrics endpoint up")
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics endpoint failed")
			}
		}()
	}

	clk := clock.Wall{}
	ledger := risk.NewLedger(cfg.Strategy, clk, time.UTC)
	eng := engine.New(engine.Config{
		Params:  cfg.Strategy,
		Filter:  filter.New(cfg.Strategy),
		Ledger:  ledger,
		Gateway: gw,
		Clock:   clk,
		Journal: journal,
		Trades:  trades,
		Log:     logger,
		Metrics: metrics,
	})

	// Optional capture of the accepted event stream for later replay.
	var capture *eventlog.Writer
	if path := cfg.Feed.EventLogPath; path != "" {
		capture, err = eventlog.NewWriter(path)
		if err != nil {
			logger.Fatal().Err(err).Msg("open event log")
		}
		defer capture.Close()
		logger.Info().Str("path", path).Msg("capturing events")
	}

	go func() {
		ticker := time.NewTicker(cfg.Strategy.TickInterval.Std())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				eng.Tick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	handler := func(ctx context.Context, ev *domain.MarketEvent) {
		if capture != nil {
			if err := capture.Append(ev); err != nil {
				logger.Error().Err(err).Msg("event capture failed")
			}
		}
		eng.HandleEvent(ctx, ev)
	}

	client := feed.NewWSClient(cfg.Feed.Endpoint, feed.DefaultWSConfig(), logger)
	if err := client.Run(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("feed terminated")
	}

	// The feed is down; report what is still open so the operator can
	// act on it.
	for _, pos := range eng.OpenPositions() {
		logger.Warn().Str("instrument", pos.Instrument).Str("phase", string(pos.Phase)).
			Float64("qty", pos.RemainingQuantity).Msg("position open at shutdown")
	}
	logger.Info().Msg("trader stopped")
}
