// Package replay re-runs the decision pipeline over a captured event
// stream. Orders fill in simulation, time is logical, and every run
// over the same stream with the same parameters produces an identical
// report.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"meme-sniper/internal/clock"
	"meme-sniper/internal/domain"
	"meme-sniper/internal/engine"
	"meme-sniper/internal/feed"
	"meme-sniper/internal/filter"
	"meme-sniper/internal/gateway"
	"meme-sniper/internal/reporting"
	"meme-sniper/internal/risk"
	"meme-sniper/internal/storage"
	"meme-sniper/internal/storage/memory"
)

// EventSource streams canonical events in capture order. Next returns
// io.EOF when the stream ends. eventlog.Reader satisfies this.
type EventSource interface {
	Next() (*domain.MarketEvent, error)
}

// SliceSource serves events from a slice, for tests and small captures.
type SliceSource struct {
	events []*domain.MarketEvent
	pos    int
}

// NewSliceSource creates a source over events.
func NewSliceSource(events []*domain.MarketEvent) *SliceSource {
	return &SliceSource{events: events}
}

// Next returns the next event or io.EOF.
func (s *SliceSource) Next() (*domain.MarketEvent, error) {
	if s.pos >= len(s.events) {
		return nil, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

var _ EventSource = (*SliceSource)(nil)

// Config wires a replay run.
type Config struct {
	Params domain.StrategyParameters

	// Journal and Trades receive the run's records. When nil, isolated
	// in-memory stores are used.
	Journal storage.TransitionStore
	Trades  storage.TradeStore

	Log zerolog.Logger
}

// Driver runs the full pipeline against an event source.
type Driver struct {
	cfg Config
}

// NewDriver creates a Driver.
func NewDriver(cfg Config) *Driver {
	if cfg.Journal == nil {
		cfg.Journal = memory.NewTransitionStore()
	}
	if cfg.Trades == nil {
		cfg.Trades = memory.NewTradeStore()
	}
	return &Driver{cfg: cfg}
}

// Run consumes the source to exhaustion and returns the result report.
// A malformed or out-of-order event aborts the run: a capture that
// needs reordering would silently change every trigger outcome, so it
// is rejected instead of repaired.
func (d *Driver) Run(ctx context.Context, source EventSource) (*reporting.Report, error) {
	clk := clock.NewLogical(0)
	ledger := risk.NewLedger(d.cfg.Params, clk, nil)
	gw := gateway.NewSimGateway()
	eng := engine.New(engine.Config{
		Params:  d.cfg.Params,
		Filter:  filter.New(d.cfg.Params),
		Ledger:  ledger,
		Gateway: gw,
		Clock:   clk,
		Journal: d.cfg.Journal,
		Trades:  d.cfg.Trades,
		Log:     d.cfg.Log,
	})
	tracker := feed.NewOrderTracker()

	tickMs := d.cfg.Params.TickInterval.Milliseconds()
	var nextTick int64
	count := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ev, err := source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("event source: %w", err)
		}
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", count, err)
		}
		if err := tracker.Observe(ev); err != nil {
			return nil, fmt.Errorf("event %d: %w", count, err)
		}

		if nextTick == 0 {
			nextTick = ev.Timestamp + tickMs
		}
		// Fire every tick boundary the stream skipped over, at its
		// boundary time, before the event that revealed it.
		for nextTick <= ev.Timestamp {
			clk.Advance(nextTick)
			eng.Tick(ctx)
			nextTick += tickMs
		}

		clk.Advance(ev.Timestamp)
		eng.HandleEvent(ctx, ev)
		count++
	}

	eng.CloseAll(ctx, domain.ExitReasonReplayEnd)

	trades, err := d.cfg.Trades.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	report := reporting.Build(clk.Now(), trades, len(eng.StuckPositions()))

	d.cfg.Log.Info().Int("events", count).Int("trades", len(trades)).
		Int("stuck", report.Summary.StuckPositions).Msg("replay complete")
	return report, nil
}
