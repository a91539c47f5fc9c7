package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"meme-sniper/internal/domain"
	"meme-sniper/internal/feed"
	"meme-sniper/internal/reporting"
)

func launch(instrument, symbol, creator string, seq uint64, ts int64) *domain.MarketEvent {
	return &domain.MarketEvent{
		Type:       domain.EventTypeLaunch,
		Instrument: instrument,
		Timestamp:  ts,
		Sequence:   seq,
		Launch: &domain.LaunchInfo{
			Name:             symbol + " Token",
			Symbol:           symbol,
			Creator:          creator,
			InitialLiquidity: 1.0,
			TotalSupply:      1_000_000,
		},
	}
}

func trade(instrument string, seq uint64, ts int64, price float64) *domain.MarketEvent {
	return &domain.MarketEvent{
		Type:       domain.EventTypeTrade,
		Instrument: instrument,
		Timestamp:  ts,
		Sequence:   seq,
		Trade: &domain.TradeInfo{
			Direction:   domain.TradeBuy,
			BaseAmount:  1000,
			QuoteAmount: 1000 * price,
		},
	}
}

// scenario: one winner (partial take profit then moonshot drawdown),
// one stop loss, one position flattened at end of stream.
func scenarioEvents(t *testing.T) []*domain.MarketEvent {
	t.Helper()
	params := domain.DefaultParameters()
	entry := params.EntrySize / (1_000_000 * params.CurvePortion)

	base := int64(1_700_000_000_000)
	return []*domain.MarketEvent{
		launch("MintA", "AAA", "CreatorA", 1, base),
		launch("MintB", "BBB", "CreatorB", 1, base+10),
		launch("MintC", "CCC", "CreatorC", 1, base+20),

		trade("MintA", 2, base+1000, entry*3),   // partial take profit
		trade("MintB", 2, base+1100, entry*0.4), // stop loss
		trade("MintA", 3, base+2000, entry*5),   // new peak, promotion
		trade("MintA", 4, base+3000, entry*3.4), // drawdown exit
		trade("MintC", 2, base+3100, entry*1.5), // still held at end
	}
}

func TestRunProducesExpectedTrades(t *testing.T) {
	driver := NewDriver(Config{Params: domain.DefaultParameters(), Log: zerolog.Nop()})

	report, err := driver.Run(context.Background(), NewSliceSource(scenarioEvents(t)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Summary.TotalTrades != 3 {
		t.Fatalf("total trades = %d, want 3", report.Summary.TotalTrades)
	}
	reasons := make(map[string]int)
	for _, row := range report.ExitBreakdown {
		reasons[row.Reason] = row.Count
	}
	for _, want := range []string{
		domain.ExitReasonMoonshotDrawdown,
		domain.ExitReasonStopLoss,
		domain.ExitReasonReplayEnd,
	} {
		if reasons[want] != 1 {
			t.Errorf("exit reason %s count = %d, want 1 (%v)", want, reasons[want], reasons)
		}
	}
	if report.Summary.StuckPositions != 0 {
		t.Errorf("stuck = %d, want 0", report.Summary.StuckPositions)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() *reporting.Report {
		driver := NewDriver(Config{Params: domain.DefaultParameters(), Log: zerolog.Nop()})
		report, err := driver.Run(context.Background(), NewSliceSource(scenarioEvents(t)))
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return report
	}

	a, b := run(), run()
	if reporting.RenderCSV(a) != reporting.RenderCSV(b) {
		t.Error("two replays of the same stream rendered different CSV")
	}
	if reporting.RenderMarkdown(a) != reporting.RenderMarkdown(b) {
		t.Error("two replays of the same stream rendered different Markdown")
	}
}

func TestRunFailsOnOutOfOrderEvent(t *testing.T) {
	events := []*domain.MarketEvent{
		launch("MintA", "AAA", "CreatorA", 5, 2000),
		trade("MintA", 4, 1000, 1), // moves backwards
	}
	driver := NewDriver(Config{Params: domain.DefaultParameters(), Log: zerolog.Nop()})

	_, err := driver.Run(context.Background(), NewSliceSource(events))
	if !errors.Is(err, feed.ErrOutOfOrderEvent) {
		t.Fatalf("want ErrOutOfOrderEvent, got %v", err)
	}
}

func TestRunFailsOnMalformedEvent(t *testing.T) {
	events := []*domain.MarketEvent{
		{Type: domain.EventTypeTrade, Instrument: "MintA", Timestamp: 1000, Sequence: 1},
	}
	driver := NewDriver(Config{Params: domain.DefaultParameters(), Log: zerolog.Nop()})

	_, err := driver.Run(context.Background(), NewSliceSource(events))
	if !errors.Is(err, domain.ErrMalformedEvent) {
		t.Fatalf("want ErrMalformedEvent, got %v", err)
	}
}

func TestTickBoundariesFireTimeStops(t *testing.T) {
	params := domain.DefaultParameters()
	params.MaxHold = domain.Duration(30 * time.Second)
	params.TickInterval = domain.Duration(10 * time.Second)
	entry := params.EntrySize / (1_000_000 * params.CurvePortion)

	base := int64(1_700_000_000_000)
	events := []*domain.MarketEvent{
		launch("MintA", "AAA", "CreatorA", 1, base),
		trade("MintA", 2, base+1000, entry*1.1),
		// A late event on another instrument drags logical time past
		// MintA's hold cap; the intervening ticks must fire the stop.
		launch("MintB", "BBB", "CreatorB", 1, base+60_000),
	}

	driver := NewDriver(Config{Params: params, Log: zerolog.Nop()})
	report, err := driver.Run(context.Background(), NewSliceSource(events))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var timeStops int
	for _, row := range report.ExitBreakdown {
		if row.Reason == domain.ExitReasonTimeStop {
			timeStops = row.Count
		}
	}
	if timeStops != 1 {
		t.Fatalf("time stops = %d, want 1 (%+v)", timeStops, report.ExitBreakdown)
	}
	// The exit fills at the last observed price.
	for _, tr := range report.Trades {
		if tr.Instrument == "MintA" && tr.ExitPrice != entry*1.1 {
			t.Errorf("time stop exit price = %v, want %v", tr.ExitPrice, entry*1.1)
		}
	}
}

func TestCancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver := NewDriver(Config{Params: domain.DefaultParameters(), Log: zerolog.Nop()})
	if _, err := driver.Run(ctx, NewSliceSource(scenarioEvents(t))); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
