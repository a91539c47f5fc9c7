// Package engine owns the per-instrument position state machines and
// drives all buy/sell decisions. The same code path serves live
// trading and replay; the two differ only in the injected gateway,
// clock and stores.
package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"meme-sniper/internal/clock"
	"meme-sniper/internal/domain"
	"meme-sniper/internal/filter"
	"meme-sniper/internal/gateway"
	"meme-sniper/internal/observability"
	"meme-sniper/internal/risk"
	"meme-sniper/internal/storage"
)

// Config wires the engine's collaborators.
type Config struct {
	Params  domain.StrategyParameters
	Filter  *filter.Filter
	Ledger  *risk.Ledger
	Gateway gateway.Gateway
	Clock   clock.Clock

	// Journal receives every position transition. Required.
	Journal storage.TransitionStore
	// Trades receives closed-trade audit records. Required.
	Trades storage.TradeStore

	Log     zerolog.Logger
	Metrics *observability.Metrics // optional
}

// Engine is the position manager plus entry pipeline.
type Engine struct {
	params  domain.StrategyParameters
	filter  *filter.Filter
	ledger  *risk.Ledger
	gw      gateway.Gateway
	clk     clock.Clock
	journal storage.TransitionStore
	trades  storage.TradeStore
	log     zerolog.Logger
	metrics *observability.Metrics

	// mu guards the positions map and the stuck counter; each position
	// carries its own lock so instruments never block each other.
	mu        sync.Mutex
	positions map[string]*positionState
	stuck     int
}

// positionState is one instrument's mutable state. All field access
// goes through mu; order submission releases mu and re-acquires it to
// apply the result.
type positionState struct {
	mu     sync.Mutex
	pos    domain.Position
	symbol string

	// entryRefPrice is the launch-time price estimate, kept for entry
	// resubmission on tick.
	entryRefPrice float64

	// pending marks an in-flight order so concurrent evaluations
	// (event vs tick) cannot double-submit for the same position.
	pending bool

	// recSeq is the sequence of the last journal record. Tick-driven
	// transitions reuse the triggering sequence, so journal sequences
	// are bumped past it to keep (instrument, sequence, action) keys
	// unique across retries.
	recSeq uint64
}

// nextRecSeq returns a journal sequence strictly above every previous
// record's for this position. Callers hold st.mu.
func (st *positionState) nextRecSeq(seq uint64) uint64 {
	if seq <= st.recSeq {
		seq = st.recSeq + 1
	}
	st.recSeq = seq
	return seq
}

// New creates an engine.
func New(cfg Config) *Engine {
	return &Engine{
		params:    cfg.Params,
		filter:    cfg.Filter,
		ledger:    cfg.Ledger,
		gw:        cfg.Gateway,
		clk:       cfg.Clock,
		journal:   cfg.Journal,
		trades:    cfg.Trades,
		log:       cfg.Log,
		metrics:   cfg.Metrics,
		positions: make(map[string]*positionState),
	}
}

// HandleEvent processes one canonical market event. Events for the
// same instrument must arrive in order; events for different
// instruments may be handled concurrently.
func (e *Engine) HandleEvent(ctx context.Context, ev *domain.MarketEvent) {
	e.metrics.EventProcessed(string(ev.Type))

	switch ev.Type {
	case domain.EventTypeLaunch:
		e.handleLaunch(ctx, ev)
	case domain.EventTypeTrade:
		e.handleTrade(ctx, ev)
	case domain.EventTypeGraduation:
		e.log.Info().Str("instrument", ev.Instrument).
			Float64("valuation", ev.Graduation.FinalValuation).
			Msg("instrument graduated")
	}
}

// OpenPositions returns a snapshot of all non-terminal positions.
func (e *Engine) OpenPositions() []domain.Position {
	return e.snapshot(func(p *domain.Position) bool { return !p.Phase.Terminal() })
}

// StuckPositions returns a snapshot of positions awaiting external
// intervention. Surfaced to the operator.
func (e *Engine) StuckPositions() []domain.Position {
	return e.snapshot(func(p *domain.Position) bool { return p.Phase == domain.PhaseStuck })
}

func (e *Engine) snapshot(keep func(*domain.Position) bool) []domain.Position {
	e.mu.Lock()
	states := make([]*positionState, 0, len(e.positions))
	for _, st := range e.positions {
		states = append(states, st)
	}
	e.mu.Unlock()

	var out []domain.Position
	for _, st := range states {
		st.mu.Lock()
		if keep(&st.pos) {
			out = append(out, st.pos)
		}
		st.mu.Unlock()
	}
	return out
}

// lookup returns the state for instrument, or nil.
func (e *Engine) lookup(instrument string) *positionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positions[instrument]
}

// remove drops a closed position from the live set. The journal and
// trade store retain its history.
func (e *Engine) remove(instrument string) {
	e.mu.Lock()
	delete(e.positions, instrument)
	e.mu.Unlock()
	e.updateGauges()
}

// updateGauges refreshes position gauges. Closed positions leave the
// map immediately, so open equals the map size minus the stuck count.
// Deliberately avoids per-position locks; callers may hold one.
func (e *Engine) updateGauges() {
	e.mu.Lock()
	open := len(e.positions) - e.stuck
	stuck := e.stuck
	e.mu.Unlock()
	e.metrics.SetOpenPositions(open)
	e.metrics.SetStuckPositions(stuck)
}

// record appends a transition to the journal. Journal failures are
// logged and never interrupt the decision path.
func (e *Engine) record(ctx context.Context, rec *domain.TransitionRecord) {
	if err := e.journal.Append(ctx, rec); err != nil {
		e.log.Error().Err(err).Str("instrument", rec.Instrument).
			Str("action", rec.Action).Msg("journal append failed")
	}
}
