package engine

import (
	"context"

	"meme-sniper/internal/domain"
	"meme-sniper/internal/gateway"
	"meme-sniper/internal/idhash"
)

// residualQuantity below which a position counts as fully exited.
// Absorbs float error when a fractional sell leaves near-zero dust.
const residualQuantity = 1e-9

// exitIntent is one decided sell, produced by the check ladder.
type exitIntent struct {
	reason   string
	fraction float64 // fraction of the remaining quantity to sell
}

// handleTrade folds one price sample into the instrument's position,
// if any, and executes whichever exit the check ladder picks.
func (e *Engine) handleTrade(ctx context.Context, ev *domain.MarketEvent) {
	st := e.lookup(ev.Instrument)
	if st == nil {
		return
	}
	price, ok := ev.Price()
	if !ok {
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.pos.Phase.Terminal() {
		return
	}
	st.pos.LastPrice = price
	if st.pending {
		// An order is in flight; this sample still updated LastPrice
		// and the next one re-evaluates.
		return
	}
	e.evaluate(ctx, st, price, ev.Sequence, ev.Timestamp)
}

// evaluate runs the exit check ladder for the current phase. The order
// of checks is fixed: profit target, stop loss, time stop. The first
// trigger wins. Callers hold st.mu.
func (e *Engine) evaluate(ctx context.Context, st *positionState, price float64, seq uint64, ts int64) {
	switch st.pos.Phase {
	case domain.PhaseHeld:
		if price > st.pos.PeakPrice {
			st.pos.PeakPrice = price
		}
		if intent, ok := e.heldExit(st, price, ts); ok {
			e.submitSell(ctx, st, intent, price, seq, ts)
		}
	case domain.PhasePartiallyExited, domain.PhaseMoonshotHeld:
		e.updateRunnerPeak(ctx, st, price, seq, ts)
		if intent, ok := e.runnerExit(st, price, ts); ok {
			e.submitSell(ctx, st, intent, price, seq, ts)
		}
	}
}

// heldExit decides the exit, if any, for a fully held position.
func (e *Engine) heldExit(st *positionState, price float64, ts int64) (exitIntent, bool) {
	pnl := st.pos.PnLPercent(price)
	if pnl >= e.params.TakeProfitPercent {
		fraction := e.params.TakeProfitFraction
		if !e.params.KeepMoonshot {
			fraction = 1
		}
		return exitIntent{reason: domain.ExitReasonTakeProfit, fraction: fraction}, true
	}
	if pnl <= e.params.StopLossPercent {
		return exitIntent{reason: domain.ExitReasonStopLoss, fraction: 1}, true
	}
	if ts-st.pos.EntryTime > e.params.MaxHold.Milliseconds() {
		return exitIntent{reason: domain.ExitReasonTimeStop, fraction: 1}, true
	}
	return exitIntent{}, false
}

// updateRunnerPeak records a new peak for the retained remainder and
// promotes the position to MoonshotHeld once the price clears the
// first exit. The peak always moves before any drawdown check so a
// single sample cannot trip the drawdown stop against itself.
func (e *Engine) updateRunnerPeak(ctx context.Context, st *positionState, price float64, seq uint64, ts int64) {
	if price <= st.pos.PeakPrice {
		return
	}
	st.pos.PeakPrice = price

	if st.pos.Phase != domain.PhasePartiallyExited {
		return
	}
	if st.pos.FirstExitPrice == nil || price <= *st.pos.FirstExitPrice {
		return
	}
	st.pos.Phase = domain.PhaseMoonshotHeld
	e.record(ctx, &domain.TransitionRecord{
		Instrument: st.pos.Instrument,
		Sequence:   st.nextRecSeq(seq),
		Timestamp:  ts,
		Action:     domain.ActionMoonshotPromoted,
		Phase:      domain.PhaseMoonshotHeld,
		Price:      price,
	})
}

// runnerExit decides the exit, if any, for the retained remainder
// after a partial take-profit.
func (e *Engine) runnerExit(st *positionState, price float64, ts int64) (exitIntent, bool) {
	if st.pos.PnLPercent(price) >= e.params.MoonshotProfitPercent {
		return exitIntent{reason: domain.ExitReasonMoonshotProfit, fraction: 1}, true
	}
	if st.pos.DrawdownPercent(price) <= e.params.MoonshotStopLossPercent {
		return exitIntent{reason: domain.ExitReasonMoonshotDrawdown, fraction: 1}, true
	}
	if ts-st.pos.EntryTime > e.params.MoonshotMaxHold.Milliseconds() {
		return exitIntent{reason: domain.ExitReasonMoonshotTimeStop, fraction: 1}, true
	}
	return exitIntent{}, false
}

// submitSell sends the sell order and applies the outcome. Callers
// hold st.mu; it is released for the submission itself.
func (e *Engine) submitSell(ctx context.Context, st *positionState, intent exitIntent, price float64, seq uint64, ts int64) {
	qty := st.pos.RemainingQuantity * intent.fraction
	if qty <= 0 {
		return
	}
	st.pending = true

	req := gateway.OrderRequest{
		Instrument:      st.pos.Instrument,
		Side:            gateway.SideSell,
		Quantity:        qty,
		ReferencePrice:  price,
		SlippagePercent: e.params.SlippagePercent,
		Sequence:        seq,
		Timestamp:       ts,
	}

	st.mu.Unlock()
	e.metrics.OrderSubmitted(string(gateway.SideSell))
	res, err := e.gw.Submit(ctx, req)
	st.mu.Lock()

	st.pending = false
	e.applySellResult(ctx, st, intent, res, err, seq, ts)
}

// applySellResult folds a sell confirmation or failure into the
// position. A confirmation arriving after the position already
// terminated is journaled and otherwise ignored. Callers hold st.mu.
func (e *Engine) applySellResult(ctx context.Context, st *positionState, intent exitIntent, res *gateway.OrderResult, err error, seq uint64, ts int64) {
	if st.pos.Phase.Terminal() {
		e.record(ctx, &domain.TransitionRecord{
			Instrument: st.pos.Instrument,
			Sequence:   st.nextRecSeq(seq),
			Timestamp:  ts,
			Action:     domain.ActionStaleFill,
			Phase:      st.pos.Phase,
			Detail:     intent.reason,
		})
		return
	}

	if err != nil {
		kind := "unknown"
		if oe, ok := gateway.AsOrderError(err); ok {
			kind = string(oe.Kind)
		}
		e.metrics.OrderFailed(string(gateway.SideSell), kind)
		st.pos.RetryCount++
		e.record(ctx, &domain.TransitionRecord{
			Instrument: st.pos.Instrument,
			Sequence:   st.nextRecSeq(seq),
			Timestamp:  ts,
			Action:     domain.ActionSellFailed,
			Phase:      st.pos.Phase,
			Quantity:   st.pos.RemainingQuantity * intent.fraction,
			Detail:     kind + ": " + intent.reason,
		})
		if st.pos.RetryCount >= e.params.OrderRetryCeiling {
			e.markStuck(ctx, st, seq, ts, intent.reason)
		}
		return
	}

	st.pos.RemainingQuantity -= res.FilledQuantity
	if st.pos.RemainingQuantity < residualQuantity {
		st.pos.RemainingQuantity = 0
	}
	st.pos.RealizedProceeds += res.FilledQuantity * res.AvgPrice
	st.pos.RetryCount = 0

	if st.pos.RemainingQuantity > 0 {
		// Partial take-profit. The retained remainder restarts its
		// peak from the fill so the drawdown stop measures the
		// moonshot leg, not the already-banked run-up.
		exitPrice := res.AvgPrice
		st.pos.FirstExitPrice = &exitPrice
		st.pos.PeakPrice = exitPrice
		st.pos.Phase = domain.PhasePartiallyExited
		e.record(ctx, &domain.TransitionRecord{
			Instrument: st.pos.Instrument,
			Sequence:   st.nextRecSeq(seq),
			Timestamp:  ts,
			Action:     domain.ActionPartialExit,
			Phase:      domain.PhasePartiallyExited,
			Price:      res.AvgPrice,
			Quantity:   res.FilledQuantity,
			Detail:     intent.reason,
		})
		e.log.Info().Str("instrument", st.pos.Instrument).Str("symbol", st.symbol).
			Float64("price", res.AvgPrice).Float64("qty", res.FilledQuantity).
			Str("reason", intent.reason).Msg("partial exit filled")
		return
	}

	e.record(ctx, &domain.TransitionRecord{
		Instrument: st.pos.Instrument,
		Sequence:   st.nextRecSeq(seq),
		Timestamp:  ts,
		Action:     domain.ActionFullExit,
		Phase:      domain.PhaseClosed,
		Price:      res.AvgPrice,
		Quantity:   res.FilledQuantity,
		Detail:     intent.reason,
	})
	e.closeTrade(ctx, st, intent.reason, res.AvgPrice, ts)
}

// markStuck parks a position that cannot be exited. The capital
// reservation stays held, the inventory is still owned, and only an
// operator can resolve it.
func (e *Engine) markStuck(ctx context.Context, st *positionState, seq uint64, ts int64, reason string) {
	st.pos.Phase = domain.PhaseStuck
	e.mu.Lock()
	e.stuck++
	e.mu.Unlock()
	e.record(ctx, &domain.TransitionRecord{
		Instrument: st.pos.Instrument,
		Sequence:   st.nextRecSeq(seq),
		Timestamp:  ts,
		Action:     domain.ActionStuck,
		Phase:      domain.PhaseStuck,
		Quantity:   st.pos.RemainingQuantity,
		Detail:     reason,
	})
	e.updateGauges()
	e.log.Error().Str("instrument", st.pos.Instrument).Str("symbol", st.symbol).
		Float64("qty", st.pos.RemainingQuantity).Str("reason", reason).
		Msg("position stuck, manual intervention required")
}

// closeTrade finalizes a fully exited position: persists the audit
// record, releases the risk reservation and drops the live state.
// Callers hold st.mu.
func (e *Engine) closeTrade(ctx context.Context, st *positionState, reason string, exitPrice float64, ts int64) {
	st.pos.Phase = domain.PhaseClosed

	trade := &domain.ClosedTrade{
		TradeID:    idhash.ComputeTradeID(st.pos.Instrument, st.pos.EntrySeq, st.pos.EntryTime),
		Instrument: st.pos.Instrument,
		Symbol:     st.symbol,

		EntryPrice: st.pos.EntryPrice,
		EntryTime:  st.pos.EntryTime,
		ExitPrice:  exitPrice,
		ExitTime:   ts,
		ExitReason: reason,

		Quantity:         st.pos.TotalQuantity,
		CapitalCommitted: st.pos.CapitalCommitted,
		Proceeds:         st.pos.RealizedProceeds,
		FirstExitPrice:   st.pos.FirstExitPrice,
		PeakPrice:        st.pos.PeakPrice,

		RealizedPnL:    st.pos.RealizedProceeds - st.pos.CapitalCommitted,
		HoldDurationMs: ts - st.pos.EntryTime,
	}
	if st.pos.CapitalCommitted > 0 {
		trade.PnLPercent = trade.RealizedPnL / st.pos.CapitalCommitted * 100
	}

	if err := e.trades.Insert(ctx, trade); err != nil {
		e.log.Error().Err(err).Str("trade_id", trade.TradeID).Msg("trade insert failed")
	}
	e.metrics.TradeClosed(reason)
	e.ledger.Release(st.pos.Instrument)
	e.remove(st.pos.Instrument)

	e.log.Info().Str("instrument", st.pos.Instrument).Str("symbol", st.symbol).
		Str("reason", reason).Float64("pnl", trade.RealizedPnL).
		Float64("pnl_pct", trade.PnLPercent).Msg("position closed")
}

// Tick advances time-based checks for every open position: entry
// resubmission for positions still entering, and time stops evaluated
// against the most recent price sample.
func (e *Engine) Tick(ctx context.Context) {
	now := e.clk.Now()

	e.mu.Lock()
	states := make([]*positionState, 0, len(e.positions))
	for _, st := range e.positions {
		states = append(states, st)
	}
	e.mu.Unlock()

	for _, st := range states {
		st.mu.Lock()
		if st.pending || st.pos.Phase.Terminal() {
			st.mu.Unlock()
			continue
		}
		switch st.pos.Phase {
		case domain.PhaseEntering:
			e.submitEntry(ctx, st, st.entryRefPrice, st.pos.EntrySeq, now)
		default:
			price := st.pos.LastPrice
			if price <= 0 {
				price = st.pos.EntryPrice
			}
			e.evaluate(ctx, st, price, st.pos.EntrySeq, now)
		}
		st.mu.Unlock()
	}
}

// CloseAll force-exits every open position at its last observed price,
// recording reason on the resulting trades. Used by the replay driver
// to flatten the book at end of stream. Positions still entering are
// abandoned; stuck positions stay stuck.
func (e *Engine) CloseAll(ctx context.Context, reason string) {
	now := e.clk.Now()

	e.mu.Lock()
	states := make([]*positionState, 0, len(e.positions))
	for _, st := range e.positions {
		states = append(states, st)
	}
	e.mu.Unlock()

	for _, st := range states {
		st.mu.Lock()
		switch {
		case st.pos.Phase.Terminal() || st.pending:
		case st.pos.Phase == domain.PhaseEntering:
			e.abandonEntry(ctx, st, st.pos.EntrySeq, now, "closing all positions")
		default:
			price := st.pos.LastPrice
			if price <= 0 {
				price = st.pos.EntryPrice
			}
			intent := exitIntent{reason: reason, fraction: 1}
			e.submitSell(ctx, st, intent, price, st.pos.EntrySeq, now)
		}
		st.mu.Unlock()
	}
}
