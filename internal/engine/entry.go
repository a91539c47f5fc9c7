package engine

import (
	"context"

	"meme-sniper/internal/domain"
	"meme-sniper/internal/gateway"
)

// handleLaunch runs admission and, if admitted, reserves risk budget
// and attempts the entry buy.
func (e *Engine) handleLaunch(ctx context.Context, ev *domain.MarketEvent) {
	decision := e.filter.Evaluate(ev, e.ledger)
	if !decision.Admit {
		e.metrics.Rejected()
		e.log.Debug().Str("instrument", ev.Instrument).
			Str("reason", decision.Reason).Msg("launch rejected")
		return
	}

	// Reservation may still fail if a concurrent entry won the race
	// between the filter's capacity read and here; that is the
	// expected resolution, not an error.
	if err := e.ledger.TryReserve(ev.Instrument, e.params.EntrySize); err != nil {
		e.metrics.Rejected()
		e.log.Debug().Str("instrument", ev.Instrument).Err(err).
			Msg("reservation lost to concurrent entry")
		return
	}
	e.metrics.Admitted()

	st := &positionState{
		symbol: ev.Launch.Symbol,
		pos: domain.Position{
			Instrument:       ev.Instrument,
			EntryTime:        ev.Timestamp,
			EntrySeq:         ev.Sequence,
			CapitalCommitted: e.params.EntrySize,
			Phase:            domain.PhaseEntering,
		},
	}

	e.mu.Lock()
	if _, exists := e.positions[ev.Instrument]; exists {
		// Exactly one position per instrument; the filter screens
		// open positions but a closed one may still be in the map
		// between close and removal.
		e.mu.Unlock()
		e.ledger.Release(ev.Instrument)
		return
	}
	e.positions[ev.Instrument] = st
	e.mu.Unlock()
	e.updateGauges()

	refPrice := entryReferencePrice(e.params, ev.Launch)

	st.mu.Lock()
	st.entryRefPrice = refPrice
	e.record(ctx, &domain.TransitionRecord{
		Instrument: ev.Instrument,
		Sequence:   st.nextRecSeq(ev.Sequence),
		Timestamp:  ev.Timestamp,
		Action:     domain.ActionEntrySubmitted,
		Phase:      domain.PhaseEntering,
		Price:      refPrice,
	})
	e.submitEntry(ctx, st, refPrice, ev.Sequence, ev.Timestamp)
	st.mu.Unlock()
}

// entryReferencePrice estimates the launch fill price from the curve
// portion of the declared supply. Live gateways replace it with the
// actual average fill price.
func entryReferencePrice(params domain.StrategyParameters, launch *domain.LaunchInfo) float64 {
	curveSupply := launch.TotalSupply * params.CurvePortion
	if curveSupply <= 0 {
		return 0
	}
	return params.EntrySize / curveSupply
}

// submitEntry sends the buy order and applies the outcome. Callers
// hold st.mu; it is released for the submission itself.
func (e *Engine) submitEntry(ctx context.Context, st *positionState, refPrice float64, seq uint64, ts int64) {
	if st.pending || st.pos.Phase != domain.PhaseEntering {
		return
	}
	if refPrice <= 0 {
		e.abandonEntry(ctx, st, seq, ts, "no curve supply to price entry")
		return
	}
	st.pending = true

	req := gateway.OrderRequest{
		Instrument:      st.pos.Instrument,
		Side:            gateway.SideBuy,
		Budget:          e.params.EntrySize,
		ReferencePrice:  refPrice,
		SlippagePercent: e.params.SlippagePercent,
		Sequence:        seq,
		Timestamp:       ts,
	}

	st.mu.Unlock()
	e.metrics.OrderSubmitted(string(gateway.SideBuy))
	res, err := e.gw.Submit(ctx, req)
	st.mu.Lock()

	st.pending = false
	e.applyEntryResult(ctx, st, res, err, seq, ts)
}

// applyEntryResult transitions Entering → Held on fill, or counts the
// failure toward the retry ceiling. Callers hold st.mu.
func (e *Engine) applyEntryResult(ctx context.Context, st *positionState, res *gateway.OrderResult, err error, seq uint64, ts int64) {
	if st.pos.Phase != domain.PhaseEntering {
		// Stale confirmation; the position moved on independently.
		e.record(ctx, &domain.TransitionRecord{
			Instrument: st.pos.Instrument,
			Sequence:   st.nextRecSeq(seq),
			Timestamp:  ts,
			Action:     domain.ActionStaleFill,
			Phase:      st.pos.Phase,
		})
		return
	}

	if err != nil {
		kind := "unknown"
		if oe, ok := gateway.AsOrderError(err); ok {
			kind = string(oe.Kind)
		}
		e.metrics.OrderFailed(string(gateway.SideBuy), kind)
		st.pos.RetryCount++
		e.record(ctx, &domain.TransitionRecord{
			Instrument: st.pos.Instrument,
			Sequence:   st.nextRecSeq(seq),
			Timestamp:  ts,
			Action:     domain.ActionEntryFailed,
			Phase:      domain.PhaseEntering,
			Detail:     kind,
		})
		if st.pos.RetryCount >= e.params.OrderRetryCeiling {
			e.abandonEntry(ctx, st, seq, ts, "entry retry ceiling reached")
		}
		return
	}

	st.pos.EntryPrice = res.AvgPrice
	st.pos.TotalQuantity = res.FilledQuantity
	st.pos.RemainingQuantity = res.FilledQuantity
	st.pos.PeakPrice = res.AvgPrice
	st.pos.Phase = domain.PhaseHeld
	st.pos.RetryCount = 0

	e.record(ctx, &domain.TransitionRecord{
		Instrument: st.pos.Instrument,
		Sequence:   st.nextRecSeq(seq),
		Timestamp:  ts,
		Action:     domain.ActionEntryFilled,
		Phase:      domain.PhaseHeld,
		Price:      res.AvgPrice,
		Quantity:   res.FilledQuantity,
		Detail:     res.TxID,
	})
	e.log.Info().Str("instrument", st.pos.Instrument).Str("symbol", st.symbol).
		Float64("price", res.AvgPrice).Float64("qty", res.FilledQuantity).
		Msg("position opened")
}

// abandonEntry drops a never-filled entry and releases its
// reservation. A position with no inventory has nothing to get stuck
// on. Callers hold st.mu.
func (e *Engine) abandonEntry(ctx context.Context, st *positionState, seq uint64, ts int64, reason string) {
	st.pos.Phase = domain.PhaseClosed
	e.record(ctx, &domain.TransitionRecord{
		Instrument: st.pos.Instrument,
		Sequence:   st.nextRecSeq(seq),
		Timestamp:  ts,
		Action:     domain.ActionEntryAbandoned,
		Phase:      domain.PhaseClosed,
		Detail:     reason,
	})
	e.ledger.Release(st.pos.Instrument)
	e.remove(st.pos.Instrument)
	e.log.Warn().Str("instrument", st.pos.Instrument).Str("reason", reason).
		Msg("entry abandoned")
}
