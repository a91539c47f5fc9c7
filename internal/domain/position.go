package domain

// Phase is the lifecycle phase of a position.
type Phase string

// Position lifecycle phases. Transitions only move forward:
// Entering → Held → PartiallyExited → MoonshotHeld → Closed.
// Stuck is the one terminal failure phase, reached when order
// retries are exhausted.
const (
	PhaseEntering        Phase = "entering"
	PhaseHeld            Phase = "held"
	PhasePartiallyExited Phase = "partially_exited"
	PhaseMoonshotHeld    Phase = "moonshot_held"
	PhaseClosed          Phase = "closed"
	PhaseStuck           Phase = "stuck"
)

// Terminal reports whether no further automated action applies.
func (p Phase) Terminal() bool {
	return p == PhaseClosed || p == PhaseStuck
}

// rank orders phases along the lifecycle so regressions can be rejected.
func (p Phase) rank() int {
	switch p {
	case PhaseEntering:
		return 0
	case PhaseHeld:
		return 1
	case PhasePartiallyExited:
		return 2
	case PhaseMoonshotHeld:
		return 3
	case PhaseClosed, PhaseStuck:
		return 4
	}
	return -1
}

// CanTransitionTo reports whether moving from p to next is a forward
// transition. A phase never regresses.
func (p Phase) CanTransitionTo(next Phase) bool {
	return next.rank() > p.rank()
}

// Position tracks one instrument's open (or recently closed) lifecycle.
// Mutated only by the position manager.
type Position struct {
	Instrument string
	EntryPrice float64
	EntryTime  int64 // Unix ms
	EntrySeq   uint64

	TotalQuantity     float64
	RemainingQuantity float64
	CapitalCommitted  float64

	Phase          Phase
	PeakPrice      float64  // highest price observed since entry
	FirstExitPrice *float64 // price at first partial exit, nil until then
	LastPrice      float64  // most recent price sample, 0 if none

	RealizedProceeds float64 // quote received from fills so far
	RetryCount       int     // consecutive failed order submissions
}

// ExitedFraction returns the fraction of the acquired quantity sold so far.
func (p *Position) ExitedFraction() float64 {
	if p.TotalQuantity <= 0 {
		return 0
	}
	return 1 - p.RemainingQuantity/p.TotalQuantity
}

// PnLPercent returns the return of price relative to the entry price,
// in percent. Returns 0 for an uninitialized entry price.
func (p *Position) PnLPercent(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice * 100
}

// DrawdownPercent returns the decline of price from the peak, in
// percent (non-positive when price is at or above the peak).
func (p *Position) DrawdownPercent(price float64) float64 {
	if p.PeakPrice <= 0 {
		return 0
	}
	return (price - p.PeakPrice) / p.PeakPrice * 100
}
