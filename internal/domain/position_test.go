package domain

import "testing"

func TestPhaseTransitionsOnlyMoveForward(t *testing.T) {
	allowed := []struct{ from, to Phase }{
		{PhaseEntering, PhaseHeld},
		{PhaseEntering, PhaseClosed},
		{PhaseHeld, PhasePartiallyExited},
		{PhaseHeld, PhaseClosed},
		{PhaseHeld, PhaseStuck},
		{PhasePartiallyExited, PhaseMoonshotHeld},
		{PhasePartiallyExited, PhaseClosed},
		{PhaseMoonshotHeld, PhaseClosed},
		{PhaseMoonshotHeld, PhaseStuck},
	}
	for _, tr := range allowed {
		if !tr.from.CanTransitionTo(tr.to) {
			t.Errorf("%s -> %s must be allowed", tr.from, tr.to)
		}
	}

	forbidden := []struct{ from, to Phase }{
		{PhaseHeld, PhaseEntering},
		{PhasePartiallyExited, PhaseHeld},
		{PhaseMoonshotHeld, PhasePartiallyExited},
		{PhaseClosed, PhaseHeld},
		{PhaseStuck, PhaseClosed},
		{PhaseClosed, PhaseStuck},
		{PhaseHeld, PhaseHeld},
	}
	for _, tr := range forbidden {
		if tr.from.CanTransitionTo(tr.to) {
			t.Errorf("%s -> %s must be rejected", tr.from, tr.to)
		}
	}
}

func TestPhaseTerminal(t *testing.T) {
	for _, p := range []Phase{PhaseEntering, PhaseHeld, PhasePartiallyExited, PhaseMoonshotHeld} {
		if p.Terminal() {
			t.Errorf("%s must not be terminal", p)
		}
	}
	for _, p := range []Phase{PhaseClosed, PhaseStuck} {
		if !p.Terminal() {
			t.Errorf("%s must be terminal", p)
		}
	}
}

func TestPositionPnLPercent(t *testing.T) {
	// Fixtures chosen so the percentages are exact in floating point.
	pos := &Position{EntryPrice: 1}
	if got := pos.PnLPercent(3); got != 200 {
		t.Errorf("PnLPercent(3x) = %v, want 200", got)
	}
	if got := pos.PnLPercent(0.5); got != -50 {
		t.Errorf("PnLPercent(0.5x) = %v, want -50", got)
	}

	empty := &Position{}
	if got := empty.PnLPercent(1); got != 0 {
		t.Errorf("PnLPercent with no entry = %v, want 0", got)
	}
}

func TestPositionDrawdownPercent(t *testing.T) {
	pos := &Position{PeakPrice: 100}
	if got := pos.DrawdownPercent(70); got != -30 {
		t.Errorf("DrawdownPercent = %v, want -30", got)
	}
	if got := pos.DrawdownPercent(120); got <= 0 {
		t.Errorf("price above peak must give positive value, got %v", got)
	}
}

func TestPositionExitedFraction(t *testing.T) {
	pos := &Position{TotalQuantity: 1000, RemainingQuantity: 250}
	if got := pos.ExitedFraction(); got != 0.75 {
		t.Errorf("ExitedFraction = %v, want 0.75", got)
	}
	if got := (&Position{}).ExitedFraction(); got != 0 {
		t.Errorf("empty position ExitedFraction = %v, want 0", got)
	}
}
