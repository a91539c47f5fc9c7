// Package filter decides whether a newly launched instrument is
// eligible for entry. Evaluation is a pure predicate over the launch
// payload, the current risk state and configuration; callers perform
// the actual reservation.
package filter

import (
	"fmt"
	"strings"

	"meme-sniper/internal/domain"
	"meme-sniper/internal/risk"
)

// Decision is the outcome of admission evaluation.
type Decision struct {
	Admit  bool
	Reason string
}

// admit and reject are the two Decision constructors.
func admit() Decision { return Decision{Admit: true, Reason: "Passed all filters"} }

func reject(format string, args ...interface{}) Decision {
	return Decision{Admit: false, Reason: fmt.Sprintf(format, args...)}
}

// Filter evaluates launch events against admission rules. Stateless
// apart from configuration and the creator history tracker.
type Filter struct {
	params    domain.StrategyParameters
	blacklist []string // lowercased terms
	creators  *CreatorTracker
}

// New creates a Filter from params.
func New(params domain.StrategyParameters) *Filter {
	terms := make([]string, 0, len(params.Blacklist))
	for _, t := range params.Blacklist {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			terms = append(terms, t)
		}
	}
	return &Filter{
		params:    params,
		blacklist: terms,
		creators:  NewCreatorTracker(params.MaxTokensPerDay, params.MinCreatorInterval.Std()),
	}
}

// Evaluate decides admission for a launch event given the current risk
// state. Rejection reasons are operator-facing.
func (f *Filter) Evaluate(ev *domain.MarketEvent, ledger *risk.Ledger) Decision {
	if ev.Type != domain.EventTypeLaunch || ev.Launch == nil {
		return reject("Not a launch event")
	}
	launch := ev.Launch

	if n := len(launch.Name); n < f.params.MinNameLength || n > f.params.MaxNameLength {
		return reject("Invalid name length: %d (allowed: %d-%d)", n, f.params.MinNameLength, f.params.MaxNameLength)
	}
	if n := len(launch.Symbol); n < f.params.MinSymbolLength || n > f.params.MaxSymbolLength {
		return reject("Invalid symbol length: %d (allowed: %d-%d)", n, f.params.MinSymbolLength, f.params.MaxSymbolLength)
	}

	name := strings.ToLower(launch.Name)
	symbol := strings.ToLower(launch.Symbol)
	for _, term := range f.blacklist {
		if strings.Contains(name, term) || strings.Contains(symbol, term) {
			return reject("Blacklisted term: %s", term)
		}
	}

	if launch.InitialLiquidity < f.params.MinLiquidity {
		return reject("Low liquidity: %.4f < %.4f", launch.InitialLiquidity, f.params.MinLiquidity)
	}

	// Entry sizing divides by the curve supply; a non-positive supply
	// cannot be priced.
	if launch.TotalSupply <= 0 {
		return reject("Invalid total supply: %v", launch.TotalSupply)
	}

	// A second launch for an instrument we already hold indicates a
	// duplicate or already-acted-upon event; never re-enter.
	state := ledger.Stats()
	if state.HasPosition(ev.Instrument) {
		return reject("Position already open for %s", ev.Instrument)
	}

	if verdict := f.creators.Observe(launch.Creator, ev.Timestamp); verdict != "" {
		return reject("%s", verdict)
	}

	if err := ledger.Check(f.params.EntrySize); err != nil {
		return reject("%s", err.Error())
	}

	return admit()
}
