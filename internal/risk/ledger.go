// Package risk owns the process-wide risk budget: daily trade count,
// daily capital committed and the set of instruments with open
// positions. All mutations share one mutex so a reservation and the
// position creation it backs are atomic with respect to other entries.
package risk

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"meme-sniper/internal/clock"
	"meme-sniper/internal/domain"
)

// ErrDenied is the sentinel wrapped by every reservation denial.
// Denial is an expected admission outcome, not a fault.
var ErrDenied = errors.New("risk reservation denied")

// DeniedError carries the operator-facing denial reason.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string { return e.Reason }

// Unwrap ties every denial to ErrDenied for errors.Is checks.
func (e *DeniedError) Unwrap() error { return ErrDenied }

// State is a point-in-time snapshot of the ledger.
type State struct {
	Day             string // YYYY-MM-DD in the ledger's zone
	DailyTrades     int
	DailyCapital    float64
	OpenInstruments []string // sorted
}

// HasPosition reports whether instrument appears in the open set.
func (s State) HasPosition(instrument string) bool {
	for _, id := range s.OpenInstruments {
		if id == instrument {
			return true
		}
	}
	return false
}

// Ledger enforces daily limits and the concurrent position cap.
// Counters reset lazily: every operation first rolls the day marker
// forward if the calendar day (in the configured zone) has advanced.
type Ledger struct {
	maxDailyTrades  int
	maxDailyCapital float64
	maxPositions    int

	clk  clock.Clock
	zone *time.Location

	mu           sync.Mutex
	day          string
	dailyTrades  int
	dailyCapital float64
	open         map[string]float64 // instrument -> reserved amount
}

// NewLedger creates a ledger with limits from params, telling time via
// clk in zone. A nil zone defaults to UTC.
func NewLedger(params domain.StrategyParameters, clk clock.Clock, zone *time.Location) *Ledger {
	if zone == nil {
		zone = time.UTC
	}
	l := &Ledger{
		maxDailyTrades:  params.MaxDailyTrades,
		maxDailyCapital: params.MaxDailyCapital,
		maxPositions:    params.MaxConcurrentPositions,
		clk:             clk,
		zone:            zone,
		open:            make(map[string]float64),
	}
	l.day = l.currentDay()
	return l
}

func (l *Ledger) currentDay() string {
	return time.UnixMilli(l.clk.Now()).In(l.zone).Format("2006-01-02")
}

// rollDay resets daily counters if the calendar day advanced.
// Callers must hold l.mu.
func (l *Ledger) rollDay() {
	day := l.currentDay()
	if day != l.day {
		l.day = day
		l.dailyTrades = 0
		l.dailyCapital = 0
	}
}

// Check reports whether a reservation of amount would currently be
// admitted, without reserving. The admission filter uses this for its
// capacity predicate; the actual reservation happens at entry.
func (l *Ledger) Check(amount float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDay()
	return l.capacity(amount)
}

// TryReserve atomically claims one trade slot, amount of daily capital
// and an open-position slot for instrument. Returns a DeniedError if
// any limit would be exceeded or the instrument is already open.
func (l *Ledger) TryReserve(instrument string, amount float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDay()

	if _, exists := l.open[instrument]; exists {
		return &DeniedError{Reason: fmt.Sprintf("Position already open for %s", instrument)}
	}
	if err := l.capacity(amount); err != nil {
		return err
	}

	l.dailyTrades++
	l.dailyCapital += amount
	l.open[instrument] = amount
	return nil
}

// capacity checks limits without mutating. Callers must hold l.mu.
func (l *Ledger) capacity(amount float64) error {
	if l.dailyTrades >= l.maxDailyTrades {
		return &DeniedError{Reason: fmt.Sprintf("Daily trade limit reached: %d/%d", l.dailyTrades, l.maxDailyTrades)}
	}
	if l.dailyCapital+amount > l.maxDailyCapital {
		return &DeniedError{Reason: fmt.Sprintf("Daily capital limit: %.4f+%.4f exceeds %.4f",
			l.dailyCapital, amount, l.maxDailyCapital)}
	}
	if len(l.open) >= l.maxPositions {
		return &DeniedError{Reason: fmt.Sprintf("Max concurrent positions: %d/%d", len(l.open), l.maxPositions)}
	}
	return nil
}

// Release frees the open-position slot for instrument. Daily trade and
// capital counters are not refunded; they meter activity, not
// inventory. Releasing an unknown instrument is a no-op.
func (l *Ledger) Release(instrument string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDay()
	delete(l.open, instrument)
}

// Stats returns a snapshot of the ledger.
func (l *Ledger) Stats() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDay()

	open := make([]string, 0, len(l.open))
	for id := range l.open {
		open = append(open, id)
	}
	sort.Strings(open)

	return State{
		Day:             l.day,
		DailyTrades:     l.dailyTrades,
		DailyCapital:    l.dailyCapital,
		OpenInstruments: open,
	}
}
