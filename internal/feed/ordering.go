package feed

import (
	"errors"
	"fmt"
	"sync"

	"meme-sniper/internal/domain"
)

// ErrOutOfOrderEvent is returned when an event violates per-instrument
// (timestamp, sequence) ordering. Live callers log and drop the event
// (feeds occasionally redeliver); the replay driver treats it as fatal
// because reordering would change trigger outcomes.
var ErrOutOfOrderEvent = errors.New("event out of order")

// OrderTracker enforces non-decreasing (timestamp, sequence) per
// instrument within one feed session.
type OrderTracker struct {
	mu   sync.Mutex
	last map[string]eventKey
}

type eventKey struct {
	ts  int64
	seq uint64
}

// NewOrderTracker creates an empty tracker.
func NewOrderTracker() *OrderTracker {
	return &OrderTracker{last: make(map[string]eventKey)}
}

// Observe records ev's position in the instrument's stream. Returns
// ErrOutOfOrderEvent (wrapped with detail) if ev moves backwards; the
// tracker keeps the prior high-water mark in that case.
func (t *OrderTracker) Observe(ev *domain.MarketEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := eventKey{ts: ev.Timestamp, seq: ev.Sequence}
	prev, seen := t.last[ev.Instrument]
	if seen && less(key, prev) {
		return fmt.Errorf("%w: instrument %s got (ts=%d, seq=%d) after (ts=%d, seq=%d)",
			ErrOutOfOrderEvent, ev.Instrument, key.ts, key.seq, prev.ts, prev.seq)
	}
	t.last[ev.Instrument] = key
	return nil
}

// less orders keys by (timestamp, sequence).
func less(a, b eventKey) bool {
	if a.ts != b.ts {
		return a.ts < b.ts
	}
	return a.seq < b.seq
}
