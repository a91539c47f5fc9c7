package feed

import (
	"errors"
	"testing"

	"meme-sniper/internal/domain"
)

func orderedEvent(instrument string, ts int64, seq uint64) *domain.MarketEvent {
	return &domain.MarketEvent{
		Type:       domain.EventTypeTrade,
		Instrument: instrument,
		Timestamp:  ts,
		Sequence:   seq,
		Trade:      &domain.TradeInfo{Direction: domain.TradeBuy, BaseAmount: 1, QuoteAmount: 1},
	}
}

func TestObserveAcceptsMonotonicStream(t *testing.T) {
	tr := NewOrderTracker()

	stream := []*domain.MarketEvent{
		orderedEvent("MintA", 100, 1),
		orderedEvent("MintA", 100, 2), // same ts, higher seq
		orderedEvent("MintA", 200, 2), // same seq, later ts
		orderedEvent("MintA", 200, 2), // exact duplicate key is not a regression
	}
	for i, ev := range stream {
		if err := tr.Observe(ev); err != nil {
			t.Fatalf("event %d rejected: %v", i, err)
		}
	}
}

func TestObserveRejectsBackwardsEvents(t *testing.T) {
	tr := NewOrderTracker()

	if err := tr.Observe(orderedEvent("MintA", 200, 5)); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	for _, ev := range []*domain.MarketEvent{
		orderedEvent("MintA", 100, 9), // earlier timestamp
		orderedEvent("MintA", 200, 4), // same timestamp, earlier sequence
	} {
		if err := tr.Observe(ev); !errors.Is(err, ErrOutOfOrderEvent) {
			t.Errorf("want ErrOutOfOrderEvent for (ts=%d, seq=%d), got %v", ev.Timestamp, ev.Sequence, err)
		}
	}
}

func TestObserveKeepsHighWaterMarkAfterRejection(t *testing.T) {
	tr := NewOrderTracker()

	tr.Observe(orderedEvent("MintA", 200, 5))
	tr.Observe(orderedEvent("MintA", 100, 1)) // rejected

	// The rejected event must not lower the bar.
	if err := tr.Observe(orderedEvent("MintA", 150, 3)); !errors.Is(err, ErrOutOfOrderEvent) {
		t.Errorf("high-water mark moved after rejection: %v", err)
	}
	if err := tr.Observe(orderedEvent("MintA", 201, 1)); err != nil {
		t.Errorf("forward progress rejected: %v", err)
	}
}

func TestObserveTracksInstrumentsIndependently(t *testing.T) {
	tr := NewOrderTracker()

	tr.Observe(orderedEvent("MintA", 500, 50))
	if err := tr.Observe(orderedEvent("MintB", 100, 1)); err != nil {
		t.Errorf("other instrument affected: %v", err)
	}
}
