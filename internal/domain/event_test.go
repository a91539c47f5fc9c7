package domain

import (
	"errors"
	"testing"
)

func TestEventPrice(t *testing.T) {
	ev := &MarketEvent{
		Type:  EventTypeTrade,
		Trade: &TradeInfo{Direction: TradeBuy, BaseAmount: 2000, QuoteAmount: 0.1},
	}
	price, ok := ev.Price()
	if !ok || price != 0.00005 {
		t.Errorf("Price() = %v, %v", price, ok)
	}

	// Non-trade events and zero-base trades have no price.
	launch := &MarketEvent{Type: EventTypeLaunch, Launch: &LaunchInfo{}}
	if _, ok := launch.Price(); ok {
		t.Error("launch event must not yield a price")
	}
	zeroBase := &MarketEvent{Type: EventTypeTrade, Trade: &TradeInfo{Direction: TradeSell, QuoteAmount: 1}}
	if _, ok := zeroBase.Price(); ok {
		t.Error("zero base amount must not yield a price")
	}
}

func TestEventValidate(t *testing.T) {
	valid := &MarketEvent{
		Type:       EventTypeTrade,
		Instrument: "MintA",
		Timestamp:  1000,
		Sequence:   1,
		Trade:      &TradeInfo{Direction: TradeBuy, BaseAmount: 1, QuoteAmount: 1},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	tests := []struct {
		name string
		ev   MarketEvent
	}{
		{"missing instrument", MarketEvent{Type: EventTypeTrade, Timestamp: 1, Trade: valid.Trade}},
		{"missing timestamp", MarketEvent{Type: EventTypeTrade, Instrument: "MintA", Trade: valid.Trade}},
		{"unknown type", MarketEvent{Type: "mystery", Instrument: "MintA", Timestamp: 1}},
		{"trade without payload", MarketEvent{Type: EventTypeTrade, Instrument: "MintA", Timestamp: 1}},
		{"two payloads", MarketEvent{
			Type: EventTypeLaunch, Instrument: "MintA", Timestamp: 1,
			Launch: &LaunchInfo{}, Trade: valid.Trade,
		}},
		{"bad direction", MarketEvent{
			Type: EventTypeTrade, Instrument: "MintA", Timestamp: 1,
			Trade: &TradeInfo{Direction: "hold", BaseAmount: 1, QuoteAmount: 1},
		}},
		{"negative amount", MarketEvent{
			Type: EventTypeTrade, Instrument: "MintA", Timestamp: 1,
			Trade: &TradeInfo{Direction: TradeBuy, BaseAmount: -1, QuoteAmount: 1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.ev.Validate(); !errors.Is(err, ErrMalformedEvent) {
				t.Errorf("want ErrMalformedEvent, got %v", err)
			}
		})
	}
}
