package domain

import "errors"

// EventType discriminates MarketEvent variants.
type EventType string

// Event type constants.
const (
	EventTypeLaunch     EventType = "launch"
	EventTypeTrade      EventType = "trade"
	EventTypeGraduation EventType = "graduation"
)

// TradeDirection indicates which side initiated a trade.
type TradeDirection string

// Trade direction constants.
const (
	TradeBuy  TradeDirection = "buy"
	TradeSell TradeDirection = "sell"
)

// ErrMalformedEvent is returned when an event fails structural validation.
var ErrMalformedEvent = errors.New("malformed market event")

// MarketEvent is the canonical event consumed by the decision pipeline.
// Exactly one of Launch, Trade, Graduation is set, matching Type.
// Sequence numbers are non-decreasing per instrument within a feed
// session; the engine never reorders events for the same instrument.
type MarketEvent struct {
	Type       EventType
	Instrument string // token contract address
	Timestamp  int64  // Unix timestamp in milliseconds (wall-clock live, logical in replay)
	Sequence   uint64 // monotonically increasing per feed session

	Launch     *LaunchInfo
	Trade      *TradeInfo
	Graduation *GraduationInfo
}

// LaunchInfo is the payload of a token creation event.
type LaunchInfo struct {
	Name             string
	Symbol           string
	Creator          string  // creator wallet address
	InitialLiquidity float64 // quote asset committed at listing
	TotalSupply      float64 // raw token supply
}

// TradeInfo is the payload of a swap against the instrument's curve.
type TradeInfo struct {
	Direction   TradeDirection
	BaseAmount  float64 // token amount
	QuoteAmount float64 // quote asset amount
}

// GraduationInfo is the payload of a migration to the full trading venue.
type GraduationInfo struct {
	FinalValuation float64
}

// Price derives the implied price of a trade event as quote/base.
// Each trade yields exactly one price sample; the engine never
// interpolates or smooths. Returns false for non-trade events or
// trades with a non-positive base amount.
func (e *MarketEvent) Price() (float64, bool) {
	if e.Type != EventTypeTrade || e.Trade == nil || e.Trade.BaseAmount <= 0 {
		return 0, false
	}
	return e.Trade.QuoteAmount / e.Trade.BaseAmount, true
}

// Validate checks structural integrity of the event.
func (e *MarketEvent) Validate() error {
	if e.Instrument == "" || e.Timestamp <= 0 {
		return ErrMalformedEvent
	}
	switch e.Type {
	case EventTypeLaunch:
		if e.Launch == nil || e.Trade != nil || e.Graduation != nil {
			return ErrMalformedEvent
		}
	case EventTypeTrade:
		if e.Trade == nil || e.Launch != nil || e.Graduation != nil {
			return ErrMalformedEvent
		}
		if e.Trade.Direction != TradeBuy && e.Trade.Direction != TradeSell {
			return ErrMalformedEvent
		}
		if e.Trade.BaseAmount < 0 || e.Trade.QuoteAmount < 0 {
			return ErrMalformedEvent
		}
	case EventTypeGraduation:
		if e.Graduation == nil || e.Launch != nil || e.Trade != nil {
			return ErrMalformedEvent
		}
	default:
		return ErrMalformedEvent
	}
	return nil
}
