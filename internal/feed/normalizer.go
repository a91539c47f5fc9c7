// Package feed converts raw platform payloads into canonical market
// events and enforces per-instrument ordering. The websocket client in
// this package is the live event source; the decision core never
// depends on it directly.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"meme-sniper/internal/domain"
)

// ErrMalformedPayload is returned when a feed payload cannot be
// normalized. Callers log and skip; the stream continues.
var ErrMalformedPayload = errors.New("malformed feed payload")

// wireEvent is the platform's stream message layout.
type wireEvent struct {
	Type string `json:"type"`
	Mint string `json:"mint"`
	Ts   int64  `json:"ts"`   // Unix ms
	Seq  uint64 `json:"seq"`

	// launch
	Name             string  `json:"name,omitempty"`
	Symbol           string  `json:"symbol,omitempty"`
	Creator          string  `json:"creator,omitempty"`
	InitialLiquidity float64 `json:"initial_liquidity,omitempty"`
	TotalSupply      float64 `json:"total_supply,omitempty"`

	// trade
	Direction   string  `json:"direction,omitempty"`
	BaseAmount  float64 `json:"base_amount,omitempty"`
	QuoteAmount float64 `json:"quote_amount,omitempty"`

	// graduation
	FinalValuation float64 `json:"final_valuation,omitempty"`
}

// Normalize converts one raw payload into a canonical MarketEvent.
// Returns ErrMalformedPayload (wrapped with detail) on any structural
// or address validation failure.
func Normalize(raw []byte) (*domain.MarketEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if err := validateAddress(w.Mint); err != nil {
		return nil, fmt.Errorf("%w: mint: %v", ErrMalformedPayload, err)
	}

	ev := &domain.MarketEvent{
		Instrument: w.Mint,
		Timestamp:  w.Ts,
		Sequence:   w.Seq,
	}

	switch w.Type {
	case "launch":
		if err := validateWalletAddress(w.Creator); err != nil {
			return nil, fmt.Errorf("%w: creator: %v", ErrMalformedPayload, err)
		}
		ev.Type = domain.EventTypeLaunch
		ev.Launch = &domain.LaunchInfo{
			Name:             w.Name,
			Symbol:           w.Symbol,
			Creator:          w.Creator,
			InitialLiquidity: w.InitialLiquidity,
			TotalSupply:      w.TotalSupply,
		}
	case "buy", "sell":
		ev.Type = domain.EventTypeTrade
		ev.Trade = &domain.TradeInfo{
			Direction:   domain.TradeDirection(w.Type),
			BaseAmount:  w.BaseAmount,
			QuoteAmount: w.QuoteAmount,
		}
	case "trade":
		ev.Type = domain.EventTypeTrade
		ev.Trade = &domain.TradeInfo{
			Direction:   domain.TradeDirection(w.Direction),
			BaseAmount:  w.BaseAmount,
			QuoteAmount: w.QuoteAmount,
		}
	case "graduation":
		ev.Type = domain.EventTypeGraduation
		ev.Graduation = &domain.GraduationInfo{
			FinalValuation: w.FinalValuation,
		}
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrMalformedPayload, w.Type)
	}

	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return ev, nil
}

// validateAddress checks that addr is a base58-encoded 32-byte key.
func validateAddress(addr string) error {
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("decode base58: %v", err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("expected 32 bytes, got %d", len(decoded))
	}
	return nil
}

// validateWalletAddress additionally requires the key to be a valid
// curve point. Wallet keys are always on-curve; program-derived
// addresses are not, and a creator can never be one.
func validateWalletAddress(addr string) error {
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("decode base58: %v", err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("expected 32 bytes, got %d", len(decoded))
	}
	if _, err := new(edwards25519.Point).SetBytes(decoded); err != nil {
		return fmt.Errorf("not a curve point: %v", err)
	}
	return nil
}
