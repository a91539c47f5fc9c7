// Package gateway defines the order execution boundary. The engine
// depends only on the Gateway interface; live and replay modes differ
// in which implementation they inject.
package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Side is the order side.
type Side string

// Order side constants.
const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// FailureKind classifies order failures for retry handling.
type FailureKind string

// Failure kind constants.
const (
	FailureTimeout           FailureKind = "timeout"
	FailureRejected          FailureKind = "rejected"
	FailureInsufficientFunds FailureKind = "insufficient_funds"
)

// OrderError is a typed order failure. All failures are retryable up
// to the engine's ceiling; the kind is recorded for diagnostics.
type OrderError struct {
	Kind FailureKind
	Err  error
}

func (e *OrderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("order failed: %s", e.Kind)
	}
	return fmt.Sprintf("order failed: %s: %v", e.Kind, e.Err)
}

func (e *OrderError) Unwrap() error { return e.Err }

// AsOrderError extracts an OrderError from an error chain.
func AsOrderError(err error) (*OrderError, bool) {
	var oe *OrderError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// OrderRequest describes one buy or sell intent.
type OrderRequest struct {
	Instrument string
	Side       Side

	// Quantity is the base amount to sell. Zero for buys.
	Quantity float64
	// Budget is the quote amount to spend. Zero for sells.
	Budget float64

	// ReferencePrice is the price sample the intent was computed
	// against. Simulated gateways fill at exactly this price; live
	// gateways use it only for slippage bounding.
	ReferencePrice float64
	// SlippagePercent bounds acceptable deviation from ReferencePrice.
	SlippagePercent float64

	// Sequence of the event that produced the intent, for
	// deterministic fill IDs in simulation.
	Sequence  uint64
	Timestamp int64 // Unix ms
}

// OrderResult is a confirmed fill.
type OrderResult struct {
	FilledQuantity float64
	AvgPrice       float64
	TxID           string
}

// Gateway executes orders. Submit must respect ctx and return within a
// bounded time; the engine treats a deadline expiry as a timeout
// failure and retries per its policy.
type Gateway interface {
	Submit(ctx context.Context, req OrderRequest) (*OrderResult, error)
}
