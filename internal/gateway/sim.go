package gateway

import (
	"context"
	"sync"

	"meme-sniper/internal/idhash"
)

// SimGateway fills every order immediately and synchronously at the
// request's reference price, with no slippage or latency. Used by the
// replay driver and by tests. Fills are recorded in submission order.
type SimGateway struct {
	mu    sync.Mutex
	fills []SimFill

	// FailNext, when positive, makes that many upcoming submissions
	// fail with the configured kind before filling resumes.
	failNext int
	failKind FailureKind
}

// SimFill records one simulated execution.
type SimFill struct {
	Request OrderRequest
	Result  OrderResult
}

// NewSimGateway creates a recording simulated gateway.
func NewSimGateway() *SimGateway {
	return &SimGateway{}
}

// FailNext makes the next n submissions fail with the given kind.
func (g *SimGateway) FailNext(n int, kind FailureKind) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failNext = n
	g.failKind = kind
}

// Submit fills the order at req.ReferencePrice.
func (g *SimGateway) Submit(_ context.Context, req OrderRequest) (*OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failNext > 0 {
		g.failNext--
		return nil, &OrderError{Kind: g.failKind}
	}

	qty := req.Quantity
	if req.Side == SideBuy {
		if req.ReferencePrice <= 0 {
			return nil, &OrderError{Kind: FailureRejected}
		}
		qty = req.Budget / req.ReferencePrice
	}

	res := OrderResult{
		FilledQuantity: qty,
		AvgPrice:       req.ReferencePrice,
		TxID:           idhash.ComputeFillID(req.Instrument, string(req.Side), req.Sequence, req.Timestamp),
	}
	g.fills = append(g.fills, SimFill{Request: req, Result: res})
	return &res, nil
}

// Fills returns all recorded fills in submission order.
func (g *SimGateway) Fills() []SimFill {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]SimFill, len(g.fills))
	copy(out, g.fills)
	return out
}

var _ Gateway = (*SimGateway)(nil)
