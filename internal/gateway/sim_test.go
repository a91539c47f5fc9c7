package gateway

import (
	"context"
	"errors"
	"testing"
)

func TestSimGatewayFillsAtReferencePrice(t *testing.T) {
	g := NewSimGateway()

	res, err := g.Submit(context.Background(), OrderRequest{
		Instrument:     "MintA",
		Side:           SideBuy,
		Budget:         0.05,
		ReferencePrice: 0.0001,
		Sequence:       1,
		Timestamp:      1000,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.AvgPrice != 0.0001 {
		t.Errorf("avg price = %v, want reference price", res.AvgPrice)
	}
	if want := 0.05 / 0.0001; res.FilledQuantity != want {
		t.Errorf("quantity = %v, want %v", res.FilledQuantity, want)
	}
	if res.TxID == "" {
		t.Error("fill must carry a transaction ID")
	}
}

func TestSimGatewaySellUsesRequestedQuantity(t *testing.T) {
	g := NewSimGateway()

	res, err := g.Submit(context.Background(), OrderRequest{
		Instrument:     "MintA",
		Side:           SideSell,
		Quantity:       450,
		ReferencePrice: 0.0003,
		Sequence:       2,
		Timestamp:      2000,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.FilledQuantity != 450 {
		t.Errorf("quantity = %v, want 450", res.FilledQuantity)
	}
}

func TestSimGatewayDeterministicTxIDs(t *testing.T) {
	req := OrderRequest{
		Instrument: "MintA", Side: SideBuy,
		Budget: 0.05, ReferencePrice: 0.0001,
		Sequence: 1, Timestamp: 1000,
	}
	a, _ := NewSimGateway().Submit(context.Background(), req)
	b, _ := NewSimGateway().Submit(context.Background(), req)
	if a.TxID != b.TxID {
		t.Errorf("same request produced different tx IDs: %s vs %s", a.TxID, b.TxID)
	}
}

func TestSimGatewayFailNext(t *testing.T) {
	g := NewSimGateway()
	g.FailNext(2, FailureTimeout)

	req := OrderRequest{Instrument: "MintA", Side: SideBuy, Budget: 1, ReferencePrice: 1}
	for i := 0; i < 2; i++ {
		_, err := g.Submit(context.Background(), req)
		oe, ok := AsOrderError(err)
		if !ok || oe.Kind != FailureTimeout {
			t.Fatalf("attempt %d: want timeout OrderError, got %v", i, err)
		}
	}
	if _, err := g.Submit(context.Background(), req); err != nil {
		t.Fatalf("fills should resume after injected failures: %v", err)
	}
	if got := len(g.Fills()); got != 1 {
		t.Errorf("recorded fills = %d, want 1 (failures are not fills)", got)
	}
}

func TestSimGatewayRejectsUnpriceableBuy(t *testing.T) {
	g := NewSimGateway()
	_, err := g.Submit(context.Background(), OrderRequest{
		Instrument: "MintA", Side: SideBuy, Budget: 1, ReferencePrice: 0,
	})
	oe, ok := AsOrderError(err)
	if !ok || oe.Kind != FailureRejected {
		t.Fatalf("want rejected OrderError, got %v", err)
	}
}

func TestAsOrderError(t *testing.T) {
	inner := &OrderError{Kind: FailureRejected, Err: errors.New("venue says no")}
	wrapped := errors.Join(errors.New("context"), inner)
	oe, ok := AsOrderError(wrapped)
	if !ok || oe.Kind != FailureRejected {
		t.Errorf("AsOrderError failed on wrapped error")
	}
	if _, ok := AsOrderError(errors.New("plain")); ok {
		t.Error("plain error must not match")
	}
}
