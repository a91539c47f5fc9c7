package eventlog

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"meme-sniper/internal/domain"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	events := []*domain.MarketEvent{
		{
			Type:       domain.EventTypeLaunch,
			Instrument: "MintA",
			Timestamp:  1000,
			Sequence:   1,
			Launch: &domain.LaunchInfo{
				Name: "Token A", Symbol: "TKA", Creator: "CreatorA",
				InitialLiquidity: 0.5, TotalSupply: 1_000_000,
			},
		},
		{
			Type:       domain.EventTypeTrade,
			Instrument: "MintA",
			Timestamp:  2000,
			Sequence:   2,
			Trade:      &domain.TradeInfo{Direction: domain.TradeBuy, BaseAmount: 100, QuoteAmount: 5},
		},
		{
			Type:       domain.EventTypeGraduation,
			Instrument: "MintA",
			Timestamp:  3000,
			Sequence:   3,
			Graduation: &domain.GraduationInfo{FinalValuation: 69000},
		},
	}

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, ev := range events {
		if err := w.Append(ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	for i, want := range events {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if got.Type != want.Type || got.Instrument != want.Instrument ||
			got.Timestamp != want.Timestamp || got.Sequence != want.Sequence {
			t.Errorf("event %d header = %+v, want %+v", i, got, want)
		}
	}
	if got, ok := mustNext(r); ok {
		t.Fatalf("expected EOF, got %+v", got)
	}

	// Variant payloads survive the round trip.
	r2, _ := Open(path)
	defer r2.Close()
	launch, _ := r2.Next()
	if launch.Launch == nil || launch.Launch.TotalSupply != 1_000_000 {
		t.Errorf("launch payload lost: %+v", launch)
	}
	trade, _ := r2.Next()
	if trade.Trade == nil || trade.Trade.QuoteAmount != 5 {
		t.Errorf("trade payload lost: %+v", trade)
	}
	grad, _ := r2.Next()
	if grad.Graduation == nil || grad.Graduation.FinalValuation != 69000 {
		t.Errorf("graduation payload lost: %+v", grad)
	}
}

func mustNext(r *Reader) (*domain.MarketEvent, bool) {
	ev, err := r.Next()
	if errors.Is(err, io.EOF) {
		return nil, false
	}
	return ev, true
}

func TestWriterAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	ev := &domain.MarketEvent{
		Type: domain.EventTypeTrade, Instrument: "MintA", Timestamp: 1, Sequence: 1,
		Trade: &domain.TradeInfo{Direction: domain.TradeSell, BaseAmount: 1, QuoteAmount: 1},
	}

	for i := 0; i < 2; i++ {
		w, err := NewWriter(path)
		if err != nil {
			t.Fatalf("NewWriter: %v", err)
		}
		if err := w.Append(ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	count := 0
	for {
		if _, ok := mustNext(r); !ok {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("reopened writer should append, got %d events", count)
	}
}

func TestReaderRejectsGarbageLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	if _, err := r.Next(); err == nil {
		t.Error("expected decode error for garbage line")
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}
