// Package eventlog reads and writes JSONL captures of canonical market
// events. The capture tool appends one record per line; the replay
// driver streams them back lazily without loading the file into memory.
package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"meme-sniper/internal/domain"
)

// record is the on-disk shape of one event. Flat so partial decoding
// never allocates nested maps for absent variants.
type record struct {
	Type       string `json:"type"`
	Instrument string `json:"instrument"`
	Timestamp  int64  `json:"ts"`
	Sequence   uint64 `json:"seq"`

	// Launch
	Name             string  `json:"name,omitempty"`
	Symbol           string  `json:"symbol,omitempty"`
	Creator          string  `json:"creator,omitempty"`
	InitialLiquidity float64 `json:"initial_liquidity,omitempty"`
	TotalSupply      float64 `json:"total_supply,omitempty"`

	// Trade
	Direction   string  `json:"direction,omitempty"`
	BaseAmount  float64 `json:"base_amount,omitempty"`
	QuoteAmount float64 `json:"quote_amount,omitempty"`

	// Graduation
	FinalValuation float64 `json:"final_valuation,omitempty"`
}

func toRecord(ev *domain.MarketEvent) record {
	rec := record{
		Type:       string(ev.Type),
		Instrument: ev.Instrument,
		Timestamp:  ev.Timestamp,
		Sequence:   ev.Sequence,
	}
	switch {
	case ev.Launch != nil:
		rec.Name = ev.Launch.Name
		rec.Symbol = ev.Launch.Symbol
		rec.Creator = ev.Launch.Creator
		rec.InitialLiquidity = ev.Launch.InitialLiquidity
		rec.TotalSupply = ev.Launch.TotalSupply
	case ev.Trade != nil:
		rec.Direction = string(ev.Trade.Direction)
		rec.BaseAmount = ev.Trade.BaseAmount
		rec.QuoteAmount = ev.Trade.QuoteAmount
	case ev.Graduation != nil:
		rec.FinalValuation = ev.Graduation.FinalValuation
	}
	return rec
}

func (r *record) toEvent() *domain.MarketEvent {
	ev := &domain.MarketEvent{
		Type:       domain.EventType(r.Type),
		Instrument: r.Instrument,
		Timestamp:  r.Timestamp,
		Sequence:   r.Sequence,
	}
	switch ev.Type {
	case domain.EventTypeLaunch:
		ev.Launch = &domain.LaunchInfo{
			Name:             r.Name,
			Symbol:           r.Symbol,
			Creator:          r.Creator,
			InitialLiquidity: r.InitialLiquidity,
			TotalSupply:      r.TotalSupply,
		}
	case domain.EventTypeTrade:
		ev.Trade = &domain.TradeInfo{
			Direction:   domain.TradeDirection(r.Direction),
			BaseAmount:  r.BaseAmount,
			QuoteAmount: r.QuoteAmount,
		}
	case domain.EventTypeGraduation:
		ev.Graduation = &domain.GraduationInfo{FinalValuation: r.FinalValuation}
	}
	return ev
}

// Writer appends events to a JSONL file.
type Writer struct {
	f   *os.File
	buf *bufio.Writer
	enc *json.Encoder
}

// NewWriter opens path for appending, creating it if needed.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log %s: %w", path, err)
	}
	buf := bufio.NewWriter(f)
	return &Writer{f: f, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// Append writes one event as a JSON line.
func (w *Writer) Append(ev *domain.MarketEvent) error {
	rec := toRecord(ev)
	if err := w.enc.Encode(&rec); err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("flush event log: %w", err)
	}
	return w.f.Close()
}

// Reader streams events from a JSONL file in file order.
type Reader struct {
	f       *os.File
	scanner *bufio.Scanner
	line    int
}

// Open opens path for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event log %s: %w", path, err)
	}
	scanner := bufio.NewScanner(f)
	// Allow long lines; launch names are unbounded in the wild.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{f: f, scanner: scanner}, nil
}

// Next returns the next event, io.EOF at end of file, or a decode
// error naming the offending line.
func (r *Reader) Next() (*domain.MarketEvent, error) {
	for r.scanner.Scan() {
		r.line++
		raw := r.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("event log line %d: %w", r.line, err)
		}
		return rec.toEvent(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	return nil, io.EOF
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
