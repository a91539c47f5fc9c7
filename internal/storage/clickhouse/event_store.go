package clickhouse

import (
	"context"
	"fmt"

	"meme-sniper/internal/domain"
	"meme-sniper/internal/storage"
)

// EventStore implements storage.EventStore using ClickHouse.
// The backing table is a ReplacingMergeTree keyed by
// (instrument, sequence): duplicate appends are deduplicated at merge
// time rather than rejected at insert, so Append never returns
// ErrDuplicateKey here.
type EventStore struct {
	conn *Conn
}

// NewEventStore creates a new EventStore.
func NewEventStore(conn *Conn) *EventStore {
	return &EventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const insertEventQuery = `
	INSERT INTO market_events (
		instrument, sequence, timestamp_ms, event_type,
		launch_name, launch_symbol, launch_creator, launch_liquidity, launch_supply,
		trade_direction, trade_base_amount, trade_quote_amount,
		graduation_valuation
	)
`

// Append adds a single event.
func (s *EventStore) Append(ctx context.Context, ev *domain.MarketEvent) error {
	return s.AppendBulk(ctx, []*domain.MarketEvent{ev})
}

// AppendBulk adds multiple events in one batch.
func (s *EventStore) AppendBulk(ctx context.Context, events []*domain.MarketEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, insertEventQuery)
	if err != nil {
		return fmt.Errorf("prepare event batch: %w", err)
	}

	for _, ev := range events {
		if ev == nil || ev.Instrument == "" {
			return storage.ErrInvalidInput
		}
		row := flattenEvent(ev)
		if err := batch.Append(
			row.instrument, row.sequence, row.timestamp, row.eventType,
			row.launchName, row.launchSymbol, row.launchCreator, row.launchLiquidity, row.launchSupply,
			row.tradeDirection, row.tradeBase, row.tradeQuote,
			row.graduationValuation,
		); err != nil {
			return fmt.Errorf("append event to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send event batch: %w", err)
	}
	return nil
}

// GetByInstrument retrieves all events for an instrument, ordered by
// (timestamp, sequence) ascending.
func (s *EventStore) GetByInstrument(ctx context.Context, instrument string) ([]*domain.MarketEvent, error) {
	query := `
		SELECT instrument, sequence, timestamp_ms, event_type,
			launch_name, launch_symbol, launch_creator, launch_liquidity, launch_supply,
			trade_direction, trade_base_amount, trade_quote_amount,
			graduation_valuation
		FROM market_events FINAL
		WHERE instrument = ?
		ORDER BY timestamp_ms ASC, sequence ASC
	`

	rows, err := s.conn.Query(ctx, query, instrument)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []*domain.MarketEvent
	for rows.Next() {
		var row eventRow
		if err := rows.Scan(
			&row.instrument, &row.sequence, &row.timestamp, &row.eventType,
			&row.launchName, &row.launchSymbol, &row.launchCreator, &row.launchLiquidity, &row.launchSupply,
			&row.tradeDirection, &row.tradeBase, &row.tradeQuote,
			&row.graduationValuation,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, row.toEvent())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// eventRow is the flattened column layout of market_events.
type eventRow struct {
	instrument string
	sequence   uint64
	timestamp  int64
	eventType  string

	launchName      string
	launchSymbol    string
	launchCreator   string
	launchLiquidity float64
	launchSupply    float64

	tradeDirection string
	tradeBase      float64
	tradeQuote     float64

	graduationValuation float64
}

func flattenEvent(ev *domain.MarketEvent) eventRow {
	row := eventRow{
		instrument: ev.Instrument,
		sequence:   ev.Sequence,
		timestamp:  ev.Timestamp,
		eventType:  string(ev.Type),
	}
	switch {
	case ev.Launch != nil:
		row.launchName = ev.Launch.Name
		row.launchSymbol = ev.Launch.Symbol
		row.launchCreator = ev.Launch.Creator
		row.launchLiquidity = ev.Launch.InitialLiquidity
		row.launchSupply = ev.Launch.TotalSupply
	case ev.Trade != nil:
		row.tradeDirection = string(ev.Trade.Direction)
		row.tradeBase = ev.Trade.BaseAmount
		row.tradeQuote = ev.Trade.QuoteAmount
	case ev.Graduation != nil:
		row.graduationValuation = ev.Graduation.FinalValuation
	}
	return row
}

func (r *eventRow) toEvent() *domain.MarketEvent {
	ev := &domain.MarketEvent{
		Type:       domain.EventType(r.eventType),
		Instrument: r.instrument,
		Timestamp:  r.timestamp,
		Sequence:   r.sequence,
	}
	switch ev.Type {
	case domain.EventTypeLaunch:
		ev.Launch = &domain.LaunchInfo{
			Name:             r.launchName,
			Symbol:           r.launchSymbol,
			Creator:          r.launchCreator,
			InitialLiquidity: r.launchLiquidity,
			TotalSupply:      r.launchSupply,
		}
	case domain.EventTypeTrade:
		ev.Trade = &domain.TradeInfo{
			Direction:   domain.TradeDirection(r.tradeDirection),
			BaseAmount:  r.tradeBase,
			QuoteAmount: r.tradeQuote,
		}
	case domain.EventTypeGraduation:
		ev.Graduation = &domain.GraduationInfo{
			FinalValuation: r.graduationValuation,
		}
	}
	return ev
}
