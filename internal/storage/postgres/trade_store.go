package postgres

import (
	"context"
	"fmt"

	"meme-sniper/internal/domain"
	"meme-sniper/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a closed trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.ClosedTrade) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO closed_trades (
			trade_id, instrument, symbol, entry_price, entry_time_ms,
			exit_price, exit_time_ms, exit_reason, quantity, capital_committed,
			proceeds, first_exit_price, peak_price, realized_pnl, pnl_percent, hold_duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TradeID,
		t.Instrument,
		t.Symbol,
		t.EntryPrice,
		t.EntryTime,
		t.ExitPrice,
		t.ExitTime,
		t.ExitReason,
		t.Quantity,
		t.CapitalCommitted,
		t.Proceeds,
		t.FirstExitPrice,
		t.PeakPrice,
		t.RealizedPnL,
		t.PnLPercent,
		t.HoldDurationMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert closed trade: %w", err)
	}
	return nil
}

// GetAll retrieves all closed trades ordered by exit time ascending.
func (s *TradeStore) GetAll(ctx context.Context) ([]*domain.ClosedTrade, error) {
	query := `
		SELECT trade_id, instrument, symbol, entry_price, entry_time_ms,
			exit_price, exit_time_ms, exit_reason, quantity, capital_committed,
			proceeds, first_exit_price, peak_price, realized_pnl, pnl_percent, hold_duration_ms
		FROM closed_trades
		ORDER BY exit_time_ms ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query closed trades: %w", err)
	}
	defer rows.Close()

	var out []*domain.ClosedTrade
	for rows.Next() {
		var t domain.ClosedTrade
		if err := rows.Scan(
			&t.TradeID,
			&t.Instrument,
			&t.Symbol,
			&t.EntryPrice,
			&t.EntryTime,
			&t.ExitPrice,
			&t.ExitTime,
			&t.ExitReason,
			&t.Quantity,
			&t.CapitalCommitted,
			&t.Proceeds,
			&t.FirstExitPrice,
			&t.PeakPrice,
			&t.RealizedPnL,
			&t.PnLPercent,
			&t.HoldDurationMs,
		); err != nil {
			return nil, fmt.Errorf("scan closed trade: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate closed trades: %w", err)
	}
	return out, nil
}
