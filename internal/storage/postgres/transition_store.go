package postgres

import (
	"context"
	"fmt"

	"meme-sniper/internal/domain"
	"meme-sniper/internal/storage"
)

// TransitionStore implements storage.TransitionStore using PostgreSQL.
type TransitionStore struct {
	pool *Pool
}

// NewTransitionStore creates a new TransitionStore.
func NewTransitionStore(pool *Pool) *TransitionStore {
	return &TransitionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransitionStore = (*TransitionStore)(nil)

// Append adds a transition record. Returns ErrDuplicateKey if
// (instrument, sequence, action) exists.
func (s *TransitionStore) Append(ctx context.Context, rec *domain.TransitionRecord) error {
	if rec == nil || rec.Instrument == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO position_transitions (
			instrument, sequence, timestamp_ms, action, phase, price, quantity, detail
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.Instrument,
		int64(rec.Sequence),
		rec.Timestamp,
		rec.Action,
		string(rec.Phase),
		rec.Price,
		rec.Quantity,
		rec.Detail,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("append transition: %w", err)
	}
	return nil
}

// GetByInstrument retrieves all records for an instrument, ordered by
// (sequence, action) ascending.
func (s *TransitionStore) GetByInstrument(ctx context.Context, instrument string) ([]*domain.TransitionRecord, error) {
	query := `
		SELECT instrument, sequence, timestamp_ms, action, phase, price, quantity, detail
		FROM position_transitions
		WHERE instrument = $1
		ORDER BY sequence ASC, action ASC
	`

	rows, err := s.pool.Query(ctx, query, instrument)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var out []*domain.TransitionRecord
	for rows.Next() {
		var rec domain.TransitionRecord
		var seq int64
		var phase string
		if err := rows.Scan(
			&rec.Instrument,
			&seq,
			&rec.Timestamp,
			&rec.Action,
			&phase,
			&rec.Price,
			&rec.Quantity,
			&rec.Detail,
		); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		rec.Sequence = uint64(seq)
		rec.Phase = domain.Phase(phase)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return out, nil
}
