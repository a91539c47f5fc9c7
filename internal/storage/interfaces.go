// Package storage defines the persistence boundary. The decision core
// appends records through these interfaces and never reads them on the
// hot path; implementations live in subpackages (memory, postgres,
// clickhouse).
package storage

import (
	"context"

	"meme-sniper/internal/domain"
)

// TransitionStore is the append-only journal of position transitions.
type TransitionStore interface {
	// Append adds a transition record. Returns ErrDuplicateKey if
	// (instrument, sequence, action) already exists.
	Append(ctx context.Context, rec *domain.TransitionRecord) error

	// GetByInstrument retrieves all records for an instrument, ordered
	// by (sequence, action) ascending.
	GetByInstrument(ctx context.Context, instrument string) ([]*domain.TransitionRecord, error)
}

// EventStore archives processed market events keyed by
// (instrument, sequence).
type EventStore interface {
	// Append adds an event. Returns ErrDuplicateKey if
	// (instrument, sequence) already exists.
	Append(ctx context.Context, ev *domain.MarketEvent) error

	// AppendBulk adds multiple events. Fails the entire batch on any
	// duplicate.
	AppendBulk(ctx context.Context, events []*domain.MarketEvent) error

	// GetByInstrument retrieves all events for an instrument, ordered
	// by (timestamp, sequence) ascending.
	GetByInstrument(ctx context.Context, instrument string) ([]*domain.MarketEvent, error)
}

// TradeStore persists closed-trade audit records.
type TradeStore interface {
	// Insert adds a closed trade. Returns ErrDuplicateKey if the trade
	// ID already exists.
	Insert(ctx context.Context, t *domain.ClosedTrade) error

	// GetAll retrieves all closed trades ordered by exit time ascending.
	GetAll(ctx context.Context) ([]*domain.ClosedTrade, error)
}
