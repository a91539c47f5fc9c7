package memory

import (
	"context"
	"sort"
	"sync"

	"meme-sniper/internal/domain"
	"meme-sniper/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ClosedTrade // keyed by trade_id
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.ClosedTrade),
	}
}

// Insert adds a closed trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.ClosedTrade) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *t
	s.data[t.TradeID] = &cp
	return nil
}

// GetAll retrieves all closed trades ordered by exit time ascending,
// trade ID as tie-breaker for determinism.
func (s *TradeStore) GetAll(_ context.Context) ([]*domain.ClosedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ClosedTrade, 0, len(s.data))
	for _, t := range s.data {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExitTime != out[j].ExitTime {
			return out[i].ExitTime < out[j].ExitTime
		}
		return out[i].TradeID < out[j].TradeID
	})
	return out, nil
}

// Ensure TradeStore implements storage.TradeStore
var _ storage.TradeStore = (*TradeStore)(nil)
