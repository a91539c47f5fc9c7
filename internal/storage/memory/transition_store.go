// Package memory provides in-memory storage implementations for tests
// and replay runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"meme-sniper/internal/domain"
	"meme-sniper/internal/storage"
)

// TransitionStore is an in-memory implementation of storage.TransitionStore.
type TransitionStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.TransitionRecord // keyed by instrument
	keys map[string]struct{}                   // instrument|sequence|action dedup
}

// NewTransitionStore creates a new in-memory transition store.
func NewTransitionStore() *TransitionStore {
	return &TransitionStore{
		data: make(map[string][]*domain.TransitionRecord),
		keys: make(map[string]struct{}),
	}
}

// Append adds a transition record. Returns ErrDuplicateKey if
// (instrument, sequence, action) already exists.
func (s *TransitionStore) Append(_ context.Context, rec *domain.TransitionRecord) error {
	if rec == nil || rec.Instrument == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("%s|%d|%s", rec.Instrument, rec.Sequence, rec.Action)
	if _, exists := s.keys[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.keys[key] = struct{}{}

	cp := *rec
	s.data[rec.Instrument] = append(s.data[rec.Instrument], &cp)
	return nil
}

// GetByInstrument retrieves all records for an instrument, ordered by
// (sequence, action) ascending.
func (s *TransitionStore) GetByInstrument(_ context.Context, instrument string) ([]*domain.TransitionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.data[instrument]
	out := make([]*domain.TransitionRecord, len(records))
	for i, r := range records {
		cp := *r
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].Action < out[j].Action
	})
	return out, nil
}

// Ensure TransitionStore implements storage.TransitionStore
var _ storage.TransitionStore = (*TransitionStore)(nil)
