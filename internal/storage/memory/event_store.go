package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"meme-sniper/internal/domain"
	"meme-sniper/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.MarketEvent // keyed by instrument
	keys map[string]struct{}              // instrument|sequence dedup
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make(map[string][]*domain.MarketEvent),
		keys: make(map[string]struct{}),
	}
}

// Append adds an event. Returns ErrDuplicateKey if
// (instrument, sequence) already exists.
func (s *EventStore) Append(_ context.Context, ev *domain.MarketEvent) error {
	if ev == nil || ev.Instrument == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(ev)
}

// AppendBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *EventStore) AppendBulk(_ context.Context, events []*domain.MarketEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		if ev == nil || ev.Instrument == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.keys[eventKey(ev)]; exists {
			return storage.ErrDuplicateKey
		}
	}
	for _, ev := range events {
		if err := s.appendLocked(ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *EventStore) appendLocked(ev *domain.MarketEvent) error {
	key := eventKey(ev)
	if _, exists := s.keys[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.keys[key] = struct{}{}

	cp := *ev
	s.data[ev.Instrument] = append(s.data[ev.Instrument], &cp)
	return nil
}

func eventKey(ev *domain.MarketEvent) string {
	return fmt.Sprintf("%s|%d", ev.Instrument, ev.Sequence)
}

// GetByInstrument retrieves all events for an instrument, ordered by
// (timestamp, sequence) ascending.
func (s *EventStore) GetByInstrument(_ context.Context, instrument string) ([]*domain.MarketEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.data[instrument]
	out := make([]*domain.MarketEvent, len(events))
	for i, ev := range events {
		cp := *ev
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

// Ensure EventStore implements storage.EventStore
var _ storage.EventStore = (*EventStore)(nil)
