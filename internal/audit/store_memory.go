package audit

import (
	"context"
	"sync"

	id "patrimonio/pkg/domain"
)

// InMemoryStore keeps the trail in process memory for tests and single-node
// development.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByReport(_ context.Context, reportID id.ReportID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.ReportID == reportID {
			out = append(out, e)
		}
	}
	return out, nil
}
