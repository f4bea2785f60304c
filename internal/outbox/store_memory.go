package outbox

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps events in insertion order.
type InMemoryStore struct {
	mu     sync.Mutex
	events []Event
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// ProcessBatch hands up to limit unpublished events to fn and marks them
// published when fn succeeds. The store lock is held throughout, so
// concurrent callers never see the same batch.
func (s *InMemoryStore) ProcessBatch(ctx context.Context, limit int, now time.Time, fn func(ctx context.Context, events []Event) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var idx []int
	for i := range s.events {
		if s.events[i].PublishedAt == nil {
			idx = append(idx, i)
			if len(idx) == limit {
				break
			}
		}
	}
	if len(idx) == 0 {
		return 0, nil
	}

	batch := make([]Event, len(idx))
	for i, j := range idx {
		batch[i] = s.events[j]
	}
	if err := fn(ctx, batch); err != nil {
		return 0, err
	}
	for _, j := range idx {
		published := now
		s.events[j].PublishedAt = &published
	}
	return len(idx), nil
}

// Events returns a copy of every stored event.
func (s *InMemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}
