package subscription

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store that keeps insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]Info
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Info)}
}

func (s *MemoryStore) Get(_ context.Context, accountID string) (Info, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.entries[accountID]
	return info, ok, nil
}

func (s *MemoryStore) Insert(_ context.Context, accountID string, info Info) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[accountID]; ok {
		return false, nil
	}
	s.entries[accountID] = info
	s.order = append(s.order, accountID)
	return true, nil
}

func (s *MemoryStore) Update(_ context.Context, accountID string, info Info) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[accountID]; !ok {
		return ErrNotEnrolled
	}
	s.entries[accountID] = info
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, accountID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[accountID]; !ok {
		return false, nil
	}
	delete(s.entries, accountID)
	for i, id := range s.order {
		if id == accountID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *MemoryStore) List(_ context.Context, offset int, limit *int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset >= len(s.order) {
		return []Entry{}, nil
	}
	end := len(s.order)
	if limit != nil && offset+*limit < end {
		end = offset + *limit
	}

	out := make([]Entry, 0, end-offset)
	for _, id := range s.order[offset:end] {
		out = append(out, Entry{AccountID: id, Info: s.entries[id]})
	}
	return out, nil
}
