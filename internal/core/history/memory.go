package history

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store. It backs projects that opt out of
// persistent history and keeps orchestrator tests free of disk state.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *MemoryStore) List(ctx context.Context, filePath string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		if filePath == "" || s.entries[i].FilePath == filePath {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkReverted(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID != id {
			continue
		}
		if s.entries[i].Status == StatusReverted {
			return fmt.Errorf("%w: %s", ErrAlreadyReverted, id)
		}
		s.entries[i].Status = StatusReverted
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
