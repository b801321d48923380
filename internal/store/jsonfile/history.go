// Package jsonfile implements stores persisted as JSON files on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/colonyops/scribe/internal/core/history"
)

// HistoryFile is the root JSON structure stored on disk.
type HistoryFile struct {
	Entries []history.Entry `json:"entries"`
}

// HistoryStore implements history.Store using a JSON file for persistence.
type HistoryStore struct {
	path string
	mu   sync.RWMutex
}

// NewHistoryStore creates a new JSON file history store at the given path.
func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{path: path}
}

// Append records a new entry.
func (s *HistoryStore) Append(ctx context.Context, entry history.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	file.Entries = append(file.Entries, entry)

	return s.save(file)
}

// Get returns an entry by ID. Returns ErrNotFound if not found.
func (s *HistoryStore) Get(ctx context.Context, id string) (history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return history.Entry{}, err
	}

	for _, entry := range file.Entries {
		if entry.ID == id {
			return entry, nil
		}
	}

	return history.Entry{}, fmt.Errorf("%w: %s", history.ErrNotFound, id)
}

// List returns entries newest-first, optionally filtered to one file path.
func (s *HistoryStore) List(ctx context.Context, filePath string) ([]history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]history.Entry, 0, len(file.Entries))
	for i := len(file.Entries) - 1; i >= 0; i-- {
		if filePath == "" || file.Entries[i].FilePath == filePath {
			out = append(out, file.Entries[i])
		}
	}

	return out, nil
}

// MarkReverted transitions an entry to StatusReverted. This is the only
// mutation permitted on a recorded entry.
func (s *HistoryStore) MarkReverted(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	for i := range file.Entries {
		if file.Entries[i].ID != id {
			continue
		}
		if file.Entries[i].Status == history.StatusReverted {
			return fmt.Errorf("%w: %s", history.ErrAlreadyReverted, id)
		}
		file.Entries[i].Status = history.StatusReverted
		return s.save(file)
	}

	return fmt.Errorf("%w: %s", history.ErrNotFound, id)
}

// load reads the history file from disk.
// Returns empty HistoryFile if file doesn't exist.
func (s *HistoryStore) load() (HistoryFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return HistoryFile{}, nil
		}
		return HistoryFile{}, err
	}

	if len(data) == 0 {
		return HistoryFile{}, nil
	}

	var file HistoryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return HistoryFile{}, err
	}

	return file, nil
}

// save writes the history file to disk atomically.
func (s *HistoryStore) save(file HistoryFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}
