package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// manifestFile is the root JSON structure stored on disk. Entries are
// ordered oldest-first; eviction pops from the front.
type manifestFile struct {
	Entries []Entry `json:"entries"`
}

// manifest is the durable index of backup entries. Every mutation is a
// load, modify, save cycle guarded by the mutex, so the file on disk is
// always the source of truth across process restarts.
type manifest struct {
	path string
	mu   sync.RWMutex
}

func newManifest(path string) *manifest {
	return &manifest{path: path}
}

// append adds an entry and enforces the retention limit, returning any
// evicted entries so the caller can delete their backup files.
func (m *manifest) append(entry Entry, max int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := m.load()
	if err != nil {
		return nil, err
	}

	file.Entries = append(file.Entries, entry)

	var evicted []Entry
	for max > 0 && len(file.Entries) > max {
		evicted = append(evicted, file.Entries[0])
		file.Entries = file.Entries[1:]
	}

	if err := m.save(file); err != nil {
		return nil, err
	}

	return evicted, nil
}

// get returns the entry with the given id. Returns ErrNotFound if absent.
func (m *manifest) get(id string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, err := m.load()
	if err != nil {
		return Entry{}, err
	}

	for _, entry := range file.Entries {
		if entry.ID == id {
			return entry, nil
		}
	}

	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// list returns all entries oldest-first.
func (m *manifest) list() ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, err := m.load()
	if err != nil {
		return nil, err
	}

	return file.Entries, nil
}

// remove deletes the entry with the given id and returns it.
func (m *manifest) remove(id string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := m.load()
	if err != nil {
		return Entry{}, err
	}

	for i, entry := range file.Entries {
		if entry.ID == id {
			file.Entries = append(file.Entries[:i], file.Entries[i+1:]...)
			if err := m.save(file); err != nil {
				return Entry{}, err
			}
			return entry, nil
		}
	}

	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// clear removes all entries.
func (m *manifest) clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.save(manifestFile{Entries: []Entry{}})
}

// load reads the manifest from disk. Returns an empty manifest if the
// file doesn't exist yet.
func (m *manifest) load() (manifestFile, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return manifestFile{}, nil
		}
		return manifestFile{}, fmt.Errorf("read manifest: %w", err)
	}

	if len(data) == 0 {
		return manifestFile{}, nil
	}

	var file manifestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return manifestFile{}, fmt.Errorf("parse manifest: %w", err)
	}

	return file, nil
}

// save writes the manifest to disk atomically.
func (m *manifest) save(file manifestFile) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, m.path)
}
