// Package backup maintains a content-addressed snapshot ledger for files
// about to be modified. Snapshots live in a backup directory alongside a
// persisted manifest, bounded by a FIFO eviction policy.
package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/scribe/internal/core/files"
)

var (
	// ErrNotFound is returned when no backup entry exists for an id.
	ErrNotFound = errors.New("backup not found")
	// ErrNoContent is returned when neither the backup file nor the
	// cached content is available for restoration.
	ErrNoContent = errors.New("backup content unavailable")
)

// Entry is an immutable snapshot of a file taken before a modification.
type Entry struct {
	ID         string    `json:"id"`
	FilePath   string    `json:"file_path"`
	BackupPath string    `json:"backup_path"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	Reason     string    `json:"reason"`
}

// Store manages backup files and their manifest.
type Store struct {
	dir     string
	max     int
	enabled bool
	files   *files.Store
	log     zerolog.Logger

	manifest *manifest
}

// NewStore creates a backup store writing to dir, retaining at most max
// entries. When enabled is false, Create is a no-op returning no entry.
func NewStore(dir string, max int, enabled bool, fs *files.Store, log zerolog.Logger) *Store {
	return &Store{
		dir:      dir,
		max:      max,
		enabled:  enabled,
		files:    fs,
		log:      log,
		manifest: newManifest(filepath.Join(dir, "manifest.json")),
	}
}

// Enabled reports whether backup creation is active.
func (s *Store) Enabled() bool {
	return s.enabled
}

// Create snapshots the current content of path. Returns (nil, nil) when
// the store is disabled; callers must tolerate a missing entry.
func (s *Store) Create(path, reason string) (*Entry, error) {
	if !s.enabled {
		return nil, nil
	}

	content, err := s.files.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read source for backup: %w", err)
	}

	rel, err := s.files.Rel(path)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entry := Entry{
		ID:        uuid.NewString(),
		FilePath:  rel,
		Content:   content,
		CreatedAt: now,
		Reason:    reason,
	}
	name := fmt.Sprintf("%d-%s-%s", now.UnixMilli(), entry.ID, filepath.Base(rel))
	entry.BackupPath = filepath.Join(s.dir, name)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	if err := os.WriteFile(entry.BackupPath, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write backup file: %w", err)
	}

	evicted, err := s.manifest.append(entry, s.max)
	if err != nil {
		return nil, fmt.Errorf("persist manifest: %w", err)
	}

	for _, old := range evicted {
		if err := os.Remove(old.BackupPath); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("backup_id", old.ID).Msg("failed to delete evicted backup file")
		}
	}

	s.log.Debug().Str("backup_id", entry.ID).Str("file", rel).Msg("backup created")
	return &entry, nil
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (Entry, error) {
	return s.manifest.get(id)
}

// List returns entries newest-first, optionally filtered to one file path.
func (s *Store) List(filePath string) ([]Entry, error) {
	rel := filePath
	if rel != "" {
		var err error
		rel, err = s.files.Rel(filePath)
		if err != nil {
			return nil, err
		}
	}

	entries, err := s.manifest.list()
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if rel == "" || entries[i].FilePath == rel {
			out = append(out, entries[i])
		}
	}
	return out, nil
}

// Latest returns the most recent entry for a file path.
func (s *Store) Latest(filePath string) (Entry, error) {
	entries, err := s.List(filePath)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return entries[0], nil
}

// Restore writes a backup's content back to its original target path.
// The on-disk backup file is preferred; the manifest's cached content is
// the fallback when the file has been deleted out from under us.
func (s *Store) Restore(id string) error {
	entry, err := s.manifest.get(id)
	if err != nil {
		return err
	}

	content, err := s.entryContent(entry)
	if err != nil {
		return err
	}

	if err := s.files.Write(entry.FilePath, content); err != nil {
		return fmt.Errorf("restore %s: %w", entry.FilePath, err)
	}

	s.log.Info().Str("backup_id", id).Str("file", entry.FilePath).Msg("backup restored")
	return nil
}

func (s *Store) entryContent(entry Entry) (string, error) {
	data, err := os.ReadFile(entry.BackupPath)
	if err == nil {
		return string(data), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("read backup file: %w", err)
	}
	if entry.Content != "" {
		return entry.Content, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoContent, entry.ID)
}

// Remove deletes one entry and its backup file.
func (s *Store) Remove(id string) error {
	entry, err := s.manifest.remove(id)
	if err != nil {
		return err
	}
	if err := os.Remove(entry.BackupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete backup file: %w", err)
	}
	return nil
}

// Prune deletes all entries and their backup files, returning the count removed.
func (s *Store) Prune() (int, error) {
	entries, err := s.manifest.list()
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if err := os.Remove(entry.BackupPath); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("backup_id", entry.ID).Msg("failed to delete backup file")
		}
	}
	if err := s.manifest.clear(); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Report describes manifest/disk inconsistencies found by Verify.
type Report struct {
	// Unrecoverable lists entry ids whose backup file is missing and
	// which carry no cached content.
	Unrecoverable []string `json:"unrecoverable"`
	// Orphans lists backup-directory files not referenced by the manifest.
	Orphans []string `json:"orphans"`
}

// Clean reports whether the manifest and backup directory are consistent.
func (r Report) Clean() bool {
	return len(r.Unrecoverable) == 0 && len(r.Orphans) == 0
}

// Verify cross-checks the manifest against the backup directory.
func (s *Store) Verify() (Report, error) {
	entries, err := s.manifest.list()
	if err != nil {
		return Report{}, err
	}

	var report Report
	referenced := make(map[string]bool, len(entries))

	for _, entry := range entries {
		referenced[filepath.Base(entry.BackupPath)] = true
		if _, err := os.Stat(entry.BackupPath); os.IsNotExist(err) && entry.Content == "" {
			report.Unrecoverable = append(report.Unrecoverable, entry.ID)
		}
	}

	items, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return Report{}, fmt.Errorf("read backup dir: %w", err)
	}
	for _, item := range items {
		if item.IsDir() || item.Name() == "manifest.json" {
			continue
		}
		if !referenced[item.Name()] {
			report.Orphans = append(report.Orphans, item.Name())
		}
	}

	return report, nil
}
