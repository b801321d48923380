// Package history defines the modification history ledger: domain types
// and the store interface. Entries are append-only; a transition to
// StatusReverted is the only permitted mutation.
package history

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no entry exists for an id.
	ErrNotFound = errors.New("history entry not found")
	// ErrAlreadyReverted is returned when marking an entry reverted twice.
	ErrAlreadyReverted = errors.New("modification already reverted")
)

// Status is the lifecycle state of a recorded modification.
type Status string

// Permitted entry statuses.
const (
	StatusApplied  Status = "applied"
	StatusReverted Status = "reverted"
	StatusRejected Status = "rejected"
)

// Entry records one applied (or attempted) modification.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	FilePath    string    `json:"file_path"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	BackupID    string    `json:"backup_id,omitempty"`
	CommitHash  string    `json:"commit_hash,omitempty"`
}

// Reverted reports whether the entry has already been rolled back.
func (e *Entry) Reverted() bool {
	return e.Status == StatusReverted
}

// Store persists history entries.
type Store interface {
	// Append records a new entry.
	Append(ctx context.Context, entry Entry) error
	// Get returns an entry by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (Entry, error)
	// List returns entries newest-first, optionally filtered to one file.
	List(ctx context.Context, filePath string) ([]Entry, error)
	// MarkReverted transitions an entry to StatusReverted. Returns
	// ErrAlreadyReverted if the entry was reverted before.
	MarkReverted(ctx context.Context, id string) error
}
