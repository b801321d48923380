// Package git provides an abstraction over version-control operations.
package git

import (
	"context"
	"time"
)

// Gateway defines the version-control operations needed by scribe.
// Implementations operate on a single repository directory fixed at
// construction time.
type Gateway interface {
	// IsRepo reports whether the directory is inside a git work tree.
	IsRepo(ctx context.Context) bool
	// Status returns a point-in-time snapshot of the repository state.
	// It does not fail for directories outside version control; those
	// report IsRepo=false with empty lists and Clean=true.
	Status(ctx context.Context) (RepositoryStatus, error)
	// CreateBranch creates a branch (with the configured prefix applied)
	// and returns its full name. checkout selects whether the new branch
	// becomes current.
	CreateBranch(ctx context.Context, name string, checkout bool) (string, error)
	// Commit stages the given files (or whatever is already staged when
	// files is empty) and commits with the configured message prefix
	// applied. Returns the new commit hash.
	Commit(ctx context.Context, message string, files []string) (string, error)
	// RevertCommit produces the inverse of a commit in the working tree
	// without committing it, leaving review to the caller.
	RevertCommit(ctx context.Context, hash string) error
	// ResetFile restores a single file to its last committed state,
	// discarding local edits.
	ResetFile(ctx context.Context, path string) error
	// Stash sets aside uncommitted changes.
	Stash(ctx context.Context, message string) error
	// StashPop restores the most recently stashed changes.
	StashPop(ctx context.Context) error
	// Log returns commits newest-first.
	Log(ctx context.Context, opts LogOptions) ([]Commit, error)
	// FileDiff returns the working-tree diff for one file.
	FileDiff(ctx context.Context, path string) (string, error)
	// HasUncommittedChanges reports whether path appears in the staged,
	// unstaged, or untracked lists.
	HasUncommittedChanges(ctx context.Context, path string) (bool, error)
}

// RepositoryStatus is a read-only projection of repository state,
// recomputed on every call and never cached.
type RepositoryStatus struct {
	IsRepo    bool     `json:"is_repo"`
	Branch    string   `json:"branch,omitempty"`
	Clean     bool     `json:"clean"`
	Staged    []string `json:"staged,omitempty"`
	Unstaged  []string `json:"unstaged,omitempty"`
	Untracked []string `json:"untracked,omitempty"`
	Ahead     int      `json:"ahead"`
	Behind    int      `json:"behind"`
}

// Commit is one entry of repository history.
type Commit struct {
	Hash    string    `json:"hash"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// LogOptions controls Log queries.
type LogOptions struct {
	// MaxCount caps the number of commits returned. Zero means 20.
	MaxCount int
	// File filters history to commits touching one file.
	File string
}
