// Package modify sequences file reads, validation, snapshots, writes, and
// version-control recording into safe single-edit and batch-edit protocols.
// It is the only place where irreversible side effects happen, and it
// guarantees that a failed or conflicting edit never corrupts the tree.
package modify

import (
	"github.com/colonyops/scribe/internal/core/validate"
)

// Request describes one proposed text replacement. OriginalText is
// compared as a literal, whitespace-sensitive substring of the current
// file content, never as a pattern.
type Request struct {
	FilePath        string `json:"file_path"`
	OriginalText    string `json:"original_text"`
	ReplacementText string `json:"replacement_text"`
	// Reason is a human-readable description recorded on the backup and
	// history entries.
	Reason string `json:"reason,omitempty"`
	// CommitMessage, when set, commits the change after a successful
	// write even if auto-commit is off.
	CommitMessage string `json:"commit_message,omitempty"`
	// CreateBranch creates (and checks out) a branch before writing.
	CreateBranch bool   `json:"create_branch,omitempty"`
	BranchName   string `json:"branch_name,omitempty"`
}

// Result is the immutable outcome of an apply. Exactly one of Success
// or Code/Error is meaningful.
type Result struct {
	Success    bool             `json:"success"`
	FilePath   string           `json:"file_path"`
	Code       Code             `json:"code,omitempty"`
	Error      string           `json:"error,omitempty"`
	BackupID   string           `json:"backup_id,omitempty"`
	CommitHash string           `json:"commit_hash,omitempty"`
	Branch     string           `json:"branch,omitempty"`
	HistoryID  string           `json:"history_id,omitempty"`
	Validation *validate.Result `json:"validation,omitempty"`
	// Warnings carry non-blocking conditions: safety heuristics,
	// ambiguous matches, commit failures after a successful write.
	Warnings []string `json:"warnings,omitempty"`
	// SuggestionID links a batch result back to its input suggestion.
	SuggestionID string `json:"suggestion_id,omitempty"`
}

// Suggestion is one independent replacement inside a batch against a
// single file.
type Suggestion struct {
	ID          string `json:"id"`
	StartLine   int    `json:"start_line"`
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
	Description string `json:"description,omitempty"`
}

// BatchOptions configures a batch apply.
type BatchOptions struct {
	Reason        string `json:"reason,omitempty"`
	CommitMessage string `json:"commit_message,omitempty"`
}

// PreviewResult is the outcome of a side-effect-free preview.
type PreviewResult struct {
	Success bool   `json:"success"`
	Preview string `json:"preview,omitempty"`
	// Diff is a human-readable rendering of the change.
	Diff  string `json:"diff,omitempty"`
	Code  Code   `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// OpResult is the outcome of revert and restore operations.
type OpResult struct {
	Success bool   `json:"success"`
	Code    Code   `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

func failure(filePath string, code Code, msg string) Result {
	return Result{FilePath: filePath, Code: code, Error: msg}
}
