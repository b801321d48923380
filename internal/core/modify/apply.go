package modify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/scribe/internal/core/history"
	"github.com/colonyops/scribe/internal/core/validate"
)

// Apply runs the single-edit protocol: precondition, read, match,
// compute, validate, snapshot, branch, write, commit, record. Each gate
// may short-circuit to a failure result; Apply never panics or returns
// a Go error across the boundary.
func (s *Service) Apply(ctx context.Context, req Request) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ctx, req)
}

func (s *Service) apply(ctx context.Context, req Request) Result {
	rel, err := s.files.Rel(req.FilePath)
	if err != nil {
		return failure(req.FilePath, codeFor(err, CodeIOError), err.Error())
	}

	// Gate 1: precondition. Runs before any file read.
	if s.cfg.Git.RequireCleanWorkingDir && s.gitActive() {
		dirty, err := s.git.HasUncommittedChanges(ctx, rel)
		if err != nil {
			return failure(rel, CodeVCSError, fmt.Sprintf("check working tree: %v", err))
		}
		if dirty {
			return failure(rel, CodePreconditionFailed,
				fmt.Sprintf("%s has uncommitted changes; commit or stash them first", rel))
		}
	}

	// Gate 2: read.
	content, err := s.files.Read(rel)
	if err != nil {
		return failure(rel, codeFor(err, CodeIOError), err.Error())
	}

	// Gate 3: match. No backup is created when the original text is absent.
	if !strings.Contains(content, req.OriginalText) {
		return failure(rel, CodeNotFound,
			fmt.Sprintf("original text not found in %s; the file may have changed since the suggestion was produced", rel))
	}

	// Gate 4: compute. First literal occurrence only.
	candidate := strings.Replace(content, req.OriginalText, req.ReplacementText, 1)

	var warnings []string
	if n := strings.Count(content, req.OriginalText); n > 1 {
		warnings = append(warnings,
			fmt.Sprintf("original text occurs %d times in %s; replaced the first occurrence", n, rel))
	}

	// Gate 5: validate.
	syntax := s.validator.CheckSyntax(candidate)
	if !syntax.Valid {
		s.recordRejected(ctx, rel, describeRequest(req))
		result := failure(rel, CodeValidationFailed, "modified content has syntax errors")
		result.Validation = validationResult(syntax, safetyOrEmpty(s, content, candidate))
		return result
	}

	safety := safetyOrEmpty(s, content, candidate)
	if len(safety.Issues) > 0 {
		s.recordRejected(ctx, rel, describeRequest(req))
		result := failure(rel, CodeSafetyViolation, joinIssues(safety.Issues))
		result.Validation = validationResult(syntax, safety)
		return result
	}
	warnings = append(warnings, safety.Warnings...)

	// Gate 6: snapshot the pre-write content.
	entry, err := s.backups.Create(rel, reasonOrDefault(req.Reason, rel))
	if err != nil {
		return failure(rel, codeFor(err, CodeIOError), fmt.Sprintf("create backup: %v", err))
	}

	result := Result{
		FilePath:   rel,
		Validation: validationResult(syntax, safety),
	}
	if entry != nil {
		result.BackupID = entry.ID
	}

	// Gate 7: branch. On failure the backup entry stays in place, unused.
	if req.CreateBranch && s.gitActive() {
		name := req.BranchName
		if name == "" {
			name = fmt.Sprintf("%s-%d", strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel)), time.Now().Unix())
		}
		branch, err := s.git.CreateBranch(ctx, name, true)
		if err != nil {
			result.Code = CodeVCSError
			result.Error = fmt.Sprintf("create branch: %v", err)
			return result
		}
		result.Branch = branch
	}

	// Gate 8: write. A failed write restores the just-taken backup.
	if err := s.files.Write(rel, candidate); err != nil {
		if entry != nil {
			if restoreErr := s.backups.Restore(entry.ID); restoreErr != nil {
				s.log.Error().Err(restoreErr).Str("file", rel).Msg("failed to restore backup after write failure")
			}
		}
		result.Code = codeFor(err, CodeIOError)
		result.Error = fmt.Sprintf("write file: %v", err)
		return result
	}

	// Gate 9: commit. A commit failure does not roll back the write; it
	// is surfaced as a warning on an otherwise successful result.
	if s.shouldCommit(req.CommitMessage) {
		msg := req.CommitMessage
		if msg == "" {
			msg = reasonOrDefault(req.Reason, rel)
		}
		hash, err := s.git.Commit(ctx, msg, []string{rel})
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("commit failed: %v", err))
			s.log.Warn().Err(err).Str("file", rel).Msg("commit failed after successful write")
		} else {
			result.CommitHash = hash
		}
	}

	// Gate 10: record.
	hist := newHistoryEntry(rel, "modification", describeRequest(req), history.StatusApplied, result.BackupID, result.CommitHash)
	if err := s.history.Append(ctx, hist); err != nil {
		warnings = append(warnings, fmt.Sprintf("record history: %v", err))
		s.log.Warn().Err(err).Str("file", rel).Msg("failed to record history entry")
	} else {
		result.HistoryID = hist.ID
	}

	result.Success = true
	result.Warnings = warnings

	s.log.Info().
		Str("file", rel).
		Str("backup_id", result.BackupID).
		Str("commit", result.CommitHash).
		Msg("modification applied")

	return result
}

func (s *Service) shouldCommit(explicitMessage string) bool {
	return s.gitActive() && (s.cfg.Git.AutoCommit || explicitMessage != "")
}

func safetyOrEmpty(s *Service, original, modified string) validate.SafetyResult {
	if s.cfg.Validation.SkipSafety {
		return validate.SafetyResult{}
	}
	return s.validator.CheckSafety(original, modified)
}

func reasonOrDefault(reason, rel string) string {
	if reason != "" {
		return reason
	}
	return fmt.Sprintf("modify %s", rel)
}

func describeRequest(req Request) string {
	if req.Reason != "" {
		return req.Reason
	}
	return fmt.Sprintf("replace %d chars with %d chars", len(req.OriginalText), len(req.ReplacementText))
}

func newHistoryEntry(filePath, category, description string, status history.Status, backupID, commitHash string) history.Entry {
	return history.Entry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		FilePath:    filePath,
		Category:    category,
		Description: description,
		Status:      status,
		BackupID:    backupID,
		CommitHash:  commitHash,
	}
}
