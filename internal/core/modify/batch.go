package modify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/colonyops/scribe/internal/core/history"
)

// ApplyBatch applies a set of independent suggestions against one file.
// Suggestions are visited in descending start-line order so edits lower
// in the file cannot shift the text earlier suggestions depend on. The
// accumulated content is validated exactly once; an invalid batch writes
// nothing and creates no backup. Results are returned in input order.
func (s *Service) ApplyBatch(ctx context.Context, filePath string, suggestions []Suggestion, opts BatchOptions) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyBatch(ctx, filePath, suggestions, opts)
}

func (s *Service) applyBatch(ctx context.Context, filePath string, suggestions []Suggestion, opts BatchOptions) []Result {
	results := make([]Result, len(suggestions))

	rel, err := s.files.Rel(filePath)
	if err != nil {
		return failAll(results, suggestions, filePath, codeFor(err, CodeIOError), err.Error())
	}

	content, err := s.files.Read(rel)
	if err != nil {
		return failAll(results, suggestions, rel, codeFor(err, CodeIOError), err.Error())
	}

	// Descending start line; ties keep input order.
	order := make([]int, len(suggestions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return suggestions[order[a]].StartLine > suggestions[order[b]].StartLine
	})

	accumulated := content
	var pending []int

	for _, idx := range order {
		sug := suggestions[idx]
		if !strings.Contains(accumulated, sug.Original) {
			results[idx] = failure(rel, CodeConflict,
				fmt.Sprintf("suggestion %s no longer applies; its target text was changed by an earlier edit in the batch", sug.ID))
			results[idx].SuggestionID = sug.ID
			continue
		}
		accumulated = strings.Replace(accumulated, sug.Original, sug.Replacement, 1)
		pending = append(pending, idx)
	}

	if len(pending) == 0 {
		return results
	}

	// Single validation gate for the whole batch. Failure is
	// all-or-nothing: no backup, no write.
	syntax := s.validator.CheckSyntax(accumulated)
	if !syntax.Valid {
		s.recordRejected(ctx, rel, fmt.Sprintf("batch of %d suggestions", len(suggestions)))
		validation := validationResult(syntax, safetyOrEmpty(s, content, accumulated))
		for _, idx := range pending {
			results[idx] = failure(rel, CodeValidationFailed, "combined batch content has syntax errors")
			results[idx].SuggestionID = suggestions[idx].ID
			results[idx].Validation = validation
		}
		return results
	}

	safety := safetyOrEmpty(s, content, accumulated)
	if len(safety.Issues) > 0 {
		s.recordRejected(ctx, rel, fmt.Sprintf("batch of %d suggestions", len(suggestions)))
		validation := validationResult(syntax, safety)
		for _, idx := range pending {
			results[idx] = failure(rel, CodeSafetyViolation, joinIssues(safety.Issues))
			results[idx].SuggestionID = suggestions[idx].ID
			results[idx].Validation = validation
		}
		return results
	}

	// One backup covers the whole batch.
	entry, err := s.backups.Create(rel, reasonOrDefault(opts.Reason, rel))
	if err != nil {
		return failPending(results, suggestions, pending, rel, codeFor(err, CodeIOError), fmt.Sprintf("create backup: %v", err))
	}

	backupID := ""
	if entry != nil {
		backupID = entry.ID
	}

	if err := s.files.Write(rel, accumulated); err != nil {
		if entry != nil {
			if restoreErr := s.backups.Restore(entry.ID); restoreErr != nil {
				s.log.Error().Err(restoreErr).Str("file", rel).Msg("failed to restore backup after batch write failure")
			}
		}
		return failPending(results, suggestions, pending, rel, codeFor(err, CodeIOError), fmt.Sprintf("write file: %v", err))
	}

	var warnings []string
	warnings = append(warnings, safety.Warnings...)

	commitHash := ""
	if s.shouldCommit(opts.CommitMessage) {
		msg := opts.CommitMessage
		if msg == "" {
			msg = fmt.Sprintf("apply %d suggestions to %s", len(pending), rel)
		}
		hash, err := s.git.Commit(ctx, msg, []string{rel})
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("commit failed: %v", err))
			s.log.Warn().Err(err).Str("file", rel).Msg("batch commit failed after successful write")
		} else {
			commitHash = hash
		}
	}

	hist := newHistoryEntry(rel, "batch",
		fmt.Sprintf("applied %d of %d suggestions", len(pending), len(suggestions)),
		history.StatusApplied, backupID, commitHash)
	historyID := hist.ID
	if err := s.history.Append(ctx, hist); err != nil {
		warnings = append(warnings, fmt.Sprintf("record history: %v", err))
		s.log.Warn().Err(err).Str("file", rel).Msg("failed to record batch history entry")
		historyID = ""
	}

	validation := validationResult(syntax, safety)
	for _, idx := range pending {
		results[idx] = Result{
			Success:      true,
			FilePath:     rel,
			BackupID:     backupID,
			CommitHash:   commitHash,
			HistoryID:    historyID,
			Validation:   validation,
			Warnings:     warnings,
			SuggestionID: suggestions[idx].ID,
		}
	}

	s.log.Info().
		Str("file", rel).
		Int("applied", len(pending)).
		Int("total", len(suggestions)).
		Str("backup_id", backupID).
		Msg("batch applied")

	return results
}

func failAll(results []Result, suggestions []Suggestion, filePath string, code Code, msg string) []Result {
	for i := range results {
		results[i] = failure(filePath, code, msg)
		results[i].SuggestionID = suggestions[i].ID
	}
	return results
}

func failPending(results []Result, suggestions []Suggestion, pending []int, filePath string, code Code, msg string) []Result {
	for _, idx := range pending {
		results[idx] = failure(filePath, code, msg)
		results[idx].SuggestionID = suggestions[idx].ID
	}
	return results
}
