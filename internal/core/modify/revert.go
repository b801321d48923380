package modify

import (
	"context"
	"errors"
	"fmt"

	"github.com/colonyops/scribe/internal/core/backup"
	"github.com/colonyops/scribe/internal/core/history"
)

// Revert rolls back a recorded modification. Backups are the preferred
// recovery path; reverting the recorded commit is the fallback when no
// backup is usable. A successful revert marks the history entry
// reverted; a second revert of the same entry fails without mutation.
func (s *Service) Revert(ctx context.Context, id string) OpResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.history.Get(ctx, id)
	if err != nil {
		return OpResult{Code: codeFor(err, CodeIOError), Error: err.Error()}
	}

	if entry.Reverted() {
		return OpResult{
			Code:  CodeAlreadyReverted,
			Error: fmt.Sprintf("modification %s was already reverted", id),
		}
	}

	if err := s.recover(ctx, entry); err != nil {
		return OpResult{Code: CodeNoRecoveryPath, Error: err.Error()}
	}

	if err := s.history.MarkReverted(ctx, id); err != nil {
		return OpResult{Code: codeFor(err, CodeIOError), Error: err.Error()}
	}

	s.log.Info().Str("history_id", id).Str("file", entry.FilePath).Msg("modification reverted")
	return OpResult{Success: true}
}

// recover restores the entry's file, preferring the most recent backup
// for that file and falling back to reverting the recorded commit.
func (s *Service) recover(ctx context.Context, entry history.Entry) error {
	backupErr := s.restoreNewestBackup(entry)
	if backupErr == nil {
		return nil
	}

	if entry.CommitHash != "" && s.gitActive() {
		if err := s.git.RevertCommit(ctx, entry.CommitHash); err != nil {
			return fmt.Errorf("no usable backup (%v) and commit revert failed: %w", backupErr, err)
		}
		return nil
	}

	return fmt.Errorf("no recovery path for %s: %w", entry.FilePath, backupErr)
}

func (s *Service) restoreNewestBackup(entry history.Entry) error {
	candidate, err := s.backups.Latest(entry.FilePath)
	if err != nil {
		if errors.Is(err, backup.ErrNotFound) && entry.BackupID != "" {
			// The newest backup may have been evicted; the entry's own
			// reference is worth one more try.
			return s.backups.Restore(entry.BackupID)
		}
		return err
	}
	return s.backups.Restore(candidate.ID)
}
