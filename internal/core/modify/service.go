package modify

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/scribe/internal/core/backup"
	"github.com/colonyops/scribe/internal/core/config"
	"github.com/colonyops/scribe/internal/core/files"
	"github.com/colonyops/scribe/internal/core/git"
	"github.com/colonyops/scribe/internal/core/history"
	"github.com/colonyops/scribe/internal/core/validate"
)

// Service orchestrates modifications for one project. Construct one
// Service per project root; a mutex serializes apply, batch, and revert
// requests so manifest updates and file writes never interleave.
type Service struct {
	mu        sync.Mutex
	files     *files.Store
	backups   *backup.Store
	git       git.Gateway // nil when version-control integration is disabled
	validator validate.Validator
	history   history.Store
	cfg       *config.Config
	log       zerolog.Logger
}

// NewService wires the orchestrator. gateway may be nil to disable all
// version-control behavior.
func NewService(
	fs *files.Store,
	backups *backup.Store,
	gateway git.Gateway,
	validator validate.Validator,
	hist history.Store,
	cfg *config.Config,
	log zerolog.Logger,
) *Service {
	return &Service{
		files:     fs,
		backups:   backups,
		git:       gateway,
		validator: validator,
		history:   hist,
		cfg:       cfg,
		log:       log,
	}
}

func (s *Service) gitActive() bool {
	return s.git != nil && s.cfg.GitEnabled()
}

// History returns recorded modifications newest-first, optionally
// filtered to one file.
func (s *Service) History(ctx context.Context, filePath string) ([]history.Entry, error) {
	rel := filePath
	if rel != "" {
		var err error
		rel, err = s.files.Rel(filePath)
		if err != nil {
			return nil, err
		}
	}
	return s.history.List(ctx, rel)
}

// Backups returns backup entries newest-first, optionally filtered to
// one file.
func (s *Service) Backups(filePath string) ([]backup.Entry, error) {
	return s.backups.List(filePath)
}

// RestoreBackup writes a backup's content back over its original target.
func (s *Service) RestoreBackup(id string) OpResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backups.Restore(id); err != nil {
		return OpResult{Code: codeFor(err, CodeIOError), Error: err.Error()}
	}
	return OpResult{Success: true}
}

// Status returns the current repository status projection.
func (s *Service) Status(ctx context.Context) (git.RepositoryStatus, error) {
	if !s.gitActive() {
		return git.RepositoryStatus{IsRepo: false, Clean: true}, nil
	}
	return s.git.Status(ctx)
}

// validationResult merges syntax and safety outcomes for embedding.
func validationResult(syntax validate.SyntaxResult, safety validate.SafetyResult) *validate.Result {
	return &validate.Result{
		Valid:    syntax.Valid,
		Errors:   syntax.Errors,
		Warnings: safety.Warnings,
	}
}

// recordRejected appends a rejected history entry for a failed attempt.
// Rejections are part of the audit trail even though nothing was written.
func (s *Service) recordRejected(ctx context.Context, filePath, description string) {
	entry := newHistoryEntry(filePath, "modification", description, history.StatusRejected, "", "")
	if err := s.history.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("file", filePath).Msg("failed to record rejected modification")
	}
}

func joinIssues(issues []string) string {
	return strings.Join(issues, "; ")
}
