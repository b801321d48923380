package modify

import (
	"errors"

	"github.com/colonyops/scribe/internal/core/backup"
	"github.com/colonyops/scribe/internal/core/files"
	"github.com/colonyops/scribe/internal/core/history"
)

// Code discriminates failure modes across all orchestrator entry points.
// Lower layers report native errors; the orchestrator converts them into
// exactly one of these.
type Code string

// Failure codes.
const (
	CodeOutsideProject     Code = "outside_project"
	CodeNotFound           Code = "not_found"
	CodePreconditionFailed Code = "precondition_failed"
	CodeValidationFailed   Code = "validation_failed"
	CodeSafetyViolation    Code = "safety_violation"
	CodeIOError            Code = "io_error"
	CodeVCSError           Code = "vcs_error"
	CodeConflict           Code = "conflict"
	CodeAlreadyReverted    Code = "already_reverted"
	CodeNoRecoveryPath     Code = "no_recovery_path"
)

// codeFor maps native errors from lower layers onto the taxonomy.
func codeFor(err error, fallback Code) Code {
	switch {
	case errors.Is(err, files.ErrOutsideProject):
		return CodeOutsideProject
	case errors.Is(err, files.ErrNotFound),
		errors.Is(err, backup.ErrNotFound),
		errors.Is(err, history.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, files.ErrProtectedPath):
		return CodeIOError
	case errors.Is(err, history.ErrAlreadyReverted):
		return CodeAlreadyReverted
	case errors.Is(err, backup.ErrNoContent):
		return CodeNoRecoveryPath
	default:
		return fallback
	}
}
