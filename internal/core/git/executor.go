package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/colonyops/scribe/pkg/executil"
)

// Options configures naming conventions applied by the executor.
type Options struct {
	// BranchPrefix is prepended to branch names passed to CreateBranch.
	BranchPrefix string
	// CommitPrefix is prepended to commit messages passed to Commit.
	CommitPrefix string
}

// Executor implements Gateway using the git command-line tool.
type Executor struct {
	gitPath string
	dir     string
	opts    Options
	exec    executil.Executor
}

// NewExecutor creates a git executor bound to one repository directory.
func NewExecutor(gitPath, dir string, opts Options, exec executil.Executor) *Executor {
	return &Executor{gitPath: gitPath, dir: dir, opts: opts, exec: exec}
}

func (e *Executor) IsRepo(ctx context.Context) bool {
	out, err := e.exec.RunDir(ctx, e.dir, e.gitPath, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

func (e *Executor) Status(ctx context.Context) (RepositoryStatus, error) {
	if !e.IsRepo(ctx) {
		return RepositoryStatus{IsRepo: false, Clean: true}, nil
	}

	out, err := e.exec.RunDir(ctx, e.dir, e.gitPath, "status", "--porcelain=v1", "-b")
	if err != nil {
		return RepositoryStatus{}, fmt.Errorf("git status: %w", err)
	}

	status := parseStatus(string(out))
	status.IsRepo = true
	return status, nil
}

func (e *Executor) CreateBranch(ctx context.Context, name string, checkout bool) (string, error) {
	full := e.opts.BranchPrefix + name

	if checkout {
		if _, err := e.exec.RunDir(ctx, e.dir, e.gitPath, "checkout", "-b", full); err != nil {
			return "", fmt.Errorf("checkout -b %s: %w", full, err)
		}
		return full, nil
	}

	if _, err := e.exec.RunDir(ctx, e.dir, e.gitPath, "branch", full); err != nil {
		return "", fmt.Errorf("branch %s: %w", full, err)
	}
	return full, nil
}

func (e *Executor) Commit(ctx context.Context, message string, files []string) (string, error) {
	if len(files) > 0 {
		args := append([]string{"add", "--"}, files...)
		if _, err := e.exec.RunDir(ctx, e.dir, e.gitPath, args...); err != nil {
			return "", fmt.Errorf("stage files: %w", err)
		}
	}

	full := e.opts.CommitPrefix + message
	if _, err := e.exec.RunDir(ctx, e.dir, e.gitPath, "commit", "-m", full); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	out, err := e.exec.RunDir(ctx, e.dir, e.gitPath, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve commit hash: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (e *Executor) RevertCommit(ctx context.Context, hash string) error {
	if _, err := e.exec.RunDir(ctx, e.dir, e.gitPath, "revert", "--no-commit", hash); err != nil {
		return fmt.Errorf("revert %s: %w", hash, err)
	}
	return nil
}

func (e *Executor) ResetFile(ctx context.Context, path string) error {
	if _, err := e.exec.RunDir(ctx, e.dir, e.gitPath, "checkout", "--", path); err != nil {
		return fmt.Errorf("reset %s: %w", path, err)
	}
	return nil
}

func (e *Executor) Stash(ctx context.Context, message string) error {
	args := []string{"stash", "push"}
	if message != "" {
		args = append(args, "-m", message)
	}
	if _, err := e.exec.RunDir(ctx, e.dir, e.gitPath, args...); err != nil {
		return fmt.Errorf("stash: %w", err)
	}
	return nil
}

func (e *Executor) StashPop(ctx context.Context) error {
	if _, err := e.exec.RunDir(ctx, e.dir, e.gitPath, "stash", "pop"); err != nil {
		return fmt.Errorf("stash pop: %w", err)
	}
	return nil
}

// logFormat uses the unit separator so subjects containing any printable
// character parse unambiguously.
const logFormat = "%H%x1f%an%x1f%aI%x1f%s"

func (e *Executor) Log(ctx context.Context, opts LogOptions) ([]Commit, error) {
	maxCount := opts.MaxCount
	if maxCount <= 0 {
		maxCount = 20
	}

	args := []string{"log", fmt.Sprintf("--max-count=%d", maxCount), "--pretty=format:" + logFormat}
	if opts.File != "" {
		args = append(args, "--", opts.File)
	}

	out, err := e.exec.RunDir(ctx, e.dir, e.gitPath, args...)
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}

	return parseLog(string(out))
}

func (e *Executor) FileDiff(ctx context.Context, path string) (string, error) {
	out, err := e.exec.RunDir(ctx, e.dir, e.gitPath, "diff", "--", path)
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}
	return string(out), nil
}

func (e *Executor) HasUncommittedChanges(ctx context.Context, path string) (bool, error) {
	status, err := e.Status(ctx)
	if err != nil {
		return false, err
	}

	for _, list := range [][]string{status.Staged, status.Unstaged, status.Untracked} {
		for _, p := range list {
			if p == path {
				return true, nil
			}
		}
	}
	return false, nil
}
