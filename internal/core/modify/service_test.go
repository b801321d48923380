package modify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/scribe/internal/core/backup"
	"github.com/colonyops/scribe/internal/core/config"
	"github.com/colonyops/scribe/internal/core/files"
	"github.com/colonyops/scribe/internal/core/git"
	"github.com/colonyops/scribe/internal/core/history"
	"github.com/colonyops/scribe/internal/core/validate"
)

// fakeGateway is an in-memory git.Gateway for orchestrator tests.
type fakeGateway struct {
	dirty     map[string]bool
	commitErr error
	branchErr error

	commitCount int
	committed   [][]string
	branches    []string
	reverted    []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{dirty: make(map[string]bool)}
}

func (g *fakeGateway) IsRepo(ctx context.Context) bool { return true }

func (g *fakeGateway) Status(ctx context.Context) (git.RepositoryStatus, error) {
	status := git.RepositoryStatus{IsRepo: true, Branch: "main", Clean: len(g.dirty) == 0}
	for path := range g.dirty {
		status.Unstaged = append(status.Unstaged, path)
	}
	return status, nil
}

func (g *fakeGateway) CreateBranch(ctx context.Context, name string, checkout bool) (string, error) {
	if g.branchErr != nil {
		return "", g.branchErr
	}
	full := "scribe/" + name
	g.branches = append(g.branches, full)
	return full, nil
}

func (g *fakeGateway) Commit(ctx context.Context, message string, paths []string) (string, error) {
	if g.commitErr != nil {
		return "", g.commitErr
	}
	g.commitCount++
	g.committed = append(g.committed, paths)
	return fmt.Sprintf("hash%d", g.commitCount), nil
}

func (g *fakeGateway) RevertCommit(ctx context.Context, hash string) error {
	g.reverted = append(g.reverted, hash)
	return nil
}

func (g *fakeGateway) ResetFile(ctx context.Context, path string) error { return nil }
func (g *fakeGateway) Stash(ctx context.Context, message string) error  { return nil }
func (g *fakeGateway) StashPop(ctx context.Context) error               { return nil }

func (g *fakeGateway) Log(ctx context.Context, opts git.LogOptions) ([]git.Commit, error) {
	return nil, nil
}

func (g *fakeGateway) FileDiff(ctx context.Context, path string) (string, error) { return "", nil }

func (g *fakeGateway) HasUncommittedChanges(ctx context.Context, path string) (bool, error) {
	return g.dirty[path], nil
}

type testEnv struct {
	svc     *Service
	fs      *files.Store
	backups *backup.Store
	hist    history.Store
	gw      *fakeGateway
	cfg     *config.Config
}

func newEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.ProjectRoot = t.TempDir()
	cfg.Git.AutoCommit = true
	if mutate != nil {
		mutate(&cfg)
	}

	fs, err := files.NewStore(cfg.ProjectRoot, cfg.ProtectedPaths)
	require.NoError(t, err)

	backups := backup.NewStore(cfg.BackupDir(), cfg.Backup.MaxBackups, cfg.BackupsEnabled(), fs, zerolog.Nop())
	hist := history.NewMemoryStore()
	gw := newFakeGateway()

	svc := NewService(fs, backups, gw, validate.NewHeuristic(), hist, &cfg, zerolog.Nop())

	return &testEnv{svc: svc, fs: fs, backups: backups, hist: hist, gw: gw, cfg: &cfg}
}

func boolPtr(b bool) *bool { return &b }

const sampleJS = "function add(a, b) {\n  return a + b;\n}\n"

func TestApply_Success(t *testing.T) {
	env := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))

	result := env.svc.Apply(ctx, Request{
		FilePath:        "src/app.js",
		OriginalText:    "return a + b;",
		ReplacementText: "return a + b; // reviewed",
		Reason:          "add review marker",
	})

	require.True(t, result.Success, "error: %s", result.Error)
	assert.NotEmpty(t, result.BackupID)
	assert.NotEmpty(t, result.HistoryID)
	assert.Equal(t, "hash1", result.CommitHash)
	assert.Empty(t, result.Warnings)

	got, err := env.fs.Read("src/app.js")
	require.NoError(t, err)
	assert.Contains(t, got, "// reviewed")

	// The backup holds the pre-write content.
	entry, err := env.backups.Get(result.BackupID)
	require.NoError(t, err)
	assert.Equal(t, sampleJS, entry.Content)

	// One applied history entry referencing backup and commit.
	entries, err := env.hist.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.StatusApplied, entries[0].Status)
	assert.Equal(t, result.BackupID, entries[0].BackupID)
	assert.Equal(t, "hash1", entries[0].CommitHash)
}

func TestApply_OriginalTextNotFound(t *testing.T) {
	env := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))

	result := env.svc.Apply(ctx, Request{
		FilePath:        "src/app.js",
		OriginalText:    "this text is not in the file",
		ReplacementText: "x",
	})

	require.False(t, result.Success)
	assert.Equal(t, CodeNotFound, result.Code)

	// No backup is taken for a failed match.
	backups, err := env.backups.List("")
	require.NoError(t, err)
	assert.Empty(t, backups)

	got, err := env.fs.Read("src/app.js")
	require.NoError(t, err)
	assert.Equal(t, sampleJS, got)
}

func TestApply_MissingFile(t *testing.T) {
	env := newEnv(t, nil)

	result := env.svc.Apply(context.Background(), Request{
		FilePath:        "src/nope.js",
		OriginalText:    "a",
		ReplacementText: "b",
	})

	require.False(t, result.Success)
	assert.Equal(t, CodeNotFound, result.Code)
}

func TestApply_OutsideProject(t *testing.T) {
	env := newEnv(t, nil)

	result := env.svc.Apply(context.Background(), Request{
		FilePath:        "../escape.js",
		OriginalText:    "a",
		ReplacementText: "b",
	})

	require.False(t, result.Success)
	assert.Equal(t, CodeOutsideProject, result.Code)
}

func TestApply_AmbiguousMatchWarns(t *testing.T) {
	env := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.fs.Write("src/app.js", "let x = 1;\nlet x = 1;\n"))

	result := env.svc.Apply(ctx, Request{
		FilePath:        "src/app.js",
		OriginalText:    "let x = 1;",
		ReplacementText: "let y = 2;",
	})

	require.True(t, result.Success)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "occurs 2 times")

	got, err := env.fs.Read("src/app.js")
	require.NoError(t, err)
	assert.Equal(t, "let y = 2;\nlet x = 1;\n", got)
}

func TestApply_SyntaxValidationFailure(t *testing.T) {
	env := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))

	result := env.svc.Apply(ctx, Request{
		FilePath:        "src/app.js",
		OriginalText:    "return a + b;",
		ReplacementText: "return a + b; {",
	})

	require.False(t, result.Success)
	assert.Equal(t, CodeValidationFailed, result.Code)
	require.NotNil(t, result.Validation)
	assert.False(t, result.Validation.Valid)
	assert.NotEmpty(t, result.Validation.Errors)

	// File untouched, no backup, rejection recorded.
	got, err := env.fs.Read("src/app.js")
	require.NoError(t, err)
	assert.Equal(t, sampleJS, got)

	backups, err := env.backups.List("")
	require.NoError(t, err)
	assert.Empty(t, backups)

	entries, err := env.hist.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.StatusRejected, entries[0].Status)
}

func TestApply_SafetyViolation(t *testing.T) {
	env := newEnv(t, nil)
	ctx := context.Background()
	content := "export function parse(input) {\n  return input;\n}\n"
	require.NoError(t, env.fs.Write("src/parse.js", content))

	result := env.svc.Apply(ctx, Request{
		FilePath:        "src/parse.js",
		OriginalText:    "export function parse(input) {\n  return input;\n}",
		ReplacementText: "// removed",
	})

	require.False(t, result.Success)
	assert.Equal(t, CodeSafetyViolation, result.Code)
	assert.Contains(t, result.Error, `"parse"`)

	got, err := env.fs.Read("src/parse.js")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestApply_SkipSafety(t *testing.T) {
	env := newEnv(t, func(cfg *config.Config) {
		cfg.Validation.SkipSafety = true
	})
	require.NoError(t, env.fs.Write("src/parse.js", "export function parse(input) {\n  return input;\n}\n"))

	result := env.svc.Apply(context.Background(), Request{
		FilePath:        "src/parse.js",
		OriginalText:    "export function parse(input) {\n  return input;\n}",
		ReplacementText: "// removed",
	})

	assert.True(t, result.Success, "error: %s", result.Error)
}

func TestApply_PreconditionDirtyFile(t *testing.T) {
	env := newEnv(t, func(cfg *config.Config) {
		cfg.Git.RequireCleanWorkingDir = true
	})
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))
	env.gw.dirty["src/app.js"] = true

	result := env.svc.Apply(context.Background(), Request{
		FilePath:        "src/app.js",
		OriginalText:    "return a + b;",
		ReplacementText: "return a + b + c;",
	})

	require.False(t, result.Success)
	assert.Equal(t, CodePreconditionFailed, result.Code)
	assert.Zero(t, env.gw.commitCount)
}

func TestApply_CommitFailureIsWarning(t *testing.T) {
	env := newEnv(t, nil)
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))
	env.gw.commitErr = errors.New("index locked")

	result := env.svc.Apply(context.Background(), Request{
		FilePath:        "src/app.js",
		OriginalText:    "return a + b;",
		ReplacementText: "return b + a;",
	})

	// The write stands; the failed commit is reported, not rolled back.
	require.True(t, result.Success)
	assert.Empty(t, result.CommitHash)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "commit failed")

	got, err := env.fs.Read("src/app.js")
	require.NoError(t, err)
	assert.Contains(t, got, "return b + a;")
}

func TestApply_NoCommitWithoutAutoCommitOrMessage(t *testing.T) {
	env := newEnv(t, func(cfg *config.Config) {
		cfg.Git.AutoCommit = false
	})
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))

	result := env.svc.Apply(context.Background(), Request{
		FilePath:        "src/app.js",
		OriginalText:    "return a + b;",
		ReplacementText: "return b + a;",
	})
	require.True(t, result.Success)
	assert.Empty(t, result.CommitHash)

	// An explicit message opts in per request.
	result = env.svc.Apply(context.Background(), Request{
		FilePath:        "src/app.js",
		OriginalText:    "return b + a;",
		ReplacementText: "return a + b;",
		CommitMessage:   "swap back",
	})
	require.True(t, result.Success)
	assert.Equal(t, "hash1", result.CommitHash)
}

func TestApply_CreateBranch(t *testing.T) {
	env := newEnv(t, nil)
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))

	result := env.svc.Apply(context.Background(), Request{
		FilePath:        "src/app.js",
		OriginalText:    "return a + b;",
		ReplacementText: "return b + a;",
		CreateBranch:    true,
		BranchName:      "swap-args",
	})

	require.True(t, result.Success)
	assert.Equal(t, "scribe/swap-args", result.Branch)
	assert.Equal(t, []string{"scribe/swap-args"}, env.gw.branches)
}

func TestApply_BranchFailureLeavesFileUntouched(t *testing.T) {
	env := newEnv(t, nil)
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))
	env.gw.branchErr = errors.New("branch exists")

	result := env.svc.Apply(context.Background(), Request{
		FilePath:        "src/app.js",
		OriginalText:    "return a + b;",
		ReplacementText: "return b + a;",
		CreateBranch:    true,
	})

	require.False(t, result.Success)
	assert.Equal(t, CodeVCSError, result.Code)
	// The snapshot taken before the branch attempt stays in place.
	assert.NotEmpty(t, result.BackupID)

	got, err := env.fs.Read("src/app.js")
	require.NoError(t, err)
	assert.Equal(t, sampleJS, got)
}

func TestApply_GitDisabled(t *testing.T) {
	env := newEnv(t, func(cfg *config.Config) {
		cfg.Git.Enabled = boolPtr(false)
	})
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))

	result := env.svc.Apply(context.Background(), Request{
		FilePath:        "src/app.js",
		OriginalText:    "return a + b;",
		ReplacementText: "return b + a;",
		CreateBranch:    true,
		CommitMessage:   "ignored",
	})

	require.True(t, result.Success)
	assert.Empty(t, result.CommitHash)
	assert.Empty(t, result.Branch)
	assert.Zero(t, env.gw.commitCount)
}

func TestApply_BackupsDisabled(t *testing.T) {
	env := newEnv(t, func(cfg *config.Config) {
		cfg.Backup.Enabled = boolPtr(false)
	})
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))

	result := env.svc.Apply(context.Background(), Request{
		FilePath:        "src/app.js",
		OriginalText:    "return a + b;",
		ReplacementText: "return b + a;",
	})

	require.True(t, result.Success)
	assert.Empty(t, result.BackupID)
}

func TestApplyBatch_DescendingOrderAndInputOrderResults(t *testing.T) {
	env := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.fs.Write("src/app.js", "line1\nline2\nline3\nline4\nline5\n"))

	suggestions := []Suggestion{
		{ID: "s1", StartLine: 1, Original: "line1", Replacement: "ONE"},
		{ID: "s2", StartLine: 5, Original: "line5", Replacement: "FIVE"},
		{ID: "s3", StartLine: 3, Original: "line3", Replacement: "THREE"},
	}

	results := env.svc.ApplyBatch(ctx, "src/app.js", suggestions, BatchOptions{})
	require.Len(t, results, 3)

	// Results line up with the input, not the application order.
	assert.Equal(t, "s1", results[0].SuggestionID)
	assert.Equal(t, "s2", results[1].SuggestionID)
	assert.Equal(t, "s3", results[2].SuggestionID)
	for _, r := range results {
		assert.True(t, r.Success, "suggestion %s: %s", r.SuggestionID, r.Error)
	}

	got, err := env.fs.Read("src/app.js")
	require.NoError(t, err)
	assert.Equal(t, "ONE\nline2\nTHREE\nline4\nFIVE\n", got)

	// One backup, one commit, one history entry for the whole batch.
	backups, err := env.backups.List("")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, 1, env.gw.commitCount)

	entries, err := env.hist.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "batch", entries[0].Category)

	// All successes share the batch-level identifiers.
	assert.Equal(t, backups[0].ID, results[0].BackupID)
	assert.Equal(t, results[0].BackupID, results[1].BackupID)
	assert.Equal(t, results[0].CommitHash, results[2].CommitHash)
	assert.Equal(t, results[0].HistoryID, results[2].HistoryID)
}

func TestApplyBatch_ConflictingSuggestion(t *testing.T) {
	env := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.fs.Write("src/app.js", "line1\nline2\nline3\nline4\nline5\n"))

	suggestions := []Suggestion{
		{ID: "s1", StartLine: 3, Original: "line3\nline4", Replacement: "MERGED"},
		{ID: "s2", StartLine: 4, Original: "line4", Replacement: "FOUR"},
	}

	results := env.svc.ApplyBatch(ctx, "src/app.js", suggestions, BatchOptions{})
	require.Len(t, results, 2)

	// s2 applies first (higher start line) and consumes line4; s1's
	// target no longer exists.
	assert.False(t, results[0].Success)
	assert.Equal(t, CodeConflict, results[0].Code)
	assert.Equal(t, "s1", results[0].SuggestionID)
	assert.True(t, results[1].Success)

	got, err := env.fs.Read("src/app.js")
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2\nline3\nFOUR\nline5\n", got)
}

func TestApplyBatch_ValidationFailureWritesNothing(t *testing.T) {
	env := newEnv(t, nil)
	ctx := context.Background()
	content := "line1\nline2\n"
	require.NoError(t, env.fs.Write("src/app.js", content))

	suggestions := []Suggestion{
		{ID: "s1", StartLine: 1, Original: "line1", Replacement: "ok"},
		{ID: "s2", StartLine: 2, Original: "line2", Replacement: "broken {"},
	}

	results := env.svc.ApplyBatch(ctx, "src/app.js", suggestions, BatchOptions{})
	for _, r := range results {
		assert.False(t, r.Success)
		assert.Equal(t, CodeValidationFailed, r.Code)
	}

	// All-or-nothing: no write, no backup, no commit.
	got, err := env.fs.Read("src/app.js")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	backups, err := env.backups.List("")
	require.NoError(t, err)
	assert.Empty(t, backups)
	assert.Zero(t, env.gw.commitCount)
}

func TestApplyBatch_AllConflicts(t *testing.T) {
	env := newEnv(t, nil)
	require.NoError(t, env.fs.Write("src/app.js", "line1\n"))

	suggestions := []Suggestion{
		{ID: "s1", StartLine: 1, Original: "absent", Replacement: "x"},
	}

	results := env.svc.ApplyBatch(context.Background(), "src/app.js", suggestions, BatchOptions{})
	require.Len(t, results, 1)
	assert.Equal(t, CodeConflict, results[0].Code)

	backups, err := env.backups.List("")
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestRevert_RestoresFromBackup(t *testing.T) {
	env := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))

	applied := env.svc.Apply(ctx, Request{
		FilePath:        "src/app.js",
		OriginalText:    "return a + b;",
		ReplacementText: "return b + a;",
	})
	require.True(t, applied.Success)

	result := env.svc.Revert(ctx, applied.HistoryID)
	require.True(t, result.Success, "error: %s", result.Error)

	got, err := env.fs.Read("src/app.js")
	require.NoError(t, err)
	assert.Equal(t, sampleJS, got)

	entry, err := env.hist.Get(ctx, applied.HistoryID)
	require.NoError(t, err)
	assert.True(t, entry.Reverted())
}

func TestRevert_Twice(t *testing.T) {
	env := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))

	applied := env.svc.Apply(ctx, Request{
		FilePath:        "src/app.js",
		OriginalText:    "return a + b;",
		ReplacementText: "return b + a;",
	})
	require.True(t, applied.Success)

	require.True(t, env.svc.Revert(ctx, applied.HistoryID).Success)

	second := env.svc.Revert(ctx, applied.HistoryID)
	require.False(t, second.Success)
	assert.Equal(t, CodeAlreadyReverted, second.Code)
}

func TestRevert_UnknownID(t *testing.T) {
	env := newEnv(t, nil)

	result := env.svc.Revert(context.Background(), "missing")
	require.False(t, result.Success)
	assert.Equal(t, CodeNotFound, result.Code)
}

func TestRevert_FallsBackToCommitRevert(t *testing.T) {
	env := newEnv(t, func(cfg *config.Config) {
		cfg.Backup.Enabled = boolPtr(false)
	})
	ctx := context.Background()
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))

	applied := env.svc.Apply(ctx, Request{
		FilePath:        "src/app.js",
		OriginalText:    "return a + b;",
		ReplacementText: "return b + a;",
	})
	require.True(t, applied.Success)
	require.NotEmpty(t, applied.CommitHash)

	result := env.svc.Revert(ctx, applied.HistoryID)
	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, []string{applied.CommitHash}, env.gw.reverted)
}

func TestRevert_NoRecoveryPath(t *testing.T) {
	env := newEnv(t, func(cfg *config.Config) {
		cfg.Backup.Enabled = boolPtr(false)
		cfg.Git.Enabled = boolPtr(false)
	})
	ctx := context.Background()
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))

	applied := env.svc.Apply(ctx, Request{
		FilePath:        "src/app.js",
		OriginalText:    "return a + b;",
		ReplacementText: "return b + a;",
	})
	require.True(t, applied.Success)

	result := env.svc.Revert(ctx, applied.HistoryID)
	require.False(t, result.Success)
	assert.Equal(t, CodeNoRecoveryPath, result.Code)
}

func TestRestoreBackup(t *testing.T) {
	env := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.fs.Write("src/app.js", sampleJS))

	applied := env.svc.Apply(ctx, Request{
		FilePath:        "src/app.js",
		OriginalText:    "return a + b;",
		ReplacementText: "return b + a;",
	})
	require.True(t, applied.Success)

	result := env.svc.RestoreBackup(applied.BackupID)
	require.True(t, result.Success)

	got, err := env.fs.Read("src/app.js")
	require.NoError(t, err)
	assert.Equal(t, sampleJS, got)

	missing := env.svc.RestoreBackup("nope")
	require.False(t, missing.Success)
	assert.Equal(t, CodeNotFound, missing.Code)
}

func TestStatus_GitDisabled(t *testing.T) {
	env := newEnv(t, func(cfg *config.Config) {
		cfg.Git.Enabled = boolPtr(false)
	})

	status, err := env.svc.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.IsRepo)
	assert.True(t, status.Clean)
}

func TestHistory_FilterByFile(t *testing.T) {
	env := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.fs.Write("src/a.js", "let a = 1;\n"))
	require.NoError(t, env.fs.Write("src/b.js", "let b = 1;\n"))

	require.True(t, env.svc.Apply(ctx, Request{FilePath: "src/a.js", OriginalText: "let a = 1;", ReplacementText: "let a = 2;"}).Success)
	require.True(t, env.svc.Apply(ctx, Request{FilePath: "src/b.js", OriginalText: "let b = 1;", ReplacementText: "let b = 2;"}).Success)

	entries, err := env.svc.History(ctx, "src/a.js")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "src/a.js", entries[0].FilePath)

	all, err := env.svc.History(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
