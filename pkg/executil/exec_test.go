package executil

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealExecutor_Run(t *testing.T) {
	exec := &RealExecutor{}
	ctx := context.Background()

	t.Run("successful command", func(t *testing.T) {
		out, err := exec.Run(ctx, "echo", "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", strings.TrimSpace(string(out)))
	})

	t.Run("missing command", func(t *testing.T) {
		_, err := exec.Run(ctx, "definitely-not-a-command")
		require.Error(t, err)
	})
}

func TestRealExecutor_RunDir(t *testing.T) {
	exec := &RealExecutor{}
	ctx := context.Background()

	dir := t.TempDir()
	out, err := exec.RunDir(ctx, dir, "pwd")
	require.NoError(t, err)
	assert.Contains(t, strings.TrimSpace(string(out)), dir)
}

func TestRecordingExecutor(t *testing.T) {
	rec := &RecordingExecutor{
		Outputs: map[string][]byte{
			"git status": []byte("clean"),
			"git":        []byte("fallback"),
		},
	}
	ctx := context.Background()

	out, err := rec.Run(ctx, "git", "status")
	require.NoError(t, err)
	assert.Equal(t, "clean", string(out))

	out, err = rec.RunDir(ctx, "/tmp", "git", "log")
	require.NoError(t, err)
	assert.Equal(t, "fallback", string(out))

	require.Len(t, rec.Commands, 2)
	assert.Equal(t, "/tmp", rec.Commands[1].Dir)
	assert.Equal(t, []string{"log"}, rec.Commands[1].Args)

	rec.Reset()
	assert.Empty(t, rec.Commands)
}
