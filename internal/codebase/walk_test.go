package codebase

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListFiles_FallsBackToFilesystemWalkOutsideGit(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "node_modules", "skip.go"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.py"), []byte("pass"), 0o644))

	files, err := ListFiles(context.Background(), slog.Default(), WalkConfig{
		RepoRoot: dir, Extensions: []string{".go"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a.go"}, files)
}

func TestListFiles_EmptyExtensionsMeansAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("x"), 0o644))

	files, err := ListFiles(context.Background(), slog.Default(), WalkConfig{RepoRoot: dir})
	require.NoError(t, err)
	require.Len(t, files, 2)
}

func TestMatchGlob_DoubleStarMatchesNestedPaths(t *testing.T) {
	require.True(t, MatchGlob("**/*.go", "internal/foo/bar.go"))
	require.False(t, MatchGlob("**/*.go", "internal/foo/bar.py"))
}
