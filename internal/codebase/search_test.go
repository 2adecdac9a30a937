package codebase

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/grippy-ci/grippy/internal/vectorstore"
	"github.com/stretchr/testify/require"
)

func TestSemanticSearch_ReturnsFormattedBlocks(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "auth.go"),
		[]byte("func Login() {}\n"), 0o644))

	vec, err := vectorstore.Open(t.TempDir(), 3)
	require.NoError(t, err)
	t.Cleanup(func() { vec.Close() })

	ctx := context.Background()
	_, err = Index(ctx, slog.Default(), vec, stubEmbedder{}, IndexConfig{
		RepoRoot: repo, Extensions: []string{".go"},
		MaxChunkChars: 2000, Overlap: 0,
	})
	require.NoError(t, err)

	out, err := SemanticSearch(ctx, vec, stubEmbedder{}, "login", 5)
	require.NoError(t, err)
	require.Contains(t, out, "--- auth.go")
}
