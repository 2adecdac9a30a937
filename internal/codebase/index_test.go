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

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 0, 0}, nil
}

func TestIndex_ChunksEmbedsAndPersists(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "main.go"),
		[]byte("package main\n\nfunc main() {}\n"), 0o644))

	vec, err := vectorstore.Open(t.TempDir(), 3)
	require.NoError(t, err)
	t.Cleanup(func() { vec.Close() })

	n, err := Index(context.Background(), slog.Default(), vec, stubEmbedder{},
		IndexConfig{RepoRoot: repo, Extensions: []string{".go"},
			MaxChunkChars: 2000, Overlap: 100})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	seen, err := vec.SeenIDs(context.Background(), chunksTable)
	require.NoError(t, err)
	require.Len(t, seen, 1)
}

func TestIndex_RebuildOverwritesStaleChunks(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "a.go"), []byte("package a"), 0o644))

	vec, err := vectorstore.Open(t.TempDir(), 3)
	require.NoError(t, err)
	t.Cleanup(func() { vec.Close() })

	ctx := context.Background()
	cfg := IndexConfig{RepoRoot: repo, Extensions: []string{".go"},
		MaxChunkChars: 2000, Overlap: 0}

	_, err = Index(ctx, slog.Default(), vec, stubEmbedder{}, cfg)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(repo, "a.go")))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "b.go"), []byte("package b"), 0o644))

	_, err = Index(ctx, slog.Default(), vec, stubEmbedder{}, cfg)
	require.NoError(t, err)

	seen, err := vec.SeenIDs(ctx, chunksTable)
	require.NoError(t, err)
	_, hasOld := seen["a.go#0"]
	_, hasNew := seen["b.go#0"]
	require.False(t, hasOld)
	require.True(t, hasNew)
}

func TestDecodeChunkID_RoundTrips(t *testing.T) {
	file, idx := DecodeChunkID("src/pkg/file.go#3")
	require.Equal(t, "src/pkg/file.go", file)
	require.Equal(t, 3, idx)
}
