package mcptools

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/grippy-ci/grippy/internal/codebase"
	"github.com/grippy-ci/grippy/internal/vectorstore"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1, 2}, nil
}

func newTestServer(t *testing.T, repoRoot string) *Server {
	t.Helper()

	vec, err := vectorstore.Open(t.TempDir(), 3)
	require.NoError(t, err)
	t.Cleanup(func() { vec.Close() })

	return NewServer(Config{
		RepoRoot: repoRoot,
		Vector:   vec,
		Embedder: fakeEmbedder{},
	})
}

func TestHandleReadFile_RejectsPathTraversal(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "a.go"), []byte("line1\nline2\n"), 0o644))

	s := newTestServer(t, repo)

	_, _, err := s.handleReadFile(context.Background(), nil, ReadFileArgs{
		Path: "../../../../etc/passwd",
	})
	require.Error(t, err)
}

func TestHandleReadFile_ReturnsLineRangeWithNumbers(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "a.go"),
		[]byte("one\ntwo\nthree\nfour\n"), 0o644))

	s := newTestServer(t, repo)

	_, res, err := s.handleReadFile(context.Background(), nil, ReadFileArgs{
		Path: "a.go", StartLine: 2, EndLine: 3,
	})
	require.NoError(t, err)
	require.Equal(t, "2: two\n3: three\n", res.Output)
}

func TestHandleListFiles_MatchesGlobAndFlagsDirectories(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "internal", "pkg"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(repo, "internal", "pkg", "x.go"), []byte("x"), 0o644))

	s := newTestServer(t, repo)

	_, res, err := s.handleListFiles(context.Background(), nil, ListFilesArgs{
		Glob: "**/*.go",
	})
	require.NoError(t, err)
	require.Contains(t, res.Output, filepath.Join("internal", "pkg", "x.go"))

	_, res, err = s.handleListFiles(context.Background(), nil, ListFilesArgs{
		Glob: "internal/*",
	})
	require.NoError(t, err)
	require.Contains(t, res.Output, filepath.Join("internal", "pkg")+"/")
}

func TestHandleSemanticSearch_ReturnsIndexedChunk(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "a.go"), []byte("func A() {}\n"), 0o644))

	vec, err := vectorstore.Open(t.TempDir(), 3)
	require.NoError(t, err)
	t.Cleanup(func() { vec.Close() })

	ctx := context.Background()
	_, err = codebase.Index(ctx, slog.Default(), vec, fakeEmbedder{}, codebase.IndexConfig{
		RepoRoot: repo, Extensions: []string{".go"}, MaxChunkChars: 2000,
	})
	require.NoError(t, err)

	s := newTestServer(t, repo)
	s.vec = vec

	_, res, err := s.handleSemanticSearch(ctx, nil, SemanticSearchArgs{
		Query: "A function", TopK: 3,
	})
	require.NoError(t, err)
	require.Contains(t, res.Output, "--- a.go")
}

func TestResolveUnderRoot_AllowsRootItself(t *testing.T) {
	repo := t.TempDir()
	resolved, err := resolveUnderRoot(repo, ".")
	require.NoError(t, err)
	require.Equal(t, repo, resolved)
}
