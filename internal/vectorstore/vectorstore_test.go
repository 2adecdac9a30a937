package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendUnseen_SkipsAlreadySeenIDs(t *testing.T) {
	store, err := Open(t.TempDir(), 3)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()

	n, err := store.AppendUnseen(ctx, "nodes", []Record{
		{ID: "a", Text: "alpha", Embedding: []float32{1, 0, 0}},
		{ID: "b", Text: "bravo", Embedding: []float32{0, 1, 0}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// Re-appending "a" alongside a genuinely new "c" only inserts "c".
	n, err = store.AppendUnseen(ctx, "nodes", []Record{
		{ID: "a", Text: "alpha", Embedding: []float32{1, 0, 0}},
		{ID: "c", Text: "charlie", Embedding: []float32{0, 0, 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	seen, err := store.SeenIDs(ctx, "nodes")
	require.NoError(t, err)
	require.Len(t, seen, 3)
}

func TestSearch_RanksByCosineSimilarity(t *testing.T) {
	store, err := Open(t.TempDir(), 2)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()

	_, err = store.AppendUnseen(ctx, "nodes", []Record{
		{ID: "same", Text: "same direction", Embedding: []float32{1, 0}},
		{ID: "orth", Text: "orthogonal", Embedding: []float32{0, 1}},
		{ID: "opp", Text: "opposite", Embedding: []float32{-1, 0}},
	})
	require.NoError(t, err)

	matches, err := store.Search(ctx, "nodes", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "same", matches[0].ID)
	require.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
}

func TestSeenIDs_EmptyTableCreatedLazily(t *testing.T) {
	store, err := Open(t.TempDir(), 4)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	seen, err := store.SeenIDs(context.Background(), "codebase_chunks")
	require.NoError(t, err)
	require.Empty(t, seen)
}
