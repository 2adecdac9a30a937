package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/grippy-ci/grippy/internal/db"
	"github.com/grippy-ci/grippy/internal/graph"
	"github.com/grippy-ci/grippy/internal/reviewschema"
	"github.com/grippy-ci/grippy/internal/vectorstore"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1, 2, 3}, nil
}

func testStore(t *testing.T) *EdgeStore {
	t.Helper()

	dir := t.TempDir()

	sqliteStore, err := db.NewSqliteStore(&db.SqliteConfig{
		DatabaseFileName:      filepath.Join(dir, "graph.db"),
		SkipMigrationDBBackup: true,
	}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	vecStore, err := vectorstore.Open(filepath.Join(dir, "vectors"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { vecStore.Close() })

	return New(sqliteStore.Store, vecStore, fakeEmbedder{})
}

func sampleReview(t *testing.T) reviewschema.Review {
	t.Helper()

	finding, err := reviewschema.NewFinding(reviewschema.FindingInput{
		ID: "f1", Severity: reviewschema.SeverityHigh, Confidence: 80,
		Category: reviewschema.CategorySecurity, File: "src/auth.py",
		LineStart: 10, LineEnd: 10, Title: "SQL injection",
		Description: "unsanitized input", Suggestion: "use params",
	})
	require.NoError(t, err)

	review, err := reviewschema.NewReview(reviewschema.ReviewInput{
		SchemaVersion: "1.0", AuditKind: reviewschema.AuditKindPRReview,
		Timestamp: "2026-07-31T00:00:00Z", Model: "test-model",
		PR: reviewschema.PRMeta{
			Title: "Fix login", Author: "alice", Branch: "main",
			ComplexityTier: reviewschema.ComplexityStandard,
		},
		Scope: reviewschema.Scope{
			FilesInDiff: []string{"src/auth.py"}, FilesReviewed: []string{"src/auth.py"},
			CoverageFraction: 1,
		},
		Findings: []reviewschema.Finding{finding},
		Score: reviewschema.Score{Overall: 60},
		Verdict: reviewschema.Verdict{
			Status: reviewschema.VerdictFail, Threshold: 70,
		},
	})
	require.NoError(t, err)
	return review
}

func TestStoreReview_PersistsGraphAndEmbeddings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	g := graph.Build(sampleReview(t))

	err := s.StoreReview(ctx, g, "session-1")
	require.NoError(t, err)

	count, err := s.db.Q().CountEdges(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(len(g.Edges)), count)

	seen, err := s.vec.SeenIDs(ctx, nodesTable)
	require.NoError(t, err)
	require.Len(t, seen, len(g.Nodes))
}

func TestGetPriorFindings_OnlyOpenInSession(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	g := graph.Build(sampleReview(t))
	require.NoError(t, s.StoreReview(ctx, g, "session-1"))

	prior, err := s.GetPriorFindings(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, prior, 1)
	require.Equal(t, "SQL injection", prior[0].Title)

	// A different session sees nothing.
	prior, err = s.GetPriorFindings(ctx, "session-2")
	require.NoError(t, err)
	require.Empty(t, prior)
}

func TestUpdateFindingStatus_ExcludesFromPriorFindings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	g := graph.Build(sampleReview(t))
	require.NoError(t, s.StoreReview(ctx, g, "session-1"))

	prior, err := s.GetPriorFindings(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, prior, 1)

	require.NoError(t, s.UpdateFindingStatus(ctx, prior[0].NodeID, "resolved"))

	prior, err = s.GetPriorFindings(ctx, "session-1")
	require.NoError(t, err)
	require.Empty(t, prior)
}

func TestGetAuthorTendencies_ReturnsRecurringFindings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	g := graph.Build(sampleReview(t))
	require.NoError(t, s.StoreReview(ctx, g, "session-1"))

	tendencies, err := s.GetAuthorTendencies(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, tendencies, 1)
	require.Equal(t, "SQL injection", tendencies[0].Title)
	require.Equal(t, 1, tendencies[0].Count)
}

func TestGetPatternsForFile_ReturnsFindingsOnFile(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	g := graph.Build(sampleReview(t))
	require.NoError(t, s.StoreReview(ctx, g, "session-1"))

	patterns, err := s.GetPatternsForFile(ctx, "src/auth.py")
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	require.Equal(t, "SQL injection", patterns[0].Label)
}
