package graph

import (
	"testing"

	"github.com/grippy-ci/grippy/internal/reviewschema"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func sampleReview(t *testing.T) reviewschema.Review {
	t.Helper()

	f1, err := reviewschema.NewFinding(reviewschema.FindingInput{
		ID: "f1", Severity: reviewschema.SeverityHigh, Confidence: 80,
		Category: reviewschema.CategorySecurity, File: "src/auth.py",
		LineStart: 12, LineEnd: 12, Title: "SQL injection",
		Suggestion: "use parameterized queries", RuleID: "SEC-001",
	})
	require.NoError(t, err)

	f2, err := reviewschema.NewFinding(reviewschema.FindingInput{
		ID: "f2", Severity: reviewschema.SeverityLow, Confidence: 60,
		Category: reviewschema.CategoryLogic, File: "src/auth.py",
		LineStart: 40, LineEnd: 40, Title: "unused variable",
		Suggestion: "remove it",
	})
	require.NoError(t, err)

	review, err := reviewschema.NewReview(reviewschema.ReviewInput{
		SchemaVersion: "1.0",
		AuditKind:     reviewschema.AuditKindPRReview,
		Timestamp:     "2026-07-31T00:00:00Z",
		Model:         "test-model",
		PR: reviewschema.PRMeta{
			Title: "Add auth", Author: "alice", Branch: "feat/auth",
			ComplexityTier: reviewschema.ComplexityStandard,
		},
		Findings: []reviewschema.Finding{f1, f2},
		Score: reviewschema.Score{Overall: 70},
		Verdict: reviewschema.Verdict{
			Status: reviewschema.VerdictPass, Threshold: 60,
		},
	})
	require.NoError(t, err)

	return review
}

func TestBuild_Determinism(t *testing.T) {
	review := sampleReview(t)

	g1 := Build(review)
	g2 := Build(review)

	require.Equal(t, len(g1.Nodes), len(g2.Nodes))
	for i := range g1.Nodes {
		require.Equal(t, g1.Nodes[i].ID, g2.Nodes[i].ID)
	}
	require.Equal(t, g1.Edges, g2.Edges)
}

func TestBuild_Invariants(t *testing.T) {
	g := Build(sampleReview(t))

	var reviewNodes, findingNodes, fileNodes, ruleNodes int
	for _, n := range g.Nodes {
		switch n.Type {
		case NodeReview:
			reviewNodes++
			require.Equal(t, "", n.SourceReviewID)
		case NodeFinding:
			findingNodes++
			require.Equal(t, "open", n.Properties["status"])
			require.NotEmpty(t, n.SourceReviewID)
		case NodeFile:
			fileNodes++
		case NodeRule:
			ruleNodes++
		default:
			require.NotEmpty(t, n.SourceReviewID)
		}
	}

	require.Equal(t, 1, reviewNodes)
	require.Equal(t, 2, findingNodes)
	// Both findings share src/auth.py, so FILE nodes are deduplicated.
	require.Equal(t, 1, fileNodes)
	// Only the first finding carries a rule.
	require.Equal(t, 1, ruleNodes)

	var foundIn, fixedBy, violates, tendency int
	for _, e := range g.Edges {
		switch e.Type {
		case EdgeFoundIn:
			foundIn++
		case EdgeFixedBy:
			fixedBy++
		case EdgeViolates:
			violates++
		case EdgeTendency:
			tendency++
		}
	}
	require.Equal(t, 2, foundIn)
	require.Equal(t, 2, fixedBy)
	require.Equal(t, 1, violates)
	// Both findings trace a TENDENCY edge back to the PR's author node.
	require.Equal(t, 2, tendency)
}

// TestFingerprintStability_Property checks the fingerprint stability
// invariant: two findings with equal (file, category, title) after
// normalization always share a fingerprint, regardless of every other
// field.
func TestFingerprintStability_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		file := rapid.StringMatching(`[a-z/]{1,20}\.go`).Draw(t, "file")
		title := rapid.StringN(1, 30, 30).Draw(t, "title")
		category := rapid.SampledFrom([]reviewschema.Category{
			reviewschema.CategorySecurity, reviewschema.CategoryLogic,
			reviewschema.CategoryGovernance, reviewschema.CategoryReliability,
			reviewschema.CategoryObservability,
		}).Draw(t, "category")

		line1 := rapid.IntRange(1, 1000).Draw(t, "line1")
		line2 := rapid.IntRange(1, 1000).Draw(t, "line2")
		sev1 := rapid.SampledFrom([]reviewschema.Severity{
			reviewschema.SeverityCritical, reviewschema.SeverityHigh,
			reviewschema.SeverityMedium, reviewschema.SeverityLow,
		}).Draw(t, "sev1")
		sev2 := rapid.SampledFrom([]reviewschema.Severity{
			reviewschema.SeverityCritical, reviewschema.SeverityHigh,
			reviewschema.SeverityMedium, reviewschema.SeverityLow,
		}).Draw(t, "sev2")

		f1, err := reviewschema.NewFinding(reviewschema.FindingInput{
			ID: "f1", Severity: sev1, Confidence: 10, Category: category,
			File: file, LineStart: line1, LineEnd: line1, Title: title,
			Description: "first description",
		})
		if err != nil {
			t.Skip("invalid generated finding")
		}

		f2, err := reviewschema.NewFinding(reviewschema.FindingInput{
			ID: "f2", Severity: sev2, Confidence: 90, Category: category,
			File: file, LineStart: line2, LineEnd: line2, Title: title,
			Description: "a totally different description",
		})
		if err != nil {
			t.Skip("invalid generated finding")
		}

		require.Equal(t, f1.Fingerprint(), f2.Fingerprint())
	})
}
