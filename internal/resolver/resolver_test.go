package resolver

import (
	"testing"

	"github.com/grippy-ci/grippy/internal/reviewschema"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustFinding(t *testing.T, file, category, title string, line int) reviewschema.Finding {
	t.Helper()
	f, err := reviewschema.NewFinding(reviewschema.FindingInput{
		ID: title, Severity: reviewschema.SeverityMedium, Confidence: 50,
		Category: reviewschema.Category(category), File: file,
		LineStart: line, LineEnd: line, Title: title,
	})
	require.NoError(t, err)
	return f
}

func TestResolve_FingerprintPersistsAcrossLineAndSeverityChange(t *testing.T) {
	round1 := mustFinding(t, "src/auth.py", "security", "SQL injection", 12)

	prior := []PriorFinding{{
		NodeID:      "FINDING:abc123",
		Fingerprint: round1.Fingerprint(),
		Title:       "SQL injection",
	}}

	round2 := mustFinding(t, "src/auth.py", "security", "SQL injection", 42)

	result := Resolve([]reviewschema.Finding{round2}, prior)

	require.Empty(t, result.New)
	require.Empty(t, result.Resolved)
	require.Len(t, result.Persisting, 1)
	require.Equal(t, "FINDING:abc123", result.Persisting[0].PriorNodeID)
}

func TestResolve_NewAndResolved(t *testing.T) {
	stale := PriorFinding{
		NodeID:      "FINDING:stale",
		Fingerprint: "deadbeefcafe",
		Title:       "stale finding",
	}

	fresh := mustFinding(t, "b.py", "logic", "new bug", 1)

	result := Resolve([]reviewschema.Finding{fresh}, []PriorFinding{stale})

	require.Len(t, result.New, 1)
	require.Equal(t, "new bug", result.New[0].Title())
	require.Len(t, result.Resolved, 1)
	require.Equal(t, "FINDING:stale", result.Resolved[0].NodeID)
	require.Empty(t, result.Persisting)
}

func TestResolve_DuplicateFingerprintsInCurrent_FirstWins(t *testing.T) {
	f1 := mustFinding(t, "a.py", "logic", "dup", 1)
	f2 := mustFinding(t, "a.py", "logic", "dup", 2)

	result := Resolve([]reviewschema.Finding{f1, f2}, nil)

	require.Len(t, result.New, 1)
	require.Equal(t, 1, result.New[0].LineStart())
}

// TestResolve_Trichotomy_Property checks that the resolver's three output
// lists are disjoint and together cover every fingerprint in current ∪
// prior.
func TestResolve_Trichotomy_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 6).Draw(t, "n_current")
		var current []reviewschema.Finding
		for i := 0; i < n; i++ {
			title := rapid.StringMatching(`title[0-9]`).Draw(t, "title")
			current = append(current, mustFinding(t, "f.py", "logic", title, i+1))
		}

		m := rapid.IntRange(0, 6).Draw(t, "n_prior")
		var prior []PriorFinding
		for i := 0; i < m; i++ {
			title := rapid.StringMatching(`title[0-9]`).Draw(t, "ptitle")
			prior = append(prior, PriorFinding{
				NodeID:      title,
				Fingerprint: reviewschema.ComputeFingerprint("f.py", "logic", title),
				Title:       title,
			})
		}

		result := Resolve(current, prior)

		allFPs := make(map[string]struct{})
		for _, f := range current {
			allFPs[f.Fingerprint()] = struct{}{}
		}
		for _, p := range prior {
			allFPs[p.Fingerprint] = struct{}{}
		}

		covered := make(map[string]struct{})
		for _, f := range result.New {
			fp := f.Fingerprint()
			_, dup := covered[fp]
			require.False(t, dup, "fingerprint in more than one bucket")
			covered[fp] = struct{}{}
		}
		for _, p := range result.Persisting {
			fp := p.Current.Fingerprint()
			_, dup := covered[fp]
			require.False(t, dup, "fingerprint in more than one bucket")
			covered[fp] = struct{}{}
		}
		// Duplicate prior entries all land in Resolved, so only a clash
		// with the New/Persisting buckets counts as overlap here.
		resolvedFPs := make(map[string]struct{})
		for _, p := range result.Resolved {
			_, dup := covered[p.Fingerprint]
			require.False(t, dup, "fingerprint in more than one bucket")
			resolvedFPs[p.Fingerprint] = struct{}{}
		}
		for fp := range resolvedFPs {
			covered[fp] = struct{}{}
		}

		require.Equal(t, len(allFPs), len(covered))
		for fp := range allFPs {
			_, ok := covered[fp]
			require.True(t, ok, "fingerprint %s not covered", fp)
		}
	})
}
