// Package resolver implements fingerprint-based cross-round finding
// lifecycle classification.
package resolver

import "github.com/grippy-ci/grippy/internal/reviewschema"

// PriorFinding is the dict-shaped prior-round record the resolver compares
// against: a FINDING node's persisted identity, read back from the graph
// store before the current review is stored.
type PriorFinding struct {
	NodeID      string
	Fingerprint string
	Title       string
}

// Persisting pairs a current-round finding with the node identifier of the
// prior-round finding it fingerprint-matches.
type Persisting struct {
	Current      reviewschema.Finding
	PriorNodeID  string
}

// Result is the resolver's trichotomy over one round's findings against
// the prior round's open findings.
type Result struct {
	New        []reviewschema.Finding
	Persisting []Persisting
	Resolved   []PriorFinding
}

// Resolve classifies current findings against prior findings into three
// disjoint lists that together cover every fingerprint in current ∪ prior.
// When two current findings share a fingerprint, the first occurrence
// wins; later duplicates are silently dropped since they would produce
// the same graph node identifier anyway.
func Resolve(current []reviewschema.Finding, prior []PriorFinding) Result {
	priorByFP := make(map[string]PriorFinding, len(prior))
	for _, p := range prior {
		priorByFP[p.Fingerprint] = p
	}

	var result Result
	seenCurrentFP := make(map[string]struct{})
	matchedPriorFP := make(map[string]struct{})

	for _, f := range current {
		fp := f.Fingerprint()
		if _, dup := seenCurrentFP[fp]; dup {
			continue
		}
		seenCurrentFP[fp] = struct{}{}

		if p, ok := priorByFP[fp]; ok {
			result.Persisting = append(result.Persisting, Persisting{
				Current:     f,
				PriorNodeID: p.NodeID,
			})
			matchedPriorFP[fp] = struct{}{}
		} else {
			result.New = append(result.New, f)
		}
	}

	for _, p := range prior {
		if _, matched := matchedPriorFP[p.Fingerprint]; !matched {
			result.Resolved = append(result.Resolved, p)
		}
	}

	return result
}
