// Package graph implements the pure review-to-graph transform: a
// deterministic flat-review-to-typed-node/edge-graph mapping used by both
// persistence backends.
package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/grippy-ci/grippy/internal/reviewschema"
)

// NodeType enumerates the review graph's node kinds.
type NodeType string

const (
	NodeReview     NodeType = "REVIEW"
	NodeFinding    NodeType = "FINDING"
	NodeRule       NodeType = "RULE"
	NodePattern    NodeType = "PATTERN"
	NodeAuthor     NodeType = "AUTHOR"
	NodeFile       NodeType = "FILE"
	NodeSuggestion NodeType = "SUGGESTION"
)

// EdgeType enumerates the review graph's edge kinds.
type EdgeType string

const (
	EdgeViolates       EdgeType = "VIOLATES"
	EdgeFoundIn        EdgeType = "FOUND_IN"
	EdgeFixedBy        EdgeType = "FIXED_BY"
	EdgeIsA            EdgeType = "IS_A"
	EdgePrerequisiteFor EdgeType = "PREREQUISITE_FOR"
	EdgeExtractedFrom  EdgeType = "EXTRACTED_FROM"
	EdgeTendency       EdgeType = "TENDENCY"
	EdgeReviewedBy     EdgeType = "REVIEWED_BY"
	EdgeResolves       EdgeType = "RESOLVES"
	EdgePersistsAs     EdgeType = "PERSISTS_AS"
)

// Node is one vertex of the review graph. Properties is a flat map so it
// round-trips through JSON for the node_meta.properties_json column.
type Node struct {
	ID         string
	Type       NodeType
	Label      string
	Properties map[string]any

	// SourceReviewID is non-null for every node except REVIEW.
	SourceReviewID string
}

// Edge is one directed, typed connection between two node identifiers.
type Edge struct {
	Source string
	Type   EdgeType
	Target string
}

// Graph is the insertion-ordered set of nodes and edges produced by one
// review. Slices, not maps, preserve the deterministic iteration order
// callers depend on.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// NodeID computes the content-addressed, type-prefixed node identifier:
// "{type}:{sha256(type + ':' + part1 + ':' + ...)[:12]}".
func NodeID(nodeType NodeType, parts ...string) string {
	key := string(nodeType) + ":" + strings.Join(parts, ":")
	sum := sha256.Sum256([]byte(key))
	return string(nodeType) + ":" + hex.EncodeToString(sum[:])[:12]
}

// builder accumulates nodes/edges while deduplicating by node identifier,
// preserving first-insertion order.
type builder struct {
	graph   Graph
	seen    map[string]struct{}
	edgeSet map[Edge]struct{}
}

func newBuilder() *builder {
	return &builder{
		seen:    make(map[string]struct{}),
		edgeSet: make(map[Edge]struct{}),
	}
}

func (b *builder) addNode(n Node) {
	if _, ok := b.seen[n.ID]; ok {
		return
	}
	b.seen[n.ID] = struct{}{}
	b.graph.Nodes = append(b.graph.Nodes, n)
}

func (b *builder) addEdge(e Edge) {
	if _, ok := b.edgeSet[e]; ok {
		return
	}
	b.edgeSet[e] = struct{}{}
	b.graph.Edges = append(b.graph.Edges, e)
}

// Build transforms a review into its graph. The result is deterministic:
// the same review always produces the same node-identifier sequence.
func Build(review reviewschema.Review) *Graph {
	b := newBuilder()

	reviewID := NodeID(NodeReview, review.Timestamp(), review.PR().Title)
	b.addNode(Node{
		ID:    reviewID,
		Type:  NodeReview,
		Label: review.PR().Title,
		Properties: map[string]any{
			"timestamp": review.Timestamp(),
			"model":     review.Model(),
		},
		SourceReviewID: "",
	})

	agentAuthorID := NodeID(NodeAuthor, "agent", review.Model())
	b.addNode(Node{
		ID:             agentAuthorID,
		Type:           NodeAuthor,
		Label:          "agent:" + review.Model(),
		Properties:     map[string]any{"name": "agent", "model": review.Model()},
		SourceReviewID: reviewID,
	})
	b.addEdge(Edge{Source: reviewID, Type: EdgeReviewedBy, Target: agentAuthorID})

	prAuthorID := NodeID(NodeAuthor, review.PR().Author)
	b.addNode(Node{
		ID:             prAuthorID,
		Type:           NodeAuthor,
		Label:          review.PR().Author,
		Properties:     map[string]any{"name": review.PR().Author},
		SourceReviewID: reviewID,
	})

	for _, f := range review.Findings() {
		fileID := NodeID(NodeFile, f.File())
		b.addNode(Node{
			ID:             fileID,
			Type:           NodeFile,
			Label:          f.File(),
			Properties:     map[string]any{"path": f.File()},
			SourceReviewID: reviewID,
		})

		suggestionID := NodeID(NodeSuggestion, f.File(),
			strconv.Itoa(f.LineStart()), f.Suggestion())
		b.addNode(Node{
			ID:    suggestionID,
			Type:  NodeSuggestion,
			Label: f.File() + ":" + strconv.Itoa(f.LineStart()),
			Properties: map[string]any{
				"file":       f.File(),
				"line_start": f.LineStart(),
				"text":       f.Suggestion(),
			},
			SourceReviewID: reviewID,
		})

		var ruleID string
		if f.HasRule() {
			ruleID = NodeID(NodeRule, f.RuleID())
			b.addNode(Node{
				ID:             ruleID,
				Type:           NodeRule,
				Label:          f.RuleID(),
				Properties:     map[string]any{"rule_id": f.RuleID()},
				SourceReviewID: reviewID,
			})
		}

		findingID := NodeID(NodeFinding, f.File(),
			strconv.Itoa(f.LineStart()), f.Title())
		b.addNode(Node{
			ID:    findingID,
			Type:  NodeFinding,
			Label: f.Title(),
			Properties: map[string]any{
				"id":          f.ID(),
				"severity":    string(f.Severity()),
				"confidence":  f.Confidence(),
				"category":    string(f.Category()),
				"file":        f.File(),
				"line_start":  f.LineStart(),
				"line_end":    f.LineEnd(),
				"title":       f.Title(),
				"description": f.Description(),
				"suggestion":  f.Suggestion(),
				"rule_id":     f.RuleID(),
				"evidence":    f.Evidence(),
				"note":        f.Note(),
				"fingerprint": f.Fingerprint(),
				"status":      "open",
			},
			SourceReviewID: reviewID,
		})

		b.addEdge(Edge{Source: findingID, Type: EdgeFoundIn, Target: fileID})
		b.addEdge(Edge{Source: findingID, Type: EdgeFixedBy, Target: suggestionID})
		if f.HasRule() {
			b.addEdge(Edge{Source: findingID, Type: EdgeViolates, Target: ruleID})
		}
		b.addEdge(Edge{Source: findingID, Type: EdgeTendency, Target: prAuthorID})
	}

	return &b.graph
}
