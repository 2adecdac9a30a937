// Package store is the domain persistence layer: it composes the
// low-level edge/node database (internal/db) with the vector store
// (internal/vectorstore) and an embedder (internal/codebase) to implement
// the review graph's dual-store write/read paths.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/grippy-ci/grippy/internal/codebase"
	"github.com/grippy-ci/grippy/internal/db"
	"github.com/grippy-ci/grippy/internal/graph"
	"github.com/grippy-ci/grippy/internal/resolver"
	"github.com/grippy-ci/grippy/internal/vectorstore"
	"golang.org/x/sync/errgroup"
)

const nodesTable = "nodes"

// EdgeStore is the combined graph-database/vector-store facade the
// orchestrator talks to. It never itself decides what happens on a
// partial failure; callers treat persistence as best-effort.
type EdgeStore struct {
	db     *db.Store
	vec    *vectorstore.Store
	embed  codebase.Embedder
}

// New returns an EdgeStore over the given backends.
func New(dbStore *db.Store, vecStore *vectorstore.Store,
	embedder codebase.Embedder) *EdgeStore {

	return &EdgeStore{db: dbStore, vec: vecStore, embed: embedder}
}

// GetPriorFindings returns every still-open FINDING node previously
// recorded for sessionID. Callers MUST call this before StoreReview for
// the same session: StoreReview's writes would otherwise shadow the
// prior round's findings before the resolver can see them.
func (s *EdgeStore) GetPriorFindings(ctx context.Context, sessionID string) (
	[]resolver.PriorFinding, error) {

	rows, err := s.db.Q().NodesBySessionAndType(ctx, sessionID,
		string(graph.NodeFinding))
	if err != nil {
		return nil, fmt.Errorf("failed to load prior findings: %w", err)
	}

	var out []resolver.PriorFinding
	for _, row := range rows {
		props, err := decodeProperties(row.Properties)
		if err != nil {
			return nil, err
		}

		status, _ := props["status"].(string)
		if status != "open" {
			continue
		}

		fp, _ := props["fingerprint"].(string)
		out = append(out, resolver.PriorFinding{
			NodeID:      row.NodeID,
			Fingerprint: fp,
			Title:       row.Label,
		})
	}
	return out, nil
}

// StoreReview persists g's nodes and edges in a single transaction, then
// embeds and writes a text record per node to the vector store. Node
// persistence and vector persistence happen concurrently via errgroup; a
// vector-store failure does not roll back the graph write, since the
// graph database is the source of truth and the vector index can always
// be rebuilt from it.
func (s *EdgeStore) StoreReview(ctx context.Context, g *graph.Graph,
	sessionID string) error {

	// A plain Group (not WithContext): a failing vector write must not
	// cancel the context the graph transaction runs under.
	var grp errgroup.Group

	grp.Go(func() error {
		return s.writeGraph(ctx, g, sessionID)
	})

	grp.Go(func() error {
		return s.writeEmbeddings(ctx, g)
	})

	return grp.Wait()
}

func (s *EdgeStore) writeGraph(ctx context.Context, g *graph.Graph,
	sessionID string) error {

	return s.db.WithTx(ctx, func(ctx context.Context, q *db.Queries) error {
		now := time.Now().Unix()

		for _, n := range g.Nodes {
			props, err := json.Marshal(n.Properties)
			if err != nil {
				return fmt.Errorf("failed to encode node %s: %w", n.ID, err)
			}

			row := db.NodeRow{
				NodeID:     n.ID,
				NodeType:   string(n.Type),
				Label:      n.Label,
				Properties: string(props),
				CreatedAt:  now,
			}
			if n.SourceReviewID != "" {
				row.ReviewID = sql.NullString{String: n.SourceReviewID, Valid: true}
			}
			if n.Type == graph.NodeFinding {
				row.SessionID = sql.NullString{String: sessionID, Valid: sessionID != ""}
			}

			if err := q.UpsertNode(ctx, row); err != nil {
				return err
			}
		}

		for _, e := range g.Edges {
			if err := q.UpsertEdge(ctx, db.EdgeRow{
				SourceID: e.Source,
				EdgeType: string(e.Type),
				TargetID: e.Target,
				Metadata: "{}",
			}); err != nil {
				return err
			}
		}

		return nil
	})
}

func (s *EdgeStore) writeEmbeddings(ctx context.Context, g *graph.Graph) error {
	if s.vec == nil || s.embed == nil {
		return nil
	}

	texts := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		texts[i] = nodeText(n)
	}

	vectors, err := codebase.EmbedAll(ctx, s.embed, texts)
	if err != nil {
		return fmt.Errorf("failed to embed review nodes: %w", err)
	}

	records := make([]vectorstore.Record, len(g.Nodes))
	for i, n := range g.Nodes {
		records[i] = vectorstore.Record{
			ID:        n.ID,
			Text:      texts[i],
			Embedding: vectors[i],
		}
	}

	_, err = s.vec.AppendUnseen(ctx, nodesTable, records)
	if err != nil {
		return fmt.Errorf("failed to write node embeddings: %w", err)
	}
	return nil
}

// UpdateFindingStatus overwrites a FINDING node's "status" property,
// used to mark nodes "resolved" once the resolver no longer sees them.
func (s *EdgeStore) UpdateFindingStatus(ctx context.Context, nodeID,
	status string) error {

	row, err := s.db.Q().NodeByID(ctx, nodeID)
	if err != nil {
		return fmt.Errorf("failed to load node %s: %w", nodeID, err)
	}

	props, err := decodeProperties(row.Properties)
	if err != nil {
		return err
	}
	props["status"] = status

	encoded, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("failed to encode node %s: %w", nodeID, err)
	}

	return s.db.Q().UpdateNodeProperties(ctx, nodeID, string(encoded))
}

// AuthorTendency summarizes one recurring pattern observed in an
// author's review history, as returned by GetAuthorTendencies.
type AuthorTendency struct {
	Category string
	Title    string
	Count    int
}

// GetAuthorTendencies returns categories/titles that recur across the
// FINDING nodes connected to author's AUTHOR node by a TENDENCY edge,
// ranked by frequency (ties ordered by category, then title).
func (s *EdgeStore) GetAuthorTendencies(ctx context.Context, author string) (
	[]AuthorTendency, error) {

	authorID := graph.NodeID(graph.NodeAuthor, author)

	edges, err := s.db.Q().EdgesByTarget(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load author edges: %w", err)
	}

	counts := make(map[string]*AuthorTendency)
	for _, e := range edges {
		if e.EdgeType != string(graph.EdgeTendency) {
			continue
		}

		node, err := s.db.Q().NodeByID(ctx, e.SourceID)
		if err != nil {
			continue
		}

		props, err := decodeProperties(node.Properties)
		if err != nil {
			continue
		}

		category, _ := props["category"].(string)
		title, _ := props["title"].(string)
		key := category + ":" + title
		if t, ok := counts[key]; ok {
			t.Count++
		} else {
			counts[key] = &AuthorTendency{Category: category, Title: title, Count: 1}
		}
	}

	out := make([]AuthorTendency, 0, len(counts))
	for _, t := range counts {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// GetPatternsForFile returns every FINDING node previously raised
// against filePath, found by following FOUND_IN edges into its FILE node.
func (s *EdgeStore) GetPatternsForFile(ctx context.Context, filePath string) (
	[]db.NodeRow, error) {

	fileID := graph.NodeID(graph.NodeFile, filePath)

	edges, err := s.db.Q().EdgesByTarget(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load file edges: %w", err)
	}

	var out []db.NodeRow
	for _, e := range edges {
		if e.EdgeType != string(graph.EdgeFoundIn) {
			continue
		}
		node, err := s.db.Q().NodeByID(ctx, e.SourceID)
		if err != nil {
			continue
		}
		out = append(out, node)
	}
	return out, nil
}

func decodeProperties(raw string) (map[string]any, error) {
	var props map[string]any
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, fmt.Errorf("failed to decode node properties: %w", err)
	}
	return props, nil
}

func nodeText(n graph.Node) string {
	encoded, _ := json.Marshal(n.Properties)
	return n.Label + " " + string(encoded)
}
