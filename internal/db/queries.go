package db

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of *sql.DB / *sql.Tx that Queries needs. Passing
// either a pooled connection or an open transaction lets the same query
// methods run standalone or inside ExecTx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries is the hand-written analogue of a sqlc-generated Querier: every
// SQL statement the review graph store needs, bound to a DBTX so the same
// method set works against the pool or a transaction.
type Queries struct {
	db DBTX
}

// New returns a Queries bound to the given executor.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// NodeRow is a row of the node_meta table.
type NodeRow struct {
	NodeID     string
	NodeType   string
	Label      string
	Properties string
	ReviewID   sql.NullString
	SessionID  sql.NullString
	CreatedAt  int64
}

// EdgeRow is a row of the edges table.
type EdgeRow struct {
	SourceID string
	EdgeType string
	TargetID string
	Metadata string
}

// UpsertNode inserts a node_meta row, ignoring the insert if the node
// identifier already exists (content-addressed identifiers make this safe:
// identical content always produces identical rows).
func (q *Queries) UpsertNode(ctx context.Context, n NodeRow) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO node_meta
			(node_id, node_type, label, properties_json, review_id,
			 session_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.NodeID, n.NodeType, n.Label, n.Properties, n.ReviewID, n.SessionID,
		n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert node %s: %w", n.NodeID, err)
	}
	return nil
}

// UpsertEdge inserts an edge row, ignoring the insert if the
// (source, type, target) triple already exists.
func (q *Queries) UpsertEdge(ctx context.Context, e EdgeRow) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO edges (source_id, edge_type, target_id,
			metadata_json)
		VALUES (?, ?, ?, ?)
	`, e.SourceID, e.EdgeType, e.TargetID, e.Metadata)
	if err != nil {
		return fmt.Errorf("failed to upsert edge %s-%s->%s: %w",
			e.SourceID, e.EdgeType, e.TargetID, err)
	}
	return nil
}

// CountEdges returns the total number of edge rows, used by the store
// package's persistence test.
func (q *Queries) CountEdges(ctx context.Context) (int64, error) {
	var n int64
	row := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count edges: %w", err)
	}
	return n, nil
}

// EdgesBySource returns every edge originating at sourceID.
func (q *Queries) EdgesBySource(ctx context.Context, sourceID string) ([]EdgeRow, error) {
	return q.queryEdges(ctx, `
		SELECT source_id, edge_type, target_id, metadata_json
		FROM edges WHERE source_id = ?
	`, sourceID)
}

// EdgesByTarget returns every edge pointing at targetID.
func (q *Queries) EdgesByTarget(ctx context.Context, targetID string) ([]EdgeRow, error) {
	return q.queryEdges(ctx, `
		SELECT source_id, edge_type, target_id, metadata_json
		FROM edges WHERE target_id = ?
	`, targetID)
}

// EdgesByType returns every edge of the given type.
func (q *Queries) EdgesByType(ctx context.Context, edgeType string) ([]EdgeRow, error) {
	return q.queryEdges(ctx, `
		SELECT source_id, edge_type, target_id, metadata_json
		FROM edges WHERE edge_type = ?
	`, edgeType)
}

func (q *Queries) queryEdges(ctx context.Context, query string,
	arg any) ([]EdgeRow, error) {

	rows, err := q.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var out []EdgeRow
	for rows.Next() {
		var e EdgeRow
		if err := rows.Scan(&e.SourceID, &e.EdgeType, &e.TargetID,
			&e.Metadata); err != nil {

			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// NodeByID returns a single node_meta row by its identifier.
func (q *Queries) NodeByID(ctx context.Context, nodeID string) (NodeRow, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT node_id, node_type, label, properties_json, review_id,
		       session_id, created_at
		FROM node_meta WHERE node_id = ?
	`, nodeID)

	var n NodeRow
	err := row.Scan(&n.NodeID, &n.NodeType, &n.Label, &n.Properties,
		&n.ReviewID, &n.SessionID, &n.CreatedAt)
	if err != nil {
		return NodeRow{}, fmt.Errorf("failed to load node %s: %w",
			nodeID, err)
	}
	return n, nil
}

// NodesByTypeAndLabel returns every node of nodeType whose label matches.
func (q *Queries) NodesByTypeAndLabel(ctx context.Context, nodeType,
	label string) ([]NodeRow, error) {

	rows, err := q.db.QueryContext(ctx, `
		SELECT node_id, node_type, label, properties_json, review_id,
		       session_id, created_at
		FROM node_meta WHERE node_type = ? AND label = ?
	`, nodeType, label)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var out []NodeRow
	for rows.Next() {
		var n NodeRow
		if err := rows.Scan(&n.NodeID, &n.NodeType, &n.Label,
			&n.Properties, &n.ReviewID, &n.SessionID,
			&n.CreatedAt); err != nil {

			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// NodesBySessionAndType returns every node in a session of the given type.
// Used to find open findings scoped to one PR.
func (q *Queries) NodesBySessionAndType(ctx context.Context, sessionID,
	nodeType string) ([]NodeRow, error) {

	rows, err := q.db.QueryContext(ctx, `
		SELECT node_id, node_type, label, properties_json, review_id,
		       session_id, created_at
		FROM node_meta WHERE session_id = ? AND node_type = ?
	`, sessionID, nodeType)
	if err != nil {
		return nil, fmt.Errorf("failed to query session nodes: %w", err)
	}
	defer rows.Close()

	var out []NodeRow
	for rows.Next() {
		var n NodeRow
		if err := rows.Scan(&n.NodeID, &n.NodeType, &n.Label,
			&n.Properties, &n.ReviewID, &n.SessionID,
			&n.CreatedAt); err != nil {

			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UpdateNodeProperties overwrites the properties_json blob for a node.
func (q *Queries) UpdateNodeProperties(ctx context.Context, nodeID,
	properties string) error {

	res, err := q.db.ExecContext(ctx, `
		UPDATE node_meta SET properties_json = ? WHERE node_id = ?
	`, properties, nodeID)
	if err != nil {
		return fmt.Errorf("failed to update node %s: %w", nodeID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("node %s not found", nodeID)
	}
	return nil
}
