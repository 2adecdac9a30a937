// Package vectorstore implements the append-only, sqlite-vec-backed vector
// tables the dual-store persistence layer uses for semantic search over
// review graph nodes and indexed codebase chunks.
package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	// Register sqlite-vec as an auto-loadable extension with the
	// mattn/go-sqlite3 driver, the way the example pack's codenerd/
	// mindnest stores do.
	vec.Auto()
}

// Record is one row of a vector table: an identifier, its textual
// representation, and its embedding.
type Record struct {
	ID        string
	Text      string
	Embedding []float32
}

// Match is a search result: a Record plus its cosine similarity to the
// query embedding (1.0 == identical direction).
type Match struct {
	Record
	Similarity float64
}

// Store wraps a dedicated sqlite database (under <data-dir>/vectors/) that
// hosts one vec0 virtual table per logical table name. Tables are created
// lazily on first write.
type Store struct {
	db  *sql.DB
	dim int
}

// DefaultDir returns the default vector-store directory within a data
// directory.
func DefaultDir(dataDir string) string {
	return filepath.Join(dataDir, "vectors")
}

// Open opens (creating if necessary) the vector database in dir, sized
// for embeddings of the given dimension.
func Open(dir string, dim int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create vector store directory: %w", err)
	}

	dbPath := filepath.Join(dir, "vectors.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	return &Store{db: db, dim: dim}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureTable(ctx context.Context, table string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(
			embedding float[%d],
			id TEXT,
			text TEXT
		)`, table, s.dim))
	if err != nil {
		return fmt.Errorf("failed to create vector table %s: %w", table, err)
	}
	return nil
}

// SeenIDs returns the set of identifiers already present in table. Callers
// use this to implement "read the current identifier set, append only
// unseen" writes.
func (s *Store) SeenIDs(ctx context.Context, table string) (map[string]struct{}, error) {
	if err := s.ensureTable(ctx, table); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id FROM %s", table))
	if err != nil {
		return nil, fmt.Errorf("failed to list ids in %s: %w", table, err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id in %s: %w", table, err)
		}
		seen[id] = struct{}{}
	}
	return seen, rows.Err()
}

// AppendUnseen inserts every record in records whose ID is not already
// present in table, per the previously-seen-set read in SeenIDs. It
// returns the number of rows actually inserted.
func (s *Store) AppendUnseen(ctx context.Context, table string,
	records []Record) (int, error) {

	if len(records) == 0 {
		return 0, nil
	}

	seen, err := s.SeenIDs(ctx, table)
	if err != nil {
		return 0, err
	}

	stmt, err := s.db.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s(embedding, id, text) VALUES (?, ?, ?)", table))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer stmt.Close()

	var inserted int
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			continue
		}

		blob, err := vec.SerializeFloat32(r.Embedding)
		if err != nil {
			return inserted, fmt.Errorf("failed to serialize embedding for %s: %w",
				r.ID, err)
		}

		if _, err := stmt.ExecContext(ctx, blob, r.ID, r.Text); err != nil {
			return inserted, fmt.Errorf("failed to insert %s into %s: %w",
				r.ID, table, err)
		}
		seen[r.ID] = struct{}{}
		inserted++
	}

	return inserted, nil
}

// Truncate removes every row from table, creating it first if absent.
// Callers use this for tables like codebase_chunks, which are recreated by
// overwriting the table wholesale on each indexing build.
func (s *Store) Truncate(ctx context.Context, table string) error {
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s", table)); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", table, err)
	}
	return nil
}

// Search embeds nothing itself — callers pass an already-embedded query
// vector — and returns the topK records in table ordered by cosine
// similarity, nearest first. The ranking and the distance computation both
// run inside sqlite-vec's vec_distance_cosine, rather than pulling every
// row into Go to score by hand.
func (s *Store) Search(ctx context.Context, table string, query []float32,
	topK int) ([]Match, error) {

	if err := s.ensureTable(ctx, table); err != nil {
		return nil, err
	}

	queryBlob, err := vec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query embedding: %w", err)
	}

	limit := topK
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, text, embedding, vec_distance_cosine(embedding, ?) AS dist
		 FROM %s ORDER BY dist ASC LIMIT ?`, table), queryBlob, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector table %s: %w", table, err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			id, text string
			blob     []byte
			dist     float64
		)
		if err := rows.Scan(&id, &text, &blob, &dist); err != nil {
			return nil, fmt.Errorf("failed to scan row in %s: %w", table, err)
		}

		matches = append(matches, Match{
			Record:     Record{ID: id, Text: text, Embedding: decodeFloat32(blob)},
			Similarity: 1 - dist,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return matches, nil
}

func decodeFloat32(blob []byte) []float32 {
	out := make([]float32, len(blob)/4)
	for i := range out {
		bits := uint32(blob[i*4]) | uint32(blob[i*4+1])<<8 |
			uint32(blob[i*4+2])<<16 | uint32(blob[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}
