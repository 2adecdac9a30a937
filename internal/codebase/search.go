package codebase

import (
	"context"
	"fmt"
	"strings"

	"github.com/grippy-ci/grippy/internal/vectorstore"
)

// maxSearchResultChars is the truncation bound shared by every search
// tool.
const maxSearchResultChars = 12000

// SemanticSearch embeds query, retrieves the topK nearest codebase
// chunks by cosine similarity, and renders them as "--- file (lines
// A-B) ---\ntext" blocks joined and truncated at 12,000 characters.
func SemanticSearch(ctx context.Context, vec *vectorstore.Store,
	embedder Embedder, query string, topK int) (string, error) {

	vector, err := embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := vec.Search(ctx, chunksTable, vector, topK)
	if err != nil {
		return "", fmt.Errorf("failed to search codebase index: %w", err)
	}

	var blocks []string
	for _, m := range matches {
		// m.Text already carries the "--- file (lines A-B) ---" header
		// from encodeChunkText at index time.
		blocks = append(blocks, m.Text)
	}

	return Truncate(strings.Join(blocks, "\n\n"), maxSearchResultChars), nil
}

// Truncate caps s at maxChars, appending an explicit notice about how
// many bytes were dropped.
func Truncate(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	omitted := len(s) - maxChars
	return fmt.Sprintf("%s\n[truncated, %d more bytes omitted]", s[:maxChars], omitted)
}
