package codebase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/grippy-ci/grippy/internal/vectorstore"
)

const chunksTable = "codebase_chunks"

// IndexConfig controls a codebase index build.
type IndexConfig struct {
	RepoRoot      string
	Extensions    []string
	MaxChunkChars int
	Overlap       int
}

// Index reads, chunks, embeds and persists the repository's source
// files into the vector store's "codebase_chunks" table. The table is
// recreated by overwriting on each build: Index truncates it first so
// stale chunks from deleted/renamed files don't linger.
func Index(ctx context.Context, log *slog.Logger, vec *vectorstore.Store,
	embedder Embedder, cfg IndexConfig) (int, error) {

	files, err := ListFiles(ctx, log, WalkConfig{
		RepoRoot: cfg.RepoRoot, Extensions: cfg.Extensions,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list files: %w", err)
	}

	if err := vec.Truncate(ctx, chunksTable); err != nil {
		return 0, fmt.Errorf("failed to reset codebase index: %w", err)
	}

	var allChunks []Chunk
	for _, rel := range files {
		text, err := os.ReadFile(filepath.Join(cfg.RepoRoot, rel))
		if err != nil {
			log.WarnContext(ctx, "skipping unreadable file", "file", rel,
				"error", err)
			continue
		}

		allChunks = append(allChunks,
			ChunkFile(rel, string(text), cfg.MaxChunkChars, cfg.Overlap)...)
	}

	if len(allChunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(allChunks))
	for i, c := range allChunks {
		texts[i] = c.Text
	}

	vectors, err := EmbedAll(ctx, embedder, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed codebase chunks: %w", err)
	}

	records := make([]vectorstore.Record, len(allChunks))
	for i, c := range allChunks {
		records[i] = vectorstore.Record{
			ID:        chunkID(c),
			Text:      encodeChunkText(c),
			Embedding: vectors[i],
		}
	}

	n, err := vec.AppendUnseen(ctx, chunksTable, records)
	if err != nil {
		return 0, fmt.Errorf("failed to persist codebase chunks: %w", err)
	}
	return n, nil
}

func chunkID(c Chunk) string {
	return fmt.Sprintf("%s#%d", c.RelativeFilePath, c.ChunkIndex)
}

func encodeChunkText(c Chunk) string {
	return FormatSearchResult(c.RelativeFilePath, c.StartLine, c.EndLine, c.Text)
}

// DecodeChunkID splits a record identifier produced by chunkID back into
// its file path and chunk index.
func DecodeChunkID(id string) (file string, index int) {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '#' {
			file = id[:i]
			fmt.Sscanf(id[i+1:], "%d", &index)
			return file, index
		}
	}
	return id, 0
}
