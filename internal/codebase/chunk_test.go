package codebase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkFile_SmallFileIsOneChunk(t *testing.T) {
	chunks := ChunkFile("a.go", "package main\n", 2000, 200)
	require.Len(t, chunks, 1)
	require.Equal(t, 1, chunks[0].StartLine)
}

func TestChunkFile_LargeFileSlidesWithOverlap(t *testing.T) {
	text := strings.Repeat("x", 1000)
	chunks := ChunkFile("b.go", text, 300, 50)

	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		require.Equal(t, i, c.ChunkIndex)
	}
	// Last chunk reaches the end of the text.
	last := chunks[len(chunks)-1]
	require.True(t, strings.HasSuffix(text, last.Text))
}

func TestChunkFile_OverlapClampedBelowMaxChunkChars(t *testing.T) {
	text := strings.Repeat("y", 500)
	// overlap >= maxChunkChars must not infinite-loop.
	chunks := ChunkFile("c.go", text, 100, 100)
	require.NotEmpty(t, chunks)
	require.Less(t, len(chunks), 1000)
}

func TestChunkFile_EmptyTextProducesNoChunks(t *testing.T) {
	require.Empty(t, ChunkFile("empty.go", "", 100, 10))
}

func TestChunkFile_TracksLineNumbers(t *testing.T) {
	text := "line1\nline2\nline3\nline4\n"
	chunks := ChunkFile("d.go", text, len(text), 0)
	require.Len(t, chunks, 1)
	require.Equal(t, 1, chunks[0].StartLine)
}

func TestFormatSearchResult_HeaderAndBody(t *testing.T) {
	out := FormatSearchResult("x.go", 3, 9, "body text")
	require.Contains(t, out, "--- x.go (lines 3-9) ---")
	require.Contains(t, out, "body text")
}

func TestTruncate_AppendsNotice(t *testing.T) {
	out := Truncate(strings.Repeat("a", 100), 10)
	require.Len(t, strings.Split(out, "\n")[0], 10)
	require.Contains(t, out, "truncated, 90 more bytes omitted")
}

func TestTruncate_NoOpUnderLimit(t *testing.T) {
	require.Equal(t, "short", Truncate("short", 100))
}
