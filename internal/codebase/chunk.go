package codebase

import (
	"strconv"
	"strings"
)

// Chunk is one indexable slice of a source file.
type Chunk struct {
	RelativeFilePath string
	ChunkIndex       int
	StartLine        int
	EndLine          int
	Text             string
}

// ChunkFile splits text into overlapping character windows. Files at or
// under maxChunkChars become a single chunk; larger files slide a window
// of maxChunkChars with overlap characters of tail carryover. An
// overlap >= maxChunkChars is clamped to maxChunkChars-1 to guarantee
// forward progress.
func ChunkFile(path, text string, maxChunkChars, overlap int) []Chunk {
	if maxChunkChars <= 0 {
		maxChunkChars = 2000
	}
	if overlap >= maxChunkChars {
		overlap = maxChunkChars - 1
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	lineStarts := newlineIndex(runes)

	if len(runes) <= maxChunkChars {
		return []Chunk{{
			RelativeFilePath: path,
			ChunkIndex:       0,
			StartLine:        1,
			EndLine:          lineForOffset(lineStarts, len(runes)-1),
			Text:             string(runes),
		}}
	}

	stride := maxChunkChars - overlap
	var chunks []Chunk
	for start, idx := 0, 0; start < len(runes); start += stride {
		end := start + maxChunkChars
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, Chunk{
			RelativeFilePath: path,
			ChunkIndex:       idx,
			StartLine:        lineForOffset(lineStarts, start),
			EndLine:          lineForOffset(lineStarts, end-1),
			Text:             string(runes[start:end]),
		})
		idx++

		if end == len(runes) {
			break
		}
	}
	return chunks
}

// newlineIndex returns the rune offset of every newline in runes, used
// to map a character offset back to a 1-based line number.
func newlineIndex(runes []rune) []int {
	var idx []int
	for i, r := range runes {
		if r == '\n' {
			idx = append(idx, i)
		}
	}
	return idx
}

// lineForOffset returns the 1-based line number containing rune offset.
func lineForOffset(newlines []int, offset int) int {
	line := 1
	for _, n := range newlines {
		if n < offset {
			line++
		} else {
			break
		}
	}
	return line
}

// FormatSearchResult renders a chunk the way semantic/regex search
// present a hit to the agent: a header line followed by the chunk text.
func FormatSearchResult(file string, startLine, endLine int, text string) string {
	var b strings.Builder
	b.WriteString("--- ")
	b.WriteString(file)
	b.WriteString(" (lines ")
	b.WriteString(strconv.Itoa(startLine))
	b.WriteString("-")
	b.WriteString(strconv.Itoa(endLine))
	b.WriteString(") ---\n")
	b.WriteString(text)
	return b.String()
}
