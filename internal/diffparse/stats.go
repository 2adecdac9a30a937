package diffparse

import (
	"strconv"
	"strings"
)

// DiffStats is a cheap line-scanning summary of a unified diff, used in the
// PR metadata block of the orchestrator's agent prompt. It summarizes diff
// output for display rather than semantic interpretation.
type DiffStats struct {
	Files     int
	Additions int
	Deletions int
}

// Stats computes a DiffStats over unified diff text using the same
// line-prefix scan as ParseHunkLines, so the two stay consistent about
// what counts as a file boundary, an addition, or a deletion.
func Stats(diff string) DiffStats {
	var stats DiffStats

	inHunk := false
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			stats.Files++
			inHunk = false
		case strings.HasPrefix(line, "@@ "):
			inHunk = true
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			// Skip file-header +/- lines; they are not hunk content.
		case inHunk && strings.HasPrefix(line, "+"):
			stats.Additions++
		case inHunk && strings.HasPrefix(line, "-"):
			stats.Deletions++
		}
	}

	return stats
}

// TruncateAtFileBoundaries truncates diff to at most maxChars, cutting only
// at a "diff --git" file-block boundary and appending a notice naming how
// many files were dropped.
func TruncateAtFileBoundaries(diff string, maxChars int) string {
	if len(diff) <= maxChars {
		return diff
	}

	blocks := splitFileBlocks(diff)

	var (
		kept    strings.Builder
		dropped int
	)
	for i, block := range blocks {
		if kept.Len()+len(block) > maxChars {
			dropped = len(blocks) - i
			break
		}
		kept.WriteString(block)
	}

	if kept.Len() == 0 {
		// Even the first block alone exceeds maxChars; hard-truncate it
		// and count it among the truncated files in the notice.
		kept.WriteString(blocks[0][:min(maxChars, len(blocks[0]))])
	}

	if dropped > 0 {
		plural := "s"
		if dropped == 1 {
			plural = ""
		}
		kept.WriteString("\n... ")
		kept.WriteString(strconv.Itoa(dropped))
		kept.WriteString(" file" + plural + " truncated")
	}

	return kept.String()
}

// splitFileBlocks splits diff text into chunks, each starting at a
// "diff --git" boundary (the first chunk may be preamble before the first
// boundary, if any).
func splitFileBlocks(diff string) []string {
	lines := strings.Split(diff, "\n")

	var blocks []string
	var current strings.Builder
	started := false

	flush := func() {
		if current.Len() > 0 {
			blocks = append(blocks, current.String())
			current.Reset()
		}
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git ") {
			if started {
				flush()
			}
			started = true
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()

	return blocks
}
