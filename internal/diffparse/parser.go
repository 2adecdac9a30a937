// Package diffparse implements the unified-diff line-addressability scanner
// and the inline/off-diff finding classifier.
package diffparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/grippy-ci/grippy/internal/reviewschema"
)

// hunkHeaderRe matches a unified-diff hunk header and captures the
// right-side starting line number, e.g. "@@ -10,2 +10,3 @@ func main() {".
var hunkHeaderRe = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// fileHeaderRe matches "diff --git a/X b/Y" and captures Y.
var fileHeaderRe = regexp.MustCompile(`^diff --git a/\S+ b/(\S+)`)

// AddressabilityMap maps a file path to the set of right-side line numbers
// that appear in any hunk of the diff, i.e. the lines the VCS will accept
// inline comments on.
type AddressabilityMap map[string]map[int]struct{}

// Has reports whether (file, line) is addressable.
func (m AddressabilityMap) Has(file string, line int) bool {
	lines, ok := m[file]
	if !ok {
		return false
	}
	_, ok = lines[line]
	return ok
}

// ParseHunkLines scans unified diff text and returns the addressability
// map, using a per-line state machine over file headers, hunk headers,
// added/removed/context lines, and the "\ No newline at end of file"
// marker.
func ParseHunkLines(diff string) AddressabilityMap {
	result := make(AddressabilityMap)

	var (
		currentFile string
		currentSet  map[int]struct{}
		rightLine   int
	)

	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			if m := fileHeaderRe.FindStringSubmatch(line); m != nil {
				currentFile = m[1]
				currentSet = make(map[int]struct{})
				result[currentFile] = currentSet
			} else {
				currentFile = ""
				currentSet = nil
			}
			rightLine = 0

		case strings.HasPrefix(line, "@@ "):
			if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
				n, err := strconv.Atoi(m[1])
				if err == nil {
					rightLine = n
				}
			}

		case strings.HasPrefix(line, "---"),
			strings.HasPrefix(line, "+++"),
			strings.HasPrefix(line, "new file"),
			strings.HasPrefix(line, "index "),
			strings.HasPrefix(line, `\`):
			// Metadata lines: never advance the counter, never join
			// the set. This explicitly covers "\ No newline at end
			// of file".

		case strings.HasPrefix(line, "-"):
			// Deletion: no advance, no addition.

		case strings.HasPrefix(line, "+"):
			if currentSet != nil {
				currentSet[rightLine] = struct{}{}
			}
			rightLine++

		case strings.HasPrefix(line, " "):
			if currentSet != nil {
				currentSet[rightLine] = struct{}{}
			}
			rightLine++

		default:
			// Binary markers and other non-hunk content: ignored.
		}
	}

	return result
}

// ClassifyFindings splits findings into inline-eligible (file present in
// the addressability map and LineStart addressable) and off-diff (all
// others).
func ClassifyFindings(findings []reviewschema.Finding,
	addressable AddressabilityMap) (inline, offDiff []reviewschema.Finding) {

	for _, f := range findings {
		if addressable.Has(f.File(), f.LineStart()) {
			inline = append(inline, f)
		} else {
			offDiff = append(offDiff, f)
		}
	}
	return inline, offDiff
}
