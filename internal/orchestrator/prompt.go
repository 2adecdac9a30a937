package orchestrator

import (
	"fmt"
	"strings"

	"github.com/grippy-ci/grippy/internal/diffparse"
)

// BuildUserMessage composes the agent-facing PR context message: an
// XML-tagged metadata block followed by the (possibly capped) diff. The
// static prompt-file corpus (persona/mode instructions, if any) is
// assembled elsewhere; only the per-invocation context varies here.
func BuildUserMessage(title, author, branch, description, diff string) string {
	stats := diffparse.Stats(diff)

	var b strings.Builder
	fmt.Fprintf(&b, "<pr_metadata>\n")
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "Author: %s\n", author)
	fmt.Fprintf(&b, "Branch: %s\n", branch)
	fmt.Fprintf(&b, "Description: %s\n", description)
	fmt.Fprintf(&b, "Changed Files: %d\n", stats.Files)
	fmt.Fprintf(&b, "Additions: %d\n", stats.Additions)
	fmt.Fprintf(&b, "Deletions: %d\n", stats.Deletions)
	b.WriteString("</pr_metadata>\n\n")

	fmt.Fprintf(&b, "<diff>\n%s\n</diff>", diff)

	return b.String()
}
