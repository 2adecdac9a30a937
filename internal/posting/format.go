package posting

import (
	"fmt"
	"strings"
)

var verdictEmoji = map[string]string{
	"PASS":        "✅",
	"FAIL":        "❌",
	"PROVISIONAL": "⚠️",
}

// FormatSummary renders the compact dashboard comment: score, verdict,
// delta against the prior round, a collapsible off-diff findings
// section, and the hidden marker that lets future runs find and edit
// this same comment.
func FormatSummary(in SummaryInput) string {
	emoji, ok := verdictEmoji[in.Verdict]
	if !ok {
		emoji = "\U0001f50d"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s Grippy Review — %s\n\n", emoji, in.Verdict)
	fmt.Fprintf(&b, "**Score: %d/100** | **Findings: %d**\n\n", in.Score, in.FindingCount)
	b.WriteString(scoreBar(in.Score))
	b.WriteString("\n\n")

	var delta []string
	if in.NewCount > 0 {
		delta = append(delta, fmt.Sprintf("%d new", in.NewCount))
	}
	if in.PersistCount > 0 {
		delta = append(delta, fmt.Sprintf("%d persists", in.PersistCount))
	}
	if in.ResolvedCount > 0 {
		delta = append(delta, fmt.Sprintf("✅ %d resolved", in.ResolvedCount))
	}
	if len(delta) > 0 {
		fmt.Fprintf(&b, "**Delta:** %s\n\n", strings.Join(delta, " · "))
	}

	if len(in.OffDiff) > 0 {
		fmt.Fprintf(&b, "<details>\n<summary>Off-diff findings (%d)</summary>\n\n", len(in.OffDiff))
		for _, f := range in.OffDiff {
			fmt.Fprintf(&b, "#### %s %s: %s\n", emojiFor(f.Severity()), f.Severity(), f.Title())
			fmt.Fprintf(&b, "\U0001f4c1 `%s:%d`\n\n", f.File(), f.LineStart())
			b.WriteString(f.Description())
			b.WriteString("\n\n")
			fmt.Fprintf(&b, "**Suggestion:** %s\n\n", f.Suggestion())
		}
		b.WriteString("</details>\n\n")
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "<sub>Commit: %s</sub>\n\n", short(in.HeadSHA))
	b.WriteString(summaryMarker(in.PRNumber))

	return b.String()
}

// scoreBar renders the overall score as a ten-segment filled/empty bar,
// the Go-native analogue of the original's score bar rendering.
func scoreBar(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	filled := score / 10
	return "`" + strings.Repeat("█", filled) + strings.Repeat("░", 10-filled) + "`"
}
