package posting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/grippy-ci/grippy/internal/reviewschema"
)

const batchSize = 25

var severityEmoji = map[reviewschema.Severity]string{
	reviewschema.SeverityCritical: "\U0001f534",
	reviewschema.SeverityHigh:     "\U0001f7e0",
	reviewschema.SeverityMedium:   "\U0001f7e1",
	reviewschema.SeverityLow:      "\U0001f535",
}

func emojiFor(s reviewschema.Severity) string {
	if e, ok := severityEmoji[s]; ok {
		return e
	}
	return "⚪"
}

// findingMarker returns the hidden HTML comment that identifies which
// finding a review comment corresponds to across rounds.
func findingMarker(fingerprint string) string {
	return fmt.Sprintf("<!-- grippy-finding-%s -->", fingerprint)
}

func summaryMarker(prNumber int) string {
	return fmt.Sprintf("<!-- grippy-summary-%d -->", prNumber)
}

func buildReviewComment(f reviewschema.Finding) *github.DraftReviewComment {
	var b strings.Builder
	fmt.Fprintf(&b, "#### %s %s: %s\n", emojiFor(f.Severity()), f.Severity(), f.Title())
	fmt.Fprintf(&b, "Confidence: %d%%\n\n", f.Confidence())
	b.WriteString(f.Description())
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "**Suggestion:** %s\n\n", f.Suggestion())
	if f.Note() != "" {
		fmt.Fprintf(&b, "*— %s*\n\n", f.Note())
	}
	b.WriteString(findingMarker(f.Fingerprint()))

	body := b.String()
	return &github.DraftReviewComment{
		Path: github.Ptr(f.File()),
		Body: github.Ptr(body),
		Line: github.Ptr(f.LineStart()),
		Side: github.Ptr("RIGHT"),
	}
}

// PostInline submits inline review comments in batches of at most
// batchSize via PullRequests.CreateReview. A batch rejected with HTTP
// 422 (line not part of the diff, most commonly) is returned to the
// caller to fold into the off-diff summary instead of failing the run.
func PostInline(ctx context.Context, vcs VCSClient, owner, repo string, prNumber int,
	findings []reviewschema.Finding) (rejected []reviewschema.Finding, err error) {

	for start := 0; start < len(findings); start += batchSize {
		end := min(start+batchSize, len(findings))
		batch := findings[start:end]

		comments := make([]*github.DraftReviewComment, len(batch))
		for i, f := range batch {
			comments[i] = buildReviewComment(f)
		}

		reqErr := vcs.CreateReview(ctx, owner, repo, prNumber, &github.PullRequestReviewRequest{
			Event:    github.Ptr("COMMENT"),
			Comments: comments,
		})
		if reqErr == nil {
			continue
		}

		var ghErr *github.ErrorResponse
		if errors.As(reqErr, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == 422 {
			rejected = append(rejected, batch...)
			continue
		}
		return rejected, fmt.Errorf("failed to post inline comment batch: %w", reqErr)
	}

	return rejected, nil
}

// SummaryInput carries everything format.go needs to render the
// dashboard comment.
type SummaryInput struct {
	Score         int
	Verdict       string
	FindingCount  int
	NewCount      int
	PersistCount  int
	ResolvedCount int
	OffDiff       []reviewschema.Finding
	HeadSHA       string
	PRNumber      int
}

// UpsertSummary edits the existing summary comment (found by marker)
// or creates a new one, mirroring ghclient's paginated-list-then-edit
// idiom.
func UpsertSummary(ctx context.Context, vcs VCSClient, owner, repo string, in SummaryInput) error {
	body := FormatSummary(in)
	marker := summaryMarker(in.PRNumber)

	existing, err := vcs.ListIssueComments(ctx, owner, repo, in.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to list issue comments: %w", err)
	}

	for _, c := range existing {
		if c.Body != nil && strings.Contains(*c.Body, marker) {
			return vcs.EditIssueComment(ctx, owner, repo, c.GetID(), body)
		}
	}

	return vcs.CreateIssueComment(ctx, owner, repo, in.PRNumber, body)
}

// ResolveThreads resolves each review thread via GraphQL, warning (not
// failing) on individual errors so one bad thread ID doesn't block the
// rest — the caller logs and counts the successes.
func ResolveThreads(ctx context.Context, vcs VCSClient, threadIDs []string) (resolved int, failures []string) {
	for _, id := range threadIDs {
		if err := vcs.ResolveReviewThread(ctx, id); err != nil {
			failures = append(failures, id+": "+err.Error())
			continue
		}
		resolved++
	}
	return resolved, failures
}

func short(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
