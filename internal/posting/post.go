package posting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/grippy-ci/grippy/internal/diffparse"
	"github.com/grippy-ci/grippy/internal/llmclient"
	"github.com/grippy-ci/grippy/internal/resolver"
	"github.com/grippy-ci/grippy/internal/reviewschema"
)

// FetchDiff fetches the PR diff, wrapping any failure in a
// *llmclient.DiffFetchError so the orchestrator can route a 403 to
// fork-token guidance.
func FetchDiff(ctx context.Context, vcs VCSClient, repoFull string, prNumber int) (string, error) {
	owner, repo, err := splitRepoFull(repoFull)
	if err != nil {
		return "", err
	}

	diff, err := vcs.GetDiff(ctx, owner, repo, prNumber)
	if err != nil {
		status := 0
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil {
			status = ghErr.Response.StatusCode
		}
		return "", llmclient.NewDiffFetchError(status, err)
	}
	return diff, nil
}

// Result is what the orchestrator needs back from a Post call to drive
// its own follow-up stages (finding-status updates, logging).
type Result struct {
	Resolution     resolver.Result
	RejectedInline []reviewschema.Finding
}

// Post posts a full review round: fork-aware inline/off-diff
// classification, batched inline comments with 422 fallback, and the
// summary dashboard upsert. Mirrors the original's post_review, split
// across diffparse (classification), resolver (trichotomy) and this
// package (formatting + submission).
func Post(ctx context.Context, vcs VCSClient, repoFull string, prNumber int,
	findings []reviewschema.Finding, prior []resolver.PriorFinding,
	isFork bool, diff, headSHA string, score int, verdict string) (Result, error) {

	owner, repo, err := splitRepoFull(repoFull)
	if err != nil {
		return Result{}, err
	}

	resolution := resolver.Resolve(findings, prior)

	var inline, offDiff []reviewschema.Finding
	if isFork {
		offDiff = findings
	} else {
		addressable := diffparse.ParseHunkLines(diff)
		inline, offDiff = diffparse.ClassifyFindings(findings, addressable)
	}

	var rejected []reviewschema.Finding
	if len(inline) > 0 {
		rejected, err = PostInline(ctx, vcs, owner, repo, prNumber, inline)
		if err != nil {
			return Result{Resolution: resolution}, err
		}
		offDiff = append(offDiff, rejected...)
	}

	err = UpsertSummary(ctx, vcs, owner, repo, SummaryInput{
		Score:         score,
		Verdict:       verdict,
		FindingCount:  len(findings),
		NewCount:      len(resolution.New),
		PersistCount:  len(resolution.Persisting),
		ResolvedCount: len(resolution.Resolved),
		OffDiff:       offDiff,
		HeadSHA:       headSHA,
		PRNumber:      prNumber,
	})
	if err != nil {
		return Result{Resolution: resolution, RejectedInline: rejected}, fmt.Errorf("failed to upsert summary comment: %w", err)
	}

	return Result{Resolution: resolution, RejectedInline: rejected}, nil
}

// SplitRepoFull splits an "owner/repo" full name, for callers (e.g. the
// orchestrator's error-comment paths) that need owner/repo without
// going through Post or FetchDiff.
func SplitRepoFull(repoFull string) (owner, repo string, err error) {
	return splitRepoFull(repoFull)
}

func splitRepoFull(repoFull string) (owner, repo string, err error) {
	parts := strings.SplitN(repoFull, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository full name %q, expected owner/repo", repoFull)
	}
	return parts[0], parts[1], nil
}
