// Package orchestrator implements the staged review pipeline: event
// parsing, transport resolution, best-effort codebase indexing, diff
// fetch and capping, agent invocation under a global timeout, graph
// persistence, posting, and CI outputs. It is the composition root for
// every other internal package.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/grippy-ci/grippy/internal/ciconfig"
	"github.com/grippy-ci/grippy/internal/codebase"
	"github.com/grippy-ci/grippy/internal/diffparse"
	"github.com/grippy-ci/grippy/internal/graph"
	"github.com/grippy-ci/grippy/internal/llmclient"
	"github.com/grippy-ci/grippy/internal/posting"
	"github.com/grippy-ci/grippy/internal/resolver"
	"github.com/grippy-ci/grippy/internal/retryengine"
	"github.com/grippy-ci/grippy/internal/reviewschema"
	"github.com/grippy-ci/grippy/internal/store"
	"github.com/grippy-ci/grippy/internal/vcsevent"
)

// maxDiffChars is the hard cap on diff size before truncation.
const maxDiffChars = 200_000

// maxReviewRetries bounds the retry engine to three attempts total (the
// initial attempt plus two re-prompts).
const maxReviewRetries = 2

// Dependencies are the collaborators Run needs. Tests construct this
// directly with fakes; Bootstrap builds the production wiring from
// ciconfig.Config.
type Dependencies struct {
	Log       *slog.Logger
	Agent     llmclient.Agent
	VCS       posting.VCSClient
	Embedder  codebase.Embedder
	EdgeStore *store.EdgeStore
}

// Result summarizes one pipeline run for the caller (cmd/grippy) to
// translate into process exit behavior.
type Result struct {
	Review        reviewschema.Review
	MergeBlocking bool
}

// Run executes the thirteen-stage pipeline against a parsed PR event
// and diff, returning the final Result or a typed error. Stages 3, 9,
// 10, and 11 are best-effort: their failures are logged and do not
// abort the run.
func Run(ctx context.Context, cfg ciconfig.Config, deps Dependencies) (Result, error) {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	// Stage 1: event.
	pr, err := vcsevent.ParseFile(cfg.EventPath)
	if err != nil {
		return Result{}, llmclient.NewConfigError("event_path",
			fmt.Sprintf("failed to parse event file %s: %v", cfg.EventPath, err))
	}
	log.InfoContext(ctx, "parsed PR event", "pr_number", pr.Number, "title", pr.Title)

	owner, repo, err := posting.SplitRepoFull(pr.RepoFull)
	if err != nil {
		return Result{}, llmclient.NewConfigError("repo_full", err.Error())
	}

	// Stage 3: best-effort codebase index. Failures never abort the run;
	// the review simply proceeds without code-search tools.
	if cfg.WorkspaceDir != "" && deps.Embedder != nil {
		vec, verr := openVectorStore(cfg)
		if verr != nil {
			log.WarnContext(ctx, "failed to open vector store for codebase index", "error", verr)
		} else {
			n, ierr := codebase.Index(ctx, log, vec, deps.Embedder, codebase.IndexConfig{
				RepoRoot:      cfg.WorkspaceDir,
				MaxChunkChars: 4000,
				Overlap:       200,
			})
			if ierr != nil {
				log.WarnContext(ctx, "codebase indexing failed, proceeding without code search", "error", ierr)
			} else {
				log.InfoContext(ctx, "codebase index built", "chunks", n)
			}
			vec.Close()
		}
	}

	// Stage 5: diff fetch.
	diff, err := posting.FetchDiff(ctx, deps.VCS, pr.RepoFull, pr.Number)
	if err != nil {
		var dfe *llmclient.DiffFetchError
		if errors.As(err, &dfe) {
			postErrorComment(ctx, log, deps.VCS, owner, repo, pr.Number, "DIFF FETCH ERROR", dfe.Error())
		}
		return Result{}, err
	}

	// Stage 6: diff cap.
	diff = diffparse.TruncateAtFileBoundaries(diff, maxDiffChars)

	// Stage 7: agent invocation under a single wall-clock timeout.
	runCtx := ctx
	if cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	message := BuildUserMessage(pr.Title, pr.Author,
		pr.HeadRef+" → "+pr.BaseRef, pr.Description, diff)

	review, err := retryengine.RunReview(runCtx, deps.Agent, message, maxReviewRetries,
		func(attempt int, rerr error) {
			log.WarnContext(ctx, "agent attempt failed", "attempt", attempt, "error", rerr)
		})
	if err != nil {
		var parseErr *retryengine.ReviewParseError
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			timeoutErr := &TimeoutError{TimeoutSeconds: cfg.TimeoutSeconds}
			postErrorComment(ctx, log, deps.VCS, owner, repo, pr.Number, "TIMEOUT", timeoutErr.Error())
			return Result{}, timeoutErr
		case errors.As(err, &parseErr):
			postErrorComment(ctx, log, deps.VCS, owner, repo, pr.Number, "PARSE ERROR", parseErr.Error())
			return Result{}, err
		default:
			postErrorComment(ctx, log, deps.VCS, owner, repo, pr.Number, "ERROR", err.Error())
			return Result{}, err
		}
	}

	// Stage 8: model override.
	review = review.WithModel(cfg.Model)
	log.InfoContext(ctx, "review complete", "score", review.Score().Overall,
		"verdict", review.Verdict().Status, "findings", len(review.Findings()))

	// Stage 9: graph transform + prior query + persist (best-effort).
	sessionID := pr.RepoFull + "#" + strconv.Itoa(pr.Number)
	var prior []resolver.PriorFinding
	if deps.EdgeStore != nil {
		prior, err = deps.EdgeStore.GetPriorFindings(ctx, sessionID)
		if err != nil {
			log.WarnContext(ctx, "failed to load prior findings", "error", err)
		}

		g := graph.Build(review)
		if err := deps.EdgeStore.StoreReview(ctx, g, sessionID); err != nil {
			log.WarnContext(ctx, "failed to persist review graph", "error", err)
		}
	}

	// Stage 10: post review (best-effort, with rescue comment on failure).
	postResult, err := posting.Post(ctx, deps.VCS, pr.RepoFull, pr.Number,
		review.Findings(), prior, pr.IsForkPR(), diff, pr.HeadSHA,
		review.Score().Overall, string(review.Verdict().Status))
	if err != nil {
		log.WarnContext(ctx, "failed to post review", "error", err)
		if cerr := deps.VCS.CreateIssueComment(ctx, owner, repo, pr.Number,
			"Review completed but failed to post inline comments."); cerr != nil {
			log.WarnContext(ctx, "failed to post rescue comment", "error", cerr)
		}
	}

	// Stage 11: finding-status update (best-effort).
	if deps.EdgeStore != nil {
		for _, resolved := range postResult.Resolution.Resolved {
			if err := deps.EdgeStore.UpdateFindingStatus(ctx, resolved.NodeID, "resolved"); err != nil {
				log.WarnContext(ctx, "failed to update finding status", "node_id", resolved.NodeID, "error", err)
			}
		}
	}

	// Stage 12: CI outputs.
	if err := ciconfig.WriteOutputs(cfg.CIOutputPath, map[string]string{
		"score":          strconv.Itoa(review.Score().Overall),
		"verdict":        string(review.Verdict().Status),
		"findings-count": strconv.Itoa(len(review.Findings())),
		"merge-blocking": strconv.FormatBool(review.Verdict().MergeBlocking),
	}); err != nil {
		log.WarnContext(ctx, "failed to write CI outputs", "error", err)
	}

	// Stage 13: exit.
	return Result{Review: review, MergeBlocking: review.Verdict().MergeBlocking}, nil
}

func postErrorComment(ctx context.Context, log *slog.Logger, vcs posting.VCSClient,
	owner, repo string, prNumber int, header, detail string) {

	body := fmt.Sprintf("## %s\n\n%s", header, detail)
	if err := vcs.CreateIssueComment(ctx, owner, repo, prNumber, body); err != nil {
		log.WarnContext(ctx, "failed to post error comment", "header", header, "error", err)
	}
}
