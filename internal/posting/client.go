// Package posting implements the GitHub-facing side of the pipeline:
// submitting review comments, upserting the summary comment, and
// resolving review threads. It is built on go-github, wrapped behind a
// small VCSClient interface so orchestrator tests can inject a fake.
package posting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/go-github/v68/github"
)

// VCSClient is the subset of the GitHub API the posting adapter needs.
type VCSClient interface {
	GetDiff(ctx context.Context, owner, repo string, number int) (string, error)
	CreateReview(ctx context.Context, owner, repo string, number int, review *github.PullRequestReviewRequest) error
	ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*github.IssueComment, error)
	EditIssueComment(ctx context.Context, owner, repo string, commentID int64, body string) error
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error
	ResolveReviewThread(ctx context.Context, threadID string) error
}

// client implements VCSClient by delegating to go-github, falling back
// to a raw GraphQL POST for the one mutation go-github doesn't expose.
type client struct {
	gh      *github.Client
	token   string
	graphQL string
}

// NewClient builds a VCSClient authenticated with token. baseURL
// overrides the GraphQL endpoint for tests; pass "" for the real API.
func NewClient(token, baseURL string) VCSClient {
	graphQL := "https://api.github.com/graphql"
	if baseURL != "" {
		graphQL = baseURL
	}
	return &client{
		gh:      github.NewClient(nil).WithAuthToken(token),
		token:   token,
		graphQL: graphQL,
	}
}

// GetDiff fetches the PR diff using the raw-diff media type.
func (c *client) GetDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	diff, _, err := c.gh.PullRequests.GetRaw(ctx, owner, repo, number,
		github.RawOptions{Type: github.Diff})
	if err != nil {
		return "", err
	}
	return diff, nil
}

func (c *client) CreateReview(ctx context.Context, owner, repo string, number int, review *github.PullRequestReviewRequest) error {
	_, _, err := c.gh.PullRequests.CreateReview(ctx, owner, repo, number, review)
	return err
}

func (c *client) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*github.IssueComment, error) {
	var all []*github.IssueComment
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, comments...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (c *client) EditIssueComment(ctx context.Context, owner, repo string, commentID int64, body string) error {
	_, _, err := c.gh.Issues.EditComment(ctx, owner, repo, commentID, &github.IssueComment{
		Body: github.Ptr(body),
	})
	return err
}

func (c *client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	_, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	return err
}

// ResolveReviewThread issues the resolveReviewThread GraphQL mutation
// with threadID carried as a named variable — never interpolated into
// the query string, matching ghclient.graphqlMarkReady's pattern.
func (c *client) ResolveReviewThread(ctx context.Context, threadID string) error {
	query := `mutation($threadId: ID!) {
		resolveReviewThread(input: {threadId: $threadId}) {
			thread { isResolved }
		}
	}`

	payload := map[string]any{
		"query":     query,
		"variables": map[string]string{"threadId": threadID},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphQL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create GraphQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("GraphQL request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GraphQL returned HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("GraphQL error: %s", result.Errors[0].Message)
	}
	return nil
}
