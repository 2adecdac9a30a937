// Package vcsevent parses the CI-provided pull-request event JSON into
// the fields the orchestrator's first stage needs.
package vcsevent

import (
	"encoding/json"
	"fmt"
	"os"
)

// PullRequest is the subset of a pull_request webhook payload the
// pipeline consumes.
type PullRequest struct {
	Number      int
	Title       string
	Author      string
	Description string
	HeadRef     string
	HeadSHA     string
	BaseRef     string
	RepoFull    string
	HeadRepo    string
	BaseRepo    string
}

// IsForkPR reports whether the PR's head and base repositories differ.
func (pr PullRequest) IsForkPR() bool {
	return pr.HeadRepo != pr.BaseRepo
}

type rawEvent struct {
	PullRequest struct {
		Number int     `json:"number"`
		Title  string  `json:"title"`
		Body   *string `json:"body"`
		User   struct {
			Login string `json:"login"`
		} `json:"user"`
		Head struct {
			Ref  string `json:"ref"`
			SHA  string `json:"sha"`
			Repo struct {
				FullName string `json:"full_name"`
			} `json:"repo"`
		} `json:"head"`
		Base struct {
			Ref  string `json:"ref"`
			Repo struct {
				FullName string `json:"full_name"`
			} `json:"repo"`
		} `json:"base"`
	} `json:"pull_request"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// Parse decodes a pull_request event payload.
func Parse(data []byte) (PullRequest, error) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return PullRequest{}, fmt.Errorf("failed to parse event payload: %w", err)
	}

	description := ""
	if raw.PullRequest.Body != nil {
		description = *raw.PullRequest.Body
	}

	return PullRequest{
		Number:      raw.PullRequest.Number,
		Title:       raw.PullRequest.Title,
		Author:      raw.PullRequest.User.Login,
		Description: description,
		HeadRef:     raw.PullRequest.Head.Ref,
		HeadSHA:     raw.PullRequest.Head.SHA,
		BaseRef:     raw.PullRequest.Base.Ref,
		RepoFull:    raw.Repository.FullName,
		HeadRepo:    raw.PullRequest.Head.Repo.FullName,
		BaseRepo:    raw.PullRequest.Base.Repo.FullName,
	}, nil
}

// ParseFile reads and parses the event file at path.
func ParseFile(path string) (PullRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PullRequest{}, fmt.Errorf("failed to read event file %s: %w", path, err)
	}
	return Parse(data)
}
