package retryengine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/grippy-ci/grippy/internal/llmclient"
	"github.com/grippy-ci/grippy/internal/reviewschema"
	"github.com/stretchr/testify/require"
)

const validReviewJSON = `{
	"schema_version": "1.0",
	"audit_kind": "pr_review",
	"timestamp": "2026-07-31T00:00:00Z",
	"model": "test-model",
	"pr": {"title": "t", "author": "a", "branch": "b", "complexity_tier": "STANDARD"},
	"scope": {"files_in_diff": [], "files_reviewed": [], "coverage_fraction": 1.0},
	"findings": [],
	"score": {"overall": 90, "breakdown": {"security": 90, "logic": 90, "governance": 90, "reliability": 90, "observability": 90}, "deductions": {}},
	"verdict": {"status": "PASS", "threshold": 70, "merge_blocking": false, "summary": "looks good"},
	"run_meta": {"duration_seconds": 1.5, "tokens_used": 100, "suppressed_count": 0}
}`

// scriptedAgent returns a sequence of contents in order, one per call.
type scriptedAgent struct {
	contents []any
	calls    int
}

func (s *scriptedAgent) Run(ctx context.Context, message string) (llmclient.Response, error) {
	if s.calls >= len(s.contents) {
		return llmclient.Response{}, errors.New("scriptedAgent: no more scripted contents")
	}
	c := s.contents[s.calls]
	s.calls++
	return llmclient.Response{Content: c}, nil
}

func TestRunReview_RetryThenSuccess(t *testing.T) {
	agent := &scriptedAgent{contents: []any{
		"not json at all",
		"```json\nstill not json\n```",
		"```json\n" + validReviewJSON + "\n```",
	}}

	var failures int
	review, err := RunReview(context.Background(), agent, "review this",
		3, func(attempt int, err error) { failures++ })

	require.NoError(t, err)
	require.Equal(t, "test-model", review.Model())
	require.Equal(t, 2, failures)
	require.Equal(t, 3, agent.calls)
}

func TestRunReview_AllFailuresExhaustsRetries(t *testing.T) {
	agent := &scriptedAgent{contents: []any{"x", "y", "z"}}

	_, err := RunReview(context.Background(), agent, "review this", 2, nil)

	require.Error(t, err)
	var parseErr *ReviewParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, 3, parseErr.Attempts)
	require.Equal(t, 3, agent.calls)
}

func TestRunReview_MaxRetriesZeroMeansOneAttempt(t *testing.T) {
	agent := &scriptedAgent{contents: []any{"garbage", validReviewJSON}}

	_, err := RunReview(context.Background(), agent, "review this", 0, nil)

	require.Error(t, err)
	var parseErr *ReviewParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, 1, parseErr.Attempts)
	require.Equal(t, 1, agent.calls)
}

func TestRunReview_NilAndEmptyContentAreValidationFailures(t *testing.T) {
	agent := &scriptedAgent{contents: []any{nil, "", validReviewJSON}}

	review, err := RunReview(context.Background(), agent, "review this", 3, nil)

	require.NoError(t, err)
	require.Equal(t, "test-model", review.Model())
	require.Equal(t, 3, agent.calls)
}

func TestRunReview_MappingContent(t *testing.T) {
	mapping := map[string]any{
		"schema_version": "1.0",
		"audit_kind":     "pr_review",
		"timestamp":      "2026-07-31T00:00:00Z",
		"model":          "map-model",
		"pr": map[string]any{
			"title": "t", "author": "a", "branch": "b",
			"complexity_tier": "STANDARD",
		},
		"scope": map[string]any{
			"files_in_diff": []any{}, "files_reviewed": []any{},
			"coverage_fraction": 1.0,
		},
		"findings": []any{},
		"score": map[string]any{
			"overall": 90,
			"breakdown": map[string]any{
				"security": 90, "logic": 90, "governance": 90,
				"reliability": 90, "observability": 90,
			},
			"deductions": map[string]any{},
		},
		"verdict": map[string]any{
			"status": "PASS", "threshold": 70,
			"merge_blocking": false, "summary": "ok",
		},
		"run_meta": map[string]any{
			"duration_seconds": 1.0, "tokens_used": 1,
			"suppressed_count": 0,
		},
	}

	agent := &scriptedAgent{contents: []any{mapping}}

	review, err := RunReview(context.Background(), agent, "review this", 3, nil)

	require.NoError(t, err)
	require.Equal(t, "map-model", review.Model())
}

// failingTransportAgent always fails at the transport level, never
// returning a Response at all.
type failingTransportAgent struct {
	err   error
	calls int
}

func (f *failingTransportAgent) Run(ctx context.Context, message string) (llmclient.Response, error) {
	f.calls++
	return llmclient.Response{}, f.err
}

func TestRunReview_TransportErrorIsNotRetriedOrWrapped(t *testing.T) {
	transportErr := errors.New("connection refused")
	agent := &failingTransportAgent{err: transportErr}

	var failures int
	_, err := RunReview(context.Background(), agent, "review this", 3,
		func(attempt int, err error) { failures++ })

	require.Error(t, err)
	require.ErrorIs(t, err, transportErr)

	var parseErr *ReviewParseError
	require.False(t, errors.As(err, &parseErr),
		"a transport error must not be wrapped as a ReviewParseError")

	require.Equal(t, 1, agent.calls, "a transport error must not be retried")
	require.Equal(t, 0, failures, "onFailure is only for parse/validation failures")
}

func TestRunReview_ReviewValueContentReturnsImmediately(t *testing.T) {
	var in reviewschema.ReviewInput
	require.NoError(t, json.Unmarshal([]byte(validReviewJSON), &in))
	prebuilt, err := reviewschema.NewReview(in)
	require.NoError(t, err)

	agent := &scriptedAgent{contents: []any{prebuilt}}

	review, err := RunReview(context.Background(), agent, "review this", 3, nil)

	require.NoError(t, err)
	require.Equal(t, "test-model", review.Model())
	require.Equal(t, 1, agent.calls)
}
