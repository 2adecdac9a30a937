// Package retryengine wraps an opaque LLM agent with a parse-and-retry
// loop that coerces arbitrary output into a schema-conformant review,
// re-prompting with an error-feedback message on each failure.
package retryengine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grippy-ci/grippy/internal/llmclient"
	"github.com/grippy-ci/grippy/internal/reviewschema"
)

// retryPromptTemplate is the re-prompt text sent back to the agent after a
// parse or validation failure.
const retryPromptTemplate = "Your previous output failed validation. " +
	"Error: %s\n\nPlease fix the errors and output a valid JSON object " +
	"matching the review schema. Output ONLY the JSON."

// OnFailure is an optional callback invoked once per failed attempt, with
// the 1-based attempt number and the error observed.
type OnFailure func(attempt int, err error)

// RunReview drives agent.Run, normalizing its response content into a
// reviewschema.Review and retrying up to maxRetries additional times
// (maxRetries+1 attempts total) on parse or validation failure.
// maxRetries == 0 means exactly one attempt, no retry message sent.
//
// A transport error from agent.Run itself (a failed request, not a
// malformed response) is returned immediately, unretried and unwrapped: it
// means the agent could not be reached at all, which no amount of
// re-prompting will fix, and the caller needs to tell it apart from a
// genuine parse/validation failure.
func RunReview(ctx context.Context, agent llmclient.Agent, message string,
	maxRetries int, onFailure OnFailure) (reviewschema.Review, error) {

	var (
		errs    []error
		lastRaw string
	)

	currentMessage := message
	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		resp, err := agent.Run(ctx, currentMessage)
		if err != nil {
			return reviewschema.Review{}, err
		}

		review, raw, err := normalize(resp.Content)
		if err != nil {
			errs = append(errs, err)
			lastRaw = raw
			if onFailure != nil {
				onFailure(attempt, err)
			}
			if attempt <= maxRetries {
				currentMessage = fmt.Sprintf(retryPromptTemplate, err)
			}
			continue
		}

		return review, nil
	}

	return reviewschema.Review{}, &ReviewParseError{
		Attempts: maxRetries + 1,
		LastRaw:  truncateRaw(lastRaw),
		Errors:   errs,
	}
}

// normalize matches on the shape of the agent's response content (a
// reviewschema.Review, a decoded mapping, raw text, or nil) and coerces
// whichever one it finds into a reviewschema.Review. It returns the raw
// text form (when applicable) alongside any error, so the caller can
// populate ReviewParseError.LastRaw.
func normalize(content any) (reviewschema.Review, string, error) {
	switch v := content.(type) {
	case nil:
		return reviewschema.Review{}, "", fmt.Errorf(
			"agent returned nil content")

	case reviewschema.Review:
		return v, "", nil

	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return reviewschema.Review{}, "", fmt.Errorf(
				"failed to re-encode mapping content: %w", err)
		}
		review, err := validateJSON(raw)
		return review, string(raw), err

	case string:
		trimmed := stripMarkdownFence(strings.TrimSpace(v))
		if trimmed == "" {
			return reviewschema.Review{}, v, fmt.Errorf(
				"agent returned empty string content")
		}
		review, err := validateJSON([]byte(trimmed))
		return review, v, err

	default:
		return reviewschema.Review{}, fmt.Sprintf("%v", v), fmt.Errorf(
			"agent returned unsupported content type %T", content)
	}
}

func validateJSON(raw []byte) (reviewschema.Review, error) {
	var in reviewschema.ReviewInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return reviewschema.Review{}, fmt.Errorf(
			"failed to parse review JSON: %w", err)
	}
	return reviewschema.NewReview(in)
}

// stripMarkdownFence removes an optional surrounding ``` or ```json
// markdown fence from trimmed text.
func stripMarkdownFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		firstLine := strings.TrimSpace(s[:nl])
		// A bare "```" or a language tag like "json" both count as the
		// fence opener; either way, drop through to the body.
		if firstLine == "" || isFenceLang(firstLine) {
			s = s[nl+1:]
		}
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isFenceLang(s string) bool {
	if len(s) > 20 {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
