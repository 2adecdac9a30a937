// Package llmclient models the opaque LLM "agent" capability the retry
// engine drives, and provides concrete HTTP- and CLI-backed adapters for
// it. This package only owns the shape of the request/response boundary;
// it has no opinion on what lives behind it.
package llmclient

import "context"

// Response is the opaque value an Agent returns. Content may be a
// reviewschema.Review, a map[string]any, a JSON/markdown-fenced string, or
// nil — retryengine.RunReview is responsible for normalizing it.
type Response struct {
	Content any
}

// Agent is the capability injected into the structured-output retry
// engine. Concrete agents wrap an LLM endpoint; tests inject a scripted
// fake that returns a fixed sequence of contents.
type Agent interface {
	Run(ctx context.Context, message string) (Response, error)
}

// AgentFunc adapts a plain function to the Agent interface, the way a
// scripted test double is built without a full struct.
type AgentFunc func(ctx context.Context, message string) (Response, error)

// Run implements Agent.
func (f AgentFunc) Run(ctx context.Context, message string) (Response, error) {
	return f(ctx, message)
}
