package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPAgent is a concrete Agent that POSTs the message to a configured LLM
// endpoint and JSON-decodes the response body's "content" field into the
// opaque Response.
type HTTPAgent struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewHTTPAgent returns an HTTPAgent for the given config.
func NewHTTPAgent(cfg TransportConfig) *HTTPAgent {
	timeout := cfg.Timeout
	return &HTTPAgent{
		baseURL: cfg.EndpointBaseURL,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type httpAgentRequest struct {
	Model   string `json:"model"`
	Message string `json:"message"`
}

type httpAgentResponse struct {
	Content any `json:"content"`
}

// Run implements Agent.
func (a *HTTPAgent) Run(ctx context.Context, message string) (Response, error) {
	body, err := json.Marshal(httpAgentRequest{Model: a.model, Message: message})
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/v1/agent/run", bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("failed to build agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("agent endpoint returned status %d",
			resp.StatusCode)
	}

	var out httpAgentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("failed to decode agent response: %w", err)
	}

	return Response{Content: out.Content}, nil
}
