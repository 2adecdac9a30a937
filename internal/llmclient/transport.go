package llmclient

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Transport names the concrete Agent implementation the orchestrator
// should assemble.
type Transport string

const (
	// TransportHTTP targets an HTTP(S) LLM endpoint directly.
	TransportHTTP Transport = "http"

	// TransportLocal shells out to a locally installed CLI agent binary.
	TransportLocal Transport = "local"
)

// TransportConfig carries everything needed to construct an Agent once a
// Transport has been resolved.
type TransportConfig struct {
	// Explicit is the transport named explicitly by a CLI flag, if any.
	Explicit string

	// EnvTransport is the value of the transport environment variable,
	// if set.
	EnvTransport string

	// HasAPIKey reports whether an OpenAI-compatible API key was found
	// in the environment. Presence alone is enough to infer TransportHTTP,
	// with a logged notice.
	HasAPIKey bool

	EndpointBaseURL string
	Model           string
	APIKey          string
	CLIPath         string
	Timeout         time.Duration
}

// ResolveTransport picks the Agent transport by precedence: explicit
// parameter > env var > inferred from an API key's presence (with a
// logged notice) > default local.
func ResolveTransport(cfg TransportConfig, log *slog.Logger) (Transport, error) {
	if cfg.Explicit != "" {
		return validateTransport(cfg.Explicit)
	}
	if cfg.EnvTransport != "" {
		return validateTransport(cfg.EnvTransport)
	}
	if cfg.HasAPIKey {
		log.Info("inferring http transport from presence of an " +
			"OpenAI-compatible API key")
		return TransportHTTP, nil
	}
	return TransportLocal, nil
}

func validateTransport(raw string) (Transport, error) {
	switch Transport(strings.ToLower(strings.TrimSpace(raw))) {
	case TransportHTTP:
		return TransportHTTP, nil
	case TransportLocal:
		return TransportLocal, nil
	default:
		return "", NewConfigError("transport",
			fmt.Sprintf("unknown transport %q, want %q or %q",
				raw, TransportHTTP, TransportLocal))
	}
}

// NewAgent constructs the concrete Agent for the resolved transport.
func NewAgent(transport Transport, cfg TransportConfig) (Agent, error) {
	switch transport {
	case TransportHTTP:
		return NewHTTPAgent(cfg), nil
	case TransportLocal:
		return NewCLIAgent(cfg), nil
	default:
		return nil, NewConfigError("transport",
			fmt.Sprintf("unknown transport %q", transport))
	}
}

// CLIAgent drives a locally installed CLI binary as the opaque agent, the
// transport used when no HTTP endpoint is configured. It shells the
// message to the binary's stdin and reads its stdout as the response
// content.
type CLIAgent struct {
	cliPath string
	model   string
	timeout time.Duration
}

// NewCLIAgent returns a CLIAgent for the given config.
func NewCLIAgent(cfg TransportConfig) *CLIAgent {
	cliPath := cfg.CLIPath
	if cliPath == "" {
		cliPath = "claude"
	}
	return &CLIAgent{
		cliPath: cliPath,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

// Run implements Agent.
func (a *CLIAgent) Run(ctx context.Context, message string) (Response, error) {
	runCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	args := []string{"--print"}
	if a.model != "" {
		args = append(args, "--model", a.model)
	}

	cmd := exec.CommandContext(runCtx, a.cliPath, args...)
	cmd.Stdin = strings.NewReader(message)

	out, err := cmd.Output()
	if err != nil {
		return Response{}, fmt.Errorf("cli agent invocation failed: %w", err)
	}

	return Response{Content: string(out)}, nil
}
