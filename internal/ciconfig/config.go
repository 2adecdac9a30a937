// Package ciconfig resolves the orchestrator's external configuration
// from environment variables and writes results to the CI output sink.
package ciconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	envToken          = "GRIPPY_TOKEN"
	envEventPath      = "GRIPPY_EVENT_PATH"
	envEndpointURL    = "GRIPPY_ENDPOINT_BASE_URL"
	envModel          = "GRIPPY_MODEL"
	envEmbeddingModel = "GRIPPY_EMBEDDING_MODEL"
	envTransport      = "GRIPPY_TRANSPORT"
	envAPIKey         = "GRIPPY_API_KEY"
	envDataDir        = "GRIPPY_DATA_DIR"
	envTimeoutSeconds = "GRIPPY_TIMEOUT_SECONDS"
	envCIOutputPath   = "GITHUB_OUTPUT"
	envWorkspaceDir   = "GITHUB_WORKSPACE"

	defaultDataDir        = ".grippy"
	defaultTimeoutSeconds = 300
	defaultWorkspaceDir   = "."
)

// Config is the orchestrator's fully resolved set of external inputs.
type Config struct {
	Token          string
	EventPath      string
	EndpointURL    string
	Model          string
	EmbeddingModel string
	Transport      string
	APIKey         string
	DataDir        string
	TimeoutSeconds int
	CIOutputPath   string
	WorkspaceDir   string
}

// FromEnv reads every configuration input from its environment
// variable, applying the documented defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		Token:          os.Getenv(envToken),
		EventPath:      os.Getenv(envEventPath),
		EndpointURL:    os.Getenv(envEndpointURL),
		Model:          os.Getenv(envModel),
		EmbeddingModel: os.Getenv(envEmbeddingModel),
		Transport:      os.Getenv(envTransport),
		APIKey:         os.Getenv(envAPIKey),
		DataDir:        os.Getenv(envDataDir),
		CIOutputPath:   os.Getenv(envCIOutputPath),
		WorkspaceDir:   os.Getenv(envWorkspaceDir),
		TimeoutSeconds: defaultTimeoutSeconds,
	}

	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir
	}
	if cfg.WorkspaceDir == "" {
		cfg.WorkspaceDir = defaultWorkspaceDir
	}

	if raw := os.Getenv(envTimeoutSeconds); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s must be an integer, got %q: %w",
				envTimeoutSeconds, raw, err)
		}
		cfg.TimeoutSeconds = seconds
	}

	return cfg, nil
}

// WriteOutputs appends each key/value pair to the CI output sink at
// path as newline-separated "key=value" lines. A no-op when path is
// empty.
func WriteOutputs(path string, kv map[string]string) error {
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open CI output sink %s: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	for k, v := range kv {
		fmt.Fprintf(&b, "%s=%s\n", k, v)
	}

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write CI outputs to %s: %w", path, err)
	}
	return nil
}
