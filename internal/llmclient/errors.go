package llmclient

import "fmt"

// ConfigError is raised when the orchestrator cannot resolve a valid
// transport, or a required piece of configuration is missing. It always
// routes to an error comment and a nonzero exit.
type ConfigError struct {
	// Field names the offending configuration input, e.g. "transport" or
	// "endpoint_base_url".
	Field string

	// Reason is a short human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Reason)
}

// NewConfigError constructs a *ConfigError.
func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

// DiffFetchError wraps a failure fetching the PR diff from the VCS. A 403
// carries fork-token guidance, since it usually means the CI token is
// read-only against a fork PR rather than a genuine permission problem.
type DiffFetchError struct {
	StatusCode int
	Err        error

	// ForkGuidance is set when the status code suggests the CI token
	// lacks write access because this run is against a fork PR.
	ForkGuidance bool
}

// Error implements the error interface.
func (e *DiffFetchError) Error() string {
	if e.ForkGuidance {
		return fmt.Sprintf("diff fetch failed (status %d, likely a "+
			"fork PR with a read-only CI token): %v",
			e.StatusCode, e.Err)
	}
	return fmt.Sprintf("diff fetch failed (status %d): %v",
		e.StatusCode, e.Err)
}

// Unwrap returns the wrapped error.
func (e *DiffFetchError) Unwrap() error { return e.Err }

// NewDiffFetchError constructs a *DiffFetchError, setting ForkGuidance when
// statusCode is 403.
func NewDiffFetchError(statusCode int, err error) *DiffFetchError {
	return &DiffFetchError{
		StatusCode:   statusCode,
		Err:          err,
		ForkGuidance: statusCode == 403,
	}
}
