package retryengine

import "fmt"

// maxLastRawPreview bounds how much of the last raw, unparseable content is
// kept in a ReviewParseError.
const maxLastRawPreview = 2000

// ReviewParseError is raised when RunReview exhausts every retry without
// producing a schema-valid review.
type ReviewParseError struct {
	// Attempts is the total number of attempts made (maxRetries + 1).
	Attempts int

	// LastRaw is the first 2000 characters of the last attempt's raw
	// content, for diagnostic display.
	LastRaw string

	// Errors is the ordered list of validation/parse errors, one per
	// failed attempt, most-recent last.
	Errors []error
}

// Error implements the error interface.
func (e *ReviewParseError) Error() string {
	var last error
	if n := len(e.Errors); n > 0 {
		last = e.Errors[n-1]
	}
	return fmt.Sprintf("review parse failed after %d attempt(s): %v",
		e.Attempts, last)
}

func truncateRaw(raw string) string {
	if len(raw) <= maxLastRawPreview {
		return raw
	}
	return raw[:maxLastRawPreview]
}
