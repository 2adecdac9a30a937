// Package reviewschema defines the frozen, schema-validated Review and
// Finding records the rest of the pipeline operates on, plus the
// deterministic fingerprint that identifies a finding across review
// rounds on the same pull request.
package reviewschema

import "fmt"

// SchemaError is returned whenever external input (a JSON payload or a
// decoded mapping) fails to satisfy the review/finding schema's
// constraints, or whenever code attempts to construct a record outside
// those constraints.
type SchemaError struct {
	// Field is the offending field's name, e.g. "confidence" or
	// "score.overall".
	Field string

	// Reason is a short human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: field %q: %s", e.Field, e.Reason)
}

// newSchemaError is a small constructor helper used throughout this
// package.
func newSchemaError(field, reason string) *SchemaError {
	return &SchemaError{Field: field, Reason: reason}
}
