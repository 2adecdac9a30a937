package orchestrator

import "fmt"

// TimeoutError is raised when the agent invocation exceeds the
// configured wall-clock deadline.
type TimeoutError struct {
	TimeoutSeconds int
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("agent invocation exceeded %ds timeout", e.TimeoutSeconds)
}
