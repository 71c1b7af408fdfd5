package errors

import (
	"context"
	"errors"
	"fmt"
)

/*
PlanningError signals that the plan builder could not produce an actionable
plan. It always ends the task; plans are never retried.
*/
type PlanningError struct {
	Reason string
	Err    error
}

func (e *PlanningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("planning failed: %s: %v", e.Reason, e.Err)
	}
	return "planning failed: " + e.Reason
}

func (e *PlanningError) Unwrap() error { return e.Err }

/*
ToolError is a capability invocation failure. Retriable errors are absorbed
by the executor's retry loop; terminal errors end the task.
*/
type ToolError struct {
	Tool      string
	Retriable bool
	Err       error
}

func (e *ToolError) Error() string {
	kind := "terminal"
	if e.Retriable {
		kind = "retriable"
	}
	return fmt.Sprintf("tool %s: %s error: %v", e.Tool, kind, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Retriable wraps err as a transient tool failure.
func Retriable(tool string, err error) *ToolError {
	return &ToolError{Tool: tool, Retriable: true, Err: err}
}

// Terminal wraps err as a non-retriable tool failure.
func Terminal(tool string, err error) *ToolError {
	return &ToolError{Tool: tool, Retriable: false, Err: err}
}

/*
IsRetriable reports whether an invocation failure is eligible for bounded
re-attempt. Timeouts count as retriable; cancellation never does. An error
that does not declare itself either way is treated as terminal, so a tool
has to opt in to being retried.
*/
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Retriable
	}
	return false
}
