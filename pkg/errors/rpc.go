package errors

import "fmt"

/*
RpcError is the error shape returned across the engine's public boundary
(HTTP handlers, manager calls). Engine-internal failures never surface this
way; they are written into the task snapshot instead.
*/
type RpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Convenience errors (JSON-RPC reserved codes -32600 .. -32000).
// Application specific codes use the -32000 .. -32099 range.
var (
	ErrInvalidRequest = &RpcError{Code: -32600, Message: "Invalid Request"}
	ErrInvalidParams  = &RpcError{Code: -32602, Message: "Invalid params"}
	ErrInternal       = &RpcError{Code: -32603, Message: "Internal error"}

	ErrTaskNotFound     = &RpcError{Code: -32000, Message: "Task not found"}
	ErrTaskNotSuspended = &RpcError{Code: -32001, Message: "Task is not suspended"}
	ErrPlanningFailed   = &RpcError{Code: -32002, Message: "Planning failed"}
	ErrTaskExists       = &RpcError{Code: -32003, Message: "Task already exists"}
)

// WithMessagef creates a *copy* of an RpcError with a formatted message.
// It does not modify the original error variable.
func (e *RpcError) WithMessagef(format string, args ...any) *RpcError {
	newErr := *e
	newErr.Message = fmt.Sprintf(format, args...)
	return &newErr
}
