package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

/*
Handler executes the logic of a specific tool. It receives context and the
fully resolved arguments, and returns a result payload or an error. Handlers
signal transience through the errors package's ToolError wrappers; a plain
error is treated as terminal.

Timeouts and cancellation arrive through ctx, so a handler must watch
ctx.Done() during blocking work; one that ignores its context stalls the
owning task loop past the deadline.
*/
type Handler func(ctx context.Context, args map[string]any) (any, error)

/*
Descriptor describes a capability to the planner and the step executor:
which parameter keys the tool requires, which of those a user may supply at
runtime (the suspend decision), and the per-tool timeout and retry budget
overrides.
*/
type Descriptor struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Schema      mcp.ToolInputSchema `json:"schema"`
	Required    []string            `json:"required,omitempty"`
	// UserSuppliable lists the required keys a caller may provide while the
	// task is suspended instead of at plan time.
	UserSuppliable []string       `json:"userSuppliable,omitempty"`
	Timeout        time.Duration  `json:"timeout,omitempty"`
	MaxRetry       *int           `json:"maxRetry,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
}

// Definition links a descriptor to its execution logic.
type Definition struct {
	Descriptor
	Handler Handler
}

/*
Lookup resolves capability descriptors by name. The executor consumes this
interface rather than a concrete registry so tests can inject doubles.
*/
type Lookup interface {
	Describe(name string) (Descriptor, bool)
	Descriptors() []Descriptor
}

/*
Invoker invokes a capability by name. The per-tool timeout is enforced by
the caller via the context deadline, not by the invoker.
*/
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (any, error)
}
