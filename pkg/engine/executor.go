package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/suriyel/AgentFramework/pkg/errors"
	"github.com/suriyel/AgentFramework/pkg/task"
	"github.com/suriyel/AgentFramework/pkg/tools"
)

// OutcomeKind tags the result of one step attempt.
type OutcomeKind int

const (
	// OutcomeCompleted means the step finished and produced output.
	OutcomeCompleted OutcomeKind = iota
	// OutcomeRetriable means the attempt failed transiently and the step may
	// be re-dispatched if its retry budget allows.
	OutcomeRetriable
	// OutcomeTerminal means the attempt failed in a way no retry will fix.
	OutcomeTerminal
	// OutcomeNeedsInput means required parameters are missing and a user may
	// supply them; the task should suspend.
	OutcomeNeedsInput
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomeRetriable:
		return "retriable"
	case OutcomeTerminal:
		return "terminal"
	case OutcomeNeedsInput:
		return "needs_input"
	}
	return "unknown"
}

// Outcome is the tagged result of a single step attempt.
type Outcome struct {
	Kind    OutcomeKind
	Output  any
	Err     error
	Missing []string
	Reason  string
}

/*
Executor runs one attempt of one step: resolve the tool's parameters from
the step's planned input and the task context, decide whether to suspend on
missing user-suppliable keys, and invoke the handler under the tool's
timeout. It never mutates the step or the task; the loop applies outcomes.
*/
type Executor struct {
	lookup  tools.Lookup
	invoker tools.Invoker
	cfg     Config
}

func NewExecutor(lookup tools.Lookup, invoker tools.Invoker, cfg Config) *Executor {
	return &Executor{lookup: lookup, invoker: invoker, cfg: cfg}
}

// Attempt runs a single attempt of step against the task state.
func (e *Executor) Attempt(ctx context.Context, state *task.State, step *task.Step) Outcome {
	if step.ToolName == "" {
		// Informational steps carry no tool and complete on sight.
		return Outcome{Kind: OutcomeCompleted, Output: step.Description}
	}

	desc, ok := e.lookup.Describe(step.ToolName)
	if !ok {
		return Outcome{
			Kind: OutcomeTerminal,
			Err:  errors.Terminal(step.ToolName, fmt.Errorf("tool not registered")),
		}
	}

	args := resolveArgs(step, state)

	if missing := missingKeys(desc.Required, args); len(missing) > 0 {
		if suppliable(missing, desc.UserSuppliable) {
			return Outcome{
				Kind:    OutcomeNeedsInput,
				Missing: missing,
				Reason:  fmt.Sprintf("tool %q needs values for %v", desc.Name, missing),
			}
		}
		return Outcome{
			Kind: OutcomeTerminal,
			Err: errors.Terminal(desc.Name, fmt.Errorf(
				"missing required parameters %v and none are user-suppliable", missing)),
		}
	}

	timeout := desc.Timeout
	if timeout <= 0 {
		timeout = e.cfg.ToolTimeout
	}
	invokeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	output, err := e.invoker.Invoke(invokeCtx, desc.Name, args)
	elapsed := time.Since(started)

	if err != nil {
		if ctx.Err() == context.Canceled {
			return Outcome{Kind: OutcomeTerminal, Err: ctx.Err()}
		}
		if errors.IsRetriable(err) {
			log.Warn("step attempt failed", "step", step.ID, "tool", desc.Name, "elapsed", elapsed, "error", err)
			return Outcome{Kind: OutcomeRetriable, Err: err}
		}
		return Outcome{Kind: OutcomeTerminal, Err: err}
	}

	log.Debug("step attempt completed", "step", step.ID, "tool", desc.Name, "elapsed", elapsed)
	return Outcome{Kind: OutcomeCompleted, Output: output}
}

// maxRetry returns the retry budget for a step's tool, preferring the
// tool's own override.
func (e *Executor) maxRetry(toolName string) int {
	if desc, ok := e.lookup.Describe(toolName); ok && desc.MaxRetry != nil {
		return *desc.MaxRetry
	}
	return e.cfg.MaxRetry
}

/*
resolveArgs builds the attempt's argument map fresh on every call. Planned
inputs win over context values of the same key, and resolution happens per
attempt so values supplied while suspended, or produced by earlier steps,
are picked up on retry.
*/
func resolveArgs(step *task.Step, state *task.State) map[string]any {
	args := make(map[string]any, len(step.ToolInput))
	for k, v := range state.Context {
		args[k] = v
	}
	for k, v := range step.ToolInput {
		args[k] = v
	}
	return args
}

func missingKeys(required []string, args map[string]any) []string {
	var missing []string
	for _, key := range required {
		v, ok := args[key]
		if !ok || v == nil {
			missing = append(missing, key)
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// suppliable reports whether every missing key is one the user may provide.
func suppliable(missing, userSuppliable []string) bool {
	if len(userSuppliable) == 0 {
		return false
	}
	allowed := make(map[string]struct{}, len(userSuppliable))
	for _, key := range userSuppliable {
		allowed[key] = struct{}{}
	}
	for _, key := range missing {
		if _, ok := allowed[key]; !ok {
			return false
		}
	}
	return true
}
