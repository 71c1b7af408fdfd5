package planner

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/suriyel/AgentFramework/pkg/errors"
	"github.com/suriyel/AgentFramework/pkg/task"
	"github.com/suriyel/AgentFramework/pkg/tools"
)

/*
Planner converts a free-text request, plus optional retrieved knowledge
snippets, into an ordered step list. The engine treats it as a single
external call and only consumes its structured output.
*/
type Planner interface {
	Plan(ctx context.Context, userInput string, knowledge []string) ([]task.Step, error)
}

/*
Normalize validates a plan on receipt and fills in engine-owned fields.
A plan with zero steps, more than maxSteps steps, or a step naming an
unregistered tool is a planning failure: the loop never executes a step
from a plan it cannot trust.
*/
func Normalize(steps []task.Step, lookup tools.Lookup, maxSteps int) ([]task.Step, error) {
	if len(steps) == 0 {
		return nil, &errors.PlanningError{Reason: "plan contains no actionable steps"}
	}
	if maxSteps > 0 && len(steps) > maxSteps {
		return nil, &errors.PlanningError{
			Reason: fmt.Sprintf("plan has %d steps, limit is %d", len(steps), maxSteps),
		}
	}

	out := make([]task.Step, len(steps))
	for i, step := range steps {
		if step.ToolName != "" {
			if _, ok := lookup.Describe(step.ToolName); !ok {
				return nil, &errors.PlanningError{
					Reason: fmt.Sprintf("step %q references unknown tool %q", step.Title, step.ToolName),
				}
			}
		}
		if step.ID == "" {
			step.ID = "step_" + uuid.NewString()[:8]
		}
		if step.Title == "" {
			step.Title = fmt.Sprintf("Step %d", i+1)
		}
		step.Status = task.StepPending
		step.RetryCount = 0
		step.Output = nil
		step.Error = ""
		step.StartedAt = nil
		step.CompletedAt = nil
		out[i] = step
	}
	return out, nil
}
