package planner

import (
	"context"

	"github.com/suriyel/AgentFramework/pkg/task"
)

/*
Scripted is a deterministic planner that returns a canned step list (or a
canned failure). It backs unit tests and lets the server run end to end
without a model provider configured.
*/
type Scripted struct {
	Steps []task.Step
	Err   error
}

func (s *Scripted) Plan(ctx context.Context, userInput string, knowledge []string) ([]task.Step, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]task.Step, len(s.Steps))
	copy(out, s.Steps)
	return out, nil
}

var _ Planner = (*Scripted)(nil)

/*
Echo plans a single informational step that repeats the request back. It is
the fallback when no model provider is configured, mirroring an echo agent:
tasks still flow through the whole lifecycle, they just do no real work.
*/
type Echo struct{}

func (Echo) Plan(ctx context.Context, userInput string, knowledge []string) ([]task.Step, error) {
	step := task.NewStep("Echo the request")
	step.Description = userInput
	return []task.Step{step}, nil
}

var _ Planner = Echo{}
