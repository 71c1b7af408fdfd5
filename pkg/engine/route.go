package engine

import (
	"github.com/suriyel/AgentFramework/pkg/task"
)

// ActionKind tags the next move the orchestrator loop should make for a
// given task state.
type ActionKind int

const (
	// ActionStop parks or ends the loop: the task is terminal or suspended.
	ActionStop ActionKind = iota
	// ActionPlan asks the planner for a step list.
	ActionPlan
	// ActionRunStep dispatches the step at StepIndex.
	ActionRunStep
	// ActionValidate finalizes the task once every step has been visited.
	ActionValidate
)

func (k ActionKind) String() string {
	switch k {
	case ActionStop:
		return "stop"
	case ActionPlan:
		return "plan"
	case ActionRunStep:
		return "run_step"
	case ActionValidate:
		return "validate"
	}
	return "unknown"
}

// NextAction is the routing decision for one loop iteration.
type NextAction struct {
	Kind      ActionKind
	StepIndex int
}

/*
Route decides what the loop does next, from the state alone. It is a pure
function with a fixed precedence: terminal and suspended tasks stop, a task
without a plan gets one, a failed current step short-circuits to validation,
an in-range cursor dispatches that step, and an exhausted cursor validates.
*/
func Route(s *task.State) NextAction {
	if s.Status.Terminal() {
		return NextAction{Kind: ActionStop}
	}
	if s.Status == task.StatusSuspended || s.PendingInput != nil {
		return NextAction{Kind: ActionStop}
	}
	if len(s.Plan) == 0 {
		return NextAction{Kind: ActionPlan}
	}
	if step := s.CurrentStep(); step != nil {
		if step.Status == task.StepFailed {
			return NextAction{Kind: ActionValidate}
		}
		return NextAction{Kind: ActionRunStep, StepIndex: s.CurrentStepIndex}
	}
	return NextAction{Kind: ActionValidate}
}
