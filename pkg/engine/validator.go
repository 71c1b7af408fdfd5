package engine

import (
	"fmt"

	"github.com/suriyel/AgentFramework/pkg/task"
)

/*
Finalize moves a task whose cursor has run out of steps, or whose current
step failed, into its terminal status. The task succeeds only when every
planned step completed; otherwise the first failed step's error becomes the
task's error.
*/
func Finalize(state *task.State) {
	for i := range state.Plan {
		step := &state.Plan[i]
		if step.Status == task.StepCompleted {
			continue
		}
		if step.Status == task.StepFailed {
			state.Fail(fmt.Sprintf("step %q failed: %s", step.Title, step.Error))
			return
		}
		state.Fail(fmt.Sprintf("step %q never completed (status %s)", step.Title, step.Status))
		return
	}
	state.ToStatus(task.StatusSucceeded)
}
