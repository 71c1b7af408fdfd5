package task

/*
Status enumerates the mutually-exclusive states a task may be in. The zero
value is intentionally invalid so an uninitialized task is never mistaken
for a created one.
*/
type Status string

const (
	StatusCreated    Status = "created"
	StatusPlanning   Status = "planning"
	StatusRunning    Status = "running"
	StatusSuspended  Status = "suspended"
	StatusValidating Status = "validating"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is one the task can never leave.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

/*
StepStatus enumerates the per-step lifecycle. A step that fails with a
retriable error is reset to pending so the executor re-dispatches it.
*/
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)
