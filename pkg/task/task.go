package task

import (
	"time"

	"github.com/google/uuid"
)

/*
Step is one planned unit of work, optionally bound to a tool. Steps with an
empty ToolName are informational and complete without an invocation.
*/
type Step struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	ToolName    string         `json:"toolName,omitempty"`
	ToolInput   map[string]any `json:"toolInput,omitempty"`
	Status      StepStatus     `json:"status"`
	Output      any            `json:"output,omitempty"`
	Error       string         `json:"error,omitempty"`
	RetryCount  int            `json:"retryCount"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

// NewStep returns a pending step with a fresh ID.
func NewStep(title string) Step {
	return Step{
		ID:     "step_" + uuid.NewString()[:8],
		Title:  title,
		Status: StepPending,
	}
}

/*
PendingInput names the tool and the missing configuration keys a suspended
task is waiting on. It is non-nil exactly while the task is suspended.
*/
type PendingInput struct {
	StepID      string   `json:"stepId"`
	ToolName    string   `json:"toolName"`
	MissingKeys []string `json:"missingKeys"`
	Reason      string   `json:"reason,omitempty"`
}

/*
State is the mutable record describing one in-flight request: the plan,
per-step results, status and pending-input markers. It is exclusively owned
by its orchestrator loop; external consumers only ever see copies produced
by Clone.
*/
type State struct {
	ID               string         `json:"id"`
	ConversationID   string         `json:"conversationId,omitempty"`
	UserInput        string         `json:"userInput"`
	Plan             []Step         `json:"plan,omitempty"`
	CurrentStepIndex int            `json:"currentStepIndex"`
	Context          map[string]any `json:"context,omitempty"`
	PendingInput     *PendingInput  `json:"pendingInput,omitempty"`
	Status           Status         `json:"status"`
	ErrorInfo        string         `json:"errorInfo,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Now returns the timestamp used for all task bookkeeping.
func Now() time.Time {
	return time.Now().UTC()
}

// New returns a freshly created task for the given request text.
func New(userInput, conversationID string) *State {
	now := time.Now().UTC()
	return &State{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		UserInput:      userInput,
		Context:        make(map[string]any),
		Status:         StatusCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ToStatus records a status transition and bumps the update timestamp.
func (s *State) ToStatus(status Status) {
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
}

// Fail moves the task to failed with a human-readable explanation.
func (s *State) Fail(errorInfo string) {
	s.ErrorInfo = errorInfo
	s.ToStatus(StatusFailed)
}

// CurrentStep returns the step the cursor points at, or nil once the cursor
// has run past the end of the plan.
func (s *State) CurrentStep() *Step {
	if s.CurrentStepIndex < 0 || s.CurrentStepIndex >= len(s.Plan) {
		return nil
	}
	return &s.Plan[s.CurrentStepIndex]
}

// AdvanceCursor moves the cursor to the step after the one just completed.
func (s *State) AdvanceCursor() {
	s.CurrentStepIndex++
	s.UpdatedAt = time.Now().UTC()
}

/*
Clone produces a deep copy of the task state. Snapshots handed to stores,
sinks and HTTP responses are always clones, so a reader can never observe a
partially-updated task and can never mutate engine-owned state.
*/
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	if s.Plan != nil {
		out.Plan = make([]Step, len(s.Plan))
		copy(out.Plan, s.Plan)
		for i := range out.Plan {
			out.Plan[i].ToolInput = cloneMap(s.Plan[i].ToolInput)
		}
	}
	out.Context = cloneMap(s.Context)
	if s.PendingInput != nil {
		pi := *s.PendingInput
		pi.MissingKeys = append([]string(nil), s.PendingInput.MissingKeys...)
		out.PendingInput = &pi
	}
	return &out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// CompletedPrefix counts the leading completed steps; the cursor invariant
// is that CurrentStepIndex always equals this value.
func (s *State) CompletedPrefix() int {
	n := 0
	for _, step := range s.Plan {
		if step.Status != StepCompleted {
			break
		}
		n++
	}
	return n
}
