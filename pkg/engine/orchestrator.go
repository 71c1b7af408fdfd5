package engine

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/suriyel/AgentFramework/pkg/errors"
	"github.com/suriyel/AgentFramework/pkg/knowledge"
	"github.com/suriyel/AgentFramework/pkg/planner"
	"github.com/suriyel/AgentFramework/pkg/stores"
	"github.com/suriyel/AgentFramework/pkg/task"
	"github.com/suriyel/AgentFramework/pkg/tools"
)

/*
Manager owns the task lifecycle: it creates tasks, drives each one through
plan, execute and validate on its own goroutine, and answers reads from the
store. Exactly one goroutine mutates a given task's state; everything that
leaves the manager is a clone.

Suspended tasks hold no goroutine. The loop commits the suspended snapshot
and returns; Resume starts a fresh loop over the stored state.
*/
type Manager struct {
	store     stores.TaskStore
	planner   planner.Planner
	lookup    tools.Lookup
	executor  *Executor
	sink      SnapshotSink
	retriever knowledge.Retriever
	archive   *stores.Archive
	cfg       Config

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

type ManagerOption func(*Manager)

// WithSink routes committed snapshots to an event surface such as the SSE
// broker.
func WithSink(sink SnapshotSink) ManagerOption {
	return func(m *Manager) { m.sink = sink }
}

// WithRetriever supplies knowledge snippets to the planning prompt.
func WithRetriever(r knowledge.Retriever) ManagerOption {
	return func(m *Manager) { m.retriever = r }
}

// WithArchive copies terminal tasks into object storage.
func WithArchive(a *stores.Archive) ManagerOption {
	return func(m *Manager) { m.archive = a }
}

func WithConfig(cfg Config) ManagerOption {
	return func(m *Manager) { m.cfg = cfg }
}

func NewManager(
	store stores.TaskStore,
	plnr planner.Planner,
	lookup tools.Lookup,
	invoker tools.Invoker,
	options ...ManagerOption,
) *Manager {
	m := &Manager{
		store:   store,
		planner: plnr,
		lookup:  lookup,
		sink:    NopSink{},
		cfg:     DefaultConfig(),
		cancels: make(map[string]context.CancelFunc),
	}

	for _, option := range options {
		option(m)
	}

	m.executor = NewExecutor(lookup, invoker, m.cfg)
	return m
}

// CreateTask registers a new task and starts its loop. The returned state
// is the created snapshot; progress is observable through GetTask and the
// snapshot sink.
func (m *Manager) CreateTask(ctx context.Context, userInput, conversationID string) (*task.State, *errors.RpcError) {
	if strings.TrimSpace(userInput) == "" {
		return nil, errors.ErrInvalidParams.WithMessagef("userInput must not be empty")
	}

	state := task.New(userInput, conversationID)
	if rpcErr := m.store.Create(ctx, state); rpcErr != nil {
		return nil, rpcErr
	}

	snapshot := state.Clone()
	m.sink.Publish(snapshot)

	log.Info("task created", "task", state.ID, "conversation", conversationID)
	m.start(state)
	return snapshot, nil
}

// GetTask returns the latest committed snapshot for a task.
func (m *Manager) GetTask(ctx context.Context, id string) (*task.State, *errors.RpcError) {
	return m.store.Get(ctx, id)
}

// ListTasks returns snapshots of every known task.
func (m *Manager) ListTasks(ctx context.Context) ([]*task.State, *errors.RpcError) {
	return m.store.List(ctx)
}

/*
Resume merges user-supplied values into a suspended task's context, clears
the pending-input marker and restarts the loop. The paused step re-resolves
its parameters on the next attempt, so if the supplied values still leave
required keys missing the task suspends again rather than failing.
*/
func (m *Manager) Resume(ctx context.Context, id string, input map[string]any) (*task.State, *errors.RpcError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, running := m.cancels[id]; running {
		return nil, errors.ErrTaskNotSuspended.WithMessagef("task %s is currently running", id)
	}

	state, rpcErr := m.store.Get(ctx, id)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if state.Status != task.StatusSuspended || state.PendingInput == nil {
		return nil, errors.ErrTaskNotSuspended.WithMessagef(
			"task %s is %s, only suspended tasks can be resumed", id, state.Status)
	}

	for k, v := range input {
		// DeepEqual, not ==: context values may hold maps and slices.
		if old, exists := state.Context[k]; exists && !reflect.DeepEqual(old, v) {
			log.Warn("context key overwritten on resume", "task", id, "key", k)
		}
		state.Context[k] = v
	}
	state.PendingInput = nil
	state.ToStatus(task.StatusRunning)

	if rpcErr := m.store.Update(ctx, state); rpcErr != nil {
		return nil, rpcErr
	}
	snapshot := state.Clone()
	m.sink.Publish(snapshot)

	log.Info("task resumed", "task", id, "keys", len(input))
	m.startLocked(state)
	return snapshot, nil
}

/*
Cancel requests termination of a task. Terminal tasks are left untouched,
so cancel is idempotent. A parked suspended task is marked failed in place;
a running task's loop context is canceled and the loop records the failure
at its next checkpoint, so the returned snapshot may still read as running.
*/
func (m *Manager) Cancel(ctx context.Context, id string) (*task.State, *errors.RpcError) {
	m.mu.Lock()
	cancel, running := m.cancels[id]
	m.mu.Unlock()

	if running {
		log.Info("task cancel requested", "task", id)
		cancel()
		return m.store.Get(ctx, id)
	}

	state, rpcErr := m.store.Get(ctx, id)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if state.Status.Terminal() {
		return state, nil
	}

	state.PendingInput = nil
	state.Fail("task canceled")
	if rpcErr := m.store.Update(ctx, state); rpcErr != nil {
		return nil, rpcErr
	}
	snapshot := state.Clone()
	m.sink.Publish(snapshot)
	m.archiveTerminal(snapshot)

	log.Info("task canceled", "task", id)
	return snapshot, nil
}

// Close stops every running loop and waits for them to commit their final
// snapshots.
func (m *Manager) Close() {
	m.mu.Lock()
	for _, cancel := range m.cancels {
		cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) start(state *task.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startLocked(state)
}

func (m *Manager) startLocked(state *task.State) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancels[state.ID] = cancel
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer cancel()
		defer m.release(state.ID)
		m.run(ctx, state)
	}()
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	delete(m.cancels, id)
	m.mu.Unlock()
}

/*
run is the control loop. Each iteration routes on the current state, applies
exactly one transition and commits it, so every intermediate state is
observable and the loop can be parked and restarted at any commit point.
*/
func (m *Manager) run(ctx context.Context, state *task.State) {
	for {
		// A cancel that lands after the validator commits a terminal state
		// must not clobber it; routing handles terminal states as a stop.
		if ctx.Err() != nil && !state.Status.Terminal() {
			m.abort(state)
			return
		}

		action := Route(state)
		log.Debug("task routed", "task", state.ID, "action", action.Kind, "step", action.StepIndex)

		switch action.Kind {
		case ActionStop:
			if state.Status.Terminal() {
				m.archiveTerminal(state)
				log.Info("task finished", "task", state.ID, "status", state.Status)
			} else if state.PendingInput != nil {
				log.Info("task suspended", "task", state.ID, "step", state.PendingInput.StepID)
			}
			return

		case ActionPlan:
			m.plan(ctx, state)

		case ActionRunStep:
			m.runStep(ctx, state)

		case ActionValidate:
			state.ToStatus(task.StatusValidating)
			m.commit(state)
			Finalize(state)
			m.commit(state)
		}
	}
}

func (m *Manager) plan(ctx context.Context, state *task.State) {
	state.ToStatus(task.StatusPlanning)
	m.commit(state)

	var snippets []string
	if m.retriever != nil {
		found, err := m.retriever.Retrieve(ctx, state.UserInput, m.cfg.KnowledgeLimit)
		if err != nil {
			log.Warn("knowledge retrieval failed", "task", state.ID, "error", err)
		} else if len(found) > 0 {
			snippets = found
			// Keep the snippets on the task so consumers can see what
			// informed the plan.
			state.Context["knowledge"] = snippets
		}
	}

	planCtx, cancel := context.WithTimeout(ctx, m.cfg.PlannerTimeout)
	defer cancel()

	steps, err := m.planner.Plan(planCtx, state.UserInput, snippets)
	if err == nil {
		steps, err = planner.Normalize(steps, m.lookup, m.cfg.MaxPlanSteps)
	}
	if err != nil {
		if ctx.Err() == context.Canceled {
			return
		}
		log.Error("planning failed", "task", state.ID, "error", err)
		state.Fail("planning failed: " + err.Error())
		m.commit(state)
		return
	}

	state.Plan = steps
	state.CurrentStepIndex = 0
	state.ToStatus(task.StatusRunning)
	m.commit(state)
	log.Info("task planned", "task", state.ID, "steps", len(steps))
}

func (m *Manager) runStep(ctx context.Context, state *task.State) {
	step := state.CurrentStep()

	step.Status = task.StepRunning
	now := task.Now()
	if step.StartedAt == nil {
		step.StartedAt = &now
	}
	state.ToStatus(task.StatusRunning)
	m.commit(state)

	outcome := m.executor.Attempt(ctx, state, step)

	switch outcome.Kind {
	case OutcomeCompleted:
		done := task.Now()
		step.Status = task.StepCompleted
		step.Output = outcome.Output
		step.Error = ""
		step.CompletedAt = &done
		m.mergeOutput(state, outcome.Output)
		state.AdvanceCursor()
		m.commit(state)

	case OutcomeRetriable:
		step.Error = outcome.Err.Error()
		if step.RetryCount < m.executor.maxRetry(step.ToolName) {
			step.RetryCount++
			step.Status = task.StepPending
			log.Info("step retry scheduled", "task", state.ID, "step", step.ID, "attempt", step.RetryCount+1)
		} else {
			step.Status = task.StepFailed
			log.Error("step retry budget exhausted", "task", state.ID, "step", step.ID, "error", outcome.Err)
		}
		m.commit(state)

	case OutcomeTerminal:
		if ctx.Err() != nil {
			// The loop's top-of-iteration check records the cancellation.
			return
		}
		step.Status = task.StepFailed
		step.Error = outcome.Err.Error()
		log.Error("step failed", "task", state.ID, "step", step.ID, "error", outcome.Err)
		m.commit(state)

	case OutcomeNeedsInput:
		// The step stays RUNNING while the task is parked; Resume retries
		// the same step once the missing values arrive.
		state.PendingInput = &task.PendingInput{
			StepID:      step.ID,
			ToolName:    step.ToolName,
			MissingKeys: outcome.Missing,
			Reason:      outcome.Reason,
		}
		state.ToStatus(task.StatusSuspended)
		m.commit(state)
	}
}

// mergeOutput folds a map-shaped step output into the shared context so
// later steps can consume it. Non-map outputs stay on the step only.
func (m *Manager) mergeOutput(state *task.State, output any) {
	fields, ok := output.(map[string]any)
	if !ok {
		return
	}
	for k, v := range fields {
		// DeepEqual, not ==: outputs may hold maps and slices.
		if old, exists := state.Context[k]; exists && !reflect.DeepEqual(old, v) {
			log.Warn("context key overwritten by step output", "task", state.ID, "key", k)
		}
		state.Context[k] = v
	}
}

func (m *Manager) abort(state *task.State) {
	state.PendingInput = nil
	state.Fail("task canceled")
	m.commit(state)
	m.archiveTerminal(state)
	log.Info("task canceled", "task", state.ID)
}

// commit persists the state and publishes a detached snapshot. Commits use
// a background context so a canceled loop can still record its final state.
func (m *Manager) commit(state *task.State) {
	snapshot := state.Clone()
	if rpcErr := m.store.Update(context.Background(), snapshot); rpcErr != nil {
		log.Error("task commit failed", "task", state.ID, "error", rpcErr)
	}
	m.sink.Publish(snapshot)
}

func (m *Manager) archiveTerminal(state *task.State) {
	if m.archive == nil {
		return
	}
	if err := m.archive.Put(context.Background(), state.Clone()); err != nil {
		log.Warn("task archive failed", "task", state.ID, "error", err)
	}
}
