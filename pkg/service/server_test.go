package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/suriyel/AgentFramework/pkg/engine"
	"github.com/suriyel/AgentFramework/pkg/planner"
	"github.com/suriyel/AgentFramework/pkg/service/sse"
	"github.com/suriyel/AgentFramework/pkg/stores"
	"github.com/suriyel/AgentFramework/pkg/task"
	"github.com/suriyel/AgentFramework/pkg/tools"
)

type fixture struct {
	server  *Server
	manager *engine.Manager
}

func newFixture(t *testing.T, plnr planner.Planner) *fixture {
	t.Helper()

	reg := tools.NewRegistry()
	tools.RegisterBuiltins(reg)

	broker := sse.NewTestBroker()
	cfg := engine.DefaultConfig()
	cfg.ToolTimeout = 500 * time.Millisecond

	manager := engine.NewManager(
		stores.NewInMemoryTaskStore(),
		plnr,
		reg,
		reg,
		engine.WithSink(NewBrokerSink(broker)),
		engine.WithConfig(cfg),
	)
	t.Cleanup(manager.Close)

	return &fixture{
		server:  NewServer(manager, reg, broker),
		manager: manager,
	}
}

func jsonRequest(method, target string, payload any) *http.Request {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeState(t *testing.T, res *http.Response) *task.State {
	t.Helper()
	var state task.State
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&state))
	return &state
}

func TestCreateTaskEndpoint(t *testing.T) {
	fix := newFixture(t, &planner.Scripted{Steps: []task.Step{task.NewStep("only step")}})

	res, err := fix.server.App().Test(jsonRequest(http.MethodPost, "/tasks", CreateTaskRequest{
		UserInput: "do the thing",
	}))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	state := decodeState(t, res)
	assert.NotEmpty(t, state.ID)
	assert.Equal(t, "do the thing", state.UserInput)
}

func TestCreateTaskRejectsBlankInput(t *testing.T) {
	fix := newFixture(t, &planner.Scripted{})

	res, err := fix.server.App().Test(jsonRequest(http.MethodPost, "/tasks", CreateTaskRequest{
		UserInput: "   ",
	}))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGetTaskEndpoint(t *testing.T) {
	fix := newFixture(t, &planner.Scripted{Steps: []task.Step{task.NewStep("quick")}})

	created, rpcErr := fix.manager.CreateTask(context.Background(), "read me back", "")
	assert.Nil(t, rpcErr)

	res, err := fix.server.App().Test(httptest.NewRequest(http.MethodGet, "/tasks/"+created.ID, nil))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	state := decodeState(t, res)
	assert.Equal(t, created.ID, state.ID)
}

func TestGetTaskNotFound(t *testing.T) {
	fix := newFixture(t, &planner.Scripted{})

	res, err := fix.server.App().Test(httptest.NewRequest(http.MethodGet, "/tasks/unknown", nil))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestListTasksEndpoint(t *testing.T) {
	fix := newFixture(t, &planner.Scripted{Steps: []task.Step{task.NewStep("quick")}})

	_, rpcErr := fix.manager.CreateTask(context.Background(), "list me", "")
	assert.Nil(t, rpcErr)

	res, err := fix.server.App().Test(httptest.NewRequest(http.MethodGet, "/tasks", nil))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var payload struct {
		Tasks []*task.State `json:"tasks"`
	}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	assert.Len(t, payload.Tasks, 1)
}

func TestResumeEndpointConflictsOnNonSuspendedTask(t *testing.T) {
	fix := newFixture(t, &planner.Scripted{Steps: []task.Step{task.NewStep("quick")}})

	created, _ := fix.manager.CreateTask(context.Background(), "not suspended", "")

	assert.Eventually(t, func() bool {
		state, rpcErr := fix.manager.GetTask(context.Background(), created.ID)
		return rpcErr == nil && state.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	res, err := fix.server.App().Test(jsonRequest(
		http.MethodPost, "/tasks/"+created.ID+"/resume",
		ResumeTaskRequest{Input: map[string]any{"token": "x"}},
	))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestResumeEndpointRejectsEmptyInput(t *testing.T) {
	fix := newFixture(t, &planner.Scripted{})

	res, err := fix.server.App().Test(jsonRequest(
		http.MethodPost, "/tasks/whatever/resume", ResumeTaskRequest{},
	))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCancelEndpointUnknownTask(t *testing.T) {
	fix := newFixture(t, &planner.Scripted{})

	res, err := fix.server.App().Test(jsonRequest(http.MethodPost, "/tasks/unknown/cancel", nil))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestToolsEndpoint(t *testing.T) {
	fix := newFixture(t, &planner.Scripted{})

	res, err := fix.server.App().Test(httptest.NewRequest(http.MethodGet, "/tools", nil))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var payload struct {
		Tools []tools.Descriptor `json:"tools"`
	}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&payload))

	names := make([]string, len(payload.Tools))
	for i, desc := range payload.Tools {
		names[i] = desc.Name
	}
	assert.Contains(t, names, "fetch_url")
	assert.Contains(t, names, "send_email")
	assert.Contains(t, names, "render_note")
}
