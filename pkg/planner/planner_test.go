package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/suriyel/AgentFramework/pkg/task"
	"github.com/suriyel/AgentFramework/pkg/tools"
)

func testLookup(t *testing.T, names ...string) tools.Lookup {
	t.Helper()
	reg := tools.NewRegistry()
	for _, name := range names {
		reg.Register(tools.Definition{
			Descriptor: tools.Descriptor{Name: name},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return nil, nil
			},
		})
	}
	return reg
}

func TestNormalizeRejectsEmptyPlan(t *testing.T) {
	_, err := Normalize(nil, testLookup(t), 20)
	assert.Error(t, err)

	_, err = Normalize([]task.Step{}, testLookup(t), 20)
	assert.Error(t, err)
}

func TestNormalizeRejectsOversizedPlan(t *testing.T) {
	steps := make([]task.Step, 21)
	for i := range steps {
		steps[i] = task.NewStep("s")
	}

	_, err := Normalize(steps, testLookup(t), 20)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestNormalizeRejectsUnknownTool(t *testing.T) {
	steps := []task.Step{
		{Title: "fetch it", ToolName: "fetch_url"},
	}

	_, err := Normalize(steps, testLookup(t, "render_note"), 20)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fetch_url")
}

func TestNormalizeFillsEngineOwnedFields(t *testing.T) {
	done := task.Now()
	steps := []task.Step{
		{
			ToolName:    "fetch_url",
			ToolInput:   map[string]any{"url": "https://example.com"},
			Status:      task.StepCompleted,
			RetryCount:  5,
			Output:      "stale",
			Error:       "stale error",
			CompletedAt: &done,
		},
		{Title: "wrap up"},
	}

	out, err := Normalize(steps, testLookup(t, "fetch_url"), 20)
	assert.NoError(t, err)
	assert.Len(t, out, 2)

	first := out[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Step 1", first.Title)
	assert.Equal(t, task.StepPending, first.Status)
	assert.Zero(t, first.RetryCount)
	assert.Nil(t, first.Output)
	assert.Empty(t, first.Error)
	assert.Nil(t, first.CompletedAt)
	// Planner-supplied inputs survive normalization.
	assert.Equal(t, "https://example.com", first.ToolInput["url"])

	assert.Equal(t, "wrap up", out[1].Title)
	assert.NotEmpty(t, out[1].ID)
}

func TestNormalizeAllowsToolLessSteps(t *testing.T) {
	steps := []task.Step{{Title: "summarize findings"}}

	out, err := Normalize(steps, testLookup(t), 20)
	assert.NoError(t, err)
	assert.Empty(t, out[0].ToolName)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"steps":[]}`, `{"steps":[]}`},
		{"json fence", "```json\n{\"steps\":[]}\n```", `{"steps":[]}`},
		{"bare fence", "```\n{\"steps\":[]}\n```", `{"steps":[]}`},
		{"surrounding whitespace", "  {\"steps\":[]}  ", `{"steps":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestEchoPlanner(t *testing.T) {
	steps, err := Echo{}.Plan(context.Background(), "say hello", nil)
	assert.NoError(t, err)
	assert.Len(t, steps, 1)
	assert.Empty(t, steps[0].ToolName)
	assert.Equal(t, "say hello", steps[0].Description)
}

func TestScriptedPlanner(t *testing.T) {
	scripted := &Scripted{Steps: []task.Step{task.NewStep("only step")}}

	steps, err := scripted.Plan(context.Background(), "anything", nil)
	assert.NoError(t, err)
	assert.Len(t, steps, 1)

	// The returned slice is a copy; callers cannot corrupt the script.
	steps[0].Title = "mutated"
	again, _ := scripted.Plan(context.Background(), "anything", nil)
	assert.Equal(t, "only step", again[0].Title)
}
