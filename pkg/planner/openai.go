package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/suriyel/AgentFramework/pkg/errors"
	"github.com/suriyel/AgentFramework/pkg/task"
	"github.com/suriyel/AgentFramework/pkg/tools"
)

/*
OpenAIPlanner asks a chat-completions model to decompose the request into an
ordered step list bound to the registered tool catalog.
*/
type OpenAIPlanner struct {
	client *openai.Client
	model  string
	lookup tools.Lookup
}

type OpenAIPlannerOption func(*OpenAIPlanner)

func NewOpenAIPlanner(lookup tools.Lookup, options ...OpenAIPlannerOption) *OpenAIPlanner {
	planner := &OpenAIPlanner{
		model:  string(openai.ChatModelGPT4o),
		lookup: lookup,
	}

	for _, option := range options {
		option(planner)
	}

	if planner.client == nil {
		client := openai.NewClient(
			option.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
		)
		planner.client = &client
	}

	return planner
}

func WithModel(model string) OpenAIPlannerOption {
	return func(p *OpenAIPlanner) { p.model = model }
}

func WithClient(client *openai.Client) OpenAIPlannerOption {
	return func(p *OpenAIPlanner) { p.client = client }
}

/*
plannedStep is the wire shape the model is asked to emit for each step.
*/
type plannedStep struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	ToolName    string         `json:"tool_name,omitempty"`
	ToolInput   map[string]any `json:"tool_input,omitempty"`
}

type plannedOutput struct {
	Goal  string        `json:"goal,omitempty"`
	Steps []plannedStep `json:"steps"`
}

func (p *OpenAIPlanner) Plan(ctx context.Context, userInput string, knowledge []string) ([]task.Step, error) {
	user := userInput
	if len(knowledge) > 0 {
		user = userInput + "\n\nRelevant background:\n" + strings.Join(knowledge, "\n\n")
	}

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.systemPrompt()),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return nil, &errors.PlanningError{Reason: "model call failed", Err: err}
	}
	if len(completion.Choices) == 0 {
		return nil, &errors.PlanningError{Reason: "model returned no choices"}
	}

	raw := stripFences(completion.Choices[0].Message.Content)

	var out plannedOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Warn("planner output is not valid JSON", "error", err)
		return nil, &errors.PlanningError{Reason: "model output is not a valid plan", Err: err}
	}

	steps := make([]task.Step, 0, len(out.Steps))
	for _, ps := range out.Steps {
		steps = append(steps, task.Step{
			Title:       ps.Title,
			Description: ps.Description,
			ToolName:    ps.ToolName,
			ToolInput:   ps.ToolInput,
		})
	}

	log.Info("plan generated", "steps", len(steps), "model", p.model)
	return steps, nil
}

func (p *OpenAIPlanner) systemPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are a task planning agent. Decompose the user's request into an ")
	sb.WriteString("ordered list of atomic, executable steps.\n\nAvailable tools:\n")

	for _, desc := range p.lookup.Descriptors() {
		fmt.Fprintf(&sb, "- %s: %s\n", desc.Name, desc.Description)
	}

	sb.WriteString(`
Rules:
- Each step is atomic and runs strictly in order.
- A step may name at most one tool from the list above; steps that only
  summarize or collect information leave tool_name empty.
- Provide tool_input with every literal parameter you already know.

Respond with JSON only, in this shape:
{"goal": "...", "steps": [{"title": "...", "description": "...", "tool_name": "...", "tool_input": {}}]}
`)
	return sb.String()
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var _ Planner = (*OpenAIPlanner)(nil)
