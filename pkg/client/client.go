package client

import (
	"context"
	"fmt"

	fiberClient "github.com/gofiber/fiber/v3/client"
	"github.com/suriyel/AgentFramework/pkg/errors"
	"github.com/suriyel/AgentFramework/pkg/task"
	"github.com/suriyel/AgentFramework/pkg/tools"
)

/*
Client is a Go client for the task engine's REST API.
*/
type Client struct {
	baseURL string
	conn    *fiberClient.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		conn:    fiberClient.New().SetBaseURL(baseURL),
	}
}

// CreateTask submits a request and returns the created task snapshot.
func (client *Client) CreateTask(ctx context.Context, userInput, conversationID string) (*task.State, error) {
	res, err := client.conn.Post("/tasks", fiberClient.Config{
		Ctx: ctx,
		Header: map[string]string{
			"Content-Type": "application/json",
		},
		Body: map[string]string{
			"userInput":      userInput,
			"conversationId": conversationID,
		},
	})
	if err != nil {
		return nil, err
	}
	return decodeTask(res)
}

// GetTask fetches the latest snapshot of a task.
func (client *Client) GetTask(ctx context.Context, id string) (*task.State, error) {
	res, err := client.conn.Get("/tasks/"+id, fiberClient.Config{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	return decodeTask(res)
}

// ListTasks fetches snapshots of every known task.
func (client *Client) ListTasks(ctx context.Context) ([]*task.State, error) {
	res, err := client.conn.Get("/tasks", fiberClient.Config{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	if res.StatusCode() >= 400 {
		return nil, decodeError(res)
	}

	var payload struct {
		Tasks []*task.State `json:"tasks"`
	}
	if err := res.JSON(&payload); err != nil {
		return nil, err
	}
	return payload.Tasks, nil
}

// Resume supplies the values a suspended task is waiting on.
func (client *Client) Resume(ctx context.Context, id string, input map[string]any) (*task.State, error) {
	res, err := client.conn.Post("/tasks/"+id+"/resume", fiberClient.Config{
		Ctx: ctx,
		Header: map[string]string{
			"Content-Type": "application/json",
		},
		Body: map[string]any{"input": input},
	})
	if err != nil {
		return nil, err
	}
	return decodeTask(res)
}

// Cancel requests termination of a task.
func (client *Client) Cancel(ctx context.Context, id string) (*task.State, error) {
	res, err := client.conn.Post("/tasks/"+id+"/cancel", fiberClient.Config{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	return decodeTask(res)
}

// Tools lists the capabilities the engine can plan against.
func (client *Client) Tools(ctx context.Context) ([]tools.Descriptor, error) {
	res, err := client.conn.Get("/tools", fiberClient.Config{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	if res.StatusCode() >= 400 {
		return nil, decodeError(res)
	}

	var payload struct {
		Tools []tools.Descriptor `json:"tools"`
	}
	if err := res.JSON(&payload); err != nil {
		return nil, err
	}
	return payload.Tools, nil
}

func decodeTask(res *fiberClient.Response) (*task.State, error) {
	if res.StatusCode() >= 400 {
		return nil, decodeError(res)
	}

	var state task.State
	if err := res.JSON(&state); err != nil {
		return nil, err
	}
	return &state, nil
}

func decodeError(res *fiberClient.Response) error {
	var rpcErr errors.RpcError
	if err := res.JSON(&rpcErr); err == nil && rpcErr.Message != "" {
		return &rpcErr
	}
	return fmt.Errorf("request failed with status %d", res.StatusCode())
}
