package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/suriyel/AgentFramework/pkg/task"
)

// SnapshotHandler receives each task snapshot observed on the event stream.
type SnapshotHandler func(snapshot *task.State)

/*
Watch subscribes to the engine's SSE stream and invokes handler for every
task snapshot until the context is canceled or the stream ends. Heartbeat
comments and undecodable events are skipped.
*/
func (client *Client) Watch(ctx context.Context, handler SnapshotHandler) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.baseURL+"/events", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	reader := bufio.NewReader(res.Body)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		line = strings.TrimRight(line, "\n\r")

		// Comment lines carry the heartbeat.
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}

		var event struct {
			Type string      `json:"type"`
			Task *task.State `json:"task"`
		}
		if err := json.Unmarshal([]byte(strings.TrimSpace(data)), &event); err != nil {
			continue
		}
		if event.Task != nil {
			handler(event.Task)
		}
	}
}
