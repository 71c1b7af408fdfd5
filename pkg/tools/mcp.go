package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCP exposes every tool in the registry over an MCP server, so the
// same capabilities the engine executes are callable by external MCP hosts.
func RegisterMCP(srv *server.MCPServer, reg *Registry) {
	for _, desc := range reg.Descriptors() {
		tool := mcp.Tool{
			Name:        desc.Name,
			Description: desc.Description,
			InputSchema: desc.Schema,
		}
		name := desc.Name

		srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := reg.Invoke(ctx, name, req.GetArguments())
			if err != nil {
				return nil, err
			}

			if text, ok := out.(string); ok {
				return mcp.NewToolResultText(text), nil
			}

			b, err := json.Marshal(out)
			if err != nil {
				return nil, err
			}
			return mcp.NewToolResultText(string(b)), nil
		})
	}
}
