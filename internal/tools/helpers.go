package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tender-barbarian/class-lens/internal/finder"
)

// maxInputLen caps every string argument a tool accepts.
const maxInputLen = 1024

// withLengthCheck rejects calls carrying an oversized string argument
// before they reach h.
func withLengthCheck(h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		for name, v := range req.GetArguments() {
			if s, ok := v.(string); ok && len(s) > maxInputLen {
				return nil, fmt.Errorf("argument %q exceeds maximum length of %d", name, maxInputLen)
			}
		}
		return h(ctx, req)
	}
}

// jsonResult serialises v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

// matchMode reads the optional "match" argument.
func matchMode(req mcp.CallToolRequest) (finder.MatchMode, error) {
	m := finder.MatchMode(req.GetString("match", string(finder.MatchExact)))
	switch m {
	case finder.MatchExact, finder.MatchPrefix, finder.MatchContains:
		return m, nil
	}
	return "", fmt.Errorf("invalid match mode %q", m)
}
