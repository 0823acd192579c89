package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tender-barbarian/class-lens/internal/finder"
	"github.com/tender-barbarian/class-lens/internal/report"
)

// findAnnotationsHandler returns a handler for the find_annotations tool.
// It lists every use of an annotation type with its target and values.
func findAnnotationsHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("annotation")
		if err != nil {
			return nil, err
		}
		uses, err := f.FindAnnotations(name, req.GetString("kind", ""))
		if err != nil {
			return nil, err
		}
		out := report.Annotations(uses)
		if out == nil {
			out = []report.AnnotationView{}
		}
		return jsonResult(out)
	}
}
