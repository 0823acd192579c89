package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tender-barbarian/class-lens/internal/finder"
	"github.com/tender-barbarian/class-lens/internal/report"
)

// listClassesHandler returns a handler for the list_classes tool.
// It lists indexed classes, optionally filtered by name prefix.
func listClassesHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := req.GetString("filter", "")
		return jsonResult(report.Summaries(f.ListClasses(filter)))
	}
}

// getClassHandler returns a handler for the get_class tool.
// It returns the full record of one class: fields, methods and annotations.
func getClassHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return nil, err
		}
		ci, err := f.GetClass(name)
		if err != nil {
			return nil, err
		}
		return jsonResult(report.Class(ci))
	}
}

// findClassHandler returns a handler for the find_class tool.
// A query matches either the qualified or the simple class name.
func findClassHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return nil, err
		}
		match, err := matchMode(req)
		if err != nil {
			return nil, err
		}
		return jsonResult(report.Summaries(f.FindClasses(name, match)))
	}
}
