package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tender-barbarian/class-lens/internal/finder"
	"github.com/tender-barbarian/class-lens/internal/report"
)

// findSubclassesHandler returns a handler for the find_subclasses tool.
func findSubclassesHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return nil, err
		}
		subs, err := f.FindSubclasses(name, req.GetBool("transitive", false))
		if err != nil {
			return nil, fmt.Errorf("finding subclasses of %q: %w", name, err)
		}
		return jsonResult(report.Summaries(subs))
	}
}

// findImplementorsHandler returns a handler for the find_implementors tool.
// Subinterfaces are reported separately from the implementing classes.
func findImplementorsHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return nil, err
		}
		impls, err := f.FindImplementors(name, req.GetBool("transitive", false))
		if err != nil {
			return nil, fmt.Errorf("finding implementors of %q: %w", name, err)
		}

		type result struct {
			Implementors  []report.ClassSummary `json:"implementors"`
			Subinterfaces []report.ClassSummary `json:"subinterfaces"`
		}
		return jsonResult(result{
			Implementors:  report.Summaries(impls),
			Subinterfaces: report.Summaries(f.FindSubinterfaces(name)),
		})
	}
}

// findUsersHandler returns a handler for the find_users tool.
// Users are classes whose constant pool refers to the named class
// beyond plain inheritance.
func findUsersHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return nil, err
		}
		return jsonResult(report.Summaries(f.FindUsers(name)))
	}
}
