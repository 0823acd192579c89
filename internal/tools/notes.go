package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tender-barbarian/class-lens/internal/finder"
)

// NoteStore keeps free-text notes about indexed classes in a JSON file,
// keyed by qualified class name.
type NoteStore struct {
	mu   sync.RWMutex
	path string
}

func NewNoteStore(path string) *NoteStore {
	return &NoteStore{path: path}
}

func (ns *NoteStore) load() (map[string]string, error) {
	data, err := os.ReadFile(ns.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading notes: %w", err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing notes: %w", err)
	}
	return m, nil
}

func (ns *NoteStore) save(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(ns.path), 0o750); err != nil {
		return fmt.Errorf("creating notes dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding notes: %w", err)
	}
	if err := os.WriteFile(ns.path, data, 0o600); err != nil {
		return fmt.Errorf("writing notes: %w", err)
	}
	return nil
}

// writeHandler stores a note. The class must be in the index.
func (ns *NoteStore) writeHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		class, err := req.RequireString("class")
		if err != nil {
			return nil, err
		}
		text, err := req.RequireString("text")
		if err != nil {
			return nil, err
		}
		ci, err := f.GetClass(class)
		if err != nil {
			return nil, err
		}
		ns.mu.Lock()
		defer ns.mu.Unlock()
		m, err := ns.load()
		if err != nil {
			return nil, err
		}
		m[ci.Name.String()] = text
		if err := ns.save(m); err != nil {
			return nil, err
		}
		return mcp.NewToolResultText("ok"), nil
	}
}

func (ns *NoteStore) readHandler() server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		class, err := req.RequireString("class")
		if err != nil {
			return nil, err
		}
		ns.mu.RLock()
		defer ns.mu.RUnlock()
		m, err := ns.load()
		if err != nil {
			return nil, err
		}
		v, ok := m[class]
		if !ok {
			return nil, fmt.Errorf("no note for %q", class)
		}
		return mcp.NewToolResultText(v), nil
	}
}

func (ns *NoteStore) listHandler() server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ns.mu.RLock()
		defer ns.mu.RUnlock()
		m, err := ns.load()
		if err != nil {
			return nil, err
		}
		return jsonResult(m)
	}
}

func (ns *NoteStore) deleteHandler() server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		class, err := req.RequireString("class")
		if err != nil {
			return nil, err
		}
		ns.mu.Lock()
		defer ns.mu.Unlock()
		m, err := ns.load()
		if err != nil {
			return nil, err
		}
		if _, ok := m[class]; !ok {
			return nil, fmt.Errorf("no note for %q", class)
		}
		delete(m, class)
		if err := ns.save(m); err != nil {
			return nil, err
		}
		return mcp.NewToolResultText("ok"), nil
	}
}
