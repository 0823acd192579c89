package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tender-barbarian/class-lens/internal/finder"
)

// Register wires the class index tools to s. Each tool delegates to f.
// The note tools are only added when notes is non-nil.
func Register(s *server.MCPServer, f *finder.Finder, notes *NoteStore) {
	s.AddTool(mcp.NewTool("list_classes",
		mcp.WithDescription("Lists indexed classes with their kind and superclass."),
		mcp.WithString("filter", mcp.Description("Optional prefix filter on the qualified class name")),
	), withLengthCheck(listClassesHandler(f)))

	s.AddTool(mcp.NewTool("get_class",
		mcp.WithDescription("Returns the full record of a class: flags, generics, nesting, fields, methods and annotations."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Qualified class name, e.g. java.util.Map$Entry")),
	), withLengthCheck(getClassHandler(f)))

	s.AddTool(mcp.NewTool("find_class",
		mcp.WithDescription("Searches indexed classes by qualified or simple name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Class name to search for")),
		mcp.WithString("match", mcp.Description(`Match mode: "exact" (default), "prefix", or "contains"`)),
	), withLengthCheck(findClassHandler(f)))

	s.AddTool(mcp.NewTool("find_subclasses",
		mcp.WithDescription("Finds the classes extending a class. The superclass need not be indexed."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Qualified superclass name")),
		mcp.WithBoolean("transitive", mcp.Description("Include indirect subclasses (default: false)")),
	), withLengthCheck(findSubclassesHandler(f)))

	s.AddTool(mcp.NewTool("find_implementors",
		mcp.WithDescription("Finds the classes implementing an interface, plus its direct subinterfaces."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Qualified interface name")),
		mcp.WithBoolean("transitive", mcp.Description("Include implementors through subinterfaces and subclasses (default: false)")),
	), withLengthCheck(findImplementorsHandler(f)))

	s.AddTool(mcp.NewTool("find_users",
		mcp.WithDescription("Finds the classes that refer to a class in their code, signatures or constants."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Qualified class name")),
	), withLengthCheck(findUsersHandler(f)))

	s.AddTool(mcp.NewTool("find_annotations",
		mcp.WithDescription("Lists every use of an annotation type with its target and values."),
		mcp.WithString("annotation", mcp.Required(), mcp.Description("Qualified annotation type name")),
		mcp.WithString("kind", mcp.Description("Filter by target: class, field, method, method_parameter (empty = all)")),
	), withLengthCheck(findAnnotationsHandler(f)))

	if notes == nil {
		return
	}

	s.AddTool(mcp.NewTool("write_note",
		mcp.WithDescription("Stores a note about an indexed class, replacing any previous note."),
		mcp.WithString("class", mcp.Required(), mcp.Description("Qualified class name")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Note text")),
	), withLengthCheck(notes.writeHandler(f)))

	s.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Returns the note stored for a class."),
		mcp.WithString("class", mcp.Required(), mcp.Description("Qualified class name")),
	), withLengthCheck(notes.readHandler()))

	s.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("Returns all stored notes keyed by class name."),
	), notes.listHandler())

	s.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Deletes the note stored for a class."),
		mcp.WithString("class", mcp.Required(), mcp.Description("Qualified class name")),
	), withLengthCheck(notes.deleteHandler()))
}
