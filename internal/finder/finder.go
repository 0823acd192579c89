package finder

import (
	"fmt"
	"strings"

	"github.com/tender-barbarian/class-lens/internal/dotname"
	"github.com/tender-barbarian/class-lens/internal/indexer"
	"github.com/tender-barbarian/class-lens/internal/symtab"
)

// MatchMode controls how class names are compared in FindClasses.
type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchPrefix   MatchMode = "prefix"
	MatchContains MatchMode = "contains"
)

func matchesQuery(name, query string, mode MatchMode) bool {
	switch mode {
	case MatchPrefix:
		return strings.HasPrefix(name, query)
	case MatchContains:
		return strings.Contains(name, query)
	default:
		return name == query
	}
}

// simpleName returns the part of a binary class name after the package
// and any enclosing classes.
func simpleName(full string) string {
	if i := strings.LastIndexAny(full, ".$"); i >= 0 {
		return full[i+1:]
	}
	return full
}

// normalize accepts dotted and internal ("java/lang/String") class names.
func normalize(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "/", ".")
}

// Finder answers name and hierarchy queries over a completed Index.
type Finder struct {
	idx *indexer.Index
}

// New creates a Finder backed by the given Index.
func New(idx *indexer.Index) *Finder {
	return &Finder{idx: idx}
}

// Index returns the index the finder queries.
func (f *Finder) Index() *indexer.Index { return f.idx }

// ListClasses returns the indexed classes whose name starts with prefix,
// sorted by name. An empty prefix lists everything.
func (f *Finder) ListClasses(prefix string) []*symtab.ClassInfo {
	prefix = normalize(prefix)
	all := f.idx.KnownClasses()
	if prefix == "" {
		return all
	}
	out := make([]*symtab.ClassInfo, 0, len(all))
	for _, ci := range all {
		if strings.HasPrefix(ci.Name.String(), prefix) {
			out = append(out, ci)
		}
	}
	return out
}

// GetClass returns the class record for a fully qualified name.
func (f *Finder) GetClass(name string) (*symtab.ClassInfo, error) {
	ci := f.idx.ClassByName(dotname.Simple(normalize(name)))
	if ci == nil {
		return nil, fmt.Errorf("class %q not found in index", name)
	}
	return ci, nil
}

// FindClasses searches class names. A query matches either the fully
// qualified name or the simple name, so "Entry" finds java.util.Map$Entry.
func (f *Finder) FindClasses(query string, mode MatchMode) []*symtab.ClassInfo {
	query = normalize(query)
	var out []*symtab.ClassInfo
	for _, ci := range f.idx.KnownClasses() {
		full := ci.Name.String()
		if matchesQuery(full, query, mode) || matchesQuery(simpleName(full), query, mode) {
			out = append(out, ci)
		}
	}
	return out
}

// FindSubclasses returns the classes extending name. The superclass need
// not be indexed itself, but an indexed interface has no subclasses.
func (f *Finder) FindSubclasses(name string, transitive bool) ([]*symtab.ClassInfo, error) {
	n := dotname.Simple(normalize(name))
	if ci := f.idx.ClassByName(n); ci != nil && ci.IsInterface() {
		return nil, fmt.Errorf("%q is an interface; use find_implementors", name)
	}
	if transitive {
		return f.idx.AllKnownSubclasses(n), nil
	}
	return f.idx.KnownDirectSubclasses(n), nil
}

// FindImplementors returns the classes implementing name. Direct mode returns
// every class listing the interface itself, subinterfaces included;
// transitive mode returns only non-interface classes.
func (f *Finder) FindImplementors(name string, transitive bool) ([]*symtab.ClassInfo, error) {
	n := dotname.Simple(normalize(name))
	if ci := f.idx.ClassByName(n); ci != nil && !ci.IsInterface() {
		return nil, fmt.Errorf("%q is not an interface", name)
	}
	if transitive {
		return f.idx.AllKnownImplementors(n), nil
	}
	return f.idx.KnownDirectImplementors(n), nil
}

// FindSubinterfaces returns the interfaces directly extending name.
func (f *Finder) FindSubinterfaces(name string) []*symtab.ClassInfo {
	return f.idx.KnownDirectSubinterfaces(dotname.Simple(normalize(name)))
}

// FindUsers returns the classes whose constant pool refers to name.
func (f *Finder) FindUsers(name string) []*symtab.ClassInfo {
	return f.idx.KnownUsers(dotname.Simple(normalize(name)))
}

// FindAnnotations returns the uses of an annotation type, optionally
// restricted to one target kind: class, field, method or method_parameter.
func (f *Finder) FindAnnotations(name, kind string) ([]*symtab.AnnotationInstance, error) {
	all := f.idx.Annotations(dotname.Simple(normalize(name)))
	if kind == "" {
		return all, nil
	}
	want, ok := targetKinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown target kind %q", kind)
	}
	out := make([]*symtab.AnnotationInstance, 0, len(all))
	for _, a := range all {
		if a.Target != nil && a.Target.Kind() == want {
			out = append(out, a)
		}
	}
	return out, nil
}

var targetKinds = map[string]symtab.TargetKind{
	symtab.TargetClass.String():           symtab.TargetClass,
	symtab.TargetField.String():           symtab.TargetField,
	symtab.TargetMethod.String():          symtab.TargetMethod,
	symtab.TargetMethodParameter.String(): symtab.TargetMethodParameter,
}
