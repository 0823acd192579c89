// Package dotname interns hierarchical dotted identifiers such as
// "java.util.Map" so the index can share one handle per distinct name.
package dotname

import (
	"sort"
	"strings"
)

// node is the shared storage behind a Name. Componentized nodes keep a
// pointer to their parent; flat nodes keep the whole string in local.
type node struct {
	prefix *node
	local  string
	full   string
}

// Name is an immutable dotted identifier. The zero Name is empty and
// reports IsZero.
type Name struct {
	n *node
}

// Simple returns a flat, un-interned Name. It compares equal to any
// interned Name with the same string form.
func Simple(s string) Name {
	if s == "" {
		return Name{}
	}
	return Name{n: &node{local: s, full: s}}
}

// IsZero reports whether n is the empty name.
func (n Name) IsZero() bool { return n.n == nil }

// String returns the full dotted form.
func (n Name) String() string {
	if n.n == nil {
		return ""
	}
	return n.n.full
}

// Local returns the last segment for componentized names and the whole
// string for flat ones.
func (n Name) Local() string {
	if n.n == nil {
		return ""
	}
	return n.n.local
}

// Prefix returns the parent name, or the zero Name for flat and root names.
func (n Name) Prefix() Name {
	if n.n == nil || n.n.prefix == nil {
		return Name{}
	}
	return Name{n: n.n.prefix}
}

// IsComponentized reports whether n was built from a parent and a local part.
func (n Name) IsComponentized() bool {
	return n.n != nil && n.n.prefix != nil
}

// PackagePrefix returns everything before the last '.', or "" if there is none.
func (n Name) PackagePrefix() string {
	s := n.String()
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return ""
}

// Equal compares by full string, with a pointer fast path for names from the same table.
func (n Name) Equal(o Name) bool {
	if n.n == o.n {
		return true
	}
	return n.String() == o.String()
}

// Compare orders names by their full string form.
func (n Name) Compare(o Name) int {
	return strings.Compare(n.String(), o.String())
}

// Table interns names. It is not safe for concurrent mutation; once the
// owning index is complete it is only read.
type Table struct {
	byFull map[string]*node
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{byFull: make(map[string]*node)}
}

// Intern returns the componentized Name for s, interning every parent
// segment along the way.
func (t *Table) Intern(s string) Name {
	if s == "" {
		return Name{}
	}
	if nd, ok := t.byFull[s]; ok {
		return Name{n: nd}
	}
	var parent *node
	local := s
	if i := strings.LastIndexByte(s, '.'); i > 0 && i < len(s)-1 {
		parent = t.Intern(s[:i]).n
		local = s[i+1:]
	}
	nd := &node{prefix: parent, local: local, full: s}
	t.byFull[s] = nd
	return Name{n: nd}
}

// InternInternal interns a JVM internal-form name ("java/lang/String").
func (t *Table) InternInternal(s string) Name {
	return t.Intern(strings.ReplaceAll(s, "/", "."))
}

// Nested interns the child of prefix with the given local segment.
func (t *Table) Nested(prefix Name, local string) Name {
	if prefix.IsZero() {
		return t.Intern(local)
	}
	full := prefix.String() + "." + local
	if nd, ok := t.byFull[full]; ok {
		return Name{n: nd}
	}
	p := t.Intern(prefix.String()).n
	nd := &node{prefix: p, local: local, full: full}
	t.byFull[full] = nd
	return Name{n: nd}
}

// Lookup returns the interned Name for s, if any.
func (t *Table) Lookup(s string) (Name, bool) {
	nd, ok := t.byFull[s]
	if !ok {
		return Name{}, false
	}
	return Name{n: nd}, true
}

// Len returns the number of interned names, parents included.
func (t *Table) Len() int { return len(t.byFull) }

// Names returns every interned name sorted by full string. A parent always
// sorts before its children since it is a strict prefix of them.
func (t *Table) Names() []Name {
	out := make([]Name, 0, len(t.byFull))
	for _, nd := range t.byFull {
		out = append(out, Name{n: nd})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].n.full < out[j].n.full })
	return out
}
