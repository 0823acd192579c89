package indexer

import (
	"sort"

	"github.com/tender-barbarian/class-lens/internal/dotname"
	"github.com/tender-barbarian/class-lens/internal/symtab"
)

// Index is an immutable set of class records with reverse lookups. It is
// safe for concurrent readers.
//
// Reverse maps are keyed by name and may have keys that have no class
// record of their own, such as a JDK interface. Their values are always
// classes present in the index.
type Index struct {
	table   *dotname.Table
	classes []*symtab.ClassInfo // sorted by name
	byName  map[string]int

	subclasses    map[string][]*symtab.ClassInfo
	implementors  map[string][]*symtab.ClassInfo
	subinterfaces map[string][]*symtab.ClassInfo
	annotations   map[string][]*symtab.AnnotationInstance
	users         map[string][]*symtab.ClassInfo
}

// NewIndex assembles an index from class records and a user table that
// maps a referenced class name to the names of the classes using it. When
// two records share a name the later one wins. User names without a class
// record are dropped.
func NewIndex(table *dotname.Table, classes []*symtab.ClassInfo, users map[string][]dotname.Name) *Index {
	if table == nil {
		table = dotname.NewTable()
	}
	unique := make(map[string]*symtab.ClassInfo, len(classes))
	for _, ci := range classes {
		unique[ci.Name.String()] = ci
	}
	sorted := make([]*symtab.ClassInfo, 0, len(unique))
	for _, ci := range unique {
		sorted = append(sorted, ci)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name.Compare(sorted[j].Name) < 0 })

	idx := &Index{
		table:         table,
		classes:       sorted,
		byName:        make(map[string]int, len(sorted)),
		subclasses:    make(map[string][]*symtab.ClassInfo),
		implementors:  make(map[string][]*symtab.ClassInfo),
		subinterfaces: make(map[string][]*symtab.ClassInfo),
		annotations:   make(map[string][]*symtab.AnnotationInstance),
		users:         make(map[string][]*symtab.ClassInfo),
	}
	for i, ci := range sorted {
		idx.byName[ci.Name.String()] = i
	}

	for _, ci := range sorted {
		if ci.Super != nil {
			key := ci.SuperName().String()
			idx.subclasses[key] = append(idx.subclasses[key], ci)
		}
		for _, iface := range ci.InterfaceNames() {
			key := iface.String()
			idx.implementors[key] = append(idx.implementors[key], ci)
			if ci.IsInterface() {
				idx.subinterfaces[key] = append(idx.subinterfaces[key], ci)
			}
		}
		for _, a := range ci.AllAnnotations() {
			key := a.Name.String()
			idx.annotations[key] = append(idx.annotations[key], a)
		}
	}

	for key, names := range users {
		seen := make(map[string]bool, len(names))
		var list []*symtab.ClassInfo
		for _, n := range names {
			ci := idx.ClassByName(n)
			if ci == nil || seen[n.String()] {
				continue
			}
			seen[n.String()] = true
			list = append(list, ci)
		}
		if len(list) == 0 {
			continue
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Name.Compare(list[j].Name) < 0 })
		idx.users[key] = list
	}
	return idx
}

// Table returns the name table backing this index.
func (idx *Index) Table() *dotname.Table { return idx.table }

// Len returns the number of classes.
func (idx *Index) Len() int { return len(idx.classes) }

// ClassByName returns the class record for name, or nil.
func (idx *Index) ClassByName(name dotname.Name) *symtab.ClassInfo {
	i, ok := idx.byName[name.String()]
	if !ok {
		return nil
	}
	return idx.classes[i]
}

// KnownClasses returns every class sorted by name.
func (idx *Index) KnownClasses() []*symtab.ClassInfo {
	return append([]*symtab.ClassInfo(nil), idx.classes...)
}

// KnownDirectSubclasses returns the classes whose superclass is name.
func (idx *Index) KnownDirectSubclasses(name dotname.Name) []*symtab.ClassInfo {
	return clone(idx.subclasses[name.String()])
}

// KnownDirectImplementors returns the classes that list name among their
// interfaces, interfaces extending it included. Classes that implement it
// through another interface or a superclass are not included.
func (idx *Index) KnownDirectImplementors(name dotname.Name) []*symtab.ClassInfo {
	return clone(idx.implementors[name.String()])
}

// KnownDirectSubinterfaces returns the interfaces that extend name directly.
func (idx *Index) KnownDirectSubinterfaces(name dotname.Name) []*symtab.ClassInfo {
	return clone(idx.subinterfaces[name.String()])
}

// AllKnownSubclasses returns every indexed class that extends name,
// directly or transitively, sorted by name.
func (idx *Index) AllKnownSubclasses(name dotname.Name) []*symtab.ClassInfo {
	found := make(map[string]*symtab.ClassInfo)
	idx.collectSubclasses(name.String(), found)
	return sortedValues(found)
}

func (idx *Index) collectSubclasses(key string, found map[string]*symtab.ClassInfo) {
	queue := []string{key}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, ci := range idx.subclasses[cur] {
			k := ci.Name.String()
			if _, ok := found[k]; ok {
				continue
			}
			found[k] = ci
			queue = append(queue, k)
		}
	}
}

// AllKnownImplementors returns every indexed non-interface class that
// implements name through any chain of subinterfaces and superclasses,
// sorted by name.
func (idx *Index) AllKnownImplementors(name dotname.Name) []*symtab.ClassInfo {
	found := make(map[string]*symtab.ClassInfo)
	visited := map[string]bool{name.String(): true}
	queue := []string{name.String()}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, sub := range idx.subinterfaces[cur] {
			k := sub.Name.String()
			if !visited[k] {
				visited[k] = true
				queue = append(queue, k)
			}
		}
		for _, ci := range idx.implementors[cur] {
			if ci.IsInterface() {
				continue
			}
			k := ci.Name.String()
			if _, ok := found[k]; ok {
				continue
			}
			found[k] = ci
			idx.collectSubclasses(k, found)
		}
	}
	return sortedValues(found)
}

// Annotations returns every instance of the annotation type name, ordered
// by declaring class, then class, field and method targets.
func (idx *Index) Annotations(name dotname.Name) []*symtab.AnnotationInstance {
	return append([]*symtab.AnnotationInstance(nil), idx.annotations[name.String()]...)
}

// AnnotationNames returns the annotation types in use, sorted.
func (idx *Index) AnnotationNames() []dotname.Name {
	out := make([]dotname.Name, 0, len(idx.annotations))
	for _, list := range idx.annotations {
		out = append(out, list[0].Name)
	}
	sortNames(out)
	return out
}

// KnownUsers returns the classes whose constant pool names name as a
// symbol, excluding pure inheritance.
func (idx *Index) KnownUsers(name dotname.Name) []*symtab.ClassInfo {
	return clone(idx.users[name.String()])
}

// UserNames returns the keys of the user table, sorted.
func (idx *Index) UserNames() []dotname.Name {
	out := make([]dotname.Name, 0, len(idx.users))
	for key := range idx.users {
		n, ok := idx.table.Lookup(key)
		if !ok {
			n = dotname.Simple(key)
		}
		out = append(out, n)
	}
	sortNames(out)
	return out
}

func clone(list []*symtab.ClassInfo) []*symtab.ClassInfo {
	return append([]*symtab.ClassInfo(nil), list...)
}

func sortedValues(m map[string]*symtab.ClassInfo) []*symtab.ClassInfo {
	out := make([]*symtab.ClassInfo, 0, len(m))
	for _, ci := range m {
		out = append(out, ci)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.Compare(out[j].Name) < 0 })
	return out
}

func sortNames(names []dotname.Name) {
	sort.Slice(names, func(i, j int) bool { return names[i].Compare(names[j]) < 0 })
}
