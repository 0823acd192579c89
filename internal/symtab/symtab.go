// Package symtab holds the records produced by the class-file parser:
// types, annotations, and class, field and method infos.
package symtab

import (
	"strings"

	"github.com/tender-barbarian/class-lens/internal/dotname"
)

// AccessFlags holds JVM access and property flags.
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020
	AccSynchronized AccessFlags = 0x0020
	AccVolatile     AccessFlags = 0x0040
	AccBridge       AccessFlags = 0x0040
	AccTransient    AccessFlags = 0x0080
	AccVarargs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccMandated     AccessFlags = 0x8000
)

// Has reports whether every bit of f2 is set.
func (f AccessFlags) Has(f2 AccessFlags) bool { return f&f2 == f2 }

// NestingType classifies where a class is declared.
type NestingType uint8

const (
	TopLevel NestingType = iota
	Inner
	Local
	Anonymous
)

func (n NestingType) String() string {
	switch n {
	case TopLevel:
		return "top_level"
	case Inner:
		return "inner"
	case Local:
		return "local"
	case Anonymous:
		return "anonymous"
	}
	return "unknown"
}

// EnclosingMethodInfo names the method a local or anonymous class is declared in.
type EnclosingMethodInfo struct {
	Name       string
	Class      dotname.Name
	ReturnType Type
	Parameters []Type
}

// ClassInfo is the record for one parsed class file. It must not be
// modified once it has been committed to an index.
type ClassInfo struct {
	Name            dotname.Name
	Flags           AccessFlags
	Super           Type // nil only for the root of the hierarchy
	Interfaces      []Type
	TypeParameters  []Type
	Fields          []*FieldInfo
	Methods         []*MethodInfo
	Annotations     []*AnnotationInstance // class-level only
	Nesting         NestingType
	SimpleName      string // empty when the class has no source-level name
	EnclosingClass  dotname.Name
	EnclosingMethod *EnclosingMethodInfo
	// NoArgsConstructor is computed by the parser and persisted by the codec.
	NoArgsConstructor bool
}

func (*ClassInfo) Kind() TargetKind { return TargetClass }
func (*ClassInfo) isTarget()        {}
func (c *ClassInfo) String() string { return c.Name.String() }

// IsInterface reports whether the class is an interface (annotation types included).
func (c *ClassInfo) IsInterface() bool { return c.Flags.Has(AccInterface) }

// IsAnnotation reports whether the class is an annotation type.
func (c *ClassInfo) IsAnnotation() bool { return c.Flags.Has(AccAnnotation) }

// IsEnum reports whether the class is an enum.
func (c *ClassInfo) IsEnum() bool { return c.Flags.Has(AccEnum) }

// HasNoArgsConstructor reports whether some constructor has no declared
// parameters. Synthetic and mandated parameters are not counted.
func (c *ClassInfo) HasNoArgsConstructor() bool { return c.NoArgsConstructor }

// SuperName returns the superclass name, or the zero Name for the root.
func (c *ClassInfo) SuperName() dotname.Name {
	if c.Super == nil {
		return dotname.Name{}
	}
	return TypeName(c.Super)
}

// InterfaceNames returns the names of the directly listed interfaces.
func (c *ClassInfo) InterfaceNames() []dotname.Name {
	out := make([]dotname.Name, len(c.Interfaces))
	for i, t := range c.Interfaces {
		out[i] = TypeName(t)
	}
	return out
}

// Method returns the method called name whose full descriptor parameter
// list matches params after erasure.
func (c *ClassInfo) Method(name string, params ...Type) *MethodInfo {
	for _, m := range c.Methods {
		if m.Name != name || len(m.Params) != len(params) {
			continue
		}
		match := true
		for i, p := range m.Params {
			if !TypesEqual(EraseAll(p.Type), EraseAll(params[i])) {
				match = false
				break
			}
		}
		if match {
			return m
		}
	}
	return nil
}

// FirstMethod returns the first method called name.
func (c *ClassInfo) FirstMethod(name string) *MethodInfo {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Field returns the field called name.
func (c *ClassInfo) Field(name string) *FieldInfo {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ClassAnnotation returns the class-level annotation of the given type.
func (c *ClassInfo) ClassAnnotation(name dotname.Name) *AnnotationInstance {
	return findAnnotation(c.Annotations, name)
}

// AllAnnotations returns every annotation declared in this class: class
// level first, then fields, then methods and their parameters.
func (c *ClassInfo) AllAnnotations() []*AnnotationInstance {
	out := append([]*AnnotationInstance(nil), c.Annotations...)
	for _, f := range c.Fields {
		out = append(out, f.Annotations...)
	}
	for _, m := range c.Methods {
		out = append(out, m.Annotations...)
	}
	return out
}

// FieldInfo is the record for one field.
type FieldInfo struct {
	Name        string
	Flags       AccessFlags
	Class       dotname.Name
	Type        Type
	Annotations []*AnnotationInstance
}

func (*FieldInfo) Kind() TargetKind { return TargetField }
func (*FieldInfo) isTarget()        {}
func (f *FieldInfo) String() string { return f.Class.String() + "." + f.Name }

// Annotation returns the annotation of the given type on this field.
func (f *FieldInfo) Annotation(name dotname.Name) *AnnotationInstance {
	return findAnnotation(f.Annotations, name)
}

// Parameter is one entry of a method's descriptor parameter list. Flags
// carries AccSynthetic for parameters with no source declaration and
// AccMandated for parameters implied by the language.
type Parameter struct {
	Type  Type
	Name  string
	Flags AccessFlags
}

// IsDeclared reports whether the parameter was written in source.
func (p Parameter) IsDeclared() bool {
	return p.Flags&(AccSynthetic|AccMandated) == 0
}

// MethodInfo is the record for one method or constructor.
type MethodInfo struct {
	Name           string
	Flags          AccessFlags
	Class          dotname.Name
	ReturnType     Type
	Params         []Parameter // full descriptor-derived list
	Exceptions     []Type
	TypeParameters []Type
	Annotations    []*AnnotationInstance // method and parameter targets
	DefaultValue   *AnnotationValue
}

func (*MethodInfo) Kind() TargetKind { return TargetMethod }
func (*MethodInfo) isTarget()        {}

func (m *MethodInfo) String() string {
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		parts[i] = p.Type.String()
	}
	return m.Class.String() + "." + m.Name + "(" + strings.Join(parts, ", ") + ")"
}

// IsConstructor reports whether this is an instance initializer.
func (m *MethodInfo) IsConstructor() bool { return m.Name == "<init>" }

// IsStaticInit reports whether this is the class initializer.
func (m *MethodInfo) IsStaticInit() bool { return m.Name == "<clinit>" }

// DescriptorParameters returns the full descriptor-derived parameter types.
func (m *MethodInfo) DescriptorParameters() []Type {
	out := make([]Type, len(m.Params))
	for i, p := range m.Params {
		out[i] = p.Type
	}
	return out
}

// Parameters returns the visible parameter types: every descriptor
// parameter except mandated ones. Synthetic parameters stay in the list.
func (m *MethodInfo) Parameters() []Type {
	out := make([]Type, 0, len(m.Params))
	for _, p := range m.Params {
		if p.Flags.Has(AccMandated) {
			continue
		}
		out = append(out, p.Type)
	}
	return out
}

// DeclaredIndex maps a declared position to an index into Params, or -1.
func (m *MethodInfo) DeclaredIndex(position int) int {
	if position < 0 {
		return -1
	}
	n := 0
	for i, p := range m.Params {
		if !p.IsDeclared() {
			continue
		}
		if n == position {
			return i
		}
		n++
	}
	return -1
}

// ParameterName returns the name of the declared parameter at position,
// or "" when it is unknown.
func (m *MethodInfo) ParameterName(position int) string {
	i := m.DeclaredIndex(position)
	if i < 0 {
		return ""
	}
	return m.Params[i].Name
}

// ParameterNames returns the names of the declared parameters in order.
func (m *MethodInfo) ParameterNames() []string {
	var out []string
	for _, p := range m.Params {
		if p.IsDeclared() {
			out = append(out, p.Name)
		}
	}
	return out
}

// Annotation returns the first annotation of the given type on the method
// or one of its parameters.
func (m *MethodInfo) Annotation(name dotname.Name) *AnnotationInstance {
	return findAnnotation(m.Annotations, name)
}

// HasAnnotation reports whether Annotation would find one.
func (m *MethodInfo) HasAnnotation(name dotname.Name) bool {
	return m.Annotation(name) != nil
}

func findAnnotation(list []*AnnotationInstance, name dotname.Name) *AnnotationInstance {
	for _, a := range list {
		if a.Name.Equal(name) {
			return a
		}
	}
	return nil
}
