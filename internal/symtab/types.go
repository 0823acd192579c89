package symtab

import (
	"strings"

	"github.com/tender-barbarian/class-lens/internal/dotname"
)

// TypeKind classifies a Type.
type TypeKind uint8

const (
	KindVoid TypeKind = iota
	KindPrimitive
	KindArray
	KindClass
	KindParameterized
	KindTypeVariable
	KindWildcard
	KindUnresolvedTypeVariable
)

func (k TypeKind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	case KindClass:
		return "class"
	case KindParameterized:
		return "parameterized"
	case KindTypeVariable:
		return "type-variable"
	case KindWildcard:
		return "wildcard"
	case KindUnresolvedTypeVariable:
		return "unresolved-type-variable"
	}
	return "unknown"
}

// Type is a reconstructed Java type. The set of implementations is closed:
// VoidType, PrimitiveType, ArrayType, ClassType, ParameterizedType,
// TypeVariable, WildcardType and UnresolvedTypeVariable.
type Type interface {
	Kind() TypeKind
	String() string
	isType()
}

// Primitive enumerates the JVM primitive types.
type Primitive uint8

const (
	Boolean Primitive = iota + 1
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
)

var primitiveNames = map[Primitive]string{
	Boolean: "boolean",
	Byte:    "byte",
	Char:    "char",
	Short:   "short",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
}

var primitiveDescriptors = map[byte]Primitive{
	'Z': Boolean,
	'B': Byte,
	'C': Char,
	'S': Short,
	'I': Int,
	'J': Long,
	'F': Float,
	'D': Double,
}

// PrimitiveFromDescriptor maps a descriptor character such as 'I' to its Primitive.
func PrimitiveFromDescriptor(c byte) (Primitive, bool) {
	p, ok := primitiveDescriptors[c]
	return p, ok
}

func (p Primitive) String() string { return primitiveNames[p] }

// VoidType is the return type of methods that return nothing.
type VoidType struct{}

// PrimitiveType is one of the eight JVM primitives.
type PrimitiveType struct {
	Primitive Primitive
}

// ArrayType is an array of Component with Dimensions levels. Component is
// never itself an ArrayType.
type ArrayType struct {
	Component  Type
	Dimensions int
}

// ClassType is an erased reference to a class or interface.
type ClassType struct {
	Name dotname.Name
}

// ParameterizedType is a generic class applied to type arguments. Owner is
// set for member classes of a parameterized outer type.
type ParameterizedType struct {
	Name      dotname.Name
	Arguments []Type
	Owner     Type
}

// TypeVariable is a declared type parameter, or a use of one that could be
// resolved against its declaration.
type TypeVariable struct {
	Identifier string
	Bounds     []Type
}

// WildcardType is a "?" type argument. A nil Bound with Extends set is the
// unbounded wildcard.
type WildcardType struct {
	Bound   Type
	Extends bool
}

// UnresolvedTypeVariable is a use of a type variable declared outside the
// scope visible to the parser, typically by an enclosing class.
type UnresolvedTypeVariable struct {
	Identifier string
}

func (VoidType) Kind() TypeKind               { return KindVoid }
func (PrimitiveType) Kind() TypeKind          { return KindPrimitive }
func (ArrayType) Kind() TypeKind              { return KindArray }
func (ClassType) Kind() TypeKind              { return KindClass }
func (ParameterizedType) Kind() TypeKind      { return KindParameterized }
func (TypeVariable) Kind() TypeKind           { return KindTypeVariable }
func (WildcardType) Kind() TypeKind           { return KindWildcard }
func (UnresolvedTypeVariable) Kind() TypeKind { return KindUnresolvedTypeVariable }

func (VoidType) isType()               {}
func (PrimitiveType) isType()          {}
func (ArrayType) isType()              {}
func (ClassType) isType()              {}
func (ParameterizedType) isType()      {}
func (TypeVariable) isType()           {}
func (WildcardType) isType()           {}
func (UnresolvedTypeVariable) isType() {}

func (VoidType) String() string        { return "void" }
func (t PrimitiveType) String() string { return t.Primitive.String() }
func (t ArrayType) String() string {
	return t.Component.String() + strings.Repeat("[]", t.Dimensions)
}
func (t ClassType) String() string { return t.Name.String() }

func (t ParameterizedType) String() string {
	var b strings.Builder
	if t.Owner != nil {
		b.WriteString(t.Owner.String())
		b.WriteByte('$')
		name := t.Name.String()
		if i := strings.LastIndexAny(name, "$."); i >= 0 {
			name = name[i+1:]
		}
		b.WriteString(name)
	} else {
		b.WriteString(t.Name.String())
	}
	if len(t.Arguments) > 0 {
		b.WriteByte('<')
		for i, a := range t.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteByte('>')
	}
	return b.String()
}

func (t TypeVariable) String() string { return t.Identifier }

func (t WildcardType) String() string {
	if t.Bound == nil {
		return "?"
	}
	if t.Extends {
		return "? extends " + t.Bound.String()
	}
	return "? super " + t.Bound.String()
}

func (t UnresolvedTypeVariable) String() string { return t.Identifier }

// Common types.
var (
	Void         Type = VoidType{}
	BooleanType  Type = PrimitiveType{Primitive: Boolean}
	ByteType     Type = PrimitiveType{Primitive: Byte}
	CharType     Type = PrimitiveType{Primitive: Char}
	ShortType    Type = PrimitiveType{Primitive: Short}
	IntType      Type = PrimitiveType{Primitive: Int}
	LongType     Type = PrimitiveType{Primitive: Long}
	FloatType    Type = PrimitiveType{Primitive: Float}
	DoubleType   Type = PrimitiveType{Primitive: Double}
	objectName        = dotname.Simple("java.lang.Object")
)

// NewClassType returns a ClassType for the dotted class name s.
func NewClassType(s string) Type {
	return ClassType{Name: dotname.Simple(s)}
}

// ObjectType returns java.lang.Object.
func ObjectType() Type { return ClassType{Name: objectName} }

// TypeName returns the class name a type refers to: the class for class
// and parameterized types, the element class for arrays, and the zero Name
// otherwise.
func TypeName(t Type) dotname.Name {
	switch tt := t.(type) {
	case ClassType:
		return tt.Name
	case ParameterizedType:
		return tt.Name
	case ArrayType:
		return TypeName(tt.Component)
	}
	return dotname.Name{}
}

// TypesEqual compares two types structurally.
func TypesEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch at := a.(type) {
	case VoidType:
		return true
	case PrimitiveType:
		return at.Primitive == b.(PrimitiveType).Primitive
	case ArrayType:
		bt := b.(ArrayType)
		return at.Dimensions == bt.Dimensions && TypesEqual(at.Component, bt.Component)
	case ClassType:
		return at.Name.Equal(b.(ClassType).Name)
	case ParameterizedType:
		bt := b.(ParameterizedType)
		return at.Name.Equal(bt.Name) && TypesEqual(at.Owner, bt.Owner) && typeListsEqual(at.Arguments, bt.Arguments)
	case TypeVariable:
		bt := b.(TypeVariable)
		return at.Identifier == bt.Identifier && typeListsEqual(at.Bounds, bt.Bounds)
	case WildcardType:
		bt := b.(WildcardType)
		return at.Extends == bt.Extends && TypesEqual(at.Bound, bt.Bound)
	case UnresolvedTypeVariable:
		return at.Identifier == b.(UnresolvedTypeVariable).Identifier
	}
	return false
}

func typeListsEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !TypesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Erasure returns the erased form of t. The second result is false when
// the erasure cannot be determined, which happens for unresolved type
// variables and for variables referenced before their bounds were known.
func Erasure(t Type) (Type, bool) {
	switch tt := t.(type) {
	case VoidType, PrimitiveType, ClassType:
		return t, true
	case ArrayType:
		c, ok := Erasure(tt.Component)
		if !ok {
			return nil, false
		}
		if inner, isArray := c.(ArrayType); isArray {
			return ArrayType{Component: inner.Component, Dimensions: inner.Dimensions + tt.Dimensions}, true
		}
		return ArrayType{Component: c, Dimensions: tt.Dimensions}, true
	case ParameterizedType:
		return ClassType{Name: tt.Name}, true
	case TypeVariable:
		if len(tt.Bounds) == 0 {
			return nil, false
		}
		return Erasure(tt.Bounds[0])
	case WildcardType:
		if tt.Bound == nil || !tt.Extends {
			return ObjectType(), true
		}
		return Erasure(tt.Bound)
	case UnresolvedTypeVariable:
		return nil, false
	}
	return nil, false
}

// EraseAll returns the erasure of t, falling back to java.lang.Object (or
// an Object array) when the erasure cannot be determined.
func EraseAll(t Type) Type {
	if e, ok := Erasure(t); ok {
		return e
	}
	if at, ok := t.(ArrayType); ok {
		return ArrayType{Component: ObjectType(), Dimensions: at.Dimensions}
	}
	return ObjectType()
}
