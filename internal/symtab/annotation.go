package symtab

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tender-barbarian/class-lens/internal/dotname"
)

// ErrUnknownAnnotationType is returned by default-value queries when the
// annotation type has no class record in the index.
var ErrUnknownAnnotationType = errors.New("classlens: annotation type not indexed")

// ValueKind classifies an annotation Value.
type ValueKind uint8

const (
	ValueString ValueKind = iota + 1
	ValueByte
	ValueChar
	ValueShort
	ValueInt
	ValueLong
	ValueFloat
	ValueDouble
	ValueBoolean
	ValueClass
	ValueEnum
	ValueNested
	ValueArray
)

// Value is the payload of an annotation element. The implementations are
// closed: StringValue, ByteValue, CharValue, ShortValue, IntValue,
// LongValue, FloatValue, DoubleValue, BoolValue, ClassValue, EnumValue,
// NestedValue and ArrayValue.
type Value interface {
	Kind() ValueKind
	isValue()
}

type (
	StringValue string
	ByteValue   int8
	CharValue   uint16
	ShortValue  int16
	IntValue    int32
	LongValue   int64
	FloatValue  float32
	DoubleValue float64
	BoolValue   bool
	ArrayValue  []Value
)

// ClassValue is a class literal such as String.class or void.class.
type ClassValue struct {
	Type Type
}

// EnumValue is an enum constant.
type EnumValue struct {
	Type     dotname.Name
	Constant string
}

// NestedValue is an annotation used as an element value.
type NestedValue struct {
	Annotation *AnnotationInstance
}

func (StringValue) Kind() ValueKind { return ValueString }
func (ByteValue) Kind() ValueKind   { return ValueByte }
func (CharValue) Kind() ValueKind   { return ValueChar }
func (ShortValue) Kind() ValueKind  { return ValueShort }
func (IntValue) Kind() ValueKind    { return ValueInt }
func (LongValue) Kind() ValueKind   { return ValueLong }
func (FloatValue) Kind() ValueKind  { return ValueFloat }
func (DoubleValue) Kind() ValueKind { return ValueDouble }
func (BoolValue) Kind() ValueKind   { return ValueBoolean }
func (ClassValue) Kind() ValueKind  { return ValueClass }
func (EnumValue) Kind() ValueKind   { return ValueEnum }
func (NestedValue) Kind() ValueKind { return ValueNested }
func (ArrayValue) Kind() ValueKind  { return ValueArray }

func (StringValue) isValue() {}
func (ByteValue) isValue()   {}
func (CharValue) isValue()   {}
func (ShortValue) isValue()  {}
func (IntValue) isValue()    {}
func (LongValue) isValue()   {}
func (FloatValue) isValue()  {}
func (DoubleValue) isValue() {}
func (BoolValue) isValue()   {}
func (ClassValue) isValue()  {}
func (EnumValue) isValue()   {}
func (NestedValue) isValue() {}
func (ArrayValue) isValue()  {}

// AnnotationValue is a named element of an annotation instance.
type AnnotationValue struct {
	Name  string
	Value Value
}

// AsString returns the string form of scalar values; enum values yield the constant name.
func (v *AnnotationValue) AsString() string {
	if v == nil {
		return ""
	}
	return FormatValue(v.Value)
}

// AsLong converts any numeric value to int64.
func (v *AnnotationValue) AsLong() int64 {
	if v == nil {
		return 0
	}
	return numberAsLong(v.Value)
}

// AsInt converts any numeric value to int32.
func (v *AnnotationValue) AsInt() int32 { return int32(v.AsLong()) }

// AsDouble converts any numeric value to float64.
func (v *AnnotationValue) AsDouble() float64 {
	if v == nil {
		return 0
	}
	return numberAsDouble(v.Value)
}

// AsFloat converts any numeric value to float32.
func (v *AnnotationValue) AsFloat() float32 {
	if v == nil {
		return 0
	}
	if f, ok := v.Value.(FloatValue); ok {
		return float32(f)
	}
	return float32(v.AsDouble())
}

// AsBool returns boolean values, false for anything else.
func (v *AnnotationValue) AsBool() bool {
	if v == nil {
		return false
	}
	b, _ := v.Value.(BoolValue)
	return bool(b)
}

// AsClass returns the type of a class literal, or nil.
func (v *AnnotationValue) AsClass() Type {
	if v == nil {
		return nil
	}
	if c, ok := v.Value.(ClassValue); ok {
		return c.Type
	}
	return nil
}

// AsEnum returns the constant name of an enum value.
func (v *AnnotationValue) AsEnum() string {
	if v == nil {
		return ""
	}
	e, _ := v.Value.(EnumValue)
	return e.Constant
}

// AsNested returns a nested annotation, or nil.
func (v *AnnotationValue) AsNested() *AnnotationInstance {
	if v == nil {
		return nil
	}
	n, _ := v.Value.(NestedValue)
	return n.Annotation
}

// AsArray returns the elements of an array value. A scalar is treated as a
// one-element array, matching how the compiler accepts single values for
// array-typed elements.
func (v *AnnotationValue) AsArray() []Value {
	if v == nil || v.Value == nil {
		return nil
	}
	if a, ok := v.Value.(ArrayValue); ok {
		return a
	}
	return []Value{v.Value}
}

// AsIntArray converts each array element with AsInt semantics.
func (v *AnnotationValue) AsIntArray() []int32 {
	elems := v.AsArray()
	out := make([]int32, len(elems))
	for i, e := range elems {
		out[i] = int32(numberAsLong(e))
	}
	return out
}

// AsStringArray converts each array element with AsString semantics.
func (v *AnnotationValue) AsStringArray() []string {
	elems := v.AsArray()
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = FormatValue(e)
	}
	return out
}

// AsEnumArray returns the constant names of an enum array.
func (v *AnnotationValue) AsEnumArray() []string {
	elems := v.AsArray()
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		if ev, ok := e.(EnumValue); ok {
			out = append(out, ev.Constant)
		}
	}
	return out
}

// AsNestedArray returns the annotations of a nested-annotation array.
func (v *AnnotationValue) AsNestedArray() []*AnnotationInstance {
	elems := v.AsArray()
	out := make([]*AnnotationInstance, 0, len(elems))
	for _, e := range elems {
		if nv, ok := e.(NestedValue); ok {
			out = append(out, nv.Annotation)
		}
	}
	return out
}

func numberAsLong(v Value) int64 {
	switch n := v.(type) {
	case ByteValue:
		return int64(n)
	case CharValue:
		return int64(n)
	case ShortValue:
		return int64(n)
	case IntValue:
		return int64(n)
	case LongValue:
		return int64(n)
	case FloatValue:
		return int64(n)
	case DoubleValue:
		return int64(n)
	}
	return 0
}

func numberAsDouble(v Value) float64 {
	switch n := v.(type) {
	case FloatValue:
		return float64(n)
	case DoubleValue:
		return float64(n)
	}
	return float64(numberAsLong(v))
}

// FormatValue renders a value in a Java-like literal form.
func FormatValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case StringValue:
		return string(x)
	case ByteValue, ShortValue, IntValue, LongValue:
		return fmt.Sprintf("%d", numberAsLong(x))
	case CharValue:
		return string(rune(x))
	case FloatValue:
		return fmt.Sprintf("%g", float32(x))
	case DoubleValue:
		return fmt.Sprintf("%g", float64(x))
	case BoolValue:
		return fmt.Sprintf("%t", bool(x))
	case ClassValue:
		return x.Type.String() + ".class"
	case EnumValue:
		return x.Constant
	case NestedValue:
		return x.Annotation.String()
	case ArrayValue:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = FormatValue(e)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return ""
}

// ValuesEqual compares two element values structurally.
func ValuesEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case StringValue, ByteValue, CharValue, ShortValue, IntValue, LongValue, BoolValue:
		return a == b
	case FloatValue:
		return math.Float32bits(float32(x)) == math.Float32bits(float32(b.(FloatValue)))
	case DoubleValue:
		return math.Float64bits(float64(x)) == math.Float64bits(float64(b.(DoubleValue)))
	case ClassValue:
		return TypesEqual(x.Type, b.(ClassValue).Type)
	case EnumValue:
		y := b.(EnumValue)
		return x.Type.Equal(y.Type) && x.Constant == y.Constant
	case NestedValue:
		return x.Annotation.Equal(b.(NestedValue).Annotation)
	case ArrayValue:
		y := b.(ArrayValue)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !ValuesEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// TargetKind classifies an AnnotationTarget.
type TargetKind uint8

const (
	TargetClass TargetKind = iota + 1
	TargetField
	TargetMethod
	TargetMethodParameter
)

func (k TargetKind) String() string {
	switch k {
	case TargetClass:
		return "class"
	case TargetField:
		return "field"
	case TargetMethod:
		return "method"
	case TargetMethodParameter:
		return "method_parameter"
	}
	return "unknown"
}

// AnnotationTarget is the element an annotation is declared on. It is
// implemented by *ClassInfo, *FieldInfo, *MethodInfo and MethodParameterInfo.
// Nested annotations used as values have a nil target.
type AnnotationTarget interface {
	Kind() TargetKind
	String() string
	isTarget()
}

// MethodParameterInfo targets a declared parameter. Position counts only
// declared parameters, so 0 is the first parameter written in source.
type MethodParameterInfo struct {
	Method   *MethodInfo
	Position int
}

func (MethodParameterInfo) Kind() TargetKind { return TargetMethodParameter }
func (MethodParameterInfo) isTarget()        {}

// Name returns the declared parameter name, if known.
func (p MethodParameterInfo) Name() string { return p.Method.ParameterName(p.Position) }

func (p MethodParameterInfo) String() string {
	return fmt.Sprintf("%s #%d", p.Method.String(), p.Position)
}

// AnnotationInstance is one use of an annotation.
type AnnotationInstance struct {
	Name    dotname.Name
	Target  AnnotationTarget
	Values  []AnnotationValue
	Visible bool
}

// Value returns the explicitly set element called name, or nil.
func (a *AnnotationInstance) Value(name string) *AnnotationValue {
	for i := range a.Values {
		if a.Values[i].Name == name {
			return &a.Values[i]
		}
	}
	return nil
}

// ClassLookup resolves class records by name. A completed index implements it.
type ClassLookup interface {
	ClassByName(name dotname.Name) *ClassInfo
}

func (a *AnnotationInstance) definition(classes ClassLookup) (*ClassInfo, error) {
	if classes == nil {
		return nil, fmt.Errorf("resolving %s: %w", a.Name, ErrUnknownAnnotationType)
	}
	def := classes.ClassByName(a.Name)
	if def == nil {
		return nil, fmt.Errorf("resolving %s: %w", a.Name, ErrUnknownAnnotationType)
	}
	return def, nil
}

// ValueWithDefault returns the explicit value for name or, failing that, the
// default declared on the annotation type. A nil value with a nil error
// means neither exists.
func (a *AnnotationInstance) ValueWithDefault(classes ClassLookup, name string) (*AnnotationValue, error) {
	if v := a.Value(name); v != nil {
		return v, nil
	}
	def, err := a.definition(classes)
	if err != nil {
		return nil, err
	}
	m := def.FirstMethod(name)
	if m == nil || m.DefaultValue == nil {
		return nil, nil
	}
	return m.DefaultValue, nil
}

// ValuesWithDefaults returns one value per element of the annotation type,
// explicit values first in preference, in the type's method order. Elements
// with neither an explicit value nor a default are omitted.
func (a *AnnotationInstance) ValuesWithDefaults(classes ClassLookup) ([]AnnotationValue, error) {
	def, err := a.definition(classes)
	if err != nil {
		return nil, err
	}
	out := make([]AnnotationValue, 0, len(def.Methods))
	for _, m := range def.Methods {
		if m.IsConstructor() || m.IsStaticInit() || m.Flags.Has(AccStatic) {
			continue
		}
		if v := a.Value(m.Name); v != nil {
			out = append(out, *v)
			continue
		}
		if m.DefaultValue != nil {
			out = append(out, *m.DefaultValue)
		}
	}
	return out, nil
}

// Equal compares name, target and values.
func (a *AnnotationInstance) Equal(b *AnnotationInstance) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !a.Name.Equal(b.Name) || a.Visible != b.Visible || !TargetsEqual(a.Target, b.Target) {
		return false
	}
	if len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if a.Values[i].Name != b.Values[i].Name || !ValuesEqual(a.Values[i].Value, b.Values[i].Value) {
			return false
		}
	}
	return true
}

func (a *AnnotationInstance) String() string {
	var b strings.Builder
	b.WriteByte('@')
	b.WriteString(a.Name.String())
	if len(a.Values) > 0 {
		b.WriteByte('(')
		for i, v := range a.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(v.Name)
			b.WriteString(" = ")
			b.WriteString(FormatValue(v.Value))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// TargetsEqual compares targets by the identity of the element they name:
// the class name, the member name and erased signature, and the parameter position.
func TargetsEqual(a, b AnnotationTarget) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *ClassInfo:
		return x.Name.Equal(b.(*ClassInfo).Name)
	case *FieldInfo:
		y := b.(*FieldInfo)
		return x.Class.Equal(y.Class) && x.Name == y.Name
	case *MethodInfo:
		return sameMethod(x, b.(*MethodInfo))
	case MethodParameterInfo:
		y := b.(MethodParameterInfo)
		return x.Position == y.Position && sameMethod(x.Method, y.Method)
	}
	return false
}

func sameMethod(x, y *MethodInfo) bool {
	if x == y {
		return true
	}
	if x == nil || y == nil || !x.Class.Equal(y.Class) || x.Name != y.Name || len(x.Params) != len(y.Params) {
		return false
	}
	for i := range x.Params {
		if !TypesEqual(EraseAll(x.Params[i].Type), EraseAll(y.Params[i].Type)) {
			return false
		}
	}
	return true
}
