package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/tender-barbarian/class-lens/internal/dotname"
	"github.com/tender-barbarian/class-lens/internal/indexer"
	"github.com/tender-barbarian/class-lens/internal/symtab"
)

// Writer serializes indexes to an io.Writer.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write serializes idx at CurrentVersion and returns the number of bytes written.
func (w *Writer) Write(idx *indexer.Index) (int, error) {
	return w.WriteVersion(idx, CurrentVersion)
}

// WriteVersion serializes idx in the layout of the given version. Data the
// version cannot carry is dropped or folded to its older form. The stream
// is assembled in memory first, so an unsupported version writes nothing.
func (w *Writer) WriteVersion(idx *indexer.Index, version int) (int, error) {
	if !supported(version) {
		return 0, fmt.Errorf("writing version %d: %w", version, ErrUnsupportedVersion)
	}

	e := &encoder{version: version, table: dotname.NewTable()}
	// The first pass only interns the names the body refers to.
	e.ref = e.collect
	e.body(idx)

	names := e.table.Names()
	e.ids = make(map[string]uint64, len(names))
	e.buf = binary.BigEndian.AppendUint32(nil, magic)
	e.buf = append(e.buf, byte(version))
	e.ref = e.lookup
	e.uvarint(uint64(len(names)))
	for i, n := range names {
		// Parents sort first, so their ids are already assigned.
		e.ids[n.String()] = uint64(i) + 1
		e.name(n.Prefix())
		e.str(n.Local())
	}
	e.body(idx)

	n, err := w.w.Write(e.buf)
	if err != nil {
		return n, fmt.Errorf("writing index: %w", err)
	}
	return n, nil
}

type encoder struct {
	version int
	buf     []byte
	table   *dotname.Table
	ids     map[string]uint64
	ref     func(dotname.Name) uint64
}

func (e *encoder) collect(n dotname.Name) uint64 {
	e.table.Intern(n.String())
	return 0
}

func (e *encoder) lookup(n dotname.Name) uint64 { return e.ids[n.String()] }

func (e *encoder) uvarint(v uint64) { e.buf = binary.AppendUvarint(e.buf, v) }
func (e *encoder) varint(v int64)   { e.buf = binary.AppendVarint(e.buf, v) }
func (e *encoder) byte1(b byte)     { e.buf = append(e.buf, b) }

func (e *encoder) boolean(b bool) {
	if b {
		e.byte1(1)
	} else {
		e.byte1(0)
	}
}

func (e *encoder) str(s string) {
	e.uvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) name(n dotname.Name) {
	if n.IsZero() {
		e.uvarint(0)
		return
	}
	e.uvarint(e.ref(n))
}

func (e *encoder) body(idx *indexer.Index) {
	classes := idx.KnownClasses()
	e.uvarint(uint64(len(classes)))
	for _, ci := range classes {
		e.class(ci)
	}
	if !has(e.version, featUsers) {
		return
	}
	keys := idx.UserNames()
	e.uvarint(uint64(len(keys)))
	for _, key := range keys {
		e.name(key)
		users := idx.KnownUsers(key)
		e.uvarint(uint64(len(users)))
		for _, u := range users {
			e.name(u.Name)
		}
	}
}

func (e *encoder) class(ci *symtab.ClassInfo) {
	e.name(ci.Name)
	e.uvarint(uint64(ci.Flags))
	e.typ(ci.Super)
	e.types(ci.Interfaces)
	if has(e.version, featGenerics) {
		e.types(ci.TypeParameters)
	}

	e.uvarint(uint64(len(ci.Fields)))
	for _, f := range ci.Fields {
		e.str(f.Name)
		e.uvarint(uint64(f.Flags))
		e.typ(f.Type)
		if has(e.version, featMemberAnnotations) {
			e.uvarint(uint64(len(f.Annotations)))
			for _, a := range f.Annotations {
				e.annotation(a)
			}
		}
	}

	e.uvarint(uint64(len(ci.Methods)))
	for _, m := range ci.Methods {
		e.method(m)
	}

	e.uvarint(uint64(len(ci.Annotations)))
	for _, a := range ci.Annotations {
		e.annotation(a)
	}

	if has(e.version, featNoArgs) {
		e.boolean(ci.NoArgsConstructor)
	}
	if has(e.version, featNesting) {
		e.nesting(ci)
	}
}

func (e *encoder) method(m *symtab.MethodInfo) {
	members := has(e.version, featMemberAnnotations)
	e.str(m.Name)
	e.uvarint(uint64(m.Flags))
	e.typ(m.ReturnType)
	e.uvarint(uint64(len(m.Params)))
	for _, p := range m.Params {
		e.typ(p.Type)
		e.uvarint(uint64(p.Flags))
		if members {
			e.str(p.Name)
		}
	}
	e.types(m.Exceptions)
	if has(e.version, featGenerics) {
		e.types(m.TypeParameters)
	}
	if members {
		e.uvarint(uint64(len(m.Annotations)))
		for _, a := range m.Annotations {
			if p, ok := a.Target.(symtab.MethodParameterInfo); ok {
				e.byte1(targetParameter)
				e.uvarint(uint64(p.Position))
			} else {
				e.byte1(targetMethod)
			}
			e.annotation(a)
		}
	}
	if has(e.version, featDefaults) {
		e.boolean(m.DefaultValue != nil)
		if m.DefaultValue != nil {
			e.str(m.DefaultValue.Name)
			e.value(m.DefaultValue.Value)
		}
	}
}

func (e *encoder) nesting(ci *symtab.ClassInfo) {
	nesting, simple, encl, method := ci.Nesting, ci.SimpleName, ci.EnclosingClass, ci.EnclosingMethod
	// Older readers cannot tell a local or anonymous class without an
	// enclosing method from a top-level one.
	if !has(e.version, featLocalWithoutMethod) && (nesting == symtab.Local || nesting == symtab.Anonymous) && method == nil {
		nesting, simple, encl = symtab.TopLevel, "", dotname.Name{}
	}
	e.byte1(byte(nesting))
	e.str(simple)
	e.name(encl)
	e.boolean(method != nil)
	if method != nil {
		e.str(method.Name)
		e.name(method.Class)
		e.typ(method.ReturnType)
		e.types(method.Parameters)
	}
}

func (e *encoder) types(list []symtab.Type) {
	e.uvarint(uint64(len(list)))
	for _, t := range list {
		e.typ(t)
	}
}

func (e *encoder) typ(t symtab.Type) {
	if t == nil {
		e.byte1(tagNone)
		return
	}
	if !has(e.version, featGenerics) {
		t = symtab.EraseAll(t)
	}
	switch tt := t.(type) {
	case symtab.VoidType:
		e.byte1(tagVoid)
	case symtab.PrimitiveType:
		e.byte1(tagPrimitive)
		e.byte1(byte(tt.Primitive))
	case symtab.ArrayType:
		e.byte1(tagArray)
		e.uvarint(uint64(tt.Dimensions))
		e.typ(tt.Component)
	case symtab.ClassType:
		e.byte1(tagClass)
		e.name(tt.Name)
	case symtab.ParameterizedType:
		e.byte1(tagParameterized)
		e.name(tt.Name)
		e.types(tt.Arguments)
		e.typ(tt.Owner)
	case symtab.TypeVariable:
		e.byte1(tagTypeVariable)
		e.str(tt.Identifier)
		e.types(tt.Bounds)
	case symtab.WildcardType:
		e.byte1(tagWildcard)
		e.boolean(tt.Extends)
		e.typ(tt.Bound)
	case symtab.UnresolvedTypeVariable:
		e.byte1(tagUnresolved)
		e.str(tt.Identifier)
	default:
		e.byte1(tagNone)
	}
}

func (e *encoder) annotation(a *symtab.AnnotationInstance) {
	e.name(a.Name)
	e.boolean(a.Visible)
	e.uvarint(uint64(len(a.Values)))
	for _, v := range a.Values {
		e.str(v.Name)
		e.value(v.Value)
	}
}

func (e *encoder) value(v symtab.Value) {
	e.byte1(byte(v.Kind()))
	switch vv := v.(type) {
	case symtab.StringValue:
		e.str(string(vv))
	case symtab.ByteValue:
		e.varint(int64(vv))
	case symtab.CharValue:
		e.uvarint(uint64(vv))
	case symtab.ShortValue:
		e.varint(int64(vv))
	case symtab.IntValue:
		e.varint(int64(vv))
	case symtab.LongValue:
		e.varint(int64(vv))
	case symtab.FloatValue:
		e.uvarint(uint64(math.Float32bits(float32(vv))))
	case symtab.DoubleValue:
		e.uvarint(math.Float64bits(float64(vv)))
	case symtab.BoolValue:
		e.boolean(bool(vv))
	case symtab.ClassValue:
		e.typ(vv.Type)
	case symtab.EnumValue:
		e.name(vv.Type)
		e.str(vv.Constant)
	case symtab.NestedValue:
		e.annotation(vv.Annotation)
	case symtab.ArrayValue:
		e.uvarint(uint64(len(vv)))
		for _, elem := range vv {
			e.value(elem)
		}
	}
}
