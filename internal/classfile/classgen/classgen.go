// Package classgen assembles minimal class files for tests. Class entries
// are always emitted before the Utf8 entry they point to, so every parse of
// generated output exercises forward constant-pool references.
package classgen

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"unicode/utf16"
)

// Access flags used by tests.
const (
	AccPublic    uint16 = 0x0001
	AccPrivate   uint16 = 0x0002
	AccStatic    uint16 = 0x0008
	AccFinal     uint16 = 0x0010
	AccSuper     uint16 = 0x0020
	AccInterface uint16 = 0x0200
	AccAbstract  uint16 = 0x0400
	AccSynthetic uint16 = 0x1000
	AccAnno      uint16 = 0x2000
	AccEnum      uint16 = 0x4000
	AccMandated  uint16 = 0x8000
)

func internal(name string) string { return strings.ReplaceAll(name, ".", "/") }

// Desc returns the field descriptor of a dotted class name.
func Desc(name string) string { return "L" + internal(name) + ";" }

type pool struct {
	entries [][]byte
	index   map[string]uint16
}

func newPool() *pool { return &pool{entries: [][]byte{nil}, index: map[string]uint16{}} }

func (p *pool) reserve(key string, wide bool) (uint16, bool) {
	if i, ok := p.index[key]; ok {
		return i, false
	}
	i := uint16(len(p.entries))
	p.entries = append(p.entries, nil)
	if wide {
		p.entries = append(p.entries, nil)
	}
	p.index[key] = i
	return i, true
}

func (p *pool) set(i uint16, tag byte, payload ...uint16) {
	b := []byte{tag}
	for _, v := range payload {
		b = binary.BigEndian.AppendUint16(b, v)
	}
	p.entries[i] = b
}

func (p *pool) utf8(s string) uint16 {
	i, fresh := p.reserve("U"+s, false)
	if fresh {
		enc := modifiedUTF8(s)
		b := []byte{1}
		b = binary.BigEndian.AppendUint16(b, uint16(len(enc)))
		p.entries[i] = append(b, enc...)
	}
	return i
}

func (p *pool) class(name string) uint16 {
	name = internal(name)
	i, fresh := p.reserve("C"+name, false)
	if fresh {
		p.set(i, 7, p.utf8(name))
	}
	return i
}

func (p *pool) nameAndType(name, desc string) uint16 {
	i, fresh := p.reserve("N"+name+" "+desc, false)
	if fresh {
		p.set(i, 12, p.utf8(name), p.utf8(desc))
	}
	return i
}

func (p *pool) member(tag byte, owner, name, desc string) uint16 {
	i, fresh := p.reserve(string(rune('0'+tag))+owner+"."+name+desc, false)
	if fresh {
		p.set(i, tag, p.class(owner), p.nameAndType(name, desc))
	}
	return i
}

func (p *pool) integer(v int32) uint16 {
	i, fresh := p.reserve("I"+string(binary.BigEndian.AppendUint32(nil, uint32(v))), false)
	if fresh {
		p.entries[i] = binary.BigEndian.AppendUint32([]byte{3}, uint32(v))
	}
	return i
}

func (p *pool) float(v float32) uint16 {
	bits := math.Float32bits(v)
	i, fresh := p.reserve("F"+string(binary.BigEndian.AppendUint32(nil, bits)), false)
	if fresh {
		p.entries[i] = binary.BigEndian.AppendUint32([]byte{4}, bits)
	}
	return i
}

func (p *pool) long(v int64) uint16 {
	i, fresh := p.reserve("J"+string(binary.BigEndian.AppendUint64(nil, uint64(v))), true)
	if fresh {
		p.entries[i] = binary.BigEndian.AppendUint64([]byte{5}, uint64(v))
	}
	return i
}

func (p *pool) double(v float64) uint16 {
	bits := math.Float64bits(v)
	i, fresh := p.reserve("D"+string(binary.BigEndian.AppendUint64(nil, bits)), true)
	if fresh {
		p.entries[i] = binary.BigEndian.AppendUint64([]byte{6}, bits)
	}
	return i
}

func modifiedUTF8(s string) []byte {
	var out []byte
	for _, u := range utf16.Encode([]rune(s)) {
		switch {
		case u != 0 && u < 0x80:
			out = append(out, byte(u))
		case u < 0x800:
			out = append(out, 0xC0|byte(u>>6), 0x80|byte(u&0x3F))
		default:
			out = append(out, 0xE0|byte(u>>12), 0x80|byte(u>>6&0x3F), 0x80|byte(u&0x3F))
		}
	}
	return out
}

type writer struct {
	bytes.Buffer
}

func (w *writer) u1(v byte)   { w.WriteByte(v) }
func (w *writer) u2(v uint16) { w.Write(binary.BigEndian.AppendUint16(nil, v)) }
func (w *writer) u4(v uint32) { w.Write(binary.BigEndian.AppendUint32(nil, v)) }

type attribute struct {
	name string
	body []byte
}

func writeAttributes(w *writer, p *pool, attrs []attribute) {
	w.u2(uint16(len(attrs)))
	for _, a := range attrs {
		w.u2(p.utf8(a.name))
		w.u4(uint32(len(a.body)))
		w.Write(a.body)
	}
}

// Value is an annotation element value.
type Value interface {
	write(w *writer, p *pool)
}

type constValue struct {
	tag   byte
	index func(p *pool) uint16
}

func (v constValue) write(w *writer, p *pool) {
	w.u1(v.tag)
	w.u2(v.index(p))
}

func intConst(tag byte, n int32) Value {
	return constValue{tag: tag, index: func(p *pool) uint16 { return p.integer(n) }}
}

// Scalar element values.
func Int(n int32) Value      { return intConst('I', n) }
func Byte(n int8) Value      { return intConst('B', int32(n)) }
func Char(c uint16) Value    { return intConst('C', int32(c)) }
func Short(n int16) Value    { return intConst('S', int32(n)) }
func Long(n int64) Value     { return constValue{'J', func(p *pool) uint16 { return p.long(n) }} }
func Float(f float32) Value  { return constValue{'F', func(p *pool) uint16 { return p.float(f) }} }
func Double(f float64) Value { return constValue{'D', func(p *pool) uint16 { return p.double(f) }} }
func String(s string) Value  { return constValue{'s', func(p *pool) uint16 { return p.utf8(s) }} }

func Bool(b bool) Value {
	if b {
		return intConst('Z', 1)
	}
	return intConst('Z', 0)
}

// ClassLit is a class literal given as a return descriptor, e.g. "V" or "Ljava/lang/String;".
func ClassLit(desc string) Value {
	return constValue{'c', func(p *pool) uint16 { return p.utf8(desc) }}
}

type enumValue struct{ typ, constant string }

func (v enumValue) write(w *writer, p *pool) {
	w.u1('e')
	w.u2(p.utf8(Desc(v.typ)))
	w.u2(p.utf8(v.constant))
}

// Enum is a constant of the dotted enum type.
func Enum(typ, constant string) Value { return enumValue{typ, constant} }

type nestedValue struct{ a Annotation }

func (v nestedValue) write(w *writer, p *pool) {
	w.u1('@')
	v.a.write(w, p)
}

// Nested uses an annotation as a value.
func Nested(a Annotation) Value { return nestedValue{a} }

type arrayValue []Value

func (v arrayValue) write(w *writer, p *pool) {
	w.u1('[')
	w.u2(uint16(len(v)))
	for _, e := range v {
		e.write(w, p)
	}
}

// Array groups values into an array value.
func Array(vals ...Value) Value { return arrayValue(vals) }

// Element is a named annotation value.
type Element struct {
	Name  string
	Value Value
}

// Annotation describes one annotation use. Type is a dotted class name.
type Annotation struct {
	Type      string
	Invisible bool
	Elements  []Element
}

// Anno is shorthand for a runtime-visible annotation.
func Anno(typ string, elems ...Element) Annotation {
	return Annotation{Type: typ, Elements: elems}
}

func (a Annotation) write(w *writer, p *pool) {
	w.u2(p.utf8(Desc(a.Type)))
	w.u2(uint16(len(a.Elements)))
	for _, e := range a.Elements {
		w.u2(p.utf8(e.Name))
		e.Value.write(w, p)
	}
}

func annotationAttrs(p *pool, list []Annotation) []attribute {
	var vis, invis []Annotation
	for _, a := range list {
		if a.Invisible {
			invis = append(invis, a)
		} else {
			vis = append(vis, a)
		}
	}
	var out []attribute
	for _, g := range []struct {
		name string
		list []Annotation
	}{{"RuntimeVisibleAnnotations", vis}, {"RuntimeInvisibleAnnotations", invis}} {
		if len(g.list) == 0 {
			continue
		}
		var w writer
		w.u2(uint16(len(g.list)))
		for _, a := range g.list {
			a.write(&w, p)
		}
		out = append(out, attribute{g.name, w.Bytes()})
	}
	return out
}

// Field is a field under construction.
type Field struct {
	name, desc string
	flags      uint16
	signature  string
	annos      []Annotation
}

func (f *Field) Flags(fl uint16) *Field       { f.flags = fl; return f }
func (f *Field) Signature(sig string) *Field  { f.signature = sig; return f }
func (f *Field) Annotate(a Annotation) *Field { f.annos = append(f.annos, a); return f }

type local struct {
	slot       uint16
	name, desc string
	startPC    uint16
}

type paramMeta struct {
	name  string
	flags uint16
}

// Method is a method under construction.
type Method struct {
	name, desc string
	flags      uint16
	signature  string
	annos      []Annotation
	paramAnnos [][]Annotation
	params     []paramMeta
	hasParams  bool
	locals     []local
	def        Value
	throws     []string
}

func (m *Method) Flags(fl uint16) *Method       { m.flags = fl; return m }
func (m *Method) Signature(sig string) *Method  { m.signature = sig; return m }
func (m *Method) Annotate(a Annotation) *Method { m.annos = append(m.annos, a); return m }
func (m *Method) Throws(names ...string) *Method {
	m.throws = append(m.throws, names...)
	return m
}

// Default sets the AnnotationDefault attribute.
func (m *Method) Default(v Value) *Method { m.def = v; return m }

// ParamTable sizes the parameter annotation table to n entries.
func (m *Method) ParamTable(n int) *Method {
	for len(m.paramAnnos) < n {
		m.paramAnnos = append(m.paramAnnos, nil)
	}
	return m
}

// AnnotateParam annotates entry i of the parameter annotation table,
// growing the table as needed.
func (m *Method) AnnotateParam(i int, a Annotation) *Method {
	m.ParamTable(i + 1)
	m.paramAnnos[i] = append(m.paramAnnos[i], a)
	return m
}

// Param appends a MethodParameters entry. An empty name writes index 0.
func (m *Method) Param(name string, flags uint16) *Method {
	m.hasParams = true
	m.params = append(m.params, paramMeta{name, flags})
	return m
}

// Local adds a LocalVariableTable entry live from pc 0, which adds a Code attribute.
func (m *Method) Local(slot int, name, desc string) *Method {
	m.locals = append(m.locals, local{slot: uint16(slot), name: name, desc: desc})
	return m
}

// LocalAt adds a LocalVariableTable entry that starts at pc.
func (m *Method) LocalAt(pc, slot int, name, desc string) *Method {
	m.locals = append(m.locals, local{slot: uint16(slot), name: name, desc: desc, startPC: uint16(pc)})
	return m
}

type innerEntry struct {
	inner, outer, name string
	flags              uint16
}

// Class is a class file under construction.
type Class struct {
	name       string
	flags      uint16
	super      string
	interfaces []string
	signature  string
	annos      []Annotation
	inners     []innerEntry
	enclClass  string
	enclName   string
	enclDesc   string
	hasEncl    bool
	fields     []*Field
	methods    []*Method
	refs       []func(p *pool)
}

// New starts a public class extending java.lang.Object.
func New(name string) *Class {
	return &Class{name: name, flags: AccPublic | AccSuper, super: "java.lang.Object"}
}

func (c *Class) Flags(fl uint16) *Class       { c.flags = fl; return c }
func (c *Class) Signature(sig string) *Class  { c.signature = sig; return c }
func (c *Class) Annotate(a Annotation) *Class { c.annos = append(c.annos, a); return c }

// Super sets the superclass. An empty name writes super_class 0.
func (c *Class) Super(name string) *Class { c.super = name; return c }

func (c *Class) Implements(names ...string) *Class {
	c.interfaces = append(c.interfaces, names...)
	return c
}

// Inner adds an InnerClasses entry. Empty outer or simple names write index 0.
func (c *Class) Inner(inner, outer, simpleName string, flags uint16) *Class {
	c.inners = append(c.inners, innerEntry{inner, outer, simpleName, flags})
	return c
}

// EnclosingMethod adds an EnclosingMethod attribute. An empty method name
// writes method_index 0.
func (c *Class) EnclosingMethod(class, name, desc string) *Class {
	c.hasEncl, c.enclClass, c.enclName, c.enclDesc = true, class, name, desc
	return c
}

// Field adds a public field.
func (c *Class) Field(name, desc string) *Field {
	f := &Field{name: name, desc: desc, flags: AccPublic}
	c.fields = append(c.fields, f)
	return f
}

// Method adds a public method.
func (c *Class) Method(name, desc string) *Method {
	m := &Method{name: name, desc: desc, flags: AccPublic}
	c.methods = append(c.methods, m)
	return m
}

// ClassRef adds a CONSTANT_Class entry. Array descriptors such as
// "[Lcom/Foo;" are accepted as is.
func (c *Class) ClassRef(name string) *Class {
	c.refs = append(c.refs, func(p *pool) { p.class(name) })
	return c
}

// FieldRef adds a CONSTANT_Fieldref entry.
func (c *Class) FieldRef(owner, name, desc string) *Class {
	c.refs = append(c.refs, func(p *pool) { p.member(9, owner, name, desc) })
	return c
}

// MethodRef adds a CONSTANT_Methodref entry.
func (c *Class) MethodRef(owner, name, desc string) *Class {
	c.refs = append(c.refs, func(p *pool) { p.member(10, owner, name, desc) })
	return c
}

// InterfaceMethodRef adds a CONSTANT_InterfaceMethodref entry.
func (c *Class) InterfaceMethodRef(owner, name, desc string) *Class {
	c.refs = append(c.refs, func(p *pool) { p.member(11, owner, name, desc) })
	return c
}

// Bytes assembles the class file.
func (c *Class) Bytes() []byte {
	p := newPool()
	var body writer

	body.u2(c.flags)
	body.u2(p.class(c.name))
	if c.super == "" {
		body.u2(0)
	} else {
		body.u2(p.class(c.super))
	}
	body.u2(uint16(len(c.interfaces)))
	for _, i := range c.interfaces {
		body.u2(p.class(i))
	}
	for _, r := range c.refs {
		r(p)
	}

	body.u2(uint16(len(c.fields)))
	for _, f := range c.fields {
		body.u2(f.flags)
		body.u2(p.utf8(f.name))
		body.u2(p.utf8(f.desc))
		var attrs []attribute
		if f.signature != "" {
			attrs = append(attrs, attribute{"Signature", u2bytes(p.utf8(f.signature))})
		}
		attrs = append(attrs, annotationAttrs(p, f.annos)...)
		writeAttributes(&body, p, attrs)
	}

	body.u2(uint16(len(c.methods)))
	for _, m := range c.methods {
		body.u2(m.flags)
		body.u2(p.utf8(m.name))
		body.u2(p.utf8(m.desc))
		writeAttributes(&body, p, m.attributes(p))
	}

	var attrs []attribute
	if c.signature != "" {
		attrs = append(attrs, attribute{"Signature", u2bytes(p.utf8(c.signature))})
	}
	attrs = append(attrs, annotationAttrs(p, c.annos)...)
	if len(c.inners) > 0 {
		var w writer
		w.u2(uint16(len(c.inners)))
		for _, e := range c.inners {
			w.u2(p.class(e.inner))
			w.u2(optClass(p, e.outer))
			if e.name == "" {
				w.u2(0)
			} else {
				w.u2(p.utf8(e.name))
			}
			w.u2(e.flags)
		}
		attrs = append(attrs, attribute{"InnerClasses", w.Bytes()})
	}
	if c.hasEncl {
		var w writer
		w.u2(p.class(c.enclClass))
		if c.enclName == "" {
			w.u2(0)
		} else {
			w.u2(p.nameAndType(c.enclName, c.enclDesc))
		}
		attrs = append(attrs, attribute{"EnclosingMethod", w.Bytes()})
	}
	writeAttributes(&body, p, attrs)

	var out writer
	out.u4(0xCAFEBABE)
	out.u2(0)
	out.u2(52)
	out.u2(uint16(len(p.entries)))
	for _, e := range p.entries[1:] {
		out.Write(e)
	}
	out.Write(body.Bytes())
	return out.Bytes()
}

func (m *Method) attributes(p *pool) []attribute {
	var attrs []attribute
	if m.signature != "" {
		attrs = append(attrs, attribute{"Signature", u2bytes(p.utf8(m.signature))})
	}
	if len(m.throws) > 0 {
		var w writer
		w.u2(uint16(len(m.throws)))
		for _, t := range m.throws {
			w.u2(p.class(t))
		}
		attrs = append(attrs, attribute{"Exceptions", w.Bytes()})
	}
	attrs = append(attrs, annotationAttrs(p, m.annos)...)
	if len(m.paramAnnos) > 0 {
		var w writer
		w.u1(byte(len(m.paramAnnos)))
		for _, list := range m.paramAnnos {
			w.u2(uint16(len(list)))
			for _, a := range list {
				a.write(&w, p)
			}
		}
		attrs = append(attrs, attribute{"RuntimeVisibleParameterAnnotations", w.Bytes()})
	}
	if m.def != nil {
		var w writer
		m.def.write(&w, p)
		attrs = append(attrs, attribute{"AnnotationDefault", w.Bytes()})
	}
	if m.hasParams {
		var w writer
		w.u1(byte(len(m.params)))
		for _, pm := range m.params {
			if pm.name == "" {
				w.u2(0)
			} else {
				w.u2(p.utf8(pm.name))
			}
			w.u2(pm.flags)
		}
		attrs = append(attrs, attribute{"MethodParameters", w.Bytes()})
	}
	if len(m.locals) > 0 {
		var lvt writer
		lvt.u2(uint16(len(m.locals)))
		for _, l := range m.locals {
			lvt.u2(l.startPC)
			lvt.u2(1)
			lvt.u2(p.utf8(l.name))
			lvt.u2(p.utf8(l.desc))
			lvt.u2(l.slot)
		}
		var code writer
		code.u2(1)
		code.u2(uint16(len(m.locals) + 1))
		code.u4(1)
		code.u1(0xB1) // return
		code.u2(0)
		writeAttributes(&code, p, []attribute{{"LocalVariableTable", lvt.Bytes()}})
		attrs = append(attrs, attribute{"Code", code.Bytes()})
	}
	return attrs
}

func optClass(p *pool, name string) uint16 {
	if name == "" {
		return 0
	}
	return p.class(name)
}

func u2bytes(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }
