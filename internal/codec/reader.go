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

// Reader restores indexes written by Writer.
type Reader struct {
	r io.Reader
}

// NewReader returns a Reader that reads from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read decodes one index. Streams of any version between MinVersion and
// CurrentVersion are accepted; fields the version lacks take their zero
// values. On error no index is returned.
func (r *Reader) Read() (*indexer.Index, error) {
	data, err := io.ReadAll(r.r)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	if len(data) < 4 || binary.BigEndian.Uint32(data) != magic {
		return nil, ErrBadMagic
	}
	if len(data) < 5 {
		return nil, fmt.Errorf("%w: missing version", ErrCorrupt)
	}
	version := int(data[4])
	if !supported(version) {
		return nil, fmt.Errorf("reading version %d: %w", version, ErrUnsupportedVersion)
	}

	d := &decoder{data: data, pos: 5, version: version, table: dotname.NewTable()}
	idx := d.index()
	if d.err != nil {
		return nil, d.err
	}
	return idx, nil
}

// decoder keeps the first error in err; later reads return zero values.
type decoder struct {
	data    []byte
	pos     int
	err     error
	version int
	table   *dotname.Table
	names   []dotname.Name
	depth   int
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s at offset %d", ErrCorrupt, fmt.Sprintf(format, args...), d.pos)
	}
}

func (d *decoder) remaining() int { return len(d.data) - d.pos }

func (d *decoder) byte1() byte {
	if d.err != nil {
		return 0
	}
	if d.remaining() < 1 {
		d.fail("unexpected end of stream")
		return 0
	}
	b := d.data[d.pos]
	d.pos++
	return b
}

func (d *decoder) uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.data[d.pos:])
	if n <= 0 {
		d.fail("bad varint")
		return 0
	}
	d.pos += n
	return v
}

func (d *decoder) varint() int64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Varint(d.data[d.pos:])
	if n <= 0 {
		d.fail("bad varint")
		return 0
	}
	d.pos += n
	return v
}

func (d *decoder) boolean() bool {
	switch b := d.byte1(); b {
	case 0:
		return false
	case 1:
		return true
	default:
		d.fail("bad boolean %d", b)
		return false
	}
}

// count reads a length. Every element takes at least one byte, so a count
// larger than the rest of the stream is corrupt.
func (d *decoder) count() int {
	n := d.uvarint()
	if n > uint64(d.remaining()) {
		d.fail("count %d exceeds stream", n)
		return 0
	}
	return int(n)
}

func (d *decoder) str() string {
	n := d.uvarint()
	if d.err != nil {
		return ""
	}
	if n > uint64(d.remaining()) {
		d.fail("string length %d exceeds stream", n)
		return ""
	}
	s := string(d.data[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s
}

func (d *decoder) name() dotname.Name {
	id := d.uvarint()
	if id == 0 || d.err != nil {
		return dotname.Name{}
	}
	if id > uint64(len(d.names)) {
		d.fail("name reference %d out of range", id)
		return dotname.Name{}
	}
	return d.names[id-1]
}

func (d *decoder) requiredName() dotname.Name {
	n := d.name()
	if n.IsZero() {
		d.fail("missing name")
	}
	return n
}

func (d *decoder) index() *indexer.Index {
	n := d.count()
	d.names = make([]dotname.Name, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		prefix := d.name()
		local := d.str()
		if local == "" {
			d.fail("empty name segment")
		}
		d.names = append(d.names, d.table.Nested(prefix, local))
	}

	n = d.count()
	classes := make([]*symtab.ClassInfo, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		classes = append(classes, d.class())
	}

	var users map[string][]dotname.Name
	if has(d.version, featUsers) {
		n = d.count()
		users = make(map[string][]dotname.Name, n)
		for i := 0; i < n && d.err == nil; i++ {
			key := d.requiredName()
			m := d.count()
			list := make([]dotname.Name, 0, m)
			for j := 0; j < m && d.err == nil; j++ {
				list = append(list, d.requiredName())
			}
			users[key.String()] = list
		}
	}

	if d.err == nil && d.remaining() != 0 {
		d.fail("%d trailing bytes", d.remaining())
	}
	if d.err != nil {
		return nil
	}
	return indexer.NewIndex(d.table, classes, users)
}

func (d *decoder) class() *symtab.ClassInfo {
	ci := &symtab.ClassInfo{}
	ci.Name = d.requiredName()
	ci.Flags = symtab.AccessFlags(d.uvarint())
	ci.Super = d.typ()
	ci.Interfaces = d.types()
	if has(d.version, featGenerics) {
		ci.TypeParameters = d.types()
	}

	n := d.count()
	for i := 0; i < n && d.err == nil; i++ {
		f := &symtab.FieldInfo{Class: ci.Name}
		f.Name = d.str()
		f.Flags = symtab.AccessFlags(d.uvarint())
		f.Type = d.requiredType()
		if has(d.version, featMemberAnnotations) {
			m := d.count()
			for j := 0; j < m && d.err == nil; j++ {
				f.Annotations = append(f.Annotations, d.annotation(f))
			}
		}
		ci.Fields = append(ci.Fields, f)
	}

	n = d.count()
	for i := 0; i < n && d.err == nil; i++ {
		ci.Methods = append(ci.Methods, d.method(ci.Name))
	}

	n = d.count()
	for i := 0; i < n && d.err == nil; i++ {
		ci.Annotations = append(ci.Annotations, d.annotation(ci))
	}

	if has(d.version, featNoArgs) {
		ci.NoArgsConstructor = d.boolean()
	}
	if has(d.version, featNesting) {
		d.nesting(ci)
	}
	return ci
}

func (d *decoder) method(class dotname.Name) *symtab.MethodInfo {
	members := has(d.version, featMemberAnnotations)
	m := &symtab.MethodInfo{Class: class}
	m.Name = d.str()
	m.Flags = symtab.AccessFlags(d.uvarint())
	m.ReturnType = d.requiredType()
	n := d.count()
	for i := 0; i < n && d.err == nil; i++ {
		p := symtab.Parameter{Type: d.requiredType()}
		p.Flags = symtab.AccessFlags(d.uvarint())
		if members {
			p.Name = d.str()
		}
		m.Params = append(m.Params, p)
	}
	m.Exceptions = d.types()
	if has(d.version, featGenerics) {
		m.TypeParameters = d.types()
	}
	if members {
		n = d.count()
		for i := 0; i < n && d.err == nil; i++ {
			var target symtab.AnnotationTarget = m
			switch tag := d.byte1(); tag {
			case targetMethod:
			case targetParameter:
				pos := d.uvarint()
				if pos >= uint64(len(m.Params)) {
					d.fail("parameter position %d out of range", pos)
				}
				target = symtab.MethodParameterInfo{Method: m, Position: int(pos)}
			default:
				d.fail("bad target tag %d", tag)
			}
			m.Annotations = append(m.Annotations, d.annotation(target))
		}
	}
	if has(d.version, featDefaults) && d.boolean() {
		m.DefaultValue = &symtab.AnnotationValue{Name: d.str(), Value: d.value()}
	}
	return m
}

func (d *decoder) nesting(ci *symtab.ClassInfo) {
	nesting := symtab.NestingType(d.byte1())
	if nesting > symtab.Anonymous {
		d.fail("bad nesting %d", nesting)
	}
	ci.Nesting = nesting
	ci.SimpleName = d.str()
	ci.EnclosingClass = d.name()
	if d.boolean() {
		ci.EnclosingMethod = &symtab.EnclosingMethodInfo{
			Name:       d.str(),
			Class:      d.requiredName(),
			ReturnType: d.requiredType(),
			Parameters: d.types(),
		}
	}
}

func (d *decoder) types() []symtab.Type {
	n := d.count()
	var out []symtab.Type
	for i := 0; i < n && d.err == nil; i++ {
		out = append(out, d.requiredType())
	}
	return out
}

func (d *decoder) requiredType() symtab.Type {
	t := d.typ()
	if t == nil && d.err == nil {
		d.fail("missing type")
	}
	return t
}

func (d *decoder) enter() bool {
	d.depth++
	if d.depth > maxDepth {
		d.fail("nesting deeper than %d", maxDepth)
		return false
	}
	return true
}

func (d *decoder) leave() { d.depth-- }

func (d *decoder) typ() symtab.Type {
	defer d.leave()
	if !d.enter() {
		return nil
	}
	switch tag := d.byte1(); tag {
	case tagNone:
		return nil
	case tagVoid:
		return symtab.Void
	case tagPrimitive:
		p := symtab.Primitive(d.byte1())
		if p.String() == "" {
			d.fail("bad primitive %d", p)
		}
		return symtab.PrimitiveType{Primitive: p}
	case tagArray:
		dims := d.uvarint()
		if dims == 0 || dims > 255 {
			d.fail("bad array dimensions %d", dims)
		}
		component := d.requiredType()
		if _, ok := component.(symtab.ArrayType); ok {
			d.fail("nested array component")
		}
		return symtab.ArrayType{Component: component, Dimensions: int(dims)}
	case tagClass:
		return symtab.ClassType{Name: d.requiredName()}
	case tagParameterized:
		t := symtab.ParameterizedType{Name: d.requiredName()}
		t.Arguments = d.types()
		t.Owner = d.typ()
		return t
	case tagTypeVariable:
		t := symtab.TypeVariable{Identifier: d.str()}
		t.Bounds = d.types()
		return t
	case tagWildcard:
		t := symtab.WildcardType{Extends: d.boolean()}
		t.Bound = d.typ()
		return t
	case tagUnresolved:
		return symtab.UnresolvedTypeVariable{Identifier: d.str()}
	default:
		d.fail("bad type tag %d", tag)
		return nil
	}
}

func (d *decoder) annotation(target symtab.AnnotationTarget) *symtab.AnnotationInstance {
	a := &symtab.AnnotationInstance{Target: target}
	a.Name = d.requiredName()
	a.Visible = d.boolean()
	n := d.count()
	for i := 0; i < n && d.err == nil; i++ {
		v := symtab.AnnotationValue{Name: d.str()}
		v.Value = d.value()
		a.Values = append(a.Values, v)
	}
	return a
}

func (d *decoder) value() symtab.Value {
	defer d.leave()
	if !d.enter() {
		return nil
	}
	switch kind := symtab.ValueKind(d.byte1()); kind {
	case symtab.ValueString:
		return symtab.StringValue(d.str())
	case symtab.ValueByte:
		return symtab.ByteValue(d.varint())
	case symtab.ValueChar:
		return symtab.CharValue(d.uvarint())
	case symtab.ValueShort:
		return symtab.ShortValue(d.varint())
	case symtab.ValueInt:
		return symtab.IntValue(d.varint())
	case symtab.ValueLong:
		return symtab.LongValue(d.varint())
	case symtab.ValueFloat:
		return symtab.FloatValue(math.Float32frombits(uint32(d.uvarint())))
	case symtab.ValueDouble:
		return symtab.DoubleValue(math.Float64frombits(d.uvarint()))
	case symtab.ValueBoolean:
		return symtab.BoolValue(d.boolean())
	case symtab.ValueClass:
		return symtab.ClassValue{Type: d.requiredType()}
	case symtab.ValueEnum:
		v := symtab.EnumValue{Type: d.requiredName()}
		v.Constant = d.str()
		return v
	case symtab.ValueNested:
		return symtab.NestedValue{Annotation: d.annotation(nil)}
	case symtab.ValueArray:
		n := d.count()
		out := make(symtab.ArrayValue, 0, n)
		for i := 0; i < n && d.err == nil; i++ {
			out = append(out, d.value())
		}
		return out
	default:
		d.fail("bad value kind %d", kind)
		return nil
	}
}
