// Package classfile decodes JVM class files into symtab records without
// loading or verifying them.
package classfile

import (
	"fmt"
	"io"
	"strings"

	"github.com/tender-barbarian/class-lens/internal/dotname"
	"github.com/tender-barbarian/class-lens/internal/symtab"
)

const magic = 0xCAFEBABE

// Attribute names.
const (
	attrSignature            = "Signature"
	attrVisibleAnnotations   = "RuntimeVisibleAnnotations"
	attrInvisibleAnnotations = "RuntimeInvisibleAnnotations"
	attrVisibleParamAnnos    = "RuntimeVisibleParameterAnnotations"
	attrInvisibleParamAnnos  = "RuntimeInvisibleParameterAnnotations"
	attrAnnotationDefault    = "AnnotationDefault"
	attrMethodParameters     = "MethodParameters"
	attrExceptions           = "Exceptions"
	attrCode                 = "Code"
	attrLocalVariableTable   = "LocalVariableTable"
	attrInnerClasses         = "InnerClasses"
	attrEnclosingMethod      = "EnclosingMethod"
)

// Result is the outcome of parsing one class file.
type Result struct {
	Class *symtab.ClassInfo
	// References lists the classes this class names as symbols in its
	// constant pool, excluding pure inheritance. The class itself is included.
	References []dotname.Name
}

// Parser decodes class files, interning names into one table. A Parser is
// not safe for concurrent use since the table is shared.
type Parser struct {
	table *dotname.Table
	hook  Hook
}

// NewParser returns a parser interning into table. A nil hook means NopHook.
func NewParser(table *dotname.Table, hook Hook) *Parser {
	if table == nil {
		table = dotname.NewTable()
	}
	if hook == nil {
		hook = NopHook{}
	}
	return &Parser{table: table, hook: hook}
}

// Table returns the name table the parser interns into.
func (p *Parser) Table() *dotname.Table { return p.table }

// Parse reads r to completion and decodes it. r is never closed.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	if r == nil {
		return nil, fmt.Errorf("nil reader: %w", ErrInvalidInput)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading class file: %w", err)
	}
	return p.ParseBytes(data)
}

// ParseBytes decodes an in-memory class file. data is not retained.
func (p *Parser) ParseBytes(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input: %w", ErrInvalidInput)
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("short header: %w", ErrInvalidInput)
	}
	p.hook.StartClass()
	defer p.hook.EndClass()

	cp := &classParser{c: newCursor(data), table: p.table, hook: p.hook}
	res, err := cp.parse()
	if err != nil {
		return nil, err
	}
	c := res.Class
	p.hook.AddClassInfo(c.Name, c.Super, c.Flags, c.Interfaces)
	return res, nil
}

type pendingField struct {
	info      *symtab.FieldInfo
	signature string
}

type pendingMethod struct {
	info       *symtab.MethodInfo
	signature  string
	exceptions []symtab.Type

	hasParamMeta bool
	metaNames    []string
	metaFlags    []symtab.AccessFlags

	// locals maps a local variable slot to its name for variables live at pc 0.
	locals map[int]string

	paramAnnos [][]*symtab.AnnotationInstance
}

type innerEntry struct {
	inner, outer int
	name         int
	flags        symtab.AccessFlags
}

// classParser holds the state of a single parse.
type classParser struct {
	c     *cursor
	cp    *constantPool
	table *dotname.Table
	hook  Hook

	class       *symtab.ClassInfo
	thisIndex   int
	thisName    string
	superIndex  int
	ifaceIndex  []int
	fields      []*pendingField
	methods     []*pendingMethod
	signature   string
	self        *innerEntry
	enclClass   int
	enclMethod  int
	hasEnclAttr bool
}

func (p *classParser) parse() (*Result, error) {
	c := p.c
	if c.u4() != magic {
		return nil, fmt.Errorf("bad magic: %w", ErrInvalidInput)
	}
	c.skip(4) // minor, major
	if c.err != nil {
		return nil, c.err
	}
	var err error
	if p.cp, err = readConstantPool(c, p.hook); err != nil {
		return nil, err
	}

	p.class = &symtab.ClassInfo{Flags: symtab.AccessFlags(c.u2())}
	p.thisIndex = int(c.u2())
	p.superIndex = int(c.u2())
	if c.err != nil {
		return nil, c.err
	}
	if p.thisName, err = p.cp.className(p.thisIndex); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	p.class.Name = p.table.InternInternal(p.thisName)
	if p.superIndex != 0 {
		superName, err := p.cp.className(p.superIndex)
		if err != nil {
			return nil, fmt.Errorf("super_class: %w", err)
		}
		p.class.Super = symtab.ClassType{Name: p.table.InternInternal(superName)}
	}
	n := int(c.u2())
	if c.err != nil {
		return nil, c.err
	}
	for i := 0; i < n; i++ {
		idx := int(c.u2())
		if c.err != nil {
			return nil, c.err
		}
		name, err := p.cp.className(idx)
		if err != nil {
			return nil, fmt.Errorf("interface %d: %w", i, err)
		}
		p.ifaceIndex = append(p.ifaceIndex, idx)
		p.class.Interfaces = append(p.class.Interfaces, symtab.ClassType{Name: p.table.InternInternal(name)})
	}

	if err := p.readFields(); err != nil {
		return nil, fmt.Errorf("%s: %w", p.class.Name, err)
	}
	if err := p.readMethods(); err != nil {
		return nil, fmt.Errorf("%s: %w", p.class.Name, err)
	}
	if err := p.readClassAttributes(); err != nil {
		return nil, fmt.Errorf("%s: %w", p.class.Name, err)
	}
	if err := p.finish(); err != nil {
		return nil, fmt.Errorf("%s: %w", p.class.Name, err)
	}
	refs, err := p.references()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.class.Name, err)
	}
	return &Result{Class: p.class, References: refs}, nil
}

// attributes iterates an attribute table, handing each body to fn as its
// own cursor. Unhandled attributes are skipped by length.
func (p *classParser) attributes(fn func(name string, body *cursor) error) error {
	n := int(p.c.u2())
	if p.c.err != nil {
		return p.c.err
	}
	for i := 0; i < n; i++ {
		nameIndex := int(p.c.u2())
		length := int(p.c.u4())
		body := p.c.bytes(length)
		if p.c.err != nil {
			return p.c.err
		}
		name, err := p.cp.utf8(nameIndex)
		if err != nil {
			return fmt.Errorf("attribute name: %w", err)
		}
		bc := newCursor(body)
		if err := fn(name, bc); err != nil {
			return fmt.Errorf("%s attribute: %w", name, err)
		}
		if bc.err != nil {
			return fmt.Errorf("%s attribute: %w", name, bc.err)
		}
	}
	return nil
}

func (p *classParser) annotationReader(c *cursor) *annotationReader {
	return &annotationReader{c: c, cp: p.cp, table: p.table}
}

func (p *classParser) memberHeader() (symtab.AccessFlags, string, string, error) {
	flags := symtab.AccessFlags(p.c.u2())
	nameIndex := int(p.c.u2())
	descIndex := int(p.c.u2())
	if p.c.err != nil {
		return 0, "", "", p.c.err
	}
	name, err := p.cp.utf8(nameIndex)
	if err != nil {
		return 0, "", "", err
	}
	desc, err := p.cp.utf8(descIndex)
	if err != nil {
		return 0, "", "", err
	}
	return flags, name, desc, nil
}

func (p *classParser) readFields() error {
	n := int(p.c.u2())
	if p.c.err != nil {
		return p.c.err
	}
	for i := 0; i < n; i++ {
		flags, name, desc, err := p.memberHeader()
		if err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
		t, err := ParseFieldDescriptor(desc, p.table)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		f := &symtab.FieldInfo{Name: name, Flags: flags, Class: p.class.Name, Type: t}
		pf := &pendingField{info: f}
		err = p.attributes(func(attr string, body *cursor) error {
			switch attr {
			case attrSignature:
				pf.signature, err = p.cp.utf8(int(body.u2()))
				return err
			case attrVisibleAnnotations, attrInvisibleAnnotations:
				list, err := p.annotationReader(body).annotations(attr == attrVisibleAnnotations)
				if err != nil {
					return err
				}
				for _, a := range list {
					a.Target = f
				}
				f.Annotations = append(f.Annotations, list...)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		p.fields = append(p.fields, pf)
		p.class.Fields = append(p.class.Fields, f)
	}
	return nil
}

func (p *classParser) readMethods() error {
	n := int(p.c.u2())
	if p.c.err != nil {
		return p.c.err
	}
	for i := 0; i < n; i++ {
		flags, name, desc, err := p.memberHeader()
		if err != nil {
			return fmt.Errorf("method %d: %w", i, err)
		}
		params, ret, err := ParseMethodDescriptor(desc, p.table)
		if err != nil {
			return fmt.Errorf("method %s: %w", name, err)
		}
		m := &symtab.MethodInfo{Name: name, Flags: flags, Class: p.class.Name, ReturnType: ret}
		m.Params = make([]symtab.Parameter, len(params))
		for j, t := range params {
			m.Params[j] = symtab.Parameter{Type: t}
		}
		pm := &pendingMethod{info: m}
		err = p.attributes(func(attr string, body *cursor) error {
			return p.methodAttribute(pm, attr, body)
		})
		if err != nil {
			return fmt.Errorf("method %s%s: %w", name, desc, err)
		}
		p.methods = append(p.methods, pm)
		p.class.Methods = append(p.class.Methods, m)
	}
	return nil
}

func (p *classParser) methodAttribute(pm *pendingMethod, attr string, body *cursor) error {
	m := pm.info
	var err error
	switch attr {
	case attrSignature:
		pm.signature, err = p.cp.utf8(int(body.u2()))
		return err
	case attrExceptions:
		n := int(body.u2())
		for i := 0; i < n; i++ {
			name, err := p.cp.className(int(body.u2()))
			if err != nil {
				return err
			}
			pm.exceptions = append(pm.exceptions, symtab.ClassType{Name: p.table.InternInternal(name)})
		}
	case attrVisibleAnnotations, attrInvisibleAnnotations:
		list, err := p.annotationReader(body).annotations(attr == attrVisibleAnnotations)
		if err != nil {
			return err
		}
		for _, a := range list {
			a.Target = m
		}
		m.Annotations = append(m.Annotations, list...)
	case attrVisibleParamAnnos, attrInvisibleParamAnnos:
		lists, err := p.annotationReader(body).parameterAnnotations(attr == attrVisibleParamAnnos)
		if err != nil {
			return err
		}
		if len(lists) > len(pm.paramAnnos) {
			grown := make([][]*symtab.AnnotationInstance, len(lists))
			copy(grown[len(lists)-len(pm.paramAnnos):], pm.paramAnnos)
			pm.paramAnnos = grown
		}
		off := len(pm.paramAnnos) - len(lists)
		for i, list := range lists {
			pm.paramAnnos[off+i] = append(pm.paramAnnos[off+i], list...)
		}
	case attrAnnotationDefault:
		v, err := p.annotationReader(body).elementValue(true)
		if err != nil {
			return err
		}
		m.DefaultValue = &symtab.AnnotationValue{Name: m.Name, Value: v}
	case attrMethodParameters:
		n := int(body.u1())
		pm.hasParamMeta = true
		for i := 0; i < n; i++ {
			nameIndex := int(body.u2())
			flags := symtab.AccessFlags(body.u2())
			var name string
			if nameIndex != 0 {
				if name, err = p.cp.utf8(nameIndex); err != nil {
					return err
				}
			}
			pm.metaNames = append(pm.metaNames, name)
			pm.metaFlags = append(pm.metaFlags, flags)
		}
	case attrCode:
		return p.codeAttribute(pm, body)
	}
	return nil
}

func (p *classParser) codeAttribute(pm *pendingMethod, body *cursor) error {
	body.skip(4) // max_stack, max_locals
	body.skip(int(body.u4()))
	body.skip(8 * int(body.u2()))
	if body.err != nil {
		return body.err
	}
	saved := p.c
	p.c = body
	defer func() { p.c = saved }()
	return p.attributes(func(attr string, lvt *cursor) error {
		if attr != attrLocalVariableTable {
			return nil
		}
		n := int(lvt.u2())
		for i := 0; i < n; i++ {
			startPC := lvt.u2()
			lvt.skip(2)
			nameIndex := int(lvt.u2())
			lvt.skip(2)
			slot := int(lvt.u2())
			if lvt.err != nil {
				return lvt.err
			}
			if startPC != 0 {
				continue
			}
			name, err := p.cp.utf8(nameIndex)
			if err != nil {
				return err
			}
			if pm.locals == nil {
				pm.locals = make(map[int]string)
			}
			pm.locals[slot] = name
		}
		return nil
	})
}

func (p *classParser) readClassAttributes() error {
	return p.attributes(func(attr string, body *cursor) error {
		var err error
		switch attr {
		case attrSignature:
			p.signature, err = p.cp.utf8(int(body.u2()))
			return err
		case attrVisibleAnnotations, attrInvisibleAnnotations:
			list, err := p.annotationReader(body).annotations(attr == attrVisibleAnnotations)
			if err != nil {
				return err
			}
			for _, a := range list {
				a.Target = p.class
			}
			p.class.Annotations = append(p.class.Annotations, list...)
		case attrInnerClasses:
			n := int(body.u2())
			for i := 0; i < n; i++ {
				e := innerEntry{
					inner: int(body.u2()),
					outer: int(body.u2()),
					name:  int(body.u2()),
					flags: symtab.AccessFlags(body.u2()),
				}
				if body.err != nil {
					return body.err
				}
				inner, err := p.cp.className(e.inner)
				if err != nil {
					return err
				}
				if inner == p.thisName {
					p.self = &e
				}
			}
		case attrEnclosingMethod:
			p.hasEnclAttr = true
			p.enclClass = int(body.u2())
			p.enclMethod = int(body.u2())
		}
		return nil
	})
}

// finish resolves everything that depends on class-level attributes:
// nesting, generic signatures and parameter metadata.
func (p *classParser) finish() error {
	if err := p.classifyNesting(); err != nil {
		return err
	}
	classScope := newScope(nil)
	if p.signature != "" {
		sig, err := parseClassSignature(p.signature, p.table, classScope)
		if err != nil {
			return fmt.Errorf("class signature: %w", err)
		}
		if err := p.applyClassSignature(sig); err != nil {
			return err
		}
	}
	for _, pf := range p.fields {
		if pf.signature == "" {
			continue
		}
		t, err := parseFieldSignature(pf.signature, p.table, classScope)
		if err != nil {
			return fmt.Errorf("field %s signature: %w", pf.info.Name, err)
		}
		if !agrees(t, pf.info.Type) {
			return fmt.Errorf("%w: field %s signature %q disagrees with descriptor %s",
				ErrMalformedClass, pf.info.Name, pf.signature, pf.info.Type)
		}
		pf.info.Type = t
	}
	for _, pm := range p.methods {
		if err := p.finishMethod(pm, classScope); err != nil {
			return fmt.Errorf("method %s: %w", pm.info.Name, err)
		}
	}
	return nil
}

func (p *classParser) applyClassSignature(sig *ClassSignature) error {
	c := p.class
	if c.Super != nil && !agrees(sig.Super, c.Super) {
		return fmt.Errorf("%w: class signature superclass %s disagrees with %s", ErrMalformedClass, sig.Super, c.Super)
	}
	if len(sig.Interfaces) != len(c.Interfaces) {
		return fmt.Errorf("%w: class signature lists %d interfaces, class has %d",
			ErrMalformedClass, len(sig.Interfaces), len(c.Interfaces))
	}
	for i, t := range sig.Interfaces {
		if !agrees(t, c.Interfaces[i]) {
			return fmt.Errorf("%w: class signature interface %s disagrees with %s", ErrMalformedClass, t, c.Interfaces[i])
		}
	}
	c.TypeParameters = sig.TypeParameters
	if c.Super != nil {
		c.Super = sig.Super
	}
	if len(sig.Interfaces) > 0 {
		c.Interfaces = sig.Interfaces
	}
	return nil
}

func (p *classParser) classifyNesting() error {
	c := p.class
	if p.hasEnclAttr && p.enclClass != 0 {
		name, err := p.cp.className(p.enclClass)
		if err != nil {
			return fmt.Errorf("enclosing class: %w", err)
		}
		c.EnclosingClass = p.table.InternInternal(name)
	}
	if p.hasEnclAttr && p.enclMethod != 0 {
		name, desc, err := p.cp.nameAndType(p.enclMethod)
		if err != nil {
			return fmt.Errorf("enclosing method: %w", err)
		}
		params, ret, err := ParseMethodDescriptor(desc, p.table)
		if err != nil {
			return fmt.Errorf("enclosing method: %w", err)
		}
		c.EnclosingMethod = &symtab.EnclosingMethodInfo{
			Name:       name,
			Class:      c.EnclosingClass,
			ReturnType: ret,
			Parameters: params,
		}
	}

	if p.self == nil {
		c.Nesting = symtab.TopLevel
		s := c.Name.String()
		if i := strings.LastIndexByte(s, '.'); i >= 0 {
			s = s[i+1:]
		}
		c.SimpleName = s
		return nil
	}

	e := p.self
	c.Flags = e.flags
	if e.name != 0 {
		name, err := p.cp.utf8(e.name)
		if err != nil {
			return fmt.Errorf("inner class name: %w", err)
		}
		c.SimpleName = name
	}
	named := c.SimpleName != ""
	switch {
	case c.EnclosingMethod != nil:
		c.Nesting = nestingByName(named)
	case e.outer != 0:
		outer, err := p.cp.className(e.outer)
		if err != nil {
			return fmt.Errorf("outer class: %w", err)
		}
		c.Nesting = symtab.Inner
		c.EnclosingClass = p.table.InternInternal(outer)
	default:
		c.Nesting = nestingByName(named)
	}
	return nil
}

func nestingByName(named bool) symtab.NestingType {
	if named {
		return symtab.Local
	}
	return symtab.Anonymous
}

func (p *classParser) finishMethod(pm *pendingMethod, classScope *typeScope) error {
	m := pm.info
	desc := m.DescriptorParameters()
	synthetic := 0

	if pm.signature != "" {
		sig, err := parseMethodSignature(pm.signature, p.table, newScope(classScope))
		if err != nil {
			return fmt.Errorf("signature: %w", err)
		}
		if len(sig.Params) > len(desc) {
			return fmt.Errorf("%w: signature %q has more parameters than descriptor", ErrMalformedClass, pm.signature)
		}
		off := len(desc) - len(sig.Params)
		for i, t := range sig.Params {
			if !agrees(t, desc[off+i]) {
				return fmt.Errorf("%w: signature parameter %s disagrees with descriptor %s", ErrMalformedClass, t, desc[off+i])
			}
			m.Params[off+i].Type = t
		}
		if !agrees(sig.Return, m.ReturnType) {
			return fmt.Errorf("%w: signature return %s disagrees with descriptor %s", ErrMalformedClass, sig.Return, m.ReturnType)
		}
		m.ReturnType = sig.Return
		m.TypeParameters = sig.TypeParameters
		if len(sig.Throws) > 0 {
			pm.exceptions = sig.Throws
		}
		synthetic = off
	}
	m.Exceptions = pm.exceptions

	switch {
	case pm.hasParamMeta:
		off := len(desc) - len(pm.metaFlags)
		if off < 0 {
			return fmt.Errorf("%w: MethodParameters lists %d parameters, descriptor has %d", ErrMalformedClass, len(pm.metaFlags), len(desc))
		}
		for i := 0; i < off; i++ {
			m.Params[i].Flags |= symtab.AccSynthetic
		}
		for i, f := range pm.metaFlags {
			m.Params[off+i].Flags = f & (symtab.AccFinal | symtab.AccSynthetic | symtab.AccMandated)
			m.Params[off+i].Name = pm.metaNames[i]
		}
	case synthetic > 0:
		for i := 0; i < synthetic; i++ {
			m.Params[i].Flags |= symtab.AccSynthetic
		}
	case p.isOuterInstanceConstructor(m):
		m.Params[0].Flags |= symtab.AccSynthetic
	case p.isEnumConstructor(m):
		m.Params[0].Flags |= symtab.AccSynthetic
		m.Params[1].Flags |= symtab.AccSynthetic
	case len(pm.paramAnnos) > 0 && len(pm.paramAnnos) < len(desc):
		for i := 0; i < len(desc)-len(pm.paramAnnos); i++ {
			m.Params[i].Flags |= symtab.AccSynthetic
		}
	}

	if pm.locals != nil {
		slot := 0
		if !m.Flags.Has(symtab.AccStatic) {
			slot = 1
		}
		for i := range m.Params {
			if m.Params[i].Name == "" {
				m.Params[i].Name = pm.locals[slot]
			}
			slot += slotSize(m.Params[i].Type)
		}
	}

	p.attachParameterAnnotations(pm)

	if m.IsConstructor() && len(m.ParameterNames()) == 0 {
		p.class.NoArgsConstructor = true
	}
	return nil
}

// attachParameterAnnotations targets each parameter annotation at the
// declared position of the parameter it belongs to.
func (p *classParser) attachParameterAnnotations(pm *pendingMethod) {
	m := pm.info
	declared := 0
	for _, prm := range m.Params {
		if prm.IsDeclared() {
			declared++
		}
	}
	// Compilers differ in whether the annotation table covers synthetic
	// parameters. A table sized to the declared list is indexed by position.
	byPosition := len(pm.paramAnnos) == declared && declared != len(m.Params)
	off := len(m.Params) - len(pm.paramAnnos)
	for i, list := range pm.paramAnnos {
		pos := i
		if !byPosition {
			idx := off + i
			if idx < 0 || !m.Params[idx].IsDeclared() {
				continue
			}
			pos = declaredPosition(m, idx)
		}
		for _, a := range list {
			a.Target = symtab.MethodParameterInfo{Method: m, Position: pos}
			m.Annotations = append(m.Annotations, a)
		}
	}
}

func declaredPosition(m *symtab.MethodInfo, idx int) int {
	pos := 0
	for i := 0; i < idx; i++ {
		if m.Params[i].IsDeclared() {
			pos++
		}
	}
	return pos
}

func slotSize(t symtab.Type) int {
	if pt, ok := t.(symtab.PrimitiveType); ok && (pt.Primitive == symtab.Long || pt.Primitive == symtab.Double) {
		return 2
	}
	return 1
}

func (p *classParser) isOuterInstanceConstructor(m *symtab.MethodInfo) bool {
	c := p.class
	if !m.IsConstructor() || c.Nesting != symtab.Inner || c.Flags.Has(symtab.AccStatic) || len(m.Params) == 0 {
		return false
	}
	ct, ok := m.Params[0].Type.(symtab.ClassType)
	return ok && ct.Name.Equal(c.EnclosingClass)
}

func (p *classParser) isEnumConstructor(m *symtab.MethodInfo) bool {
	if !m.IsConstructor() || !p.class.IsEnum() || len(m.Params) < 2 {
		return false
	}
	ct, ok := m.Params[0].Type.(symtab.ClassType)
	return ok && ct.Name.String() == "java.lang.String" && symtab.TypesEqual(m.Params[1].Type, symtab.IntType)
}

// references collects the class names this class uses as symbols.
// Supertype entries count only when a non-constructor member reference
// goes through them.
func (p *classParser) references() ([]dotname.Name, error) {
	inherited := make(map[int]bool, len(p.ifaceIndex)+1)
	if p.superIndex != 0 {
		inherited[p.superIndex] = true
	}
	for _, i := range p.ifaceIndex {
		inherited[i] = true
	}
	cp := p.cp
	for i := 1; i < cp.count(); i++ {
		switch cp.tags[i] {
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			classIndex, name, err := cp.memberRef(i)
			if err != nil {
				return nil, err
			}
			if name != "<init>" {
				delete(inherited, classIndex)
			}
		}
	}

	var out []dotname.Name
	seen := make(map[string]bool)
	for i := 1; i < cp.count(); i++ {
		if cp.tags[i] != TagClass || inherited[i] {
			continue
		}
		internal, err := cp.className(i)
		if err != nil {
			return nil, err
		}
		var name dotname.Name
		if strings.HasPrefix(internal, "[") {
			t, err := ParseFieldDescriptor(internal, p.table)
			if err != nil {
				return nil, err
			}
			ct, ok := t.(symtab.ArrayType).Component.(symtab.ClassType)
			if !ok {
				continue
			}
			name = ct.Name
		} else {
			name = p.table.InternInternal(internal)
		}
		if seen[name.String()] {
			continue
		}
		seen[name.String()] = true
		out = append(out, name)
	}
	return out, nil
}
