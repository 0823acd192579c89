package classfile

import (
	"fmt"
	"strings"

	"github.com/tender-barbarian/class-lens/internal/dotname"
	"github.com/tender-barbarian/class-lens/internal/symtab"
)

// typeScope resolves type-variable uses to their declarations. Variables
// whose bounds are still being parsed resolve to a bound-less TypeVariable.
type typeScope struct {
	parent  *typeScope
	vars    map[string]symtab.TypeVariable
	pending map[string]bool
}

func newScope(parent *typeScope) *typeScope {
	return &typeScope{parent: parent, vars: map[string]symtab.TypeVariable{}, pending: map[string]bool{}}
}

func (s *typeScope) resolve(id string) symtab.Type {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.pending[id] {
			return symtab.TypeVariable{Identifier: id}
		}
		if v, ok := sc.vars[id]; ok {
			return v
		}
	}
	return symtab.UnresolvedTypeVariable{Identifier: id}
}

// sigParser is a cursor over one descriptor or signature string.
type sigParser struct {
	s     string
	pos   int
	table *dotname.Table
	scope *typeScope
}

func newSigParser(s string, table *dotname.Table, scope *typeScope) *sigParser {
	return &sigParser{s: s, table: table, scope: scope}
}

func (p *sigParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %q at %d: %s", ErrMalformedClass, p.s, p.pos, fmt.Sprintf(format, args...))
}

func (p *sigParser) eof() bool { return p.pos >= len(p.s) }

func (p *sigParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}

func (p *sigParser) expect(b byte) error {
	if p.peek() != b {
		return p.errorf("expected %q", b)
	}
	p.pos++
	return nil
}

func (p *sigParser) done() error {
	if !p.eof() {
		return p.errorf("unexpected trailing input")
	}
	return nil
}

// identifier reads up to the next character that cannot appear in an
// unqualified JVM name.
func (p *sigParser) identifier() (string, error) {
	start := p.pos
	for !p.eof() && !strings.ContainsRune(".;[/<>:", rune(p.s[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errorf("expected identifier")
	}
	return p.s[start:p.pos], nil
}

func (p *sigParser) className(internal string) dotname.Name {
	return p.table.InternInternal(internal)
}

// fieldDescriptor parses FieldType in descriptor grammar (no generics).
func (p *sigParser) fieldDescriptor() (symtab.Type, error) {
	c := p.peek()
	if prim, ok := symtab.PrimitiveFromDescriptor(c); ok {
		p.pos++
		return symtab.PrimitiveType{Primitive: prim}, nil
	}
	switch c {
	case 'L':
		p.pos++
		end := strings.IndexByte(p.s[p.pos:], ';')
		if end <= 0 {
			return nil, p.errorf("unterminated class name")
		}
		name := p.s[p.pos : p.pos+end]
		if strings.ContainsAny(name, "<>.[") {
			return nil, p.errorf("illegal character in class name")
		}
		p.pos += end + 1
		return symtab.ClassType{Name: p.className(name)}, nil
	case '[':
		dims := 0
		for p.peek() == '[' {
			dims++
			p.pos++
		}
		comp, err := p.fieldDescriptor()
		if err != nil {
			return nil, err
		}
		return symtab.ArrayType{Component: comp, Dimensions: dims}, nil
	}
	return nil, p.errorf("expected field type")
}

func (p *sigParser) returnDescriptor() (symtab.Type, error) {
	if p.peek() == 'V' {
		p.pos++
		return symtab.Void, nil
	}
	return p.fieldDescriptor()
}

// ParseFieldDescriptor decodes a field descriptor such as "[Ljava/lang/String;".
func ParseFieldDescriptor(desc string, table *dotname.Table) (symtab.Type, error) {
	p := newSigParser(desc, table, nil)
	t, err := p.fieldDescriptor()
	if err != nil {
		return nil, err
	}
	return t, p.done()
}

// ParseReturnDescriptor decodes a field descriptor or "V".
func ParseReturnDescriptor(desc string, table *dotname.Table) (symtab.Type, error) {
	p := newSigParser(desc, table, nil)
	t, err := p.returnDescriptor()
	if err != nil {
		return nil, err
	}
	return t, p.done()
}

// ParseMethodDescriptor decodes a method descriptor such as "(IJ)V".
func ParseMethodDescriptor(desc string, table *dotname.Table) (params []symtab.Type, ret symtab.Type, err error) {
	p := newSigParser(desc, table, nil)
	if err := p.expect('('); err != nil {
		return nil, nil, err
	}
	for p.peek() != ')' {
		if p.eof() {
			return nil, nil, p.errorf("unterminated parameter list")
		}
		t, err := p.fieldDescriptor()
		if err != nil {
			return nil, nil, err
		}
		params = append(params, t)
	}
	p.pos++
	if ret, err = p.returnDescriptor(); err != nil {
		return nil, nil, err
	}
	return params, ret, p.done()
}

// typeParameters parses an optional "<T:bound;...>" list and declares the
// variables in scope.
func (p *sigParser) typeParameters() ([]symtab.Type, error) {
	if p.peek() != '<' {
		return nil, nil
	}
	p.pos++
	var out []symtab.Type
	for p.peek() != '>' {
		if p.eof() {
			return nil, p.errorf("unterminated type parameters")
		}
		id, err := p.identifier()
		if err != nil {
			return nil, err
		}
		p.scope.pending[id] = true
		var bounds []symtab.Type
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		if c := p.peek(); c == 'L' || c == 'T' || c == '[' {
			b, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			bounds = append(bounds, b)
		}
		for p.peek() == ':' {
			p.pos++
			b, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			bounds = append(bounds, b)
		}
		if len(bounds) == 0 {
			return nil, p.errorf("type parameter %s has no bound", id)
		}
		delete(p.scope.pending, id)
		v := symtab.TypeVariable{Identifier: id, Bounds: bounds}
		p.scope.vars[id] = v
		out = append(out, v)
	}
	p.pos++
	if len(out) == 0 {
		return nil, p.errorf("empty type parameter list")
	}
	return out, nil
}

func (p *sigParser) referenceType() (symtab.Type, error) {
	switch p.peek() {
	case 'L':
		return p.classTypeSignature()
	case 'T':
		p.pos++
		id, err := p.identifier()
		if err != nil {
			return nil, err
		}
		if err := p.expect(';'); err != nil {
			return nil, err
		}
		return p.scope.resolve(id), nil
	case '[':
		dims := 0
		for p.peek() == '[' {
			dims++
			p.pos++
		}
		comp, err := p.javaType()
		if err != nil {
			return nil, err
		}
		return symtab.ArrayType{Component: comp, Dimensions: dims}, nil
	}
	return nil, p.errorf("expected reference type")
}

func (p *sigParser) javaType() (symtab.Type, error) {
	if prim, ok := symtab.PrimitiveFromDescriptor(p.peek()); ok {
		p.pos++
		return symtab.PrimitiveType{Primitive: prim}, nil
	}
	return p.referenceType()
}

func (p *sigParser) classTypeSignature() (symtab.Type, error) {
	if err := p.expect('L'); err != nil {
		return nil, err
	}
	start := p.pos
	for !p.eof() && !strings.ContainsRune(".;<", rune(p.s[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		return nil, p.errorf("expected class name")
	}
	internal := p.s[start:p.pos]
	args, err := p.typeArguments()
	if err != nil {
		return nil, err
	}
	cur := p.makeClassType(internal, args, nil)
	for p.peek() == '.' {
		p.pos++
		id, err := p.identifier()
		if err != nil {
			return nil, err
		}
		internal += "$" + id
		args, err := p.typeArguments()
		if err != nil {
			return nil, err
		}
		var owner symtab.Type
		if _, ok := cur.(symtab.ParameterizedType); ok {
			owner = cur
		}
		cur = p.makeClassType(internal, args, owner)
	}
	if err := p.expect(';'); err != nil {
		return nil, err
	}
	return cur, nil
}

func (p *sigParser) makeClassType(internal string, args []symtab.Type, owner symtab.Type) symtab.Type {
	name := p.className(internal)
	if len(args) == 0 && owner == nil {
		return symtab.ClassType{Name: name}
	}
	return symtab.ParameterizedType{Name: name, Arguments: args, Owner: owner}
}

func (p *sigParser) typeArguments() ([]symtab.Type, error) {
	if p.peek() != '<' {
		return nil, nil
	}
	p.pos++
	var args []symtab.Type
	for p.peek() != '>' {
		if p.eof() {
			return nil, p.errorf("unterminated type arguments")
		}
		switch p.peek() {
		case '*':
			p.pos++
			args = append(args, symtab.WildcardType{Extends: true})
		case '+', '-':
			extends := p.peek() == '+'
			p.pos++
			b, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			args = append(args, symtab.WildcardType{Bound: b, Extends: extends})
		default:
			t, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			args = append(args, t)
		}
	}
	p.pos++
	if len(args) == 0 {
		return nil, p.errorf("empty type argument list")
	}
	return args, nil
}

// ClassSignature is the decoded Signature attribute of a class.
type ClassSignature struct {
	TypeParameters []symtab.Type
	Super          symtab.Type
	Interfaces     []symtab.Type
}

// MethodSignature is the decoded Signature attribute of a method.
type MethodSignature struct {
	TypeParameters []symtab.Type
	Params         []symtab.Type
	Return         symtab.Type
	Throws         []symtab.Type
}

// scopeOf declares already-parsed type parameters in a new scope.
func scopeOf(parent *typeScope, params []symtab.Type) *typeScope {
	sc := newScope(parent)
	for _, t := range params {
		if v, ok := t.(symtab.TypeVariable); ok {
			sc.vars[v.Identifier] = v
		}
	}
	return sc
}

// ParseClassSignature decodes a class Signature attribute such as
// "<T:Ljava/lang/Object;>Ljava/lang/Object;Ljava/lang/Comparable<TT;>;".
func ParseClassSignature(sig string, table *dotname.Table) (*ClassSignature, error) {
	return parseClassSignature(sig, table, newScope(nil))
}

// ParseMethodSignature decodes a method Signature attribute. Type variables
// are resolved against the method's own parameters, then classParams.
func ParseMethodSignature(sig string, table *dotname.Table, classParams []symtab.Type) (*MethodSignature, error) {
	return parseMethodSignature(sig, table, newScope(scopeOf(nil, classParams)))
}

// ParseFieldSignature decodes a field Signature attribute against classParams.
func ParseFieldSignature(sig string, table *dotname.Table, classParams []symtab.Type) (symtab.Type, error) {
	return parseFieldSignature(sig, table, scopeOf(nil, classParams))
}

func parseClassSignature(sig string, table *dotname.Table, scope *typeScope) (*ClassSignature, error) {
	p := newSigParser(sig, table, scope)
	tps, err := p.typeParameters()
	if err != nil {
		return nil, err
	}
	out := &ClassSignature{TypeParameters: tps}
	if out.Super, err = p.classTypeSignature(); err != nil {
		return nil, err
	}
	for !p.eof() {
		t, err := p.classTypeSignature()
		if err != nil {
			return nil, err
		}
		out.Interfaces = append(out.Interfaces, t)
	}
	return out, nil
}

func parseMethodSignature(sig string, table *dotname.Table, scope *typeScope) (*MethodSignature, error) {
	p := newSigParser(sig, table, scope)
	tps, err := p.typeParameters()
	if err != nil {
		return nil, err
	}
	out := &MethodSignature{TypeParameters: tps}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	for p.peek() != ')' {
		if p.eof() {
			return nil, p.errorf("unterminated parameter list")
		}
		t, err := p.javaType()
		if err != nil {
			return nil, err
		}
		out.Params = append(out.Params, t)
	}
	p.pos++
	if p.peek() == 'V' {
		p.pos++
		out.Return = symtab.Void
	} else if out.Return, err = p.javaType(); err != nil {
		return nil, err
	}
	for p.peek() == '^' {
		p.pos++
		t, err := p.referenceType()
		if err != nil {
			return nil, err
		}
		out.Throws = append(out.Throws, t)
	}
	return out, p.done()
}

func parseFieldSignature(sig string, table *dotname.Table, scope *typeScope) (symtab.Type, error) {
	p := newSigParser(sig, table, scope)
	t, err := p.referenceType()
	if err != nil {
		return nil, err
	}
	return t, p.done()
}

// agrees reports whether a signature type is consistent with the erased
// descriptor type. Types whose erasure cannot be determined only need to
// be reference types.
func agrees(sig, desc symtab.Type) bool {
	if e, ok := symtab.Erasure(sig); ok {
		return symtab.TypesEqual(e, desc)
	}
	switch sig.(type) {
	case symtab.ArrayType:
		_, ok := desc.(symtab.ArrayType)
		return ok
	default:
		switch desc.(type) {
		case symtab.ClassType, symtab.ArrayType:
			return true
		}
	}
	return false
}
