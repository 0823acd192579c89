package classfile

import (
	"fmt"

	"github.com/tender-barbarian/class-lens/internal/dotname"
	"github.com/tender-barbarian/class-lens/internal/symtab"
)

// annotationReader decodes annotation structures against one constant pool.
type annotationReader struct {
	c     *cursor
	cp    *constantPool
	table *dotname.Table
}

// annotations reads a Runtime(In)visibleAnnotations body. Targets are
// left nil for the caller to fill in.
func (ar *annotationReader) annotations(visible bool) ([]*symtab.AnnotationInstance, error) {
	n := int(ar.c.u2())
	out := make([]*symtab.AnnotationInstance, 0, n)
	for i := 0; i < n; i++ {
		a, err := ar.annotation(visible)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, ar.c.err
}

// parameterAnnotations reads a Runtime(In)visibleParameterAnnotations body.
func (ar *annotationReader) parameterAnnotations(visible bool) ([][]*symtab.AnnotationInstance, error) {
	n := int(ar.c.u1())
	out := make([][]*symtab.AnnotationInstance, n)
	for i := range out {
		list, err := ar.annotations(visible)
		if err != nil {
			return nil, err
		}
		out[i] = list
	}
	return out, ar.c.err
}

func (ar *annotationReader) annotation(visible bool) (*symtab.AnnotationInstance, error) {
	typeIndex := int(ar.c.u2())
	if ar.c.err != nil {
		return nil, ar.c.err
	}
	name, err := ar.descriptorClass(typeIndex)
	if err != nil {
		return nil, fmt.Errorf("annotation type: %w", err)
	}
	pairs := int(ar.c.u2())
	a := &symtab.AnnotationInstance{Name: name, Visible: visible}
	for i := 0; i < pairs; i++ {
		elemName, err := ar.cp.utf8(int(ar.c.u2()))
		if err != nil {
			return nil, err
		}
		v, err := ar.elementValue(visible)
		if err != nil {
			return nil, fmt.Errorf("element %s of %s: %w", elemName, name, err)
		}
		a.Values = append(a.Values, symtab.AnnotationValue{Name: elemName, Value: v})
	}
	return a, ar.c.err
}

// descriptorClass resolves a Utf8 entry holding a class descriptor like "Lcom/Foo;".
func (ar *annotationReader) descriptorClass(index int) (dotname.Name, error) {
	desc, err := ar.cp.utf8(index)
	if err != nil {
		return dotname.Name{}, err
	}
	t, err := ParseFieldDescriptor(desc, ar.table)
	if err != nil {
		return dotname.Name{}, err
	}
	ct, ok := t.(symtab.ClassType)
	if !ok {
		return dotname.Name{}, fmt.Errorf("%w: %q is not a class descriptor", ErrMalformedClass, desc)
	}
	return ct.Name, nil
}

func (ar *annotationReader) elementValue(visible bool) (symtab.Value, error) {
	tag := ar.c.u1()
	if ar.c.err != nil {
		return nil, ar.c.err
	}
	switch tag {
	case 'B', 'C', 'I', 'S', 'Z':
		n, err := ar.cp.integer(int(ar.c.u2()))
		if err != nil {
			return nil, err
		}
		switch tag {
		case 'B':
			return symtab.ByteValue(int8(n)), nil
		case 'C':
			return symtab.CharValue(uint16(n)), nil
		case 'S':
			return symtab.ShortValue(int16(n)), nil
		case 'Z':
			return symtab.BoolValue(n != 0), nil
		}
		return symtab.IntValue(n), nil
	case 'J':
		n, err := ar.cp.long(int(ar.c.u2()))
		if err != nil {
			return nil, err
		}
		return symtab.LongValue(n), nil
	case 'F':
		f, err := ar.cp.float(int(ar.c.u2()))
		if err != nil {
			return nil, err
		}
		return symtab.FloatValue(f), nil
	case 'D':
		d, err := ar.cp.double(int(ar.c.u2()))
		if err != nil {
			return nil, err
		}
		return symtab.DoubleValue(d), nil
	case 's':
		s, err := ar.cp.utf8(int(ar.c.u2()))
		if err != nil {
			return nil, err
		}
		return symtab.StringValue(s), nil
	case 'e':
		typeName, err := ar.descriptorClass(int(ar.c.u2()))
		if err != nil {
			return nil, err
		}
		constant, err := ar.cp.utf8(int(ar.c.u2()))
		if err != nil {
			return nil, err
		}
		return symtab.EnumValue{Type: typeName, Constant: constant}, nil
	case 'c':
		desc, err := ar.cp.utf8(int(ar.c.u2()))
		if err != nil {
			return nil, err
		}
		t, err := ParseReturnDescriptor(desc, ar.table)
		if err != nil {
			return nil, err
		}
		return symtab.ClassValue{Type: t}, nil
	case '@':
		a, err := ar.annotation(visible)
		if err != nil {
			return nil, err
		}
		return symtab.NestedValue{Annotation: a}, nil
	case '[':
		n := int(ar.c.u2())
		arr := make(symtab.ArrayValue, 0, n)
		for i := 0; i < n; i++ {
			v, err := ar.elementValue(visible)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, ar.c.err
	}
	return nil, fmt.Errorf("%w: unknown element value tag %q", ErrMalformedClass, tag)
}
