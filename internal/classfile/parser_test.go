package classfile

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tender-barbarian/class-lens/internal/classfile/classgen"
	"github.com/tender-barbarian/class-lens/internal/dotname"
	"github.com/tender-barbarian/class-lens/internal/symtab"
)

func parse(t *testing.T, c *classgen.Class) *Result {
	t.Helper()
	res, err := NewParser(dotname.NewTable(), nil).Parse(bytes.NewReader(c.Bytes()))
	require.NoError(t, err)
	return res
}

func names(list []dotname.Name) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.String()
	}
	return out
}

func TestParseBasicClass(t *testing.T) {
	c := classgen.New("com.example.Api").Implements("java.io.Serializable")
	c.Field("count", "I").Flags(classgen.AccPrivate).Annotate(classgen.Anno("com.example.Tracked"))
	c.Method("run", "(Ljava/lang/String;J)V").
		Local(0, "this", "Lcom/example/Api;").
		Local(1, "label", "Ljava/lang/String;").
		Local(2, "timeout", "J").
		Throws("java.io.IOException")

	ci := parse(t, c).Class

	assert.Equal(t, "com.example.Api", ci.Name.String())
	assert.Equal(t, "Api", ci.SimpleName)
	assert.Equal(t, symtab.TopLevel, ci.Nesting)
	assert.Equal(t, "java.lang.Object", ci.SuperName().String())
	assert.Equal(t, []string{"java.io.Serializable"}, names(ci.InterfaceNames()))
	assert.True(t, ci.Flags.Has(symtab.AccPublic))

	f := ci.Field("count")
	require.NotNil(t, f)
	assert.Equal(t, "int", f.Type.String())
	assert.True(t, f.Flags.Has(symtab.AccPrivate))
	require.Len(t, f.Annotations, 1)
	assert.Equal(t, "com.example.Tracked", f.Annotations[0].Name.String())
	assert.Same(t, f, f.Annotations[0].Target)

	m := ci.FirstMethod("run")
	require.NotNil(t, m)
	assert.Equal(t, []string{"label", "timeout"}, m.ParameterNames())
	assert.Equal(t, "void", m.ReturnType.String())
	require.Len(t, m.Exceptions, 1)
	assert.Equal(t, "java.io.IOException", m.Exceptions[0].String())
	assert.Same(t, m, ci.Method("run", symtab.NewClassType("java.lang.String"), symtab.LongType))
	assert.Nil(t, ci.Method("run", symtab.NewClassType("java.lang.String")))
}

func TestParseRootClass(t *testing.T) {
	ci := parse(t, classgen.New("java.lang.Object").Super("")).Class
	assert.Nil(t, ci.Super)
	assert.True(t, ci.SuperName().IsZero())
}

func TestParseInvalidInput(t *testing.T) {
	p := NewParser(nil, nil)

	_, err := p.Parse(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = p.Parse(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = p.ParseBytes([]byte{0xCA, 0xFE})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = p.ParseBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 52})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseTruncated(t *testing.T) {
	c := classgen.New("com.example.Api")
	c.Field("name", "Ljava/lang/String;").Signature("Ljava/lang/String;")
	c.Method("go", "(I)V").Local(1, "n", "I").Annotate(classgen.Anno("com.example.Marker"))
	data := c.Bytes()

	p := NewParser(nil, nil)
	_, err := p.ParseBytes(data)
	require.NoError(t, err)

	for n := 4; n < len(data); n++ {
		res, err := p.ParseBytes(data[:n])
		require.ErrorIs(t, err, ErrMalformedClass, "length %d", n)
		assert.Nil(t, res)
	}
}

func TestParseBadConstantPool(t *testing.T) {
	data := []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 52, 0, 2, 2, 0, 0}
	_, err := NewParser(nil, nil).ParseBytes(data)
	assert.ErrorIs(t, err, ErrMalformedClass)
}

func TestNestingClassification(t *testing.T) {
	const outer = "com.x.Outer"
	tests := []struct {
		name       string
		class      *classgen.Class
		want       symtab.NestingType
		simpleName string
		enclosing  string
		method     string
	}{
		{
			name:       "no self entry is top level",
			class:      classgen.New("com.x.Outer").Inner("com.x.Outer$Other", outer, "Other", classgen.AccPublic),
			want:       symtab.TopLevel,
			simpleName: "Outer",
		},
		{
			name: "enclosing method with name is local",
			class: classgen.New("com.x.Outer$1Helper").
				Inner("com.x.Outer$1Helper", "", "Helper", 0).
				EnclosingMethod(outer, "run", "()V"),
			want:       symtab.Local,
			simpleName: "Helper",
			enclosing:  outer,
			method:     "run",
		},
		{
			name: "enclosing method without name is anonymous",
			class: classgen.New("com.x.Outer$1").
				Inner("com.x.Outer$1", "", "", 0).
				EnclosingMethod(outer, "run", "()V"),
			want:      symtab.Anonymous,
			enclosing: outer,
			method:    "run",
		},
		{
			name: "outer class reference is inner",
			class: classgen.New("com.x.Outer$Nested").
				Inner("com.x.Outer$Nested", outer, "Nested", classgen.AccPublic|classgen.AccStatic),
			want:       symtab.Inner,
			simpleName: "Nested",
			enclosing:  outer,
		},
		{
			name:       "no outer and no enclosing method with name is local",
			class:      classgen.New("com.x.Outer$1Named").Inner("com.x.Outer$1Named", "", "Named", 0),
			want:       symtab.Local,
			simpleName: "Named",
		},
		{
			name:  "no outer and no enclosing method without name is anonymous",
			class: classgen.New("com.x.Outer$2").Inner("com.x.Outer$2", "", "", 0),
			want:  symtab.Anonymous,
		},
		{
			name: "enclosing class only is anonymous",
			class: classgen.New("com.x.Outer$3").
				Inner("com.x.Outer$3", "", "", 0).
				EnclosingMethod(outer, "", ""),
			want:      symtab.Anonymous,
			enclosing: outer,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ci := parse(t, tc.class).Class
			assert.Equal(t, tc.want, ci.Nesting)
			assert.Equal(t, tc.simpleName, ci.SimpleName)
			assert.Equal(t, tc.enclosing, ci.EnclosingClass.String())
			if tc.method == "" {
				assert.Nil(t, ci.EnclosingMethod)
				return
			}
			require.NotNil(t, ci.EnclosingMethod)
			assert.Equal(t, tc.method, ci.EnclosingMethod.Name)
			assert.Equal(t, outer, ci.EnclosingMethod.Class.String())
			assert.Equal(t, "void", ci.EnclosingMethod.ReturnType.String())
		})
	}
}

func TestNestedFlagsComeFromInnerEntry(t *testing.T) {
	c := classgen.New("com.x.Outer$Nested").
		Flags(classgen.AccPublic|classgen.AccSuper).
		Inner("com.x.Outer$Nested", "com.x.Outer", "Nested", classgen.AccPrivate|classgen.AccStatic)
	ci := parse(t, c).Class
	assert.True(t, ci.Flags.Has(symtab.AccStatic))
	assert.True(t, ci.Flags.Has(symtab.AccPrivate))
	assert.False(t, ci.Flags.Has(symtab.AccPublic))
}

func TestHasNoArgsConstructor(t *testing.T) {
	innerOf := func(name string, flags uint16) *classgen.Class {
		return classgen.New(name).Inner(name, "com.x.Outer", "N", flags)
	}
	tests := []struct {
		name  string
		class func() *classgen.Class
		want  bool
	}{
		{"default constructor", func() *classgen.Class {
			c := classgen.New("com.x.A")
			c.Method("<init>", "()V")
			return c
		}, true},
		{"sole one-argument constructor", func() *classgen.Class {
			c := classgen.New("com.x.B")
			c.Method("<init>", "(Ljava/lang/Integer;)V")
			return c
		}, false},
		{"overloaded constructors", func() *classgen.Class {
			c := classgen.New("com.x.C")
			c.Method("<init>", "(I)V")
			c.Method("<init>", "()V")
			return c
		}, true},
		{"no constructor", func() *classgen.Class { return classgen.New("com.x.D") }, false},
		{"static nested default constructor", func() *classgen.Class {
			c := innerOf("com.x.Outer$N", classgen.AccPublic|classgen.AccStatic)
			c.Method("<init>", "()V")
			return c
		}, true},
		{"inner class default constructor takes only the outer instance", func() *classgen.Class {
			c := innerOf("com.x.Outer$N", classgen.AccPublic)
			c.Method("<init>", "(Lcom/x/Outer;)V")
			return c
		}, true},
		{"inner class constructor with a declared parameter", func() *classgen.Class {
			c := innerOf("com.x.Outer$N", classgen.AccPublic)
			c.Method("<init>", "(Lcom/x/Outer;I)V")
			return c
		}, false},
		{"enum constructor with only name and ordinal", func() *classgen.Class {
			c := classgen.New("com.x.Color").Super("java.lang.Enum").Flags(classgen.AccPublic | classgen.AccFinal | classgen.AccEnum)
			c.Method("<init>", "(Ljava/lang/String;I)V")
			return c
		}, true},
		{"mandated outer instance is hidden", func() *classgen.Class {
			c := innerOf("com.x.Outer$N", classgen.AccPublic)
			c.Method("<init>", "(Lcom/x/Outer;)V").Param("this$0", classgen.AccFinal|classgen.AccMandated)
			return c
		}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ci := parse(t, tc.class()).Class
			assert.Equal(t, tc.want, ci.HasNoArgsConstructor())
		})
	}
}

func TestInnerConstructorParameters(t *testing.T) {
	for _, tableSize := range []int{1, 2} {
		c := classgen.New("com.x.Outer$Inner").Inner("com.x.Outer$Inner", "com.x.Outer", "Inner", classgen.AccPublic)
		m := c.Method("<init>", "(Lcom/x/Outer;Ljava/lang/String;)V").
			Local(0, "this", "Lcom/x/Outer$Inner;").
			Local(1, "this$0", "Lcom/x/Outer;").
			Local(2, "name", "Ljava/lang/String;")
		m.AnnotateParam(tableSize-1, classgen.Anno("com.x.NotNull"))

		ci := parse(t, c).Class
		ctor := ci.FirstMethod("<init>")
		require.NotNil(t, ctor)

		assert.Len(t, ctor.DescriptorParameters(), 2)
		assert.Len(t, ctor.Parameters(), 2)
		assert.True(t, ctor.Params[0].Flags.Has(symtab.AccSynthetic))
		assert.Equal(t, "name", ctor.ParameterName(0))
		assert.Equal(t, []string{"name"}, ctor.ParameterNames())

		require.Len(t, ctor.Annotations, 1)
		target, ok := ctor.Annotations[0].Target.(symtab.MethodParameterInfo)
		require.True(t, ok)
		assert.Equal(t, 0, target.Position)
		assert.Equal(t, "name", target.Name())
		assert.False(t, ci.HasNoArgsConstructor())
	}
}

func TestMethodParametersFlags(t *testing.T) {
	c := classgen.New("com.x.Outer$Inner").Inner("com.x.Outer$Inner", "com.x.Outer", "Inner", classgen.AccPublic)
	c.Method("<init>", "(Lcom/x/Outer;IJ)V").
		Param("this$0", classgen.AccFinal|classgen.AccMandated).
		Param("", classgen.AccSynthetic).
		Param("size", classgen.AccFinal).
		Local(2, "ignored", "I")

	ctor := parse(t, c).Class.FirstMethod("<init>")
	require.NotNil(t, ctor)
	assert.Len(t, ctor.DescriptorParameters(), 3)
	assert.Len(t, ctor.Parameters(), 2, "mandated parameter is dropped")
	assert.Equal(t, []string{"size"}, ctor.ParameterNames())
	assert.Equal(t, "", ctor.ParameterName(1))
	assert.Equal(t, "ignored", ctor.Params[1].Name, "local variable table fills names MethodParameters left empty")
}

func TestEnumConstructorParameters(t *testing.T) {
	c := classgen.New("com.x.Color").Flags(classgen.AccPublic | classgen.AccFinal | classgen.AccEnum).Super("java.lang.Enum")
	c.Method("<init>", "(Ljava/lang/String;ILjava/lang/String;)V").Flags(classgen.AccPrivate).
		Local(3, "label", "Ljava/lang/String;")

	ci := parse(t, c).Class
	ctor := ci.FirstMethod("<init>")
	require.NotNil(t, ctor)
	assert.True(t, ctor.Params[0].Flags.Has(symtab.AccSynthetic))
	assert.True(t, ctor.Params[1].Flags.Has(symtab.AccSynthetic))
	assert.Equal(t, "label", ctor.ParameterName(0))
	assert.True(t, ci.IsEnum())
}

func TestSignatureMarksLeadingParametersSynthetic(t *testing.T) {
	c := classgen.New("com.x.Holder")
	c.Method("<init>", "(Lcom/x/Outer;Ljava/util/List;)V").Signature("(Ljava/util/List<Ljava/lang/String;>;)V")

	ctor := parse(t, c).Class.FirstMethod("<init>")
	require.NotNil(t, ctor)
	assert.True(t, ctor.Params[0].Flags.Has(symtab.AccSynthetic))
	assert.True(t, ctor.Params[1].IsDeclared())
	assert.Equal(t, "java.util.List<java.lang.String>", ctor.Params[1].Type.String())
}

func TestParameterAnnotationCountMarksSynthetic(t *testing.T) {
	c := classgen.New("com.x.Local$1")
	c.Method("<init>", "(Lcom/x/Local;I)V").AnnotateParam(0, classgen.Anno("com.x.Positive"))

	ctor := parse(t, c).Class.FirstMethod("<init>")
	require.NotNil(t, ctor)
	assert.True(t, ctor.Params[0].Flags.Has(symtab.AccSynthetic))
	require.Len(t, ctor.Annotations, 1)
	assert.Equal(t, symtab.MethodParameterInfo{Method: ctor, Position: 0}, ctor.Annotations[0].Target)
}

func TestGenericSignatures(t *testing.T) {
	c := classgen.New("com.x.Box").
		Implements("java.lang.Comparable").
		Signature("<T:Ljava/lang/Number;>Ljava/lang/Object;Ljava/lang/Comparable<Lcom/x/Box<TT;>;>;")
	c.Field("value", "Ljava/lang/Number;").Signature("TT;")
	c.Method("map", "(Ljava/util/function/Function;)Lcom/x/Box;").
		Signature("<U:Ljava/lang/Number;>(Ljava/util/function/Function<-TT;+TU;>;)Lcom/x/Box<TU;>;")

	ci := parse(t, c).Class
	require.Len(t, ci.TypeParameters, 1)
	assert.Equal(t, "T", ci.TypeParameters[0].String())
	assert.Equal(t, "java.lang.Comparable<com.x.Box<T>>", ci.Interfaces[0].String())
	assert.Equal(t, "java.lang.Comparable", ci.InterfaceNames()[0].String())

	value := ci.Field("value")
	tv, ok := value.Type.(symtab.TypeVariable)
	require.True(t, ok)
	assert.Equal(t, "java.lang.Number", tv.Bounds[0].String())

	m := ci.FirstMethod("map")
	require.Len(t, m.TypeParameters, 1)
	assert.Equal(t, "java.util.function.Function<? super T, ? extends U>", m.Params[0].Type.String())
	assert.Equal(t, "com.x.Box<U>", m.ReturnType.String())
	assert.Same(t, m, ci.Method("map", symtab.NewClassType("java.util.function.Function")))
}

func TestSignatureDisagreement(t *testing.T) {
	tests := []struct {
		name  string
		class func() *classgen.Class
	}{
		{"field type", func() *classgen.Class {
			c := classgen.New("com.x.A")
			c.Field("n", "I").Signature("Ljava/lang/String;")
			return c
		}},
		{"field garbage", func() *classgen.Class {
			c := classgen.New("com.x.A")
			c.Field("n", "Ljava/lang/String;").Signature("Ljava/lang/String")
			return c
		}},
		{"method parameter", func() *classgen.Class {
			c := classgen.New("com.x.A")
			c.Method("m", "(Ljava/lang/String;)V").Signature("(Ljava/util/List<TT;>;)V")
			return c
		}},
		{"method return", func() *classgen.Class {
			c := classgen.New("com.x.A")
			c.Method("m", "()I").Signature("()Ljava/lang/Integer;")
			return c
		}},
		{"too many parameters", func() *classgen.Class {
			c := classgen.New("com.x.A")
			c.Method("m", "()V").Signature("(I)V")
			return c
		}},
		{"class superclass", func() *classgen.Class {
			return classgen.New("com.x.A").Signature("Ljava/util/AbstractList<Ljava/lang/String;>;")
		}},
		{"class interface count", func() *classgen.Class {
			return classgen.New("com.x.A").Signature("Ljava/lang/Object;Ljava/io/Serializable;")
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := NewParser(nil, nil).ParseBytes(tc.class().Bytes())
			assert.ErrorIs(t, err, ErrMalformedClass)
			assert.Nil(t, res)
		})
	}
}

func TestAnnotationValues(t *testing.T) {
	nested := classgen.Anno("com.x.Inner", classgen.Element{Name: "v", Value: classgen.Int(3)})
	c := classgen.New("com.x.Annotated").Annotate(classgen.Anno("com.x.All",
		classgen.Element{Name: "b", Value: classgen.Byte(-2)},
		classgen.Element{Name: "c", Value: classgen.Char('x')},
		classgen.Element{Name: "s", Value: classgen.Short(300)},
		classgen.Element{Name: "i", Value: classgen.Int(-7)},
		classgen.Element{Name: "j", Value: classgen.Long(1 << 40)},
		classgen.Element{Name: "f", Value: classgen.Float(1.5)},
		classgen.Element{Name: "d", Value: classgen.Double(2.25)},
		classgen.Element{Name: "z", Value: classgen.Bool(true)},
		classgen.Element{Name: "str", Value: classgen.String("hello\x00😀")},
		classgen.Element{Name: "e", Value: classgen.Enum("java.lang.annotation.RetentionPolicy", "RUNTIME")},
		classgen.Element{Name: "cls", Value: classgen.ClassLit("Ljava/lang/String;")},
		classgen.Element{Name: "void", Value: classgen.ClassLit("V")},
		classgen.Element{Name: "nested", Value: classgen.Nested(nested)},
		classgen.Element{Name: "arr", Value: classgen.Array(classgen.Int(1), classgen.Int(2))},
	))
	c.Annotate(classgen.Annotation{Type: "com.x.Build", Invisible: true})

	ci := parse(t, c).Class
	require.Len(t, ci.Annotations, 2)
	a := ci.ClassAnnotation(dotname.Simple("com.x.All"))
	require.NotNil(t, a)
	assert.True(t, a.Visible)
	assert.Same(t, ci, a.Target)

	assert.Equal(t, symtab.ByteValue(-2), a.Value("b").Value)
	assert.Equal(t, symtab.CharValue('x'), a.Value("c").Value)
	assert.Equal(t, symtab.ShortValue(300), a.Value("s").Value)
	assert.Equal(t, int32(-7), a.Value("i").AsInt())
	assert.Equal(t, int64(1<<40), a.Value("j").AsLong())
	assert.Equal(t, float32(1.5), a.Value("f").AsFloat())
	assert.Equal(t, 2.25, a.Value("d").AsDouble())
	assert.True(t, a.Value("z").AsBool())
	assert.Equal(t, "hello\x00😀", a.Value("str").AsString())
	assert.Equal(t, "RUNTIME", a.Value("e").AsEnum())
	assert.Equal(t, "java.lang.String", a.Value("cls").AsClass().String())
	assert.Equal(t, symtab.KindVoid, a.Value("void").AsClass().Kind())
	inner := a.Value("nested").AsNested()
	require.NotNil(t, inner)
	assert.Nil(t, inner.Target)
	assert.Equal(t, int32(3), inner.Value("v").AsInt())
	assert.Equal(t, []int32{1, 2}, a.Value("arr").AsIntArray())
	assert.Nil(t, a.Value("missing"))

	build := ci.ClassAnnotation(dotname.Simple("com.x.Build"))
	require.NotNil(t, build)
	assert.False(t, build.Visible)
}

func TestAnnotationDefault(t *testing.T) {
	c := classgen.New("com.x.Config").Flags(classgen.AccPublic | classgen.AccInterface | classgen.AccAbstract | classgen.AccAnno).
		Implements("java.lang.annotation.Annotation")
	c.Method("x", "()I").Flags(classgen.AccPublic | classgen.AccAbstract)
	c.Method("y", "()Ljava/lang/String;").Flags(classgen.AccPublic | classgen.AccAbstract).Default(classgen.String("d"))

	ci := parse(t, c).Class
	assert.True(t, ci.IsAnnotation())
	assert.True(t, ci.IsInterface())
	assert.Nil(t, ci.FirstMethod("x").DefaultValue)
	def := ci.FirstMethod("y").DefaultValue
	require.NotNil(t, def)
	assert.Equal(t, "y", def.Name)
	assert.Equal(t, "d", def.AsString())
}

func TestMethodAndParameterAnnotationOrder(t *testing.T) {
	c := classgen.New("com.x.Svc")
	c.Method("handle", "(Ljava/lang/String;I)V").
		AnnotateParam(1, classgen.Anno("com.x.Min", classgen.Element{Name: "value", Value: classgen.Int(1)})).
		AnnotateParam(0, classgen.Anno("com.x.NotNull")).
		Annotate(classgen.Anno("com.x.Path"))

	m := parse(t, c).Class.FirstMethod("handle")
	require.Len(t, m.Annotations, 3)
	assert.Equal(t, "com.x.Path", m.Annotations[0].Name.String())
	assert.Equal(t, symtab.TargetMethod, m.Annotations[0].Target.Kind())
	assert.Equal(t, "com.x.NotNull", m.Annotations[1].Name.String())
	assert.Equal(t, 0, m.Annotations[1].Target.(symtab.MethodParameterInfo).Position)
	assert.Equal(t, "com.x.Min", m.Annotations[2].Name.String())
	assert.Equal(t, 1, m.Annotations[2].Target.(symtab.MethodParameterInfo).Position)
	assert.True(t, m.HasAnnotation(dotname.Simple("com.x.Min")))
}

func TestReferences(t *testing.T) {
	c := classgen.New("com.x.Client").
		Super("com.x.Base").
		Implements("com.x.Iface", "com.x.Marker").
		ClassRef("com.x.Used").
		ClassRef("[Lcom/x/Elem;").
		ClassRef("[[I").
		MethodRef("com.x.Base", "<init>", "()V").
		FieldRef("com.x.Iface", "CONST", "I").
		MethodRef("com.x.Helper", "help", "()V").
		ClassRef("com.x.Elem")

	refs := names(parse(t, c).References)
	assert.ElementsMatch(t, []string{"com.x.Client", "com.x.Used", "com.x.Elem", "com.x.Iface", "com.x.Helper"}, refs)
}

func TestSuperclassUsedThroughMemberIsReference(t *testing.T) {
	c := classgen.New("com.x.Child").Super("com.x.Parent").MethodRef("com.x.Parent", "helper", "()V")
	assert.Contains(t, names(parse(t, c).References), "com.x.Parent")
}

func TestParseIdempotent(t *testing.T) {
	c := classgen.New("com.x.Same").Implements("java.lang.Runnable").
		Signature("<T:Ljava/lang/Object;>Ljava/lang/Object;Ljava/lang/Runnable;").
		Annotate(classgen.Anno("com.x.A", classgen.Element{Name: "v", Value: classgen.Array(classgen.String("a"))}))
	c.Field("t", "Ljava/lang/Object;").Signature("TT;")
	c.Method("run", "()V").Annotate(classgen.Anno("com.x.B"))
	data := c.Bytes()

	first, err := NewParser(dotname.NewTable(), nil).ParseBytes(data)
	require.NoError(t, err)
	second, err := NewParser(dotname.NewTable(), nil).ParseBytes(data)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

type recordingHook struct {
	NopHook
	starts, ends int
	added        []string
	utf8         []string
}

func (h *recordingHook) StartClass() { h.starts++ }
func (h *recordingHook) EndClass()   { h.ends++ }

func (h *recordingHook) ShouldHandleClassPoolTag(tag Tag) bool { return tag == TagUtf8 }

func (h *recordingHook) HandleConstantPoolEntry(_ int, _ Tag, raw []byte) {
	h.utf8 = append(h.utf8, string(raw[2:]))
}

func (h *recordingHook) AddClassInfo(name dotname.Name, super symtab.Type, _ symtab.AccessFlags, interfaces []symtab.Type) {
	h.added = append(h.added, name.String()+" extends "+super.String())
}

func TestHook(t *testing.T) {
	h := &recordingHook{}
	p := NewParser(dotname.NewTable(), h)

	_, err := p.ParseBytes(classgen.New("com.x.Hooked").Bytes())
	require.NoError(t, err)
	_, err = p.ParseBytes([]byte("not a class file"))
	require.Error(t, err)

	assert.Equal(t, 2, h.starts)
	assert.Equal(t, 2, h.ends)
	assert.Equal(t, []string{"com.x.Hooked extends java.lang.Object"}, h.added)
	assert.Contains(t, h.utf8, "com/x/Hooked")
}

func TestNopHookChangesNothing(t *testing.T) {
	data := classgen.New("com.x.Plain").Bytes()
	a, err := NewParser(dotname.NewTable(), nil).ParseBytes(data)
	require.NoError(t, err)
	b, err := NewParser(dotname.NewTable(), NopHook{}).ParseBytes(data)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestParseReaderError(t *testing.T) {
	_, err := NewParser(nil, nil).Parse(failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}
