package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tender-barbarian/class-lens/internal/classfile/classgen"
	"github.com/tender-barbarian/class-lens/internal/dotname"
	"github.com/tender-barbarian/class-lens/internal/indexer"
	"github.com/tender-barbarian/class-lens/internal/symtab"
)

const outer = "com.x.Outer"

func fixtureClasses() []*classgen.Class {
	box := classgen.New("com.x.Box").
		Implements("java.lang.Comparable").
		Signature("<T:Ljava/lang/Number;>Ljava/lang/Object;Ljava/lang/Comparable<Lcom/x/Box<TT;>;>;").
		Annotate(classgen.Anno("com.x.Config",
			classgen.Element{Name: "x", Value: classgen.Int(7)},
			classgen.Element{Name: "big", Value: classgen.Long(-1 << 40)},
			classgen.Element{Name: "ratio", Value: classgen.Float(0.5)},
			classgen.Element{Name: "precise", Value: classgen.Double(2.25)},
			classgen.Element{Name: "letter", Value: classgen.Char('q')},
			classgen.Element{Name: "small", Value: classgen.Byte(-3)},
			classgen.Element{Name: "medium", Value: classgen.Short(300)},
			classgen.Element{Name: "on", Value: classgen.Bool(true)},
			classgen.Element{Name: "type", Value: classgen.ClassLit("Ljava/lang/String;")},
			classgen.Element{Name: "color", Value: classgen.Enum("com.x.Color", "RED")},
			classgen.Element{Name: "inner", Value: classgen.Nested(classgen.Anno("com.x.Tag", classgen.Element{Name: "value", Value: classgen.String("n")}))},
			classgen.Element{Name: "list", Value: classgen.Array(classgen.Int(1), classgen.Int(2))},
		))
	box.Field("value", "Ljava/lang/Number;").Signature("TT;").Annotate(classgen.Anno("com.x.Tag"))
	box.Method("<init>", "()V")
	box.Method("map", "(Ljava/util/function/Function;)Lcom/x/Box;").
		Signature("<U:Ljava/lang/Number;>(Ljava/util/function/Function<-TT;+TU;>;)Lcom/x/Box<TU;>;").
		Throws("java.io.IOException").
		Annotate(classgen.Annotation{Type: "com.x.Tag", Invisible: true}).
		AnnotateParam(0, classgen.Anno("com.x.Tag")).
		Local(1, "fn", "Ljava/util/function/Function;")

	config := classgen.New("com.x.Config").
		Flags(classgen.AccPublic | classgen.AccInterface | classgen.AccAbstract | classgen.AccAnno).
		Implements("java.lang.annotation.Annotation")
	config.Method("x", "()I").Flags(classgen.AccPublic | classgen.AccAbstract)
	config.Method("y", "()Ljava/lang/String;").Flags(classgen.AccPublic | classgen.AccAbstract).Default(classgen.String("d"))

	out := classgen.New(outer).Inner(outer+"$Nested", outer, "Nested", classgen.AccPublic|classgen.AccStatic)
	out.Method("<init>", "()V")

	return []*classgen.Class{
		box,
		config,
		out,
		classgen.New(outer+"$Nested").Inner(outer+"$Nested", outer, "Nested", classgen.AccPublic|classgen.AccStatic),
		classgen.New(outer+"$1Helper").Inner(outer+"$1Helper", "", "Helper", 0).EnclosingMethod(outer, "run", "(I)V"),
		classgen.New(outer+"$1").Inner(outer+"$1", "", "", 0).EnclosingMethod(outer, "", ""),
		classgen.New("com.x.User").MethodRef("com.x.Box", "map", "(Ljava/util/function/Function;)Lcom/x/Box;"),
	}
}

func fixture(t *testing.T) *indexer.Index {
	t.Helper()
	var readers []io.Reader
	for _, c := range fixtureClasses() {
		readers = append(readers, bytes.NewReader(c.Bytes()))
	}
	idx, err := indexer.OfReaders(readers...)
	require.NoError(t, err)
	return idx
}

func roundTrip(t *testing.T, idx *indexer.Index, version int) *indexer.Index {
	t.Helper()
	var buf bytes.Buffer
	n, err := NewWriter(&buf).WriteVersion(idx, version)
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)
	got, err := NewReader(&buf).Read()
	require.NoError(t, err)
	return got
}

func class(t *testing.T, idx *indexer.Index, name string) *symtab.ClassInfo {
	t.Helper()
	ci := idx.ClassByName(dotname.Simple(name))
	require.NotNil(t, ci, name)
	return ci
}

func assertTypes(t *testing.T, want, got []symtab.Type, what string) {
	t.Helper()
	require.Len(t, got, len(want), what)
	for i := range want {
		assert.True(t, symtab.TypesEqual(want[i], got[i]), "%s[%d]: want %v, got %v", what, i, want[i], got[i])
	}
}

func assertAnnotations(t *testing.T, want, got []*symtab.AnnotationInstance, what string) {
	t.Helper()
	require.Len(t, got, len(want), what)
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "%s[%d]: want %v, got %v", what, i, want[i], got[i])
	}
}

func assertClassEqual(t *testing.T, want, got *symtab.ClassInfo) {
	t.Helper()
	assert.Equal(t, want.Name.String(), got.Name.String())
	assert.Equal(t, want.Flags, got.Flags)
	assert.True(t, symtab.TypesEqual(want.Super, got.Super), "super")
	assertTypes(t, want.Interfaces, got.Interfaces, "interfaces")
	assertTypes(t, want.TypeParameters, got.TypeParameters, "type parameters")
	assertAnnotations(t, want.Annotations, got.Annotations, "class annotations")
	assert.Equal(t, want.Nesting, got.Nesting)
	assert.Equal(t, want.SimpleName, got.SimpleName)
	assert.Equal(t, want.EnclosingClass.String(), got.EnclosingClass.String())
	assert.Equal(t, want.NoArgsConstructor, got.NoArgsConstructor)
	if want.EnclosingMethod == nil {
		assert.Nil(t, got.EnclosingMethod)
	} else if assert.NotNil(t, got.EnclosingMethod) {
		assert.Equal(t, want.EnclosingMethod.Name, got.EnclosingMethod.Name)
		assert.Equal(t, want.EnclosingMethod.Class.String(), got.EnclosingMethod.Class.String())
		assert.True(t, symtab.TypesEqual(want.EnclosingMethod.ReturnType, got.EnclosingMethod.ReturnType))
		assertTypes(t, want.EnclosingMethod.Parameters, got.EnclosingMethod.Parameters, "enclosing parameters")
	}

	require.Len(t, got.Fields, len(want.Fields))
	for i, wf := range want.Fields {
		gf := got.Fields[i]
		assert.Equal(t, wf.Name, gf.Name)
		assert.Equal(t, wf.Flags, gf.Flags)
		assert.Equal(t, wf.Class.String(), gf.Class.String())
		assert.True(t, symtab.TypesEqual(wf.Type, gf.Type), "field %s type", wf.Name)
		assertAnnotations(t, wf.Annotations, gf.Annotations, "field annotations")
	}

	require.Len(t, got.Methods, len(want.Methods))
	for i, wm := range want.Methods {
		gm := got.Methods[i]
		assert.Equal(t, wm.String(), gm.String())
		assert.Equal(t, wm.Flags, gm.Flags)
		assert.True(t, symtab.TypesEqual(wm.ReturnType, gm.ReturnType), "method %s return", wm.Name)
		require.Len(t, gm.Params, len(wm.Params))
		for j := range wm.Params {
			assert.Equal(t, wm.Params[j].Name, gm.Params[j].Name)
			assert.Equal(t, wm.Params[j].Flags, gm.Params[j].Flags)
			assert.True(t, symtab.TypesEqual(wm.Params[j].Type, gm.Params[j].Type))
		}
		assertTypes(t, wm.Exceptions, gm.Exceptions, "exceptions")
		assertTypes(t, wm.TypeParameters, gm.TypeParameters, "method type parameters")
		assertAnnotations(t, wm.Annotations, gm.Annotations, "method annotations")
		if wm.DefaultValue == nil {
			assert.Nil(t, gm.DefaultValue)
		} else if assert.NotNil(t, gm.DefaultValue) {
			assert.Equal(t, wm.DefaultValue.Name, gm.DefaultValue.Name)
			assert.True(t, symtab.ValuesEqual(wm.DefaultValue.Value, gm.DefaultValue.Value))
		}
	}
}

func userNames(idx *indexer.Index, name string) []string {
	var out []string
	for _, ci := range idx.KnownUsers(dotname.Simple(name)) {
		out = append(out, ci.Name.String())
	}
	return out
}

func TestRoundTripCurrentVersion(t *testing.T) {
	want := fixture(t)
	got := roundTrip(t, want, CurrentVersion)

	require.Equal(t, want.Len(), got.Len())
	for _, ci := range want.KnownClasses() {
		t.Run(ci.Name.String(), func(t *testing.T) {
			assertClassEqual(t, ci, class(t, got, ci.Name.String()))
		})
	}

	assert.Equal(t, []string{"com.x.Box", "com.x.User"}, userNames(got, "com.x.Box"))
	assert.Equal(t, len(want.UserNames()), len(got.UserNames()))
	assert.Len(t, got.KnownDirectImplementors(dotname.Simple("java.lang.Comparable")), 1)
	assert.Len(t, got.Annotations(dotname.Simple("com.x.Tag")), 3)

	box := class(t, got, "com.x.Box")
	assert.True(t, box.HasNoArgsConstructor())
	assert.Equal(t, symtab.Anonymous, class(t, got, outer+"$1").Nesting)
	assert.Equal(t, []string{"fn"}, box.FirstMethod("map").ParameterNames())

	values, err := box.ClassAnnotation(dotname.Simple("com.x.Config")).ValuesWithDefaults(got)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "d", values[1].AsString())
}

func TestRoundTripOlderVersions(t *testing.T) {
	want := fixture(t)

	tests := []struct {
		version int
		check   func(t *testing.T, idx *indexer.Index)
	}{
		{9, func(t *testing.T, idx *indexer.Index) {
			assert.Empty(t, idx.UserNames())
			assert.Empty(t, userNames(idx, "com.x.Box"))
			assert.Equal(t, symtab.Anonymous, class(t, idx, outer+"$1").Nesting)
		}},
		{8, func(t *testing.T, idx *indexer.Index) {
			anon := class(t, idx, outer+"$1")
			assert.Equal(t, symtab.TopLevel, anon.Nesting)
			assert.True(t, anon.EnclosingClass.IsZero())
			helper := class(t, idx, outer+"$1Helper")
			assert.Equal(t, symtab.Local, helper.Nesting)
			require.NotNil(t, helper.EnclosingMethod)
			assert.Equal(t, "run", helper.EnclosingMethod.Name)
			assertTypes(t, []symtab.Type{symtab.IntType}, helper.EnclosingMethod.Parameters, "enclosing parameters")
		}},
		{7, func(t *testing.T, idx *indexer.Index) {
			box := class(t, idx, "com.x.Box")
			require.Len(t, box.TypeParameters, 1)
			assert.Equal(t, "java.lang.Comparable<com.x.Box<T>>", box.Interfaces[0].String())
		}},
		{6, func(t *testing.T, idx *indexer.Index) {
			box := class(t, idx, "com.x.Box")
			assert.Empty(t, box.TypeParameters)
			assert.Equal(t, "java.lang.Comparable", box.Interfaces[0].String())
			assert.Equal(t, symtab.KindClass, box.Field("value").Type.Kind())
			assert.Equal(t, "java.lang.Number", box.Field("value").Type.String())
			m := box.FirstMethod("map")
			assert.Empty(t, m.TypeParameters)
			assert.Equal(t, "com.x.Box", m.ReturnType.String())
			assert.Equal(t, "java.util.function.Function", m.Params[0].Type.String())
			assert.Equal(t, symtab.Inner, class(t, idx, outer+"$Nested").Nesting)
		}},
		{5, func(t *testing.T, idx *indexer.Index) {
			nested := class(t, idx, outer+"$Nested")
			assert.Equal(t, symtab.TopLevel, nested.Nesting)
			assert.Empty(t, nested.SimpleName)
			assert.True(t, nested.EnclosingClass.IsZero())
			assert.Nil(t, class(t, idx, outer+"$1Helper").EnclosingMethod)
			assert.NotNil(t, class(t, idx, "com.x.Config").FirstMethod("y").DefaultValue)
		}},
		{4, func(t *testing.T, idx *indexer.Index) {
			assert.Nil(t, class(t, idx, "com.x.Config").FirstMethod("y").DefaultValue)
			assert.Len(t, idx.Annotations(dotname.Simple("com.x.Tag")), 3)
			assert.Equal(t, []string{"fn"}, class(t, idx, "com.x.Box").FirstMethod("map").ParameterNames())
		}},
		{3, func(t *testing.T, idx *indexer.Index) {
			box := class(t, idx, "com.x.Box")
			assert.Empty(t, box.Field("value").Annotations)
			assert.Empty(t, box.FirstMethod("map").Annotations)
			assert.Equal(t, []string{""}, box.FirstMethod("map").ParameterNames())
			assert.Len(t, idx.Annotations(dotname.Simple("com.x.Config")), 1)
			assert.True(t, box.HasNoArgsConstructor())
		}},
		{2, func(t *testing.T, idx *indexer.Index) {
			assert.False(t, class(t, idx, "com.x.Box").HasNoArgsConstructor())
			assert.False(t, class(t, idx, outer).HasNoArgsConstructor())
			assert.Equal(t, want.Len(), idx.Len())
		}},
	}

	for _, tc := range tests {
		t.Run(versionName(tc.version), func(t *testing.T) {
			tc.check(t, roundTrip(t, want, tc.version))
		})
	}
}

func versionName(v int) string {
	return "v" + string(rune('0'+v/10)) + string(rune('0'+v%10))
}

func TestWriteDeterministic(t *testing.T) {
	idx := fixture(t)
	var a, b bytes.Buffer
	_, err := NewWriter(&a).Write(idx)
	require.NoError(t, err)
	_, err = NewWriter(&b).Write(roundTrip(t, idx, CurrentVersion))
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestWriteUnsupportedVersion(t *testing.T) {
	idx := fixture(t)
	for _, v := range []int{0, 1, CurrentVersion + 1} {
		var buf bytes.Buffer
		n, err := NewWriter(&buf).WriteVersion(idx, v)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
		assert.Zero(t, n)
		assert.Zero(t, buf.Len())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteError(t *testing.T) {
	_, err := NewWriter(failingWriter{}).Write(fixture(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestEmptyIndex(t *testing.T) {
	idx := indexer.NewIndex(nil, nil, nil)
	got := roundTrip(t, idx, CurrentVersion)
	assert.Zero(t, got.Len())
}

func header(version byte) []byte {
	return append(binary.BigEndian.AppendUint32(nil, magic), version)
}

func TestReadErrors(t *testing.T) {
	var valid bytes.Buffer
	_, err := NewWriter(&valid).Write(fixture(t))
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrBadMagic},
		{"short", []byte{0x0C, 0x1A}, ErrBadMagic},
		{"class file", []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 52}, ErrBadMagic},
		{"no version", binary.BigEndian.AppendUint32(nil, magic), ErrCorrupt},
		{"version too old", header(1), ErrUnsupportedVersion},
		{"version too new", header(CurrentVersion + 1), ErrUnsupportedVersion},
		{"no name table", header(CurrentVersion), ErrCorrupt},
		{"trailing data", append(append([]byte(nil), valid.Bytes()...), 0), ErrCorrupt},
		{"huge count", append(header(CurrentVersion), 0xFF, 0xFF, 0xFF, 0x0F), ErrCorrupt},
		{"forward name reference", append(header(CurrentVersion), 1, 2, 1, 'a', 0, 0), ErrCorrupt},
		{"empty name segment", append(header(CurrentVersion), 1, 0, 0, 0, 0), ErrCorrupt},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			idx, err := NewReader(bytes.NewReader(tc.data)).Read()
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, idx)
		})
	}
}

func TestReadTruncated(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf).Write(fixture(t))
	require.NoError(t, err)
	data := buf.Bytes()

	for n := 5; n < len(data); n++ {
		idx, err := NewReader(bytes.NewReader(data[:n])).Read()
		if !assert.ErrorIs(t, err, ErrCorrupt, "prefix %d", n) {
			return
		}
		assert.Nil(t, idx)
	}
}

func TestReadEveryVersionMinimal(t *testing.T) {
	for v := MinVersion; v <= CurrentVersion; v++ {
		data := append(header(byte(v)), 0, 0) // no names, no classes
		if v >= since[featUsers] {
			data = append(data, 0)
		}
		idx, err := NewReader(bytes.NewReader(data)).Read()
		require.NoError(t, err, "version %d", v)
		assert.Zero(t, idx.Len())
	}
}
