// Package report renders index records as plain views for JSON and YAML
// output, and compares two indexes as a unified diff of their dumps.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/tender-barbarian/class-lens/internal/dotname"
	"github.com/tender-barbarian/class-lens/internal/indexer"
	"github.com/tender-barbarian/class-lens/internal/symtab"
)

// ClassSummary is the short form used in listings.
type ClassSummary struct {
	Name  string `json:"name" yaml:"name"`
	Kind  string `json:"kind" yaml:"kind"`
	Super string `json:"super,omitempty" yaml:"super,omitempty"`
}

// ClassView is the full form of a class record.
type ClassView struct {
	Name              string           `json:"name" yaml:"name"`
	Kind              string           `json:"kind" yaml:"kind"`
	Flags             []string         `json:"flags,omitempty" yaml:"flags,omitempty"`
	TypeParameters    []string         `json:"type_parameters,omitempty" yaml:"type_parameters,omitempty"`
	Super             string           `json:"super,omitempty" yaml:"super,omitempty"`
	Interfaces        []string         `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Nesting           string           `json:"nesting" yaml:"nesting"`
	SimpleName        string           `json:"simple_name,omitempty" yaml:"simple_name,omitempty"`
	EnclosingClass    string           `json:"enclosing_class,omitempty" yaml:"enclosing_class,omitempty"`
	EnclosingMethod   string           `json:"enclosing_method,omitempty" yaml:"enclosing_method,omitempty"`
	NoArgsConstructor bool             `json:"no_args_constructor" yaml:"no_args_constructor"`
	Annotations       []AnnotationView `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Fields            []FieldView      `json:"fields,omitempty" yaml:"fields,omitempty"`
	Methods           []MethodView     `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// FieldView describes one field.
type FieldView struct {
	Name        string           `json:"name" yaml:"name"`
	Type        string           `json:"type" yaml:"type"`
	Flags       []string         `json:"flags,omitempty" yaml:"flags,omitempty"`
	Annotations []AnnotationView `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// ParameterView describes one descriptor parameter.
type ParameterView struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Type      string `json:"type" yaml:"type"`
	Synthetic bool   `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
	Mandated  bool   `json:"mandated,omitempty" yaml:"mandated,omitempty"`
}

// MethodView describes one method or constructor.
type MethodView struct {
	Name           string           `json:"name" yaml:"name"`
	TypeParameters []string         `json:"type_parameters,omitempty" yaml:"type_parameters,omitempty"`
	Returns        string           `json:"returns" yaml:"returns"`
	Parameters     []ParameterView  `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Throws         []string         `json:"throws,omitempty" yaml:"throws,omitempty"`
	Flags          []string         `json:"flags,omitempty" yaml:"flags,omitempty"`
	Default        string           `json:"default,omitempty" yaml:"default,omitempty"`
	Annotations    []AnnotationView `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// AnnotationView describes one annotation use.
type AnnotationView struct {
	Name    string      `json:"name" yaml:"name"`
	Target  string      `json:"target,omitempty" yaml:"target,omitempty"`
	Kind    string      `json:"kind,omitempty" yaml:"kind,omitempty"`
	Visible bool        `json:"visible" yaml:"visible"`
	Values  []ValueView `json:"values,omitempty" yaml:"values,omitempty"`
}

// ValueView is an annotation element rendered as source text.
type ValueView struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// IndexView is a whole index, the shape written by WriteYAML.
type IndexView struct {
	Classes []ClassView         `json:"classes" yaml:"classes"`
	Users   map[string][]string `json:"users,omitempty" yaml:"users,omitempty"`
}

// Kind names the sort of type a class record declares.
func Kind(ci *symtab.ClassInfo) string {
	switch {
	case ci.IsAnnotation():
		return "annotation"
	case ci.IsInterface():
		return "interface"
	case ci.IsEnum():
		return "enum"
	default:
		return "class"
	}
}

// Summary returns the short form of ci.
func Summary(ci *symtab.ClassInfo) ClassSummary {
	return ClassSummary{Name: ci.Name.String(), Kind: Kind(ci), Super: typeString(ci.Super)}
}

// Summaries maps Summary over list.
func Summaries(list []*symtab.ClassInfo) []ClassSummary {
	out := make([]ClassSummary, len(list))
	for i, ci := range list {
		out[i] = Summary(ci)
	}
	return out
}

// Class returns the full view of ci.
func Class(ci *symtab.ClassInfo) ClassView {
	v := ClassView{
		Name:              ci.Name.String(),
		Kind:              Kind(ci),
		Flags:             ClassFlags(ci.Flags),
		TypeParameters:    typeParameters(ci.TypeParameters),
		Super:             typeString(ci.Super),
		Interfaces:        typeStrings(ci.Interfaces),
		Nesting:           ci.Nesting.String(),
		SimpleName:        ci.SimpleName,
		EnclosingClass:    ci.EnclosingClass.String(),
		NoArgsConstructor: ci.NoArgsConstructor,
		Annotations:       Annotations(ci.Annotations),
	}
	if em := ci.EnclosingMethod; em != nil {
		v.EnclosingMethod = em.Class.String() + "." + em.Name + "(" + strings.Join(typeStrings(em.Parameters), ", ") + ")"
	}
	for _, f := range ci.Fields {
		v.Fields = append(v.Fields, FieldView{
			Name:        f.Name,
			Type:        typeString(f.Type),
			Flags:       MemberFlags(f.Flags, false),
			Annotations: Annotations(f.Annotations),
		})
	}
	for _, m := range ci.Methods {
		v.Methods = append(v.Methods, Method(m))
	}
	return v
}

// Method returns the view of m.
func Method(m *symtab.MethodInfo) MethodView {
	v := MethodView{
		Name:           m.Name,
		TypeParameters: typeParameters(m.TypeParameters),
		Returns:        typeString(m.ReturnType),
		Throws:         typeStrings(m.Exceptions),
		Flags:          MemberFlags(m.Flags, true),
		Annotations:    Annotations(m.Annotations),
	}
	for _, p := range m.Params {
		v.Parameters = append(v.Parameters, ParameterView{
			Name:      p.Name,
			Type:      typeString(p.Type),
			Synthetic: p.Flags.Has(symtab.AccSynthetic),
			Mandated:  p.Flags.Has(symtab.AccMandated),
		})
	}
	if m.DefaultValue != nil {
		v.Default = symtab.FormatValue(m.DefaultValue.Value)
	}
	return v
}

// Annotation returns the view of a.
func Annotation(a *symtab.AnnotationInstance) AnnotationView {
	v := AnnotationView{Name: a.Name.String(), Visible: a.Visible}
	if a.Target != nil {
		v.Target = a.Target.String()
		v.Kind = a.Target.Kind().String()
	}
	for _, val := range a.Values {
		v.Values = append(v.Values, ValueView{Name: val.Name, Value: symtab.FormatValue(val.Value)})
	}
	return v
}

// Annotations maps Annotation over list.
func Annotations(list []*symtab.AnnotationInstance) []AnnotationView {
	if len(list) == 0 {
		return nil
	}
	out := make([]AnnotationView, len(list))
	for i, a := range list {
		out[i] = Annotation(a)
	}
	return out
}

// Index returns the view of a whole index.
func Index(idx *indexer.Index) IndexView {
	classes := idx.KnownClasses()
	v := IndexView{Classes: make([]ClassView, len(classes))}
	for i, ci := range classes {
		v.Classes[i] = Class(ci)
	}
	for _, key := range idx.UserNames() {
		if v.Users == nil {
			v.Users = make(map[string][]string)
		}
		for _, u := range idx.KnownUsers(key) {
			v.Users[key.String()] = append(v.Users[key.String()], u.Name.String())
		}
	}
	return v
}

// WriteYAML dumps idx as YAML.
func WriteYAML(w io.Writer, idx *indexer.Index) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Index(idx)); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return nil
}

// Diff returns a unified diff between the YAML dumps of a and b. It is
// empty when the indexes render identically.
func Diff(aName string, a *indexer.Index, bName string, b *indexer.Index) (string, error) {
	var da, db bytes.Buffer
	if err := WriteYAML(&da, a); err != nil {
		return "", err
	}
	if err := WriteYAML(&db, b); err != nil {
		return "", err
	}
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(da.String()),
		B:        difflib.SplitLines(db.String()),
		FromFile: aName,
		ToFile:   bName,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("diffing %s and %s: %w", aName, bName, err)
	}
	return out, nil
}

func typeString(t symtab.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func typeStrings(list []symtab.Type) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = typeString(t)
	}
	return out
}

// typeParameters renders declarations such as "T extends java.lang.Number".
func typeParameters(list []symtab.Type) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, t := range list {
		tv, ok := t.(symtab.TypeVariable)
		if !ok || len(tv.Bounds) == 0 || isObject(tv.Bounds) {
			out[i] = typeString(t)
			continue
		}
		out[i] = tv.Identifier + " extends " + strings.Join(typeStrings(tv.Bounds), " & ")
	}
	return out
}

var objectName = dotname.Simple("java.lang.Object")

func isObject(bounds []symtab.Type) bool {
	ct, ok := bounds[0].(symtab.ClassType)
	return len(bounds) == 1 && ok && ct.Name.Equal(objectName)
}
