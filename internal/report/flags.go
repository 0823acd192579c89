package report

import "github.com/tender-barbarian/class-lens/internal/symtab"

type flagName struct {
	flag symtab.AccessFlags
	name string
}

var classFlagNames = []flagName{
	{symtab.AccPublic, "public"},
	{symtab.AccPrivate, "private"},
	{symtab.AccProtected, "protected"},
	{symtab.AccStatic, "static"},
	{symtab.AccFinal, "final"},
	{symtab.AccInterface, "interface"},
	{symtab.AccAbstract, "abstract"},
	{symtab.AccSynthetic, "synthetic"},
	{symtab.AccAnnotation, "annotation"},
	{symtab.AccEnum, "enum"},
}

var fieldFlagNames = []flagName{
	{symtab.AccPublic, "public"},
	{symtab.AccPrivate, "private"},
	{symtab.AccProtected, "protected"},
	{symtab.AccStatic, "static"},
	{symtab.AccFinal, "final"},
	{symtab.AccVolatile, "volatile"},
	{symtab.AccTransient, "transient"},
	{symtab.AccSynthetic, "synthetic"},
	{symtab.AccEnum, "enum"},
}

var methodFlagNames = []flagName{
	{symtab.AccPublic, "public"},
	{symtab.AccPrivate, "private"},
	{symtab.AccProtected, "protected"},
	{symtab.AccStatic, "static"},
	{symtab.AccFinal, "final"},
	{symtab.AccSynchronized, "synchronized"},
	{symtab.AccBridge, "bridge"},
	{symtab.AccVarargs, "varargs"},
	{symtab.AccNative, "native"},
	{symtab.AccAbstract, "abstract"},
	{symtab.AccStrict, "strict"},
	{symtab.AccSynthetic, "synthetic"},
}

// ClassFlags names the flags set on a class. ACC_SUPER is left out.
func ClassFlags(f symtab.AccessFlags) []string { return names(f, classFlagNames) }

// MemberFlags names the flags set on a field or method. Several bits mean
// different things on the two, hence the switch.
func MemberFlags(f symtab.AccessFlags, method bool) []string {
	if method {
		return names(f, methodFlagNames)
	}
	return names(f, fieldFlagNames)
}

func names(f symtab.AccessFlags, table []flagName) []string {
	var out []string
	for _, fn := range table {
		if f.Has(fn.flag) {
			out = append(out, fn.name)
		}
	}
	return out
}
