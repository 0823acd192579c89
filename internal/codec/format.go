// Package codec persists an Index in a compact, versioned binary form.
//
// A stream is a 4-byte magic, a version byte, the name table, the class
// records and, from version 10, the user table. Integers are unsigned
// varints and strings are length-prefixed UTF-8. Every field added after
// version 2 is listed in the features table below; the writer omits it and
// the reader defaults it when the stream version predates it.
package codec

import "errors"

const (
	// MinVersion is the oldest version that can be read or written.
	MinVersion = 2
	// CurrentVersion is written by Writer.Write.
	CurrentVersion = 10

	magic uint32 = 0x0C1A55E5
)

var (
	ErrBadMagic           = errors.New("classlens: not an index stream")
	ErrUnsupportedVersion = errors.New("classlens: unsupported index version")
	ErrCorrupt            = errors.New("classlens: corrupt index stream")
)

// feature names a part of the format that did not exist in every version.
type feature uint8

const (
	featNoArgs feature = iota
	featMemberAnnotations
	featDefaults
	featNesting
	featGenerics
	featLocalWithoutMethod
	featUsers
)

var since = map[feature]int{
	featNoArgs:             3,
	featMemberAnnotations:  4, // field, method and parameter annotations plus parameter names
	featDefaults:           5,
	featNesting:            6, // nesting, simple name, enclosing class and method
	featGenerics:           7,
	featLocalWithoutMethod: 9,
	featUsers:              10,
}

// has reports whether version v carries f.
func has(v int, f feature) bool { return v >= since[f] }

func supported(v int) bool { return v >= MinVersion && v <= CurrentVersion }

// Type tags.
const (
	tagVoid byte = iota
	tagPrimitive
	tagClass
	tagArray
	tagParameterized
	tagTypeVariable
	tagWildcard
	tagUnresolved
	tagNone
)

// Annotation target tags inside a method record.
const (
	targetMethod byte = iota
	targetParameter
)

// maxDepth bounds nesting of types and annotation values in a stream.
const maxDepth = 128
