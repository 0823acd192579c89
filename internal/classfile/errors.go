package classfile

import "errors"

var (
	// ErrInvalidInput is returned for a nil or empty source or a missing class-file header.
	ErrInvalidInput = errors.New("classlens: invalid class file input")
	// ErrMalformedClass is returned for truncated or inconsistent class files,
	// including descriptor and signature grammar violations.
	ErrMalformedClass = errors.New("classlens: malformed class file")
)
