package classfile

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"
)

// Tag identifies the kind of a constant-pool entry.
type Tag uint8

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

// payloadSize returns the fixed payload size of a tag, or -1 for Utf8
// (length-prefixed) and unknown tags.
func payloadSize(t Tag) int {
	switch t {
	case TagInteger, TagFloat, TagFieldref, TagMethodref, TagInterfaceMethodref,
		TagNameAndType, TagDynamic, TagInvokeDynamic:
		return 4
	case TagLong, TagDouble:
		return 8
	case TagClass, TagString, TagMethodType, TagModule, TagPackage:
		return 2
	case TagMethodHandle:
		return 3
	}
	return -1
}

// constantPool records every entry's tag and payload offset in one pass.
// Entries are decoded on demand, so an entry may refer to one that appears
// later in the pool.
type constantPool struct {
	data    []byte
	tags    []Tag
	offsets []int
	strings map[int]string
}

func readConstantPool(c *cursor, hook Hook) (*constantPool, error) {
	count := int(c.u2())
	if c.err != nil {
		return nil, c.err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: constant pool count is zero", ErrMalformedClass)
	}
	cp := &constantPool{
		data:    c.data,
		tags:    make([]Tag, count),
		offsets: make([]int, count),
		strings: make(map[int]string),
	}
	handled := make(map[Tag]bool)
	for i := 1; i < count; i++ {
		tag := Tag(c.u1())
		if c.err != nil {
			return nil, c.err
		}
		start := c.pos
		size := payloadSize(tag)
		switch {
		case tag == TagUtf8:
			size = 2 + int(c.u2())
			c.pos = start
		case size < 0:
			return nil, fmt.Errorf("%w: unknown constant pool tag %d at entry %d", ErrMalformedClass, tag, i)
		}
		raw := c.bytes(size)
		if c.err != nil {
			return nil, fmt.Errorf("constant pool entry %d: %w", i, c.err)
		}
		cp.tags[i] = tag
		cp.offsets[i] = start

		want, seen := handled[tag]
		if !seen {
			want = hook.ShouldHandleClassPoolTag(tag)
			handled[tag] = want
		}
		if want {
			hook.HandleConstantPoolEntry(i, tag, raw)
		}

		if tag == TagLong || tag == TagDouble {
			i++
		}
	}
	return cp, nil
}

func (cp *constantPool) count() int { return len(cp.tags) }

func (cp *constantPool) entry(i int, want Tag) (int, error) {
	if i <= 0 || i >= len(cp.tags) {
		return 0, fmt.Errorf("%w: constant pool index %d out of range [1,%d)", ErrMalformedClass, i, len(cp.tags))
	}
	if cp.tags[i] != want {
		return 0, fmt.Errorf("%w: constant pool entry %d has tag %d, want %d", ErrMalformedClass, i, cp.tags[i], want)
	}
	return cp.offsets[i], nil
}

func (cp *constantPool) u2At(off int) int {
	return int(binary.BigEndian.Uint16(cp.data[off:]))
}

func (cp *constantPool) utf8(i int) (string, error) {
	if s, ok := cp.strings[i]; ok {
		return s, nil
	}
	off, err := cp.entry(i, TagUtf8)
	if err != nil {
		return "", err
	}
	n := cp.u2At(off)
	s, err := decodeModifiedUTF8(cp.data[off+2 : off+2+n])
	if err != nil {
		return "", fmt.Errorf("constant pool entry %d: %w", i, err)
	}
	cp.strings[i] = s
	return s, nil
}

// className returns the internal-form name of a Class entry.
func (cp *constantPool) className(i int) (string, error) {
	off, err := cp.entry(i, TagClass)
	if err != nil {
		return "", err
	}
	return cp.utf8(cp.u2At(off))
}

func (cp *constantPool) nameAndType(i int) (name, desc string, err error) {
	off, err := cp.entry(i, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = cp.utf8(cp.u2At(off)); err != nil {
		return "", "", err
	}
	if desc, err = cp.utf8(cp.u2At(off + 2)); err != nil {
		return "", "", err
	}
	return name, desc, nil
}

// memberRef returns the class entry index and member name of a field,
// method or interface method reference.
func (cp *constantPool) memberRef(i int) (classIndex int, name string, err error) {
	if i <= 0 || i >= len(cp.tags) {
		return 0, "", fmt.Errorf("%w: constant pool index %d out of range", ErrMalformedClass, i)
	}
	off := cp.offsets[i]
	classIndex = cp.u2At(off)
	name, _, err = cp.nameAndType(cp.u2At(off + 2))
	return classIndex, name, err
}

func (cp *constantPool) integer(i int) (int32, error) {
	off, err := cp.entry(i, TagInteger)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(cp.data[off:])), nil
}

func (cp *constantPool) float(i int) (float32, error) {
	off, err := cp.entry(i, TagFloat)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(cp.data[off:])), nil
}

func (cp *constantPool) long(i int) (int64, error) {
	off, err := cp.entry(i, TagLong)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(cp.data[off:])), nil
}

func (cp *constantPool) double(i int) (float64, error) {
	off, err := cp.entry(i, TagDouble)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(cp.data[off:])), nil
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8: NUL is encoded in
// two bytes and supplementary characters as surrogate pairs.
func decodeModifiedUTF8(b []byte) (string, error) {
	ascii := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b), nil
	}
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == 0:
			return "", fmt.Errorf("%w: raw NUL in modified UTF-8", ErrMalformedClass)
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", fmt.Errorf("%w: bad modified UTF-8 sequence", ErrMalformedClass)
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", fmt.Errorf("%w: bad modified UTF-8 sequence", ErrMalformedClass)
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", fmt.Errorf("%w: bad modified UTF-8 lead byte 0x%02x", ErrMalformedClass, c)
		}
	}
	return string(utf16.Decode(units)), nil
}
