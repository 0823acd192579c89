package classfile

import (
	"github.com/tender-barbarian/class-lens/internal/dotname"
	"github.com/tender-barbarian/class-lens/internal/symtab"
)

// Hook observes a parse without changing it. Embed NopHook to implement
// only the callbacks you need.
type Hook interface {
	// StartClass is called before a class file is read.
	StartClass()
	// ShouldHandleClassPoolTag opts constant-pool entries with this tag into
	// HandleConstantPoolEntry. It is asked once per tag per class.
	ShouldHandleClassPoolTag(tag Tag) bool
	// HandleConstantPoolEntry receives the raw payload (after the tag byte)
	// of an opted-in entry. raw must not be retained past the call.
	HandleConstantPoolEntry(pos int, tag Tag, raw []byte)
	// AddClassInfo is called once per successfully parsed class.
	AddClassInfo(name dotname.Name, super symtab.Type, flags symtab.AccessFlags, interfaces []symtab.Type)
	// EndClass is called after the class file has been read, successfully or not.
	EndClass()
}

// NopHook implements Hook with no-ops.
type NopHook struct{}

func (NopHook) StartClass()                              {}
func (NopHook) ShouldHandleClassPoolTag(Tag) bool { return false }
func (NopHook) HandleConstantPoolEntry(int, Tag, []byte) {}
func (NopHook) EndClass()                                {}

func (NopHook) AddClassInfo(dotname.Name, symtab.Type, symtab.AccessFlags, []symtab.Type) {}
