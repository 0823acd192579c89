package indexer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tender-barbarian/class-lens/internal/classfile"
	"github.com/tender-barbarian/class-lens/internal/dotname"
	"github.com/tender-barbarian/class-lens/internal/symtab"
)

var (
	// ErrIllegalQuery is returned when a bulk entry point is given a path
	// that is empty, missing or not a directory.
	ErrIllegalQuery = errors.New("classlens: illegal query")
	// ErrCompleted is returned by Index after Complete has been called.
	ErrCompleted = errors.New("classlens: indexer already completed")
)

// Option configures an Indexer.
type Option func(*Indexer)

// WithHook observes every parse made by the indexer.
func WithHook(h classfile.Hook) Option {
	return func(ix *Indexer) { ix.hook = h }
}

// Indexer accumulates class records from many parses. It must be confined
// to one goroutine; call Complete to obtain the immutable Index.
type Indexer struct {
	table   *dotname.Table
	hook    classfile.Hook
	parser  *classfile.Parser
	classes map[string]*symtab.ClassInfo
	refs    map[string][]dotname.Name // class -> names it uses
	done    bool
}

// New creates an empty Indexer.
func New(opts ...Option) *Indexer {
	ix := &Indexer{
		table:   dotname.NewTable(),
		classes: make(map[string]*symtab.ClassInfo),
		refs:    make(map[string][]dotname.Name),
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.parser = classfile.NewParser(ix.table, ix.hook)
	return ix
}

// Index parses one class file and adds it. A class with the same name as
// an earlier one replaces it, references included. r is not closed.
func (ix *Indexer) Index(r io.Reader) (*symtab.ClassInfo, error) {
	if ix.done {
		return nil, ErrCompleted
	}
	res, err := ix.parser.Parse(r)
	if err != nil {
		return nil, err
	}
	key := res.Class.Name.String()
	ix.classes[key] = res.Class
	ix.refs[key] = res.References
	return res.Class, nil
}

// IndexFile opens path and indexes it.
func (ix *Indexer) IndexFile(path string) (*symtab.ClassInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening class file: %w", err)
	}
	defer f.Close()
	ci, err := ix.Index(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ci, nil
}

// Len returns the number of distinct classes indexed so far.
func (ix *Indexer) Len() int { return len(ix.classes) }

// Complete derives the reverse maps and returns the finished Index. The
// indexer accepts no further input afterwards.
func (ix *Indexer) Complete() *Index {
	ix.done = true
	classes := make([]*symtab.ClassInfo, 0, len(ix.classes))
	for _, ci := range ix.classes {
		classes = append(classes, ci)
	}
	users := make(map[string][]dotname.Name)
	for class, refs := range ix.refs {
		user := ix.classes[class].Name
		for _, ref := range refs {
			users[ref.String()] = append(users[ref.String()], user)
		}
	}
	return NewIndex(ix.table, classes, users)
}

// OfDirectory indexes the *.class files directly inside dir. Subdirectories
// are not visited.
func OfDirectory(dir string) (*Index, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty directory path: %w", ErrIllegalQuery)
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", dir, ErrIllegalQuery, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", dir, ErrIllegalQuery)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	ix := New()
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), ".class") {
			continue
		}
		if _, err := ix.IndexFile(filepath.Join(dir, e.Name())); err != nil {
			return nil, err
		}
	}
	return ix.Complete(), nil
}

// OfReaders indexes each reader in turn.
func OfReaders(readers ...io.Reader) (*Index, error) {
	ix := New()
	for i, r := range readers {
		if r == nil {
			return nil, fmt.Errorf("reader %d is nil: %w", i, classfile.ErrInvalidInput)
		}
		if _, err := ix.Index(r); err != nil {
			return nil, fmt.Errorf("reader %d: %w", i, err)
		}
	}
	return ix.Complete(), nil
}
