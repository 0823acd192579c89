// Package scan feeds class files from directories and jar archives into an
// indexer.
package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/mholt/archives"

	"github.com/tender-barbarian/class-lens/internal/indexer"
)

// ErrUnsupportedInput is returned for a path that is neither a directory,
// a class file nor a zip-based archive.
var ErrUnsupportedInput = errors.New("classlens: unsupported input")

var archiveExts = map[string]bool{".jar": true, ".zip": true, ".war": true}

// Options controls a scan.
type Options struct {
	// Recursive descends into subdirectories.
	Recursive bool
	// FailFast stops at the first file that cannot be read or parsed.
	// Otherwise failures are collected and returned after the walk.
	FailFast bool
	// Logger receives debug messages per file. Nil discards them.
	Logger *slog.Logger
}

// Stats summarizes a scan.
type Stats struct {
	Classes  int    // class files indexed
	Archives int    // archives opened, nested ones included
	Failed   int    // inputs that failed
	Bytes    uint64 // class-file bytes read
}

type scanner struct {
	ix    *indexer.Indexer
	opts  Options
	log   *slog.Logger
	stats Stats
	errs  *multierror.Error
}

// Paths indexes every class file reachable from paths. Directories are
// visited in lexical order so the same tree always yields the same index.
func Paths(ctx context.Context, ix *indexer.Indexer, paths []string, opts Options) (Stats, error) {
	s := &scanner{ix: ix, opts: opts, log: opts.Logger}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	for _, p := range paths {
		if err := s.path(ctx, p); err != nil {
			return s.stats, err
		}
	}
	if err := s.errs.ErrorOrNil(); err != nil {
		return s.stats, err
	}
	return s.stats, nil
}

// stopError carries the failure that ended a fail-fast scan up through
// archive callbacks without counting it again.
type stopError struct{ err error }

func (e *stopError) Error() string { return e.err.Error() }
func (e *stopError) Unwrap() error { return e.err }

// fail records a per-input failure. It returns a non-nil error when the
// scan must stop.
func (s *scanner) fail(err error) error {
	var stop *stopError
	if errors.As(err, &stop) {
		return err
	}
	s.stats.Failed++
	if s.opts.FailFast {
		return &stopError{err: err}
	}
	s.log.Debug("skipping input", "error", err)
	s.errs = multierror.Append(s.errs, err)
	return nil
}

func (s *scanner) path(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st, err := os.Stat(p)
	if err != nil {
		return s.fail(fmt.Errorf("reading input: %w", err))
	}
	if st.IsDir() {
		return s.dir(ctx, p)
	}
	return s.file(ctx, p, true)
}

func (s *scanner) dir(ctx context.Context, dir string) error {
	if !s.opts.Recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return s.fail(fmt.Errorf("reading directory: %w", err))
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			if err := s.file(ctx, filepath.Join(dir, e.Name()), false); err != nil {
				return err
			}
		}
		return nil
	}

	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return s.fail(fmt.Errorf("walking %s: %w", p, err))
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		return s.file(ctx, p, false)
	})
}

// file indexes one class file or archive. Other files found while walking
// a directory are ignored; named explicitly they are an error.
func (s *scanner) file(ctx context.Context, p string, explicit bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(p))
	switch {
	case ext == ".class":
		if err := s.classFile(ctx, p); err != nil {
			return s.fail(err)
		}
	case archiveExts[ext]:
		if err := s.archive(ctx, p); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return s.fail(err)
		}
	case explicit:
		return s.fail(fmt.Errorf("%s: %w", p, ErrUnsupportedInput))
	}
	return nil
}

func (s *scanner) classFile(ctx context.Context, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("opening class file: %w", err)
	}
	defer f.Close()
	return s.class(ctx, p, f)
}

func (s *scanner) class(ctx context.Context, name string, r io.Reader) error {
	counted := &countingReader{r: r}
	ci, err := s.ix.Index(counted)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	s.stats.Classes++
	s.stats.Bytes += counted.n
	s.log.DebugContext(ctx, "indexed class", "class", ci.Name.String(), "source", name, "size", humanize.Bytes(counted.n))
	return nil
}

func (s *scanner) archive(ctx context.Context, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()
	return s.extract(ctx, p, f)
}

// extract indexes the class entries of a zip-based archive. Jars nested in
// the archive, such as WEB-INF/lib in a war, are opened in memory.
func (s *scanner) extract(ctx context.Context, name string, r io.Reader) error {
	s.stats.Archives++
	s.log.DebugContext(ctx, "opening archive", "archive", name)
	err := archives.Zip{}.Extract(ctx, r, func(ctx context.Context, info archives.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		entry := name + "!/" + info.NameInArchive
		ext := strings.ToLower(path.Ext(info.NameInArchive))
		if ext != ".class" && !archiveExts[ext] {
			return nil
		}

		f, err := info.Open()
		if err != nil {
			return s.fail(fmt.Errorf("%s: %w", entry, err))
		}
		defer f.Close()

		if ext == ".class" {
			if err := s.class(ctx, entry, f); err != nil {
				return s.fail(err)
			}
			return nil
		}
		data, err := io.ReadAll(f)
		if err != nil {
			return s.fail(fmt.Errorf("%s: %w", entry, err))
		}
		if err := s.extract(ctx, entry, bytes.NewReader(data)); err != nil {
			return s.fail(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n uint64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += uint64(n)
	return n, err
}
