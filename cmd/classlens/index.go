package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"

	"github.com/tender-barbarian/class-lens/internal/codec"
	"github.com/tender-barbarian/class-lens/internal/indexer"
	"github.com/tender-barbarian/class-lens/internal/scan"
)

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     "index class files, directories and archives into an index file",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "index file to write"},
			&cli.IntFlag{Name: "version", Usage: "index format version to write"},
			&cli.BoolFlag{Name: "recursive", Aliases: []string{"r"}, Usage: "walk directories recursively"},
			&cli.BoolFlag{Name: "fail-fast", Usage: "stop at the first unreadable input"},
		},
		Action: runIndex,
	}
}

func runIndex(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("version") {
		cfg.Version = c.Int("version")
	}
	if c.IsSet("recursive") {
		cfg.Recursive = c.Bool("recursive")
	}
	if c.IsSet("fail-fast") {
		cfg.FailFast = c.Bool("fail-fast")
	}
	paths := c.Args().Slice()
	if len(paths) == 0 {
		paths = cfg.Roots
	}
	if len(paths) == 0 {
		return errors.New("no input paths: pass them as arguments or set roots in the config file")
	}

	start := time.Now()
	ix := indexer.New()
	stats, err := scan.Paths(c.Context, ix, paths, scan.Options{
		Recursive: cfg.Recursive,
		FailFast:  cfg.FailFast,
		Logger:    log,
	})
	if err != nil {
		if cfg.FailFast {
			return err
		}
		var merr *multierror.Error
		if !errors.As(err, &merr) {
			return err
		}
		for _, e := range merr.Errors {
			log.WarnContext(c.Context, "skipped input", "err", e)
		}
	}

	idx := ix.Complete()
	n, err := writeIndex(cfg.Output, idx, cfg.Version)
	if err != nil {
		return err
	}
	log.InfoContext(c.Context, "wrote index",
		"path", cfg.Output,
		"version", cfg.Version,
		"classes", idx.Len(),
		"archives", stats.Archives,
		"failed", stats.Failed,
		"read", humanize.Bytes(stats.Bytes),
		"size", humanize.Bytes(uint64(n)),
		"took", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// writeIndex writes idx through a temporary file in the target directory
// so a failed write leaves any existing index in place.
func writeIndex(path string, idx *indexer.Index, version int) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".classlens-*")
	if err != nil {
		return 0, fmt.Errorf("creating index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := codec.NewWriter(tmp).WriteVersion(idx, version)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return n, nil
}

func readIndex(path string) (*indexer.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()
	idx, err := codec.NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return idx, nil
}
