package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v2"

	"github.com/tender-barbarian/class-lens/internal/config"
	"github.com/tender-barbarian/class-lens/internal/finder"
	"github.com/tender-barbarian/class-lens/internal/indexer"
	"github.com/tender-barbarian/class-lens/internal/scan"
	"github.com/tender-barbarian/class-lens/internal/tools"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve index queries over MCP on stdin/stdout",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "index", Usage: "index file to load (default: the configured output)"},
			&cli.StringSliceFlag{Name: "root", Usage: "index these paths at startup instead of loading a file"},
			&cli.StringFlag{Name: "notes", Usage: "file backing the note tools"},
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := setup(c)
			if err != nil {
				return err
			}
			if c.IsSet("notes") {
				cfg.Notes = c.String("notes")
			}
			idx, err := loadServeIndex(c, cfg, log)
			if err != nil {
				return err
			}

			var notes *tools.NoteStore
			if cfg.Notes != "" {
				notes = tools.NewNoteStore(cfg.Notes)
			}
			s := server.NewMCPServer("classlens", version)
			tools.Register(s, finder.New(idx), notes)

			log.InfoContext(c.Context, "index ready", "classes", idx.Len())
			if err := server.ServeStdio(s); err != nil {
				return fmt.Errorf("serving MCP: %w", err)
			}
			return nil
		},
	}
}

// loadServeIndex scans --root paths when given and otherwise reads the
// --index file, falling back to the configured output.
func loadServeIndex(c *cli.Context, cfg *config.Config, log *slog.Logger) (*indexer.Index, error) {
	roots := c.StringSlice("root")
	if len(roots) > 0 && c.IsSet("index") {
		return nil, errors.New("--index and --root are mutually exclusive")
	}
	if len(roots) == 0 {
		path := cfg.Output
		if c.IsSet("index") {
			path = c.String("index")
		}
		log.InfoContext(c.Context, "loading index", "path", path)
		return readIndex(path)
	}

	log.InfoContext(c.Context, "indexing", "roots", roots)
	ix := indexer.New()
	if _, err := scan.Paths(c.Context, ix, roots, scan.Options{
		Recursive: true,
		FailFast:  cfg.FailFast,
		Logger:    log,
	}); err != nil {
		if cfg.FailFast {
			return nil, err
		}
		log.WarnContext(c.Context, "some inputs were skipped", "err", err)
	}
	return ix.Complete(), nil
}
