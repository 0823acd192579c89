// Command classlens indexes JVM class files and archives, persists the
// index in a compact binary format, and serves queries over it through
// an MCP stdio server.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/tender-barbarian/class-lens/internal/config"
)

const version = "0.1.0"

// errDiffers makes the diff command exit with status 1 without a message.
var errDiffers = errors.New("indexes differ")

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		if !errors.Is(err, errDiffers) {
			fmt.Fprintf(os.Stderr, "classlens: %s\n", err)
		}
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "classlens",
		Usage:     "index JVM classes and query the index",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file",
				Value:   config.DefaultFile,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			indexCommand(),
			dumpCommand(),
			diffCommand(),
			serveCommand(),
		},
	}
}

// setup loads the config and builds the logger shared by all commands.
// An explicit --config must exist; the default file is optional.
func setup(c *cli.Context) (*config.Config, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if c.IsSet("config") {
		cfg, err = config.Load(c.String("config"))
	} else {
		cfg, err = config.LoadOrDefault(c.String("config"))
	}
	if err != nil {
		return nil, nil, err
	}
	if c.IsSet("log-level") {
		if _, err := config.ParseLevel(c.String("log-level")); err != nil {
			return nil, nil, err
		}
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, newLogger(c.App.ErrWriter, cfg.Level()), nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}))
}
