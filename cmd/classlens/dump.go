package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tender-barbarian/class-lens/internal/report"
)

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "print an index file as YAML or JSON",
		ArgsUsage: "<index>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "yaml", Usage: "yaml or json"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("dump takes one index file, got %d arguments", c.NArg())
			}
			if _, _, err := setup(c); err != nil {
				return err
			}
			idx, err := readIndex(c.Args().First())
			if err != nil {
				return err
			}
			switch c.String("format") {
			case "yaml":
				return report.WriteYAML(c.App.Writer, idx)
			case "json":
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(report.Index(idx))
			}
			return fmt.Errorf("unknown format %q", c.String("format"))
		},
	}
}

func diffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "compare two index files; exits 1 when they differ",
		ArgsUsage: "<old> <new>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("diff takes two index files, got %d arguments", c.NArg())
			}
			if _, _, err := setup(c); err != nil {
				return err
			}
			aName, bName := c.Args().Get(0), c.Args().Get(1)
			a, err := readIndex(aName)
			if err != nil {
				return err
			}
			b, err := readIndex(bName)
			if err != nil {
				return err
			}
			out, err := report.Diff(aName, a, bName, b)
			if err != nil {
				return err
			}
			if out == "" {
				return nil
			}
			fmt.Fprint(c.App.Writer, out)
			return errDiffers
		},
	}
}
