package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/assetpipe/internal/api"
	"github.com/samcharles93/assetpipe/internal/loader"
	"github.com/samcharles93/assetpipe/internal/logger"
)

func inspectCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "inspect",
		Usage:     "List a file's container entries and references without loading it",
		ArgsUsage: "<file>",
		Flags: append(loaderFlags(),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the report as JSON",
				Destination: &asJSON,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyLoaderConfig(cmd, settings)
			w := cmd.Root().Writer

			f, release, err := readInput(cmd.Args().First())
			if err != nil {
				return err
			}
			defer release()

			_, ld := newPipeline(logger.FromContext(ctx))
			rep, err := ld.Inspect(f)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(api.NewInspectView(rep), "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(w, "%s\n", data)
				return err
			}
			printReport(w, rep)
			return nil
		},
	}
}

func printReport(w io.Writer, rep *loader.Report) {
	_, _ = fmt.Fprintf(w, "file:       %s\n", rep.Name)
	_, _ = fmt.Fprintf(w, "kind:       %s\n", rep.Kind)
	_, _ = fmt.Fprintf(w, "primary:    %s (%s)\n", rep.Primary, rep.PrimaryKind)
	if len(rep.Entries) > 0 {
		_, _ = fmt.Fprintf(w, "entries:    %d\n", len(rep.Entries))
		for _, e := range rep.Entries {
			if e.Dir {
				continue
			}
			_, _ = fmt.Fprintf(w, "  %10d  %s\n", e.Size, e.Path)
		}
	}
	if len(rep.References) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "references: %d\n", len(rep.References))
	for _, r := range rep.References {
		target := r.Path
		if !r.Resolved() {
			target = "(missing)"
		}
		_, _ = fmt.Fprintf(w, "  %-12s %s -> %s\n", r.Rule, r.Value, target)
	}
}
