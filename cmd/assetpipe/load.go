package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/assetpipe/internal/api"
	"github.com/samcharles93/assetpipe/internal/loader"
	"github.com/samcharles93/assetpipe/internal/logger"
	"github.com/samcharles93/assetpipe/internal/scene"
)

func loadCmd() *cli.Command {
	var (
		asJSON bool
		stages bool
	)

	return &cli.Command{
		Name:      "load",
		Usage:     "Load a model or zip bundle and print its scene tree",
		ArgsUsage: "<file>",
		Flags: append(loaderFlags(),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the scene as JSON",
				Destination: &asJSON,
			},
			&cli.BoolFlag{
				Name:        "stages",
				Usage:       "print each pipeline stage as it is entered",
				Destination: &stages,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyLoaderConfig(cmd, settings)
			log := logger.FromContext(ctx)
			w := cmd.Root().Writer

			f, release, err := readInput(cmd.Args().First())
			if err != nil {
				return err
			}
			defer release()

			var opts []loader.Option
			if stages {
				opts = append(opts, loader.WithObserver(func(file string, s loader.Stage) {
					_, _ = fmt.Fprintf(cmd.Root().ErrWriter, "stage: %s\n", s)
				}))
			}
			_, ld := newPipeline(log, opts...)
			defer ld.Close()

			start := time.Now()
			sc, err := ld.Load(ctx, f)
			if err != nil {
				return err
			}
			defer sc.Release()
			log.Debug("load finished", "file", f.Name, "elapsed", time.Since(start).String())

			if asJSON {
				data, err := json.MarshalIndent(api.NewSceneView(sc, start), "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(w, "%s\n", data)
				return err
			}
			printScene(w, sc)
			return nil
		},
	}
}

func printScene(w io.Writer, sc *scene.Scene) {
	_, _ = fmt.Fprintf(w, "scene:      %s\n", sc.Name)
	_, _ = fmt.Fprintf(w, "kind:       %s\n", sc.Kind)
	if sc.Path != "" {
		_, _ = fmt.Fprintf(w, "primary:    %s\n", sc.Path)
	}
	_, _ = fmt.Fprintf(w, "handles:    %d\n", len(sc.Tokens()))
	for _, e := range sc.Table.Entries() {
		_, _ = fmt.Fprintf(w, "  %-12s %s -> %s (%d bytes)\n", e.Rule, e.Reference, e.Path, e.Size)
	}
	for _, ref := range sc.Unresolved {
		_, _ = fmt.Fprintf(w, "  %-12s %s (unresolved)\n", ref.Rule, ref.Value)
	}
	if sc.Root != nil {
		_, _ = fmt.Fprintln(w)
		printTree(w, sc.Root)
	}
}

// printTree writes one line per node, indented by depth, with attributes in
// key order.
func printTree(w io.Writer, root *scene.Node) {
	root.Walk(func(depth int, n *scene.Node) bool {
		var b strings.Builder
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(n.Type)
		b.WriteString(" ")
		b.WriteString(n.Name)
		if len(n.Attrs) > 0 {
			keys := make([]string, 0, len(n.Attrs))
			for k := range n.Attrs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, " %s=%s", k, n.Attrs[k])
			}
		}
		_, _ = fmt.Fprintln(w, b.String())
		return true
	})
}
