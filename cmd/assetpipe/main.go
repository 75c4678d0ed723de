package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/assetpipe/internal/logger"
)

func main() {
	app := &cli.Command{
		Name:  "assetpipe",
		Usage: "Load 3D models and zip bundles of models with their side-files",
		Flags: append(loggingFlags(), configFlag()),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := LoadConfig(resolveConfigPath(configFile))
			if err != nil {
				return ctx, err
			}
			applyRootConfig(cmd, cfg)
			settings = cfg

			level := logLevel
			if debug {
				level = "debug"
			}
			return logger.WithContext(ctx, logger.FromFlags(level, logFormat, os.Stderr)), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			loadCmd(),
			inspectCmd(),
			serveCmd(),
			versionCmd(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.Run(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
