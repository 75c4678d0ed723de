package main

import (
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/assetpipe/internal/handle"
	"github.com/samcharles93/assetpipe/internal/manifest"
	"github.com/samcharles93/assetpipe/pkg/bundle"
)

var (
	logLevel   string
	logFormat  string
	debug      bool
	configFile string

	maxEntryBytes   int64
	maxArchiveBytes int64
	handlePrefix    string
	concurrency     int64

	// settings is the config file loaded by the root Before hook.
	settings Config
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Usage:       "path to config.yaml (default: $" + envConfigPath + " or the user config dir)",
		Destination: &configFile,
	}
}

func loaderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "max-entry-bytes",
			Usage:       "largest uncompressed container entry (0 disables)",
			Value:       bundle.DefaultMaxEntrySize,
			Destination: &maxEntryBytes,
		},
		&cli.Int64Flag{
			Name:        "max-archive-bytes",
			Usage:       "largest total uncompressed container size (0 disables)",
			Value:       bundle.DefaultMaxTotalSize,
			Destination: &maxArchiveBytes,
		},
		&cli.StringFlag{
			Name:        "handle-prefix",
			Usage:       "prefix of handle tokens written into rewritten manifests",
			Value:       handle.DefaultPrefix,
			Destination: &handlePrefix,
		},
		&cli.Int64Flag{
			Name:        "concurrency",
			Usage:       "parallel side-file extractions per load",
			Value:       manifest.DefaultConcurrency,
			Destination: &concurrency,
		},
	}
}
