package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/assetpipe/internal/api"
	"github.com/samcharles93/assetpipe/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		opts        serveOptions
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the model loading REST API",
		Flags: append(loaderFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &opts.addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-upload-bytes",
				Usage:       "largest accepted upload",
				Value:       api.DefaultMaxUploadBytes,
				Destination: &opts.maxUploadBytes,
			},
			&cli.Float64Flag{
				Name:        "loads-per-second",
				Usage:       "admission rate for upload endpoints (0 disables)",
				Destination: &opts.loadsPerSecond,
			},
			&cli.Int64Flag{
				Name:        "load-burst",
				Usage:       "admission burst for upload endpoints",
				Value:       4,
				Destination: &opts.loadBurst,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyServeConfig(cmd, settings, &opts)
			log := logger.FromContext(ctx)

			store, ld := newPipeline(log)
			server := api.NewServer(api.Config{
				Loader:         ld,
				Blobs:          store,
				LoadsPerSecond: opts.loadsPerSecond,
				LoadBurst:      int(opts.loadBurst),
				MaxUploadBytes: opts.maxUploadBytes,
				Logger:         log,
			})
			defer func() {
				released := server.Close()
				log.Info("server stopped", "released_handles", released)
			}()

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", opts.addr)
			sc := echo.StartConfig{
				Address: opts.addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
