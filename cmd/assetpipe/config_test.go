package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"
)

func TestResolveConfigPath(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(envConfigPath, "/from/env.yaml")
		if got := resolveConfigPath(" /from/flag.yaml "); got != "/from/flag.yaml" {
			t.Fatalf("unexpected path: got %q", got)
		}
	})

	t.Run("env overrides user config dir", func(t *testing.T) {
		t.Setenv(envConfigPath, "/from/env.yaml")
		if got := resolveConfigPath(""); got != "/from/env.yaml" {
			t.Fatalf("unexpected path: got %q", got)
		}
	})

	t.Run("user config dir", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(envConfigPath, "")
		t.Setenv("XDG_CONFIG_HOME", dir)
		t.Setenv("HOME", dir)
		want := configPath()
		if want == "" {
			t.Skip("no user config dir on this platform")
		}
		got := resolveConfigPath("")
		if got != want {
			t.Fatalf("unexpected path: got %q want %q", got, want)
		}
		if filepath.Base(filepath.Dir(got)) != "assetpipe" {
			t.Fatalf("expected config under an assetpipe directory, got %q", got)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file is empty config", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("LoadConfig returned error: %v", err)
		}
		if cfg.ServerAddress != "" || cfg.MaxUploadBytes != nil {
			t.Fatalf("expected zero config, got %+v", cfg)
		}
	})

	t.Run("parses fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := "log_level: debug\nserver_address: 0.0.0.0:9000\nmax_upload_bytes: 1024\nloads_per_second: 2.5\nhandle_prefix: \"h:\"\n"
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig returned error: %v", err)
		}
		if cfg.LogLevel != "debug" || cfg.ServerAddress != "0.0.0.0:9000" || cfg.HandlePrefix != "h:" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.MaxUploadBytes == nil || *cfg.MaxUploadBytes != 1024 {
			t.Fatalf("unexpected max_upload_bytes: %v", cfg.MaxUploadBytes)
		}
		if cfg.LoadsPerSecond == nil || *cfg.LoadsPerSecond != 2.5 {
			t.Fatalf("unexpected loads_per_second: %v", cfg.LoadsPerSecond)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("server_address: [unterminated"), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("expected parse error")
		}
	})
}

func TestApplyServeConfig(t *testing.T) {
	upload := int64(2048)
	burst := int64(9)
	cfg := Config{
		ServerAddress:  "0.0.0.0:9000",
		MaxUploadBytes: &upload,
		LoadBurst:      &burst,
	}

	run := func(t *testing.T, args ...string) serveOptions {
		t.Helper()
		opts := serveOptions{addr: "127.0.0.1:8080", maxUploadBytes: 1, loadBurst: 1}
		cmd := &cli.Command{
			Name: "serve",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "addr", Destination: &opts.addr, Value: opts.addr},
				&cli.Int64Flag{Name: "max-upload-bytes", Destination: &opts.maxUploadBytes, Value: opts.maxUploadBytes},
				&cli.Float64Flag{Name: "loads-per-second", Destination: &opts.loadsPerSecond},
				&cli.Int64Flag{Name: "load-burst", Destination: &opts.loadBurst, Value: opts.loadBurst},
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				applyServeConfig(c, cfg, &opts)
				return nil
			},
		}
		if err := cmd.Run(context.Background(), append([]string{"serve"}, args...)); err != nil {
			t.Fatalf("run: %v", err)
		}
		return opts
	}

	t.Run("config fills unset flags", func(t *testing.T) {
		opts := run(t)
		if opts.addr != "0.0.0.0:9000" || opts.maxUploadBytes != 2048 || opts.loadBurst != 9 {
			t.Fatalf("unexpected options: %+v", opts)
		}
		if opts.loadsPerSecond != 0 {
			t.Fatalf("loads-per-second should keep its default, got %v", opts.loadsPerSecond)
		}
	})

	t.Run("explicit flags win", func(t *testing.T) {
		opts := run(t, "--addr", "localhost:1", "--load-burst", "3")
		if opts.addr != "localhost:1" || opts.loadBurst != 3 {
			t.Fatalf("unexpected options: %+v", opts)
		}
		if opts.maxUploadBytes != 2048 {
			t.Fatalf("max-upload-bytes should come from config, got %d", opts.maxUploadBytes)
		}
	})
}
