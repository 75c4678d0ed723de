package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envConfigPath = "ASSETPIPE_CONFIG"

// Config represents the assetpipe configuration file
// (~/.config/assetpipe/config.yaml). Numeric fields are pointers so we can
// distinguish "not set" from zero values.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Loader
	MaxEntryBytes   *int64 `yaml:"max_entry_bytes"`
	MaxArchiveBytes *int64 `yaml:"max_archive_bytes"`
	HandlePrefix    string `yaml:"handle_prefix"`
	Concurrency     *int64 `yaml:"concurrency"`

	// Server
	ServerAddress  string   `yaml:"server_address"`
	MaxUploadBytes *int64   `yaml:"max_upload_bytes"`
	LoadsPerSecond *float64 `yaml:"loads_per_second"`
	LoadBurst      *int64   `yaml:"load_burst"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "assetpipe", "config.yaml")
}

// resolveConfigPath picks the --config flag, then $ASSETPIPE_CONFIG, then
// the user config dir.
func resolveConfigPath(flag string) string {
	if p := strings.TrimSpace(flag); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(envConfigPath)); p != "" {
		return p
	}
	return configPath()
}

// LoadConfig reads the config file at path. A missing file yields a zero
// Config; a file that does not parse is an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyRootConfig applies config file defaults to the global flags when
// the corresponding CLI flag was not explicitly set.
func applyRootConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyLoaderConfig applies config file defaults to the loader flags.
func applyLoaderConfig(c *cli.Command, cfg Config) {
	if cfg.MaxEntryBytes != nil && !c.IsSet("max-entry-bytes") {
		maxEntryBytes = *cfg.MaxEntryBytes
	}
	if cfg.MaxArchiveBytes != nil && !c.IsSet("max-archive-bytes") {
		maxArchiveBytes = *cfg.MaxArchiveBytes
	}
	if cfg.HandlePrefix != "" && !c.IsSet("handle-prefix") {
		handlePrefix = cfg.HandlePrefix
	}
	if cfg.Concurrency != nil && !c.IsSet("concurrency") {
		concurrency = *cfg.Concurrency
	}
}

type serveOptions struct {
	addr           string
	maxUploadBytes int64
	loadsPerSecond float64
	loadBurst      int64
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, opts *serveOptions) {
	applyLoaderConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		opts.addr = cfg.ServerAddress
	}
	if cfg.MaxUploadBytes != nil && !c.IsSet("max-upload-bytes") {
		opts.maxUploadBytes = *cfg.MaxUploadBytes
	}
	if cfg.LoadsPerSecond != nil && !c.IsSet("loads-per-second") {
		opts.loadsPerSecond = *cfg.LoadsPerSecond
	}
	if cfg.LoadBurst != nil && !c.IsSet("load-burst") {
		opts.loadBurst = *cfg.LoadBurst
	}
}
