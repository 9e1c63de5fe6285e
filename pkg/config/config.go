// Package config loads the YAML configuration used by the enod tools.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/dd0wney/enod/pkg/backup"
	"github.com/dd0wney/enod/pkg/logging"
	"github.com/dd0wney/enod/pkg/metrics"
	"github.com/dd0wney/enod/pkg/record"
	"github.com/dd0wney/enod/pkg/tsdb"
	"github.com/dd0wney/enod/pkg/validation"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable holding the default config file.
const EnvPath = "ENOD_CONFIG"

// Config is the tool configuration file.
type Config struct {
	DataFile       string       `yaml:"data_file" validate:"required"`
	LogLevel       string       `yaml:"log_level" validate:"oneof=debug info warn error"`
	Sync           string       `yaml:"sync" validate:"oneof=always none"`
	ScanBufferSize int          `yaml:"scan_buffer_size" validate:"gte=9"`
	VerifyOnOpen   bool         `yaml:"verify_on_open"`
	Metrics        bool         `yaml:"metrics"`
	Backup         BackupConfig `yaml:"backup"`
}

// BackupConfig locates the snapshot object store.
type BackupConfig struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint" validate:"omitempty,url"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// Default returns the configuration used for unset fields.
func Default() Config {
	return Config{
		LogLevel:       "info",
		Sync:           string(tsdb.SyncAlways),
		ScanBufferSize: tsdb.DefaultScanBufferSize,
	}
}

// Load reads and validates the file at path. An empty path falls back to
// $ENOD_CONFIG; with neither set the defaults are returned unvalidated, so
// callers can fill DataFile from flags.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct tags and the constraints tags cannot express.
func (c Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	return validation.NewConfigValidator("config").
		MultipleOf("scan_buffer_size", c.ScanBufferSize, record.Size).
		Validate()
}

// Logger builds a JSON logger on w at the configured level.
func (c Config) Logger(w io.Writer) logging.Logger {
	return logging.NewJSONLogger(w, logging.ParseLevel(c.LogLevel))
}

// TSDBOptions translates the configuration into engine options.
func (c Config) TSDBOptions(logger logging.Logger) []tsdb.Option {
	opts := []tsdb.Option{
		tsdb.WithLogger(logger),
		tsdb.WithSync(tsdb.SyncMode(c.Sync)),
		tsdb.WithScanBufferSize(c.ScanBufferSize),
		tsdb.WithVerifyOnOpen(c.VerifyOnOpen),
	}
	if c.Metrics {
		opts = append(opts, tsdb.WithMetrics(metrics.DefaultRegistry()))
	}
	return opts
}

// S3Config returns the snapshot store settings. Credentials come from the
// default AWS chain.
func (c Config) S3Config() backup.S3Config {
	return backup.S3Config{
		Bucket:       c.Backup.Bucket,
		Prefix:       c.Backup.Prefix,
		Region:       c.Backup.Region,
		Endpoint:     c.Backup.Endpoint,
		UsePathStyle: c.Backup.UsePathStyle,
	}
}
