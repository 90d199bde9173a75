// Package config loads ChronoGL settings from a YAML file with CHRONOGL_*
// environment overrides.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/willibrandon/ChronoGL/pkg/logging"
	"github.com/willibrandon/ChronoGL/pkg/recorder"
)

// EnvPrefix prefixes every environment override, e.g. CHRONOGL_CAPTURE_ENABLED
const EnvPrefix = "CHRONOGL"

// Config is the full application configuration
type Config struct {
	Capture CaptureConfig  `mapstructure:"capture" yaml:"capture"`
	Log     logging.Config `mapstructure:"log" yaml:"log"`
	Export  ExportConfig   `mapstructure:"export" yaml:"export"`
	Metrics MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

// CaptureConfig controls sessions and the files they write
type CaptureConfig struct {
	// Enabled starts new sessions Idle instead of Disabled.
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Compression string `mapstructure:"compression" yaml:"compression"` // none | zstd
	// Keys are hex encoded. An empty key leaves the feature off.
	IntegrityKey  string `mapstructure:"integrity_key" yaml:"integrity_key"`
	EncryptionKey string `mapstructure:"encryption_key" yaml:"encryption_key"`
	Output        string `mapstructure:"output" yaml:"output"`
}

// ExportConfig configures the live resource table export
type ExportConfig struct {
	SQLiteDSN string `mapstructure:"sqlite_dsn" yaml:"sqlite_dsn"`
}

// MetricsConfig toggles the Prometheus dump after a replay
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

var defaults = map[string]any{
	"capture.enabled":        true,
	"capture.compression":    "zstd",
	"capture.integrity_key":  "",
	"capture.encryption_key": "",
	"capture.output":         "frame.cglc",
	"log.level":              "info",
	"log.format":             "auto",
	"log.file":               "",
	"log.max_size_mb":        100,
	"log.max_backups":        3,
	"export.sqlite_dsn":      "",
	"metrics.enabled":        false,
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg, err := LoadConfig("")
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfig loads configPath on top of the defaults. An empty path loads the
// defaults and environment only.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks values viper cannot type check
func (c *Config) Validate() error {
	var errs []error
	if _, err := recorder.ParseCompression(c.Capture.Compression); err != nil {
		errs = append(errs, fmt.Errorf("capture.compression: %w", err))
	}
	if _, err := c.Capture.Security(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// Security returns the protection settings the keys describe
func (c CaptureConfig) Security() (recorder.SecurityOptions, error) {
	var opts []func(*recorder.SecurityOptions)
	if c.IntegrityKey != "" {
		key, err := hex.DecodeString(c.IntegrityKey)
		if err != nil {
			return recorder.SecurityOptions{}, fmt.Errorf("capture.integrity_key: %w", err)
		}
		opts = append(opts, recorder.WithIntegrityCheck(key))
	}
	if c.EncryptionKey != "" {
		key, err := hex.DecodeString(c.EncryptionKey)
		if err != nil {
			return recorder.SecurityOptions{}, fmt.Errorf("capture.encryption_key: %w", err)
		}
		switch len(key) {
		case 16, 24, 32:
		default:
			return recorder.SecurityOptions{}, fmt.Errorf("capture.encryption_key: %d bytes, want 16, 24 or 32", len(key))
		}
		opts = append(opts, recorder.WithEncryption(key))
	}
	return recorder.NewSecurityOptions(opts...), nil
}

// FileOptions returns the options capture files are written with
func (c CaptureConfig) FileOptions() (recorder.FileOptions, error) {
	compression, err := recorder.ParseCompression(c.Compression)
	if err != nil {
		return recorder.FileOptions{}, err
	}
	sec, err := c.Security()
	if err != nil {
		return recorder.FileOptions{}, err
	}
	return recorder.FileOptions{CompressionType: compression, Security: sec}, nil
}

// Redacted returns a copy with key material masked
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "<redacted>"
	}
	c.Capture.IntegrityKey = mask(c.Capture.IntegrityKey)
	c.Capture.EncryptionKey = mask(c.Capture.EncryptionKey)
	return c
}

// WriteYAML writes the configuration, keys redacted, in the file format
// LoadConfig reads.
func (c Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.Redacted()); err != nil {
		return err
	}
	return enc.Close()
}
