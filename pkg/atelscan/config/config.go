// Package config loads service configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/astrocat/atelscan/pkg/atelscan/internalerr"
)

// Duration wraps time.Duration so YAML values like "20s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%w: bad duration %q", internalerr.ErrInvalidConfig, raw)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds everything the service needs at startup.
type Config struct {
	// BindAddr is the HTTP listen address.
	BindAddr string `yaml:"bind_addr"`
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`
	// SourceBaseURL is the bulletin source root; report pages live at
	// <base>?read=<num>.
	SourceBaseURL string `yaml:"source_base_url"`
	// FetchTimeout bounds one document download, including render time.
	FetchTimeout Duration `yaml:"fetch_timeout"`
	// RateLimit is the maximum download rate in requests per second.
	RateLimit float64 `yaml:"rate_limit"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		BindAddr:      "0.0.0.0:8080",
		DBPath:        "atelscan.db",
		SourceBaseURL: "https://www.astronomerstelegram.org/",
		FetchTimeout:  Duration(20 * time.Second),
		RateLimit:     1,
		LogLevel:      "info",
	}
}

// Load reads a YAML config file over the defaults and validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot run
// with.
func (c Config) Validate() error {
	if c.BindAddr == "" {
		return fmt.Errorf("%w: bind_addr is required", internalerr.ErrInvalidConfig)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path is required", internalerr.ErrInvalidConfig)
	}
	if c.SourceBaseURL == "" {
		return fmt.Errorf("%w: source_base_url is required", internalerr.ErrInvalidConfig)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: fetch_timeout must be positive", internalerr.ErrInvalidConfig)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("%w: rate_limit must be positive", internalerr.ErrInvalidConfig)
	}
	return nil
}
