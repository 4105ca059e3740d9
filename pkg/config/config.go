// Package config loads geodealer.yaml.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/geodealer/pkg/location"
)

// FileName is the configuration file looked up by the CLI.
const FileName = "geodealer.yaml"

// SupportedVersion is the newest schema version this build understands.
const SupportedVersion = "v1.0.0"

// Config represents the optional geodealer.yaml configuration.
type Config struct {
	Version  string         `yaml:"version,omitempty"`
	Accuracy string         `yaml:"accuracy,omitempty"`
	Platform PlatformConfig `yaml:"platform"`
	Log      LogConfig      `yaml:"log"`
	NATS     NATSConfig     `yaml:"nats"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// PlatformConfig selects the provider variant used by the simulator.
type PlatformConfig struct {
	OneShotFix     bool `yaml:"oneShotFix"`
	ExplicitPrompt bool `yaml:"explicitPrompt"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string `yaml:"level,omitempty"`
	Format  string `yaml:"format,omitempty"`
	Verbose bool   `yaml:"verbose"`
}

// NATSConfig configures the NATS relay. An empty URL disables it.
type NATSConfig struct {
	URL           string `yaml:"url,omitempty"`
	SubjectPrefix string `yaml:"subjectPrefix,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version:  SupportedVersion,
		Accuracy: location.DefaultAccuracy.String(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		NATS: NATSConfig{SubjectPrefix: "geodealer"},
	}
}

// LoadOptional reads path if present. A missing file yields Default.
func LoadOptional(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document over the defaults and validates it.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the schema version and the enumerated fields.
func (c *Config) Validate() error {
	version := strings.TrimSpace(c.Version)
	if version == "" {
		version = SupportedVersion
	}
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	if !semver.IsValid(version) {
		return fmt.Errorf("invalid config version %q", c.Version)
	}
	if semver.Compare(version, SupportedVersion) > 0 {
		return fmt.Errorf("config version %s is newer than supported %s", version, SupportedVersion)
	}
	c.Version = version

	if _, err := c.DefaultAccuracy(); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", c.Log.Format)
	}
	return nil
}

// DefaultAccuracy resolves the accuracy field.
func (c *Config) DefaultAccuracy() (location.Accuracy, error) {
	a, ok := location.ParseAccuracy(c.Accuracy)
	if !ok {
		return location.AccuracyDefault, fmt.Errorf("unknown accuracy %q", c.Accuracy)
	}
	if a == location.AccuracyDefault {
		a = location.DefaultAccuracy
	}
	return a, nil
}

// Capabilities returns the provider variant selected by the platform section.
func (c *Config) Capabilities() location.Capabilities {
	return location.Capabilities{
		OneShotFix:     c.Platform.OneShotFix,
		ExplicitPrompt: c.Platform.ExplicitPrompt,
	}
}

// NewLogger builds a logger from the log section.
func (c *Config) NewLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	if level, err := logrus.ParseLevel(c.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
