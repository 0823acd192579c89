// Package config loads the optional classlens.yaml file that supplies
// defaults for the command-line tool.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tender-barbarian/class-lens/internal/codec"
)

// DefaultFile is the config file looked up in the working directory when
// no --config flag is given.
const DefaultFile = "classlens.yaml"

// Config represents a classlens.yaml file.
type Config struct {
	// Roots are the directories and archives indexed when no paths are
	// given on the command line.
	Roots []string `yaml:"roots,omitempty"`

	// Output is the index file written by "index" and read by "serve".
	// Defaults to "classlens.idx".
	Output string `yaml:"output,omitempty"`

	// Version is the index format version to write. Defaults to the
	// current version.
	Version int `yaml:"version,omitempty"`

	Recursive bool `yaml:"recursive,omitempty"`
	FailFast  bool `yaml:"fail_fast,omitempty"`

	// LogLevel is one of debug, info, warn or error. Defaults to info.
	LogLevel string `yaml:"log_level,omitempty"`

	// Notes is the file backing the MCP note tools. Empty disables them.
	Notes string `yaml:"notes,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse parses config content from bytes.
// The path argument is used only for error messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) validate(path string) error {
	if c.Version != 0 && (c.Version < codec.MinVersion || c.Version > codec.CurrentVersion) {
		return fmt.Errorf("%s: version %d out of range [%d, %d]", path, c.Version, codec.MinVersion, codec.CurrentVersion)
	}
	if c.LogLevel != "" {
		if _, err := ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	for i, r := range c.Roots {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("%s: roots[%d] is empty", path, i)
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Output == "" {
		c.Output = "classlens.idx"
	}
	if c.Version == 0 {
		c.Version = codec.CurrentVersion
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	l, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// ParseLevel maps a level name such as "debug" or "WARN" to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}
