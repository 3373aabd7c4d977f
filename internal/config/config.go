// Package config loads the virt CLI settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	Filename = "config.yaml"

	// DefaultEscape is Ctrl-], the usual console escape.
	DefaultEscape = "^]"
)

// Config is ~/.config/virt/config.yaml.
type Config struct {
	Version  int    `yaml:"version"`
	URI      string `yaml:"uri,omitempty"`
	ReadOnly bool   `yaml:"readOnly,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`

	Console ConsoleConfig `yaml:"console"`
}

type ConsoleConfig struct {
	Escape string `yaml:"escape,omitempty"`
	Force  bool   `yaml:"force,omitempty"`
}

func (c *Config) normalize() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Console.Escape == "" {
		c.Console.Escape = DefaultEscape
	}
}

// Default returns the settings used when no file exists.
func Default() Config {
	var c Config
	c.normalize()
	return c
}

// Dir returns the directory holding the config file.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, "virt"), nil
}

// DefaultPath is Dir joined with Filename.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, Filename), nil
}

// Load reads path. A missing file yields Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	c.normalize()
	if _, err := c.EscapeByte(); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if _, err := c.Level(); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// Save writes c to path, creating the parent directory.
func Save(path string, c Config) error {
	c.normalize()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(&c); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// EscapeByte decodes the console escape. It accepts caret notation ("^]")
// or a single character.
func (c Config) EscapeByte() (byte, error) {
	s := c.Console.Escape
	switch {
	case len(s) == 2 && s[0] == '^':
		ch := s[1]
		if ch == '?' {
			return 0x7f, nil
		}
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		if ch < '@' || ch > '_' {
			return 0, fmt.Errorf("invalid console escape %q", s)
		}
		return ch - '@', nil
	case len(s) == 1:
		return s[0], nil
	default:
		return 0, fmt.Errorf("invalid console escape %q", s)
	}
}

// Level maps LogLevel to a slog level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
