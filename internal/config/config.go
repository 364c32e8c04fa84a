// Package config loads recorder settings from runtrace.toml or runtrace.yaml
// and the RUNTRACE_* environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"runtrace/internal/diag"
	"runtrace/internal/tracefile"
)

// Environment variables that override file settings.
const (
	EnvOutDir = "RUNTRACE_OUT_DIR"
	EnvFormat = "RUNTRACE_FORMAT"
	EnvDebug  = "RUNTRACE_DEBUG"
)

// FileNames are the config files searched for, in order.
var FileNames = []string{"runtrace.toml", "runtrace.yaml", "runtrace.yml"}

// Config holds recorder settings.
type Config struct {
	OutDir      string   `toml:"out_dir" yaml:"out_dir"`
	Format      string   `toml:"format" yaml:"format"`
	MaxDepth    int      `toml:"max_depth" yaml:"max_depth"`
	MaxElements int      `toml:"max_elements" yaml:"max_elements"`
	Ignore      []string `toml:"ignore" yaml:"ignore"`
	Diag        Diag     `toml:"diag" yaml:"diag"`
}

// Diag configures the recorder's self-diagnostics.
type Diag struct {
	Level  string `toml:"level" yaml:"level"`
	Output string `toml:"output" yaml:"output"`
	Format string `toml:"format" yaml:"format"`
	Mode   string `toml:"mode" yaml:"mode"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		OutDir:      "runtrace-out",
		Format:      "json",
		MaxDepth:    10,
		MaxElements: 5000,
		Diag: Diag{
			Level:  "off",
			Output: "-",
			Format: "text",
			Mode:   "stream",
		},
	}
}

// Load reads path over the defaults, applies the environment and
// validates. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		if path != "" {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
		}
		if meta.IsDefined("format") && strings.TrimSpace(cfg.Format) == "" {
			return fmt.Errorf("%s: format must not be empty", path)
		}
		return nil
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("%s: unsupported config format (expected .toml, .yaml or .yml)", path)
	}
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvOutDir)); v != "" {
		c.OutDir = v
	}
	if v := strings.TrimSpace(getenv(EnvFormat)); v != "" {
		c.Format = v
	}
	if v := strings.TrimSpace(getenv(EnvDebug)); v != "" {
		if on, err := strconv.ParseBool(v); err == nil && on {
			c.Diag.Level = diag.LevelDebug.String()
		}
	}
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OutDir) == "" {
		return errors.New("out_dir must not be empty")
	}
	if _, err := tracefile.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.MaxElements < 0 {
		return fmt.Errorf("max_elements must not be negative, got %d", c.MaxElements)
	}
	if _, err := c.DiagConfig(); err != nil {
		return err
	}
	return nil
}

// TraceFormat returns the parsed events format.
func (c Config) TraceFormat() (tracefile.Format, error) {
	return tracefile.ParseFormat(c.Format)
}

// DiagConfig translates the diag section for diag.New.
func (c Config) DiagConfig() (diag.Config, error) {
	level, err := diag.ParseLevel(c.Diag.Level)
	if err != nil {
		return diag.Config{}, err
	}
	format, err := diag.ParseFormat(c.Diag.Format)
	if err != nil {
		return diag.Config{}, err
	}
	mode := diag.ModeStream
	if c.Diag.Mode != "" {
		if mode, err = diag.ParseMode(c.Diag.Mode); err != nil {
			return diag.Config{}, err
		}
	}
	return diag.Config{Level: level, Mode: mode, Format: format, OutputPath: c.Diag.Output}, nil
}

// Find walks up from startDir looking for a config file.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}
