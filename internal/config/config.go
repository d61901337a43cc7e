// Package config holds compiler settings read from falafel.yaml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

// FileName is looked up in the working directory when no file is given.
const FileName = "falafel.yaml"

type WarningMode string

const (
	WarningsReport WarningMode = "report"
	WarningsError  WarningMode = "error"
	WarningsIgnore WarningMode = "ignore"
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

type Config struct {
	// Output is the generated file path; "-" writes to stdout.
	Output   string      `yaml:"output"`
	Warnings WarningMode `yaml:"warnings"`
	Color    ColorMode   `yaml:"color"`
	Verbose  bool        `yaml:"verbose"`

	// Path is the file the settings came from, empty for defaults.
	Path string `yaml:"-"`
}

func Default() *Config {
	return &Config{
		Output:   "-",
		Warnings: WarningsReport,
		Color:    ColorAuto,
	}
}

// Load reads settings from path. An empty path means FileName in the
// working directory, and a missing default file yields the defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	f, err := os.Open(path)
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	cfg.Path = path
	return cfg, nil
}

// Decode reads YAML settings over the defaults. Unknown keys are errors.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from FALAFEL_WARNINGS, FALAFEL_COLOR and
// FALAFEL_VERBOSE. NO_COLOR turns colour off whatever else is set.
func (c *Config) ApplyEnv() error {
	env.Load()

	if v := env.Str("FALAFEL_WARNINGS"); v != "" {
		c.Warnings = WarningMode(v)
	}
	if v := env.Str("FALAFEL_COLOR"); v != "" {
		c.Color = ColorMode(v)
	}
	if env.Has("FALAFEL_VERBOSE") {
		c.Verbose = env.Bool("FALAFEL_VERBOSE")
	}
	if env.Has("NO_COLOR") {
		c.Color = ColorNever
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	switch c.Warnings {
	case WarningsReport, WarningsError, WarningsIgnore:
	default:
		return fmt.Errorf("warnings: unknown mode %q (want report, error or ignore)", c.Warnings)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color: unknown mode %q (want auto, always or never)", c.Color)
	}
	if c.Output == "" {
		return errors.New("output: must not be empty (use - for stdout)")
	}
	return nil
}
