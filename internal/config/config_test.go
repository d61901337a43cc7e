package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"falafel/internal/config"
)

func TestDecode(t *testing.T) {
	cfg, err := config.Decode(strings.NewReader("output: out.cpp\nwarnings: error\nverbose: true\n"))
	be.Err(t, err, nil)
	be.Equal(t, cfg.Output, "out.cpp")
	be.Equal(t, cfg.Warnings, config.WarningsError)
	be.Equal(t, cfg.Color, config.ColorAuto)
	be.True(t, cfg.Verbose)
}

func TestDecodeEmptyIsDefault(t *testing.T) {
	cfg, err := config.Decode(strings.NewReader(""))
	be.Err(t, err, nil)
	be.Equal(t, *cfg, *config.Default())
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		doc string
		msg string
	}{
		{"outptu: x.cpp\n", "field outptu not found"},
		{"warnings: loud\n", `warnings: unknown mode "loud"`},
		{"color: rainbow\n", `color: unknown mode "rainbow"`},
		{"output: \"\"\n", "output: must not be empty"},
	}
	for _, tt := range tests {
		_, err := config.Decode(strings.NewReader(tt.doc))
		be.Err(t, err, tt.msg)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	// No file in the working directory.
	cfg, err := config.Load("")
	be.Err(t, err, nil)
	be.Equal(t, cfg.Path, "")
	be.Equal(t, cfg.Output, "-")

	be.Err(t, os.WriteFile(config.FileName, []byte("color: never\n"), 0o644), nil)
	cfg, err = config.Load("")
	be.Err(t, err, nil)
	be.Equal(t, cfg.Color, config.ColorNever)
	be.Equal(t, filepath.Base(cfg.Path), config.FileName)

	// An explicit file must exist.
	_, err = config.Load(filepath.Join(dir, "other.yaml"))
	be.Err(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	be.Err(t, os.WriteFile(bad, []byte("warnings: 3\n"), 0o644), nil)
	_, err = config.Load(bad)
	be.Err(t, err, "bad.yaml")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FALAFEL_WARNINGS", "ignore")
	t.Setenv("FALAFEL_COLOR", "always")
	t.Setenv("FALAFEL_VERBOSE", "1")
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")

	cfg := config.Default()
	be.Err(t, cfg.ApplyEnv(), nil)
	be.Equal(t, cfg.Warnings, config.WarningsIgnore)
	be.Equal(t, cfg.Color, config.ColorAlways)
	be.True(t, cfg.Verbose)

	t.Setenv("NO_COLOR", "1")
	be.Err(t, cfg.ApplyEnv(), nil)
	be.Equal(t, cfg.Color, config.ColorNever)

	t.Setenv("FALAFEL_WARNINGS", "sometimes")
	be.Err(t, config.Default().ApplyEnv(), "warnings: unknown mode")
}
