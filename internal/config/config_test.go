package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexiusacademia/timbertrace/internal/solver"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "pfettendach", cfg.Blueprint)
	assert.Equal(t, 5, cfg.Options.RafterPairs)
	assert.Equal(t, "soft", cfg.Solver.Mode)
	assert.True(t, cfg.Export.STL)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
blueprint: post_and_beam
scenes: 25
output_dir: out/posts
perturbation: 0.1
seed_offset: 1000
species: oak
timeout: 30s
options:
  jitter: 0
solver:
  mode: hard
  violation_weight: 1e5
  qp:
    max_iterations: 80
export:
  stl: false
  diagram: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "post_and_beam", cfg.Blueprint)
	assert.Equal(t, 25, cfg.Scenes)
	assert.Equal(t, "out/posts", cfg.OutputDir)
	assert.Equal(t, 0.1, cfg.Perturbation)
	assert.Equal(t, int64(1000), cfg.SeedOffset)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Zero(t, cfg.Options.Jitter)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 5, cfg.Options.RafterPairs)
	assert.Equal(t, 1000.0, cfg.Solver.MorphologyWeight)
	assert.Equal(t, 1e-9, cfg.Solver.QP.Tolerance)
	assert.False(t, cfg.Export.STL)
	assert.True(t, cfg.Export.Diagram)

	sc, err := cfg.SolverConfig(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, solver.Hard, sc.Mode)
	assert.Equal(t, 1e5, sc.ViolationWeight)
	assert.Equal(t, 80, sc.QP.MaxIterations)
}

func TestParse_EmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse([]byte("scenes: 3\nsceens: 4\n"))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		field string
		edit  func(*Config)
	}{
		{"unknown blueprint", "blueprint", func(c *Config) { c.Blueprint = "walmdach" }},
		{"no rafters", "blueprint", func(c *Config) { c.Options.RafterPairs = 0 }},
		{"no scenes", "scenes", func(c *Config) { c.Scenes = 0 }},
		{"no output", "output_dir", func(c *Config) { c.OutputDir = "" }},
		{"perturbation", "perturbation", func(c *Config) { c.Perturbation = 0.8 }},
		{"jitter", "options.jitter", func(c *Config) { c.Options.Jitter = -1 }},
		{"timeout", "timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"species", "species", func(c *Config) { c.Species = "balsa" }},
		{"mode", "solver.mode", func(c *Config) { c.Solver.Mode = "rigid" }},
		{"weight", "solver.slack_weight", func(c *Config) { c.Solver.SlackWeight = 0 }},
		{"iterations", "solver.qp.max_iterations", func(c *Config) { c.Solver.QP.MaxIterations = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.edit(&cfg)
			err := cfg.Validate()
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Timeout = 90 * time.Second
	cfg.Species = "PINE"

	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "blueprint: pfettendach")

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
