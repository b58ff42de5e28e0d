// Package config loads dataset generation settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/alexiusacademia/timbertrace/internal/blueprint"
	"github.com/alexiusacademia/timbertrace/internal/qp"
	"github.com/alexiusacademia/timbertrace/internal/solver"
	"github.com/alexiusacademia/timbertrace/internal/timber"
)

// Config describes one dataset generation run.
type Config struct {
	Blueprint    string            `yaml:"blueprint"`
	Options      blueprint.Options `yaml:"options"`
	Scenes       int               `yaml:"scenes"`
	OutputDir    string            `yaml:"output_dir"`
	Perturbation float64           `yaml:"perturbation"` // fraction of each bound
	SeedOffset   int64             `yaml:"seed_offset"`
	Species      string            `yaml:"species"`
	Timeout      time.Duration     `yaml:"timeout"` // per scene, 0 disables
	Solver       Solver            `yaml:"solver"`
	Export       Export            `yaml:"export"`
}

// Solver mirrors solver.Config in YAML form.
type Solver struct {
	Mode             string      `yaml:"mode"` // soft or hard
	PositionWeight   float64     `yaml:"position_weight"`
	MorphologyWeight float64     `yaml:"morphology_weight"`
	ViolationWeight  float64     `yaml:"violation_weight"`
	SlackWeight      float64     `yaml:"slack_weight"`
	QP               qp.Settings `yaml:"qp"`
}

// Export selects the per scene artifacts besides metadata.json.
type Export struct {
	STL     bool `yaml:"stl"`
	Diagram bool `yaml:"diagram"`
}

// Default returns 10 pfettendach scenes in ./training_data with 5%
// perturbation and soft contacts.
func Default() Config {
	s := solver.DefaultConfig()
	return Config{
		Blueprint:    "pfettendach",
		Options:      blueprint.DefaultOptions(),
		Scenes:       10,
		OutputDir:    "training_data",
		Perturbation: 0.05,
		Species:      string(timber.Default),
		Solver: Solver{
			Mode:             s.Mode.String(),
			PositionWeight:   s.PositionWeight,
			MorphologyWeight: s.MorphologyWeight,
			ViolationWeight:  s.ViolationWeight,
			SlackWeight:      s.SlackWeight,
			QP:               s.QP,
		},
		Export: Export{STL: true},
	}
}

// Load reads a YAML file on top of the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	if _, err := blueprint.New(c.Blueprint, c.Options); err != nil {
		return &ValidationError{Field: "blueprint", msg: err.Error()}
	}
	if c.Scenes < 1 {
		return &ValidationError{Field: "scenes", msg: fmt.Sprintf("must be at least 1, got %d", c.Scenes)}
	}
	if c.OutputDir == "" {
		return &ValidationError{Field: "output_dir", msg: "must not be empty"}
	}
	if c.Perturbation < 0 || c.Perturbation > 0.5 {
		return &ValidationError{Field: "perturbation", msg: fmt.Sprintf("must be within [0, 0.5], got %g", c.Perturbation)}
	}
	if c.Options.Jitter < 0 {
		return &ValidationError{Field: "options.jitter", msg: "must not be negative"}
	}
	if c.Timeout < 0 {
		return &ValidationError{Field: "timeout", msg: "must not be negative"}
	}
	if _, err := timber.Parse(c.Species); err != nil {
		return &ValidationError{Field: "species", msg: err.Error()}
	}
	if _, err := solver.ParseMode(c.Solver.Mode); err != nil {
		return &ValidationError{Field: "solver.mode", msg: err.Error()}
	}
	for _, w := range []struct {
		field string
		v     float64
	}{
		{"solver.position_weight", c.Solver.PositionWeight},
		{"solver.morphology_weight", c.Solver.MorphologyWeight},
		{"solver.violation_weight", c.Solver.ViolationWeight},
		{"solver.slack_weight", c.Solver.SlackWeight},
	} {
		if !(w.v > 0) {
			return &ValidationError{Field: w.field, msg: fmt.Sprintf("must be positive, got %g", w.v)}
		}
	}
	if c.Solver.QP.MaxIterations < 0 {
		return &ValidationError{Field: "solver.qp.max_iterations", msg: "must not be negative"}
	}
	return nil
}

// SolverConfig converts the solver block. The configuration must be valid.
func (c Config) SolverConfig(logger zerolog.Logger) (solver.Config, error) {
	mode, err := solver.ParseMode(c.Solver.Mode)
	if err != nil {
		return solver.Config{}, err
	}
	return solver.Config{
		Mode:             mode,
		PositionWeight:   c.Solver.PositionWeight,
		MorphologyWeight: c.Solver.MorphologyWeight,
		ViolationWeight:  c.Solver.ViolationWeight,
		SlackWeight:      c.Solver.SlackWeight,
		QP:               c.Solver.QP,
		Logger:           logger,
	}, nil
}

// ValidationError names the offending configuration field.
type ValidationError struct {
	Field string
	msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.msg)
}
