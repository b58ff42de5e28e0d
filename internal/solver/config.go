package solver

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alexiusacademia/timbertrace/internal/qp"
)

// ContactMode selects how contacts enter the problem.
type ContactMode int

const (
	// Soft contacts add a penalized violation per component, so the problem
	// stays feasible for over-determined structures.
	Soft ContactMode = iota
	// Hard contacts are equalities.
	Hard
)

func (m ContactMode) String() string {
	if m == Hard {
		return "hard"
	}
	return "soft"
}

// ParseMode parses "soft" or "hard".
func ParseMode(s string) (ContactMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "soft", "":
		return Soft, nil
	case "hard":
		return Hard, nil
	}
	return Soft, fmt.Errorf("unknown contact mode %q (valid: soft, hard)", s)
}

// Config holds the objective weights and backend settings.
type Config struct {
	Mode ContactMode

	// Weight of squared deviation per position unknown.
	PositionWeight float64
	// Weight per morphology unknown; large so beams move before they resize.
	MorphologyWeight float64
	// Weight per soft contact violation component. The residual gap shrinks
	// roughly as 1/ViolationWeight but very large values degrade the
	// conditioning of the problem.
	ViolationWeight float64
	// Proximal weight pulling slack unknowns toward zero, which makes the
	// objective strictly convex.
	SlackWeight float64

	QP     qp.Settings
	Logger zerolog.Logger
}

// DefaultConfig returns soft contacts with weights 1, 1e3, 1e7 and 1e-6.
func DefaultConfig() Config {
	return Config{
		Mode:             Soft,
		PositionWeight:   1,
		MorphologyWeight: 1000,
		ViolationWeight:  1e7,
		SlackWeight:      1e-6,
		QP:               qp.DefaultSettings(),
		Logger:           zerolog.Nop(),
	}
}

func (c Config) validate() error {
	for _, w := range []struct {
		name string
		v    float64
	}{
		{"position weight", c.PositionWeight},
		{"morphology weight", c.MorphologyWeight},
		{"violation weight", c.ViolationWeight},
		{"slack weight", c.SlackWeight},
	} {
		if !(w.v > 0) {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrConfiguration, w.name, w.v)
		}
	}
	return nil
}
