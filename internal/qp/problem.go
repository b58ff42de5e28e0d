// Package qp solves separable weighted least-distance problems
//
//	minimize   Σ w_i (x_i - c_i)²
//	subject to A x = b
//	           G x <= h
//
// with every weight w_i > 0. The objective is strictly convex, so the
// problem is either infeasible or has a unique minimizer.
package qp

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidProblem is returned for malformed problems.
var ErrInvalidProblem = errors.New("invalid problem")

// Status is the outcome of a solve.
type Status string

const (
	StatusOptimal        Status = "optimal"
	StatusInfeasible     Status = "infeasible"
	StatusMaxIterations  Status = "max_iterations"
	StatusNumericalError Status = "numerical_error"
)

// Row is a sparse linear constraint row.
type Row struct {
	Coef  map[int]float64
	RHS   float64
	Label string
}

func (r Row) dot(x []float64) float64 {
	var s float64
	for j, a := range r.Coef {
		s += a * x[j]
	}
	return s
}

func (r Row) norm() float64 {
	var s float64
	for _, a := range r.Coef {
		s += a * a
	}
	return math.Sqrt(s)
}

// Problem accumulates variables and constraints.
type Problem struct {
	Weights []float64
	Targets []float64
	Eq      []Row // A x = b
	Ineq    []Row // G x <= h
}

// NumVars returns the number of variables.
func (p *Problem) NumVars() int { return len(p.Weights) }

// AddVariable adds a variable pulled toward target with the given weight and
// returns its index.
func (p *Problem) AddVariable(weight, target float64) int {
	p.Weights = append(p.Weights, weight)
	p.Targets = append(p.Targets, target)
	return len(p.Weights) - 1
}

// AddEq adds Σ coef_j x_j = rhs.
func (p *Problem) AddEq(coef map[int]float64, rhs float64, label string) {
	p.Eq = append(p.Eq, Row{Coef: coef, RHS: rhs, Label: label})
}

// AddLE adds Σ coef_j x_j <= rhs.
func (p *Problem) AddLE(coef map[int]float64, rhs float64, label string) {
	p.Ineq = append(p.Ineq, Row{Coef: coef, RHS: rhs, Label: label})
}

// AddBounds adds lo <= x_i <= hi. Infinite sides are skipped and a
// degenerate interval becomes an equality.
func (p *Problem) AddBounds(i int, lo, hi float64, label string) {
	if !math.IsInf(lo, -1) && !math.IsInf(hi, 1) && hi-lo <= 1e-12*math.Max(1, math.Abs(lo)) {
		p.AddEq(map[int]float64{i: 1}, lo, label)
		return
	}
	if !math.IsInf(lo, -1) {
		p.AddLE(map[int]float64{i: -1}, -lo, label+" (min)")
	}
	if !math.IsInf(hi, 1) {
		p.AddLE(map[int]float64{i: 1}, hi, label+" (max)")
	}
}

// Objective evaluates Σ w_i (x_i - c_i)².
func (p *Problem) Objective(x []float64) float64 {
	var f float64
	for i, w := range p.Weights {
		d := x[i] - p.Targets[i]
		f += w * d * d
	}
	return f
}

// Violation reports the largest equality residual and the largest
// inequality excess of x.
func (p *Problem) Violation(x []float64) (eq, ineq float64) {
	for _, r := range p.Eq {
		eq = math.Max(eq, math.Abs(r.dot(x)-r.RHS))
	}
	for _, r := range p.Ineq {
		ineq = math.Max(ineq, r.dot(x)-r.RHS)
	}
	return eq, ineq
}

// Validate checks dimensions, weights and finiteness.
func (p *Problem) Validate() error {
	n := len(p.Weights)
	if len(p.Targets) != n {
		return fmt.Errorf("%w: %d weights but %d targets", ErrInvalidProblem, n, len(p.Targets))
	}
	for i, w := range p.Weights {
		if !(w > 0) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight of variable %d is %g", ErrInvalidProblem, i, w)
		}
		if !finite(p.Targets[i]) {
			return fmt.Errorf("%w: target of variable %d is %g", ErrInvalidProblem, i, p.Targets[i])
		}
	}
	check := func(kind string, rows []Row) error {
		for k, r := range rows {
			if !finite(r.RHS) {
				return fmt.Errorf("%w: %s row %d (%s) has rhs %g", ErrInvalidProblem, kind, k, r.Label, r.RHS)
			}
			for j, a := range r.Coef {
				if j < 0 || j >= n {
					return fmt.Errorf("%w: %s row %d (%s) references variable %d of %d", ErrInvalidProblem, kind, k, r.Label, j, n)
				}
				if !finite(a) {
					return fmt.Errorf("%w: %s row %d (%s) has coefficient %g", ErrInvalidProblem, kind, k, r.Label, a)
				}
			}
		}
		return nil
	}
	if err := check("equality", p.Eq); err != nil {
		return err
	}
	return check("inequality", p.Ineq)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Settings tunes the interior point method.
type Settings struct {
	// Tolerance on the scaled primal and dual residuals and the duality
	// measure.
	Tolerance float64 `yaml:"tolerance"`
	// FeasibilityTolerance decides whether the equality system is consistent
	// and whether an unconverged iterate is primal infeasible.
	FeasibilityTolerance float64 `yaml:"feasibility_tolerance"`
	MaxIterations        int     `yaml:"max_iterations"`
}

// DefaultSettings returns tolerances suited to metre-scale geometry.
func DefaultSettings() Settings {
	return Settings{
		Tolerance:            1e-9,
		FeasibilityTolerance: 1e-7,
		MaxIterations:        200,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.Tolerance <= 0 {
		s.Tolerance = d.Tolerance
	}
	if s.FeasibilityTolerance <= 0 {
		s.FeasibilityTolerance = d.FeasibilityTolerance
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = d.MaxIterations
	}
	return s
}

// Iteration records one interior point step.
type Iteration struct {
	Iter   int
	Mu     float64 // duality measure
	Primal float64 // ‖r_p‖∞
	Dual   float64 // ‖r_d‖∞
	Step   float64
}

// Solution is the result of Solve. X is set for every status except
// StatusInfeasible detected before iterating.
type Solution struct {
	X          []float64
	Status     Status
	Message    string
	Objective  float64
	Iterations int
	History    []Iteration
	// Rank of the equality system and dimension of the reduced problem.
	Rank    int
	Reduced int
}

// Mu returns the duality measure of each iteration, for charts.
func (s *Solution) Mu() []float64 {
	out := make([]float64, len(s.History))
	for i, it := range s.History {
		out[i] = it.Mu
	}
	return out
}
