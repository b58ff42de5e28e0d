package expr

import (
	"errors"
	"fmt"
)

// Env is the evaluation environment of one formula.
//
// Values holds the beam's current parameter values. Vars maps parameter
// names to optimization unknowns; a parameter present in Vars is treated as
// an unknown, one absent from Vars is substituted by its value. Slacks maps
// slack tokens of a single locus evaluation to unknowns, SlackValues maps
// them to numbers.
type Env struct {
	Values      map[string]float64
	Vars        map[string]Var
	Slacks      map[string]Var
	SlackValues map[string]float64
}

// Evaluate evaluates e numerically.
func Evaluate(e Expr, env Env) (float64, error) {
	v, err := Interpret[float64](e, Numeric{}, func(name string) (float64, bool) {
		if v, ok := env.SlackValues[name]; ok {
			return v, true
		}
		v, ok := env.Values[name]
		return v, ok
	})
	return v, annotate(err, e)
}

// EvaluateLinear evaluates e into an affine expression over optimization
// unknowns.
func EvaluateLinear(e Expr, env Env) (Linear, error) {
	v, err := Interpret[Linear](e, Affine{}, func(name string) (Linear, bool) {
		if v, ok := env.Slacks[name]; ok {
			return Term(v), true
		}
		if v, ok := env.SlackValues[name]; ok {
			return Constant(v), true
		}
		if v, ok := env.Vars[name]; ok {
			return Term(v), true
		}
		v, ok := env.Values[name]
		return Constant(v), ok
	})
	return v, annotate(err, e)
}

func annotate(err error, e Expr) error {
	if err == nil {
		return nil
	}
	var unresolved *UnresolvedError
	if errors.As(err, &unresolved) {
		unresolved.Formula = e.String()
		return unresolved
	}
	return fmt.Errorf("formula %q: %w", e.String(), err)
}
