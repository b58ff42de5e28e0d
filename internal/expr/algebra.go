package expr

import (
	"errors"
	"fmt"
)

// ErrNonAffine is returned when a formula multiplies two unknowns or divides
// by an unknown.
var ErrNonAffine = errors.New("non-affine formula")

// ErrDivByZero is returned when a formula divides by a zero constant.
var ErrDivByZero = errors.New("division by zero")

// UnresolvedError reports a formula token that names neither a parameter nor
// a slack of the evaluation environment.
type UnresolvedError struct {
	Name    string
	Formula string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved token %q in formula %q", e.Name, e.Formula)
}

// Algebra is the number-like domain a formula is interpreted in.
type Algebra[T any] interface {
	Const(v float64) T
	Add(a, b T) T
	Sub(a, b T) T
	Neg(a T) T
	Mul(a, b T) (T, error)
	Div(a, b T) (T, error)
}

// Interpret evaluates e in alg, resolving names through lookup.
func Interpret[T any](e Expr, alg Algebra[T], lookup func(name string) (T, bool)) (T, error) {
	var zero T
	switch n := e.(type) {
	case Num:
		return alg.Const(n.Value), nil
	case Ref:
		v, ok := lookup(n.Name)
		if !ok {
			return zero, &UnresolvedError{Name: n.Name}
		}
		return v, nil
	case Neg:
		x, err := Interpret(n.X, alg, lookup)
		if err != nil {
			return zero, err
		}
		return alg.Neg(x), nil
	case Binary:
		l, err := Interpret(n.L, alg, lookup)
		if err != nil {
			return zero, err
		}
		r, err := Interpret(n.R, alg, lookup)
		if err != nil {
			return zero, err
		}
		switch n.Op {
		case OpAdd:
			return alg.Add(l, r), nil
		case OpSub:
			return alg.Sub(l, r), nil
		case OpMul:
			return alg.Mul(l, r)
		case OpDiv:
			return alg.Div(l, r)
		}
		return zero, fmt.Errorf("unknown operator %q", n.Op)
	}
	return zero, fmt.Errorf("unknown node %T", e)
}

// Numeric interprets formulas over float64.
type Numeric struct{}

func (Numeric) Const(v float64) float64 { return v }
func (Numeric) Add(a, b float64) float64 { return a + b }
func (Numeric) Sub(a, b float64) float64 { return a - b }
func (Numeric) Neg(a float64) float64 { return -a }
func (Numeric) Mul(a, b float64) (float64, error) { return a * b, nil }

func (Numeric) Div(a, b float64) (float64, error) {
	if b == 0 {
		return 0, ErrDivByZero
	}
	return a / b, nil
}
