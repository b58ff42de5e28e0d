package expr

import (
	"fmt"
	"sort"
	"strings"
)

// Var identifies an optimization unknown.
type Var int

// Linear is an affine expression Const + sum(Coef[v] * v).
type Linear struct {
	Const float64
	Coef  map[Var]float64
}

// Constant returns the linear expression with no variable terms.
func Constant(c float64) Linear {
	return Linear{Const: c}
}

// Term returns the expression 1*v.
func Term(v Var) Linear {
	return Linear{Coef: map[Var]float64{v: 1}}
}

// IsConst reports whether l has no non-zero variable terms.
func (l Linear) IsConst() bool {
	for _, c := range l.Coef {
		if c != 0 {
			return false
		}
	}
	return true
}

// Vars returns the variables with non-zero coefficients in ascending order.
func (l Linear) Vars() []Var {
	vars := make([]Var, 0, len(l.Coef))
	for v, c := range l.Coef {
		if c != 0 {
			vars = append(vars, v)
		}
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
	return vars
}

// Value evaluates l at x, where x is indexed by Var.
func (l Linear) Value(x []float64) float64 {
	s := l.Const
	for v, c := range l.Coef {
		s += c * x[v]
	}
	return s
}

// Plus returns l + m.
func (l Linear) Plus(m Linear) Linear {
	return l.axpy(1, m)
}

// Minus returns l - m.
func (l Linear) Minus(m Linear) Linear {
	return l.axpy(-1, m)
}

// Scale returns f*l.
func (l Linear) Scale(f float64) Linear {
	out := Linear{Const: f * l.Const, Coef: make(map[Var]float64, len(l.Coef))}
	for v, c := range l.Coef {
		out.Coef[v] = f * c
	}
	return out
}

func (l Linear) axpy(a float64, m Linear) Linear {
	out := Linear{Const: l.Const + a*m.Const, Coef: make(map[Var]float64, len(l.Coef)+len(m.Coef))}
	for v, c := range l.Coef {
		out.Coef[v] = c
	}
	for v, c := range m.Coef {
		out.Coef[v] += a * c
	}
	return out
}

func (l Linear) String() string {
	var sb strings.Builder
	for _, v := range l.Vars() {
		fmt.Fprintf(&sb, "%+g*v%d ", l.Coef[v], v)
	}
	fmt.Fprintf(&sb, "%+g", l.Const)
	return sb.String()
}

// Affine interprets formulas over Linear. Products and quotients are only
// accepted when they keep the result affine.
type Affine struct{}

func (Affine) Const(v float64) Linear { return Constant(v) }
func (Affine) Add(a, b Linear) Linear { return a.Plus(b) }
func (Affine) Sub(a, b Linear) Linear { return a.Minus(b) }
func (Affine) Neg(a Linear) Linear { return a.Scale(-1) }

func (Affine) Mul(a, b Linear) (Linear, error) {
	switch {
	case a.IsConst():
		return b.Scale(a.Const), nil
	case b.IsConst():
		return a.Scale(b.Const), nil
	}
	return Linear{}, fmt.Errorf("%w: product of %v and %v", ErrNonAffine, a, b)
}

func (Affine) Div(a, b Linear) (Linear, error) {
	if !b.IsConst() {
		return Linear{}, fmt.Errorf("%w: division by %v", ErrNonAffine, b)
	}
	if b.Const == 0 {
		return Linear{}, ErrDivByZero
	}
	return a.Scale(1 / b.Const), nil
}
