// Package expr parses and evaluates the affine formulas that describe beam
// constraint loci and safety rules.
//
// A formula is parsed once into a small AST and can then be evaluated in two
// modes: numerically against concrete beam parameters, or symbolically into
// a Linear expression over optimization variables. Both modes share the same
// interpreter through the Algebra interface.
package expr

import (
	"sort"
	"strconv"
	"strings"
)

// Expr is a parsed formula node.
type Expr interface {
	String() string
	node()
}

// Num is a numeric literal.
type Num struct {
	Value float64
}

// Ref references a beam parameter or a slack token by name.
type Ref struct {
	Name string
}

// Neg is unary negation.
type Neg struct {
	X Expr
}

// Op is a binary operator.
type Op byte

const (
	OpAdd Op = '+'
	OpSub Op = '-'
	OpMul Op = '*'
	OpDiv Op = '/'
)

// Binary applies Op to two operands.
type Binary struct {
	Op   Op
	L, R Expr
}

func (Num) node()    {}
func (Ref) node()    {}
func (Neg) node()    {}
func (Binary) node() {}

func (n Num) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (r Ref) String() string { return r.Name }

func (n Neg) String() string { return "-" + wrap(n.X) }

func (b Binary) String() string {
	return wrap(b.L) + " " + string(b.Op) + " " + wrap(b.R)
}

func wrap(e Expr) string {
	if b, ok := e.(Binary); ok {
		return "(" + b.String() + ")"
	}
	return e.String()
}

// Refs returns the distinct names referenced by e, sorted.
func Refs(e Expr) []string {
	seen := make(map[string]bool)
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case Ref:
			seen[n.Name] = true
		case Neg:
			walk(n.X)
		case Binary:
			walk(n.L)
			walk(n.R)
		}
	}
	walk(e)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SlackName returns the local slack token for index i ("slack_0", "slack_1", ...).
func SlackName(i int) string {
	return "slack_" + strconv.Itoa(i)
}

// IsSlack reports whether name is a slack token.
func IsSlack(name string) bool {
	rest, ok := strings.CutPrefix(name, "slack_")
	if !ok || rest == "" {
		return false
	}
	_, err := strconv.Atoi(rest)
	return err == nil
}
