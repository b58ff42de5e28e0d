package qp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solve(t *testing.T, p *Problem) *Solution {
	t.Helper()
	sol, err := Solve(p, DefaultSettings())
	require.NoError(t, err)
	return sol
}

func TestSolve_Unconstrained(t *testing.T) {
	p := &Problem{}
	p.AddVariable(1, 3)
	p.AddVariable(1000, -2)

	sol := solve(t, p)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDeltaSlice(t, []float64{3, -2}, sol.X, 1e-12)
	assert.InDelta(t, 0, sol.Objective, 1e-12)
}

func TestSolve_EqualityProjection(t *testing.T) {
	p := &Problem{}
	x := p.AddVariable(1, 1)
	y := p.AddVariable(1, 2)
	p.AddEq(map[int]float64{x: 1, y: 1}, 1, "sum")

	sol := solve(t, p)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 0, sol.X[x], 1e-9)
	assert.InDelta(t, 1, sol.X[y], 1e-9)
	assert.InDelta(t, 2, sol.Objective, 1e-9)
	assert.Equal(t, 1, sol.Rank)
	assert.Equal(t, 1, sol.Reduced)
}

func TestSolve_WeightsSteerTheProjection(t *testing.T) {
	// min x² + 4y² s.t. x + y = 5 -> x = 4, y = 1.
	p := &Problem{}
	x := p.AddVariable(1, 0)
	y := p.AddVariable(4, 0)
	p.AddEq(map[int]float64{x: 1, y: 1}, 5, "sum")

	sol := solve(t, p)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 4, sol.X[x], 1e-9)
	assert.InDelta(t, 1, sol.X[y], 1e-9)
	assert.InDelta(t, 20, sol.Objective, 1e-8)
}

func TestSolve_RedundantEqualities(t *testing.T) {
	p := &Problem{}
	x := p.AddVariable(1, 1)
	y := p.AddVariable(1, 2)
	p.AddEq(map[int]float64{x: 1, y: 1}, 1, "a")
	p.AddEq(map[int]float64{x: 1, y: 1}, 1, "b")
	p.AddEq(map[int]float64{x: 2, y: 2}, 2, "c")

	sol := solve(t, p)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, 1, sol.Rank)
	assert.InDeltaSlice(t, []float64{0, 1}, sol.X, 1e-9)
}

func TestSolve_InconsistentEqualities(t *testing.T) {
	p := &Problem{}
	x := p.AddVariable(1, 0)
	p.AddEq(map[int]float64{x: 1}, 1, "one")
	p.AddEq(map[int]float64{x: 1}, 2, "two")

	sol := solve(t, p)
	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.Contains(t, sol.Message, "inconsistent equalities")
	assert.Nil(t, sol.X)
}

func TestSolve_Inequalities(t *testing.T) {
	tests := []struct {
		name  string
		limit float64
		want  float64
	}{
		{"active", 1, 1},
		{"inactive", 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Problem{}
			x := p.AddVariable(1, 2)
			p.AddLE(map[int]float64{x: 1}, tt.limit, "limit")

			sol := solve(t, p)
			require.Equal(t, StatusOptimal, sol.Status, sol.Message)
			assert.InDelta(t, tt.want, sol.X[x], 1e-6)
			assert.NotEmpty(t, sol.History)
			assert.Len(t, sol.Mu(), len(sol.History))
		})
	}
}

func TestSolve_BoxOnEqualityManifold(t *testing.T) {
	// Along x = y the unconstrained minimizer is t = 1; the box clips it to 0.5.
	p := &Problem{}
	x := p.AddVariable(1, 3)
	y := p.AddVariable(1, -1)
	p.AddEq(map[int]float64{x: 1, y: -1}, 0, "x=y")
	p.AddBounds(x, 0, 0.5, "x")

	sol := solve(t, p)
	require.Equal(t, StatusOptimal, sol.Status, sol.Message)
	assert.InDelta(t, 0.5, sol.X[x], 1e-6)
	assert.InDelta(t, 0.5, sol.X[y], 1e-6)
	assert.InDelta(t, 8.5, sol.Objective, 1e-5)

	eq, ineq := p.Violation(sol.X)
	assert.Less(t, eq, 1e-9)
	assert.Less(t, ineq, 1e-6)
}

func TestSolve_InfeasibleInequalities(t *testing.T) {
	p := &Problem{}
	x := p.AddVariable(1, 0)
	p.AddLE(map[int]float64{x: 1}, -1, "x <= -1")
	p.AddLE(map[int]float64{x: -1}, -1, "x >= 1")

	sol := solve(t, p)
	assert.Equal(t, StatusInfeasible, sol.Status)
}

func TestAddBounds_PinnedBecomesEquality(t *testing.T) {
	p := &Problem{}
	x := p.AddVariable(1, 4)
	p.AddBounds(x, 2.5, 2.5, "pinned")
	require.Len(t, p.Eq, 1)
	require.Empty(t, p.Ineq)

	sol := solve(t, p)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 2.5, sol.X[x], 1e-12)
}

func TestSolve_HeterogeneousWeights(t *testing.T) {
	// A heavily penalized gap variable tied to a cheap position.
	p := &Problem{}
	x := p.AddVariable(1, 1)
	v := p.AddVariable(1e7, 0)
	s := p.AddVariable(1e-6, 0)
	p.AddEq(map[int]float64{x: 1, v: -1}, 0, "gap")
	p.AddBounds(s, -1, 1, "slack")

	sol := solve(t, p)
	require.Equal(t, StatusOptimal, sol.Status, sol.Message)
	assert.InDelta(t, 1/(1+1e7), sol.X[x], 1e-9)
	assert.InDelta(t, sol.X[x], sol.X[v], 1e-12)
	assert.InDelta(t, 0, sol.X[s], 1e-2)
}

func TestSolve_WideWeightSpreadKeepsRank(t *testing.T) {
	// The gap row only touches stiff variables and the pin only a nearly free
	// one. Both rows are independent whatever the weights.
	p := &Problem{}
	v1 := p.AddVariable(1e7, 0)
	v2 := p.AddVariable(1e7, 0)
	s := p.AddVariable(1e-12, 0)
	x := p.AddVariable(1, 1)
	y := p.AddVariable(1, 2)
	p.AddEq(map[int]float64{v1: 1, v2: -1}, 1e-3, "gap")
	p.AddEq(map[int]float64{s: 1}, 0.5, "pin")

	sol := solve(t, p)
	require.Equal(t, StatusOptimal, sol.Status, sol.Message)
	assert.Equal(t, 2, sol.Rank)
	assert.Equal(t, 3, sol.Reduced)
	assert.InDelta(t, 5e-4, sol.X[v1], 1e-10)
	assert.InDelta(t, -5e-4, sol.X[v2], 1e-10)
	assert.InDelta(t, 0.5, sol.X[s], 1e-9)
	assert.InDelta(t, 1, sol.X[x], 1e-9)
	assert.InDelta(t, 2, sol.X[y], 1e-9)

	eq, _ := p.Violation(sol.X)
	assert.Less(t, eq, 1e-12)
}

func TestSolveContext_Canceled(t *testing.T) {
	p := &Problem{}
	x := p.AddVariable(1, 2)
	p.AddLE(map[int]float64{x: 1}, 1, "limit")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sol, err := SolveContext(ctx, p, DefaultSettings())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, sol)
}

func TestSolve_InvalidProblem(t *testing.T) {
	p := &Problem{}
	p.AddVariable(0, 1)
	_, err := Solve(p, DefaultSettings())
	assert.ErrorIs(t, err, ErrInvalidProblem)

	p = &Problem{}
	p.AddVariable(1, 1)
	p.AddEq(map[int]float64{3: 1}, 0, "dangling")
	_, err = Solve(p, Settings{})
	assert.ErrorIs(t, err, ErrInvalidProblem)
}
