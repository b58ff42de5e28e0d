package expr_test

import (
	"errors"
	"testing"

	"github.com/alexiusacademia/timbertrace/internal/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Precedence(t *testing.T) {
	e, err := expr.Parse("1 + 2 * 3 - 8 / 4")
	require.NoError(t, err)

	v, err := expr.Evaluate(e, expr.Env{})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v, 1e-12)
}

func TestParse_SelfPrefixAndUnary(t *testing.T) {
	e, err := expr.Parse("-self.width/2")
	require.NoError(t, err)
	assert.Equal(t, []string{"width"}, expr.Refs(e))

	v, err := expr.Evaluate(e, expr.Env{Values: map[string]float64{"width": 0.12}})
	require.NoError(t, err)
	assert.InDelta(t, -0.06, v, 1e-12)
}

func TestParse_Exponent(t *testing.T) {
	e, err := expr.Parse("2.5e-1 * (height - 1E1)")
	require.NoError(t, err)

	v, err := expr.Evaluate(e, expr.Env{Values: map[string]float64{"height": 14}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-12)
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{"", "1 +", "(a + b", "a b", "a.b.c", "3 $ 4"} {
		_, err := expr.Parse(src)
		var syntax *expr.SyntaxError
		assert.True(t, errors.As(err, &syntax), "source %q should fail to parse, got %v", src, err)
	}
}

func TestEvaluate_Slacks(t *testing.T) {
	e := expr.MustParse("slack_0 + height")
	v, err := expr.Evaluate(e, expr.Env{
		Values:      map[string]float64{"height": 2},
		SlackValues: map[string]float64{"slack_0": 0.5},
	})
	require.NoError(t, err)
	assert.InDelta(t, 2.5, v, 1e-12)
}

func TestEvaluate_Unresolved(t *testing.T) {
	_, err := expr.Evaluate(expr.MustParse("height + depth"), expr.Env{
		Values: map[string]float64{"height": 1},
	})
	var unresolved *expr.UnresolvedError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "depth", unresolved.Name)
	assert.Contains(t, err.Error(), "depth")

	_, err = expr.EvaluateLinear(expr.MustParse("slack_1"), expr.Env{
		Slacks: map[string]expr.Var{"slack_0": 3},
	})
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "slack_1", unresolved.Name)
}

func TestEvaluateLinear_SubstitutesFixedParameters(t *testing.T) {
	// steepness has no unknown and is folded in as a constant.
	e := expr.MustParse("-steepness * notch_x - height + depth")
	env := expr.Env{
		Values: map[string]float64{"steepness": 1.5, "notch_x": 2, "height": 0.16, "depth": 0.05},
		Vars:   map[string]expr.Var{"notch_x": 0, "height": 1, "depth": 2},
	}

	lin, err := expr.EvaluateLinear(e, env)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, lin.Const, 1e-12)
	assert.InDelta(t, -1.5, lin.Coef[0], 1e-12)
	assert.InDelta(t, -1.0, lin.Coef[1], 1e-12)
	assert.InDelta(t, 1.0, lin.Coef[2], 1e-12)

	// Both modes agree at the current values.
	num, err := expr.Evaluate(e, env)
	require.NoError(t, err)
	assert.InDelta(t, num, lin.Value([]float64{2, 0.16, 0.05}), 1e-12)
}

func TestEvaluateLinear_RejectsNonAffine(t *testing.T) {
	env := expr.Env{
		Values: map[string]float64{"a": 1, "b": 2},
		Vars:   map[string]expr.Var{"a": 0, "b": 1},
	}
	for _, src := range []string{"a * b", "1 / a", "(a + 1) * (b - 1)"} {
		_, err := expr.EvaluateLinear(expr.MustParse(src), env)
		assert.ErrorIs(t, err, expr.ErrNonAffine, src)
	}

	lin, err := expr.EvaluateLinear(expr.MustParse("(a + b) / 4 * 2"), env)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, lin.Coef[0], 1e-12)
	assert.InDelta(t, 0.5, lin.Coef[1], 1e-12)
}

func TestEvaluate_DivByZero(t *testing.T) {
	_, err := expr.Evaluate(expr.MustParse("1 / (a - a)"), expr.Env{Values: map[string]float64{"a": 3}})
	assert.ErrorIs(t, err, expr.ErrDivByZero)
}

func TestSlackName(t *testing.T) {
	assert.Equal(t, "slack_2", expr.SlackName(2))
	assert.True(t, expr.IsSlack("slack_10"))
	assert.False(t, expr.IsSlack("slack_"))
	assert.False(t, expr.IsSlack("height"))
}

func TestString_RoundTrip(t *testing.T) {
	e := expr.MustParse("-(a + 2) * b / 3")
	again, err := expr.Parse(e.String())
	require.NoError(t, err)

	env := expr.Env{Values: map[string]float64{"a": 1, "b": 6}}
	want, _ := expr.Evaluate(e, env)
	got, err := expr.Evaluate(again, env)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
}
