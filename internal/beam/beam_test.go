package beam

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexiusacademia/timbertrace/internal/expr"
)

func TestLocalFace_Quadrants(t *testing.T) {
	tests := []struct {
		name  string
		theta float64
		want  map[Face]Face
	}{
		{"0deg", 0, map[Face]Face{Right: Right, Left: Left, Front: Front, Back: Back}},
		{"90deg", math.Pi / 2, map[Face]Face{Right: Back, Left: Front, Front: Right, Back: Left}},
		{"180deg", math.Pi, map[Face]Face{Right: Left, Left: Right, Front: Back, Back: Front}},
		{"270deg", 3 * math.Pi / 2, map[Face]Face{Right: Front, Left: Back, Front: Left, Back: Right}},
		{"-90deg", -math.Pi / 2, map[Face]Face{Right: Front, Left: Back, Front: Left, Back: Right}},
		{"near 90deg", 1.4, map[Face]Face{Right: Back, Left: Front, Front: Right, Back: Left}},
		{"near 360deg", 2*math.Pi - 0.2, map[Face]Face{Right: Right, Left: Left, Front: Front, Back: Back}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for world, local := range tt.want {
				assert.Equal(t, local, LocalFace(world, tt.theta), "world %s", world)
				assert.Equal(t, world, WorldFace(local, tt.theta), "local %s", local)
			}
			assert.Equal(t, Top, LocalFace(Top, tt.theta))
			assert.Equal(t, Bottom, LocalFace(Bottom, tt.theta))
		})
	}
}

func TestLocalFace_MatchesRotatedNormals(t *testing.T) {
	// The world normal of the local face must be the rotated local normal.
	for _, theta := range []float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2} {
		for _, world := range Faces() {
			local := LocalFace(world, theta)
			got := Rotation(theta).MulVec(local.Normal())
			assert.InDelta(t, 0, r3.Norm(r3.Sub(got, world.Normal())), 1e-12, "theta %v world %s", theta, world)
		}
	}
}

func TestQuadrant(t *testing.T) {
	deg := func(d float64) float64 { return d * math.Pi / 180 }
	assert.Equal(t, 0, Quadrant(deg(44.9)))
	assert.Equal(t, 1, Quadrant(deg(45)))
	assert.Equal(t, 2, Quadrant(deg(180)))
	assert.Equal(t, 3, Quadrant(deg(314.9)))
	assert.Equal(t, 0, Quadrant(deg(315)))
	assert.Equal(t, 3, Quadrant(deg(-90)))
}

func TestParseFaceAndKind(t *testing.T) {
	f, err := ParseFace("Top")
	require.NoError(t, err)
	assert.Equal(t, Top, f)
	f, err = ParseFace("3")
	require.NoError(t, err)
	assert.Equal(t, Back, f)
	_, err = ParseFace("up")
	assert.Error(t, err)

	k, err := ParseKind("Sparren")
	require.NoError(t, err)
	assert.Equal(t, KindRafter, k)
	k, err = ParseKind("purlin")
	require.NoError(t, err)
	assert.Equal(t, KindPurlin, k)
	k, err = ParseKind("0")
	require.NoError(t, err)
	assert.Equal(t, KindPost, k)
	_, err = ParseKind("strut")
	assert.Error(t, err)

	for _, k := range Kinds() {
		b, err := New(k)
		require.NoError(t, err)
		assert.Equal(t, k, b.Kind())
	}
}

func TestParameters(t *testing.T) {
	for _, k := range Kinds() {
		b, _ := New(k)
		p := b.Parameters()
		for _, key := range slices.Concat(PoseKeys, p.Morphology) {
			assert.Contains(t, p.Values, key, "%s missing %s", k, key)
		}
		assert.Equal(t, PoseKeys, p.Pose)
		assert.NotContains(t, p.Morphology, ParamRotationZ)
	}

	r := NewRafter()
	p := r.Parameters()
	assert.Contains(t, p.Values, "steepness")
	assert.NotContains(t, p.Morphology, "steepness")
}

func TestSetParameters_IgnoresUnknownNames(t *testing.T) {
	p := NewPost()
	p.SetParameters(map[string]float64{"height": 3, "x": 1.5, "length": 9, "bogus": 1})

	v := p.Parameters().Values
	assert.Equal(t, 3.0, v["height"])
	assert.Equal(t, 1.5, v["x"])
	assert.NotContains(t, v, "length")
	assert.NotContains(t, v, "bogus")
}

func TestClone_IsIndependent(t *testing.T) {
	r := NewRafter()
	c := r.Clone()
	c.SetParameters(map[string]float64{"height": 0.2, "x": 4})

	assert.Equal(t, 0.16, r.Height)
	assert.Equal(t, 0.0, r.X)
	assert.Equal(t, 0.2, c.Parameters().Values["height"])
}

func TestConstraints_NotImplemented(t *testing.T) {
	p := NewPost()
	_, err := p.Constraints(Bottom)
	assert.True(t, errors.Is(err, ErrFaceNotImplemented))

	r := NewRafter()
	_, err = r.Constraints(Top)
	assert.ErrorIs(t, err, ErrFaceNotImplemented)

	_, err = LocusAt(r, Bottom, 3)
	assert.ErrorIs(t, err, ErrLocusIndex)
	_, err = LocusAt(r, Bottom, -1)
	assert.ErrorIs(t, err, ErrLocusIndex)
}

func TestPostTop(t *testing.T) {
	p := NewPost()
	p.X, p.Y, p.Z = 1.5, -2, 0.5
	l, err := LocusAt(p, Top, 0)
	require.NoError(t, err)
	assert.Equal(t, "point", l.Shape())

	got, err := GlobalPoint(p, l)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, got.X, 1e-12)
	assert.InDelta(t, -2, got.Y, 1e-12)
	assert.InDelta(t, 2.7, got.Z, 1e-12)
}

func TestPurlin_RotatedTopLine(t *testing.T) {
	p := NewPurlin()
	p.RotationZ = math.Pi / 2
	p.X, p.Y, p.Z = 1, 2, 3

	l, err := LocusAt(p, Top, 0)
	require.NoError(t, err)
	require.Equal(t, 1, l.Slacks)

	// Local Y maps to world -X under a quarter turn.
	got, err := GlobalPoint(p, l, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got.X, 1e-12)
	assert.InDelta(t, 2, got.Y, 1e-12)
	assert.InDelta(t, 3.16, got.Z, 1e-12)

	// World Right of the rotated purlin is its local Back end.
	end, err := LocusAt(p, Right, 0)
	require.NoError(t, err)
	got, err = GlobalPoint(p, end)
	require.NoError(t, err)
	assert.InDelta(t, 4, got.X, 1e-12)
	assert.InDelta(t, 3.08, got.Z, 1e-12)
}

func TestRafterShelves(t *testing.T) {
	r := NewRafter()
	loci, err := r.Constraints(Bottom)
	require.NoError(t, err)
	require.Len(t, loci, 3)

	want := []float64{
		-1*2.8 - 0.16 + 0.05,
		-1*1.5 - 0.16 + 0.05,
		-0.16,
	}
	for i, l := range loci {
		got, err := LocalPoint(r, l, 0.3)
		require.NoError(t, err)
		assert.InDelta(t, 0.3, got.X, 1e-12)
		assert.InDelta(t, want[i], got.Z, 1e-12, "shelf %d", i)
	}

	// A left rafter sees its notch cuts on the world right face.
	r.RotationZ = math.Pi
	cuts, err := r.Constraints(Right)
	require.NoError(t, err)
	assert.Len(t, cuts, 4)
	got, err := GlobalPoint(r, cuts[NotchMiddle], 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, -1.5, got.X, 1e-12)
}

func TestRafterInequalities_DefaultsSatisfied(t *testing.T) {
	r := NewRafter()
	env := expr.Env{Values: r.Parameters().Values}
	rules := r.Inequalities()
	require.Len(t, rules, 5)
	for _, q := range rules {
		lhs, err := expr.Evaluate(q.LHS, env)
		require.NoError(t, err)
		rhs, err := expr.Evaluate(q.RHS, env)
		require.NoError(t, err)
		assert.LessOrEqual(t, lhs, rhs, q.String())
	}
}

func TestFormulasAreAffine(t *testing.T) {
	for _, k := range Kinds() {
		b, _ := New(k)
		p := b.Parameters()
		env := expr.Env{Values: p.Values, Vars: map[string]expr.Var{}, Slacks: map[string]expr.Var{}}
		next := expr.Var(0)
		for _, name := range slices.Concat(PositionKeys, p.Morphology) {
			env.Vars[name] = next
			next++
		}
		for i := 0; i < 2; i++ {
			env.Slacks[expr.SlackName(i)] = next
			next++
		}

		var formulas []expr.Expr
		for _, f := range Faces() {
			loci, err := b.Constraints(f)
			if errors.Is(err, ErrFaceNotImplemented) {
				continue
			}
			require.NoError(t, err)
			for _, l := range loci {
				c := l.Coords()
				formulas = append(formulas, c[:]...)
				for _, sb := range l.SlackBounds {
					if sb.Min != nil {
						formulas = append(formulas, sb.Min)
					}
					if sb.Max != nil {
						formulas = append(formulas, sb.Max)
					}
				}
			}
		}
		for _, q := range b.Inequalities() {
			formulas = append(formulas, q.LHS, q.RHS)
		}
		for _, f := range formulas {
			_, err := expr.EvaluateLinear(f, env)
			assert.NoError(t, err, "%s: %s", k, f)
		}
	}
}

func TestModelVolumes(t *testing.T) {
	post := NewPost()
	post.X, post.RotationZ = 3, 0.7
	m, err := post.Model()
	require.NoError(t, err)
	assert.InDelta(t, 0.1*0.1*2.2, m.Volume(), 1e-9)
	min, _ := m.Bounds()
	assert.InDelta(t, 0, min.Z, 1e-12)

	purlin := NewPurlin()
	m, err = purlin.Model()
	require.NoError(t, err)
	assert.InDelta(t, 6*0.12*0.16, m.Volume(), 1e-9)

	// Strip of run 3 and depth 0.16 minus two notch triangles and the ridge
	// notch under the shelf.
	rafter := NewRafter()
	m, err = rafter.Model()
	require.NoError(t, err)
	area := 3*0.16 - 2*(0.05*0.05/2) - 0.08*0.08/2
	assert.InDelta(t, area, rafter.Profile().CCW().CalculateProperties().Area, 1e-9)
	assert.InDelta(t, area*0.1, m.Volume(), 1e-9)
}

func TestCheckBounds(t *testing.T) {
	p := NewPost()
	assert.NoError(t, CheckBounds(p, 0))

	p.Height = 6
	err := CheckBounds(p, 1e-6)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "height")
}

func TestRafterBounds_NotchDepthsNonNegative(t *testing.T) {
	bounds := NewRafter().Bounds()
	for _, key := range []string{"notch_middle_depth", "notch_foot_depth", "notch_ridge_cut_depth"} {
		bd, ok := bounds[key]
		require.True(t, ok, key)
		assert.Zero(t, bd.Min, key)
		assert.Greater(t, bd.Max, 0.0, key)
	}

	r := NewRafter()
	r.NotchRidgeCutDepth = -0.02
	err := CheckBounds(r, 1e-6)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notch_ridge_cut_depth")
}
