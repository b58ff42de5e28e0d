package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexiusacademia/timbertrace/internal/beam"
	"github.com/alexiusacademia/timbertrace/internal/solver"
)

func hardConfig() solver.Config {
	cfg := solver.DefaultConfig()
	cfg.Mode = solver.Hard
	return cfg
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"pfettendach", "post_and_beam", "rafter_on_purlin"}, Names())
	for i, bp := range All() {
		assert.Equal(t, Names()[i], bp.Name)
		assert.NotEmpty(t, bp.Description)
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New("sheddach", DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown blueprint")
	assert.Contains(t, err.Error(), "pfettendach")

	opts := DefaultOptions()
	opts.RafterPairs = 0
	_, err = New("pfettendach", opts)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.PostPairs = -1
	_, err = New("pfettendach", opts)
	assert.Error(t, err)
}

func TestBlueprints_SolveHard(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			build, err := New(name, DefaultOptions())
			require.NoError(t, err)
			beams, topo := build(7)

			res, err := solver.Solve(beams, topo, hardConfig())
			require.NoError(t, err)
			assert.Less(t, res.MaxGap(), 1e-4)
			assert.Len(t, res.Residuals, topo.NumContacts())

			for _, b := range res.Beams {
				assert.NoError(t, beam.CheckBounds(b, 1e-6))
			}
			for _, pair := range topo.Identities {
				pi, pj := res.Beams[pair.I].Parameters(), res.Beams[pair.J].Parameters()
				for _, key := range pi.Morphology {
					assert.InDelta(t, pi.Values[key], pj.Values[key], 1e-6, "%s of %d and %d", key, pair.I, pair.J)
				}
			}
		})
	}
}

func TestBlueprints_NominalLayoutIsConsistent(t *testing.T) {
	opts := DefaultOptions()
	opts.Jitter = 0
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			build, err := New(name, opts)
			require.NoError(t, err)
			beams, topo := build(0)

			res, err := solver.Solve(beams, topo, hardConfig())
			require.NoError(t, err)
			// The hand laid out geometry already satisfies every contact.
			assert.Less(t, solver.Deviation(beams, res.Beams, hardConfig()), 1e-5)
		})
	}
}

func TestPfettendach_Counts(t *testing.T) {
	tests := []struct {
		rafters, posts int
	}{
		{5, 3},
		{2, 0},
		{1, 1},
	}
	for _, tt := range tests {
		opts := Options{RafterPairs: tt.rafters, PostPairs: tt.posts}
		build, err := New("pfettendach", opts)
		require.NoError(t, err)
		beams, topo := build(1)

		require.Len(t, beams, 5+2*tt.posts+2*tt.rafters)
		counts := map[beam.Kind]int{}
		for _, b := range beams {
			counts[b.Kind()]++
		}
		assert.Equal(t, 5, counts[beam.KindPurlin])
		assert.Equal(t, 2*tt.posts, counts[beam.KindPost])
		assert.Equal(t, 2*tt.rafters, counts[beam.KindRafter])

		assert.Len(t, topo.Contacts["top"], 2*tt.posts+6*tt.rafters)
		assert.Len(t, topo.Contacts["right"], 3*tt.rafters)
		assert.Len(t, topo.Contacts["left"], 3*tt.rafters+tt.rafters)
		assert.Len(t, topo.Identities, max(2*tt.posts-1, 0)+2*tt.rafters-1)
	}
}

func TestPfettendach_Layout(t *testing.T) {
	build, err := New("pfettendach", Options{RafterPairs: 5, PostPairs: 3})
	require.NoError(t, err)
	beams, _ := build(0)

	ridge := beams[RidgePurlin].(*beam.Purlin)
	assert.InDelta(t, 4.47-0.32, ridge.Z, 1e-9)
	assert.InDelta(t, 1.93, beams[MiddlePurlinRight].(*beam.Purlin).X, 1e-9)
	assert.InDelta(t, -1.93, beams[MiddlePurlinLeft].(*beam.Purlin).X, 1e-9)
	assert.InDelta(t, 0.4, beams[FootPurlinRight].(*beam.Purlin).Z, 1e-9)

	post := beams[FirstPost].(*beam.Post)
	assert.InDelta(t, 1.93, post.X, 1e-9)
	assert.InDelta(t, -2.5, post.Y, 1e-9)

	right := beams[FirstPost+6].(*beam.Rafter)
	left := beams[FirstPost+7].(*beam.Rafter)
	assert.Zero(t, right.RotationZ)
	assert.InDelta(t, 3.14159, left.RotationZ, 1e-5)
	assert.InDelta(t, 4.47, right.Z, 1e-9)
	assert.InDelta(t, -5, right.Y, 1e-9)
	assert.InDelta(t, 5, beams[len(beams)-1].(*beam.Rafter).Y, 1e-9)
}

func TestRoughen_Deterministic(t *testing.T) {
	build, err := New("post_and_beam", DefaultOptions())
	require.NoError(t, err)

	a, _ := build(3)
	b, _ := build(3)
	c, _ := build(4)
	assert.Equal(t, solver.Snapshot(a), solver.Snapshot(b))
	assert.NotEqual(t, solver.Snapshot(a), solver.Snapshot(c))

	for i, bm := range a {
		f := beam.FrameOf(bm)
		nominal := []float64{-1.5, 1.5, 0}[i]
		assert.InDelta(t, nominal, f.X, 0.02)
		assert.InDelta(t, 0, f.Y, 0.02)
	}
	assert.Zero(t, beam.FrameOf(a[0]).Z)
}
