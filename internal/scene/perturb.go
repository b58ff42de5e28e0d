// Package scene turns blueprints into datasets: it varies the morphology,
// solves every structure and exports meshes with metadata.
package scene

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/alexiusacademia/timbertrace/internal/beam"
	"github.com/alexiusacademia/timbertrace/internal/solver"
)

const perturbStream = 0x7065727475726221

// Perturb returns clones of beams whose morphology parameters are shifted by
// U(-scale, scale) times the width of their bound and clipped into it.
// Pose is never touched; placement is the solver's job. The same seed always
// yields the same result.
func Perturb(beams []beam.Beam, scale float64, seed int64) []beam.Beam {
	out := solver.CloneAll(beams)
	if scale <= 0 {
		return out
	}
	u := distuv.Uniform{
		Min: -scale,
		Max: scale,
		Src: rand.New(rand.NewPCG(uint64(seed), perturbStream)),
	}
	for _, b := range out {
		p := b.Parameters()
		bounds := b.Bounds()
		changes := make(map[string]float64, len(p.Morphology))
		for _, key := range p.Morphology {
			bd, ok := bounds[key]
			if !ok {
				continue
			}
			changes[key] = bd.Clamp(p.Values[key] + u.Rand()*bd.Range())
		}
		b.SetParameters(changes)
	}
	return out
}
