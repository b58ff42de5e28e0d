package scene

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexiusacademia/timbertrace/internal/beam"
	"github.com/alexiusacademia/timbertrace/internal/blueprint"
	"github.com/alexiusacademia/timbertrace/internal/diagram"
	"github.com/alexiusacademia/timbertrace/internal/mesh"
	"github.com/alexiusacademia/timbertrace/internal/solver"
	"github.com/alexiusacademia/timbertrace/internal/timber"
)

// Generator produces a dataset of solved scenes from one blueprint.
type Generator struct {
	Build        blueprint.Func
	Blueprint    string  // name recorded in metadata
	Perturbation float64 // fraction of each morphology bound
	SeedOffset   int64
	Solver       solver.Config
	Species      timber.Species
	OutputDir    string
	WriteSTL     bool
	WriteDiagram bool // elevation.png and elevation_plan.png
	Timeout      time.Duration // per scene solve, 0 disables; stops the solver mid-run
	Logger       zerolog.Logger
}

// Run generates scenes 0..n-1. A scene that fails to build, solve or export
// is recorded and skipped. Run only returns an error when the dataset root
// cannot be written or ctx is done; the index of the scenes attempted so far
// is still written in that case.
func (g *Generator) Run(ctx context.Context, n int) (*Index, error) {
	if g.Build == nil {
		return nil, fmt.Errorf("generator: no blueprint")
	}
	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	g.Logger.Info().
		Str("blueprint", g.Blueprint).
		Int("scenes", n).
		Float64("perturbation", g.Perturbation).
		Str("mode", g.Solver.Mode.String()).
		Str("output", g.OutputDir).
		Msg("generating scenes")

	idx := &Index{BeamTypes: beamTypes(), SceneDirs: []string{}}
	var runErr error
	for id := 0; id < n; id++ {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("generation stopped before scene %d: %w", id, err)
			break
		}
		idx.NumScenes++

		start := time.Now()
		meta, err := g.Scene(ctx, id)
		if err != nil {
			g.Logger.Warn().Int("scene", id).Err(err).Msg("scene skipped")
			idx.Failed = append(idx.Failed, Failure{SceneID: id, Error: err.Error()})
			continue
		}
		g.Logger.Debug().
			Int("scene", id).
			Int("beams", meta.NumBeams).
			Float64("max_gap", meta.Solve.MaxGap).
			Dur("took", time.Since(start)).
			Msg("scene done")
		idx.SceneDirs = append(idx.SceneDirs, SceneDir(id))
	}
	idx.NumSuccessful = len(idx.SceneDirs)
	idx.NumFailed = len(idx.Failed)

	if err := writeJSON(filepath.Join(g.OutputDir, "index.json"), idx); err != nil {
		return idx, err
	}
	if len(idx.Failed) > 0 {
		if err := writeJSON(filepath.Join(g.OutputDir, "failed_scenes.json"), idx.Failed); err != nil {
			return idx, err
		}
	}

	g.Logger.Info().
		Int("successful", idx.NumSuccessful).
		Int("failed", idx.NumFailed).
		Msg("generation complete")
	return idx, runErr
}

// Scene builds, perturbs, solves and exports a single scene.
func (g *Generator) Scene(ctx context.Context, id int) (*Metadata, error) {
	seed := int64(id) + g.SeedOffset
	beams, topo := g.Build(seed)
	beams = Perturb(beams, g.Perturbation, seed)

	res, err := g.solve(ctx, beams, topo)
	if err != nil {
		return nil, err
	}

	meta := &Metadata{
		SceneID:       id,
		Blueprint:     g.Blueprint,
		Seed:          seed,
		NumBeams:      len(res.Beams),
		Species:       string(g.species()),
		Connectivity:  topo.Contacts,
		IdentityPairs: topo.Identities,
		Solve: SolveRecord{
			Mode:       g.Solver.Mode.String(),
			Status:     string(res.Status),
			Objective:  res.Objective,
			Iterations: res.Iterations,
			MaxGap:     res.MaxGap(),
		},
	}
	if err := g.export(id, res, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func (g *Generator) species() timber.Species {
	if g.Species == "" {
		return timber.Default
	}
	return g.Species
}

// solve runs the solver under the scene timeout. The backend checks ctx at
// every iteration, so an expired scene releases its CPU before the next one
// starts.
func (g *Generator) solve(ctx context.Context, beams []beam.Beam, topo solver.Topology) (*solver.Result, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	res, err := solver.SolveContext(ctx, beams, topo, g.Solver)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	return res, nil
}

func (g *Generator) export(id int, res *solver.Result, meta *Metadata) error {
	dir := filepath.Join(g.OutputDir, SceneDir(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create scene dir: %w", err)
	}
	beams := res.Beams

	full := mesh.New("full_scene")
	for i, b := range beams {
		m, err := b.Model()
		if err != nil {
			return fmt.Errorf("beam %d (%s): %w", i, b.Kind(), err)
		}
		vol := m.Volume()
		rec := BeamRecord{
			BeamID:        i,
			BeamType:      b.Kind().GermanName(),
			SemanticLabel: int(b.Kind()),
			Parameters:    b.Parameters().Values,
			Volume:        vol,
			Mass:          timber.Mass(g.species(), vol),
		}
		if g.WriteSTL {
			rec.STLFile = fmt.Sprintf("beam_%02d.stl", i)
			if err := m.SaveSTL(filepath.Join(dir, rec.STLFile)); err != nil {
				return err
			}
		}
		full.Add(m)
		meta.Beams = append(meta.Beams, rec)
		meta.TotalVolume += vol
		meta.TotalMass += rec.Mass
	}

	if g.WriteSTL {
		if err := full.SaveSTL(filepath.Join(dir, "full_scene.stl")); err != nil {
			return err
		}
	}
	if g.WriteDiagram {
		st := diagram.Structure{Title: SceneDir(id), Beams: beams}
		for _, r := range res.Residuals {
			st.Contacts = append(st.Contacts, r.PointI)
		}
		if _, err := diagram.ExportViews(st, filepath.Join(dir, "elevation.png")); err != nil {
			return err
		}
	}
	return writeJSON(filepath.Join(dir, "metadata.json"), meta)
}
