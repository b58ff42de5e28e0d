package cmd

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/timbertrace/internal/beam"
	"github.com/alexiusacademia/timbertrace/internal/blueprint"
	"github.com/alexiusacademia/timbertrace/internal/diagram"
	"github.com/alexiusacademia/timbertrace/internal/mesh"
	"github.com/alexiusacademia/timbertrace/internal/scene"
	"github.com/alexiusacademia/timbertrace/internal/solver"
	"github.com/alexiusacademia/timbertrace/internal/timber"
)

var (
	// Structure inputs
	solveBlueprint   string
	solveSeed        int64
	solvePerturb     float64
	solveJitter      float64
	solveRafterPairs int
	solvePostPairs   int

	// Solver options
	solveHard            bool
	solveViolationWeight float64

	// Output options
	solveSpecies string
	solveDiagram bool
	solveOutput  string
	solveSTL     string
	solveChart   bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve one blueprint and report the resulting structure",
	Long: `Build a blueprint, optionally perturb its morphology, and solve all
contacts, identities, bounds and rafter notch rules as one convex QP.

Soft contacts (default) always yield a structure and report the residual
gap of each contact. Hard contacts fail when the structure cannot be
closed exactly.

Examples:
  # Solve the default Pfettendach
  timbertrace solve

  # Two posts and a purlin with 5% morphology perturbation, hard contacts
  timbertrace solve --blueprint post_and_beam --perturb 0.05 --hard

  # Export elevation and plan drawings and STL meshes
  timbertrace solve --diagram -o roof.png --stl out/roof`,
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)

	solveCmd.Flags().StringVarP(&solveBlueprint, "blueprint", "b", "pfettendach", "Blueprint name (see 'timbertrace blueprints')")
	solveCmd.Flags().Int64VarP(&solveSeed, "seed", "s", 0, "Random seed for jitter and perturbation")
	solveCmd.Flags().Float64VarP(&solvePerturb, "perturb", "p", 0, "Morphology perturbation as fraction of each bound")
	solveCmd.Flags().Float64Var(&solveJitter, "jitter", blueprint.DefaultOptions().Jitter, "Horizontal jitter of initial positions (m)")
	solveCmd.Flags().IntVar(&solveRafterPairs, "rafter-pairs", blueprint.DefaultOptions().RafterPairs, "Rafter pairs of a pfettendach")
	solveCmd.Flags().IntVar(&solvePostPairs, "post-pairs", blueprint.DefaultOptions().PostPairs, "Post pairs of a pfettendach")

	solveCmd.Flags().BoolVar(&solveHard, "hard", false, "Enforce contacts as equalities")
	solveCmd.Flags().Float64Var(&solveViolationWeight, "violation-weight", solver.DefaultConfig().ViolationWeight, "Penalty weight of soft contact violations")

	solveCmd.Flags().StringVar(&solveSpecies, "species", string(timber.Default), "Wood species for mass ("+strings.Join(timber.Names(), ", ")+")")
	solveCmd.Flags().BoolVarP(&solveDiagram, "diagram", "d", false, "Export elevation and plan drawings")
	solveCmd.Flags().StringVarP(&solveOutput, "output", "o", "structure.png", "Drawing file (.png, .svg, .pdf)")
	solveCmd.Flags().StringVar(&solveSTL, "stl", "", "Directory for per-beam and full STL meshes")
	solveCmd.Flags().BoolVar(&solveChart, "chart", false, "Print the interior point convergence chart")
}

func runSolve(cmd *cobra.Command, args []string) error {
	species, err := timber.Parse(solveSpecies)
	if err != nil {
		return err
	}
	opts := blueprint.Options{Jitter: solveJitter, RafterPairs: solveRafterPairs, PostPairs: solvePostPairs}
	build, err := blueprint.New(solveBlueprint, opts)
	if err != nil {
		return err
	}

	beams, topo := build(solveSeed)
	beams = scene.Perturb(beams, solvePerturb, solveSeed)

	cfg := solver.DefaultConfig()
	if solveHard {
		cfg.Mode = solver.Hard
	}
	cfg.ViolationWeight = solveViolationWeight
	cfg.Logger = newLogger()

	res, err := solver.Solve(beams, topo, cfg)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("     TIMBER STRUCTURE SOLVE - %s\n", strings.ToUpper(solveBlueprint))
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()

	fmt.Println("INPUT DATA:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Blueprint:\t%s\n", solveBlueprint)
	fmt.Fprintf(w, "  Seed:\t%d\n", solveSeed)
	fmt.Fprintf(w, "  Perturbation:\t±%.1f%% of bound\n", solvePerturb*100)
	fmt.Fprintf(w, "  Contact mode:\t%s\n", cfg.Mode)
	fmt.Fprintf(w, "  Beams:\t%d\n", len(beams))
	fmt.Fprintf(w, "  Contacts:\t%d\n", topo.NumContacts())
	fmt.Fprintf(w, "  Identity pairs:\t%d\n", len(topo.Identities))
	w.Flush()
	fmt.Println()

	fmt.Println("OPTIMIZATION:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Unknowns:\t%d\n", res.Variables)
	fmt.Fprintf(w, "  Equalities:\t%d\n", res.Equalities)
	fmt.Fprintf(w, "  Inequalities:\t%d\n", res.Inequalities)
	fmt.Fprintf(w, "  Status:\t%s\n", res.Status)
	fmt.Fprintf(w, "  Iterations:\t%d\n", res.Iterations)
	fmt.Fprintf(w, "  Objective:\t%.6g\n", res.Objective)
	fmt.Fprintf(w, "  Deviation from blueprint:\t%.6g\n", solver.Deviation(beams, res.Beams, cfg))
	w.Flush()
	fmt.Println()

	printBeams(res.Beams, species)
	printContacts(res)
	printIdentities(res.Beams, topo)

	if solveChart {
		if chart := diagram.ConvergenceChart(res.History); chart != "" {
			fmt.Println("CONVERGENCE:")
			fmt.Println("───────────────────────────────────────────────────────────────")
			fmt.Println(chart)
			fmt.Println()
		}
	}

	status := "✓ all contacts closed"
	if gap := res.MaxGap(); gap > 1e-4 {
		status = fmt.Sprintf("⚠ max contact gap %.2f mm", gap*1000)
	}
	fmt.Print(diagram.DrawSummaryBox("RESULT", []string{
		fmt.Sprintf("Status: %s", res.Status),
		fmt.Sprintf("Max gap: %.4f mm", res.MaxGap()*1000),
		status,
	}))
	fmt.Println()

	if solveDiagram {
		st := diagram.Structure{Title: solveBlueprint, Beams: res.Beams}
		for _, r := range res.Residuals {
			st.Contacts = append(st.Contacts, r.PointI)
		}
		paths, err := diagram.ExportViews(st, solveOutput)
		if err != nil {
			return fmt.Errorf("export diagram: %w", err)
		}
		for _, p := range paths {
			fmt.Printf("  Drawing exported to: %s\n", p)
		}
	}

	if solveSTL != "" {
		if err := exportSTL(res.Beams, solveSTL); err != nil {
			return err
		}
		fmt.Printf("  STL meshes exported to: %s\n", solveSTL)
	}
	return nil
}

func printBeams(beams []beam.Beam, species timber.Species) {
	fmt.Println("SOLVED BEAMS:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tKind\tYaw\tx (m)\ty (m)\tz (m)\tVolume (m³)\tMass (kg)\tMorphology")
	var totalVol, totalMass float64
	for i, b := range beams {
		p := b.Parameters()
		f := beam.FrameOf(b)
		vol := math.NaN()
		if m, err := b.Model(); err == nil {
			vol = m.Volume()
		}
		mass := timber.Mass(species, vol)
		totalVol += vol
		totalMass += mass

		morph := make([]string, 0, len(p.Morphology))
		for _, k := range p.Morphology {
			morph = append(morph, fmt.Sprintf("%s=%.4f", k, p.Values[k]))
		}
		fmt.Fprintf(w, "  %d\t%s\t%.0f°\t%.4f\t%.4f\t%.4f\t%.5f\t%.2f\t%s\n",
			i, b.Kind(), f.RotationZ*180/math.Pi, f.X, f.Y, f.Z, vol, mass, strings.Join(morph, " "))
	}
	w.Flush()
	fmt.Printf("  Total: %.4f m³, %.1f kg of %s\n", totalVol, totalMass, species)
	fmt.Println()
}

func printContacts(res *solver.Result) {
	fmt.Println("CONTACTS:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  Group\tBeam i\tFace i\tBeam j\tFace j\tPoint (m)\tGap (mm)")
	for _, r := range res.Residuals {
		c := r.Contact
		mark := "✓"
		if r.Gap > 1e-4 {
			mark = "⚠"
		}
		fmt.Fprintf(w, "  %s\t%d\t%s[%d]\t%d\t%s[%d]\t(%.3f, %.3f, %.3f)\t%.4f %s\n",
			r.Group, c.I, c.FaceI, c.LocusI, c.J, c.FaceJ, c.LocusJ,
			r.PointI.X, r.PointI.Y, r.PointI.Z, r.Gap*1000, mark)
	}
	w.Flush()
	fmt.Println()
}

func printIdentities(beams []beam.Beam, topo solver.Topology) {
	if len(topo.Identities) == 0 {
		return
	}
	fmt.Println("IDENTICAL BEAMS:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, pair := range topo.Identities {
		pi, pj := beams[pair.I].Parameters(), beams[pair.J].Parameters()
		var diff float64
		for _, k := range pi.Morphology {
			diff = math.Max(diff, math.Abs(pi.Values[k]-pj.Values[k]))
		}
		fmt.Fprintf(w, "  %d = %d\tmax difference %.2e\n", pair.I, pair.J, diff)
	}
	w.Flush()
	fmt.Println()
}

func exportSTL(beams []beam.Beam, dir string) error {
	full := mesh.New("full_scene")
	for i, b := range beams {
		m, err := b.Model()
		if err != nil {
			return fmt.Errorf("beam %d: %w", i, err)
		}
		if err := m.SaveSTL(filepath.Join(dir, fmt.Sprintf("beam_%02d.stl", i))); err != nil {
			return err
		}
		full.Add(m)
	}
	return full.SaveSTL(filepath.Join(dir, "full_scene.stl"))
}
