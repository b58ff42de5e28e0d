package cmd

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/timbertrace/internal/beam"
)

var (
	inspectKind     string
	inspectFace     string
	inspectRotation float64
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show parameters, bounds and contact loci of a beam type",
	Long: `Print the parameter model of a beam type: default values, bounds,
the contact loci available on each world face and the inequality rules.

Loci are formulas in the beam's local frame. With --rotation the world
faces are mapped to the local faces of a beam with that yaw.

Examples:
  timbertrace inspect --kind rafter
  timbertrace inspect --kind Pfette --face top
  timbertrace inspect --kind rafter --rotation 180`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectKind, "kind", "k", "rafter", "Beam kind: post, purlin, rafter (or Pfosten, Pfette, Sparren)")
	inspectCmd.Flags().StringVarP(&inspectFace, "face", "f", "", "Only this world face (right, left, front, back, top, bottom)")
	inspectCmd.Flags().Float64VarP(&inspectRotation, "rotation", "r", 0, "Yaw in degrees")
}

func runInspect(cmd *cobra.Command, args []string) error {
	kind, err := beam.ParseKind(inspectKind)
	if err != nil {
		return err
	}
	faces := beam.Faces()
	if inspectFace != "" {
		f, err := beam.ParseFace(inspectFace)
		if err != nil {
			return err
		}
		faces = []beam.Face{f}
	}

	b, err := beam.New(kind)
	if err != nil {
		return err
	}
	theta := inspectRotation * math.Pi / 180
	b.SetParameters(map[string]float64{beam.ParamRotationZ: theta})
	params := b.Parameters()
	bounds := b.Bounds()

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("     BEAM TYPE: %s (%s), label %d\n", kind, kind.GermanName(), int(kind))
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()

	fmt.Println("PARAMETERS:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  Name\tRole\tDefault\tMin\tMax")
	row := func(name, role string) {
		lo, hi := "-", "-"
		if bd, ok := bounds[name]; ok {
			lo, hi = fmt.Sprintf("%g", bd.Min), fmt.Sprintf("%g", bd.Max)
		}
		fmt.Fprintf(w, "  %s\t%s\t%g\t%s\t%s\n", name, role, params.Values[name], lo, hi)
	}
	seen := map[string]bool{}
	for _, k := range params.Pose {
		role := "position"
		if k == beam.ParamRotationZ {
			role = "pose (fixed)"
		}
		row(k, role)
		seen[k] = true
	}
	for _, k := range params.Morphology {
		row(k, "morphology")
		seen[k] = true
	}
	var constants []string
	for k := range params.Values {
		if !seen[k] {
			constants = append(constants, k)
		}
	}
	sort.Strings(constants)
	for _, k := range constants {
		row(k, "constant")
	}
	w.Flush()
	fmt.Println()

	fmt.Printf("CONTACT LOCI (yaw %.0f°, quadrant %d):\n", inspectRotation, beam.Quadrant(theta))
	fmt.Println("───────────────────────────────────────────────────────────────")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  World face\tLocal face\tIndex\tLocus")
	for _, f := range faces {
		local := beam.LocalFace(f, theta)
		loci, err := b.Constraints(f)
		if errors.Is(err, beam.ErrFaceNotImplemented) {
			fmt.Fprintf(w, "  %s\t%s\t-\tnot implemented\n", f, local)
			continue
		}
		if err != nil {
			return err
		}
		for i, l := range loci {
			fmt.Fprintf(w, "  %s\t%s\t%d\t%s\n", f, local, i, l)
		}
	}
	w.Flush()
	fmt.Println()

	if rules := b.Inequalities(); len(rules) > 0 {
		fmt.Println("INEQUALITIES:")
		fmt.Println("───────────────────────────────────────────────────────────────")
		for _, q := range rules {
			fmt.Printf("  %s\n", q)
		}
		fmt.Println()
	}
	return nil
}
