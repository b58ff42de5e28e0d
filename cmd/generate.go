package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/timbertrace/internal/blueprint"
	"github.com/alexiusacademia/timbertrace/internal/config"
	"github.com/alexiusacademia/timbertrace/internal/scene"
	"github.com/alexiusacademia/timbertrace/internal/timber"
)

var (
	genConfigFile  string
	genWriteConfig bool

	// Overrides of the configuration file
	genBlueprint  string
	genScenes     int
	genOutput     string
	genPerturb    float64
	genSeedOffset int64
	genSpecies    string
	genHard       bool
	genNoSTL      bool
	genDiagram    bool
	genTimeout    time.Duration
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a dataset of solved structures",
	Long: `Generate a dataset from one blueprint. Every scene is built with its
own seed, its morphology is perturbed, the structure is solved and the
result is exported:

  <output>/scene_0000/metadata.json   beam types, parameters, topology
  <output>/scene_0000/beam_00.stl     one mesh per beam
  <output>/scene_0000/full_scene.stl  all beams
  <output>/index.json                 successful scenes
  <output>/failed_scenes.json         skipped scenes and why

Settings come from a YAML file (--config) and are overridden by flags.

Examples:
  # 100 Pfettendach scenes with defaults
  timbertrace generate -n 100 -o training_data

  # Print a configuration template
  timbertrace generate --write-config > dataset.yaml

  # Run from a file, hard contacts
  timbertrace generate --config dataset.yaml --hard`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&genConfigFile, "config", "c", "", "YAML configuration file")
	generateCmd.Flags().BoolVar(&genWriteConfig, "write-config", false, "Print the effective configuration as YAML and exit")

	generateCmd.Flags().StringVarP(&genBlueprint, "blueprint", "b", "", "Blueprint name")
	generateCmd.Flags().IntVarP(&genScenes, "scenes", "n", 0, "Number of scenes")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Dataset directory")
	generateCmd.Flags().Float64VarP(&genPerturb, "perturb", "p", 0, "Morphology perturbation as fraction of each bound")
	generateCmd.Flags().Int64Var(&genSeedOffset, "seed-offset", 0, "Added to the scene number to form its seed")
	generateCmd.Flags().StringVar(&genSpecies, "species", "", "Wood species for mass")
	generateCmd.Flags().BoolVar(&genHard, "hard", false, "Enforce contacts as equalities")
	generateCmd.Flags().BoolVar(&genNoSTL, "no-stl", false, "Skip STL export")
	generateCmd.Flags().BoolVar(&genDiagram, "diagram", false, "Export elevation and plan drawings per scene")
	generateCmd.Flags().DurationVar(&genTimeout, "timeout", 0, "Per scene solve timeout (0 disables)")
}

// loadGenerateConfig merges the configuration file and explicitly set flags.
func loadGenerateConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if genConfigFile != "" {
		var err error
		if cfg, err = config.Load(genConfigFile); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("blueprint") {
		cfg.Blueprint = genBlueprint
	}
	if flags.Changed("scenes") {
		cfg.Scenes = genScenes
	}
	if flags.Changed("output") {
		cfg.OutputDir = genOutput
	}
	if flags.Changed("perturb") {
		cfg.Perturbation = genPerturb
	}
	if flags.Changed("seed-offset") {
		cfg.SeedOffset = genSeedOffset
	}
	if flags.Changed("species") {
		cfg.Species = genSpecies
	}
	if flags.Changed("hard") {
		cfg.Solver.Mode = "soft"
		if genHard {
			cfg.Solver.Mode = "hard"
		}
	}
	if flags.Changed("no-stl") {
		cfg.Export.STL = !genNoSTL
	}
	if flags.Changed("diagram") {
		cfg.Export.Diagram = genDiagram
	}
	if flags.Changed("timeout") {
		cfg.Timeout = genTimeout
	}
	return cfg, cfg.Validate()
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadGenerateConfig(cmd)
	if err != nil {
		return err
	}
	if genWriteConfig {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	logger := newLogger()
	solverCfg, err := cfg.SolverConfig(logger)
	if err != nil {
		return err
	}
	build, err := blueprint.New(cfg.Blueprint, cfg.Options)
	if err != nil {
		return err
	}
	species, err := timber.Parse(cfg.Species)
	if err != nil {
		return err
	}

	gen := &scene.Generator{
		Build:        build,
		Blueprint:    cfg.Blueprint,
		Perturbation: cfg.Perturbation,
		SeedOffset:   cfg.SeedOffset,
		Solver:       solverCfg,
		Species:      species,
		OutputDir:    cfg.OutputDir,
		WriteSTL:     cfg.Export.STL,
		WriteDiagram: cfg.Export.Diagram,
		Timeout:      cfg.Timeout,
		Logger:       logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	idx, err := gen.Run(ctx, cfg.Scenes)
	if idx != nil {
		fmt.Println()
		fmt.Println("DATASET:")
		fmt.Println("───────────────────────────────────────────────────────────────")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  Directory:\t%s\n", cfg.OutputDir)
		fmt.Fprintf(w, "  Blueprint:\t%s\n", cfg.Blueprint)
		fmt.Fprintf(w, "  Scenes:\t%d\n", idx.NumScenes)
		fmt.Fprintf(w, "  Successful:\t%d\n", idx.NumSuccessful)
		fmt.Fprintf(w, "  Failed:\t%d\n", idx.NumFailed)
		fmt.Fprintf(w, "  Elapsed:\t%s\n", time.Since(start).Round(time.Millisecond))
		w.Flush()
		for _, f := range idx.Failed {
			fmt.Printf("  ⚠ %s: %s\n", scene.SceneDir(f.SceneID), f.Error)
		}
		fmt.Println()
	}
	return err
}
