package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alexiusacademia/timbertrace/internal/version"
)

var (
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "timbertrace",
	Short: "Constraint-based timber roof generator",
	Long: `timbertrace - Timber Roof Structure Solver

A CLI tool that turns rough timber roof blueprints (purlin roofs,
Pfettendach) into geometrically consistent structures by solving a
convex quadratic program, and exports them as labelled 3D datasets.

This tool helps to:
  - Solve a blueprint so every post, purlin and rafter touches exactly
  - Inspect the contact loci and constraints of each beam type
  - Generate perturbed datasets with STL meshes and JSON metadata`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println()
		fmt.Println("  ╔═══════════════════════════════════════════════════════════╗")
		fmt.Println("  ║                                                           ║")
		fmt.Printf("  ║   timbertrace v%-43s║\n", version.Version)
		fmt.Println("  ║   Constraint-based Timber Roof Generator                  ║")
		fmt.Printf("  ║   %s ©  %-36s║\n", version.Author, version.Year)
		fmt.Println("  ║                                                           ║")
		fmt.Println("  ╚═══════════════════════════════════════════════════════════╝")
		fmt.Println()
		fmt.Println("  Features:")
		fmt.Println("    • Posts, purlins and notched rafters with symbolic contact loci")
		fmt.Println("    • Hard and soft contact solving on a convex QP")
		fmt.Println("    • Blueprints: post and beam, rafter on purlin, Pfettendach")
		fmt.Println("    • Dataset generation with STL meshes and metadata")
		fmt.Println()
		fmt.Println("  Use 'timbertrace --help' to see available commands.")
		fmt.Println()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log solver and generator details")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
}

// newLogger returns a console logger on stderr honoring --verbose and --quiet.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case verbose:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}
