package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/timbertrace/internal/blueprint"
)

var blueprintsCmd = &cobra.Command{
	Use:   "blueprints",
	Short: "List the available structure blueprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println()
		fmt.Println("BLUEPRINTS:")
		fmt.Println("───────────────────────────────────────────────────────────────")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  Name\tBeams\tContacts\tIdentities\tDescription")
		for _, bp := range blueprint.All() {
			build, err := blueprint.New(bp.Name, blueprint.DefaultOptions())
			if err != nil {
				return err
			}
			beams, topo := build(0)
			fmt.Fprintf(w, "  %s\t%d\t%d\t%d\t%s\n", bp.Name, len(beams), topo.NumContacts(), len(topo.Identities), bp.Description)
		}
		w.Flush()
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(blueprintsCmd)
}
