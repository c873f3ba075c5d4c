package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"netnexus-sim/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios [name]",
	Short: "List built-in scenarios or print one as YAML",
	Long:  "scenarios lists the built-in traffic stories. With a name it prints that scenario as YAML, ready to edit and pass to --scenario-file.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 1 {
			scn, err := scenario.Get(args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(scn)
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tPHASES\tPEAK\tDESCRIPTION")
		for _, name := range scenario.Names() {
			scn, err := scenario.Get(name)
			if err != nil {
				return err
			}
			var peak float64
			for _, p := range scn.TrafficPatterns {
				peak = max(peak, p.RequestsPerSecond)
			}
			fmt.Fprintf(tw, "%s\t%d\t%.0f req/s\t%s\n", name, len(scn.Phases), peak, scn.Description)
		}
		return tw.Flush()
	},
}
