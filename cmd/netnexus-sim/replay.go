package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"netnexus-sim/internal/config"
	"netnexus-sim/internal/sim"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
	replayConfig    string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded session export",
	Long:  "replay feeds the state, node load and event rows written by simulate --log-file back into GreptimeDB or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg, err := config.Load(replayConfig)
		if err != nil {
			return err
		}
		writer, err := replayWriter(cfg, replayPrintOnly)
		if err != nil {
			return err
		}
		stats, err := sim.ReplaySession(replayInput, writer, replaySpeed)
		if err != nil {
			return err
		}
		slog.Info("replay finished", "states", stats.States, "node_loads", stats.Nodes, "events", stats.Events)
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Session export prefix or .state file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print rows to STDOUT instead of writing to GreptimeDB")
	replayCmd.Flags().StringVar(&replayConfig, "config", "", "Optional configuration YAML for the GreptimeDB target")
	replayCmd.MarkFlagRequired("input")
}
