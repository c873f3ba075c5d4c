package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"netnexus-sim/internal/admin"
	"netnexus-sim/internal/config"
	"netnexus-sim/internal/logging"
	"netnexus-sim/internal/scenario"
	"netnexus-sim/internal/sim"
)

var (
	simConfigPath   string
	simScenario     string
	simScenarioFile string
	simPrintOnly    bool
	simTUI          string
	simLogFile      string
	simHeadless     bool
	simTicks        int
	simNoAdmin      bool
	simKeepRunning  bool
	simSeed         int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time traffic simulator",
	Long:  "simulate starts a session, serves the admin UI and streams state, node load and event rows to the configured writers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateTUIFlag(simTUI); err != nil {
			return err
		}
		cfg, err := config.Load(simConfigPath)
		if err != nil {
			return err
		}
		if simScenario != "" {
			cfg.Scenario = simScenario
		}
		if simScenarioFile != "" {
			cfg.ScenarioFile = simScenarioFile
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = simSeed
		}
		scn, err := scenario.Resolve(cfg.Scenario, cfg.ScenarioFile)
		if err != nil {
			return err
		}

		var logOut io.Writer
		if !simHeadless && wantTUI(simTUI, simPrintOnly) {
			// the TUI owns the terminal
			logOut = io.Discard
		}
		log := logging.New(logOut, cfg.Log.Level, cfg.Log.Format)
		slog.SetDefault(log)
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		if simHeadless {
			return runHeadless(ctx, cfg, scn)
		}
		return runInteractive(ctx, cfg, scn, log)
	},
}

// runHeadless steps a fixed number of ticks as fast as possible and prints
// the final state as JSON.
func runHeadless(ctx context.Context, cfg *config.SimulationConfig, scn *scenario.Scenario) error {
	writer, _, cleanup, err := newWriters(cfg, scn, writerOptions{printOnly: simPrintOnly, logFile: simLogFile})
	if err != nil {
		return err
	}
	defer cleanup()
	simulator, err := sim.NewSimulator(cfg, scn, writer)
	if err != nil {
		return err
	}
	st := simulator.RunTicks(ctx, simTicks)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}

func runInteractive(ctx context.Context, cfg *config.SimulationConfig, scn *scenario.Scenario, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var hub *admin.Hub
	if !simNoAdmin {
		hub = admin.NewHub(log)
		go hub.Run(ctx)
	}
	useTUI := wantTUI(simTUI, simPrintOnly)
	writer, tui, cleanup, err := newWriters(cfg, scn, writerOptions{
		printOnly: simPrintOnly,
		tui:       useTUI,
		logFile:   simLogFile,
		hub:       hub,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	callbacks := sim.Callbacks{
		OnVictory: func(fs sim.FinalStats) {
			log.Info("victory", "capacity", fs.Capacity, "uptime", fs.Uptime, "nodes", fs.NodesBuilt, "game_time", fs.GameTime)
			if !simKeepRunning {
				cancel()
			}
		},
		OnFailure: func(reason string) {
			log.Warn("failure", "reason", reason)
			if !simKeepRunning {
				cancel()
			}
		},
	}
	opts := []sim.Option{sim.WithCallbacks(callbacks)}
	if fp, ok := writer.(sim.FramePublisher); ok {
		opts = append(opts, sim.WithFramePublisher(fp))
	}
	simulator, err := sim.NewSimulator(cfg, scn, writer, opts...)
	if err != nil {
		return err
	}

	if hub != nil {
		srv := admin.NewServer(simulator, hub, log)
		go func() {
			if err := srv.Start(ctx, cfg.Admin.Addr); err != nil {
				log.Error("admin server failed", "err", err)
				return
			}
		}()
		if tui != nil {
			tui.SetAdminStatus(true)
		}
	}

	if err := simulator.Run(ctx); err != nil {
		return err
	}
	st := simulator.State()
	log.Info("simulation stopped", "ticks", st.Tick, "outcome", st.Outcome, "reason", st.Reason)
	return nil
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	f.StringVar(&simScenario, "scenario", "", "Built-in scenario name (see `scenarios`)")
	f.StringVar(&simScenarioFile, "scenario-file", "", "Path to a scenario YAML file")
	f.BoolVar(&simPrintOnly, "print-only", false, "Print rows to STDOUT instead of writing to GreptimeDB")
	f.StringVar(&simTUI, "tui", "auto", "Terminal UI: auto, on or off")
	f.StringVar(&simLogFile, "log-file", "", "Path prefix for JSONL exports (.state, .nodes, .events)")
	f.BoolVar(&simHeadless, "headless", false, "Step --ticks ticks without wall-clock pacing and print the final state")
	f.IntVar(&simTicks, "ticks", 600, "Ticks to run in headless mode")
	f.BoolVar(&simNoAdmin, "no-admin", false, "Do not serve the admin UI")
	f.BoolVar(&simKeepRunning, "keep-running", false, "Keep simulating after victory or failure")
	f.Int64Var(&simSeed, "seed", 0, "Random seed; 0 seeds from the clock")
}

func validateTUIFlag(v string) error {
	switch v {
	case "auto", "on", "off":
		return nil
	}
	return fmt.Errorf("invalid --tui %q: want auto, on or off", v)
}
