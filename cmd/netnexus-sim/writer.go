package main

import (
	"os"

	"golang.org/x/term"

	"netnexus-sim/internal/admin"
	"netnexus-sim/internal/config"
	"netnexus-sim/internal/scenario"
	"netnexus-sim/internal/sim"
)

type writerOptions struct {
	printOnly bool
	tui       bool
	logFile   string
	hub       *admin.Hub
}

// newWriters sets up the row writers based on flags and configuration. It
// returns the combined writer, the TUI when one was started and a cleanup
// function closing any resources.
func newWriters(cfg *config.SimulationConfig, scn *scenario.Scenario, opts writerOptions) (sim.StateWriter, *sim.TUIWriter, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	var base sim.StateWriter
	var tui *sim.TUIWriter
	if opts.tui {
		tui = sim.NewTUIWriter(cfg, scn)
		closers = append(closers, tui.Close)
		base = tui
	} else {
		w, err := baseWriter(cfg, scn, opts.printOnly)
		if err != nil {
			return nil, nil, nil, err
		}
		base = w
	}

	ws := []sim.StateWriter{base}
	if opts.logFile != "" {
		fw, err := sim.NewFileWriter(opts.logFile+".state", opts.logFile+".nodes", opts.logFile+".events")
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		closers = append(closers, fw.Close)
		ws = append(ws, fw)
	}
	if opts.hub != nil {
		ws = append(ws, opts.hub)
	}
	if len(ws) == 1 {
		return base, tui, cleanup, nil
	}
	return sim.NewMultiWriter(ws...), tui, cleanup, nil
}

// baseWriter chooses STDOUT or GreptimeDB. STDOUT is colorized on a
// terminal and JSON lines otherwise.
func baseWriter(cfg *config.SimulationConfig, scn *scenario.Scenario, printOnly bool) (sim.StateWriter, error) {
	if printOnly || cfg.Greptime.Endpoint == "" {
		if isTerminal(os.Stdout) {
			return sim.NewColorStdoutWriter(cfg, scn), nil
		}
		return sim.NewJSONStdoutWriter(true), nil
	}
	return sim.NewGreptimeDBWriter(cfg.Greptime.Endpoint, cfg.Greptime.Database)
}

// replayWriter picks the target for replayed rows.
func replayWriter(cfg *config.SimulationConfig, printOnly bool) (sim.StateWriter, error) {
	if printOnly || cfg.Greptime.Endpoint == "" {
		return sim.NewJSONStdoutWriter(true), nil
	}
	return sim.NewGreptimeDBWriter(cfg.Greptime.Endpoint, cfg.Greptime.Database)
}

// wantTUI resolves the --tui flag. auto enables the TUI only when both
// STDIN and STDOUT are terminals and rows are not being printed.
func wantTUI(mode string, printOnly bool) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	}
	return !printOnly && isTerminal(os.Stdout) && isTerminal(os.Stdin)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
