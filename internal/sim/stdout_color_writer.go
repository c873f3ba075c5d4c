// ColorStdoutWriter prints human-friendly, colorized simulation state to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"netnexus-sim/internal/config"
	"netnexus-sim/internal/scenario"
	"netnexus-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// ColorStdoutWriter prints state and event rows using ANSI colors.
type ColorStdoutWriter struct {
	cfg        *config.SimulationConfig
	scn        *scenario.Scenario
	out        io.Writer
	once       sync.Once
	typeColors map[string]string
	colorIdx   int
}

var typePalette = []string{colorBlue, colorMagenta, colorCyan, colorYellow, colorGreen, colorRed}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.SimulationConfig, scn *scenario.Scenario) *ColorStdoutWriter {
	return &ColorStdoutWriter{
		cfg:        cfg,
		scn:        scn,
		out:        os.Stdout,
		typeColors: make(map[string]string),
	}
}

func (w *ColorStdoutWriter) getTypeColor(id string) string {
	if c, ok := w.typeColors[id]; ok {
		return c
	}
	c := typePalette[w.colorIdx%len(typePalette)]
	w.typeColors[id] = c
	w.colorIdx++
	return c
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}

	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Starting Budget:\t$%.0f\n", w.cfg.StartingBudget)
	fmt.Fprintf(tw, "Income:\t$%.0f/s\n", w.cfg.IncomePerSecond)
	fmt.Fprintf(tw, "Tick Interval:\t%s\n", w.cfg.TickInterval)
	fmt.Fprintf(tw, "Target Capacity:\t%.0f req/s\n", w.cfg.TargetCapacity)
	fmt.Fprintf(tw, "Target Uptime:\t%.1f%%\n", w.cfg.TargetUptime)
	fmt.Fprintf(tw, "Max Downtime:\t%.0fs\n", w.cfg.MaxDowntime)
	fmt.Fprintf(tw, "Forward Depth:\t%d\n", w.cfg.ForwardDepth())
	tw.Flush()

	if w.scn != nil {
		fmt.Fprintf(w.out, "\nScenario %s: %s\n", w.scn.Name, w.scn.Description)
		tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Type\tName\tCapacity\tCost\n")
		for _, t := range w.scn.NodeTypes {
			col := w.getTypeColor(t.ID)
			fmt.Fprintf(tw, "%s%s%s\t%s\t%.0f\t$%.0f\n", col, t.ID, colorReset, t.Name, t.Capacity, t.Cost)
		}
		tw.Flush()
	}
	fmt.Fprintln(w.out)
}

func loadColor(pct float64) string {
	switch {
	case pct > 100:
		return colorRed
	case pct > 80:
		return colorYellow
	case pct > 50:
		return colorBlue
	default:
		return colorGreen
	}
}

// WriteState prints one tick of simulation state.
func (w *ColorStdoutWriter) WriteState(row telemetry.StateRow) error {
	w.once.Do(w.printOverview)

	statusColor := colorGreen
	if row.Status != "STABLE" {
		statusColor = colorRed
	}
	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%stick=%d%s ", colorGray, row.Tick, colorReset)
	if row.Phase != "" {
		fmt.Fprintf(w.out, "%sphase=%s%s ", colorMagenta, row.Phase, colorReset)
	}
	fmt.Fprintf(w.out, "%straffic=%.0f%s ", colorCyan, row.Traffic, colorReset)
	fmt.Fprintf(w.out, "%scapacity=%.0f%s ", colorBlue, row.Capacity, colorReset)
	fmt.Fprintf(w.out, "%sload=%.1f%%%s ", loadColor(row.LoadPercent), row.LoadPercent, colorReset)
	if row.Dropped > 0 {
		fmt.Fprintf(w.out, "%sdropped=%.0f%s ", colorRed, row.Dropped, colorReset)
	}
	fmt.Fprintf(w.out, "%suptime=%.2f%%%s ", statusColor, row.Uptime, colorReset)
	fmt.Fprintf(w.out, "%sdowntime=%.1fs%s ", colorYellow, row.Downtime, colorReset)
	fmt.Fprintf(w.out, "%sbudget=$%.0f%s ", colorGreen, row.Budget, colorReset)
	fmt.Fprintf(w.out, "nodes=%d links=%d ", row.Nodes, row.Connections)
	fmt.Fprintf(w.out, "%sstatus=%s%s", statusColor, row.Status, colorReset)
	fmt.Fprintln(w.out)
	return nil
}

// WriteEvent prints an operator advisory or outcome.
func (w *ColorStdoutWriter) WriteEvent(e telemetry.EventRow) error {
	w.once.Do(w.printOverview)
	col := colorCyan
	switch e.Level {
	case telemetry.LevelError:
		col = colorRed
	case telemetry.LevelSuccess:
		col = colorGreen
	}
	fmt.Fprintf(w.out, "%s[%s]%s %s%s%s %s",
		colorGray, e.Timestamp.Format(time.RFC3339), colorReset,
		col, e.Type, colorReset, e.Message)
	if e.NodeID != "" {
		fmt.Fprintf(w.out, " node=%s", e.NodeID)
	}
	fmt.Fprintln(w.out)
	return nil
}
