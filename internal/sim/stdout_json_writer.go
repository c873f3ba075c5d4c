package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"netnexus-sim/internal/telemetry"
)

// JSONStdoutWriter prints state, node load and event rows as JSON lines.
type JSONStdoutWriter struct {
	out   io.Writer
	nodes bool
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
// Per-node rows are printed only when withNodes is set.
func NewJSONStdoutWriter(withNodes bool) *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout, nodes: withNodes}
}

func (w *JSONStdoutWriter) emit(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteState outputs a state row in JSON format.
func (w *JSONStdoutWriter) WriteState(row telemetry.StateRow) error {
	return w.emit(row)
}

// WriteNodeLoads outputs node load rows in JSON format.
func (w *JSONStdoutWriter) WriteNodeLoads(rows []telemetry.NodeLoadRow) error {
	if !w.nodes {
		return nil
	}
	for _, r := range rows {
		if err := w.emit(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent outputs an event row in JSON format.
func (w *JSONStdoutWriter) WriteEvent(row telemetry.EventRow) error {
	return w.emit(row)
}
