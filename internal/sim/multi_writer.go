package sim

import (
	"netnexus-sim/internal/particles"
	"netnexus-sim/internal/telemetry"
)

// MultiWriter fan-outs state, node load and event rows to multiple writers.
// Optional row kinds only reach the writers that support them.
type MultiWriter struct {
	writers []StateWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...StateWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// WriteState sends a state row to all writers.
func (mw *MultiWriter) WriteState(row telemetry.StateRow) error {
	for _, w := range mw.writers {
		if err := w.WriteState(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteNodeLoads sends node load rows to every writer that accepts them.
func (mw *MultiWriter) WriteNodeLoads(rows []telemetry.NodeLoadRow) error {
	for _, w := range mw.writers {
		if nw, ok := w.(nodeLoadWriter); ok {
			if err := nw.WriteNodeLoads(rows); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteEvent sends an event row to every writer that accepts events.
func (mw *MultiWriter) WriteEvent(row telemetry.EventRow) error {
	for _, w := range mw.writers {
		if ew, ok := w.(eventWriter); ok {
			if err := ew.WriteEvent(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// PublishFrame forwards particle frames to writers that render them.
func (mw *MultiWriter) PublishFrame(f particles.Frame) {
	for _, w := range mw.writers {
		if fp, ok := w.(FramePublisher); ok {
			fp.PublishFrame(f)
		}
	}
}

// SetCommander forwards the command handle to writers that need it.
func (mw *MultiWriter) SetCommander(c Commander) {
	for _, w := range mw.writers {
		if cs, ok := w.(commandSink); ok {
			cs.SetCommander(c)
		}
	}
}
