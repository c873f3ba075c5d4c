package sim

import "netnexus-sim/internal/telemetry"

// maxEvents bounds the in-memory event log served to queries.
const maxEvents = 200

// Events returns a copy of the recent event log, oldest first.
func (s *Simulator) Events() []telemetry.EventRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]telemetry.EventRow, len(s.events))
	copy(events, s.events)
	return events
}

// emit records an event and forwards it to the writer. Callers hold s.mu.
func (s *Simulator) emit(kind, level, msg string, node string, amount float64) telemetry.EventRow {
	ev := s.rows.Event(kind, level, msg, s.now().UTC())
	ev.NodeID = node
	ev.Amount = amount
	s.events = append(s.events, ev)
	if len(s.events) > maxEvents {
		s.events = append(s.events[:0], s.events[len(s.events)-maxEvents:]...)
	}
	s.pending = append(s.pending, ev)
	return ev
}
