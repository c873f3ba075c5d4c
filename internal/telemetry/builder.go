package telemetry

import (
	"time"

	"netnexus-sim/internal/network"
)

// Builder stamps rows with the session they belong to.
type Builder struct {
	SessionID string
}

// NewBuilder creates a row builder for one simulation session.
func NewBuilder(sessionID string) *Builder {
	return &Builder{SessionID: sessionID}
}

// NodeLoads returns one row per placed node. The internet source is skipped
// since its capacity is unbounded.
func (b *Builder) NodeLoads(s network.Snapshot, ts time.Time) []NodeLoadRow {
	rows := make([]NodeLoadRow, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		rows = append(rows, NodeLoadRow{
			SessionID:   b.SessionID,
			NodeID:      n.ID.String(),
			NodeType:    n.Type,
			Capacity:    n.Capacity,
			Load:        n.CurrentLoad,
			LoadPercent: network.LoadPercent(n.CurrentLoad, n.Capacity),
			Health:      n.Health,
			Level:       string(n.Level),
			Timestamp:   ts,
		})
	}
	return rows
}

// Event builds an event row.
func (b *Builder) Event(kind, level, msg string, ts time.Time) EventRow {
	return EventRow{
		SessionID: b.SessionID,
		Type:      kind,
		Level:     level,
		Message:   msg,
		Timestamp: ts,
	}
}
