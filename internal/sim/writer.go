package sim

import (
	"context"

	"netnexus-sim/internal/particles"
	"netnexus-sim/internal/telemetry"
)

// StateWriter handles per-tick simulation state rows.
type StateWriter interface {
	WriteState(telemetry.StateRow) error
}

// Optional: writers may support node load rows.
type nodeLoadWriter interface {
	WriteNodeLoads([]telemetry.NodeLoadRow) error
}

// Optional: writers may support event rows.
type eventWriter interface {
	WriteEvent(telemetry.EventRow) error
}

// FramePublisher receives particle animation frames.
type FramePublisher interface {
	PublishFrame(particles.Frame)
}

// Commander accepts operator commands. The simulator hands itself to writers
// that implement commandSink so key bindings can reach it.
type Commander interface {
	Submit(ctx context.Context, cmd Command) Result
}

type commandSink interface {
	SetCommander(Commander)
}
