package sim

import (
	"context"
	"errors"

	"netnexus-sim/internal/network"
)

// CommandType names an operator action.
type CommandType string

const (
	CommandPlace        CommandType = "place"
	CommandConnect      CommandType = "connect"
	CommandMove         CommandType = "move"
	CommandAutoScale    CommandType = "auto_scale"
	CommandMaintenance  CommandType = "maintenance"
	CommandAdjustBudget CommandType = "adjust_budget"
	CommandAbandon      CommandType = "abandon"
)

// Command is a mutation requested by the host. Only the fields relevant to
// Type are read.
type Command struct {
	Type     CommandType    `json:"type"`
	NodeType string         `json:"node_type,omitempty"`
	NodeID   network.NodeID `json:"node_id,omitempty"`
	From     network.NodeID `json:"from,omitempty"`
	To       network.NodeID `json:"to,omitempty"`
	X        float64        `json:"x,omitempty"`
	Y        float64        `json:"y,omitempty"`
	Amount   float64        `json:"amount,omitempty"`

	reply chan Result
}

// Result is the advisory outcome of a command, shown to the operator as a
// transient message.
type Result struct {
	OK      bool           `json:"ok"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	NodeID  network.NodeID `json:"node_id,omitempty"`
}

var (
	ErrQueueFull     = errors.New("command queue full")
	ErrUnknownCmd    = errors.New("unknown command")
	ErrScaleNotDue   = errors.New("load below auto-scale trigger")
	ErrSessionClosed = errors.New("simulation has stopped")
)

// CommandQueue carries commands from other goroutines to the simulation
// goroutine.
type CommandQueue struct {
	ch chan Command
}

// NewCommandQueue creates a queue holding up to buffer pending commands.
func NewCommandQueue(buffer int) *CommandQueue {
	if buffer <= 0 {
		buffer = 64
	}
	return &CommandQueue{ch: make(chan Command, buffer)}
}

// Enqueue adds cmd without blocking and reports whether it fit.
func (q *CommandQueue) Enqueue(cmd Command) bool {
	select {
	case q.ch <- cmd:
		return true
	default:
		return false
	}
}

// TryDequeue returns a pending command if there is one.
func (q *CommandQueue) TryDequeue() (Command, bool) {
	select {
	case cmd := <-q.ch:
		return cmd, true
	default:
		return Command{}, false
	}
}

// Next blocks until a command arrives or ctx is done.
func (q *CommandQueue) Next(ctx context.Context) (Command, bool) {
	select {
	case cmd := <-q.ch:
		return cmd, true
	case <-ctx.Done():
		return Command{}, false
	}
}

// Len reports the number of pending commands.
func (q *CommandQueue) Len() int { return len(q.ch) }

// C exposes the receive side for select loops.
func (q *CommandQueue) C() <-chan Command { return q.ch }
