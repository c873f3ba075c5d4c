package sim

import (
	"context"
	"errors"
	"fmt"

	"netnexus-sim/internal/logging"
	"netnexus-sim/internal/network"
	"netnexus-sim/internal/telemetry"
)

// Submit applies cmd and returns its advisory result. While Run is active
// the command travels through the queue and is applied by the loop
// goroutine; otherwise it is applied directly.
func (s *Simulator) Submit(ctx context.Context, cmd Command) Result {
	if !s.running.Load() {
		return s.Apply(ctx, cmd)
	}
	cmd.reply = make(chan Result, 1)
	if !s.queue.Enqueue(cmd) {
		recordCommand(s.session, cmd.Type, false)
		return Result{Level: telemetry.LevelError, Message: ErrQueueFull.Error()}
	}
	select {
	case res := <-cmd.reply:
		return res
	case <-s.stopped:
		return Result{Level: telemetry.LevelError, Message: ErrSessionClosed.Error()}
	case <-ctx.Done():
		return Result{Level: telemetry.LevelError, Message: ctx.Err().Error()}
	}
}

// Apply executes one command against the session. Rejected commands leave
// the state untouched.
func (s *Simulator) Apply(ctx context.Context, cmd Command) Result {
	s.mu.Lock()
	res := s.apply(cmd)
	s.publish()
	events := s.takePending()
	hooks := s.takeDeferred()
	budget := s.budget.Balance()
	s.mu.Unlock()

	if !res.OK {
		logging.FromContext(ctx).Debug("command rejected", "command", cmd.Type, "reason", res.Message)
	}
	s.writeEvents(ctx, events)
	recordCommand(s.session, cmd.Type, res.OK)
	recordBudget(s.session, budget)
	s.runHooks(hooks)
	if cmd.reply != nil {
		cmd.reply <- res
	}
	return res
}

func (s *Simulator) apply(cmd Command) Result {
	switch cmd.Type {
	case CommandPlace:
		return s.place(cmd)
	case CommandConnect:
		return s.connect(cmd)
	case CommandMove:
		return s.move(cmd)
	case CommandAutoScale:
		return s.autoScale()
	case CommandMaintenance:
		return s.maintain()
	case CommandAdjustBudget:
		return s.adjustBudget(cmd.Amount)
	case CommandAbandon:
		return s.abandon()
	default:
		return s.reject(string(cmd.Type), fmt.Errorf("%w: %q", ErrUnknownCmd, cmd.Type), "")
	}
}

func (s *Simulator) reject(kind string, err error, node string) Result {
	s.emit(kind, telemetry.LevelError, err.Error(), node, 0)
	return Result{Level: telemetry.LevelError, Message: err.Error()}
}

func (s *Simulator) accept(kind, msg string, id network.NodeID, amount float64) Result {
	node := ""
	if id != network.InternetID {
		node = id.String()
	}
	s.emit(kind, telemetry.LevelSuccess, msg, node, amount)
	return Result{OK: true, Level: telemetry.LevelSuccess, Message: msg, NodeID: id}
}

func (s *Simulator) place(cmd Command) Result {
	typ, ok := s.net.NodeType(cmd.NodeType)
	if !ok {
		return s.reject(telemetry.EventPlace, fmt.Errorf("%w: %q", network.ErrUnknownNodeType, cmd.NodeType), "")
	}
	n, err := s.net.AddNode(cmd.NodeType, cmd.X, cmd.Y, false)
	if err != nil {
		if errors.Is(err, network.ErrInsufficientBudget) {
			err = fmt.Errorf("%w: %s costs $%.0f", err, typ.Name, typ.Cost)
		}
		return s.reject(telemetry.EventPlace, err, "")
	}
	return s.accept(telemetry.EventPlace, fmt.Sprintf("%s deployed for $%.0f", typ.Name, typ.Cost), n.ID, typ.Cost)
}

func (s *Simulator) connect(cmd Command) Result {
	c, err := s.net.Connect(cmd.From, cmd.To)
	if err != nil {
		return s.reject(telemetry.EventConnect, err, "")
	}
	msg := fmt.Sprintf("connected %s to %s", c.From, c.To)
	node := c.To
	if node == network.InternetID {
		node = c.From
	}
	return s.accept(telemetry.EventConnect, msg, node, 0)
}

func (s *Simulator) move(cmd Command) Result {
	n, err := s.net.MoveNode(cmd.NodeID, cmd.X, cmd.Y)
	if err != nil {
		return s.reject(telemetry.EventMove, err, cmd.NodeID.String())
	}
	return s.accept(telemetry.EventMove, fmt.Sprintf("moved %s to (%.0f, %.0f)", n.ID, n.X, n.Y), n.ID, 0)
}

// autoScale buys the scenario's scale plan: free nodes at random positions
// in the plan region, left unconnected.
func (s *Simulator) autoScale() Result {
	cost := s.cfg.AutoScaleCost
	if s.budget.Balance() < cost {
		return s.reject(telemetry.EventAutoScale, fmt.Errorf("%w: auto-scale costs $%.0f", network.ErrInsufficientBudget, cost), "")
	}
	load := network.LoadPercent(s.traffic.Current(), s.net.TotalCapacity())
	if load <= s.cfg.AutoScaleTrigger {
		return s.reject(telemetry.EventAutoScale, fmt.Errorf("%w: load %.0f%% of %.0f%%", ErrScaleNotDue, load, s.cfg.AutoScaleTrigger), "")
	}
	plan := s.scn.ScalePlan()
	s.budget.Spend(cost)
	var last network.NodeID
	for _, typ := range plan.Types {
		x := plan.Region.MinX + s.rng.Float64()*(plan.Region.MaxX-plan.Region.MinX)
		y := plan.Region.MinY + s.rng.Float64()*(plan.Region.MaxY-plan.Region.MinY)
		n, err := s.net.AddNode(typ, x, y, true)
		if err != nil {
			// plan types are checked by Scenario.Validate
			continue
		}
		last = n.ID
	}
	return s.accept(telemetry.EventAutoScale, fmt.Sprintf("auto-scaled %d nodes for $%.0f", len(plan.Types), cost), last, cost)
}

func (s *Simulator) maintain() Result {
	s.uptime.Maintain(s.cfg.MaintenanceBoost, s.cfg.MaintenanceRelief)
	return s.accept(telemetry.EventMaintenance,
		fmt.Sprintf("maintenance complete: uptime %.1f%%", s.uptime.Uptime()), network.InternetID, 0)
}

func (s *Simulator) adjustBudget(amount float64) Result {
	s.budget.Credit(amount)
	return s.accept(telemetry.EventBudget, fmt.Sprintf("budget adjusted by $%.0f", amount), network.InternetID, amount)
}

func (s *Simulator) abandon() Result {
	if !s.referee.Abandon() {
		outcome, _ := s.referee.Outcome()
		return Result{Level: telemetry.LevelInfo, Message: fmt.Sprintf("session already ended (%s)", outcome)}
	}
	s.emit(telemetry.EventFailure, telemetry.LevelError, ReasonAbandoned, "", 0)
	return Result{OK: true, Level: telemetry.LevelError, Message: ReasonAbandoned}
}
