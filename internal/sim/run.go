package sim

import (
	"context"
	"time"

	"netnexus-sim/internal/logging"
	"netnexus-sim/internal/metrics"
	"netnexus-sim/internal/particles"
	"netnexus-sim/internal/telemetry"
)

// Run drives the session until ctx is done: the simulation tick, the income
// tick, the animation frame and queued commands all run on this goroutine.
// Pending commands are applied before each tick. Cancellation clears the
// in-flight particles, drops the session's metric series and returns nil
// once pending hooks have finished.
func (s *Simulator) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)
	log.Info("starting simulator",
		"session", s.session,
		"scenario", s.scn.Name,
		"tick_interval", s.cfg.TickInterval,
		"frame_interval", s.cfg.FrameInterval)

	s.running.Store(true)
	defer metrics.Forget(s.session)
	defer s.running.Store(false)
	defer s.hooksWG.Wait()
	defer s.markStopped()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	income := time.NewTicker(s.cfg.IncomeInterval)
	defer income.Stop()
	frame := time.NewTicker(s.cfg.FrameInterval)
	defer frame.Stop()

	lastIncome := time.Now()
	lastFrame := time.Now()
	for {
		select {
		case <-ticker.C:
			s.drain(ctx)
			s.Step(ctx)
		case now := <-income.C:
			s.AccrueIncome(ctx, now.Sub(lastIncome))
			lastIncome = now
		case now := <-frame.C:
			s.Animate(now.Sub(lastFrame))
			lastFrame = now
		case cmd := <-s.queue.C():
			s.Apply(ctx, cmd)
		case <-ctx.Done():
			s.drain(ctx)
			s.mu.Lock()
			s.vis.Reset()
			s.frame = s.vis.Frame()
			s.mu.Unlock()
			log.Info("stopping simulator", "session", s.session, "ticks", s.State().Tick)
			return nil
		}
	}
}

// RunTicks steps the session n times without waiting on wall time. Income is
// accrued for the game time each tick represents.
func (s *Simulator) RunTicks(ctx context.Context, n int) State {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		s.drain(ctx)
		s.Step(ctx)
		s.AccrueIncome(ctx, s.cfg.TickInterval)
	}
	return s.State()
}

// Animate advances the particle visualizer by dt and publishes the frame.
func (s *Simulator) Animate(dt time.Duration) particles.Frame {
	s.mu.Lock()
	f := s.vis.Step(dt)
	s.frame = f
	live := s.vis.Len()
	s.mu.Unlock()

	if s.frames != nil {
		s.frames.PublishFrame(f)
	}
	metrics.RecordParticles(s.session, live)
	return f
}

func (s *Simulator) drain(ctx context.Context) {
	for {
		cmd, ok := s.queue.TryDequeue()
		if !ok {
			return
		}
		s.Apply(ctx, cmd)
	}
}

// write hands one tick's rows to the writer. Optional row kinds go only to
// writers that support them.
func (s *Simulator) write(ctx context.Context, row telemetry.StateRow, nodes []telemetry.NodeLoadRow, events []telemetry.EventRow) {
	if s.writer == nil {
		return
	}
	log := logging.FromContext(ctx)
	if err := s.writer.WriteState(row); err != nil {
		log.Error("state write failed", "tick", row.Tick, "err", err)
	}
	if nw, ok := s.writer.(nodeLoadWriter); ok && len(nodes) > 0 {
		if err := nw.WriteNodeLoads(nodes); err != nil {
			log.Error("node load write failed", "tick", row.Tick, "err", err)
		}
	}
	s.writeEvents(ctx, events)
}

func (s *Simulator) writeEvents(ctx context.Context, events []telemetry.EventRow) {
	ew, ok := s.writer.(eventWriter)
	if !ok {
		return
	}
	for _, ev := range events {
		if err := ew.WriteEvent(ev); err != nil {
			logging.FromContext(ctx).Error("event write failed", "event", ev.Type, "err", err)
		}
	}
}

func recordTick(session string, st State, nodes []telemetry.NodeLoadRow, took time.Duration) {
	metrics.RecordTick(session, metrics.Sample{
		Uptime:      st.Uptime,
		Traffic:     st.CurrentTraffic,
		Capacity:    st.TotalCapacity,
		LoadPercent: st.LoadPercent,
		Dropped:     st.Dropped,
		Budget:      st.Budget,
		Downtime:    st.DowntimeSeconds,
	}, took)
	for _, n := range nodes {
		metrics.RecordNodeLoad(session, n.NodeID, n.NodeType, n.Load)
	}
}

func recordCommand(session string, cmd CommandType, ok bool) {
	metrics.RecordCommand(session, string(cmd), ok)
}

func recordBudget(session string, budget float64) {
	metrics.RecordBudget(session, budget)
}
