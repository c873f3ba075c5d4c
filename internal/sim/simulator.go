// Simulator orchestrating the network, traffic and uptime per tick
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"netnexus-sim/internal/config"
	"netnexus-sim/internal/health"
	"netnexus-sim/internal/logging"
	"netnexus-sim/internal/network"
	"netnexus-sim/internal/particles"
	"netnexus-sim/internal/scenario"
	"netnexus-sim/internal/telemetry"
	"netnexus-sim/internal/traffic"
)

// State is a detached copy of the simulation served to queries.
type State struct {
	SessionID       string               `json:"session_id"`
	Scenario        string               `json:"scenario"`
	Phase           string               `json:"phase"`
	Tick            int64                `json:"tick"`
	GameTime        float64              `json:"game_time"`
	CurrentTraffic  float64              `json:"current_traffic"`
	SmoothedTraffic float64              `json:"smoothed_traffic"`
	TotalCapacity   float64              `json:"total_capacity"`
	LoadPercent     float64              `json:"load_percent"`
	Assigned        float64              `json:"assigned"`
	Dropped         float64              `json:"dropped"`
	Uptime          float64              `json:"uptime"`
	SmoothedUptime  float64              `json:"smoothed_uptime"`
	DowntimeSeconds float64              `json:"downtime_seconds"`
	Budget          float64              `json:"budget"`
	Band            string               `json:"band"`
	Status          string               `json:"status"`
	Outcome         Outcome              `json:"outcome,omitempty"`
	Reason          string               `json:"reason,omitempty"`
	Internet        network.NodeView     `json:"internet"`
	Nodes           []network.NodeView   `json:"nodes"`
	Connections     []network.Connection `json:"connections"`
}

// Simulator owns one session. Mutations happen on the goroutine running Run
// (or the caller of Step in headless use); queries may come from anywhere.
type Simulator struct {
	cfg      *config.SimulationConfig
	scn      *scenario.Scenario
	session  string
	rows     *telemetry.Builder
	rng      *rand.Rand
	now      func() time.Time
	writer   StateWriter
	frames   FramePublisher
	queue    *CommandQueue
	running  atomic.Bool
	stopped  chan struct{}
	stopOnce sync.Once
	hooksWG  sync.WaitGroup

	callbacks Callbacks

	mu       sync.RWMutex
	budget   *Budget
	net      *network.Network
	traffic  *traffic.Generator
	uptime   *health.Loop
	vis      *particles.Visualizer
	referee  *Referee
	deferred []func()
	phase    string
	tick     int64
	gameTime float64
	report   network.LoadReport
	state    State
	frame    particles.Frame
	events   []telemetry.EventRow
	pending  []telemetry.EventRow
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithCallbacks installs the victory and failure hooks.
func WithCallbacks(cb Callbacks) Option {
	return func(s *Simulator) { s.callbacks = cb }
}

// WithRand injects the random source shared by traffic noise, particles and
// auto-scale placement.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

// WithClock overrides the wall clock used for row timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithFramePublisher receives particle frames from Run.
func WithFramePublisher(p FramePublisher) Option {
	return func(s *Simulator) { s.frames = p }
}

// WithQueueSize sets the command queue buffer.
func WithQueueSize(n int) Option {
	return func(s *Simulator) { s.queue = NewCommandQueue(n) }
}

// NewSimulator builds a session from configuration and a scenario: the
// internet node, the free bootstrap placements and the opening phase.
func NewSimulator(cfg *config.SimulationConfig, scn *scenario.Scenario, writer StateWriter, opts ...Option) (*Simulator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if scn == nil {
		return nil, errors.New("no scenario")
	}
	if err := scn.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scn.Name, err)
	}
	session := cfg.SessionID
	if session == "" {
		session = uuid.New().String()
	}
	s := &Simulator{
		cfg:     cfg,
		scn:     scn,
		session: session,
		rows:    telemetry.NewBuilder(session),
		now:     time.Now,
		writer:  writer,
		queue:   NewCommandQueue(64),
		stopped: make(chan struct{}),
		budget:  NewBudget(cfg.StartingBudget),
	}
	for _, opt := range opts {
		opt(s)
	}
	// Hooks run after the lock is released so they may query the simulator
	// and submit commands.
	s.referee = NewReferee(Thresholds{
		TargetCapacity: cfg.TargetCapacity,
		TargetUptime:   cfg.TargetUptime,
		MaxDowntime:    cfg.MaxDowntime,
	}, Callbacks{
		OnVictory: func(fs FinalStats) {
			if s.callbacks.OnVictory != nil {
				s.deferred = append(s.deferred, func() { s.callbacks.OnVictory(fs) })
			}
		},
		OnFailure: func(reason string) {
			if s.callbacks.OnFailure != nil {
				s.deferred = append(s.deferred, func() { s.callbacks.OnFailure(reason) })
			}
		},
	})
	if s.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		s.rng = rand.New(rand.NewSource(seed))
	}

	var err error
	s.net, err = network.New(scn.NodeTypes, s.budget,
		network.WithBounds(network.Bounds{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height}),
		network.WithMaxForwardDepth(cfg.ForwardDepth()),
	)
	if err != nil {
		return nil, fmt.Errorf("build network: %w", err)
	}
	s.net.CreateInternetNode()
	for i, p := range scn.Bootstrap {
		n, err := s.net.AddNode(p.Type, p.X, p.Y, true)
		if err != nil {
			return nil, fmt.Errorf("bootstrap %d: %w", i, err)
		}
		if p.ConnectInternet {
			if _, err := s.net.Connect(network.InternetID, n.ID); err != nil {
				return nil, fmt.Errorf("bootstrap %d: %w", i, err)
			}
		}
	}

	s.traffic, err = traffic.NewGenerator(scn.TrafficPatterns,
		traffic.WithDefaultRate(cfg.DefaultTraffic),
		traffic.WithSmoothing(cfg.SmoothingFactor),
		traffic.WithNoise(cfg.NoiseFraction),
		traffic.WithSource(s.rng),
	)
	if err != nil {
		return nil, fmt.Errorf("traffic schedule: %w", err)
	}
	s.uptime = health.NewLoop(health.WithRates(cfg.UptimeRates), health.WithSmoothing(cfg.SmoothingFactor))
	s.vis = particles.New(s.rng, cfg.Particles)
	s.phase = scn.FirstPhase()

	if sink, ok := writer.(commandSink); ok {
		sink.SetCommander(s)
	}
	s.publish()
	return s, nil
}

// SessionID identifies the rows written by this simulator.
func (s *Simulator) SessionID() string { return s.session }

// Config returns the configuration the session was built with.
func (s *Simulator) Config() *config.SimulationConfig { return s.cfg }

// Scenario returns the loaded scenario.
func (s *Simulator) Scenario() *scenario.Scenario { return s.scn }

// State returns the latest published state.
func (s *Simulator) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Nodes = append([]network.NodeView(nil), s.state.Nodes...)
	st.Connections = append([]network.Connection(nil), s.state.Connections...)
	return st
}

// Frame returns the latest particle frame.
func (s *Simulator) Frame() particles.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// NodeTypes lists the purchasable node types.
func (s *Simulator) NodeTypes() []network.NodeType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.net.NodeTypes()
}

// Step runs one simulation tick: advance game time, generate traffic,
// distribute it, update uptime, advance the scenario phase and decide the
// outcome. Rows are written after the lock is released.
func (s *Simulator) Step(ctx context.Context) State {
	start := time.Now()
	s.mu.Lock()
	s.tick++
	s.gameTime += s.cfg.TickInterval.Seconds()
	current := s.traffic.Update(s.gameTime)
	rep, err := s.net.UpdateNodeLoads(current)
	if err != nil {
		logging.FromContext(ctx).Error("distribute traffic", "err", err)
	}
	s.report = rep
	loadPct := network.LoadPercent(current, s.net.TotalCapacity())
	s.uptime.Step(loadPct)
	s.advancePhase(current)
	s.publish()
	if outcome, decided := s.referee.Evaluate(s.state); decided {
		s.announce(outcome)
		s.publish()
	}
	st := s.state
	row := s.stateRow()
	snap := s.net.Snapshot()
	nodes := s.rows.NodeLoads(snap, row.Timestamp)
	s.vis.Observe(particles.Sample{Snapshot: snap, Traffic: current, Capacity: s.net.TotalCapacity()})
	events := s.takePending()
	hooks := s.takeDeferred()
	s.mu.Unlock()

	s.write(ctx, row, nodes, events)
	recordTick(s.session, st, nodes, time.Since(start))
	s.runHooks(hooks)
	return st
}

func (s *Simulator) advancePhase(current float64) {
	if s.phase == "" {
		return
	}
	for _, ev := range []scenario.Event{
		{Type: scenario.EventGameTime, Value: s.gameTime},
		{Type: scenario.EventTraffic, Value: current},
		{Type: scenario.EventCapacity, Value: s.net.TotalCapacity()},
	} {
		next, ok := s.scn.NextPhase(s.phase, ev)
		if !ok || next == s.phase {
			continue
		}
		s.phase = next
		msg := next
		if p, ok := s.scn.Phase(next); ok && p.Description != "" {
			msg = p.Description
		}
		s.emit(telemetry.EventPhase, telemetry.LevelInfo, msg, "", 0)
		return
	}
}

func (s *Simulator) announce(outcome Outcome) {
	switch outcome {
	case OutcomeVictory:
		s.emit(telemetry.EventVictory, telemetry.LevelSuccess,
			fmt.Sprintf("infrastructure scaled: %.0f req/s capacity at %.1f%% uptime", s.net.TotalCapacity(), s.uptime.Uptime()), "", 0)
	case OutcomeFailure:
		_, reason := s.referee.Outcome()
		s.emit(telemetry.EventFailure, telemetry.LevelError, reason, "", 0)
	}
}

// publish refreshes the query state. Callers hold s.mu.
func (s *Simulator) publish() {
	snap := s.net.Snapshot()
	current := s.traffic.Current()
	outcome, reason := s.referee.Outcome()
	s.state = State{
		SessionID:       s.session,
		Scenario:        s.scn.Name,
		Phase:           s.phase,
		Tick:            s.tick,
		GameTime:        s.gameTime,
		CurrentTraffic:  current,
		SmoothedTraffic: s.traffic.Smoothed(),
		TotalCapacity:   s.net.TotalCapacity(),
		LoadPercent:     network.LoadPercent(current, s.net.TotalCapacity()),
		Assigned:        s.report.Assigned,
		Dropped:         s.report.Dropped,
		Uptime:          s.uptime.Uptime(),
		SmoothedUptime:  s.uptime.SmoothedUptime(),
		DowntimeSeconds: s.uptime.Downtime(),
		Budget:          s.budget.Balance(),
		Band:            s.uptime.Band().String(),
		Status:          s.uptime.Status(s.cfg.UptimeWarning),
		Outcome:         outcome,
		Reason:          reason,
		Internet:        snap.Internet,
		Nodes:           snap.Nodes,
		Connections:     snap.Connections,
	}
}

func (s *Simulator) stateRow() telemetry.StateRow {
	st := s.state
	return telemetry.StateRow{
		SessionID:       s.session,
		Scenario:        st.Scenario,
		Phase:           st.Phase,
		Status:          st.Status,
		Tick:            st.Tick,
		GameTime:        st.GameTime,
		Traffic:         st.CurrentTraffic,
		SmoothedTraffic: st.SmoothedTraffic,
		Capacity:        st.TotalCapacity,
		LoadPercent:     st.LoadPercent,
		Assigned:        st.Assigned,
		Dropped:         st.Dropped,
		Uptime:          st.Uptime,
		SmoothedUptime:  st.SmoothedUptime,
		Downtime:        st.DowntimeSeconds,
		Budget:          st.Budget,
		Nodes:           len(st.Nodes),
		Connections:     len(st.Connections),
		Timestamp:       s.now().UTC(),
	}
}

func (s *Simulator) takePending() []telemetry.EventRow {
	events := s.pending
	s.pending = nil
	return events
}

// takeDeferred hands over queued hooks. Callers hold s.mu and run the
// result after unlocking.
func (s *Simulator) takeDeferred() []func() {
	fns := s.deferred
	s.deferred = nil
	return fns
}

// runHooks calls fns in order. Under Run they get their own goroutine: the
// loop is the only consumer of the command queue, so a hook that submits a
// command must not block it.
func (s *Simulator) runHooks(fns []func()) {
	if len(fns) == 0 {
		return
	}
	if !s.running.Load() {
		for _, fn := range fns {
			fn()
		}
		return
	}
	s.hooksWG.Add(1)
	go func() {
		defer s.hooksWG.Done()
		for _, fn := range fns {
			fn()
		}
	}()
}

// AccrueIncome credits the per-second income for elapsed wall time.
func (s *Simulator) AccrueIncome(ctx context.Context, elapsed time.Duration) float64 {
	s.mu.Lock()
	paid := s.budget.Accrue(elapsed.Seconds(), s.cfg.IncomePerSecond)
	if paid > 0 {
		if paid >= 10 {
			s.emit(telemetry.EventIncome, telemetry.LevelSuccess, fmt.Sprintf("+$%.0f income", paid), "", paid)
		}
		s.state.Budget = s.budget.Balance()
	}
	budget := s.budget.Balance()
	events := s.takePending()
	s.mu.Unlock()

	s.writeEvents(ctx, events)
	recordBudget(s.session, budget)
	return paid
}

// Abandon gives up the session, reporting failure if nothing was decided.
func (s *Simulator) Abandon(ctx context.Context) Result {
	return s.Submit(ctx, Command{Type: CommandAbandon})
}

func (s *Simulator) markStopped() {
	s.stopOnce.Do(func() { close(s.stopped) })
}
