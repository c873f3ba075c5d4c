// Package particles animates cosmetic traffic tokens along the connection
// graph. It reads topology snapshots and never writes simulation state.
package particles

import (
	"math"
	"slices"
	"time"

	"netnexus-sim/internal/network"
)

// Source supplies randomness. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// Config bounds the particle population.
type Config struct {
	MaxLive             int           `yaml:"max_live"`
	EvictBatch          int           `yaml:"evict_batch"`
	TTL                 time.Duration `yaml:"ttl"`
	ContinueProbability float64       `yaml:"continue_probability"`
}

// DefaultConfig keeps at most ~50 particles alive for 8s each.
var DefaultConfig = Config{
	MaxLive:             50,
	EvictBatch:          10,
	TTL:                 8 * time.Second,
	ContinueProbability: 0.6,
}

const (
	spawnJitter  = 20
	baseHop      = 1200 * time.Millisecond
	hopJitter    = 600 * time.Millisecond
	minSize      = 4
	maxSize      = 10
	maxPerFrame  = 5
	speedFloor   = 0.8
	speedCeiling = 1.5
)

// Sample is what the visualizer knows about the simulation: a detached
// topology copy plus the aggregate figures used for colour and pacing.
type Sample struct {
	Snapshot network.Snapshot
	Traffic  float64
	Capacity float64
}

// LoadPercent of the sample, guarded against zero capacity.
func (s Sample) LoadPercent() float64 { return network.LoadPercent(s.Traffic, s.Capacity) }

type particle struct {
	id       uint64
	from, to network.NodeID
	x0, y0   float64
	x1, y1   float64
	x, y     float64
	progress float64
	size     float64
	color    string
	born     time.Duration
	hopStart time.Duration
	duration time.Duration
	hops     int
	done     bool
}

// View is the render-ready state of one particle.
type View struct {
	ID       uint64         `json:"id"`
	From     network.NodeID `json:"from"`
	To       network.NodeID `json:"to"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Size     float64        `json:"size"`
	Color    string         `json:"color"`
	Progress float64        `json:"progress"`
	Hops     int            `json:"hops"`
}

// Frame is one render step: the particles plus the topology they move on.
type Frame struct {
	Elapsed     time.Duration        `json:"elapsed"`
	Traffic     float64              `json:"traffic"`
	LoadPercent float64              `json:"load_percent"`
	Internet    network.NodeView     `json:"internet"`
	Nodes       []network.NodeView   `json:"nodes"`
	Connections []network.Connection `json:"connections"`
	Particles   []View               `json:"particles"`
}

// Visualizer owns the live particles. It keeps its own clock, advanced by
// Advance, so animation is independent of the simulation tick.
type Visualizer struct {
	cfg    Config
	rng    Source
	sample Sample
	now    time.Duration
	nextID uint64
	live   []*particle
}

// New returns an empty visualizer. Zero config fields take defaults.
func New(rng Source, cfg Config) *Visualizer {
	if cfg.MaxLive <= 0 {
		cfg.MaxLive = DefaultConfig.MaxLive
	}
	if cfg.EvictBatch <= 0 {
		cfg.EvictBatch = DefaultConfig.EvictBatch
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig.TTL
	}
	if cfg.ContinueProbability < 0 || cfg.ContinueProbability > 1 {
		cfg.ContinueProbability = DefaultConfig.ContinueProbability
	}
	return &Visualizer{cfg: cfg, rng: rng}
}

// Observe replaces the sample used for spawning and routing.
func (v *Visualizer) Observe(s Sample) { v.sample = s }

// SpawnPlan returns how many spawn attempts to make this frame and the
// chance each one succeeds.
func SpawnPlan(traffic float64) (attempts int, chance float64) {
	chance = math.Max(0.1, math.Min(traffic/1000, 1))
	attempts = 1
	switch {
	case traffic > 10000:
		attempts = min(int(math.Floor(traffic/5000)), maxPerFrame)
		chance = 0.8
	case traffic > 5000:
		attempts = 2
		chance = 0.6
	case traffic > 2000:
		chance = 0.4
	}
	return attempts, chance
}

// Color picks the particle colour for a load percentage.
func Color(loadPct float64) string {
	switch {
	case loadPct > 100:
		return "#ef4444"
	case loadPct > 80:
		return "#f59e0b"
	case loadPct > 50:
		return "#3b82f6"
	case loadPct > 25:
		return "#10b981"
	default:
		return "#6b7280"
	}
}

// Size grows with traffic between 4 and 10.
func Size(traffic float64) float64 {
	return math.Max(minSize, math.Min(maxSize, minSize+traffic/2000))
}

// HopDuration is the travel time of one hop for a uniform sample r. Busier
// networks move particles slightly faster.
func HopDuration(r, loadPct float64) time.Duration {
	speed := math.Max(speedFloor, math.Min(speedCeiling, 1+(loadPct-50)/200))
	d := float64(baseHop) + r*float64(hopJitter)
	return time.Duration(d / speed)
}

// EaseOutCubic maps linear progress onto a decelerating curve.
func EaseOutCubic(p float64) float64 {
	return 1 - math.Pow(1-p, 3)
}

// Spawn rolls this frame's spawns and returns how many particles started.
// Nothing spawns while the internet has no links.
func (v *Visualizer) Spawn() int {
	in := v.sample.Snapshot.Internet
	if !in.IsInternet || len(in.Connections) == 0 {
		return 0
	}
	attempts, chance := SpawnPlan(v.sample.Traffic)
	spawned := 0
	for i := 0; i < attempts; i++ {
		if v.rng.Float64() < chance && v.spawnOne() {
			spawned++
		}
	}
	return spawned
}

func (v *Visualizer) spawnOne() bool {
	in := v.sample.Snapshot.Internet
	target, ok := v.sample.Snapshot.Lookup(in.Connections[v.rng.Intn(len(in.Connections))])
	if !ok {
		return false
	}
	v.nextID++
	p := &particle{
		id:    v.nextID,
		size:  Size(v.sample.Traffic),
		color: Color(v.sample.LoadPercent()),
		born:  v.now,
	}
	x := in.X + (v.rng.Float64()-0.5)*spawnJitter
	y := in.Y + (v.rng.Float64()-0.5)*spawnJitter
	v.startHop(p, in.ID, x, y, target)
	v.live = append(v.live, p)
	return true
}

func (v *Visualizer) startHop(p *particle, from network.NodeID, x, y float64, to network.NodeView) {
	p.from, p.to = from, to.ID
	p.x0, p.y0 = x, y
	p.x1, p.y1 = to.X, to.Y
	p.x, p.y = x, y
	p.progress = 0
	p.hopStart = v.now
	p.duration = HopDuration(v.rng.Float64(), v.sample.LoadPercent())
}

// Advance moves the clock by dt, updates positions and routes particles
// that reached the end of their hop. Finished particles are removed.
func (v *Visualizer) Advance(dt time.Duration) {
	if dt > 0 {
		v.now += dt
	}
	for _, p := range v.live {
		elapsed := v.now - p.hopStart
		p.progress = math.Min(float64(elapsed)/float64(p.duration), 1)
		e := EaseOutCubic(p.progress)
		p.x = p.x0 + (p.x1-p.x0)*e
		p.y = p.y0 + (p.y1-p.y0)*e
		if p.progress >= 1 {
			v.route(p)
		}
	}
	v.live = slices.DeleteFunc(v.live, func(p *particle) bool { return p.done })
}

// route continues p from its current node or marks it done.
func (v *Visualizer) route(p *particle) {
	at, ok := v.sample.Snapshot.Lookup(p.to)
	if !ok {
		p.done = true
		return
	}
	var next []network.NodeID
	for _, id := range at.Connections {
		if id != p.from && id != network.InternetID {
			next = append(next, id)
		}
	}
	if len(next) == 0 || v.rng.Float64() >= v.cfg.ContinueProbability {
		p.done = true
		return
	}
	to, ok := v.sample.Snapshot.Lookup(next[v.rng.Intn(len(next))])
	if !ok {
		p.done = true
		return
	}
	p.hops++
	v.startHop(p, at.ID, at.X, at.Y, to)
}

// Sweep drops particles older than the TTL and, above MaxLive, the oldest
// EvictBatch of the rest.
func (v *Visualizer) Sweep() {
	v.live = slices.DeleteFunc(v.live, func(p *particle) bool { return v.now-p.born > v.cfg.TTL })
	if len(v.live) <= v.cfg.MaxLive {
		return
	}
	slices.SortStableFunc(v.live, func(a, b *particle) int {
		switch {
		case a.born < b.born:
			return -1
		case a.born > b.born:
			return 1
		}
		return 0
	})
	n := min(v.cfg.EvictBatch, len(v.live))
	v.live = slices.Delete(v.live, 0, n)
}

// Step is one animation frame: advance, spawn, sweep.
func (v *Visualizer) Step(dt time.Duration) Frame {
	v.Advance(dt)
	v.Spawn()
	v.Sweep()
	return v.Frame()
}

// Frame renders the current state.
func (v *Visualizer) Frame() Frame {
	f := Frame{
		Elapsed:     v.now,
		Traffic:     v.sample.Traffic,
		LoadPercent: v.sample.LoadPercent(),
		Internet:    v.sample.Snapshot.Internet,
		Nodes:       v.sample.Snapshot.Nodes,
		Connections: v.sample.Snapshot.Connections,
		Particles:   make([]View, 0, len(v.live)),
	}
	for _, p := range v.live {
		f.Particles = append(f.Particles, View{
			ID:       p.id,
			From:     p.from,
			To:       p.to,
			X:        p.x,
			Y:        p.y,
			Size:     p.size,
			Color:    p.color,
			Progress: p.progress,
			Hops:     p.hops,
		})
	}
	return f
}

// Len reports the live particle count.
func (v *Visualizer) Len() int { return len(v.live) }

// Reset drops every in-flight particle.
func (v *Visualizer) Reset() { v.live = nil }
