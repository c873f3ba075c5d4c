package particles

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"netnexus-sim/internal/network"
)

// scripted returns the same float and always picks index 0.
type scripted struct{ f float64 }

func (s scripted) Float64() float64 { return s.f }
func (s scripted) Intn(int) int     { return 0 }

type wallet struct{}

func (wallet) Balance() float64 { return 1e9 }
func (wallet) Spend(float64)    {}

// chain builds internet - a - b - c.
func chain(t *testing.T) network.Snapshot {
	t.Helper()
	n, err := network.New([]network.NodeType{{ID: "web", Capacity: 1000}}, wallet{})
	if err != nil {
		t.Fatalf("network.New: %v", err)
	}
	n.CreateInternetNode()
	var prev network.NodeID = network.InternetID
	for i := 0; i < 3; i++ {
		node, err := n.AddNode("web", float64(150+i*100), 200, true)
		if err != nil {
			t.Fatalf("AddNode: %v", err)
		}
		if _, err := n.Connect(prev, node.ID); err != nil {
			t.Fatalf("Connect: %v", err)
		}
		prev = node.ID
	}
	return n.Snapshot()
}

func TestSpawnPlan(t *testing.T) {
	tests := []struct {
		traffic  float64
		attempts int
		chance   float64
	}{
		{0, 1, 0.1},
		{50, 1, 0.1},
		{500, 1, 0.5},
		{1500, 1, 1},
		{2500, 1, 0.4},
		{6000, 2, 0.6},
		{12000, 2, 0.8},
		{24000, 4, 0.8},
		{90000, 5, 0.8},
	}
	for _, tt := range tests {
		a, c := SpawnPlan(tt.traffic)
		if a != tt.attempts || math.Abs(c-tt.chance) > 1e-9 {
			t.Errorf("SpawnPlan(%v) = (%d, %v), want (%d, %v)", tt.traffic, a, c, tt.attempts, tt.chance)
		}
	}
}

func TestColorAndSize(t *testing.T) {
	colors := map[float64]string{10: "#6b7280", 30: "#10b981", 60: "#3b82f6", 90: "#f59e0b", 150: "#ef4444"}
	for load, want := range colors {
		if got := Color(load); got != want {
			t.Errorf("Color(%v) = %s, want %s", load, got, want)
		}
	}
	if Size(0) != 4 || Size(4000) != 6 || Size(1e6) != 10 {
		t.Fatalf("unexpected sizes %v %v %v", Size(0), Size(4000), Size(1e6))
	}
}

func TestHopDurationRange(t *testing.T) {
	if d := HopDuration(0, 50); d != 1200*time.Millisecond {
		t.Fatalf("expected 1.2s at nominal load, got %s", d)
	}
	if d := HopDuration(1, 50); d != 1800*time.Millisecond {
		t.Fatalf("expected 1.8s at nominal load, got %s", d)
	}
	if d := HopDuration(0, 1000); d != 800*time.Millisecond {
		t.Fatalf("expected fastest hop 0.8s, got %s", d)
	}
	if d := HopDuration(0, 0); d != 1500*time.Millisecond {
		t.Fatalf("expected slowest hop 1.5s, got %s", d)
	}
}

func TestEaseOutCubic(t *testing.T) {
	if EaseOutCubic(0) != 0 || EaseOutCubic(1) != 1 {
		t.Fatalf("easing endpoints wrong")
	}
	if EaseOutCubic(0.5) <= 0.5 {
		t.Fatalf("ease-out should be ahead of linear at midpoint")
	}
}

func TestNoSpawnWithoutInternetLinks(t *testing.T) {
	n, _ := network.New([]network.NodeType{{ID: "web", Capacity: 1000}}, wallet{})
	n.CreateInternetNode()
	n.AddNode("web", 200, 200, true)
	v := New(scripted{0}, DefaultConfig)
	v.Observe(Sample{Snapshot: n.Snapshot(), Traffic: 50000, Capacity: 1000})
	if got := v.Spawn(); got != 0 || v.Len() != 0 {
		t.Fatalf("expected no particles, got %d", got)
	}
}

func TestParticleTravelsAndContinues(t *testing.T) {
	snap := chain(t)
	// 0.5 always passes the 0.6 continuation roll and the spawn chance.
	v := New(scripted{0.5}, DefaultConfig)
	v.Observe(Sample{Snapshot: snap, Traffic: 600, Capacity: 3000})

	if v.Spawn() != 1 {
		t.Fatalf("expected one spawn")
	}
	f := v.Frame()
	p := f.Particles[0]
	if p.From != network.InternetID || p.To != 1 || p.X != 50 || p.Y != 200 {
		t.Fatalf("unexpected spawn state %+v", p)
	}

	v.Advance(750 * time.Millisecond)
	mid := v.Frame().Particles[0]
	if mid.X <= 50 || mid.X >= 150 || mid.Progress <= 0 || mid.Progress >= 1 {
		t.Fatalf("expected particle mid-hop, got %+v", mid)
	}

	v.Advance(2 * time.Second)
	hop := v.Frame().Particles[0]
	if hop.From != 1 || hop.To != 2 || hop.Hops != 1 {
		t.Fatalf("expected second hop 1->2, got %+v", hop)
	}
	if hop.X != 150 {
		t.Fatalf("second hop should start at node 1, got x=%v", hop.X)
	}

	v.Advance(2 * time.Second)
	v.Advance(2 * time.Second)
	if v.Len() != 0 {
		t.Fatalf("particle should end at the leaf, %d live", v.Len())
	}
}

func TestParticleStopsOnFailedRoll(t *testing.T) {
	v := New(scripted{0.7}, DefaultConfig)
	v.Observe(Sample{Snapshot: chain(t), Traffic: 1000, Capacity: 3000})
	if v.Spawn() != 1 {
		t.Fatalf("expected one spawn")
	}
	v.Advance(3 * time.Second)
	if v.Len() != 0 {
		t.Fatalf("expected particle to terminate after failed continuation")
	}
}

func TestSweepEvictsOldest(t *testing.T) {
	v := New(scripted{0}, Config{MaxLive: 5, EvictBatch: 2, TTL: time.Hour})
	v.Observe(Sample{Snapshot: chain(t), Traffic: 1000, Capacity: 3000})
	for i := 0; i < 7; i++ {
		v.Spawn()
		v.Advance(time.Millisecond)
	}
	if v.Len() != 7 {
		t.Fatalf("expected 7 live particles, got %d", v.Len())
	}
	v.Sweep()
	if v.Len() != 5 {
		t.Fatalf("expected 5 after eviction, got %d", v.Len())
	}
	if id := v.Frame().Particles[0].ID; id != 3 {
		t.Fatalf("expected the two oldest evicted, first remaining id %d", id)
	}
}

func TestSweepDropsExpired(t *testing.T) {
	v := New(scripted{0}, Config{TTL: time.Second})
	v.Observe(Sample{Snapshot: chain(t), Traffic: 1000, Capacity: 3000})
	v.Spawn()
	v.now += 2 * time.Second
	v.Sweep()
	if v.Len() != 0 {
		t.Fatalf("expected expired particle to be swept")
	}
}

func TestVisualizerDoesNotTouchSnapshot(t *testing.T) {
	snap := chain(t)
	before := snap.Nodes[0].CurrentLoad
	v := New(rand.New(rand.NewSource(3)), DefaultConfig)
	v.Observe(Sample{Snapshot: snap, Traffic: 20000, Capacity: 3000})
	for i := 0; i < 500; i++ {
		f := v.Step(33 * time.Millisecond)
		if len(f.Particles) > DefaultConfig.MaxLive+maxPerFrame {
			t.Fatalf("population unbounded: %d", len(f.Particles))
		}
	}
	if snap.Nodes[0].CurrentLoad != before {
		t.Fatalf("visualizer changed node load")
	}
}

func TestReset(t *testing.T) {
	v := New(scripted{0}, DefaultConfig)
	v.Observe(Sample{Snapshot: chain(t), Traffic: 1000, Capacity: 3000})
	v.Spawn()
	v.Reset()
	if v.Len() != 0 {
		t.Fatalf("reset left %d particles", v.Len())
	}
}
