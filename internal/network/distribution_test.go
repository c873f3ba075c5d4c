package network

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestUpdateNodeLoadsRequiresInternet(t *testing.T) {
	n, err := New(testTypes, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := n.UpdateNodeLoads(100); !errors.Is(err, ErrNoInternetNode) {
		t.Fatalf("expected ErrNoInternetNode, got %v", err)
	}
}

func TestSingleNodeOverflowIsDropped(t *testing.T) {
	n, _ := newTestNetwork(t, 0)
	a := mustAdd(t, n, "small-server", 200, 200)
	mustConnect(t, n, InternetID, a.ID)

	rep, err := n.UpdateNodeLoads(500)
	if err != nil {
		t.Fatalf("UpdateNodeLoads: %v", err)
	}
	if a.CurrentLoad != 300 {
		t.Fatalf("expected load 300, got %.2f", a.CurrentLoad)
	}
	if rep.Dropped != 200 || rep.Assigned != 300 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if a.Level != LevelCritical || a.Health != 0 {
		t.Fatalf("saturated node: level=%s health=%.1f", a.Level, a.Health)
	}
}

func TestEvenSplitAcrossInternetLinks(t *testing.T) {
	n, _ := newTestNetwork(t, 0)
	a := mustAdd(t, n, "web-server", 200, 150)
	b := mustAdd(t, n, "web-server", 200, 250)
	mustConnect(t, n, InternetID, a.ID)
	mustConnect(t, n, InternetID, b.ID)

	rep, err := n.UpdateNodeLoads(1500)
	if err != nil {
		t.Fatalf("UpdateNodeLoads: %v", err)
	}
	if a.CurrentLoad != 750 || b.CurrentLoad != 750 {
		t.Fatalf("expected 750/750, got %.2f/%.2f", a.CurrentLoad, b.CurrentLoad)
	}
	if rep.Dropped != 0 {
		t.Fatalf("expected nothing dropped, got %.2f", rep.Dropped)
	}
	if a.Level != LevelWarning {
		t.Fatalf("75%% load should be warning, got %s", a.Level)
	}
}

func TestOverflowForwardsOneHop(t *testing.T) {
	n, _ := newTestNetwork(t, 0)
	front := mustAdd(t, n, "small-server", 200, 200)
	back := mustAdd(t, n, "web-server", 300, 200)
	mustConnect(t, n, InternetID, front.ID)
	mustConnect(t, n, front.ID, back.ID)

	rep, _ := n.UpdateNodeLoads(800)
	if front.CurrentLoad != 300 || back.CurrentLoad != 500 {
		t.Fatalf("expected 300/500, got %.2f/%.2f", front.CurrentLoad, back.CurrentLoad)
	}
	if rep.Dropped != 0 {
		t.Fatalf("expected forwarded overflow to be absorbed, dropped %.2f", rep.Dropped)
	}
}

func TestFirstHopKeepsForwardedLoad(t *testing.T) {
	n, _ := newTestNetwork(t, 0)
	a := mustAdd(t, n, "small-server", 200, 150)
	b := mustAdd(t, n, "web-server", 200, 250)
	mustConnect(t, n, InternetID, a.ID)
	mustConnect(t, n, InternetID, b.ID)
	mustConnect(t, n, a.ID, b.ID)

	rep, err := n.UpdateNodeLoads(1000)
	if err != nil {
		t.Fatalf("UpdateNodeLoads: %v", err)
	}
	// a overflows 200 into b before b takes its own 500 share
	if a.CurrentLoad != 300 || b.CurrentLoad != 700 {
		t.Fatalf("expected 300/700, got %.2f/%.2f", a.CurrentLoad, b.CurrentLoad)
	}
	if rep.Dropped != 0 || rep.Assigned != 1000 {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestForwardDepthLimitsChains(t *testing.T) {
	build := func(depth int) (*Network, []*Node) {
		n, _ := newTestNetwork(t, 0, WithMaxForwardDepth(depth))
		a := mustAdd(t, n, "small-server", 200, 200)
		b := mustAdd(t, n, "small-server", 300, 200)
		c := mustAdd(t, n, "web-server", 400, 200)
		mustConnect(t, n, InternetID, a.ID)
		mustConnect(t, n, a.ID, b.ID)
		mustConnect(t, n, b.ID, c.ID)
		return n, []*Node{a, b, c}
	}

	n, nodes := build(1)
	rep, _ := n.UpdateNodeLoads(1000)
	if nodes[2].CurrentLoad != 0 || !approx(rep.Dropped, 400) {
		t.Fatalf("depth 1: third hop load %.2f dropped %.2f", nodes[2].CurrentLoad, rep.Dropped)
	}

	n, nodes = build(2)
	rep, _ = n.UpdateNodeLoads(1000)
	if !approx(nodes[2].CurrentLoad, 400) || rep.Dropped != 0 {
		t.Fatalf("depth 2: third hop load %.2f dropped %.2f", nodes[2].CurrentLoad, rep.Dropped)
	}

	n, nodes = build(0)
	rep, _ = n.UpdateNodeLoads(1000)
	if nodes[1].CurrentLoad != 0 || !approx(rep.Dropped, 700) {
		t.Fatalf("depth 0: second hop load %.2f dropped %.2f", nodes[1].CurrentLoad, rep.Dropped)
	}
}

func TestForwardNeverReturnsToInternet(t *testing.T) {
	n, _ := newTestNetwork(t, 0)
	a := mustAdd(t, n, "small-server", 200, 150)
	b := mustAdd(t, n, "small-server", 200, 250)
	mustConnect(t, n, InternetID, a.ID)
	mustConnect(t, n, InternetID, b.ID)
	mustConnect(t, n, a.ID, b.ID)

	rep, _ := n.UpdateNodeLoads(1000)
	if a.CurrentLoad > a.Capacity || b.CurrentLoad > b.Capacity {
		t.Fatalf("capacity exceeded: %.2f %.2f", a.CurrentLoad, b.CurrentLoad)
	}
	if !approx(rep.Assigned+rep.Dropped, 1000) {
		t.Fatalf("traffic not conserved: %+v", rep)
	}
}

func TestFallbackWithoutInternetLinks(t *testing.T) {
	n, _ := newTestNetwork(t, 0)
	a := mustAdd(t, n, "web-server", 200, 150)
	b := mustAdd(t, n, "small-server", 200, 250)

	rep, _ := n.UpdateNodeLoads(1000)
	if !rep.Fallback {
		t.Fatalf("expected fallback distribution")
	}
	if a.CurrentLoad != 500 || b.CurrentLoad != 300 {
		t.Fatalf("expected 500/300, got %.2f/%.2f", a.CurrentLoad, b.CurrentLoad)
	}
}

func TestLoadsNeverExceedCapacityAndAreIdempotent(t *testing.T) {
	n, _ := newTestNetwork(t, 0, WithMaxForwardDepth(3))
	var nodes []*Node
	for i := 0; i < 6; i++ {
		typ := "small-server"
		if i%2 == 0 {
			typ = "web-server"
		}
		nodes = append(nodes, mustAdd(t, n, typ, float64(100+i*50), 200))
	}
	mustConnect(t, n, InternetID, nodes[0].ID)
	mustConnect(t, n, InternetID, nodes[1].ID)
	mustConnect(t, n, nodes[0].ID, nodes[2].ID)
	mustConnect(t, n, nodes[1].ID, nodes[2].ID)
	mustConnect(t, n, nodes[2].ID, nodes[3].ID)
	mustConnect(t, n, nodes[3].ID, nodes[4].ID)
	mustConnect(t, n, nodes[4].ID, nodes[5].ID)

	for _, traffic := range []float64{0, 100, 1234, 5000, 50000} {
		first, _ := n.UpdateNodeLoads(traffic)
		loads := make([]float64, len(nodes))
		for i, node := range nodes {
			if node.CurrentLoad > node.Capacity+1e-9 || node.CurrentLoad < 0 {
				t.Fatalf("traffic %.0f: node %s load %.2f out of range", traffic, node.ID, node.CurrentLoad)
			}
			loads[i] = node.CurrentLoad
		}
		if first.Assigned > traffic+1e-6 {
			t.Fatalf("traffic %.0f: assigned %.2f exceeds traffic", traffic, first.Assigned)
		}
		second, _ := n.UpdateNodeLoads(traffic)
		if second != first {
			t.Fatalf("traffic %.0f: reports differ %+v vs %+v", traffic, first, second)
		}
		for i, node := range nodes {
			if node.CurrentLoad != loads[i] {
				t.Fatalf("traffic %.0f: node %s load changed on repeat", traffic, node.ID)
			}
		}
	}
}

func TestNegativeTrafficIsTreatedAsZero(t *testing.T) {
	n, _ := newTestNetwork(t, 0)
	a := mustAdd(t, n, "web-server", 200, 200)
	mustConnect(t, n, InternetID, a.ID)
	rep, _ := n.UpdateNodeLoads(-50)
	if rep.Traffic != 0 || a.CurrentLoad != 0 || a.Health != 100 {
		t.Fatalf("unexpected state after negative traffic: %+v load=%.2f", rep, a.CurrentLoad)
	}
}

func TestLoadPercentGuardsZeroCapacity(t *testing.T) {
	if got := LoadPercent(500, 0); got != 50000 {
		t.Fatalf("expected 50000, got %.2f", got)
	}
	if got := LoadPercent(500, 1000); got != 50 {
		t.Fatalf("expected 50, got %.2f", got)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	n, _ := newTestNetwork(t, 0)
	a := mustAdd(t, n, "web-server", 200, 200)
	mustConnect(t, n, InternetID, a.ID)
	snap := n.Snapshot()

	b := mustAdd(t, n, "web-server", 300, 200)
	mustConnect(t, n, a.ID, b.ID)
	if len(snap.Nodes) != 1 || len(snap.Connections) != 1 || len(snap.Nodes[0].Connections) != 1 {
		t.Fatalf("snapshot changed after mutation: %+v", snap)
	}
	if v, ok := snap.Lookup(InternetID); !ok || v.Capacity != 0 {
		t.Fatalf("internet view: %+v ok=%v", v, ok)
	}
}
