package network

import "math"

// LoadReport summarises one distribution pass.
type LoadReport struct {
	Traffic  float64 `json:"traffic"`
	Assigned float64 `json:"assigned"`
	Dropped  float64 `json:"dropped"`
	Fallback bool    `json:"fallback"`
}

// UpdateNodeLoads recomputes every node's load from scratch for the given
// total traffic and refreshes node health.
//
// Traffic is split evenly across the internet's direct links. Each first-hop
// node absorbs what its remaining capacity allows and forwards the excess
// evenly across its other links, up to MaxForwardDepth hops, never back
// toward the sender or the internet. Whatever cannot be placed is dropped.
// When the internet has no links, traffic is spread across all nodes.
func (n *Network) UpdateNodeLoads(traffic float64) (LoadReport, error) {
	if n.internet == nil {
		return LoadReport{}, ErrNoInternetNode
	}
	if traffic < 0 || math.IsNaN(traffic) || math.IsInf(traffic, 0) {
		traffic = 0
	}
	for _, node := range n.nodes {
		node.CurrentLoad = 0
	}
	rep := LoadReport{Traffic: traffic}

	switch {
	case len(n.internet.Connections) > 0:
		per := traffic / float64(len(n.internet.Connections))
		for _, id := range n.internet.Connections {
			node, ok := n.byID[id]
			if !ok || node.IsInternet {
				continue
			}
			// adds to overflow an earlier sibling already forwarded here
			absorbed := math.Min(per, node.RemainingCapacity())
			node.CurrentLoad += absorbed
			rep.Assigned += absorbed
			if excess := per - absorbed; excess > 0 {
				path := []NodeID{InternetID, node.ID}
				rep.Assigned += n.forward(node, path, excess, n.maxForwardDepth)
			}
		}
	case len(n.nodes) > 0:
		rep.Fallback = true
		per := traffic / float64(len(n.nodes))
		for _, node := range n.nodes {
			node.CurrentLoad = math.Min(node.Capacity, per)
			rep.Assigned += node.CurrentLoad
		}
	}

	rep.Dropped = math.Max(0, traffic-rep.Assigned)
	for _, node := range n.nodes {
		node.refreshHealth()
	}
	return rep, nil
}

// forward spreads amount across from's links that are not on path and
// returns how much was absorbed.
func (n *Network) forward(from *Node, path []NodeID, amount float64, depth int) float64 {
	if depth <= 0 || amount <= 0 {
		return 0
	}
	var targets []*Node
	for _, id := range from.Connections {
		if onPath(path, id) {
			continue
		}
		if t, ok := n.byID[id]; ok && !t.IsInternet {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return 0
	}
	share := amount / float64(len(targets))
	var absorbed float64
	for _, t := range targets {
		add := math.Min(share, t.RemainingCapacity())
		t.CurrentLoad += add
		absorbed += add
		if rest := share - add; rest > 0 && depth > 1 {
			next := append(append([]NodeID(nil), path...), t.ID)
			absorbed += n.forward(t, next, rest, depth-1)
		}
	}
	return absorbed
}

func onPath(path []NodeID, id NodeID) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}

// LoadPercent is traffic as a percentage of capacity, guarded against a zero
// capacity.
func LoadPercent(traffic, capacity float64) float64 {
	return traffic / math.Max(capacity, 1) * 100
}
