package network

import (
	"fmt"
	"math"
)

// CreateInternetNode places the traffic source. Calling it again returns the
// existing node.
func (n *Network) CreateInternetNode() *Node {
	if n.internet != nil {
		return n.internet
	}
	n.internet = &Node{
		ID:         InternetID,
		Type:       "internet",
		X:          internetX,
		Y:          internetY,
		Capacity:   math.Inf(1),
		Health:     100,
		Level:      LevelNormal,
		IsInternet: true,
	}
	n.byID[InternetID] = n.internet
	return n.internet
}

// Internet returns the source node, or nil before CreateInternetNode.
func (n *Network) Internet() *Node { return n.internet }

// AddNode places a node of the given type. Unless free is set the type's cost
// is charged to the wallet; a paid placement the wallet cannot cover is
// rejected and nothing changes.
func (n *Network) AddNode(typeID string, x, y float64, free bool) (*Node, error) {
	t, ok := n.types[typeID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, typeID)
	}
	if !free && n.wallet != nil && n.wallet.Balance() < t.Cost {
		return nil, fmt.Errorf("%w: %s costs %.0f", ErrInsufficientBudget, t.Name, t.Cost)
	}
	node := &Node{
		ID:       n.nextID,
		Type:     t.ID,
		X:        x,
		Y:        y,
		Capacity: t.Capacity,
		Health:   100,
		Level:    LevelNormal,
	}
	n.nextID++
	n.nodes = append(n.nodes, node)
	n.byID[node.ID] = node
	n.totalCapacity += t.Capacity
	if !free && n.wallet != nil {
		n.wallet.Spend(t.Cost)
	}
	return node, nil
}

// Node returns the node with the given id, including the internet node.
func (n *Network) Node(id NodeID) (*Node, bool) {
	node, ok := n.byID[id]
	return node, ok
}

// Nodes returns the placed nodes in insertion order. The internet node is not
// included.
func (n *Network) Nodes() []*Node { return n.nodes }

// TotalCapacity is the sum of all placed node capacities.
func (n *Network) TotalCapacity() float64 { return n.totalCapacity }

// RecomputeCapacity rescans the nodes, resets the running total and returns it.
func (n *Network) RecomputeCapacity() float64 {
	var total float64
	for _, node := range n.nodes {
		total += node.Capacity
	}
	n.totalCapacity = total
	return total
}

// NodeAt returns the node under (x, y). The internet node wins ties and has
// a larger hit radius; regular nodes are checked in insertion order.
func (n *Network) NodeAt(x, y float64) (*Node, bool) {
	if n.internet != nil && math.Hypot(n.internet.X-x, n.internet.Y-y) <= internetHitRadius {
		return n.internet, true
	}
	for _, node := range n.nodes {
		if math.Hypot(node.X-x, node.Y-y) <= nodeHitRadius {
			return node, true
		}
	}
	return nil, false
}

// MoveNode repositions a placed node, clamped to the canvas. Moving only
// changes geometry; loads are untouched.
func (n *Network) MoveNode(id NodeID, x, y float64) (*Node, error) {
	if id == InternetID {
		return nil, ErrImmovableNode
	}
	node, ok := n.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	node.X = clamp(x, nodeRadius, n.bounds.Width-nodeRadius)
	node.Y = clamp(y, nodeRadius, n.bounds.Height-nodeRadius)
	return node, nil
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
