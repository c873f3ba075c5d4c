package network

import (
	"fmt"
	"math"
)

// Connection is an undirected link between two nodes.
type Connection struct {
	From NodeID `json:"from"`
	To   NodeID `json:"to"`
}

// Touches reports whether id is one of the endpoints.
func (c Connection) Touches(id NodeID) bool { return c.From == id || c.To == id }

type edgeKey struct{ lo, hi NodeID }

func keyOf(a, b NodeID) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{lo: a, hi: b}
}

// Connect links a and b in both adjacency lists. The pair is unordered, so
// Connect(b, a) after Connect(a, b) is a duplicate.
func (n *Network) Connect(a, b NodeID) (Connection, error) {
	if a == b {
		return Connection{}, fmt.Errorf("%w: %s", ErrSelfConnection, a)
	}
	na, ok := n.byID[a]
	if !ok {
		return Connection{}, fmt.Errorf("%w: %s", ErrUnknownNode, a)
	}
	nb, ok := n.byID[b]
	if !ok {
		return Connection{}, fmt.Errorf("%w: %s", ErrUnknownNode, b)
	}
	k := keyOf(a, b)
	if _, dup := n.edges[k]; dup {
		return Connection{}, fmt.Errorf("%w: %s-%s", ErrDuplicateConnection, a, b)
	}
	c := Connection{From: a, To: b}
	n.edges[k] = struct{}{}
	n.connections = append(n.connections, c)
	na.Connections = append(na.Connections, b)
	nb.Connections = append(nb.Connections, a)
	return c, nil
}

// Connected reports whether a link exists between a and b in either direction.
func (n *Network) Connected(a, b NodeID) bool {
	_, ok := n.edges[keyOf(a, b)]
	return ok
}

// Connections returns all links in creation order.
func (n *Network) Connections() []Connection { return n.connections }

// Segment is the drawable geometry of one connection.
type Segment struct {
	Connection
	X1, Y1   float64
	X2, Y2   float64
	Length   float64
	AngleDeg float64
	Internet bool
}

// Segments recomputes connection geometry from current node positions.
func (n *Network) Segments() []Segment {
	out := make([]Segment, 0, len(n.connections))
	for _, c := range n.connections {
		from, ok1 := n.byID[c.From]
		to, ok2 := n.byID[c.To]
		if !ok1 || !ok2 {
			continue
		}
		dx, dy := to.X-from.X, to.Y-from.Y
		out = append(out, Segment{
			Connection: c,
			X1:         from.X,
			Y1:         from.Y,
			X2:         to.X,
			Y2:         to.Y,
			Length:     math.Hypot(dx, dy),
			AngleDeg:   math.Atan2(dy, dx) * 180 / math.Pi,
			Internet:   from.IsInternet || to.IsInternet,
		})
	}
	return out
}
