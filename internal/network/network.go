package network

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnknownNodeType     = errors.New("unknown node type")
	ErrInsufficientBudget  = errors.New("insufficient budget")
	ErrUnknownNode         = errors.New("unknown node")
	ErrImmovableNode       = errors.New("internet node cannot be moved")
	ErrDuplicateConnection = errors.New("connection already exists")
	ErrSelfConnection      = errors.New("cannot connect a node to itself")
	ErrNoInternetNode      = errors.New("internet node not created")
	ErrNoNodeTypes         = errors.New("no node types configured")
)

const (
	internetX         = 50
	internetY         = 200
	internetHitRadius = 30
	nodeHitRadius     = 25
	nodeRadius        = 20

	// DefaultMaxForwardDepth forwards overflow one hop past the first tier.
	DefaultMaxForwardDepth = 1
)

// Wallet is the budget a paid placement draws from.
type Wallet interface {
	Balance() float64
	Spend(amount float64)
}

// Bounds is the drawable area nodes are confined to when moved.
type Bounds struct {
	Width  float64
	Height float64
}

// DefaultBounds matches the 800x400 infrastructure canvas.
var DefaultBounds = Bounds{Width: 800, Height: 400}

// Network owns the internet node, the placed nodes and their connections.
// It is not safe for concurrent use; callers confine it to one goroutine.
type Network struct {
	types     map[string]NodeType
	typeOrder []string

	internet      *Node
	nodes         []*Node
	byID          map[NodeID]*Node
	nextID        NodeID
	totalCapacity float64

	connections []Connection
	edges       map[edgeKey]struct{}

	wallet          Wallet
	bounds          Bounds
	maxForwardDepth int
}

// Option customises a Network.
type Option func(*Network)

// WithBounds sets the canvas used to clamp moved nodes.
func WithBounds(b Bounds) Option {
	return func(n *Network) {
		if b.Width > 0 && b.Height > 0 {
			n.bounds = b
		}
	}
}

// WithMaxForwardDepth sets how many hops overflow may travel past the first tier.
func WithMaxForwardDepth(depth int) Option {
	return func(n *Network) {
		if depth >= 0 {
			n.maxForwardDepth = depth
		}
	}
}

// New creates an empty network with the given node types. Paid placements
// are charged to wallet.
func New(types []NodeType, wallet Wallet, opts ...Option) (*Network, error) {
	if len(types) == 0 {
		return nil, ErrNoNodeTypes
	}
	n := &Network{
		types:           make(map[string]NodeType, len(types)),
		byID:            make(map[NodeID]*Node),
		nextID:          1,
		edges:           make(map[edgeKey]struct{}),
		wallet:          wallet,
		bounds:          DefaultBounds,
		maxForwardDepth: DefaultMaxForwardDepth,
	}
	for _, t := range types {
		if t.ID == "" {
			return nil, fmt.Errorf("node type %q: missing id", t.Name)
		}
		if _, dup := n.types[t.ID]; dup {
			return nil, fmt.Errorf("node type %q: duplicate id", t.ID)
		}
		if t.Capacity <= 0 || math.IsInf(t.Capacity, 0) || math.IsNaN(t.Capacity) {
			return nil, fmt.Errorf("node type %q: capacity must be a positive number", t.ID)
		}
		if t.Cost < 0 {
			return nil, fmt.Errorf("node type %q: negative cost", t.ID)
		}
		n.types[t.ID] = t
		n.typeOrder = append(n.typeOrder, t.ID)
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// NodeType looks up a configured type.
func (n *Network) NodeType(id string) (NodeType, bool) {
	t, ok := n.types[id]
	return t, ok
}

// NodeTypes returns the configured types in configuration order.
func (n *Network) NodeTypes() []NodeType {
	out := make([]NodeType, 0, len(n.typeOrder))
	for _, id := range n.typeOrder {
		out = append(out, n.types[id])
	}
	return out
}

// MaxForwardDepth reports the overflow forwarding depth in use.
func (n *Network) MaxForwardDepth() int { return n.maxForwardDepth }

// Snapshot is a deep copy of the topology for read-only consumers.
type Snapshot struct {
	Internet    NodeView     `json:"internet"`
	Nodes       []NodeView   `json:"nodes"`
	Connections []Connection `json:"connections"`
}

// Snapshot copies the current topology and loads.
func (n *Network) Snapshot() Snapshot {
	s := Snapshot{
		Nodes:       make([]NodeView, 0, len(n.nodes)),
		Connections: append([]Connection(nil), n.connections...),
	}
	if n.internet != nil {
		s.Internet = n.internet.view()
	}
	for _, node := range n.nodes {
		s.Nodes = append(s.Nodes, node.view())
	}
	return s
}

// Lookup finds a node view by id in the snapshot.
func (s Snapshot) Lookup(id NodeID) (NodeView, bool) {
	if id == InternetID {
		return s.Internet, s.Internet.IsInternet
	}
	for _, v := range s.Nodes {
		if v.ID == id {
			return v, true
		}
	}
	return NodeView{}, false
}
