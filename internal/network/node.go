// Node and node-type definitions for the infrastructure graph
package network

import (
	"math"
	"strconv"
)

// NodeID identifies a node. The internet source always uses InternetID.
type NodeID int

// InternetID is the reserved id of the traffic source.
const InternetID NodeID = 0

func (id NodeID) String() string {
	if id == InternetID {
		return "internet"
	}
	return strconv.Itoa(int(id))
}

// NodeType describes a purchasable kind of infrastructure.
type NodeType struct {
	ID       string  `yaml:"id" json:"id"`
	Name     string  `yaml:"name" json:"name"`
	Capacity float64 `yaml:"capacity" json:"capacity"`
	Cost     float64 `yaml:"cost" json:"cost"`
	Icon     string  `yaml:"icon" json:"icon"`
	Color    string  `yaml:"color" json:"color"`
}

// LoadLevel classifies a node's utilisation for display.
type LoadLevel string

const (
	LevelNormal   LoadLevel = "normal"
	LevelWarning  LoadLevel = "warning"
	LevelCritical LoadLevel = "critical"
)

const (
	warningRatio  = 0.7
	criticalRatio = 0.9
)

// Node is a placed unit of infrastructure, or the internet source.
type Node struct {
	ID          NodeID
	Type        string
	X, Y        float64
	Capacity    float64
	CurrentLoad float64
	Connections []NodeID
	Health      float64
	Level       LoadLevel
	IsInternet  bool
}

// LoadRatio returns CurrentLoad/Capacity. The internet never saturates.
func (n *Node) LoadRatio() float64 {
	if n.IsInternet || math.IsInf(n.Capacity, 1) || n.Capacity <= 0 {
		return 0
	}
	return n.CurrentLoad / n.Capacity
}

// RemainingCapacity is how much more load the node can absorb this tick.
func (n *Node) RemainingCapacity() float64 {
	if n.IsInternet {
		return math.Inf(1)
	}
	r := n.Capacity - n.CurrentLoad
	if r < 0 {
		return 0
	}
	return r
}

// refreshHealth derives Health and Level from the current load ratio.
// Health stays at 100 up to 70% utilisation and falls linearly to 0 at 100%.
func (n *Node) refreshHealth() {
	ratio := n.LoadRatio()
	switch {
	case ratio > criticalRatio:
		n.Level = LevelCritical
	case ratio > warningRatio:
		n.Level = LevelWarning
	default:
		n.Level = LevelNormal
	}
	h := 100 * (1 - (ratio-warningRatio)/(1-warningRatio))
	if h > 100 {
		h = 100
	} else if h < 0 {
		h = 0
	}
	n.Health = h
}

func (n *Node) hasNeighbor(id NodeID) bool {
	for _, c := range n.Connections {
		if c == id {
			return true
		}
	}
	return false
}

// NodeView is an immutable copy of a node used for queries and rendering.
// Capacity is zero for the internet node so the value stays JSON-safe.
type NodeView struct {
	ID          NodeID    `json:"id"`
	Type        string    `json:"type"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Capacity    float64   `json:"capacity"`
	CurrentLoad float64   `json:"current_load"`
	Connections []NodeID  `json:"connections"`
	Health      float64   `json:"health"`
	Level       LoadLevel `json:"level"`
	IsInternet  bool      `json:"is_internet"`
}

func (n *Node) view() NodeView {
	v := NodeView{
		ID:          n.ID,
		Type:        n.Type,
		X:           n.X,
		Y:           n.Y,
		Capacity:    n.Capacity,
		CurrentLoad: n.CurrentLoad,
		Connections: append([]NodeID(nil), n.Connections...),
		Health:      n.Health,
		Level:       n.Level,
		IsInternet:  n.IsInternet,
	}
	if n.IsInternet {
		v.Capacity = 0
	}
	return v
}
