package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"netnexus-sim/internal/network"
	"netnexus-sim/internal/traffic"
)

var (
	ErrNoNodeTypes   = errors.New("scenario defines no node types")
	ErrUnknownType   = errors.New("scenario references an unknown node type")
	ErrUnknownPhase  = errors.New("scenario trigger points at an unknown phase")
	ErrUnknownArc    = errors.New("unknown built-in scenario")
	ErrInvalidRegion = errors.New("auto-scale region is empty")
)

// Scenario bundles the node catalogue, the demand schedule and the opening
// layout of one simulation run.
type Scenario struct {
	Name            string             `yaml:"name,omitempty"`
	Description     string             `yaml:"description,omitempty"`
	NodeTypes       []network.NodeType `yaml:"node_types"`
	TrafficPatterns []traffic.Point    `yaml:"traffic_patterns"`
	Bootstrap       []Placement        `yaml:"bootstrap,omitempty"`
	AutoScale       AutoScalePlan      `yaml:"auto_scale,omitempty"`
	Phases          []Phase            `yaml:"phases,omitempty"`
}

// Placement is a node placed for free when the simulation starts.
type Placement struct {
	Type            string  `yaml:"type"`
	X               float64 `yaml:"x"`
	Y               float64 `yaml:"y"`
	ConnectInternet bool    `yaml:"connect_internet,omitempty"`
}

// AutoScalePlan lists the node types added by an auto-scale action and the
// region they are dropped into.
type AutoScalePlan struct {
	Types  []string `yaml:"types,omitempty"`
	Region Region   `yaml:"region,omitempty"`
}

// Region is an axis-aligned placement area.
type Region struct {
	MinX float64 `yaml:"min_x"`
	MaxX float64 `yaml:"max_x"`
	MinY float64 `yaml:"min_y"`
	MaxY float64 `yaml:"max_y"`
}

// DefaultAutoScale adds a load balancer and a web server somewhere in the
// middle of the canvas.
var DefaultAutoScale = AutoScalePlan{
	Types:  []string{"load-balancer", "web-server"},
	Region: Region{MinX: 100, MaxX: 700, MinY: 100, MaxY: 300},
}

// Phase is a named stage of the traffic story, announced to the operator.
type Phase struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Triggers    []Trigger `yaml:"triggers,omitempty"`
}

// Trigger moves the scenario to another phase once an event reaches Value.
type Trigger struct {
	Event string  `yaml:"event"`
	Value float64 `yaml:"value"`
	Next  string  `yaml:"next"`
}

// Trigger events emitted by the simulator.
const (
	EventGameTime = "game_time"
	EventTraffic  = "traffic"
	EventCapacity = "capacity"
)

// Event represents a runtime occurrence that may advance the scenario.
type Event struct {
	Type  string
	Value float64
}

// Load reads a YAML scenario definition from disk and validates it.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate fails fast on configuration errors. Missing type data is never
// replaced by defaults.
func (s *Scenario) Validate() error {
	if len(s.NodeTypes) == 0 {
		return ErrNoNodeTypes
	}
	known := make(map[string]bool, len(s.NodeTypes))
	for _, t := range s.NodeTypes {
		if t.ID == "" {
			return fmt.Errorf("node type %q has no id", t.Name)
		}
		if known[t.ID] {
			return fmt.Errorf("duplicate node type %q", t.ID)
		}
		if t.Capacity <= 0 {
			return fmt.Errorf("node type %q: capacity must be positive", t.ID)
		}
		if t.Cost < 0 {
			return fmt.Errorf("node type %q: cost must not be negative", t.ID)
		}
		known[t.ID] = true
	}
	if err := traffic.ValidateSchedule(s.TrafficPatterns); err != nil {
		return err
	}
	for i, p := range s.Bootstrap {
		if !known[p.Type] {
			return fmt.Errorf("%w: bootstrap %d uses %q", ErrUnknownType, i, p.Type)
		}
	}
	plan := s.ScalePlan()
	for _, typ := range plan.Types {
		if !known[typ] {
			return fmt.Errorf("%w: auto-scale uses %q", ErrUnknownType, typ)
		}
	}
	if r := plan.Region; r.MaxX < r.MinX || r.MaxY < r.MinY {
		return ErrInvalidRegion
	}
	phases := make(map[string]bool, len(s.Phases))
	for _, p := range s.Phases {
		phases[p.Name] = true
	}
	for _, p := range s.Phases {
		for _, tr := range p.Triggers {
			if !phases[tr.Next] {
				return fmt.Errorf("%w: %s -> %s", ErrUnknownPhase, p.Name, tr.Next)
			}
		}
	}
	return nil
}

// ScalePlan returns the configured auto-scale plan, or DefaultAutoScale when
// the scenario leaves it empty.
func (s *Scenario) ScalePlan() AutoScalePlan {
	if len(s.AutoScale.Types) == 0 {
		return DefaultAutoScale
	}
	return s.AutoScale
}

// FirstPhase returns the name of the opening phase, or "" without phases.
func (s *Scenario) FirstPhase() string {
	if len(s.Phases) == 0 {
		return ""
	}
	return s.Phases[0].Name
}

// NextPhase returns the name of the next phase given the current phase and event.
// If no trigger matches, ok will be false.
func (s *Scenario) NextPhase(current string, ev Event) (next string, ok bool) {
	for _, p := range s.Phases {
		if p.Name != current {
			continue
		}
		for _, tr := range p.Triggers {
			if tr.Event == ev.Type && ev.Value >= tr.Value {
				return tr.Next, true
			}
		}
	}
	return "", false
}

// Phase looks up a phase by name.
func (s *Scenario) Phase(name string) (Phase, bool) {
	for _, p := range s.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}
