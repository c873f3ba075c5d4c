package scenario

import (
	"fmt"
	"sort"

	"netnexus-sim/internal/network"
	"netnexus-sim/internal/traffic"
)

// DefaultNodeTypes is the shop catalogue shared by the built-in scenarios.
var DefaultNodeTypes = []network.NodeType{
	{ID: "web-server", Name: "Web Server", Capacity: 1000, Cost: 100, Icon: "server", Color: "#3b82f6"},
	{ID: "load-balancer", Name: "Load Balancer", Capacity: 2000, Cost: 150, Icon: "diagram-3", Color: "#10b981"},
	{ID: "cache", Name: "Cache Server", Capacity: 1500, Cost: 120, Icon: "lightning", Color: "#f59e0b"},
	{ID: "database", Name: "Database", Capacity: 800, Cost: 200, Icon: "database", Color: "#8b5cf6"},
	{ID: "cdn", Name: "CDN Edge", Capacity: 3000, Cost: 300, Icon: "globe", Color: "#ec4899"},
}

var starter = []Placement{{Type: "web-server", X: 200, Y: 200, ConnectInternet: true}}

// BuiltIn returns the predefined traffic stories keyed by name.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"viral-surge": {
			Name:        "viral-surge",
			Description: "A product launch goes viral. Demand climbs from a quiet baseline to a sustained flood within a few minutes.",
			NodeTypes:   DefaultNodeTypes,
			TrafficPatterns: []traffic.Point{
				{Time: 0, RequestsPerSecond: 500},
				{Time: 30, RequestsPerSecond: 1000},
				{Time: 60, RequestsPerSecond: 2000},
				{Time: 120, RequestsPerSecond: 3500},
				{Time: 180, RequestsPerSecond: 5000},
				{Time: 240, RequestsPerSecond: 6500},
				{Time: 300, RequestsPerSecond: 8000},
			},
			Bootstrap: starter,
			AutoScale: DefaultAutoScale,
			Phases: []Phase{
				{
					Name:        "launch",
					Description: "Early adopters trickle in.",
					Triggers:    []Trigger{{Event: EventTraffic, Value: 1500, Next: "trending"}},
				},
				{
					Name:        "trending",
					Description: "The launch post is trending. Demand is doubling every minute.",
					Triggers:    []Trigger{{Event: EventTraffic, Value: 4000, Next: "surge"}},
				},
				{
					Name:        "surge",
					Description: "Headline coverage. Every spare request per second counts.",
					Triggers:    []Trigger{{Event: EventGameTime, Value: 300, Next: "plateau"}},
				},
				{
					Name:        "plateau",
					Description: "Demand levels off at its peak.",
				},
			},
		},
		"steady-growth": {
			Name:        "steady-growth",
			Description: "Organic growth over ten minutes. Plenty of time to plan, little room for waste.",
			NodeTypes:   DefaultNodeTypes,
			TrafficPatterns: []traffic.Point{
				{Time: 0, RequestsPerSecond: 500},
				{Time: 120, RequestsPerSecond: 1500},
				{Time: 300, RequestsPerSecond: 3000},
				{Time: 600, RequestsPerSecond: 4500},
			},
			Bootstrap: starter,
			AutoScale: DefaultAutoScale,
			Phases: []Phase{
				{
					Name:        "baseline",
					Description: "Regular weekday traffic.",
					Triggers:    []Trigger{{Event: EventGameTime, Value: 300, Next: "growth"}},
				},
				{
					Name:        "growth",
					Description: "A marketing campaign lifts demand.",
					Triggers:    []Trigger{{Event: EventCapacity, Value: 5000, Next: "scaled"}},
				},
				{
					Name:        "scaled",
					Description: "Capacity is ahead of demand.",
				},
			},
		},
	}
}

// Names lists the built-in scenarios alphabetically.
func Names() []string {
	arcs := BuiltIn()
	out := make([]string, 0, len(arcs))
	for n := range arcs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Get returns a copy of a built-in scenario.
func Get(name string) (*Scenario, error) {
	s, ok := BuiltIn()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArc, name)
	}
	return &s, nil
}

// Resolve loads path when set, otherwise the named built-in.
func Resolve(name, path string) (*Scenario, error) {
	if path != "" {
		return Load(path)
	}
	if name == "" {
		name = "viral-surge"
	}
	return Get(name)
}
