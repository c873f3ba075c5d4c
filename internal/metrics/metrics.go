// Package metrics exposes simulation state as Prometheus series.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Uptime is the smoothed uptime percentage
	Uptime = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netnexus_uptime_percent",
			Help: "Smoothed uptime percentage of the simulated service",
		},
		[]string{"session"},
	)

	// Traffic is the current smoothed demand in requests per second
	Traffic = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netnexus_traffic_rps",
			Help: "Current demand in requests per second",
		},
		[]string{"session"},
	)

	Capacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netnexus_capacity_rps",
			Help: "Total capacity of all placed nodes in requests per second",
		},
		[]string{"session"},
	)

	LoadPercent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netnexus_load_percent",
			Help: "Demand as a percentage of total capacity",
		},
		[]string{"session"},
	)

	DroppedTraffic = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netnexus_dropped_rps",
			Help: "Demand the topology could not route during the last tick",
		},
		[]string{"session"},
	)

	Budget = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netnexus_budget_dollars",
			Help: "Remaining infrastructure budget",
		},
		[]string{"session"},
	)

	Downtime = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netnexus_downtime_seconds",
			Help: "Accumulated downtime seconds",
		},
		[]string{"session"},
	)

	// LiveParticles tracks the visualizer population
	LiveParticles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netnexus_live_particles",
			Help: "Number of traffic particles currently animated",
		},
		[]string{"session"},
	)

	// NodeLoad tracks per-node load with labels for node id and type
	NodeLoad = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netnexus_node_load_rps",
			Help: "Load assigned to a node during the last tick",
		},
		[]string{"session", "node", "type"},
	)

	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netnexus_ticks_total",
			Help: "Total number of simulation ticks",
		},
		[]string{"session"},
	)

	// CommandsTotal counts operator commands by kind and outcome
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netnexus_commands_total",
			Help: "Total number of operator commands applied",
		},
		[]string{"session", "command", "status"},
	)

	// TickDuration tracks how long one simulation step takes in seconds
	TickDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netnexus_tick_duration_seconds",
			Help:    "Duration of a simulation tick in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
		[]string{"session"},
	)
)

// Sample is the per-tick state recorded by RecordTick.
type Sample struct {
	Uptime      float64
	Traffic     float64
	Capacity    float64
	LoadPercent float64
	Dropped     float64
	Budget      float64
	Downtime    float64
}

// RecordTick updates the aggregate gauges and counts a tick.
func RecordTick(session string, s Sample, took time.Duration) {
	Uptime.WithLabelValues(session).Set(s.Uptime)
	Traffic.WithLabelValues(session).Set(s.Traffic)
	Capacity.WithLabelValues(session).Set(s.Capacity)
	LoadPercent.WithLabelValues(session).Set(s.LoadPercent)
	DroppedTraffic.WithLabelValues(session).Set(s.Dropped)
	Budget.WithLabelValues(session).Set(s.Budget)
	Downtime.WithLabelValues(session).Set(s.Downtime)
	TicksTotal.WithLabelValues(session).Inc()
	TickDuration.WithLabelValues(session).Observe(took.Seconds())
}

// RecordNodeLoad sets one node's load gauge.
func RecordNodeLoad(session, node, nodeType string, load float64) {
	NodeLoad.WithLabelValues(session, node, nodeType).Set(load)
}

// RecordCommand counts a command. status is "ok" or "rejected".
func RecordCommand(session, command string, ok bool) {
	status := "ok"
	if !ok {
		status = "rejected"
	}
	CommandsTotal.WithLabelValues(session, command, status).Inc()
}

// RecordBudget updates the budget gauge outside the tick, e.g. after income.
func RecordBudget(session string, budget float64) {
	Budget.WithLabelValues(session).Set(budget)
}

// RecordParticles sets the live particle gauge.
func RecordParticles(session string, n int) {
	LiveParticles.WithLabelValues(session).Set(float64(n))
}

// Forget drops every series of a finished session.
func Forget(session string) {
	labels := prometheus.Labels{"session": session}
	for _, g := range []*prometheus.GaugeVec{Uptime, Traffic, Capacity, LoadPercent, DroppedTraffic, Budget, Downtime, LiveParticles, NodeLoad} {
		g.DeletePartialMatch(labels)
	}
	TicksTotal.DeletePartialMatch(labels)
	CommandsTotal.DeletePartialMatch(labels)
	TickDuration.DeletePartialMatch(labels)
}
