// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"netnexus-sim/internal/health"
	"netnexus-sim/internal/particles"
	"netnexus-sim/schemas"
)

// Canvas is the drawable area nodes are clamped to.
type Canvas struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Greptime holds the export target. Endpoint is host:port.
type Greptime struct {
	Endpoint string `yaml:"endpoint"`
	Database string `yaml:"database"`
}

// Admin configures the HTTP control surface.
type Admin struct {
	Addr string `yaml:"addr"`
}

// Log selects the slog handler.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SimulationConfig is the root configuration of one simulation session.
type SimulationConfig struct {
	Scenario        string  `yaml:"scenario"`
	ScenarioFile    string  `yaml:"scenario_file"`
	SessionID       string  `yaml:"session_id"`
	Seed            int64   `yaml:"seed"`
	StartingBudget  float64 `yaml:"starting_budget"`
	IncomePerSecond float64 `yaml:"income_per_second"`

	SmoothingFactor float64 `yaml:"smoothing_factor"`
	NoiseFraction   float64 `yaml:"noise_fraction"`
	DefaultTraffic  float64 `yaml:"default_traffic"`
	MaxForwardDepth *int    `yaml:"max_forward_depth"`

	TargetCapacity    float64 `yaml:"target_capacity"`
	TargetUptime      float64 `yaml:"target_uptime"`
	UptimeWarning     float64 `yaml:"uptime_warning"`
	MaxDowntime       float64 `yaml:"max_downtime"`
	AutoScaleCost     float64 `yaml:"auto_scale_cost"`
	AutoScaleTrigger  float64 `yaml:"auto_scale_trigger"`
	MaintenanceBoost  float64 `yaml:"maintenance_boost"`
	MaintenanceRelief float64 `yaml:"maintenance_relief"`

	TickInterval   time.Duration `yaml:"tick_interval"`
	IncomeInterval time.Duration `yaml:"income_interval"`
	FrameInterval  time.Duration `yaml:"frame_interval"`

	UptimeRates health.Rates     `yaml:"uptime_rates"`
	Canvas      Canvas           `yaml:"canvas"`
	Particles   particles.Config `yaml:"particles"`
	Greptime    Greptime         `yaml:"greptime"`
	Admin       Admin            `yaml:"admin"`
	Log         Log              `yaml:"log"`
}

// Default returns the reference tuning: $500 budget, +$5/s, alpha 0.1,
// victory at 5000 req/s and 98% uptime, failure past 30s of downtime.
func Default() *SimulationConfig {
	depth := 1
	return &SimulationConfig{
		Scenario:          "viral-surge",
		StartingBudget:    500,
		IncomePerSecond:   5,
		SmoothingFactor:   0.1,
		NoiseFraction:     0.02,
		DefaultTraffic:    500,
		MaxForwardDepth:   &depth,
		TargetCapacity:    5000,
		TargetUptime:      98,
		UptimeWarning:     95,
		MaxDowntime:       30,
		AutoScaleCost:     200,
		AutoScaleTrigger:  80,
		MaintenanceBoost:  10,
		MaintenanceRelief: 5,
		TickInterval:      500 * time.Millisecond,
		IncomeInterval:    time.Second,
		FrameInterval:     33 * time.Millisecond,
		UptimeRates:       health.DefaultRates,
		Canvas:            Canvas{Width: 800, Height: 400},
		Particles:         particles.DefaultConfig,
		Greptime:          Greptime{Database: "public"},
		Admin:             Admin{Addr: ":8080"},
		Log:               Log{Level: "info", Format: "text"},
	}
}

// Load validates the YAML file against the embedded CUE schema, decodes it
// over the defaults and applies environment overrides. An empty path yields
// the defaults.
func Load(configPath string) (*SimulationConfig, error) {
	cfg := Default()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := Validate(configPath, data, schemas.Simulation); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults restores defaults for nested blocks the file zeroed out.
func (c *SimulationConfig) applyDefaults() {
	d := Default()
	if c.UptimeRates == (health.Rates{}) {
		c.UptimeRates = d.UptimeRates
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		c.Canvas = d.Canvas
	}
	if c.Particles == (particles.Config{}) {
		c.Particles = d.Particles
	}
	if c.Particles.MaxLive <= 0 {
		c.Particles.MaxLive = d.Particles.MaxLive
	}
	if c.Particles.EvictBatch <= 0 {
		c.Particles.EvictBatch = d.Particles.EvictBatch
	}
	if c.Particles.TTL <= 0 {
		c.Particles.TTL = d.Particles.TTL
	}
	if c.MaxForwardDepth == nil {
		c.MaxForwardDepth = d.MaxForwardDepth
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.IncomeInterval <= 0 {
		c.IncomeInterval = d.IncomeInterval
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = d.FrameInterval
	}
}

// ApplyEnv applies TICK_INTERVAL, SESSION_ID and GREPTIMEDB_ENDPOINT.
func (c *SimulationConfig) ApplyEnv() error {
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid TICK_INTERVAL %q", v)
		}
		c.TickInterval = d
	}
	if v := os.Getenv("SESSION_ID"); v != "" {
		c.SessionID = v
	}
	if v := os.Getenv("GREPTIMEDB_ENDPOINT"); v != "" {
		c.Greptime.Endpoint = v
	}
	return nil
}

// ForwardDepth is the configured overflow depth.
func (c *SimulationConfig) ForwardDepth() int {
	if c.MaxForwardDepth == nil {
		return 1
	}
	return *c.MaxForwardDepth
}
