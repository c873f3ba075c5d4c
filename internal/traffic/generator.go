// Package traffic turns a breakpoint schedule into a smoothed demand signal.
package traffic

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptySchedule     = errors.New("traffic schedule is empty")
	ErrUnorderedSchedule = errors.New("traffic schedule times must be strictly increasing")
	ErrNegativeRate      = errors.New("traffic schedule rate is negative")
)

const (
	DefaultRate      = 500
	DefaultSmoothing = 0.1
	DefaultNoise     = 0.02
)

// Point is one breakpoint of the demand schedule. Time is in game seconds.
type Point struct {
	Time              float64 `yaml:"time" json:"time"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
}

// Source supplies uniform samples in [0,1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Generator produces the demand signal. It is not safe for concurrent use.
type Generator struct {
	schedule    []Point
	defaultRate float64
	alpha       float64
	noise       float64
	rng         Source

	target   float64
	smoothed float64
	current  float64
}

// Option customises a Generator.
type Option func(*Generator)

// WithDefaultRate sets the demand used before the first breakpoint. It also
// seeds the smoothed value.
func WithDefaultRate(r float64) Option {
	return func(g *Generator) {
		if r >= 0 {
			g.defaultRate = r
		}
	}
}

// WithSmoothing sets the exponential smoothing factor, in (0,1].
func WithSmoothing(alpha float64) Option {
	return func(g *Generator) {
		if alpha > 0 && alpha <= 1 {
			g.alpha = alpha
		}
	}
}

// WithNoise sets the half-width of the uniform noise band as a fraction of
// the base demand. Zero disables noise.
func WithNoise(fraction float64) Option {
	return func(g *Generator) {
		if fraction >= 0 {
			g.noise = fraction
		}
	}
}

// WithSource injects the random source used for noise.
func WithSource(src Source) Option {
	return func(g *Generator) { g.rng = src }
}

// NewGenerator validates the schedule and returns a generator whose smoothed
// value starts at the default rate.
func NewGenerator(schedule []Point, opts ...Option) (*Generator, error) {
	if err := ValidateSchedule(schedule); err != nil {
		return nil, err
	}
	g := &Generator{
		schedule:    append([]Point(nil), schedule...),
		defaultRate: DefaultRate,
		alpha:       DefaultSmoothing,
		noise:       DefaultNoise,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.target = g.defaultRate
	g.smoothed = g.defaultRate
	g.current = math.Round(g.defaultRate)
	return g, nil
}

// ValidateSchedule checks that a schedule is non-empty, strictly increasing
// in time and has no negative rates.
func ValidateSchedule(schedule []Point) error {
	if len(schedule) == 0 {
		return ErrEmptySchedule
	}
	for i, p := range schedule {
		if p.RequestsPerSecond < 0 || math.IsNaN(p.RequestsPerSecond) {
			return fmt.Errorf("%w: point %d", ErrNegativeRate, i)
		}
		if i > 0 && p.Time <= schedule[i-1].Time {
			return fmt.Errorf("%w: point %d at t=%g follows t=%g", ErrUnorderedSchedule, i, p.Time, schedule[i-1].Time)
		}
	}
	return nil
}

// Base returns the noiseless demand at game time t: the last breakpoint at
// or before t, interpolated linearly toward the next one.
func (g *Generator) Base(t float64) float64 {
	i := -1
	for j, p := range g.schedule {
		if p.Time > t {
			break
		}
		i = j
	}
	if i < 0 {
		return g.defaultRate
	}
	cur := g.schedule[i]
	if i+1 == len(g.schedule) {
		return cur.RequestsPerSecond
	}
	next := g.schedule[i+1]
	progress := (t - cur.Time) / (next.Time - cur.Time)
	return cur.RequestsPerSecond + (next.RequestsPerSecond-cur.RequestsPerSecond)*progress
}

// Target returns the base demand with noise applied, floored at zero.
func (g *Generator) Target(t float64) float64 {
	base := g.Base(t)
	if g.rng != nil && g.noise > 0 {
		base += base * g.noise * (2*g.rng.Float64() - 1)
	}
	return math.Max(0, base)
}

// Update advances the filter one step toward the target at t and returns the
// rounded current traffic.
func (g *Generator) Update(t float64) float64 {
	g.target = g.Target(t)
	g.smoothed += (g.target - g.smoothed) * g.alpha
	g.current = math.Round(g.smoothed)
	return g.current
}

// Current is the rounded smoothed traffic from the last Update.
func (g *Generator) Current() float64 { return g.current }

// Smoothed is the unrounded filter value.
func (g *Generator) Smoothed() float64 { return g.smoothed }

// LastTarget is the noisy target used by the last Update.
func (g *Generator) LastTarget() float64 { return g.target }

// Schedule returns a copy of the configured breakpoints.
func (g *Generator) Schedule() []Point { return append([]Point(nil), g.schedule...) }
