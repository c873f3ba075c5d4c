// Package health converts the global load percentage into a smoothed uptime
// figure and a downtime counter.
package health

import "math"

// Band is the load regime a step fell into.
type Band int

const (
	BandHealthy  Band = iota // below 80%
	BandDeadZone             // 80% to 90%, no change
	BandStrained             // above 90% up to 100%
	BandOverload             // above 100%
)

func (b Band) String() string {
	switch b {
	case BandHealthy:
		return "healthy"
	case BandDeadZone:
		return "steady"
	case BandStrained:
		return "strained"
	case BandOverload:
		return "overload"
	}
	return "unknown"
}

// Rates are the per-step adjustments applied in each band.
type Rates struct {
	OverloadDecay    float64 `yaml:"overload_decay"`
	OverloadDowntime float64 `yaml:"overload_downtime"`
	StrainDecay      float64 `yaml:"strain_decay"`
	Recovery         float64 `yaml:"recovery"`
	DowntimeRelief   float64 `yaml:"downtime_relief"`
}

// DefaultRates match the half-second simulation tick.
var DefaultRates = Rates{
	OverloadDecay:    1.5,
	OverloadDowntime: 0.5,
	StrainDecay:      0.3,
	Recovery:         0.2,
	DowntimeRelief:   0.2,
}

const (
	DefaultSmoothing = 0.1

	overloadAbove = 100
	strainedAbove = 90
	healthyBelow  = 80
)

// Loop tracks uptime and downtime. It is not safe for concurrent use.
type Loop struct {
	rates Rates
	alpha float64

	uptime   float64
	smoothed float64
	target   float64
	downtime float64
	band     Band
}

// Option customises a Loop.
type Option func(*Loop)

// WithRates overrides the band adjustments.
func WithRates(r Rates) Option { return func(l *Loop) { l.rates = r } }

// WithSmoothing sets the exponential smoothing factor, in (0,1].
func WithSmoothing(alpha float64) Option {
	return func(l *Loop) {
		if alpha > 0 && alpha <= 1 {
			l.alpha = alpha
		}
	}
}

// NewLoop starts at 100% uptime and no downtime.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		rates:    DefaultRates,
		alpha:    DefaultSmoothing,
		uptime:   100,
		smoothed: 100,
		target:   100,
		band:     BandHealthy,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Classify maps a load percentage onto its band. NaN is treated as the
// dead zone so it never moves the metrics.
func Classify(loadPct float64) Band {
	switch {
	case math.IsNaN(loadPct):
		return BandDeadZone
	case loadPct > overloadAbove:
		return BandOverload
	case loadPct > strainedAbove:
		return BandStrained
	case loadPct < healthyBelow:
		return BandHealthy
	default:
		return BandDeadZone
	}
}

// Step applies one tick for the given load percentage and returns its band.
// The target moves relative to the current uptime and the uptime is then
// smoothed toward it.
func (l *Loop) Step(loadPct float64) Band {
	band := Classify(loadPct)
	target := l.uptime
	switch band {
	case BandOverload:
		target -= l.rates.OverloadDecay
		l.downtime += l.rates.OverloadDowntime
	case BandStrained:
		target -= l.rates.StrainDecay
	case BandHealthy:
		target += l.rates.Recovery
		l.downtime = math.Max(0, l.downtime-l.rates.DowntimeRelief)
	}
	l.target = clampPct(target)
	l.smoothed = clampPct(l.smoothed + (l.target-l.smoothed)*l.alpha)
	l.uptime = l.smoothed
	l.band = band
	return band
}

// Maintain applies an emergency boost: uptime up by boost, downtime down by
// relief. Both the displayed and smoothed uptime move so the boost is not
// undone by the next step.
func (l *Loop) Maintain(boost, relief float64) {
	l.uptime = clampPct(l.uptime + boost)
	l.smoothed = l.uptime
	l.target = l.uptime
	l.downtime = math.Max(0, l.downtime-relief)
}

func (l *Loop) Uptime() float64         { return l.uptime }
func (l *Loop) SmoothedUptime() float64 { return l.smoothed }
func (l *Loop) Target() float64         { return l.target }
func (l *Loop) Downtime() float64       { return l.downtime }
func (l *Loop) Band() Band              { return l.band }

// Status is STABLE when uptime meets the warning threshold, else CRITICAL.
func (l *Loop) Status(threshold float64) string {
	if l.uptime >= threshold {
		return "STABLE"
	}
	return "CRITICAL"
}

func clampPct(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
