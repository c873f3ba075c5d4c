package sim

// FinalStats is handed to the host on victory.
type FinalStats struct {
	Uptime     float64 `json:"uptime"`
	Capacity   float64 `json:"capacity"`
	Traffic    float64 `json:"traffic"`
	NodesBuilt int     `json:"nodes_built"`
	Budget     float64 `json:"budget"`
	GameTime   float64 `json:"game_time"`
}

// Callbacks are the termination hooks of the host. Either may be nil.
type Callbacks struct {
	OnVictory func(FinalStats)
	OnFailure func(reason string)
}

// Outcome of a session.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeVictory Outcome = "victory"
	OutcomeFailure Outcome = "failure"
)

// Failure reasons.
const (
	ReasonCollapse  = "infrastructure collapsed: website overwhelmed by traffic"
	ReasonAbandoned = "infrastructure abandoned: website taken offline"
)

// Thresholds decide terminal transitions.
type Thresholds struct {
	TargetCapacity float64
	TargetUptime   float64
	MaxDowntime    float64
}

// Referee reports the first terminal outcome exactly once. The simulation
// keeps running afterwards; stopping is the host's decision.
type Referee struct {
	th      Thresholds
	cb      Callbacks
	outcome Outcome
	reason  string
}

// NewReferee creates a referee with the given thresholds and hooks.
func NewReferee(th Thresholds, cb Callbacks) *Referee {
	return &Referee{th: th, cb: cb}
}

// Evaluate checks the state after a tick. It returns the outcome and true
// only on the call that decided it.
func (r *Referee) Evaluate(st State) (Outcome, bool) {
	if r.outcome != OutcomeNone {
		return r.outcome, false
	}
	switch {
	case st.DowntimeSeconds > r.th.MaxDowntime:
		r.fail(ReasonCollapse)
	case st.TotalCapacity >= r.th.TargetCapacity && st.Uptime >= r.th.TargetUptime:
		r.outcome = OutcomeVictory
		if r.cb.OnVictory != nil {
			r.cb.OnVictory(FinalStats{
				Uptime:     st.Uptime,
				Capacity:   st.TotalCapacity,
				Traffic:    st.CurrentTraffic,
				NodesBuilt: len(st.Nodes),
				Budget:     st.Budget,
				GameTime:   st.GameTime,
			})
		}
	default:
		return OutcomeNone, false
	}
	return r.outcome, true
}

// Abandon reports failure on behalf of the operator. It returns false when
// an outcome was already decided.
func (r *Referee) Abandon() bool {
	if r.outcome != OutcomeNone {
		return false
	}
	r.fail(ReasonAbandoned)
	return true
}

func (r *Referee) fail(reason string) {
	r.outcome = OutcomeFailure
	r.reason = reason
	if r.cb.OnFailure != nil {
		r.cb.OnFailure(reason)
	}
}

// Outcome returns the decided outcome and, for failures, the reason.
func (r *Referee) Outcome() (Outcome, string) { return r.outcome, r.reason }
