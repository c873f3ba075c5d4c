// Telemetry structs with greptime tags
package telemetry

import (
	"os"
	"time"
)

// StateRow captures the aggregate simulation state after one tick.
type StateRow struct {
	SessionID       string    `json:"session_id"` // TAG
	Scenario        string    `json:"scenario"`   // TAG
	Phase           string    `json:"phase"`      // FIELD
	Status          string    `json:"status"`     // FIELD
	Tick            int64     `json:"tick"`
	GameTime        float64   `json:"game_time"`
	Traffic         float64   `json:"traffic"`
	SmoothedTraffic float64   `json:"smoothed_traffic"`
	Capacity        float64   `json:"capacity"`
	LoadPercent     float64   `json:"load_percent"`
	Assigned        float64   `json:"assigned"`
	Dropped         float64   `json:"dropped"`
	Uptime          float64   `json:"uptime"`
	SmoothedUptime  float64   `json:"smoothed_uptime"`
	Downtime        float64   `json:"downtime"`
	Budget          float64   `json:"budget"`
	Nodes           int       `json:"nodes"`
	Connections     int       `json:"connections"`
	Timestamp       time.Time `json:"ts"` // TIME INDEX
}

// NodeLoadRow is one node's load after a tick.
type NodeLoadRow struct {
	SessionID   string    `json:"session_id"` // TAG
	NodeID      string    `json:"node_id"`    // TAG
	NodeType    string    `json:"node_type"`  // TAG
	Capacity    float64   `json:"capacity"`
	Load        float64   `json:"load"`
	LoadPercent float64   `json:"load_percent"`
	Health      float64   `json:"health"`
	Level       string    `json:"level"`
	Timestamp   time.Time `json:"ts"` // TIME INDEX
}

// EventRow records an operator command, an advisory or an outcome.
type EventRow struct {
	SessionID string    `json:"session_id"` // TAG
	Type      string    `json:"event_type"` // TAG
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	NodeID    string    `json:"node_id,omitempty"`
	Amount    float64   `json:"amount,omitempty"`
	Timestamp time.Time `json:"ts"` // TIME INDEX
}

// Event types.
const (
	EventPlace       = "place"
	EventConnect     = "connect"
	EventMove        = "move"
	EventAutoScale   = "auto_scale"
	EventMaintenance = "maintenance"
	EventBudget      = "budget"
	EventIncome      = "income"
	EventPhase       = "phase"
	EventVictory     = "victory"
	EventFailure     = "failure"
)

// Advisory levels, mirroring the toast styles of the game shell.
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelError   = "error"
)

func tableName(env, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// Table names used when writing to GreptimeDB. Each can be overridden through
// its environment variable.
var (
	StateTableName    = tableName("GREPTIMEDB_STATE_TABLE", "nexus_state")
	NodeLoadTableName = tableName("GREPTIMEDB_NODE_TABLE", "nexus_node_load")
	EventTableName    = tableName("GREPTIMEDB_EVENT_TABLE", "nexus_events")
)

func (StateRow) TableName() string    { return StateTableName }
func (NodeLoadRow) TableName() string { return NodeLoadTableName }
func (EventRow) TableName() string    { return EventTableName }
