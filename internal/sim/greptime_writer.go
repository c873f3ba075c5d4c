package sim

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"netnexus-sim/internal/telemetry"
)

const defaultGreptimePort = 4001

// greptimeClient is the part of the ingester client the writer uses.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes state, node load and event rows to GreptimeDB.
// Tables are created by the ingester on first write.
type GreptimeDBWriter struct {
	client     greptimeClient
	stateTable string
	nodeTable  string
	eventTable string
	timeout    time.Duration
}

// NewGreptimeDBWriter connects to endpoint (host or host:port).
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeDBWriter{
		client:     client,
		stateTable: telemetry.StateTableName,
		nodeTable:  telemetry.NodeLoadTableName,
		eventTable: telemetry.EventTableName,
		timeout:    5 * time.Second,
	}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	if endpoint == "" {
		return "", 0, fmt.Errorf("greptime endpoint is empty")
	}
	host, p, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("greptime endpoint %q: bad port", endpoint)
	}
	return host, port, nil
}

func (w *GreptimeDBWriter) write(name string, tbl *table.Table) error {
	timeout := w.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptime write %s: %w", name, err)
	}
	return nil
}

// WriteState inserts one state row.
func (w *GreptimeDBWriter) WriteState(r telemetry.StateRow) error {
	tbl, err := table.New(w.stateTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("session_id", types.STRING)
	tbl.AddTagColumn("scenario", types.STRING)
	tbl.AddFieldColumn("phase", types.STRING)
	tbl.AddFieldColumn("status", types.STRING)
	tbl.AddFieldColumn("tick", types.INT64)
	tbl.AddFieldColumn("game_time", types.FLOAT64)
	tbl.AddFieldColumn("traffic", types.FLOAT64)
	tbl.AddFieldColumn("smoothed_traffic", types.FLOAT64)
	tbl.AddFieldColumn("capacity", types.FLOAT64)
	tbl.AddFieldColumn("load_percent", types.FLOAT64)
	tbl.AddFieldColumn("assigned", types.FLOAT64)
	tbl.AddFieldColumn("dropped", types.FLOAT64)
	tbl.AddFieldColumn("uptime", types.FLOAT64)
	tbl.AddFieldColumn("smoothed_uptime", types.FLOAT64)
	tbl.AddFieldColumn("downtime", types.FLOAT64)
	tbl.AddFieldColumn("budget", types.FLOAT64)
	tbl.AddFieldColumn("nodes", types.INT64)
	tbl.AddFieldColumn("connections", types.INT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	if err := tbl.AddRow(
		r.SessionID, r.Scenario, r.Phase, r.Status, r.Tick, r.GameTime,
		r.Traffic, r.SmoothedTraffic, r.Capacity, r.LoadPercent, r.Assigned, r.Dropped,
		r.Uptime, r.SmoothedUptime, r.Downtime, r.Budget,
		int64(r.Nodes), int64(r.Connections), r.Timestamp,
	); err != nil {
		return err
	}
	return w.write(w.stateTable, tbl)
}

// WriteNodeLoads inserts one row per node.
func (w *GreptimeDBWriter) WriteNodeLoads(rows []telemetry.NodeLoadRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.nodeTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("session_id", types.STRING)
	tbl.AddTagColumn("node_id", types.STRING)
	tbl.AddTagColumn("node_type", types.STRING)
	tbl.AddFieldColumn("capacity", types.FLOAT64)
	tbl.AddFieldColumn("load", types.FLOAT64)
	tbl.AddFieldColumn("load_percent", types.FLOAT64)
	tbl.AddFieldColumn("health", types.FLOAT64)
	tbl.AddFieldColumn("level", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.SessionID, r.NodeID, r.NodeType, r.Capacity, r.Load, r.LoadPercent, r.Health, r.Level, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.nodeTable, tbl)
}

// WriteEvent inserts one event row.
func (w *GreptimeDBWriter) WriteEvent(r telemetry.EventRow) error {
	tbl, err := table.New(w.eventTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("session_id", types.STRING)
	tbl.AddTagColumn("event_type", types.STRING)
	tbl.AddFieldColumn("level", types.STRING)
	tbl.AddFieldColumn("message", types.STRING)
	tbl.AddFieldColumn("node_id", types.STRING)
	tbl.AddFieldColumn("amount", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	if err := tbl.AddRow(r.SessionID, r.Type, r.Level, r.Message, r.NodeID, r.Amount, r.Timestamp); err != nil {
		return err
	}
	return w.write(w.eventTable, tbl)
}
