package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"netnexus-sim/internal/telemetry"
)

type mockGreptimeClient struct {
	table *table.Table
	calls int
	err   error
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	m.calls++
	if len(tables) > 0 {
		m.table = tables[0]
	}
	return &gpb.GreptimeResponse{}, m.err
}

func TestGreptimeWriterState(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, stateTable: "nexus_state"}

	row := telemetry.StateRow{SessionID: "s1", Scenario: "viral-surge", Phase: "launch", Status: "STABLE", Tick: 3, Traffic: 520, Uptime: 99.5, Timestamp: time.Unix(0, 0).UTC()}
	if err := w.WriteState(row); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}
	values := m.table.GetRows().Rows[0].Values
	if got := values[0].GetStringValue(); got != "s1" {
		t.Fatalf("session_id = %s, want s1", got)
	}
	if got := values[2].GetStringValue(); got != "launch" {
		t.Fatalf("phase = %s, want launch", got)
	}
	if got := values[6].GetF64Value(); got != 520 {
		t.Fatalf("traffic = %v, want 520", got)
	}
}

func TestGreptimeWriterNodeLoads(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, nodeTable: "nexus_node_load"}

	if err := w.WriteNodeLoads(nil); err != nil || m.calls != 0 {
		t.Fatalf("empty batch should be skipped, calls=%d err=%v", m.calls, err)
	}
	rows := []telemetry.NodeLoadRow{
		{SessionID: "s1", NodeID: "1", NodeType: "web-server", Capacity: 1000, Load: 500},
		{SessionID: "s1", NodeID: "2", NodeType: "cache", Capacity: 1500, Load: 0},
	}
	if err := w.WriteNodeLoads(rows); err != nil {
		t.Fatalf("WriteNodeLoads: %v", err)
	}
	if got := len(m.table.GetRows().Rows); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
	if got := m.table.GetRows().Rows[1].Values[2].GetStringValue(); got != "cache" {
		t.Fatalf("node_type = %s, want cache", got)
	}
}

func TestGreptimeWriterEventError(t *testing.T) {
	m := &mockGreptimeClient{err: errors.New("unavailable")}
	w := &GreptimeDBWriter{client: m, eventTable: "nexus_events"}

	err := w.WriteEvent(telemetry.EventRow{SessionID: "s1", Type: telemetry.EventPlace, Level: telemetry.LevelSuccess, Message: "ok"})
	if err == nil {
		t.Fatalf("expected client error to surface")
	}
	if got := m.table.GetRows().Rows[0].Values[1].GetStringValue(); got != telemetry.EventPlace {
		t.Fatalf("event_type = %s, want place", got)
	}
}

func TestSplitEndpoint(t *testing.T) {
	cases := []struct {
		in   string
		host string
		port int
		err  bool
	}{
		{"greptimedb:4001", "greptimedb", 4001, false},
		{"localhost", "localhost", defaultGreptimePort, false},
		{"db:abc", "", 0, true},
		{"", "", 0, true},
	}
	for _, c := range cases {
		host, port, err := splitEndpoint(c.in)
		if (err != nil) != c.err {
			t.Fatalf("%q: err = %v", c.in, err)
		}
		if !c.err && (host != c.host || port != c.port) {
			t.Fatalf("%q: got %s:%d", c.in, host, port)
		}
	}
}
