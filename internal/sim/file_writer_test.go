package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"netnexus-sim/internal/telemetry"
)

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	ts := time.Unix(0, 0).UTC()
	stRow := telemetry.StateRow{SessionID: "s1", Tick: 4, Traffic: 800, Uptime: 97.5, Timestamp: ts}
	nRows := []telemetry.NodeLoadRow{
		{SessionID: "s1", NodeID: "1", NodeType: "web-server", Load: 400, Timestamp: ts},
		{SessionID: "s1", NodeID: "2", NodeType: "cache", Load: 400, Timestamp: ts},
	}
	eRow := telemetry.EventRow{SessionID: "s1", Type: telemetry.EventMaintenance, Level: telemetry.LevelSuccess, Message: "done", Timestamp: ts}

	statePath := filepath.Join(dir, "run.state")
	nodePath := filepath.Join(dir, "run.nodes")
	eventPath := filepath.Join(dir, "run.events")
	fw, err := NewFileWriter(statePath, nodePath, eventPath)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	if err := fw.WriteState(stRow); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	if err := fw.WriteNodeLoads(nRows); err != nil {
		t.Fatalf("WriteNodeLoads: %v", err)
	}
	if err := fw.WriteEvent(eRow); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var gotState telemetry.StateRow
	decodeLines(t, statePath, func(b []byte) {
		if err := json.Unmarshal(b, &gotState); err != nil {
			t.Fatalf("decode state: %v", err)
		}
	})
	if gotState.Tick != stRow.Tick || gotState.Uptime != stRow.Uptime {
		t.Fatalf("unexpected state: %#v", gotState)
	}

	n := decodeLines(t, nodePath, func(b []byte) {
		var got telemetry.NodeLoadRow
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("decode node load: %v", err)
		}
	})
	if n != 2 {
		t.Fatalf("expected 2 node rows, got %d", n)
	}

	var gotEvent telemetry.EventRow
	decodeLines(t, eventPath, func(b []byte) {
		if err := json.Unmarshal(b, &gotEvent); err != nil {
			t.Fatalf("decode event: %v", err)
		}
	})
	if gotEvent.Type != telemetry.EventMaintenance || gotEvent.Message != "done" {
		t.Fatalf("unexpected event: %#v", gotEvent)
	}
}

func TestFileWriterOptionalLogs(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWriter(filepath.Join(dir, "only.state"), "", "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer fw.Close()
	if err := fw.WriteNodeLoads([]telemetry.NodeLoadRow{{NodeID: "1"}}); err != nil {
		t.Fatalf("disabled node log should be a no-op: %v", err)
	}
	if err := fw.WriteEvent(telemetry.EventRow{Type: telemetry.EventPlace}); err != nil {
		t.Fatalf("disabled event log should be a no-op: %v", err)
	}
}

func decodeLines(t *testing.T, path string, fn func([]byte)) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fn(sc.Bytes())
		n++
	}
	return n
}
