package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"netnexus-sim/internal/admin"
	"netnexus-sim/internal/config"
	"netnexus-sim/internal/logging"
	"netnexus-sim/internal/scenario"
	"netnexus-sim/internal/sim"
	"netnexus-sim/internal/telemetry"
)

func testScenario(t *testing.T) *scenario.Scenario {
	t.Helper()
	scn, err := scenario.Get("viral-surge")
	if err != nil {
		t.Fatalf("scenario: %v", err)
	}
	return scn
}

func TestNewWritersPrintOnly(t *testing.T) {
	w, tui, cleanup, err := newWriters(config.Default(), testScenario(t), writerOptions{printOnly: true})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if tui != nil {
		t.Fatalf("TUI started without being requested")
	}
	if _, ok := w.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", w)
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	cfg := config.Default()
	cfg.Greptime.Endpoint = ""
	w, _, cleanup, err := newWriters(cfg, testScenario(t), writerOptions{})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", w)
	}
}

func TestNewWritersLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session")
	w, _, cleanup, err := newWriters(config.Default(), testScenario(t), writerOptions{printOnly: true, logFile: path})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if _, ok := w.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", w)
	}
	mw := w.(*sim.MultiWriter)
	if err := mw.WriteState(telemetry.StateRow{SessionID: "s1", Tick: 1, Timestamp: time.Now()}); err != nil {
		t.Fatalf("write state failed: %v", err)
	}
	if err := mw.WriteEvent(telemetry.EventRow{SessionID: "s1", Type: telemetry.EventPlace, Timestamp: time.Now()}); err != nil {
		t.Fatalf("write event failed: %v", err)
	}
	cleanup()
	for _, suffix := range []string{".state", ".events"} {
		info, err := os.Stat(path + suffix)
		if err != nil {
			t.Fatalf("stat %s failed: %v", suffix, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s log to be non-empty", suffix)
		}
	}
}

func TestNewWritersWithHub(t *testing.T) {
	hub := admin.NewHub(logging.Discard())
	w, _, cleanup, err := newWriters(config.Default(), testScenario(t), writerOptions{printOnly: true, hub: hub})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if _, ok := w.(sim.FramePublisher); !ok {
		t.Fatalf("hub frames not reachable through %T", w)
	}
}

func TestReplayWriter(t *testing.T) {
	w, err := replayWriter(config.Default(), false)
	if err != nil {
		t.Fatalf("replayWriter returned error: %v", err)
	}
	if _, ok := w.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", w)
	}
}

func TestWantTUI(t *testing.T) {
	if !wantTUI("on", true) {
		t.Errorf("on must force the TUI")
	}
	if wantTUI("off", false) {
		t.Errorf("off must disable the TUI")
	}
	if wantTUI("auto", true) {
		t.Errorf("auto must not start the TUI when printing rows")
	}
	if err := validateTUIFlag("sometimes"); err == nil {
		t.Errorf("expected invalid --tui value to be rejected")
	}
}
