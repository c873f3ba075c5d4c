package sim

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"netnexus-sim/internal/config"
	"netnexus-sim/internal/network"
	"netnexus-sim/internal/particles"
	"netnexus-sim/internal/scenario"
	"netnexus-sim/internal/telemetry"
)

type fakeProgram struct{ msgs []tea.Msg }

func (f *fakeProgram) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

type recordingCommander struct{ cmds []Command }

func (r *recordingCommander) Submit(_ context.Context, cmd Command) Result {
	r.cmds = append(r.cmds, cmd)
	return Result{OK: true, Level: telemetry.LevelSuccess, Message: "ok"}
}

func keyRune(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

func TestTUIWriterMessages(t *testing.T) {
	p := &fakeProgram{}
	w := &TUIWriter{program: p, typeColors: map[string]string{}}
	st := telemetry.StateRow{Tick: 1, Status: "STABLE", Timestamp: time.Unix(0, 0).UTC()}
	if err := w.WriteState(st); err != nil {
		t.Fatalf("state: %v", err)
	}
	if _, ok := p.msgs[0].(logMsg); !ok {
		t.Fatalf("expected logMsg, got %T", p.msgs[0])
	}
	if _, ok := p.msgs[1].(stateMsg); !ok {
		t.Fatalf("expected stateMsg, got %T", p.msgs[1])
	}
	w.SetAdminStatus(true)
	if _, ok := p.msgs[2].(adminMsg); !ok {
		t.Fatalf("expected adminMsg, got %T", p.msgs[2])
	}
	if err := w.WriteEvent(telemetry.EventRow{Type: telemetry.EventPlace, Message: "bought"}); err != nil {
		t.Fatalf("event: %v", err)
	}
	if m, ok := p.msgs[3].(eventMsg); !ok || !strings.Contains(m.line, "bought") {
		t.Fatalf("expected eventMsg, got %#v", p.msgs[3])
	}
	if err := w.WriteNodeLoads([]telemetry.NodeLoadRow{{NodeID: "1"}}); err != nil {
		t.Fatalf("nodes: %v", err)
	}
	if _, ok := p.msgs[4].(nodesMsg); !ok {
		t.Fatalf("expected nodesMsg, got %T", p.msgs[4])
	}
	w.PublishFrame(particles.Frame{})
	if _, ok := p.msgs[5].(frameMsg); !ok {
		t.Fatalf("expected frameMsg, got %T", p.msgs[5])
	}
	w.SetCommander(&recordingCommander{})
	if _, ok := p.msgs[6].(setCommanderMsg); !ok {
		t.Fatalf("expected setCommanderMsg, got %T", p.msgs[6])
	}
}

func TestWrapToggle(t *testing.T) {
	scn := &scenario.Scenario{
		NodeTypes: []network.NodeType{{ID: "edge", Name: "Very Long Edge Accelerator Appliance", Capacity: 3000, Cost: 300}},
	}
	m := newTUIModel(config.Default(), scn, map[string]string{"edge": colorBlue})
	mi, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 30})
	m = mi.(tuiModel)
	long := "one two three four five six seven eight nine ten eleven twelve"
	mi, _ = m.Update(logMsg{line: long})
	m = mi.(tuiModel)
	lines := strings.Split(m.vp.View(), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[1]) != "" {
		t.Fatalf("expected single line before wrap")
	}
	width := m.vp.Width/2 - 1
	before := renderTypeTree(m.scn, m.typeColors, false, width)
	mi, _ = m.Update(keyRune('w'))
	m = mi.(tuiModel)
	if !m.wrap {
		t.Fatalf("wrap not toggled")
	}
	lines = strings.Split(m.vp.View(), "\n")
	if strings.TrimSpace(lines[1]) == "" {
		t.Fatalf("expected wrapped content on second line")
	}
	after := renderTypeTree(m.scn, m.typeColors, m.wrap, width)
	if strings.Count(after, "\n") <= strings.Count(before, "\n") {
		t.Fatalf("expected node type line to wrap")
	}
}

func TestScrollToggle(t *testing.T) {
	m := newTUIModel(config.Default(), nil, nil)
	m.vp.Height = 1
	m.vp.Width = 20
	mi, _ := m.Update(logMsg{line: "l1"})
	m = mi.(tuiModel)
	mi, _ = m.Update(logMsg{line: "l2"})
	m = mi.(tuiModel)
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset 1, got %d", m.vp.YOffset)
	}
	mi, _ = m.Update(keyRune('s'))
	m = mi.(tuiModel)
	if m.autoscroll {
		t.Fatalf("autoscroll should be off")
	}
	mi, _ = m.Update(logMsg{line: "l3"})
	m = mi.(tuiModel)
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset unchanged, got %d", m.vp.YOffset)
	}
	mi, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = mi.(tuiModel)
	if m.vp.YOffset != 0 {
		t.Fatalf("expected YOffset 0 after scrolling up, got %d", m.vp.YOffset)
	}
	mi, _ = m.Update(keyRune('s'))
	m = mi.(tuiModel)
	if !m.autoscroll {
		t.Fatalf("autoscroll should be on")
	}
	expected := len(m.logs) - m.vp.Height
	if m.vp.YOffset != expected {
		t.Fatalf("expected YOffset %d, got %d", expected, m.vp.YOffset)
	}
}

func TestKeyBindingsSubmitCommands(t *testing.T) {
	rc := &recordingCommander{}
	m := newTUIModel(config.Default(), &scenario.Scenario{NodeTypes: scenario.DefaultNodeTypes}, map[string]string{})
	mi, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m = mi.(tuiModel)

	if _, cmd := m.Update(keyRune('a')); cmd != nil {
		t.Fatalf("command issued without a commander")
	}
	mi, _ = m.Update(setCommanderMsg{c: rc})
	m = mi.(tuiModel)

	_, cmd := m.Update(keyRune('a'))
	if cmd == nil {
		t.Fatalf("expected a command for auto-scale")
	}
	msg := cmd()
	if res, ok := msg.(resultMsg); !ok || !res.OK {
		t.Fatalf("unexpected message %#v", msg)
	}
	if len(rc.cmds) != 1 || rc.cmds[0].Type != CommandAutoScale {
		t.Fatalf("commands = %+v", rc.cmds)
	}

	mi, _ = m.Update(keyRune('b'))
	m = mi.(tuiModel)
	if m.dialog != dialogPlace {
		t.Fatalf("place dialog not opened")
	}
	m.input.SetValue("cache, 320, 180")
	mi, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = mi.(tuiModel)
	if m.dialog != dialogNone || cmd == nil {
		t.Fatalf("enter should close the dialog and submit")
	}
	cmd()
	got := rc.cmds[len(rc.cmds)-1]
	if got.Type != CommandPlace || got.NodeType != "cache" || got.X != 320 || got.Y != 180 {
		t.Fatalf("place command = %+v", got)
	}

	mi, _ = m.Update(resultMsg{Result{Message: "insufficient budget"}})
	m = mi.(tuiModel)
	if !strings.Contains(m.renderBottom(), "insufficient budget") {
		t.Fatalf("result not shown in footer")
	}
}

func TestParseDialogInput(t *testing.T) {
	cmd, err := parseDialogInput(dialogConnect, "internet, 3")
	if err != nil || cmd.From != network.InternetID || cmd.To != 3 {
		t.Fatalf("connect = %+v %v", cmd, err)
	}
	cmd, err = parseDialogInput(dialogMove, "2,10,20")
	if err != nil || cmd.Type != CommandMove || cmd.NodeID != 2 || cmd.X != 10 {
		t.Fatalf("move = %+v %v", cmd, err)
	}
	if _, err := parseDialogInput(dialogPlace, "cache,x,1"); err == nil {
		t.Fatalf("expected error for bad coordinate")
	}
	if _, err := parseDialogInput(dialogConnect, "1"); err == nil {
		t.Fatalf("expected error for missing target")
	}
}

func TestRenderMap(t *testing.T) {
	m := newTUIModel(config.Default(), nil, nil)
	mi, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 30})
	m = mi.(tuiModel)
	if m.renderMap() != "No topology data" {
		t.Fatalf("expected placeholder before the first frame")
	}
	f := particles.Frame{
		Internet:    network.NodeView{ID: network.InternetID, X: 50, Y: 200, IsInternet: true},
		Nodes:       []network.NodeView{{ID: 1, Type: "web-server", X: 400, Y: 200, Level: network.LevelCritical}},
		Connections: []network.Connection{{From: network.InternetID, To: 1}},
		Particles:   []particles.View{{X: 200, Y: 200, Color: "#ef4444"}},
	}
	mi, _ = m.Update(frameMsg{f})
	m = mi.(tuiModel)
	out := m.renderMap()
	for _, want := range []string{"@", "W", "·", "particles=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("map missing %q", want)
		}
	}
	mi, _ = m.Update(keyRune('m'))
	m = mi.(tuiModel)
	if !strings.Contains(m.View(), "canvas 800x400") {
		t.Fatalf("map view not shown after toggle")
	}
}

func TestOutcomeBanner(t *testing.T) {
	m := newTUIModel(config.Default(), nil, nil)
	mi, _ := m.Update(eventMsg{line: "x", row: telemetry.EventRow{Type: telemetry.EventFailure, Message: ReasonCollapse}})
	m = mi.(tuiModel)
	if !strings.Contains(m.View(), "FAILURE: "+ReasonCollapse) {
		t.Fatalf("outcome banner missing")
	}
}
