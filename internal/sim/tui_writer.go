package sim

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"netnexus-sim/internal/config"
	"netnexus-sim/internal/network"
	"netnexus-sim/internal/particles"
	"netnexus-sim/internal/scenario"
	"netnexus-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a log line for the viewport.
type logMsg struct{ line string }

// eventMsg carries an advisory line and its row.
type eventMsg struct {
	line string
	row  telemetry.EventRow
}

// stateMsg carries a simulation state update.
type stateMsg struct{ telemetry.StateRow }

// nodesMsg carries the per-node loads of the last tick.
type nodesMsg struct{ rows []telemetry.NodeLoadRow }

// frameMsg carries a particle frame for the map.
type frameMsg struct{ particles.Frame }

// adminMsg reports admin UI status.
type adminMsg struct{ active bool }

type setCommanderMsg struct{ c Commander }

// resultMsg is the advisory returned by a command issued from the TUI.
type resultMsg struct{ Result }

// dialog is the command being typed into the input line.
type dialog int

const (
	dialogNone dialog = iota
	dialogPlace
	dialogConnect
	dialogMove
)

const (
	maxSectionHeightPct = 0.2
	maxLogLines         = 1000
	commandTimeout      = 2 * time.Second
)

// TUIWriter renders the simulation using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	typeColors map[string]string
	colorIdx   int
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.SimulationConfig, scn *scenario.Scenario) *TUIWriter {
	tc := make(map[string]string)
	w := &TUIWriter{typeColors: tc, done: make(chan struct{})}
	w.sendSignal.Store(true)
	for _, t := range scn.NodeTypes {
		w.getTypeColor(t.ID)
	}
	m := newTUIModel(cfg, scn, tc)
	p := tea.NewProgram(m, tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

func (w *TUIWriter) getTypeColor(id string) string {
	if c, ok := w.typeColors[id]; ok {
		return c
	}
	c := typePalette[w.colorIdx%len(typePalette)]
	w.typeColors[id] = c
	w.colorIdx++
	return c
}

// WriteState implements StateWriter.
func (w *TUIWriter) WriteState(row telemetry.StateRow) error {
	statusColor := colorGreen
	if row.Status != "STABLE" {
		statusColor = colorRed
	}
	line := fmt.Sprintf("%s[%s]%s %stick=%d%s %straffic=%.0f%s %scap=%.0f%s %sload=%.1f%%%s %suptime=%.2f%%%s %sdown=%.1fs%s %sbudget=$%.0f%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorGray, row.Tick, colorReset,
		colorCyan, row.Traffic, colorReset,
		colorBlue, row.Capacity, colorReset,
		loadColor(row.LoadPercent), row.LoadPercent, colorReset,
		statusColor, row.Uptime, colorReset,
		colorYellow, row.Downtime, colorReset,
		colorGreen, row.Budget, colorReset,
	)
	if row.Dropped > 0 {
		line += fmt.Sprintf(" %sdropped=%.0f%s", colorRed, row.Dropped, colorReset)
	}
	w.program.Send(logMsg{line: line})
	w.program.Send(stateMsg{row})
	return nil
}

// WriteNodeLoads implements the node load writer.
func (w *TUIWriter) WriteNodeLoads(rows []telemetry.NodeLoadRow) error {
	w.program.Send(nodesMsg{rows: append([]telemetry.NodeLoadRow(nil), rows...)})
	return nil
}

// WriteEvent implements the event writer.
func (w *TUIWriter) WriteEvent(e telemetry.EventRow) error {
	col := colorCyan
	switch e.Level {
	case telemetry.LevelError:
		col = colorRed
	case telemetry.LevelSuccess:
		col = colorGreen
	}
	line := fmt.Sprintf("%s[%s]%s %s%s%s %s",
		colorGray, e.Timestamp.Format(time.RFC3339), colorReset,
		col, strings.ToUpper(e.Type), colorReset, e.Message)
	w.program.Send(eventMsg{line: line, row: e})
	return nil
}

// PublishFrame implements FramePublisher.
func (w *TUIWriter) PublishFrame(f particles.Frame) {
	w.program.Send(frameMsg{f})
}

// SetCommander wires the key bindings to the simulator.
func (w *TUIWriter) SetCommander(c Commander) {
	w.program.Send(setCommanderMsg{c: c})
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg          *config.SimulationConfig
	scn          *scenario.Scenario
	table        table.Model
	vp           viewport.Model
	eventVP      viewport.Model
	logs         []string
	eventLogs    []string
	state        telemetry.StateRow
	nodes        []telemetry.NodeLoadRow
	frame        particles.Frame
	haveFrame    bool
	commander    Commander
	lastResult   Result
	input        textinput.Model
	dialog       dialog
	admin        bool
	wrap         bool
	autoscroll   bool
	header       string
	headerHeight int
	height       int
	typeColors   map[string]string
	summary      bool
	help         bool
	showTypes    bool
	showNodes    bool
	showMap      bool
	outcome      string
}

func newTUIModel(cfg *config.SimulationConfig, scn *scenario.Scenario, typeColors map[string]string) tuiModel {
	cols := []table.Column{
		{Title: "Metric", Width: 12},
		{Title: "Value", Width: 12},
		{Title: "Metric", Width: 12},
		{Title: "Value", Width: 12},
	}
	if scn == nil {
		scn = &scenario.Scenario{}
	}
	m := tuiModel{
		cfg:        cfg,
		scn:        scn,
		vp:         viewport.New(0, 0),
		eventVP:    viewport.New(0, 0),
		typeColors: typeColors,
		autoscroll: true,
		showTypes:  true,
		showNodes:  true,
	}
	rows := m.statusRows()
	m.table = table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	return m
}

func (m tuiModel) statusRows() []table.Row {
	s := m.state
	phase := s.Phase
	if phase == "" {
		phase = "-"
	}
	status := s.Status
	if status == "" {
		status = "STABLE"
	}
	return []table.Row{
		{"Traffic", fmt.Sprintf("%.0f req/s", s.Traffic), "Capacity", fmt.Sprintf("%.0f req/s", s.Capacity)},
		{"Load", fmt.Sprintf("%.1f%%", s.LoadPercent), "Dropped", fmt.Sprintf("%.0f", s.Dropped)},
		{"Uptime", fmt.Sprintf("%.2f%%", s.Uptime), "Downtime", fmt.Sprintf("%.1fs", s.Downtime)},
		{"Budget", fmt.Sprintf("$%.0f", s.Budget), "Nodes", fmt.Sprintf("%d/%d", s.Nodes, s.Connections)},
		{"Phase", phase, "Status", status},
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

// submit runs cmd through the commander off the UI goroutine.
func (m tuiModel) submit(cmd Command) tea.Cmd {
	c := m.commander
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return resultMsg{c.Submit(ctx, cmd)}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		tableWidth := msg.Width
		if m.showTypes {
			tableWidth = msg.Width / 2
		}
		m.table.SetWidth(tableWidth)
		m.vp.Width = msg.Width
		m.eventVP.Width = msg.Width
		m.height = msg.Height
		m.refreshHeader()
		m.updateViewportHeight()
		m.refreshViewport()
		m.refreshEvents()
	case tea.KeyMsg:
		if m.dialog != dialogNone {
			switch msg.Type {
			case tea.KeyEnter:
				cmd, err := parseDialogInput(m.dialog, m.input.Value())
				m.dialog = dialogNone
				m.updateViewportHeight()
				if err != nil {
					m.lastResult = Result{Level: telemetry.LevelError, Message: err.Error()}
					return m, nil
				}
				return m, m.submit(cmd)
			case tea.KeyEsc:
				m.dialog = dialogNone
				m.updateViewportHeight()
			default:
				var cmd tea.Cmd
				m.input, cmd = m.input.Update(msg)
				return m, cmd
			}
			return m, nil
		}
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
				m.updateViewportHeight()
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			m.refreshHeader()
			m.updateViewportHeight()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
				m.eventVP.GotoBottom()
			}
			return m, nil
		case "a":
			return m, m.submit(Command{Type: CommandAutoScale})
		case "r":
			return m, m.submit(Command{Type: CommandMaintenance})
		case "X":
			return m, m.submit(Command{Type: CommandAbandon})
		case "b":
			def := ""
			if len(m.scn.NodeTypes) > 0 {
				def = m.scn.NodeTypes[0].ID + ",400,200"
			}
			m.openDialog(dialogPlace, "type,x,y", def)
			return m, nil
		case "c":
			m.openDialog(dialogConnect, "from,to (0 = internet)", "0,")
			return m, nil
		case "v":
			m.openDialog(dialogMove, "id,x,y", "")
			return m, nil
		case "p":
			m.showTypes = !m.showTypes
			if m.showTypes {
				m.table.SetWidth(m.vp.Width / 2)
			} else {
				m.table.SetWidth(m.vp.Width)
			}
			m.refreshHeader()
			m.updateViewportHeight()
			return m, nil
		case "n":
			m.showNodes = !m.showNodes
			m.updateViewportHeight()
			return m, nil
		case "m":
			m.showMap = !m.showMap
			m.updateViewportHeight()
			return m, nil
		case "t":
			m.summary = !m.summary
			m.updateViewportHeight()
			return m, nil
		case "h", "?":
			m.help = !m.help
			m.updateViewportHeight()
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
				m.eventVP.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
				m.eventVP.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
				m.eventVP.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
				m.eventVP.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				m.eventVP, _ = m.eventVP.Update(msg)
				return m, cmd
			}
			return m, nil
		}
		return m, nil
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case eventMsg:
		m.eventLogs = append(m.eventLogs, msg.line)
		if len(m.eventLogs) > maxLogLines {
			m.eventLogs = m.eventLogs[len(m.eventLogs)-maxLogLines:]
		}
		switch msg.row.Type {
		case telemetry.EventVictory:
			m.outcome = "VICTORY: " + msg.row.Message
		case telemetry.EventFailure:
			m.outcome = "FAILURE: " + msg.row.Message
		}
		m.updateViewportHeight()
		m.refreshEvents()
		m.refreshViewport()
	case stateMsg:
		m.state = msg.StateRow
		m.table.SetRows(m.statusRows())
		m.refreshHeader()
	case nodesMsg:
		m.nodes = msg.rows
		m.updateViewportHeight()
	case frameMsg:
		m.frame = msg.Frame
		m.haveFrame = true
	case resultMsg:
		m.lastResult = msg.Result
	case adminMsg:
		m.admin = msg.active
	case setCommanderMsg:
		m.commander = msg.c
	}
	return m, nil
}

func (m *tuiModel) openDialog(d dialog, placeholder, value string) {
	m.input = textinput.New()
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	m.dialog = d
	m.updateViewportHeight()
}

func (m *tuiModel) refreshHeader() {
	m.header = m.renderHeader()
	m.headerHeight = lipgloss.Height(m.header)
}

func (m *tuiModel) updateViewportHeight() {
	bottomHeight := lipgloss.Height(m.renderBottom())

	maxLines := m.maxSectionLines()
	eventLines := len(m.eventLogs)
	if eventLines == 0 {
		eventLines = 1
	}
	if eventLines > maxLines {
		eventLines = maxLines
	}
	m.eventVP.Height = eventLines

	eventHeight := 1 + m.eventVP.Height
	nodeHeight := 0
	if m.showNodes || m.dialog != dialogNone {
		nodeHeight = lipgloss.Height(m.renderNodes())
	}
	h := m.height - m.headerHeight - bottomHeight - eventHeight - nodeHeight - 4
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.eventVP.GotoBottom()
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshEvents() {
	content := "none"
	if len(m.eventLogs) > 0 {
		content = strings.Join(m.eventLogs, "\n")
	}
	m.eventVP.SetContent(content)
	if m.autoscroll {
		m.eventVP.GotoBottom()
	}
}

func (m tuiModel) maxSectionLines() int {
	h := int(float64(m.height) * maxSectionHeightPct)
	if h < 1 {
		h = 1
	}
	return h
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	bottom := m.renderBottom()
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{m.header, divider}
	if m.outcome != "" {
		sections = append(sections, lipgloss.NewStyle().Bold(true).Render(m.outcome), divider)
	}
	if m.showMap {
		sections = append(sections, m.renderMap(), divider, bottom)
		return strings.Join(sections, "\n")
	}
	sections = append(sections,
		m.vp.View(),
		divider,
		"Events:",
		m.eventVP.View(),
	)
	if m.showNodes || m.dialog != dialogNone {
		sections = append(sections, divider, m.renderNodes())
	}
	sections = append(sections, divider, bottom)
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	tableView := m.table.View()
	if !m.showTypes {
		return tableView
	}
	typesWidth := m.vp.Width/2 - 1
	types := renderTypeTree(m.scn, m.typeColors, m.wrap, typesWidth)
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("│")
	return lipgloss.JoinHorizontal(lipgloss.Top, tableView, sep, types)
}

func renderTypeTree(scn *scenario.Scenario, colors map[string]string, wrap bool, width int) string {
	var b strings.Builder
	b.WriteString("Node Types\n")
	for i, t := range scn.NodeTypes {
		prefix := "├─"
		if i == len(scn.NodeTypes)-1 {
			prefix = "└─"
		}
		c := colors[t.ID]
		line := fmt.Sprintf("%s %s%s%s %s %.0f req/s $%.0f", prefix, c, t.ID, colorReset, t.Name, t.Capacity, t.Cost)
		if wrap && width > 0 {
			line = wordwrap.String(line, width)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m tuiModel) renderNodes() string {
	switch m.dialog {
	case dialogPlace:
		return fmt.Sprintf("Place node (type,x,y) - Enter to buy, Esc to cancel: %s", m.input.View())
	case dialogConnect:
		return fmt.Sprintf("Connect (from,to) - Enter to link, Esc to cancel: %s", m.input.View())
	case dialogMove:
		return fmt.Sprintf("Move node (id,x,y) - Enter to apply, Esc to cancel: %s", m.input.View())
	}
	if len(m.nodes) == 0 {
		return "Nodes: none"
	}
	maxLines := m.maxSectionLines()
	start := len(m.nodes) - maxLines
	if start < 0 {
		start = 0
	}
	var b strings.Builder
	b.WriteString("Nodes:\n")
	for _, n := range m.nodes[start:] {
		c := m.typeColors[n.NodeType]
		b.WriteString(fmt.Sprintf("%s %s%s%s load=%.0f/%.0f %s%.0f%%%s health=%.0f\n",
			n.NodeID, c, n.NodeType, colorReset, n.Load, n.Capacity,
			loadColor(n.LoadPercent), n.LoadPercent, colorReset, n.Health))
	}
	return strings.TrimRight(b.String(), "\n")
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	status := m.state.Status
	if status == "" {
		status = "STABLE"
	}
	statusColor := colorGreen
	if status != "STABLE" {
		statusColor = colorRed
	}
	state := fmt.Sprintf("%s%s%s %sload=%.1f%%%s %suptime=%.2f%%%s %sbudget=$%.0f%s",
		statusColor, status, colorReset,
		loadColor(m.state.LoadPercent), m.state.LoadPercent, colorReset,
		colorCyan, m.state.Uptime, colorReset,
		colorGreen, m.state.Budget, colorReset)
	line := fmt.Sprintf("%s | Admin UI %s | Wrap %s | Scroll %s | Summary %s | Types %s | Nodes %s | Map %s",
		state, indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll), indicator(m.summary),
		indicator(m.showTypes), indicator(m.showNodes), indicator(m.showMap))
	if m.lastResult.Message != "" {
		col := colorGreen
		if !m.lastResult.OK {
			col = colorRed
		}
		line = fmt.Sprintf("%s%s%s\n%s", col, m.lastResult.Message, colorReset, line)
	}
	if m.summary {
		return fmt.Sprintf("%s\n%s", m.renderSummary(), line)
	}
	return line
}

func (m tuiModel) renderSummary() string {
	var hot, warn int
	for _, n := range m.nodes {
		switch network.LoadLevel(n.Level) {
		case network.LevelCritical:
			hot++
		case network.LevelWarning:
			warn++
		}
	}
	return fmt.Sprintf("%sSUMMARY%s tick=%d game_time=%.1fs nodes=%d warning=%d critical=%d particles=%d",
		colorBlue, colorReset, m.state.Tick, m.state.GameTime, len(m.nodes), warn, hot, len(m.frame.Particles))
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" b  place node (type,x,y)",
		" c  connect nodes (from,to)",
		" v  move node (id,x,y)",
		" a  auto-scale",
		" r  emergency maintenance",
		" X  abandon infrastructure",
		" w  toggle wrap",
		" s  toggle auto-scroll",
		" t  toggle summary footer",
		" m  toggle topology map",
		" p  toggle node type list",
		" n  toggle nodes section",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}

func levelColor(l network.LoadLevel) string {
	switch l {
	case network.LevelCritical:
		return colorRed
	case network.LevelWarning:
		return colorYellow
	default:
		return colorGreen
	}
}

// renderMap draws the canvas scaled to the terminal: '@' is the internet,
// node glyphs are the first letter of their type, '·' traces connections
// and '*' marks particles in their load colour.
func (m tuiModel) renderMap() string {
	if !m.haveFrame {
		return "No topology data"
	}
	width := m.vp.Width
	if width < 10 {
		width = 10
	}
	bottomHeight := lipgloss.Height(m.renderBottom())
	mapHeight := m.height - m.headerHeight - bottomHeight - 4
	if mapHeight < 5 {
		mapHeight = 5
	}
	cw, ch := 800.0, 400.0
	if m.cfg != nil && m.cfg.Canvas.Width > 0 && m.cfg.Canvas.Height > 0 {
		cw, ch = m.cfg.Canvas.Width, m.cfg.Canvas.Height
	}
	project := func(x, y float64) (int, int, bool) {
		col := int(math.Round(x / cw * float64(width-1)))
		row := int(math.Round(y / ch * float64(mapHeight-1)))
		return col, row, col >= 0 && col < width && row >= 0 && row < mapHeight
	}
	grid := make([][]string, mapHeight)
	for i := range grid {
		row := make([]string, width)
		for j := range row {
			row[j] = " "
		}
		grid[i] = row
	}

	pos := map[network.NodeID]network.NodeView{m.frame.Internet.ID: m.frame.Internet}
	for _, n := range m.frame.Nodes {
		pos[n.ID] = n
	}
	for _, c := range m.frame.Connections {
		a, okA := pos[c.From]
		b, okB := pos[c.To]
		if !okA || !okB {
			continue
		}
		steps := int(math.Max(math.Abs(b.X-a.X)/cw*float64(width), math.Abs(b.Y-a.Y)/ch*float64(mapHeight))) + 1
		for i := 0; i <= steps; i++ {
			t := float64(i) / float64(steps)
			if x, y, ok := project(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t); ok {
				grid[y][x] = colorGray + "·" + colorReset
			}
		}
	}
	for _, p := range m.frame.Particles {
		if x, y, ok := project(p.X, p.Y); ok {
			grid[y][x] = lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("*")
		}
	}
	for _, n := range m.frame.Nodes {
		if x, y, ok := project(n.X, n.Y); ok {
			glyph := "?"
			if n.Type != "" {
				glyph = strings.ToUpper(n.Type[:1])
			}
			grid[y][x] = levelColor(n.Level) + glyph + colorReset
		}
	}
	if x, y, ok := project(m.frame.Internet.X, m.frame.Internet.Y); ok {
		grid[y][x] = colorCyan + "@" + colorReset
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("canvas %.0fx%.0f traffic=%.0f load=%.1f%% particles=%d\n",
		cw, ch, m.frame.Traffic, m.frame.LoadPercent, len(m.frame.Particles)))
	for _, row := range grid {
		b.WriteString(strings.Join(row, ""))
		b.WriteByte('\n')
	}
	legend := []string{
		fmt.Sprintf("%s@%s=internet", colorCyan, colorReset),
		fmt.Sprintf("%sW%s=normal %sW%s=warning %sW%s=critical", colorGreen, colorReset, colorYellow, colorReset, colorRed, colorReset),
		"·=link *=request",
	}
	b.WriteString(strings.Join(legend, " "))
	return b.String()
}

// parseDialogInput turns the dialog line into a command.
func parseDialogInput(d dialog, val string) (Command, error) {
	parts := strings.Split(val, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	floats := func(ss ...string) ([]float64, error) {
		out := make([]float64, len(ss))
		for i, s := range ss {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	}
	id := func(s string) (network.NodeID, error) {
		if s == "internet" {
			return network.InternetID, nil
		}
		n, err := strconv.Atoi(s)
		return network.NodeID(n), err
	}
	switch d {
	case dialogPlace:
		if len(parts) < 3 {
			return Command{}, fmt.Errorf("expected type,x,y")
		}
		xy, err := floats(parts[1], parts[2])
		if err != nil {
			return Command{}, err
		}
		return Command{Type: CommandPlace, NodeType: parts[0], X: xy[0], Y: xy[1]}, nil
	case dialogConnect:
		if len(parts) < 2 {
			return Command{}, fmt.Errorf("expected from,to")
		}
		from, err := id(parts[0])
		if err != nil {
			return Command{}, err
		}
		to, err := id(parts[1])
		if err != nil {
			return Command{}, err
		}
		return Command{Type: CommandConnect, From: from, To: to}, nil
	case dialogMove:
		if len(parts) < 3 {
			return Command{}, fmt.Errorf("expected id,x,y")
		}
		nid, err := id(parts[0])
		if err != nil {
			return Command{}, err
		}
		xy, err := floats(parts[1], parts[2])
		if err != nil {
			return Command{}, err
		}
		return Command{Type: CommandMove, NodeID: nid, X: xy[0], Y: xy[1]}, nil
	}
	return Command{}, fmt.Errorf("no dialog open")
}
