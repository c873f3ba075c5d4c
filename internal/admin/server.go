package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netnexus-sim/internal/network"
	"netnexus-sim/internal/sim"
)

// Server exposes the session over HTTP: a status page, JSON queries, the
// operator commands, Prometheus metrics and the websocket stream.
type Server struct {
	Sim *sim.Simulator
	hub *Hub
	tpl *template.Template
	mux *http.ServeMux
	log *slog.Logger
}

//go:embed templates/index.html
var content embed.FS

// NewServer builds the routes. hub may be nil, in which case /ws is not
// served.
func NewServer(s *sim.Simulator, hub *Hub, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	srv := &Server{Sim: s, hub: hub, tpl: tpl, mux: http.NewServeMux(), log: log}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/state", s.handleState)
	s.mux.HandleFunc("/events", s.handleEvents)
	s.mux.HandleFunc("/frame", s.handleFrame)
	s.mux.HandleFunc("/node-types", s.handleNodeTypes)
	s.mux.HandleFunc("/nodes", s.handleNodes)
	s.mux.HandleFunc("/nodes/move", s.handleMove)
	s.mux.HandleFunc("/connections", s.handleConnections)
	s.mux.HandleFunc("/auto-scale", s.command(sim.CommandAutoScale))
	s.mux.HandleFunc("/maintenance", s.command(sim.CommandMaintenance))
	s.mux.HandleFunc("/abandon", s.command(sim.CommandAbandon))
	s.mux.HandleFunc("/budget", s.handleBudget)
	s.mux.Handle("/metrics", promhttp.Handler())
	if s.hub != nil {
		s.mux.Handle("/ws", s.hub)
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves on addr until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdown)
	}()
	s.log.Info("admin UI listening", "addr", addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := struct {
		State     sim.State
		NodeTypes []network.NodeType
		Scenario  string
	}{
		State:     s.Sim.State(),
		NodeTypes: s.Sim.NodeTypes(),
		Scenario:  s.Sim.Scenario().Description,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		s.log.Error("render index", "err", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.State())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Events())
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Frame())
}

func (s *Server) handleNodeTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.NodeTypes())
}

// handleNodes lists nodes on GET and buys one on POST.
func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.Sim.State().Nodes)
	case http.MethodPost:
		var req struct {
			Type string  `json:"type"`
			X    float64 `json:"x"`
			Y    float64 `json:"y"`
		}
		if !decode(w, r, &req) {
			return
		}
		s.submit(w, r, sim.Command{Type: sim.CommandPlace, NodeType: req.Type, X: req.X, Y: req.Y})
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req struct {
		ID network.NodeID `json:"id"`
		X  float64        `json:"x"`
		Y  float64        `json:"y"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, r, sim.Command{Type: sim.CommandMove, NodeID: req.ID, X: req.X, Y: req.Y})
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.Sim.State().Connections)
	case http.MethodPost:
		var req network.Connection
		if !decode(w, r, &req) {
			return
		}
		s.submit(w, r, sim.Command{Type: sim.CommandConnect, From: req.From, To: req.To})
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req struct {
		Amount float64 `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, r, sim.Command{Type: sim.CommandAdjustBudget, Amount: req.Amount})
}

func (s *Server) command(kind sim.CommandType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		s.submit(w, r, sim.Command{Type: kind})
	}
}

// submit answers 200 for accepted commands and 422 for rejected ones; the
// body is the advisory either way.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, cmd sim.Command) {
	res := s.Sim.Submit(r.Context(), cmd)
	status := http.StatusOK
	if !res.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
