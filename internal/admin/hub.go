package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"netnexus-sim/internal/particles"
	"netnexus-sim/internal/sim"
	"netnexus-sim/internal/telemetry"
)

const (
	writeWait    = 5 * time.Second
	sendBuffer   = 32
	commandWait  = 2 * time.Second
	maxFrameSize = 1 << 16
)

// envelope is the message pushed to browsers.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub streams frames, state and events to websocket clients and accepts
// commands from them. It plugs into the simulator as a writer, so frames
// and the command handle arrive through sim.MultiWriter.
type Hub struct {
	upgrader  websocket.Upgrader
	log       *slog.Logger
	clients   map[*websocket.Conn]bool
	register  chan *websocket.Conn
	remove    chan *websocket.Conn
	broadcast chan []byte
	done      chan struct{}

	mu        sync.RWMutex
	commander sim.Commander
	last      []byte
}

// NewHub creates a hub. Call Run to start delivering messages. Upgrades
// use the websocket package's same-origin check, so only pages served by
// this host can stream or send commands.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:       log,
		clients:   make(map[*websocket.Conn]bool),
		register:  make(chan *websocket.Conn),
		remove:    make(chan *websocket.Conn),
		broadcast: make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
	}
}

// Run owns the client set until ctx is done, then closes every connection.
// Call it once; connections arriving afterwards are refused.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case conn := <-h.register:
			h.clients[conn] = true
		case conn := <-h.remove:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
		case msg := <-h.broadcast:
			for conn := range h.clients {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					h.log.Warn("websocket send failed", "err", err)
					delete(h.clients, conn)
					conn.Close()
				}
			}
		case <-ctx.Done():
			for conn := range h.clients {
				conn.Close()
			}
			h.clients = map[*websocket.Conn]bool{}
			return
		}
	}
}

// SetCommander receives the simulator handle.
func (h *Hub) SetCommander(c sim.Commander) {
	h.mu.Lock()
	h.commander = c
	h.mu.Unlock()
}

// PublishFrame implements sim.FramePublisher. The latest frame is kept for
// clients that connect between frames.
func (h *Hub) PublishFrame(f particles.Frame) {
	if data := h.encode("frame", f); data != nil {
		h.mu.Lock()
		h.last = data
		h.mu.Unlock()
		h.send(data)
	}
}

// WriteState implements sim.StateWriter.
func (h *Hub) WriteState(row telemetry.StateRow) error {
	if data := h.encode("state", row); data != nil {
		h.send(data)
	}
	return nil
}

// WriteEvent forwards operator advisories.
func (h *Hub) WriteEvent(e telemetry.EventRow) error {
	if data := h.encode("event", e); data != nil {
		h.send(data)
	}
	return nil
}

func (h *Hub) encode(kind string, v any) []byte {
	data, err := json.Marshal(envelope{Type: kind, Data: v})
	if err != nil {
		h.log.Error("encode websocket message", "type", kind, "err", err)
		return nil
	}
	return data
}

// send never blocks the simulation goroutine; slow hubs drop messages.
func (h *Hub) send(data []byte) {
	select {
	case h.broadcast <- data:
	default:
	}
}

// ServeHTTP upgrades the request and reads commands until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "hub stopped", http.StatusServiceUnavailable)
		return
	default:
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "err", err)
		return
	}
	conn.SetReadLimit(maxFrameSize)

	h.mu.RLock()
	last := h.last
	h.mu.RUnlock()
	if last != nil {
		_ = conn.WriteMessage(websocket.TextMessage, last)
	}
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	go func() {
		defer func() {
			select {
			case h.remove <- conn:
			case <-h.done:
				conn.Close()
			}
		}()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.log.Warn("websocket error", "err", err)
				}
				return
			}
			var cmd sim.Command
			if err := json.Unmarshal(message, &cmd); err != nil {
				h.log.Debug("ignoring malformed command", "err", err)
				continue
			}
			res := h.submit(cmd)
			if data := h.encode("result", res); data != nil {
				h.send(data)
			}
		}
	}()
}

func (h *Hub) submit(cmd sim.Command) sim.Result {
	h.mu.RLock()
	c := h.commander
	h.mu.RUnlock()
	if c == nil {
		return sim.Result{Level: telemetry.LevelError, Message: sim.ErrSessionClosed.Error()}
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandWait)
	defer cancel()
	return c.Submit(ctx, cmd)
}
