// File: internal/remote/hub.go
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xkilldash9x/keyflow/internal/config"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer. Commands carry whole texts.
	maxMessageSize = 4 * 1024 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Agents dial directly, there is no browser origin to check.
		return true
	},
}

// agentConn is a middleman between one agent's websocket connection and the hub.
type agentConn struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	// Buffered channel of outbound frames.
	send chan []byte

	mu       sync.Mutex
	status   string
	progress int
}

// readPump pumps status frames from the agent to the hub.
func (a *agentConn) readPump() {
	defer func() {
		select {
		case a.hub.unregister <- a:
		case <-a.hub.done:
		}
		a.conn.Close()
	}()
	a.conn.SetReadLimit(maxMessageSize)
	a.conn.SetReadDeadline(time.Now().Add(pongWait))
	a.conn.SetPongHandler(func(string) error { a.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, raw, err := a.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				a.hub.logger.Warn("agent read error", zap.String("agent_id", a.id), zap.Error(err))
			}
			return
		}

		msg, err := Decode(raw)
		if err != nil {
			a.hub.logger.Error("undecodable frame from agent", zap.String("agent_id", a.id), zap.Error(err))
			continue
		}

		switch msg.Type {
		case TypeReady:
			a.hub.logger.Info("agent ready", zap.String("agent_id", a.id))
			a.setStatus(StatusFree)
		case TypeStatus:
			a.hub.logger.Info("agent status changed",
				zap.String("agent_id", a.id), zap.String("status", msg.Status))
			a.setStatus(msg.Status)
		case TypeProgress:
			a.hub.logger.Debug("agent progress",
				zap.String("agent_id", a.id), zap.Int("progress", msg.Progress))
			a.setProgress(msg.Progress)
		default:
			a.hub.logger.Warn("unexpected frame from agent",
				zap.String("agent_id", a.id), zap.String("type", msg.Type))
		}
	}
}

// writePump pumps frames from the hub to the agent connection.
func (a *agentConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		a.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-a.send:
			a.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				a.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := a.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			a.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := a.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (a *agentConn) setStatus(s string) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

func (a *agentConn) setProgress(p int) {
	a.mu.Lock()
	a.progress = p
	a.mu.Unlock()
}

// Hub accepts agent connections and fans typing commands out to them.
type Hub struct {
	cfg    config.RemoteConfig
	logger *zap.Logger

	agents     map[*agentConn]bool
	broadcast  chan []byte
	register   chan *agentConn
	unregister chan *agentConn
	// done is closed when Run exits so the pumps never block on a dead hub.
	done chan struct{}
	mu   sync.RWMutex
}

// NewHub creates an empty hub; Run must be started before agents connect.
func NewHub(cfg config.RemoteConfig, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		cfg:        cfg,
		logger:     logger.Named("hub"),
		broadcast:  make(chan []byte),
		register:   make(chan *agentConn),
		unregister: make(chan *agentConn),
		done:       make(chan struct{}),
		agents:     make(map[*agentConn]bool),
	}
}

// Run owns the agent registry until the context ends.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("controller hub started")
	defer h.logger.Info("controller hub stopped")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for agent := range h.agents {
				close(agent.send)
				delete(h.agents, agent)
			}
			h.mu.Unlock()
			return
		case agent := <-h.register:
			h.mu.Lock()
			h.agents[agent] = true
			h.mu.Unlock()
			h.logger.Info("agent connected", zap.String("agent_id", agent.id))
		case agent := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.agents[agent]; ok {
				delete(h.agents, agent)
				close(agent.send)
				h.logger.Info("agent disconnected", zap.String("agent_id", agent.id))
			}
			h.mu.Unlock()
		case frame := <-h.broadcast:
			h.mu.RLock()
			for agent := range h.agents {
				select {
				case agent.send <- frame:
				default:
					close(agent.send)
					delete(h.agents, agent)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// AgentCount reports the number of connected agents.
func (h *Hub) AgentCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.agents)
}

// Broadcast sends one message to every connected agent.
func (h *Hub) Broadcast(m Message) error {
	frame, err := Encode(m)
	if err != nil {
		h.logger.Error("failed to encode broadcast", zap.Error(err))
		return err
	}
	select {
	case h.broadcast <- frame:
		return nil
	case <-h.done:
		return fmt.Errorf("remote: hub is shut down")
	}
}

// StartTyping commands every connected agent to type text. Zero-valued delay
// bounds fall back to the controller's configured defaults.
func (h *Hub) StartTyping(m Message) error {
	m.Type = TypeStartTyping
	if m.MinDelay <= 0 {
		m.MinDelay = h.cfg.MinDelayMs
	}
	if m.MaxDelay <= 0 {
		m.MaxDelay = h.cfg.MaxDelayMs
	}
	if m.MinDelay > m.MaxDelay {
		m.MinDelay, m.MaxDelay = m.MaxDelay, m.MinDelay
	}
	return h.Broadcast(m)
}

// StopTyping commands every connected agent to abort its session.
func (h *Hub) StopTyping() error {
	return h.Broadcast(Message{Type: TypeStopTyping})
}

// HandleWS upgrades an agent request and registers the connection.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	agent := &agentConn{
		id:   uuid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	select {
	case h.register <- agent:
	case <-h.done:
		conn.Close()
		return
	}

	go agent.writePump()
	go agent.readPump()
}

// Handler returns the controller's HTTP surface: the agent websocket
// endpoint plus the two command endpoints that drive it.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWS)
	mux.HandleFunc("/type", h.handleType)
	mux.HandleFunc("/stop", h.handleStop)
	return mux
}

// typeRequest is the POST /type body.
type typeRequest struct {
	Text          string `json:"text"`
	MinDelay      int    `json:"minDelay,omitempty"`
	MaxDelay      int    `json:"maxDelay,omitempty"`
	MouseMovement bool   `json:"mouseMovement,omitempty"`
	IdleScroll    bool   `json:"idleScroll,omitempty"`
}

func (h *Hub) handleType(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	var req typeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if h.AgentCount() == 0 {
		http.Error(w, "no agents connected", http.StatusServiceUnavailable)
		return
	}

	err = h.StartTyping(Message{
		Text:          req.Text,
		MinDelay:      req.MinDelay,
		MaxDelay:      req.MaxDelay,
		MouseMovement: req.MouseMovement,
		IdleScroll:    req.IdleScroll,
	})
	if err != nil {
		http.Error(w, "failed to dispatch", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Hub) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.StopTyping(); err != nil {
		http.Error(w, "failed to dispatch", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
