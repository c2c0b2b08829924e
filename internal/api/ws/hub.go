package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dogeterm/internal/terminal"
)

const (
	sendBuffer     = 256
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local UI
	},
}

// Event types sent to clients.
const (
	EventOutput  = "terminal-output"
	EventClosed  = "terminal-closed"
	EventCreated = "terminal-created"
	EventError   = "error"
	EventPong    = "pong"
)

// OutputEvent carries processed terminal output.
type OutputEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Data      string `json:"data"`
}

// ClosedEvent reports that a session's output stream ended.
type ClosedEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Error     string `json:"error,omitempty"`
}

// ReplyEvent answers a single client message.
type ReplyEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Client is one WebSocket connection.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans terminal output out to every connected UI client and maps
// inbound client messages onto the terminal manager. It implements
// terminal.OutputSink.
type Hub struct {
	manager  *terminal.Manager
	defaults func() terminal.Config
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub creates a hub over manager. Sessions created from the socket start
// from defaults.
func NewHub(manager *terminal.Manager, defaults func() terminal.Config, logger *zap.Logger, metrics *monitoring.Metrics) *Hub {
	if defaults == nil {
		defaults = terminal.DefaultConfig
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		manager:  manager,
		defaults: defaults,
		logger:   logger,
		metrics:  metrics,
		clients:  make(map[*Client]struct{}),
	}
}

// Output broadcasts a terminal-output event.
func (h *Hub) Output(sessionID, chunk string) {
	h.metrics.RecordWSMessage("out", EventOutput)
	h.Broadcast(OutputEvent{Type: EventOutput, SessionID: sessionID, Data: chunk})
}

// Closed broadcasts a terminal-closed event.
func (h *Hub) Closed(sessionID string, err error) {
	event := ClosedEvent{Type: EventClosed, SessionID: sessionID}
	if err != nil {
		event.Error = err.Error()
	}
	h.metrics.RecordWSMessage("out", EventClosed)
	h.Broadcast(event)
}

// Broadcast sends message to every client. Clients whose buffer is full are
// disconnected rather than blocking the terminal listener.
func (h *Hub) Broadcast(message interface{}) {
	data, err := sonic.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.Error(err))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Dropping slow WebSocket client", zap.String("client_id", client.id))
		h.unregister(client)
	}
}

// SendToClient sends message to one client.
func (h *Hub) SendToClient(client *Client, message interface{}) {
	data, err := sonic.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to encode message", zap.Error(err))
		return
	}

	h.mu.RLock()
	_, ok := h.clients[client]
	full := false
	if ok {
		select {
		case client.send <- data:
		default:
			full = true
		}
	}
	h.mu.RUnlock()

	if full {
		h.unregister(client)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.unregister(client)
	}
}

// HandleConnection upgrades the request and serves the client until it
// disconnects.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		id:   uuid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	h.register(client)

	go client.writePump()

	h.SendToClient(client, h.greeting())
	client.readPump()
}

func (h *Hub) greeting() map[string]interface{} {
	info := h.manager.Info()
	return map[string]interface{}{
		"type":           "connected",
		"active_session": info.ActiveSession,
		"total_sessions": info.TotalSessions,
		"default_shell":  info.DefaultShell,
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.IncWSConnections()
	h.logger.Info("WebSocket client connected", zap.String("client_id", client.id), zap.Int("clients", total))
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	h.metrics.DecWSConnections()
	h.logger.Info("WebSocket client disconnected", zap.String("client_id", client.id), zap.Int("clients", total))
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("WebSocket read error", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
		c.hub.handleMessage(c, message)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.hub.logger.Debug("WebSocket write error", zap.String("client_id", c.id), zap.Error(err))
			c.hub.unregister(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
