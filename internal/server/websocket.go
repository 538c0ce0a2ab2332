package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/catanforge/catan-server-go/internal/config"
	"github.com/catanforge/catan-server-go/internal/game"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 64
)

// WebSocket message types sent by the hub in addition to the engine's
// notification types.
const (
	MessageSnapshot   = "SNAPSHOT"
	MessageSubscribed = "SUBSCRIBED"
	MessageError      = "ERROR"
)

// WSMessage is the envelope for every WebSocket frame.
type WSMessage struct {
	Type    string `json:"type"`
	GameID  string `json:"gameId,omitempty"`
	Version int    `json:"version,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	gameID string
}

type subscription struct {
	client *wsClient
	gameID string
}

// Hub fans engine notifications out to the WebSocket clients watching each
// game. All client bookkeeping happens on the Run goroutine.
type Hub struct {
	engine   *game.Engine
	logger   *zap.Logger
	upgrader websocket.Upgrader

	clients    map[*wsClient]bool
	broadcast  chan game.GameNotification
	register   chan *wsClient
	unregister chan *wsClient
	subscribe  chan subscription
	done       chan struct{}
}

// NewHub creates a hub. engine may be nil, in which case new subscribers get
// no snapshot.
func NewHub(engine *game.Engine, logger *zap.Logger) *Hub {
	return &Hub{
		engine: engine,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan game.GameNotification, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		subscribe:  make(chan subscription),
		done:       make(chan struct{}),
	}
}

// Notify queues a notification for delivery. It never blocks; notifications
// are dropped when the queue is full.
func (h *Hub) Notify(n game.GameNotification) {
	select {
	case h.broadcast <- n:
	default:
		h.logger.Warn("dropping game notification",
			zap.String("game_id", n.GameID),
			zap.String("type", n.Type),
		)
	}
}

// Run delivers messages until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for c := range h.clients {
			close(c.send)
			delete(h.clients, c)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = true
			h.logger.Debug("websocket client registered", zap.String("game_id", c.gameID))
			h.sendSnapshot(c)

		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				h.logger.Debug("websocket client unregistered", zap.String("game_id", c.gameID))
			}

		case sub := <-h.subscribe:
			if !h.clients[sub.client] {
				continue
			}
			sub.client.gameID = sub.gameID
			h.deliver(sub.client, WSMessage{Type: MessageSubscribed, GameID: sub.gameID})
			h.sendSnapshot(sub.client)

		case n := <-h.broadcast:
			msg := WSMessage{Type: n.Type, GameID: n.GameID, Version: n.Version, Data: n.Data}
			for c := range h.clients {
				if c.gameID == n.GameID {
					h.deliver(c, msg)
				}
			}
		}
	}
}

func (h *Hub) sendSnapshot(c *wsClient) {
	if h.engine == nil || c.gameID == "" {
		return
	}
	res, err := h.engine.Sync(c.gameID, -1, true)
	if err != nil {
		status, _, body := classify(err)
		h.deliver(c, WSMessage{Type: MessageError, GameID: c.gameID, Data: errorData(status, body)})
		return
	}
	h.deliver(c, WSMessage{Type: MessageSnapshot, GameID: c.gameID, Version: res.Version, Data: res.State})
}

// deliver queues msg for c and drops clients that cannot keep up.
func (h *Hub) deliver(c *wsClient, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode websocket message", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	default:
		delete(h.clients, c)
		close(c.send)
		h.logger.Warn("websocket client too slow, disconnected", zap.String("game_id", c.gameID))
	}
}

func errorData(status int, body ErrorBody) map[string]any {
	return map[string]any{"status": status, "error": body}
}

type clientMessage struct {
	Type   string `json:"type"`
	GameID string `json:"gameId"`
}

func (h *Hub) readPump(c *wsClient) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("ignoring malformed websocket message", zap.Error(err))
			continue
		}
		if msg.Type != "subscribe" {
			continue
		}
		select {
		case h.subscribe <- subscription{client: c, gameID: msg.GameID}:
		case <-h.done:
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	defer c.conn.Close()

	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// ServeWS upgrades the request and subscribes the client to the game named by
// the "game" query parameter, if any.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &wsClient{
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		gameID: r.URL.Query().Get("game"),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go h.writePump(c)
	go h.readPump(c)
}

// NewWebSocketServer serves the hub on cfg.Address at cfg.Path.
func NewWebSocketServer(cfg config.WebSocketConfig, hub *Hub) *http.Server {
	path := cfg.Path
	if path == "" {
		path = "/ws"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, hub.ServeWS)
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
