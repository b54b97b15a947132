package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/KirkDiggler/hotdice/internal/services/live"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	sendBuffer = 64
)

// client is one websocket connection following a lobby
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	// done is closed when the client falls behind or disconnects
	done     chan struct{}
	doneOnce sync.Once
}

// watch upgrades the connection and streams the lobby's updates as JSON
func (h *Handler) watch(w http.ResponseWriter, r *http.Request) {
	lobbyID := chi.URLParam(r, "lobbyID")

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if h.allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == h.allowedOrigin
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.String("lobby_id", lobbyID), zap.Error(err))
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: h.logger.With(zap.String("lobby_id", lobbyID)),
		done:   make(chan struct{}),
	}

	stop, err := h.feed.Watch(r.Context(), lobbyID, c.deliver)
	if err != nil {
		c.logger.Debug("failed to watch lobby", zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "lobby unavailable"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	// late watchers start from the current view
	if view, err := h.feed.View(lobbyID); err == nil && view.Snapshot.Lobby.ID != "" {
		c.deliver(live.Update{LobbyID: lobbyID, View: view})
	}

	go c.readPump()
	c.writePump()
	stop()
}

// deliver queues an update without blocking the lobby's other listeners. A
// client whose buffer is full is disconnected.
func (c *client) deliver(u live.Update) {
	data, err := json.Marshal(u)
	if err != nil {
		c.logger.Error("failed to encode update", zap.Error(err))
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.logger.Warn("websocket client too slow, disconnecting")
		c.close()
	}
}

func (c *client) close() {
	c.doneOnce.Do(func() { close(c.done) })
}

// readPump discards client messages and notices disconnects
func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
