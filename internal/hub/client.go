package hub

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Client is one websocket connection registered with the hub.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	id     string
	userID uint
	send   chan []byte

	limiter *rate.Limiter

	// channels and closed are guarded by hub.roomsMu.
	channels map[string]bool
	closed   bool
}

// NewClient builds a client with a fresh connection id. userID is zero for
// anonymous connections.
func (h *Hub) NewClient(conn *websocket.Conn, userID uint) *Client {
	return &Client{
		hub:      h,
		conn:     conn,
		id:       uuid.NewString(),
		userID:   userID,
		send:     make(chan []byte, 256),
		limiter:  rate.NewLimiter(rate.Limit(h.opts.EventsPerSecond), h.opts.EventBurst),
		channels: make(map[string]bool),
	}
}

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

func (c *Client) ID() string   { return c.id }
func (c *Client) UserID() uint { return c.userID }

func (c *Client) logCtx() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID})
}

func (c *Client) allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// unregisterWait bounds how long a closing client waits for the hub loop.
var unregisterWait = 1 * time.Second

// release hands the client back to the hub loop. When the loop does not take
// it in time the client is unregistered directly so its channels and
// presence are still freed.
func (c *Client) release() {
	select {
	case c.hub.messageChan <- HubMessage{Type: "unregister", Client: c}:
	case <-time.After(unregisterWait):
		c.logCtx().Warn("Timeout sending unregister message to Hub channel, unregistering directly")
		c.hub.unregisterClient(c)
	}
}

// ReadPump moves frames from the websocket to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.release()
		c.conn.Close()
		c.logCtx().Info("readPump exited, unregistered client")
	}()

	c.conn.SetReadLimit(c.hub.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logCtx().WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				c.logCtx().Debug("WebSocket connection closed")
			}
			break
		}
		if messageType != websocket.TextMessage {
			c.logCtx().Debugf("Ignoring non-text message type: %d", messageType)
			continue
		}
		if !c.hub.QueueMessage(HubMessage{Type: "event", Client: c, RawData: message}) {
			c.logCtx().Warn("Hub message channel full, dropping client frame")
		}
	}
}

// WritePump moves frames from the send channel to the websocket and keeps
// the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logCtx().Debug("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logCtx().WithError(err).Warn("Failed to write message to websocket")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logCtx().WithError(err).Debug("Failed to send ping message")
				return
			}
		}
	}
}
