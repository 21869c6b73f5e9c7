package websocket

import (
	"net/http"

	"github.com/jkarlos000/sw1-p1/internal/hub"
	"github.com/jkarlos000/sw1-p1/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketHandler upgrades /ws requests and hands the connection to the hub.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
}

// NewWebSocketHandler builds the handler. allowedOrigin "*" or "" accepts
// every origin.
func NewWebSocketHandler(h *hub.Hub, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return &WebSocketHandler{upgrader: upgrader, hub: h}
}

// HandleConnection serves GET /ws. The user id is whatever the auth
// middleware set, or zero for an anonymous connection.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "remote": c.ClientIP()})

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logCtx.WithError(err).Warn("WS Handler: Failed to upgrade connection")
		return
	}

	client := h.hub.NewClient(conn, userID)
	logCtx = logCtx.WithField("conn_id", client.ID())

	if !h.hub.QueueMessage(hub.HubMessage{Type: "register", Client: client}) {
		logCtx.Error("WS Handler: Hub message channel full, failed to register client")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"))
		_ = conn.Close()
		return
	}

	client.Run()
	logCtx.Info("WS Handler: Client connected")
}
