package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/hub"
	"github.com/jkarlos000/sw1-p1/internal/registry"
	"github.com/jkarlos000/sw1-p1/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noMeetings struct{}

func (noMeetings) CreateMeeting(context.Context, uint, string) (*domain.Room, error) {
	return nil, service.ErrInternalServer
}
func (noMeetings) JoinMeeting(context.Context, uint, string) (*domain.Room, []domain.Collaborator, error) {
	return nil, nil, service.ErrInternalServer
}
func (noMeetings) Collaborators(context.Context, string) ([]domain.Collaborator, error) {
	return nil, nil
}
func (noMeetings) SaveDiagram(context.Context, string, string) error { return nil }

type noAssistant struct{}

func (noAssistant) Chat(context.Context, service.ChatInput) (*service.ChatResult, error) {
	return nil, service.ErrAIUnavailable
}

type frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

func startServer(t *testing.T, allowedOrigin string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := hub.NewHub(registry.New(), noMeetings{}, noAssistant{}, hub.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	r := gin.New()
	r.GET("/ws", NewWebSocketHandler(h, allowedOrigin).HandleConnection)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestConnectionReceivesConnectedEvent(t *testing.T) {
	conn := dial(t, startServer(t, "*"))

	f := read(t, conn)
	assert.Equal(t, hub.EventConnected, f.Event)
	assert.NotEmpty(t, f.Data["id"])
}

func TestGeneralRosterReachesEveryConnection(t *testing.T) {
	url := startServer(t, "")
	a := dial(t, url)
	b := dial(t, url)
	read(t, a)
	read(t, b)

	require.NoError(t, a.WriteJSON(map[string]any{
		"event": hub.EventInitGeneralChat,
		"data":  map[string]any{"id": 4, "nombre": "ana"},
	}))

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var f struct {
			Event string           `json:"event"`
			Data  []map[string]any `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&f))
		assert.Equal(t, hub.EventGeneralRoster, f.Event)
		require.Len(t, f.Data, 1)
		assert.Equal(t, "ana", f.Data[0]["nombre"])
	}
}

func TestOriginIsChecked(t *testing.T) {
	url := startServer(t, "http://allowed.example")

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://allowed.example")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = conn.Close()
}
