package fanout

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newWsServer(t *testing.T, hub *Hub, cfg ConnConfig) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/chat/:chat_id", ServeWs(hub, func(c *gin.Context) (string, bool) {
		return "chat:" + c.Param("chat_id"), true
	}, cfg, zap.NewNop()))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestServeWsDeliversAndLeavesOnClose(t *testing.T) {
	hub := NewHub(nil)
	srv := newWsServer(t, hub, ConnConfig{IdleTimeout: 5 * time.Second})
	conn := dial(t, srv, "/ws/chat/7")

	var hello Handshake
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, "chat:7", hello.Group)
	require.Equal(t, 1, hub.Subscribers(ChatGroup(7)))

	hub.Publish(ChatGroup(7), NewMessageEvent(map[string]string{"content": "hello"}))
	var ev struct {
		Type    string            `json:"type"`
		Message map[string]string `json:"message"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, TypeNewMessage, ev.Type)
	require.Equal(t, "hello", ev.Message["content"])

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers(ChatGroup(7)) == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestServeWsReclaimsIdleConnections(t *testing.T) {
	hub := NewHub(nil)
	srv := newWsServer(t, hub, ConnConfig{IdleTimeout: 200 * time.Millisecond, PingInterval: time.Hour})
	conn := dial(t, srv, "/ws/chat/8")
	t.Cleanup(func() { _ = conn.Close() })

	var hello Handshake
	require.NoError(t, conn.ReadJSON(&hello))
	require.Eventually(t, func() bool { return hub.Subscribers(ChatGroup(8)) == 0 },
		2*time.Second, 20*time.Millisecond)
}
