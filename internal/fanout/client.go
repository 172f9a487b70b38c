package fanout

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	maxReadBytes = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // any origin; restrict at the edge proxy
	},
}

// ConnConfig bounds a websocket subscriber's lifetime.
type ConnConfig struct {
	// IdleTimeout closes a connection that sends neither data nor pongs.
	IdleTimeout  time.Duration
	PingInterval time.Duration
}

func (c ConnConfig) withDefaults() ConnConfig {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.IdleTimeout {
		c.PingInterval = c.IdleTimeout * 9 / 10
	}
	return c
}

// GroupResolver maps a request to the group it subscribes to. It writes its
// own error response and returns false when the request is invalid.
type GroupResolver func(c *gin.Context) (string, bool)

// client is a websocket connection bound to one session.
type client struct {
	hub     *Hub
	session *Session
	conn    *websocket.Conn
	cfg     ConnConfig
	logger  *zap.Logger
}

// ServeWs upgrades the request, joins the resolved group and pumps payloads
// until either side closes. The session leaves its group before the handler
// returns.
func ServeWs(hub *Hub, resolve GroupResolver, cfg ConnConfig, logger *zap.Logger) gin.HandlerFunc {
	cfg = cfg.withDefaults()
	return func(c *gin.Context) {
		name, ok := resolve(c)
		if !ok {
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		session, err := hub.Join(name)
		if err != nil {
			logger.Error("join fanout group", zap.String("group", name), zap.Error(err))
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "join failed"),
				time.Now().Add(writeWait))
			_ = conn.Close()
			return
		}
		cl := &client{hub: hub, session: session, conn: conn, cfg: cfg, logger: logger}
		go cl.writePump()
		cl.readPump()
	}
}

// readPump discards inbound frames; it exists to process pongs and detect
// disconnects. Returning leaves the group, which closes the send queue and
// stops writePump.
func (c *client) readPump() {
	defer func() {
		c.hub.Leave(c.session)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxReadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read", zap.String("group", c.session.Group), zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.session.Messages():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
