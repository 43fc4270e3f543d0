package websocket

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Default time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Maximum message size allowed from a peer. Clients only send pings
	// and the occasional subscription message.
	maxMessageSize = 1024
)

// Connection abstracts the websocket connection for testing.
type Connection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

type gorillaConn struct {
	conn *websocket.Conn
}

func (g *gorillaConn) ReadMessage() (int, []byte, error) { return g.conn.ReadMessage() }
func (g *gorillaConn) WriteMessage(t int, data []byte) error { return g.conn.WriteMessage(t, data) }
func (g *gorillaConn) Close() error { return g.conn.Close() }
func (g *gorillaConn) SetReadLimit(limit int64) { g.conn.SetReadLimit(limit) }
func (g *gorillaConn) SetReadDeadline(t time.Time) error { return g.conn.SetReadDeadline(t) }
func (g *gorillaConn) SetWriteDeadline(t time.Time) error { return g.conn.SetWriteDeadline(t) }
func (g *gorillaConn) SetPongHandler(h func(string) error) { g.conn.SetPongHandler(h) }
func (g *gorillaConn) RemoteAddr() string { return g.conn.RemoteAddr().String() }

// Options tunes connection behavior. Zero values fall back to the package
// defaults.
type Options struct {
	ReadBufferSize  int
	WriteBufferSize int
	PingPeriod      time.Duration
	PongWait        time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = 1024
	}
	if o.WriteBufferSize <= 0 {
		o.WriteBufferSize = 1024
	}
	if o.PongWait <= 0 {
		o.PongWait = pongWait
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = (o.PongWait * 9) / 10
	}
	return o
}

// Client is a middleman between a websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn Connection
	send chan []byte
	opts Options

	id         string
	remoteAddr string
	logger     *slog.Logger
}

// NewClient creates a Client wrapping a gorilla websocket connection.
func NewClient(hub *Hub, conn *websocket.Conn, opts Options, logger *slog.Logger) *Client {
	return NewClientWithConnection(hub, &gorillaConn{conn: conn}, opts, logger)
}

// NewClientWithConnection creates a Client with a custom connection, used
// by tests to avoid a real network socket.
func NewClientWithConnection(hub *Hub, conn Connection, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New().String()
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, 256),
		opts:       opts.withDefaults(),
		id:         id,
		remoteAddr: conn.RemoteAddr(),
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
		),
	}
}

// ReadPump pumps messages from the websocket connection to the hub. It
// exists mainly to notice disconnects; inbound payloads are discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected close", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades an HTTP request to a websocket connection and registers
// the resulting client with the hub.
func ServeWS(hub *Hub, opts Options, logger *slog.Logger) http.HandlerFunc {
	opts = opts.withDefaults()
	upgrader := websocket.Upgrader{
		ReadBufferSize:  opts.ReadBufferSize,
		WriteBufferSize: opts.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			// Origin filtering is handled by the CORS middleware upstream.
			return true
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		client := NewClient(hub, conn, opts, logger)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
