// Package ws carries the session protocol over WebSocket text frames. Every
// connection owns exactly one playback session.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/codeflow-dev/codeflow/internal/logging"
	"github.com/codeflow-dev/codeflow/pkg/protocol"
	"github.com/codeflow-dev/codeflow/pkg/session"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// DefaultSendBuffer is the number of outbound messages a connection may
	// queue before it is considered too slow and closed.
	DefaultSendBuffer = 256
)

// Handler upgrades requests and runs one session per connection.
type Handler struct {
	sessions   *session.Manager
	upgrader   websocket.Upgrader
	origins    []string
	readLimit  int64
	sendBuffer int
	logger     *slog.Logger
}

// Option configures the Handler.
type Option func(*Handler)

// WithAllowedOrigins restricts the Origin header accepted on upgrade.
// Without it every origin is accepted.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) { h.origins = origins }
}

// WithReadLimit caps the size of an inbound frame.
func WithReadLimit(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.readLimit = n
		}
	}
}

// WithSendBuffer sets how many outbound messages may be queued.
func WithSendBuffer(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// NewHandler creates a Handler opening sessions on m.
func NewHandler(m *session.Manager, opts ...Option) *Handler {
	h := &Handler{
		sessions:   m,
		readLimit:  int64(session.DefaultMaxSourceBytes)*6 + 4096,
		sendBuffer: DefaultSendBuffer,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.origins) == 0 {
		return true
	}
	return slices.Contains(h.origins, r.Header.Get("Origin"))
}

// ServeHTTP upgrades the request and serves the session until the peer
// disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &client{
		conn:   conn,
		send:   make(chan []byte, h.sendBuffer),
		slow:   make(chan struct{}),
		logger: h.logger,
	}
	ctrl := h.sessions.Open(ctx, c.emit)
	c.logger = h.logger.With("session_id", ctrl.ID())
	c.logger.Info("client connected", "remote", r.RemoteAddr)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writeLoop(ctx)
		// A failed writer must also stop the reader.
		conn.Close()
	}()

	c.readLoop(ctrl, h.readLimit)

	_ = h.sessions.Close(ctrl.ID())
	cancel()
	wg.Wait()
	conn.Close()
	c.logger.Info("client disconnected")
}

// client is the connection side of one session.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	slow   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// emit queues m. It is called under the session lock, so it never blocks:
// a client that falls behind by a full buffer is disconnected.
func (c *client) emit(m protocol.Message) {
	data, err := protocol.Encode(m)
	if err != nil {
		c.logger.Error("encode failed", "type", m.MessageType(), "err", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.once.Do(func() {
			c.logger.Warn("send buffer full, closing connection")
			close(c.slow)
		})
	}
}

func (c *client) readLoop(ctrl *session.Controller, limit int64) {
	c.conn.SetReadLimit(limit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("read failed", "err", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		cmd, err := protocol.Decode(data)
		if errors.Is(err, protocol.ErrMalformed) {
			c.logger.Debug("dropping malformed message", "err", err)
			continue
		}
		// Rejections already reached the client as ERROR messages.
		_ = ctrl.Handle(cmd)
	}
}

func (c *client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write failed", "err", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.slow:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "client too slow"),
				time.Now().Add(writeWait))
			return
		case <-ctx.Done():
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
