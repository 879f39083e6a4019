// Package ws adapts WebSocket connections onto the binary game protocol
// so browser clients can join the same server as raw TCP clients. Each
// upgraded connection is wrapped as a net.Conn streaming binary messages
// and handed to the server's connection loop.
package ws

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codingwatching/ProjectObsidian/pkg/server"
)

// Config configures the WebSocket handler.
type Config struct {
	// ReadBufferSize is the upgrader's read buffer size.
	// Default: 4096
	ReadBufferSize int

	// WriteBufferSize is the upgrader's write buffer size.
	// Default: 4096
	WriteBufferSize int

	// CheckOrigin validates the Origin header. Defaults to accepting
	// all origins, matching the public nature of classic servers.
	CheckOrigin func(r *http.Request) bool

	// Subprotocol, when set, is required from the client.
	// Default: "" (none)
	Subprotocol string

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// Handler upgrades HTTP requests to WebSocket and serves the game
// protocol over them.
type Handler struct {
	srv      *server.Server
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a WebSocket handler feeding connections to srv.
func NewHandler(srv *server.Server, config *Config) *Handler {
	if config == nil {
		config = &Config{}
	}
	readBuf := config.ReadBufferSize
	if readBuf == 0 {
		readBuf = 4096
	}
	writeBuf := config.WriteBufferSize
	if writeBuf == 0 {
		writeBuf = 4096
	}
	checkOrigin := config.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var subprotocols []string
	if config.Subprotocol != "" {
		subprotocols = []string{config.Subprotocol}
	}

	return &Handler{
		srv: srv,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			CheckOrigin:     checkOrigin,
			Subprotocols:    subprotocols,
		},
		logger: logger,
	}
}

// ServeHTTP upgrades the request and blocks until the game connection
// closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	h.logger.Debug("websocket connection upgraded", "remote", r.RemoteAddr)
	h.srv.ServeConn(r.Context(), newStreamConn(ws))
}

// streamConn presents a WebSocket connection as a byte stream. Inbound
// binary messages are drained through a read buffer; writes go out as
// one binary message per call, which maps one outbound frame to one
// message since the server writes whole frames.
type streamConn struct {
	ws  *websocket.Conn
	buf []byte
}

func newStreamConn(ws *websocket.Conn) *streamConn {
	return &streamConn{ws: ws}
}

func (c *streamConn) Read(p []byte) (int, error) {
	for len(c.buf) == 0 {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			return 0, err
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		c.buf = data
	}
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n, nil
}

func (c *streamConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *streamConn) Close() error {
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}

func (c *streamConn) LocalAddr() net.Addr  { return c.ws.LocalAddr() }
func (c *streamConn) RemoteAddr() net.Addr { return c.ws.RemoteAddr() }

func (c *streamConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *streamConn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

func (c *streamConn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}
