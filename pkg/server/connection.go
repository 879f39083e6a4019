package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/codingwatching/ProjectObsidian/pkg/protocol"
	"github.com/codingwatching/ProjectObsidian/pkg/registry"
)

// captureLimit caps the per-connection inbound capture so a chatty or
// hostile client cannot grow the buffer without bound.
const captureLimit = 1 << 20

// Connection is one client on the wire. It implements protocol.Conn so
// packet handlers and modules can write back and query negotiated
// capabilities without importing this package.
type Connection struct {
	srv    *Server
	conn   net.Conn
	reader *bufio.Reader
	logger *slog.Logger

	// caps is the effective capability set, fixed during the handshake
	// before the serving loop starts.
	caps *protocol.CapabilitySet

	player string

	writeMu sync.Mutex
	closed  atomic.Bool

	capture *bytes.Buffer
}

var _ protocol.Conn = (*Connection)(nil)

func newConnection(s *Server, conn net.Conn) *Connection {
	c := &Connection{
		srv:    s,
		conn:   conn,
		reader: bufio.NewReader(conn),
		logger: s.logger.With("remote", conn.RemoteAddr().String()),
	}
	if s.config.Archive != nil {
		c.capture = &bytes.Buffer{}
	}
	return c
}

// Player returns the identified player name, or "" before the handshake
// completes.
func (c *Connection) Player() string { return c.player }

// Supports reports whether the peer negotiated the named capability at
// exactly the given version.
func (c *Connection) Supports(name string, version int32) bool {
	return c.caps.Supports(name, version)
}

// Send encodes and writes an outbound packet by name.
//
// Packets gated on a capability the peer did not negotiate are silently
// skipped. Encode failures on non-critical packets are routed to the
// packet's OnError handler and the connection keeps serving; on critical
// packets they are returned and tear the connection down.
func (c *Connection) Send(ctx context.Context, packet string, vals ...any) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	def, err := c.srv.packets.Lookup(protocol.Outbound, packet)
	if err != nil {
		return err
	}
	if def.Extension != nil && !c.caps.Contains(*def.Extension) {
		c.logger.Debug("skipping packet, capability not negotiated",
			"packet", packet, "capability", def.Extension.String())
		return nil
	}

	frame, err := def.Encode(vals...)
	if err != nil {
		if def.Critical {
			c.srv.metrics.CodecErrors.WithLabelValues(packet, "critical").Inc()
			return fmt.Errorf("server: encoding %s: %w", packet, err)
		}
		c.srv.metrics.CodecErrors.WithLabelValues(packet, "recoverable").Inc()
		c.routeCodecError(def, err)
		return nil
	}

	if deadline, ok := ctx.Deadline(); ok && deadline.Before(time.Now().Add(c.srv.config.WriteTimeout)) {
		c.conn.SetWriteDeadline(deadline)
	} else {
		c.conn.SetWriteDeadline(time.Now().Add(c.srv.config.WriteTimeout))
	}

	c.writeMu.Lock()
	_, err = c.conn.Write(frame)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("server: writing %s: %w", packet, err)
	}
	c.srv.metrics.PacketsOut.WithLabelValues(packet).Inc()
	return nil
}

// Disconnect sends a disconnect frame with the reason, best effort, then
// closes the transport.
func (c *Connection) Disconnect(reason string) {
	if c.closed.Swap(true) {
		return
	}
	if def, err := c.srv.packets.Lookup(protocol.Outbound, "DisconnectPlayer"); err == nil {
		if frame, err := def.Encode(reason); err == nil {
			c.conn.SetWriteDeadline(time.Now().Add(c.srv.config.WriteTimeout))
			c.writeMu.Lock()
			c.conn.Write(frame)
			c.writeMu.Unlock()
		}
	}
	c.conn.Close()
}

// serve runs the handshake and then the packet loop until the peer
// disconnects, a fatal error occurs, or ctx is cancelled.
func (c *Connection) serve(ctx context.Context) {
	ctx, span := c.srv.tracer.Start(ctx, "connection")
	span.SetAttributes(attribute.String("net.peer", c.conn.RemoteAddr().String()))
	defer span.End()

	// Unblock reads when the server shuts down.
	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	cause := "clean"
	if err := c.handshake(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "handshake failed")
		cause = c.failErr(err)
		c.teardown(ctx, cause)
		return
	}
	span.SetAttributes(
		attribute.String("player", c.player),
		attribute.Int("capabilities", c.caps.Len()),
	)
	c.logger = c.logger.With("player", c.player)
	c.logger.Info("player joined", "capabilities", c.caps.Len())

	heartbeatDone := make(chan struct{})
	go c.heartbeat(ctx, heartbeatDone)

	err := c.readLoop(ctx)
	close(heartbeatDone)
	if err != nil {
		span.RecordError(err)
		cause = c.failErr(err)
		if cause != "clean" {
			span.SetStatus(codes.Error, cause)
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	c.teardown(ctx, cause)
}

// failErr classifies a terminal error, notifies the peer when it can
// still be reached, and returns the teardown cause label.
func (c *Connection) failErr(err error) string {
	var ce *ClientError
	switch {
	case errors.As(err, &ce):
		c.logger.Warn("disconnecting client", "reason", ce.Reason)
		c.Disconnect(ce.Reason)
		return "client_error"
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		return "clean"
	default:
		c.logger.Error("connection failed", "error", err)
		c.Disconnect("Internal server error")
		return "server_error"
	}
}

// heartbeat sends keepalive pings until the connection stops.
func (c *Connection) heartbeat(ctx context.Context, done <-chan struct{}) {
	if !c.srv.packets.Contains(protocol.Outbound, "Ping") {
		return
	}
	ticker := time.NewTicker(c.srv.config.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Send(ctx, "Ping"); err != nil {
				return
			}
		}
	}
}

// readLoop dispatches inbound packets. The opcode byte selects the
// definition through the hot-path cache, falling back to the full
// registry for packets that opted out of it.
func (c *Connection) readLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return io.EOF
		}
		c.conn.SetReadDeadline(time.Now().Add(c.srv.config.ReadTimeout))

		opcode, err := c.reader.ReadByte()
		if err != nil {
			return err
		}
		def, ok := c.srv.packets.HotPath(opcode)
		if !ok {
			def, err = c.srv.packets.LookupOpcode(protocol.Inbound, opcode)
			if err != nil {
				return NewClientError("unknown packet 0x%02x", opcode)
			}
		}

		frame := make([]byte, def.Size())
		frame[0] = opcode
		if _, err := io.ReadFull(c.reader, frame[1:]); err != nil {
			return err
		}
		c.record(frame)

		// Gated packets from a peer that did not negotiate the capability
		// are read to keep framing, then dropped without error.
		if def.Extension != nil && !c.caps.Contains(*def.Extension) {
			c.logger.Debug("dropping packet, capability not negotiated",
				"packet", def.PacketName, "capability", def.Extension.String())
			continue
		}

		vals, err := def.Decode(frame)
		if err != nil {
			if def.Critical {
				c.srv.metrics.CodecErrors.WithLabelValues(def.PacketName, "critical").Inc()
				return NewClientError("malformed %s packet", def.PacketName)
			}
			c.srv.metrics.CodecErrors.WithLabelValues(def.PacketName, "recoverable").Inc()
			c.routeCodecError(def, err)
			continue
		}
		c.srv.metrics.PacketsIn.WithLabelValues(def.PacketName).Inc()

		if def.Handle == nil {
			continue
		}
		if err := def.Handle(ctx, c, vals); err != nil {
			return err
		}
	}
}

// routeCodecError hands a recoverable codec failure to the packet's
// OnError callback, or logs it when the packet has none.
func (c *Connection) routeCodecError(def *protocol.Packet, err error) {
	if def.OnError != nil {
		def.OnError(err)
		return
	}
	c.logger.Warn("dropping malformed packet", "packet", def.PacketName, "error", err)
}

// record appends an inbound frame to the archive capture, up to the
// capture limit.
func (c *Connection) record(frame []byte) {
	if c.capture == nil || c.capture.Len() >= captureLimit {
		return
	}
	c.capture.Write(frame)
}

// teardown fires the connection.close extension point, flushes the
// capture to the archive, and closes the transport.
func (c *Connection) teardown(ctx context.Context, cause string) {
	c.srv.metrics.Disconnects.WithLabelValues(cause).Inc()

	// The serve context may already be cancelled; the close hooks and
	// the archive flush still get a bounded window.
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.srv.config.WriteTimeout)
	defer cancel()

	if _, err := c.srv.invoke(flushCtx, HookConnectionClose,
		&CloseEvent{Player: c.player, Cause: cause},
		func(ctx context.Context, input any) (any, error) { return nil, nil },
	); err != nil {
		c.logger.Warn("connection close hook failed", "error", err)
	}

	if c.capture != nil && c.capture.Len() > 0 {
		key := fmt.Sprintf("captures/%s-%d.bin", c.captureName(), time.Now().Unix())
		if err := c.srv.config.Archive.Put(flushCtx, key, bytes.NewReader(c.capture.Bytes())); err != nil {
			c.logger.Warn("archiving capture failed", "key", key, "error", err)
		}
	}

	c.closed.Store(true)
	c.conn.Close()
	c.logger.Info("connection closed", "cause", cause)
}

func (c *Connection) captureName() string {
	if c.player != "" {
		return c.player
	}
	return "anonymous"
}

// lookupRequired fetches a packet definition the handshake cannot run
// without. Seal guarantees these exist, so a miss is a programming error.
func (c *Connection) lookupRequired(direction protocol.Direction, name string) (*protocol.Packet, error) {
	def, err := c.srv.packets.Lookup(direction, name)
	if err != nil {
		var nf *registry.NotFoundError
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("server: required packet %s missing: %w", name, err)
		}
		return nil, err
	}
	return def, nil
}
