package server

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/codingwatching/ProjectObsidian/pkg/protocol"
)

// extMagic in the identification pad byte signals that the client speaks
// the extension negotiation protocol.
const extMagic = 0x42

// handshake runs the identification exchange: read the client's
// identification, negotiate extensions when both sides support them, and
// answer with the server's identification. On success c.player and
// c.caps are set and the serving loop may start.
func (c *Connection) handshake(ctx context.Context) error {
	c.conn.SetReadDeadline(time.Now().Add(c.srv.config.HandshakeTimeout))

	ident, err := c.lookupRequired(protocol.Inbound, "PlayerIdentification")
	if err != nil {
		return err
	}
	vals, err := c.readFrame(ident)
	if err != nil {
		return err
	}
	version, _ := vals[0].(byte)
	username, _ := vals[1].(string)
	pad, _ := vals[3].(byte)

	switch {
	case version < c.srv.config.ProtocolVersion:
		return NewClientError("Outdated client! Server runs protocol %d.", c.srv.config.ProtocolVersion)
	case version > c.srv.config.ProtocolVersion:
		return NewClientError("Outdated server! Client expects protocol %d.", version)
	}
	if !validUsername(username) {
		return NewClientError("Invalid username!")
	}
	c.player = username

	if pad == extMagic && !c.srv.config.DisableCPE && len(c.srv.extensions) > 0 {
		if err := c.negotiate(ctx); err != nil {
			return err
		}
	} else {
		c.caps = protocol.NewCapabilitySet()
	}

	if err := c.Send(ctx, "ServerIdentification",
		c.srv.config.ProtocolVersion, c.srv.config.Name, c.srv.config.MOTD, byte(0x00),
	); err != nil {
		return err
	}

	_, err = c.srv.invoke(ctx, HookPlayerJoin, &JoinEvent{Conn: c},
		func(ctx context.Context, input any) (any, error) {
			ev := input.(*JoinEvent)
			c.srv.Broadcast(ctx, "SendMessage", byte(0),
				fmt.Sprintf("&e%s joined the server", ev.Conn.Player()))
			return nil, nil
		},
	)
	return err
}

// negotiate exchanges capability lists with the client and fixes the
// effective set to the exact-match intersection. Gated behavior outside
// the intersection is silently skipped for this connection.
func (c *Connection) negotiate(ctx context.Context) error {
	extInfoIn, err := c.lookupRequired(protocol.Inbound, "ExtInfo")
	if err != nil {
		return err
	}
	extEntryIn, err := c.lookupRequired(protocol.Inbound, "ExtEntry")
	if err != nil {
		return err
	}

	if err := c.Send(ctx, "ExtInfo",
		c.srv.config.Software, int16(len(c.srv.extensions)),
	); err != nil {
		return err
	}
	for _, ext := range c.srv.extensions {
		if err := c.Send(ctx, "ExtEntry", ext.Name, ext.Version); err != nil {
			return err
		}
	}

	vals, err := c.readFrame(extInfoIn)
	if err != nil {
		return err
	}
	client, _ := vals[0].(string)
	count, _ := vals[1].(int16)
	if count < 0 || count > 256 {
		return NewClientError("Invalid extension count %d", count)
	}

	theirs := make([]protocol.Capability, 0, count)
	for i := int16(0); i < count; i++ {
		vals, err := c.readFrame(extEntryIn)
		if err != nil {
			return err
		}
		name, _ := vals[0].(string)
		version, _ := vals[1].(int32)
		theirs = append(theirs, protocol.Capability{Name: name, Version: version})
	}

	advertised := protocol.NewCapabilitySet(c.srv.extensions...)
	c.caps = advertised.Intersect(protocol.NewCapabilitySet(theirs...))
	c.logger.Debug("extensions negotiated",
		"client", client,
		"offered", count,
		"effective", c.caps.Len(),
	)
	return nil
}

// readFrame reads exactly one frame of the given definition, verifying
// the opcode byte.
func (c *Connection) readFrame(def *protocol.Packet) ([]any, error) {
	frame := make([]byte, def.Size())
	if _, err := io.ReadFull(c.reader, frame); err != nil {
		return nil, err
	}
	c.record(frame)
	if frame[0] != def.Opcode {
		return nil, NewClientError("expected %s packet, got opcode 0x%02x", def.PacketName, frame[0])
	}
	vals, err := def.Decode(frame)
	if err != nil {
		return nil, NewClientError("malformed %s packet", def.PacketName)
	}
	c.srv.metrics.PacketsIn.WithLabelValues(def.PacketName).Inc()
	return vals, nil
}

// validUsername enforces classic username rules: 1 to 16 characters,
// letters, digits, and underscores only.
func validUsername(name string) bool {
	if len(name) == 0 || len(name) > 16 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}
