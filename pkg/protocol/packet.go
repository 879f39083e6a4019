package protocol

import (
	"context"
	"errors"
	"fmt"
)

// Direction tells which way a packet travels.
type Direction uint8

const (
	Inbound  Direction = iota // client → server (request)
	Outbound                  // server → client (response)
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case Inbound:
		return "Inbound"
	case Outbound:
		return "Outbound"
	default:
		return "Unknown"
	}
}

// Packet definition errors.
var (
	ErrOpcodeMismatch = errors.New("protocol: opcode does not match packet definition")
	ErrBadDefinition  = errors.New("protocol: invalid packet definition")
)

// Conn is the connection surface a packet handler sees. The server's
// connection type implements it; tests may substitute their own.
type Conn interface {
	// Send encodes and writes the named outbound packet. Sending a
	// capability-gated packet the peer did not negotiate is a silent no-op.
	Send(ctx context.Context, packet string, vals ...any) error

	// Supports reports whether the peer negotiated the named capability at
	// exactly the given version.
	Supports(name string, version int32) bool

	// Player returns the authenticated player name, empty before the
	// handshake completes.
	Player() string
}

// HandlerFunc processes a decoded inbound packet.
type HandlerFunc func(ctx context.Context, conn Conn, vals []any) error

// Packet describes one packet: its wire layout plus the behavior attached to
// it. A Packet is built once by the registering module and is immutable
// after registration.
type Packet struct {
	// PacketName is the case-insensitive registry key.
	PacketName string

	// Opcode is the 1-byte packet identifier, unique per direction.
	Opcode byte

	// Direction tells which of the two directional registries owns this
	// definition.
	Direction Direction

	// Critical marks packets whose codec failures tear down the connection.
	// Non-critical failures are routed to OnError and recovered.
	Critical bool

	// HotPath marks inbound packets indexed in the opcode fast-path cache
	// used by the per-connection read loop. Inbound only.
	HotPath bool

	// Layout is the ordered field list of the packet body.
	Layout Layout

	// Extension gates the packet on a negotiated capability. Nil means the
	// packet belongs to the base protocol.
	Extension *Capability

	// Handle processes a decoded inbound packet. Inbound only.
	Handle HandlerFunc

	// OnError receives codec errors for non-critical packets. When nil the
	// connection logs the error and continues.
	OnError func(err error)

	size int // total wire size, fixed at registration
}

// Name returns the registry primary key.
func (p *Packet) Name() string {
	return p.PacketName
}

// NumericID returns the opcode as the registry secondary key.
func (p *Packet) NumericID() (int32, bool) {
	return int32(p.Opcode), true
}

// Size returns the total wire size in bytes: opcode plus the fixed body.
func (p *Packet) Size() int {
	if p.size == 0 {
		p.size = 1 + p.Layout.Size()
	}
	return p.size
}

// String implements fmt.Stringer for logs.
func (p *Packet) String() string {
	return fmt.Sprintf("<%s packet %s (0x%02x)>", p.Direction, p.PacketName, p.Opcode)
}

// Encode serializes the packet with the given field values into a complete
// wire frame: opcode byte followed by the body in declared field order.
func (p *Packet) Encode(vals ...any) ([]byte, error) {
	enc := NewEncoderWithCap(p.Size())
	enc.WriteByte(p.Opcode)
	if err := p.Layout.Encode(enc, vals...); err != nil {
		return nil, fmt.Errorf("encode %s: %w", p.PacketName, err)
	}
	return enc.Bytes(), nil
}

// Decode is the inverse of Encode. data must be a complete frame of exactly
// Size() bytes, opcode included; the opcode is verified against the
// definition.
func (p *Packet) Decode(data []byte) ([]any, error) {
	if len(data) < p.Size() {
		return nil, fmt.Errorf("decode %s: %w: want %d bytes, got %d",
			p.PacketName, ErrBufferTooShort, p.Size(), len(data))
	}
	if data[0] != p.Opcode {
		return nil, fmt.Errorf("decode %s: %w: got 0x%02x, want 0x%02x",
			p.PacketName, ErrOpcodeMismatch, data[0], p.Opcode)
	}
	vals, err := p.Layout.Decode(NewDecoder(data[1:]))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.PacketName, err)
	}
	return vals, nil
}

// validate checks the definition's internal consistency at registration time.
func (p *Packet) validate() error {
	if p.PacketName == "" {
		return fmt.Errorf("%w: empty name", ErrBadDefinition)
	}
	switch p.Direction {
	case Inbound:
		// Inbound packets outside the hot path are consumed directly by
		// the handshake, so a nil Handle is legal there.
	case Outbound:
		if p.HotPath {
			return fmt.Errorf("%w: %s: hot path is inbound-only", ErrBadDefinition, p.PacketName)
		}
		if p.Handle != nil {
			return fmt.Errorf("%w: %s: outbound packets have no inbound handler", ErrBadDefinition, p.PacketName)
		}
	default:
		return fmt.Errorf("%w: %s: unknown direction %d", ErrBadDefinition, p.PacketName, p.Direction)
	}
	return nil
}
