package protocol

import (
	"context"
	"errors"
	"testing"
)

func setBlockPacket() *Packet {
	return &Packet{
		PacketName: "SetBlock",
		Opcode:     0x06,
		Direction:  Outbound,
		Layout: Layout{
			Short("x"),
			Short("y"),
			Short("z"),
			Byte("block"),
		},
	}
}

func TestPacketEncodeDecode(t *testing.T) {
	p := setBlockPacket()

	frame, err := p.Encode(int16(10), int16(20), int16(30), byte(49))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(frame) != 1+p.Layout.Size() {
		t.Fatalf("frame length = %d, want %d", len(frame), 1+p.Layout.Size())
	}
	if frame[0] != 0x06 {
		t.Errorf("frame[0] = 0x%02x, want opcode 0x06", frame[0])
	}

	vals, err := p.Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if vals[0] != int16(10) || vals[1] != int16(20) || vals[2] != int16(30) || vals[3] != byte(49) {
		t.Errorf("Decode() = %v, want [10 20 30 49]", vals)
	}
}

func TestPacketDecodeOpcodeMismatch(t *testing.T) {
	p := setBlockPacket()
	frame, err := p.Encode(int16(0), int16(0), int16(0), byte(0))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	frame[0] = 0x42

	if _, err := p.Decode(frame); !errors.Is(err, ErrOpcodeMismatch) {
		t.Errorf("Decode() error = %v, want %v", err, ErrOpcodeMismatch)
	}
}

func TestPacketDecodeShortFrame(t *testing.T) {
	p := setBlockPacket()
	if _, err := p.Decode([]byte{0x06, 0x00}); !errors.Is(err, ErrBufferTooShort) {
		t.Errorf("Decode() error = %v, want %v", err, ErrBufferTooShort)
	}
}

func TestPacketRegistryDirections(t *testing.T) {
	r := NewPacketRegistry(nil)

	in := &Packet{PacketName: "PlayerMessage", Opcode: 0x0d, Direction: Inbound,
		Layout: Layout{Byte("player_id"), String("message")}}
	out := &Packet{PacketName: "SendMessage", Opcode: 0x0d, Direction: Outbound,
		Layout: Layout{Byte("player_id"), String("message")}}

	if err := r.Register(in, "core", false); err != nil {
		t.Fatalf("Register(inbound) error = %v", err)
	}
	// Same opcode in the other direction must not conflict.
	if err := r.Register(out, "core", false); err != nil {
		t.Fatalf("Register(outbound) error = %v", err)
	}

	got, err := r.LookupOpcode(Inbound, 0x0d)
	if err != nil || got != in {
		t.Errorf("LookupOpcode(Inbound) = %v, %v, want inbound packet", got, err)
	}
	got, err = r.LookupOpcode(Outbound, 0x0d)
	if err != nil || got != out {
		t.Errorf("LookupOpcode(Outbound) = %v, %v, want outbound packet", got, err)
	}

	if !r.Contains(Inbound, "playermessage") {
		t.Error("Contains(Inbound, playermessage) = false, want case-insensitive hit")
	}
	if r.Contains(Inbound, "SendMessage") {
		t.Error("Contains(Inbound, SendMessage) = true, want directional separation")
	}
}

func TestPacketRegistryOpcodeConflict(t *testing.T) {
	r := NewPacketRegistry(nil)
	a := &Packet{PacketName: "First", Opcode: 0x20, Direction: Inbound, Layout: Layout{}}
	b := &Packet{PacketName: "Second", Opcode: 0x20, Direction: Inbound, Layout: Layout{}}

	if err := r.Register(a, "core", false); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(b, "custom", false); err == nil {
		t.Error("Register() with duplicate inbound opcode succeeded, want conflict")
	}
}

func TestHotPathCacheBuiltAtSeal(t *testing.T) {
	r := NewPacketRegistry(nil)

	hot := &Packet{PacketName: "UpdateBlock", Opcode: 0x05, Direction: Inbound, HotPath: true,
		Layout: Layout{Short("x"), Short("y"), Short("z"), Byte("mode"), Byte("block")}}
	cold := &Packet{PacketName: "PlayerIdentification", Opcode: 0x00, Direction: Inbound, Critical: true,
		Layout: Layout{Byte("protocol_version"), String("username"), String("verification_key"), Byte("pad")}}
	outbound := &Packet{PacketName: "Ping", Opcode: 0x01, Direction: Outbound, Layout: Layout{}}

	for _, p := range []*Packet{hot, cold, outbound} {
		if err := r.Register(p, "core", false); err != nil {
			t.Fatalf("Register(%s) error = %v", p.PacketName, err)
		}
	}

	// Before seal the cache does not exist.
	if _, ok := r.HotPath(0x05); ok {
		t.Error("HotPath() hit before Seal")
	}

	r.Seal()

	got, ok := r.HotPath(0x05)
	if !ok || got != hot {
		t.Errorf("HotPath(0x05) = %v, %v, want hot packet", got, ok)
	}
	if _, ok := r.HotPath(0x00); ok {
		t.Error("HotPath(0x00) hit for a packet not flagged hot")
	}
	if _, ok := r.HotPath(0x01); ok {
		t.Error("HotPath(0x01) hit for an outbound packet")
	}

	// The cache agrees with the registry.
	reg, err := r.LookupOpcode(Inbound, 0x05)
	if err != nil || reg != got {
		t.Errorf("cache and registry disagree: %v vs %v", got, reg)
	}
}

func TestPacketValidation(t *testing.T) {
	r := NewPacketRegistry(nil)

	tests := []struct {
		name string
		p    *Packet
	}{
		{
			name: "missing_name",
			p:    &Packet{Opcode: 0x30, Direction: Inbound, Layout: Layout{}},
		},
		{
			name: "hot_path_outbound",
			p:    &Packet{PacketName: "Bad", Opcode: 0x30, Direction: Outbound, HotPath: true, Layout: Layout{}},
		},
		{
			name: "handler_on_outbound",
			p: &Packet{PacketName: "Bad", Opcode: 0x30, Direction: Outbound, Layout: Layout{},
				Handle: func(ctx context.Context, conn Conn, vals []any) error { return nil }},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := r.Register(tc.p, "core", false); !errors.Is(err, ErrBadDefinition) {
				t.Errorf("Register() error = %v, want %v", err, ErrBadDefinition)
			}
		})
	}
}
