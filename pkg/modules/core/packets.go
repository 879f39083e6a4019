package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/codingwatching/ProjectObsidian/pkg/protocol"
	"github.com/codingwatching/ProjectObsidian/pkg/registry"
	"github.com/codingwatching/ProjectObsidian/pkg/server"
)

// registerPackets contributes the base protocol packets in both
// directions. The three inbound gameplay packets are flagged for the
// hot-path opcode cache; identification and extension packets are read
// directly during the handshake and stay off it.
func (m *Module) registerPackets(r *server.Registrar) error {
	packets := []*protocol.Packet{
		// Inbound.
		{
			PacketName: "PlayerIdentification",
			Opcode:     0x00,
			Direction:  protocol.Inbound,
			Critical:   true,
			Layout: protocol.Layout{
				protocol.Byte("protocol_version"),
				protocol.String("username"),
				protocol.String("verification_key"),
				protocol.Byte("pad"),
			},
		},
		{
			PacketName: "UpdateBlock",
			Opcode:     0x05,
			Direction:  protocol.Inbound,
			HotPath:    true,
			Layout: protocol.Layout{
				protocol.Short("x"),
				protocol.Short("y"),
				protocol.Short("z"),
				protocol.Byte("mode"),
				protocol.Byte("block"),
			},
			Handle: m.handleUpdateBlock,
		},
		{
			PacketName: "MovementUpdate",
			Opcode:     0x08,
			Direction:  protocol.Inbound,
			HotPath:    true,
			Layout: protocol.Layout{
				protocol.Byte("player_id"),
				protocol.Short("x"),
				protocol.Short("y"),
				protocol.Short("z"),
				protocol.Byte("yaw"),
				protocol.Byte("pitch"),
			},
			// Position fanout belongs to the world layer; the packet is
			// consumed here so movement never stalls the read loop.
		},
		{
			PacketName: "PlayerMessage",
			Opcode:     0x0d,
			Direction:  protocol.Inbound,
			HotPath:    true,
			Layout: protocol.Layout{
				protocol.Byte("player_id"),
				protocol.String("message"),
			},
			Handle: m.handlePlayerMessage,
		},
		{
			PacketName: "ExtInfo",
			Opcode:     0x10,
			Direction:  protocol.Inbound,
			Critical:   true,
			Layout: protocol.Layout{
				protocol.String("app_name"),
				protocol.Short("extension_count"),
			},
		},
		{
			PacketName: "ExtEntry",
			Opcode:     0x11,
			Direction:  protocol.Inbound,
			Critical:   true,
			Layout: protocol.Layout{
				protocol.String("ext_name"),
				protocol.Int("version"),
			},
		},

		// Outbound.
		{
			PacketName: "ServerIdentification",
			Opcode:     0x00,
			Direction:  protocol.Outbound,
			Critical:   true,
			Layout: protocol.Layout{
				protocol.Byte("protocol_version"),
				protocol.String("server_name"),
				protocol.String("motd"),
				protocol.Byte("user_type"),
			},
		},
		{
			PacketName: "Ping",
			Opcode:     0x01,
			Direction:  protocol.Outbound,
			Layout:     protocol.Layout{},
		},
		{
			PacketName: "LevelInitialize",
			Opcode:     0x02,
			Direction:  protocol.Outbound,
			Critical:   true,
			Layout:     protocol.Layout{},
		},
		{
			PacketName: "LevelDataChunk",
			Opcode:     0x03,
			Direction:  protocol.Outbound,
			Critical:   true,
			Layout: protocol.Layout{
				protocol.Short("chunk_length"),
				protocol.Bytes("chunk_data", 1024),
				protocol.Byte("percent_complete"),
			},
		},
		{
			PacketName: "LevelFinalize",
			Opcode:     0x04,
			Direction:  protocol.Outbound,
			Critical:   true,
			Layout: protocol.Layout{
				protocol.Short("x"),
				protocol.Short("y"),
				protocol.Short("z"),
			},
		},
		{
			PacketName: "SetBlock",
			Opcode:     0x06,
			Direction:  protocol.Outbound,
			Layout: protocol.Layout{
				protocol.Short("x"),
				protocol.Short("y"),
				protocol.Short("z"),
				protocol.Byte("block"),
			},
		},
		{
			PacketName: "SpawnPlayer",
			Opcode:     0x07,
			Direction:  protocol.Outbound,
			Critical:   true,
			Layout: protocol.Layout{
				protocol.Byte("player_id"),
				protocol.String("player_name"),
				protocol.Short("x"),
				protocol.Short("y"),
				protocol.Short("z"),
				protocol.Byte("yaw"),
				protocol.Byte("pitch"),
			},
		},
		{
			PacketName: "PlayerPositionUpdate",
			Opcode:     0x08,
			Direction:  protocol.Outbound,
			Layout: protocol.Layout{
				protocol.Byte("player_id"),
				protocol.Short("x"),
				protocol.Short("y"),
				protocol.Short("z"),
				protocol.Byte("yaw"),
				protocol.Byte("pitch"),
			},
		},
		{
			PacketName: "PositionOrientationUpdate",
			Opcode:     0x09,
			Direction:  protocol.Outbound,
			Layout: protocol.Layout{
				protocol.Byte("player_id"),
				protocol.SByte("dx"),
				protocol.SByte("dy"),
				protocol.SByte("dz"),
				protocol.Byte("yaw"),
				protocol.Byte("pitch"),
			},
		},
		{
			PacketName: "PositionUpdate",
			Opcode:     0x0a,
			Direction:  protocol.Outbound,
			Layout: protocol.Layout{
				protocol.Byte("player_id"),
				protocol.SByte("dx"),
				protocol.SByte("dy"),
				protocol.SByte("dz"),
			},
		},
		{
			PacketName: "OrientationUpdate",
			Opcode:     0x0b,
			Direction:  protocol.Outbound,
			Layout: protocol.Layout{
				protocol.Byte("player_id"),
				protocol.Byte("yaw"),
				protocol.Byte("pitch"),
			},
		},
		{
			PacketName: "DespawnPlayer",
			Opcode:     0x0c,
			Direction:  protocol.Outbound,
			Layout: protocol.Layout{
				protocol.Byte("player_id"),
			},
		},
		{
			PacketName: "SendMessage",
			Opcode:     0x0d,
			Direction:  protocol.Outbound,
			Layout: protocol.Layout{
				protocol.Byte("player_id"),
				protocol.String("message"),
			},
		},
		{
			PacketName: "DisconnectPlayer",
			Opcode:     0x0e,
			Direction:  protocol.Outbound,
			Critical:   true,
			Layout: protocol.Layout{
				protocol.String("reason"),
			},
		},
		{
			PacketName: "UpdateUserType",
			Opcode:     0x0f,
			Direction:  protocol.Outbound,
			Layout: protocol.Layout{
				protocol.Byte("user_type"),
			},
		},
		{
			PacketName: "ExtInfo",
			Opcode:     0x10,
			Direction:  protocol.Outbound,
			Critical:   true,
			Layout: protocol.Layout{
				protocol.String("app_name"),
				protocol.Short("extension_count"),
			},
		},
		{
			PacketName: "ExtEntry",
			Opcode:     0x11,
			Direction:  protocol.Outbound,
			Critical:   true,
			Layout: protocol.Layout{
				protocol.String("ext_name"),
				protocol.Int("version"),
			},
		},
	}

	for _, p := range packets {
		if err := r.RegisterPacket(p, false); err != nil {
			return err
		}
	}
	return nil
}

// handleUpdateBlock validates a block placement or removal and runs it
// through the block.update extension point. The default body echoes the
// resulting block to every player.
func (m *Module) handleUpdateBlock(ctx context.Context, conn protocol.Conn, vals []any) error {
	x, _ := vals[0].(int16)
	y, _ := vals[1].(int16)
	z, _ := vals[2].(int16)
	mode, _ := vals[3].(byte)
	block, _ := vals[4].(byte)

	placed := mode == 0x01
	if _, err := m.srv.Blocks().ByBlockID(block); err != nil {
		// Unknown block ids are recoverable: reject the change for the
		// sender, keep the connection alive.
		return conn.Send(ctx, "SendMessage", byte(0),
			fmt.Sprintf("&cUnknown block type %d", block))
	}

	ev := &server.BlockUpdateEvent{Conn: conn, X: x, Y: y, Z: z, Placed: placed, Block: block}
	_, err := m.hooks.Invoke(ctx, server.HookBlockUpdate, ev,
		func(ctx context.Context, input any) (any, error) {
			ev := input.(*server.BlockUpdateEvent)
			result := ev.Block
			if !ev.Placed {
				result = 0x00
			}
			m.srv.Broadcast(ctx, "SetBlock", ev.X, ev.Y, ev.Z, result)
			return nil, nil
		},
	)
	return err
}

// handlePlayerMessage dispatches chat input: lines starting with "/" run
// as commands, everything else goes through the player.message extension
// point, whose default body broadcasts the message.
func (m *Module) handlePlayerMessage(ctx context.Context, conn protocol.Conn, vals []any) error {
	message, _ := vals[1].(string)
	if message == "" {
		return nil
	}
	if strings.HasPrefix(message, "/") {
		return m.dispatchCommand(ctx, conn, message)
	}

	ev := &server.MessageEvent{Conn: conn, Message: message}
	_, err := m.hooks.Invoke(ctx, server.HookPlayerMessage, ev,
		func(ctx context.Context, input any) (any, error) {
			ev := input.(*server.MessageEvent)
			m.srv.Broadcast(ctx, "SendMessage", byte(0),
				fmt.Sprintf("%s: &f%s", ev.Conn.Player(), ev.Message))
			return nil, nil
		},
	)
	return err
}

// dispatchCommand resolves the activator and runs the command. Unknown
// activators and command failures are reported back to the sender only.
func (m *Module) dispatchCommand(ctx context.Context, conn protocol.Conn, line string) error {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return conn.Send(ctx, "SendMessage", byte(0), "&cEmpty command")
	}
	activator, args := fields[0], fields[1:]

	cmd, err := m.srv.Commands().Resolve(activator)
	if err != nil {
		if registry.IsNotFound(err) {
			return conn.Send(ctx, "SendMessage", byte(0),
				fmt.Sprintf("&cUnknown command: /%s", activator))
		}
		return err
	}
	if err := cmd.Handler(ctx, conn, args); err != nil {
		return conn.Send(ctx, "SendMessage", byte(0),
			fmt.Sprintf("&cCommand failed: %s", err))
	}
	return nil
}
