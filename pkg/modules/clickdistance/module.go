// Package clickdistance lets the server change how far away players can
// reach when placing or breaking blocks. It is gated on the
// ClickDistance extension: clients that did not negotiate it never
// receive the packet and keep the client default.
package clickdistance

import (
	"context"
	"fmt"
	"strconv"

	"github.com/codingwatching/ProjectObsidian/pkg/game"
	"github.com/codingwatching/ProjectObsidian/pkg/protocol"
	"github.com/codingwatching/ProjectObsidian/pkg/server"
)

// capability is the extension negotiated with clients.
var capability = protocol.Capability{Name: "ClickDistance", Version: 1}

// defaultDistance is the client default reach in 1/32 block units.
const defaultDistance int16 = 160

// Config configures the click distance module.
type Config struct {
	// Distance is the reach sent to joining players, in 1/32 block
	// units. Default: 160 (5 blocks, the client default)
	Distance int16
}

// Module implements the ClickDistance extension.
type Module struct {
	distance int16
	srv      *server.Server
}

// New creates the module. A nil config keeps the client default reach.
func New(config *Config) *Module {
	distance := defaultDistance
	if config != nil && config.Distance > 0 {
		distance = config.Distance
	}
	return &Module{distance: distance}
}

func (m *Module) Name() string { return "clickdistance" }

func (m *Module) Version() string { return "1.0.0" }

// Extension returns the negotiated capability.
func (m *Module) Extension() protocol.Capability { return capability }

// CPEOnly reports that the module is useless without negotiation: it
// contributes nothing but gated behavior.
func (m *Module) CPEOnly() bool { return true }

// Register contributes the SetClickDistance packet, a command to change
// the reach at runtime, and a join hook that applies the configured
// distance to supporting clients.
func (m *Module) Register(r *server.Registrar) error {
	m.srv = r.Server()

	err := r.RegisterPacket(&protocol.Packet{
		PacketName: "SetClickDistance",
		Opcode:     0x12,
		Direction:  protocol.Outbound,
		Extension:  &capability,
		Layout: protocol.Layout{
			protocol.Short("distance"),
		},
	}, false)
	if err != nil {
		return err
	}

	err = r.RegisterCommand(&game.Command{
		CommandName: "clickdistance",
		Description: "Set the block reach distance",
		Activators:  []string{"clickdistance", "reach"},
		OpOnly:      true,
		Handler:     m.cmdClickDistance,
	}, false)
	if err != nil {
		return err
	}

	// Apply the configured reach once the player is in. Send skips the
	// packet for clients that did not negotiate the extension.
	return r.After(server.HookPlayerJoin, func(ctx context.Context, input, result any) (any, error) {
		ev := input.(*server.JoinEvent)
		if err := ev.Conn.Send(ctx, "SetClickDistance", m.distance); err != nil {
			return result, err
		}
		return result, nil
	})
}

// cmdClickDistance updates the reach for the issuing player.
func (m *Module) cmdClickDistance(ctx context.Context, conn protocol.Conn, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /clickdistance <units>")
	}
	units, err := strconv.ParseInt(args[0], 10, 16)
	if err != nil || units < 0 {
		return fmt.Errorf("invalid distance %q", args[0])
	}
	if !conn.Supports(capability.Name, capability.Version) {
		return conn.Send(ctx, "SendMessage", byte(0),
			"&cYour client does not support ClickDistance")
	}
	if err := conn.Send(ctx, "SetClickDistance", int16(units)); err != nil {
		return err
	}
	return conn.Send(ctx, "SendMessage", byte(0),
		fmt.Sprintf("&eClick distance set to %d", units))
}
