package server

import (
	"fmt"

	"github.com/codingwatching/ProjectObsidian/pkg/game"
	"github.com/codingwatching/ProjectObsidian/pkg/hook"
	"github.com/codingwatching/ProjectObsidian/pkg/protocol"
)

// Extension point targets invoked by the server and the core packet
// handlers. Modules attach hooks to these names.
const (
	// HookPlayerJoin fires after a successful handshake. Input is a
	// *JoinEvent; the default body announces the player.
	HookPlayerJoin = "player.join"

	// HookPlayerMessage fires for each chat message. Input is a
	// *MessageEvent; the default body broadcasts the message.
	HookPlayerMessage = "player.message"

	// HookBlockUpdate fires for each block placement or removal. Input
	// is a *BlockUpdateEvent; the default body echoes the change back.
	HookBlockUpdate = "block.update"

	// HookConnectionClose fires when a connection tears down. Input is
	// a *CloseEvent; the default body is a no-op.
	HookConnectionClose = "connection.close"
)

// JoinEvent is the input to the player.join extension point.
type JoinEvent struct {
	Conn protocol.Conn
}

// MessageEvent is the input to the player.message extension point.
type MessageEvent struct {
	Conn    protocol.Conn
	Message string
}

// BlockUpdateEvent is the input to the block.update extension point.
type BlockUpdateEvent struct {
	Conn    protocol.Conn
	X, Y, Z int16
	Placed  bool
	Block   byte
}

// CloseEvent is the input to the connection.close extension point.
type CloseEvent struct {
	Player string
	Cause  string
}

// Module contributes blocks, packets, commands, and hooks to a server.
// Register is called once per module, before the registries are sealed.
type Module interface {
	Name() string
	Version() string
	Register(r *Registrar) error
}

// Extension is a Module tied to a negotiated protocol extension. The
// capability is advertised to clients during the handshake. CPEOnly
// modules are skipped entirely when extension negotiation is disabled.
type Extension interface {
	Module
	Extension() protocol.Capability
	CPEOnly() bool
}

// Registrar is the registration facade handed to each module. Every
// entry registered through it is attributed to the owning module, so
// conflict errors name both sides.
type Registrar struct {
	srv    *Server
	module string
}

// Module returns the name of the module this registrar belongs to.
func (r *Registrar) Module() string { return r.module }

// RegisterBlock adds a block type to the block registry.
func (r *Registrar) RegisterBlock(b *game.Block, override bool) error {
	return r.srv.blocks.Register(b, r.module, override)
}

// RegisterCommand adds a chat command to the command registry.
func (r *Registrar) RegisterCommand(c *game.Command, override bool) error {
	return r.srv.commands.Register(c, r.module, override)
}

// RegisterPacket adds a packet definition to the directional packet
// registry.
func (r *Registrar) RegisterPacket(p *protocol.Packet, override bool) error {
	return r.srv.packets.Register(p, r.module, override)
}

// Before attaches a hook that runs before the target's default body.
func (r *Registrar) Before(target string, fn hook.BeforeFunc) error {
	return r.srv.hooks.RegisterBefore(target, r.module, fn)
}

// After attaches a hook that runs after the target's body and may
// transform its result.
func (r *Registrar) After(target string, fn hook.AfterFunc) error {
	return r.srv.hooks.RegisterAfter(target, r.module, fn)
}

// Replace substitutes the target's default body. At most one module may
// replace a given target.
func (r *Registrar) Replace(target string, fn hook.BodyFunc) error {
	return r.srv.hooks.RegisterReplace(target, r.module, fn)
}

// Hooks exposes the hook engine so packet handlers can invoke extension
// points at serve time.
func (r *Registrar) Hooks() *hook.Engine { return r.srv.hooks }

// Server exposes the server for handlers that broadcast or resolve
// commands at serve time.
func (r *Registrar) Server() *Server { return r.srv }

// Load registers the given modules in order. Extension-only modules are
// skipped when negotiation is disabled; other extension modules still
// load but their capability is not advertised.
func (s *Server) Load(modules ...Module) error {
	if s.sealed.Load() {
		return ErrAlreadySealed
	}
	for _, m := range modules {
		if ext, ok := m.(Extension); ok {
			if s.config.DisableCPE {
				if ext.CPEOnly() {
					s.logger.Info("skipping extension module, negotiation disabled",
						"module", m.Name(), "extension", ext.Extension())
					continue
				}
			} else {
				s.extensions = append(s.extensions, ext.Extension())
			}
		}
		if err := m.Register(&Registrar{srv: s, module: m.Name()}); err != nil {
			return fmt.Errorf("server: loading module %s: %w", m.Name(), err)
		}
		s.modules = append(s.modules, m.Name()+" "+m.Version())
		s.logger.Info("module loaded", "module", m.Name(), "version", m.Version())
	}
	return nil
}
