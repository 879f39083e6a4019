// Package core is the built-in module. It registers the base protocol
// packets, the classic block table, and the default chat commands. Every
// server loads it first; other modules build on the entries it provides
// and may override them.
package core

import (
	"github.com/codingwatching/ProjectObsidian/pkg/hook"
	"github.com/codingwatching/ProjectObsidian/pkg/server"
)

// Module is the built-in core module.
type Module struct {
	hooks *hook.Engine
	srv   *server.Server
}

// New creates the core module.
func New() *Module {
	return &Module{}
}

func (m *Module) Name() string { return "core" }

func (m *Module) Version() string { return "1.0.0" }

// Register contributes the base packets, blocks, and commands. The hook
// engine and server handles are captured for use by packet handlers at
// serve time.
func (m *Module) Register(r *server.Registrar) error {
	m.hooks = r.Hooks()
	m.srv = r.Server()

	if err := m.registerPackets(r); err != nil {
		return err
	}
	if err := m.registerBlocks(r); err != nil {
		return err
	}
	return m.registerCommands(r)
}
