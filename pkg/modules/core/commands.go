package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/codingwatching/ProjectObsidian/pkg/game"
	"github.com/codingwatching/ProjectObsidian/pkg/protocol"
	"github.com/codingwatching/ProjectObsidian/pkg/server"
)

func (m *Module) registerCommands(r *server.Registrar) error {
	commands := []*game.Command{
		{
			CommandName: "help",
			Description: "List available commands",
			Activators:  []string{"help", "commands"},
			Handler:     m.cmdHelp,
		},
		{
			CommandName: "say",
			Description: "Broadcast a server message",
			Activators:  []string{"say", "broadcast"},
			OpOnly:      true,
			Handler:     m.cmdSay,
		},
	}
	for _, c := range commands {
		if err := r.RegisterCommand(c, false); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) cmdHelp(ctx context.Context, conn protocol.Conn, args []string) error {
	if err := conn.Send(ctx, "SendMessage", byte(0), "&eAvailable commands:"); err != nil {
		return err
	}
	for _, c := range m.srv.Commands().All() {
		line := fmt.Sprintf("&e/%s &f- %s", c.Activators[0], c.Description)
		if err := conn.Send(ctx, "SendMessage", byte(0), line); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) cmdSay(ctx context.Context, conn protocol.Conn, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: /say <message>")
	}
	m.srv.Broadcast(ctx, "SendMessage", byte(0),
		fmt.Sprintf("&d[Server] %s", strings.Join(args, " ")))
	return nil
}
