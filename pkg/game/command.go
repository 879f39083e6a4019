package game

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codingwatching/ProjectObsidian/pkg/protocol"
	"github.com/codingwatching/ProjectObsidian/pkg/registry"
)

// CommandFunc executes a chat command on behalf of the sending connection.
type CommandFunc func(ctx context.Context, conn protocol.Conn, args []string) error

// Command is one chat command. Commands have no numeric id; the name is the
// only registry key. Activators are the aliases a player may type.
type Command struct {
	CommandName string
	Description string
	Activators  []string
	OpOnly      bool
	Handler     CommandFunc
}

// Name returns the registry primary key.
func (c *Command) Name() string {
	return c.CommandName
}

// NumericID returns no secondary key; commands are name-keyed only.
func (c *Command) NumericID() (int32, bool) {
	return 0, false
}

// Commands is the command catalog plus the activator index built at seal.
type Commands struct {
	*registry.Registry[*Command]
	activators map[string]*Command
	logger     *slog.Logger
}

// NewCommands creates an empty command catalog.
func NewCommands(logger *slog.Logger) *Commands {
	if logger == nil {
		logger = slog.Default()
	}
	return &Commands{
		Registry: registry.New[*Command]("command", logger),
		logger:   logger,
	}
}

// Seal freezes the catalog and builds the activator index. Two commands
// claiming the same activator is a startup-time conflict naming both.
func (c *Commands) Seal() error {
	c.Registry.Seal()
	c.activators = make(map[string]*Command)
	for _, cmd := range c.All() {
		for _, act := range cmd.Activators {
			folded := registry.Fold(act)
			if prev, taken := c.activators[folded]; taken {
				return fmt.Errorf("game: activator %q claimed by both command %q and command %q",
					act, prev.CommandName, cmd.CommandName)
			}
			c.activators[folded] = cmd
		}
	}
	c.logger.Debug("command activators indexed", "activators", len(c.activators))
	return nil
}

// Resolve finds the command bound to an activator the player typed. An
// unknown activator is a recoverable NotFound surfaced to the caller, not a
// connection error.
func (c *Commands) Resolve(activator string) (*Command, error) {
	cmd, ok := c.activators[registry.Fold(activator)]
	if !ok {
		return nil, &registry.NotFoundError{Kind: "command", Key: activator}
	}
	return cmd, nil
}
