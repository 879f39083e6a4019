package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "obsidian",
		Short: "A modular multiplayer block game server",
		Long: `ProjectObsidian is a modular server for the classic block game
protocol.

Everything the server does is contributed by modules: packets,
blocks, chat commands, and extension hooks. The built-in core
module provides the base protocol; extension modules negotiate
additional capabilities with supporting clients.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
