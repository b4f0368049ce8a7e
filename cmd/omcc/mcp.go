package main

import (
	"github.com/spf13/cobra"

	"github.com/deepredk/oh-my-claudecode/internal/logging"
	mcpserver "github.com/deepredk/oh-my-claudecode/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve autopilot tools over MCP on stdio",
	Long: `Runs a Model Context Protocol server on stdio exposing the
autopilot_start, autopilot_status, and autopilot_cancel tools, so a session
can manage its own runs.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer logging.Sync(a.logger)

	srv, err := mcpserver.NewServer(mcpserver.ServerConfig{
		Name:    "omcc",
		Version: version,
		Logger:  a.logger,
	}, a.manager)
	if err != nil {
		return err
	}
	return srv.Run(cmd.Context())
}
