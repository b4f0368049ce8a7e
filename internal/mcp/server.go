// Package mcp exposes autopilot run lifecycle over the Model Context
// Protocol so sessions can start, inspect, and cancel runs as tools.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/deepredk/oh-my-claudecode/internal/autopilot"
)

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name    string
	Version string
	Logger  *zap.Logger
}

// Server wraps an MCP server with the autopilot tool set.
type Server struct {
	mcp     *mcp.Server
	manager *autopilot.Manager
	logger  *zap.Logger
}

// NewServer creates an MCP server over the run manager.
func NewServer(cfg ServerConfig, manager *autopilot.Manager) (*Server, error) {
	if manager == nil {
		return nil, fmt.Errorf("manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = "omcc"
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:     mcpServer,
		manager: manager,
		logger:  cfg.Logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves on the stdio transport until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	transport := &mcp.StdioTransport{}
	if err := s.mcp.Run(ctx, transport); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}
