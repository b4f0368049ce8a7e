// Package main implements the omcc CLI: the stop hook, autopilot run
// lifecycle commands, the MCP server, and the watch dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appconfig "github.com/deepredk/oh-my-claudecode/internal/config"
	"github.com/deepredk/oh-my-claudecode/internal/logging"
)

var (
	configPath string
	logLevel   string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "omcc",
	Short: "Autonomous multi-phase task enforcement for coding sessions",
	Long: `omcc drives a coding session through expansion, planning, execution,
qa, and validation phases. Its stop hook blocks premature stops and feeds
phase instructions back until every phase is genuinely complete.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/omcc/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(autopilotCmd)
	rootCmd.AddCommand(mcpCmd)
}

// loadConfig loads the effective configuration, applying the --log-level
// override.
func loadConfig() (*appconfig.Config, error) {
	cfg, err := appconfig.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// newLogger builds the process logger. All log output goes to stderr;
// stdout is reserved for protocol payloads.
func newLogger(cfg *appconfig.Config) (*zap.Logger, error) {
	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}
