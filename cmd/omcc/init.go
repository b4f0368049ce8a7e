package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	appconfig "github.com/deepredk/oh-my-claudecode/internal/config"
)

var forceInit bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing config file")
}

// initCmd scaffolds the user config.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config directory and a starter config file",
	Long: `Creates ~/.config/omcc/ and writes a starter config.yaml with the
default settings spelled out. An existing config file is left alone unless
--force is given.

Examples:
  # Scaffold the config
  omcc init

  # Replace an existing config with the defaults
  omcc init --force`,
	RunE: runInit,
}

const starterConfig = `autopilot:
  max_iterations: 50
  state_dir_name: .omcc
  archive_on_cancel: true

logging:
  level: info
  format: console

observability:
  enabled: false
  endpoint: localhost:4317
  protocol: grpc
  insecure: true
  service_name: omcc
`

func runInit(cmd *cobra.Command, args []string) error {
	if err := appconfig.EnsureConfigDir(); err != nil {
		return err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	path := filepath.Join(home, ".config", "omcc", "config.yaml")

	if _, err := os.Stat(path); err == nil && !forceInit {
		cmd.Printf("Config already exists at: %s\n", path)
		cmd.Println("Use --force to overwrite.")
		return nil
	}

	if err := os.WriteFile(path, []byte(starterConfig), 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	cmd.Printf("Wrote config to: %s\n", path)
	return nil
}
