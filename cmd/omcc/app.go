package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/deepredk/oh-my-claudecode/internal/autopilot"
	appconfig "github.com/deepredk/oh-my-claudecode/internal/config"
	"github.com/deepredk/oh-my-claudecode/internal/prompt"
	"github.com/deepredk/oh-my-claudecode/internal/transcript"
)

// app bundles the wired components behind every command.
type app struct {
	cfg        *appconfig.Config
	logger     *zap.Logger
	store      *autopilot.FileStore
	manager    *autopilot.Manager
	controller *autopilot.Controller
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	store, err := autopilot.NewFileStore(cfg.Autopilot.StateDirName, logger)
	if err != nil {
		return nil, err
	}
	manager, err := autopilot.NewManager(store, cfg.Autopilot.MaxIterations, cfg.Autopilot.ArchiveOnCancel, logger)
	if err != nil {
		return nil, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	detector, err := autopilot.NewDetector(transcript.NewLocator(home, cfg.Transcripts.Roots), logger)
	if err != nil {
		return nil, err
	}
	engine, err := autopilot.NewEngine(store, autopilot.NewDefaultOps(logger), logger)
	if err != nil {
		return nil, err
	}
	controller, err := autopilot.NewController(store, detector, engine, prompt.NewComposer(), logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		manager:    manager,
		controller: controller,
	}, nil
}

// workDir resolves the target directory for a command: an explicit flag
// value wins, otherwise the process working directory.
func workDir(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return dir, nil
}
