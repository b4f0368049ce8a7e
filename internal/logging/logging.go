// Package logging provides structured logging for omcc built on Zap.
//
// The enforcer is invoked from a Claude Code hook where stdout carries the
// hook decision payload, so logs always go to stderr.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string

	// Format selects the encoder: "json" or "console".
	Format string
}

// NewDefaultConfig returns config with sensible defaults for CLI use.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "console",
	}
}

// NewLogger creates a logger from config. Output goes to stderr.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "console":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	default:
		return nil, fmt.Errorf("format must be 'json' or 'console', got %q", cfg.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// Sync flushes the logger, ignoring the harmless EINVAL/ENOTTY errors that
// syncing stderr produces on Linux.
func Sync(logger *zap.Logger) {
	_ = logger.Sync()
}
