package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deepredk/oh-my-claudecode/internal/autopilot"
	"github.com/deepredk/oh-my-claudecode/internal/hook"
	"github.com/deepredk/oh-my-claudecode/internal/logging"
	"github.com/deepredk/oh-my-claudecode/internal/telemetry"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Host hook entry points",
}

var hookStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Handle a stop event from stdin and print the decision",
	Long: `Reads the host's stop-event JSON from stdin, evaluates it against the
autopilot run for the event's working directory, and prints the decision
JSON on stdout. With no run for the directory the decision is an empty
object, which permits the stop.

Wire it as a Stop hook:

  {"hooks": {"Stop": [{"hooks": [{"type": "command", "command": "omcc hook stop"}]}]}}`,
	RunE: runHookStop,
}

func init() {
	hookCmd.AddCommand(hookStopCmd)
}

func runHookStop(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer logging.Sync(a.logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	tel, err := telemetry.New(ctx, telemetry.FromObservability(a.cfg.Observability))
	if err != nil {
		// Telemetry never blocks enforcement.
		a.logger.Warn("telemetry init failed", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := tel.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("telemetry shutdown failed", zap.Error(err))
			}
		}()
	}

	payload, err := hook.ReadPayload(os.Stdin)
	if err != nil {
		// A malformed payload must not wedge the host: permit the stop.
		a.logger.Warn("stop payload unreadable, permitting stop", zap.Error(err))
		return hook.Allow().Write(os.Stdout)
	}

	res, err := a.controller.Check(ctx, autopilot.CheckRequest{
		SessionID:      payload.SessionID,
		Dir:            payload.CWD,
		TranscriptPath: payload.TranscriptPath,
	})
	if err != nil {
		a.logger.Error("enforcement check failed, permitting stop", zap.Error(err))
		return hook.Allow().Write(os.Stdout)
	}

	decision := hook.FromResult(res)
	if res != nil {
		a.logger.Info("stop event decided",
			zap.Bool("block", res.Block),
			zap.String("phase", string(res.Phase)),
			zap.Int("iteration", res.Metadata.Iteration))
	}
	return decision.Write(os.Stdout)
}
