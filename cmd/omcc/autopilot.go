package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepredk/oh-my-claudecode/internal/autopilot"
	"github.com/deepredk/oh-my-claudecode/internal/monitor"
)

var (
	autopilotDir        string
	startMaxIterations  int
	watchRefreshSeconds int
)

var autopilotCmd = &cobra.Command{
	Use:   "autopilot",
	Short: "Manage autopilot runs",
}

var startCmd = &cobra.Command{
	Use:   "start <task description>",
	Short: "Start an autopilot run in the working directory",
	Long: `Start an autopilot run. The task description is what the run will drive
the session to complete, phase by phase. One run per directory; cancel the
old run before starting another.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStart,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the run state for the working directory",
	RunE:  runStatus,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the run for the working directory",
	RunE:  runCancel,
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a failed run in the phase it failed from",
	RunE:  runResume,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard for the run in the working directory",
	RunE:  runWatch,
}

func init() {
	autopilotCmd.PersistentFlags().StringVarP(&autopilotDir, "dir", "d", "", "working directory (default: current directory)")
	startCmd.Flags().IntVar(&startMaxIterations, "max-iterations", 0, "per-phase iteration ceiling (0 uses the configured default)")
	watchCmd.Flags().IntVar(&watchRefreshSeconds, "refresh", 2, "refresh interval in seconds")
	autopilotCmd.AddCommand(startCmd)
	autopilotCmd.AddCommand(statusCmd)
	autopilotCmd.AddCommand(cancelCmd)
	autopilotCmd.AddCommand(resumeCmd)
	autopilotCmd.AddCommand(watchCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	dir, err := workDir(autopilotDir)
	if err != nil {
		return err
	}

	rec, err := a.manager.Start(dir, strings.Join(args, " "), startMaxIterations)
	if err != nil {
		return err
	}
	fmt.Printf("Autopilot run %s started\n", rec.RunID)
	fmt.Printf("  phase:          %s\n", rec.Phase)
	fmt.Printf("  max iterations: %d per phase\n", rec.MaxIterations)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	dir, err := workDir(autopilotDir)
	if err != nil {
		return err
	}

	rec, err := a.manager.Status(dir)
	if err != nil {
		return err
	}
	printRecord(rec)
	return nil
}

func runCancel(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	dir, err := workDir(autopilotDir)
	if err != nil {
		return err
	}

	rec, err := a.manager.Cancel(dir)
	if err != nil {
		return err
	}
	fmt.Printf("Autopilot run %s cancelled (was in %s phase)\n", rec.RunID, rec.Phase)
	if a.cfg.Autopilot.ArchiveOnCancel {
		fmt.Printf("Record archived at %s\n", a.store.ArchivePath(dir))
	}
	return nil
}

func runResume(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	dir, err := workDir(autopilotDir)
	if err != nil {
		return err
	}

	rec, err := a.manager.Resume(dir)
	if err != nil {
		return err
	}
	fmt.Printf("Autopilot run %s resumed in %s phase\n", rec.RunID, rec.Phase)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	dir, err := workDir(autopilotDir)
	if err != nil {
		return err
	}
	return monitor.Watch(dir, a.store, time.Duration(watchRefreshSeconds)*time.Second)
}

func printRecord(rec *autopilot.Record) {
	fmt.Printf("Run %s\n", rec.RunID)
	fmt.Printf("  active:         %t\n", rec.Active)
	fmt.Printf("  phase:          %s\n", rec.Phase)
	fmt.Printf("  iteration:      %d/%d\n", rec.Iteration, rec.MaxIterations)
	if rec.SessionID != "" {
		fmt.Printf("  session:        %s\n", rec.SessionID)
	}
	if rec.Execution.TasksTotal > 0 {
		fmt.Printf("  tasks:          %d/%d\n", rec.Execution.TasksCompleted, rec.Execution.TasksTotal)
	}
	if rec.FailedFrom != "" {
		fmt.Printf("  failed from:    %s\n", rec.FailedFrom)
	}
	fmt.Printf("  started:        %s\n", rec.StartedAt.Format(time.RFC3339))
	if rec.CompletedAt != nil {
		fmt.Printf("  completed:      %s\n", rec.CompletedAt.Format(time.RFC3339))
	}
	fmt.Printf("  task: %s\n", rec.OriginalIdea)
}
