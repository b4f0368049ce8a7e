package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/deepredk/oh-my-claudecode/internal/autopilot"
)

type startInput struct {
	Directory     string `json:"directory" jsonschema:"required,Working directory the run owns"`
	Task          string `json:"task" jsonschema:"required,Task description the run will complete"`
	MaxIterations int    `json:"max_iterations,omitempty" jsonschema:"Per-phase iteration ceiling (0 uses the configured default)"`
}

type startOutput struct {
	RunID         string `json:"run_id" jsonschema:"Identifier of the new run"`
	Phase         string `json:"phase" jsonschema:"Starting phase"`
	MaxIterations int    `json:"max_iterations" jsonschema:"Effective iteration ceiling"`
}

type statusInput struct {
	Directory string `json:"directory" jsonschema:"required,Working directory to inspect"`
}

type statusOutput struct {
	RunID          string `json:"run_id" jsonschema:"Run identifier"`
	Active         bool   `json:"active" jsonschema:"Whether enforcement is live"`
	Phase          string `json:"phase" jsonschema:"Current phase"`
	Iteration      int    `json:"iteration" jsonschema:"Iterations spent in the current phase"`
	MaxIterations  int    `json:"max_iterations" jsonschema:"Per-phase iteration ceiling"`
	TasksCompleted int    `json:"tasks_completed" jsonschema:"Execution tasks finished"`
	TasksTotal     int    `json:"tasks_total" jsonschema:"Execution tasks planned"`
	StartedAt      string `json:"started_at" jsonschema:"Run start time, RFC 3339"`
}

type cancelInput struct {
	Directory string `json:"directory" jsonschema:"required,Working directory whose run to cancel"`
}

type cancelOutput struct {
	RunID string `json:"run_id" jsonschema:"Identifier of the cancelled run"`
	Phase string `json:"phase" jsonschema:"Phase the run was in when cancelled"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "autopilot_start",
		Description: "Start an autopilot run for a working directory",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args startInput) (*mcp.CallToolResult, startOutput, error) {
		rec, err := s.manager.Start(args.Directory, args.Task, args.MaxIterations)
		if err != nil {
			if errors.Is(err, autopilot.ErrRunExists) {
				return nil, startOutput{}, fmt.Errorf("directory already has a run, cancel it first: %w", err)
			}
			return nil, startOutput{}, err
		}

		s.logger.Info("run started via tool",
			zap.String("run_id", rec.RunID),
			zap.String("directory", args.Directory))

		out := startOutput{
			RunID:         rec.RunID,
			Phase:         string(rec.Phase),
			MaxIterations: rec.MaxIterations,
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Autopilot run %s started in %s phase", rec.RunID, rec.Phase)},
			},
		}, out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "autopilot_status",
		Description: "Report the state of the autopilot run for a working directory",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args statusInput) (*mcp.CallToolResult, statusOutput, error) {
		rec, err := s.manager.Status(args.Directory)
		if err != nil {
			return nil, statusOutput{}, err
		}

		out := statusOutput{
			RunID:          rec.RunID,
			Active:         rec.Active,
			Phase:          string(rec.Phase),
			Iteration:      rec.Iteration,
			MaxIterations:  rec.MaxIterations,
			TasksCompleted: rec.Execution.TasksCompleted,
			TasksTotal:     rec.Execution.TasksTotal,
			StartedAt:      rec.StartedAt.Format(time.RFC3339),
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Run %s: phase=%s iteration=%d/%d",
					rec.RunID, rec.Phase, rec.Iteration, rec.MaxIterations)},
			},
		}, out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "autopilot_cancel",
		Description: "Cancel the autopilot run for a working directory",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args cancelInput) (*mcp.CallToolResult, cancelOutput, error) {
		rec, err := s.manager.Cancel(args.Directory)
		if err != nil {
			return nil, cancelOutput{}, err
		}

		s.logger.Info("run cancelled via tool",
			zap.String("run_id", rec.RunID),
			zap.String("directory", args.Directory))

		out := cancelOutput{RunID: rec.RunID, Phase: string(rec.Phase)}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Autopilot run %s cancelled", rec.RunID)},
			},
		}, out, nil
	})
}
