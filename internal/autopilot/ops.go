package autopilot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultOps implements the standard edge operations: qa entry is guarded
// by task completion, validation entry requires qa to have started, and
// finalize stamps the completion time.
type DefaultOps struct {
	logger *zap.Logger
}

// NewDefaultOps creates the standard transition operation set.
func NewDefaultOps(logger *zap.Logger) *DefaultOps {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultOps{logger: logger}
}

// Run dispatches a named edge operation.
func (o *DefaultOps) Run(ctx context.Context, name, dir string, rec *Record) OpResult {
	switch name {
	case opStartQA:
		return o.startQA(rec)
	case opStartValidation:
		return o.startValidation(rec)
	case opFinalize:
		return o.finalize(rec)
	default:
		return OpResult{OK: false, Reason: fmt.Sprintf("unknown transition operation %q", name)}
	}
}

func (o *DefaultOps) startQA(rec *Record) OpResult {
	ex := rec.Execution
	if ex.TasksTotal > 0 && ex.TasksCompleted < ex.TasksTotal {
		return OpResult{
			OK:     false,
			Reason: fmt.Sprintf("%d of %d tasks incomplete", ex.TasksTotal-ex.TasksCompleted, ex.TasksTotal),
		}
	}
	rec.QA.Started = true
	return OpResult{OK: true}
}

func (o *DefaultOps) startValidation(rec *Record) OpResult {
	if !rec.QA.Started {
		return OpResult{OK: false, Reason: "qa phase never started"}
	}
	rec.Validation.Started = true
	return OpResult{OK: true}
}

// finalize marks the run finished. The record stays active so later stop
// events still see it and report success instead of silently permitting.
func (o *DefaultOps) finalize(rec *Record) OpResult {
	now := time.Now().UTC()
	rec.CompletedAt = &now
	return OpResult{OK: true}
}
