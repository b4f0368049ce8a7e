package autopilot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Transition side-effect operation names.
const (
	opStartQA         = "start_qa"
	opStartValidation = "start_validation"
	opFinalize        = "finalize"
)

// successors is the fixed phase graph. Terminal phases are absent.
var successors = map[Phase]Phase{
	PhaseExpansion:  PhasePlanning,
	PhasePlanning:   PhaseExecution,
	PhaseExecution:  PhaseQA,
	PhaseQA:         PhaseValidation,
	PhaseValidation: PhaseComplete,
}

// compoundOps names the guard operation that must succeed before entering
// the successor of each listed phase.
var compoundOps = map[Phase]string{
	PhaseExecution: opStartQA,
	PhaseQA:        opStartValidation,
}

// NextPhase returns the successor of p, if one exists.
func NextPhase(p Phase) (Phase, bool) {
	next, ok := successors[p]
	return next, ok
}

// OpResult is the outcome of a transition operation.
type OpResult struct {
	OK     bool
	Reason string
}

// TransitionOps runs the side-effect operations attached to phase edges.
// An operation mutates the record in place; a failed operation must leave
// it untouched.
type TransitionOps interface {
	Run(ctx context.Context, name, dir string, rec *Record) OpResult
}

// Engine advances a record through the phase graph, running edge
// operations and persisting successful transitions.
type Engine struct {
	store  Store
	ops    TransitionOps
	logger *zap.Logger
}

// NewEngine creates a transition engine.
func NewEngine(store Store, ops TransitionOps, logger *zap.Logger) (*Engine, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if ops == nil {
		return nil, errors.New("transition ops are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, ops: ops, logger: logger}, nil
}

// Advance moves rec to its successor phase. It returns (false, reason) when
// a compound edge operation refuses the transition; the record's phase is
// unchanged and nothing is persisted. On success the iteration counter
// resets to zero for the new phase and the record is saved.
func (e *Engine) Advance(ctx context.Context, dir string, rec *Record) (bool, string, error) {
	next, ok := NextPhase(rec.Phase)
	if !ok {
		return false, fmt.Sprintf("phase %s has no successor", rec.Phase), nil
	}

	if opName, found := compoundOps[rec.Phase]; found {
		res := e.ops.Run(ctx, opName, dir, rec)
		if !res.OK {
			e.logger.Info("transition refused",
				zap.String("op", opName),
				zap.String("phase", string(rec.Phase)),
				zap.String("reason", res.Reason))
			return false, res.Reason, nil
		}
	}

	if next == PhaseComplete {
		if res := e.ops.Run(ctx, opFinalize, dir, rec); !res.OK {
			return false, res.Reason, nil
		}
	}

	prev := rec.Phase
	rec.Phase = next
	rec.Iteration = 0
	rec.UpdatedAt = time.Now().UTC()
	if err := e.store.Save(dir, rec); err != nil {
		return false, "", fmt.Errorf("persist transition %s->%s: %w", prev, next, err)
	}

	e.logger.Info("phase advanced",
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
		zap.String("run_id", rec.RunID))
	return true, "", nil
}
