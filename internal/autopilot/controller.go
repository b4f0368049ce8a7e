package autopilot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/deepredk/oh-my-claudecode/internal/autopilot"

// CheckRequest describes one stop event from the host session.
type CheckRequest struct {
	// SessionID identifies the host session, empty when the host did not
	// provide one.
	SessionID string

	// Dir is the working directory whose record is consulted.
	Dir string

	// TranscriptPath is the host-reported transcript location, consulted
	// first when non-empty.
	TranscriptPath string
}

// Controller turns stop events into enforcement decisions.
type Controller struct {
	store    Store
	detector *Detector
	engine   *Engine
	prompts  PromptSource
	logger   *zap.Logger

	tracer        trace.Tracer
	checksTotal   metric.Int64Counter
	blocksTotal   metric.Int64Counter
	advancesTotal metric.Int64Counter
}

// NewController creates an enforcement controller.
func NewController(store Store, detector *Detector, engine *Engine, prompts PromptSource, logger *zap.Logger) (*Controller, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if detector == nil {
		return nil, errors.New("detector is required")
	}
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if prompts == nil {
		return nil, errors.New("prompt source is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	meter := otel.Meter(instrumentationName)
	checksTotal, err := meter.Int64Counter("autopilot.checks.total",
		metric.WithDescription("Stop events evaluated"))
	if err != nil {
		return nil, fmt.Errorf("create checks counter: %w", err)
	}
	blocksTotal, err := meter.Int64Counter("autopilot.blocks.total",
		metric.WithDescription("Stop events blocked with a continuation"))
	if err != nil {
		return nil, fmt.Errorf("create blocks counter: %w", err)
	}
	advancesTotal, err := meter.Int64Counter("autopilot.advances.total",
		metric.WithDescription("Phase transitions taken"))
	if err != nil {
		return nil, fmt.Errorf("create advances counter: %w", err)
	}

	return &Controller{
		store:         store,
		detector:      detector,
		engine:        engine,
		prompts:       prompts,
		logger:        logger,
		tracer:        otel.Tracer(instrumentationName),
		checksTotal:   checksTotal,
		blocksTotal:   blocksTotal,
		advancesTotal: advancesTotal,
	}, nil
}

// Check evaluates one stop event. A nil result with a nil error means the
// event is none of this run's business: no record, an inactive record, or a
// foreign session. The decision order is fixed; the first matching rule
// wins.
func (c *Controller) Check(ctx context.Context, req CheckRequest) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "autopilot.check",
		trace.WithAttributes(attribute.String("dir", req.Dir)))
	defer span.End()

	c.checksTotal.Add(ctx, 1)

	rec, err := c.store.Load(req.Dir)
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	if rec == nil || !rec.Active {
		return nil, nil
	}

	// A record bound to another session ignores this event entirely; the
	// record is not touched.
	if rec.SessionID != "" && req.SessionID != "" && rec.SessionID != req.SessionID {
		c.logger.Debug("stop event from foreign session ignored",
			zap.String("record_session", rec.SessionID),
			zap.String("event_session", req.SessionID))
		return nil, nil
	}

	// First check with a session id binds the record to it. The field is
	// persisted with whichever branch below saves.
	if rec.SessionID == "" && req.SessionID != "" {
		rec.SessionID = req.SessionID
	}

	span.SetAttributes(
		attribute.String("phase", string(rec.Phase)),
		attribute.Int("iteration", rec.Iteration),
	)

	// Terminal phases never re-enter the ceiling branch: a failed record
	// must keep its FailedFrom intact for resume.
	if !rec.Phase.Terminal() && rec.Iteration >= rec.MaxIterations {
		return c.forceFailed(ctx, req.Dir, rec)
	}

	if rec.Phase == PhaseComplete {
		rec.UpdatedAt = time.Now().UTC()
		if err := c.store.Save(req.Dir, rec); err != nil {
			return nil, fmt.Errorf("persist record: %w", err)
		}
		return &Result{
			Block:    false,
			Phase:    PhaseComplete,
			Message:  "Autopilot complete: all phases finished.",
			Metadata: c.metadata(rec),
		}, nil
	}

	if rec.Phase == PhaseFailed {
		rec.UpdatedAt = time.Now().UTC()
		if err := c.store.Save(req.Dir, rec); err != nil {
			return nil, fmt.Errorf("persist record: %w", err)
		}
		return &Result{
			Block:    false,
			Phase:    PhaseFailed,
			Message:  "Autopilot failed: run halted before completion.",
			Metadata: c.metadata(rec),
		}, nil
	}

	// Signals are only consulted for events that identify their session;
	// an anonymous event can never advance the phase.
	if sig, ok := ExpectedSignal(rec.Phase); ok && req.SessionID != "" {
		if c.detector.Detect(req.SessionID, req.Dir, req.TranscriptPath, sig) {
			advanced, reason, err := c.engine.Advance(ctx, req.Dir, rec)
			if err != nil {
				return nil, err
			}
			if advanced {
				c.advancesTotal.Add(ctx, 1)
				// Re-run the whole decision against the freshly persisted
				// record. The phase strictly advances so this terminates.
				return c.Check(ctx, req)
			}
			c.logger.Info("signal present but transition refused",
				zap.String("phase", string(rec.Phase)),
				zap.String("reason", reason))
			// Fall through to the continuation: the session is told to
			// keep working in the current phase.
		}
	}

	rec.Iteration++
	rec.UpdatedAt = time.Now().UTC()
	if err := c.store.Save(req.Dir, rec); err != nil {
		return nil, fmt.Errorf("persist record: %w", err)
	}

	c.blocksTotal.Add(ctx, 1)
	return &Result{
		Block:    true,
		Phase:    rec.Phase,
		Message:  c.continuation(rec),
		Metadata: c.metadata(rec),
	}, nil
}

// forceFailed handles the safety ceiling: the run phase becomes failed, the
// departed phase is recorded for resume, and the stop is permitted.
func (c *Controller) forceFailed(ctx context.Context, dir string, rec *Record) (*Result, error) {
	rec.FailedFrom = rec.Phase
	rec.Phase = PhaseFailed
	rec.UpdatedAt = time.Now().UTC()
	if err := c.store.Save(dir, rec); err != nil {
		return nil, fmt.Errorf("persist record: %w", err)
	}

	c.logger.Warn("iteration ceiling reached, run failed",
		zap.String("run_id", rec.RunID),
		zap.String("failed_from", string(rec.FailedFrom)),
		zap.Int("max_iterations", rec.MaxIterations))

	return &Result{
		Block: false,
		Phase: PhaseFailed,
		Message: fmt.Sprintf(
			"Autopilot halted: Max iterations (%d) reached during %s phase. Use resume to continue after review.",
			rec.MaxIterations, rec.FailedFrom),
		Metadata: c.metadata(rec),
	}, nil
}

func (c *Controller) continuation(rec *Record) string {
	prompt := c.prompts.PhasePrompt(rec.Phase, PromptVars{
		Idea:           rec.OriginalIdea,
		SpecPath:       rec.Expansion.SpecPath,
		PlanPath:       rec.Planning.PlanPath,
		TasksCompleted: rec.Execution.TasksCompleted,
		TasksTotal:     rec.Execution.TasksTotal,
		Iteration:      rec.Iteration,
		MaxIterations:  rec.MaxIterations,
	})
	return fmt.Sprintf("[autopilot] phase=%s iteration=%d/%d\n\n%s",
		rec.Phase, rec.Iteration, rec.MaxIterations, prompt)
}

func (c *Controller) metadata(rec *Record) Metadata {
	return Metadata{
		Iteration:      rec.Iteration,
		MaxIterations:  rec.MaxIterations,
		TasksCompleted: rec.Execution.TasksCompleted,
		TasksTotal:     rec.Execution.TasksTotal,
	}
}
