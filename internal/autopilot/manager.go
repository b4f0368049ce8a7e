package autopilot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrRunExists is returned by Start when an active run already owns the
	// working directory.
	ErrRunExists = errors.New("autopilot run already exists")

	// ErrNoRun is returned when an operation needs a run and none exists.
	ErrNoRun = errors.New("no autopilot run")

	// ErrNotFailed is returned by Resume for a run that is not failed.
	ErrNotFailed = errors.New("run is not failed")
)

// Manager handles run lifecycle outside the stop-event path: start, cancel,
// resume, status. Both the CLI and the MCP tools go through it.
type Manager struct {
	store           *FileStore
	maxIterations   int
	archiveOnCancel bool
	logger          *zap.Logger
}

// NewManager creates a run lifecycle manager.
func NewManager(store *FileStore, maxIterations int, archiveOnCancel bool, logger *zap.Logger) (*Manager, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if maxIterations < 1 {
		return nil, errors.New("max iterations must be at least 1")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:           store,
		maxIterations:   maxIterations,
		archiveOnCancel: archiveOnCancel,
		logger:          logger,
	}, nil
}

// Start creates a new run for dir. The idea must be non-empty; a directory
// with an existing record, active or not, refuses a second run until the
// old one is cancelled.
func (m *Manager) Start(dir, idea string, maxIterations int) (*Record, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return nil, errors.New("task description is required")
	}
	if maxIterations <= 0 {
		maxIterations = m.maxIterations
	}

	existing, err := m.store.Load(dir)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: run %s in phase %s", ErrRunExists, existing.RunID, existing.Phase)
	}

	rec := NewRecord(idea, maxIterations)
	if err := m.store.Save(dir, rec); err != nil {
		return nil, err
	}
	m.logger.Info("run started",
		zap.String("run_id", rec.RunID),
		zap.String("dir", dir),
		zap.Int("max_iterations", maxIterations))
	return rec, nil
}

// Cancel removes the run for dir, archiving the record first when
// configured to.
func (m *Manager) Cancel(dir string) (*Record, error) {
	rec, err := m.store.Load(dir)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNoRun
	}

	if m.archiveOnCancel {
		if err := m.store.Archive(dir); err != nil {
			return nil, fmt.Errorf("archive run: %w", err)
		}
	} else if err := m.store.Delete(dir); err != nil {
		return nil, err
	}

	m.logger.Info("run cancelled",
		zap.String("run_id", rec.RunID),
		zap.String("phase", string(rec.Phase)),
		zap.Bool("archived", m.archiveOnCancel))
	return rec, nil
}

// Resume reactivates a failed run in the phase it failed from, with a fresh
// iteration budget.
func (m *Manager) Resume(dir string) (*Record, error) {
	rec, err := m.store.Load(dir)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNoRun
	}
	if rec.Phase != PhaseFailed {
		return nil, fmt.Errorf("%w: phase is %s", ErrNotFailed, rec.Phase)
	}

	from := rec.FailedFrom
	if !from.Valid() || from.Terminal() {
		from = PhaseExpansion
	}
	rec.Phase = from
	rec.FailedFrom = ""
	rec.Iteration = 0
	rec.Active = true
	rec.UpdatedAt = time.Now().UTC()
	if err := m.store.Save(dir, rec); err != nil {
		return nil, err
	}
	m.logger.Info("run resumed",
		zap.String("run_id", rec.RunID),
		zap.String("phase", string(rec.Phase)))
	return rec, nil
}

// Status returns the current record for dir.
func (m *Manager) Status(dir string) (*Record, error) {
	rec, err := m.store.Load(dir)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNoRun
	}
	return rec, nil
}
