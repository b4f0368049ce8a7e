package autopilot

import (
	"time"

	"github.com/google/uuid"
)

// Phase is one stage of the fixed enforcement sequence.
type Phase string

const (
	// PhaseExpansion expands the original idea into a full specification.
	PhaseExpansion Phase = "expansion"

	// PhasePlanning turns the specification into an executable plan.
	PhasePlanning Phase = "planning"

	// PhaseExecution works through the plan's tasks.
	PhaseExecution Phase = "execution"

	// PhaseQA runs quality checks and fixes what they find.
	PhaseQA Phase = "qa"

	// PhaseValidation independently verifies the finished work.
	PhaseValidation Phase = "validation"

	// PhaseComplete is the successful terminal phase.
	PhaseComplete Phase = "complete"

	// PhaseFailed is the terminal phase for runs that hit the safety
	// ceiling. No successor exists.
	PhaseFailed Phase = "failed"
)

// WorkPhases returns the non-terminal phases in execution order.
func WorkPhases() []Phase {
	return []Phase{PhaseExpansion, PhasePlanning, PhaseExecution, PhaseQA, PhaseValidation}
}

// Terminal reports whether the phase has no successor.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseExpansion, PhasePlanning, PhaseExecution, PhaseQA, PhaseValidation, PhaseComplete, PhaseFailed:
		return true
	}
	return false
}

// Signal is a textual marker a session emits to declare a phase finished.
// Matching is always a case-insensitive substring test.
type Signal string

const (
	SignalExpansionComplete  Signal = "EXPANSION_COMPLETE"
	SignalPlanningComplete   Signal = "PLANNING_COMPLETE"
	SignalExecutionComplete  Signal = "EXECUTION_COMPLETE"
	SignalQAComplete         Signal = "QA_COMPLETE"
	SignalValidationComplete Signal = "VALIDATION_COMPLETE"
	SignalAutopilotComplete  Signal = "AUTOPILOT_COMPLETE"
	SignalTransitionToQA     Signal = "TRANSITION_TO_QA"
	SignalTransitionToVal    Signal = "TRANSITION_TO_VALIDATION"
)

// DetectionOrder is the fixed enumeration order for DetectAny. The order is
// tie-break behavior: when a transcript carries several markers the earliest
// entry here wins.
var DetectionOrder = []Signal{
	SignalExpansionComplete,
	SignalPlanningComplete,
	SignalExecutionComplete,
	SignalQAComplete,
	SignalValidationComplete,
	SignalAutopilotComplete,
	SignalTransitionToQA,
	SignalTransitionToVal,
}

// expectedSignals maps each work phase to the marker that finishes it.
// Terminal phases have no expected signal.
var expectedSignals = map[Phase]Signal{
	PhaseExpansion:  SignalExpansionComplete,
	PhasePlanning:   SignalPlanningComplete,
	PhaseExecution:  SignalExecutionComplete,
	PhaseQA:         SignalQAComplete,
	PhaseValidation: SignalValidationComplete,
}

// ExpectedSignal returns the completion marker for a phase.
func ExpectedSignal(p Phase) (Signal, bool) {
	sig, ok := expectedSignals[p]
	return sig, ok
}

// ExpansionState is the expansion phase substate.
type ExpansionState struct {
	// SpecPath is where the expanded specification was written.
	SpecPath string `json:"spec_path,omitempty"`
}

// PlanningState is the planning phase substate.
type PlanningState struct {
	// PlanPath is where the task plan was written.
	PlanPath string `json:"plan_path,omitempty"`
}

// ExecutionState is the execution phase substate.
type ExecutionState struct {
	TasksCompleted int `json:"tasks_completed"`
	TasksTotal     int `json:"tasks_total"`
}

// QAState is the qa phase substate, initialized by the execution->qa
// transition.
type QAState struct {
	Started   bool `json:"started"`
	FixCycles int  `json:"fix_cycles"`
}

// ValidationState is the validation phase substate, initialized by the
// qa->validation transition.
type ValidationState struct {
	Started bool `json:"started"`
}

// Record is the enforcement record for one working directory. It is created
// when a run starts, mutated only by the controller and transition engine,
// and removed by cancel.
type Record struct {
	RunID  string `json:"run_id"`
	Active bool   `json:"active"`

	// SessionID binds the record to one host session. Set once by the first
	// check that carries a session id, never reassigned; checks from any
	// other session are invisible no-ops.
	SessionID string `json:"session_id,omitempty"`

	Phase         Phase `json:"phase"`
	Iteration     int   `json:"iteration"`
	MaxIterations int   `json:"max_iterations"`

	// FailedFrom records the phase a run was on when the safety ceiling
	// forced it to failed, so resume can put it back.
	FailedFrom Phase `json:"failed_from,omitempty"`

	// OriginalIdea is the immutable task description the run was started
	// with.
	OriginalIdea string `json:"original_idea"`

	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Expansion  ExpansionState  `json:"expansion"`
	Planning   PlanningState   `json:"planning"`
	Execution  ExecutionState  `json:"execution"`
	QA         QAState         `json:"qa"`
	Validation ValidationState `json:"validation"`
}

// NewRecord creates an active record at the start of the phase sequence.
func NewRecord(idea string, maxIterations int) *Record {
	now := time.Now().UTC()
	return &Record{
		RunID:         uuid.New().String(),
		Active:        true,
		Phase:         PhaseExpansion,
		Iteration:     0,
		MaxIterations: maxIterations,
		OriginalIdea:  idea,
		StartedAt:     now,
		UpdatedAt:     now,
	}
}

// Metadata carries progress counters alongside a decision.
type Metadata struct {
	Iteration      int `json:"iteration"`
	MaxIterations  int `json:"max_iterations"`
	TasksCompleted int `json:"tasks_completed"`
	TasksTotal     int `json:"tasks_total"`
}

// Result is the enforcement decision for one stop event. Block=true tells
// the host to suppress the stop and feed Message back to the session;
// Block=false permits the stop.
type Result struct {
	Block    bool     `json:"block"`
	Phase    Phase    `json:"phase"`
	Message  string   `json:"message"`
	Metadata Metadata `json:"metadata"`
}

// PromptVars parameterizes phase instruction composition.
type PromptVars struct {
	Idea           string
	SpecPath       string
	PlanPath       string
	TasksCompleted int
	TasksTotal     int
	Iteration      int
	MaxIterations  int
}

// PromptSource composes the instruction text for a phase. The controller
// treats the text as opaque; it only embeds it in continuation messages.
type PromptSource interface {
	PhasePrompt(phase Phase, vars PromptVars) string
}
