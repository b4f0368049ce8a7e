// Package prompt composes the per-phase instruction text that enforcement
// feeds back into a session when it blocks a stop.
package prompt

import (
	"fmt"
	"strings"

	"github.com/deepredk/oh-my-claudecode/internal/autopilot"
)

// Composer builds phase instructions. It implements autopilot.PromptSource.
type Composer struct{}

// NewComposer creates a prompt composer.
func NewComposer() *Composer {
	return &Composer{}
}

// PhasePrompt returns the instruction text for a phase. Every work phase's
// text ends with the marker contract line so the session knows exactly what
// to emit when the phase is done.
func (c *Composer) PhasePrompt(phase autopilot.Phase, vars autopilot.PromptVars) string {
	var b strings.Builder

	switch phase {
	case autopilot.PhaseExpansion:
		fmt.Fprintf(&b, "Expand the following task into a complete specification:\n\n%s\n\n", vars.Idea)
		b.WriteString("Cover requirements, edge cases, and acceptance criteria. ")
		b.WriteString("Write the specification to a file in the working directory.\n")
	case autopilot.PhasePlanning:
		b.WriteString("Turn the specification into an ordered task plan.\n")
		if vars.SpecPath != "" {
			fmt.Fprintf(&b, "The specification is at %s.\n", vars.SpecPath)
		}
		b.WriteString("Each task must be independently verifiable. Write the plan to a file.\n")
	case autopilot.PhaseExecution:
		b.WriteString("Work through the task plan.\n")
		if vars.PlanPath != "" {
			fmt.Fprintf(&b, "The plan is at %s.\n", vars.PlanPath)
		}
		if vars.TasksTotal > 0 {
			fmt.Fprintf(&b, "Progress: %d of %d tasks complete.\n", vars.TasksCompleted, vars.TasksTotal)
		}
		b.WriteString("Finish every task before declaring the phase done.\n")
	case autopilot.PhaseQA:
		b.WriteString("Run the project's quality checks: build, tests, linters. ")
		b.WriteString("Fix every failure and re-run until everything passes.\n")
	case autopilot.PhaseValidation:
		fmt.Fprintf(&b, "Independently verify the finished work against the original task:\n\n%s\n\n", vars.Idea)
		b.WriteString("Check behavior, not just code. Report anything that does not match.\n")
	default:
		return ""
	}

	if sig, ok := autopilot.ExpectedSignal(phase); ok {
		fmt.Fprintf(&b, "\nWhen this phase is genuinely complete, say %s on its own line. "+
			"Do not emit it early.", sig)
	}
	return b.String()
}
