// Package hook speaks the host's stop-hook protocol: a JSON payload on
// stdin describing the stop event, a JSON decision on stdout. An empty
// decision object permits the stop; decision "block" suppresses it and
// feeds the reason back into the session.
package hook

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/deepredk/oh-my-claudecode/internal/autopilot"
)

// StopPayload is the stop event delivered by the host.
type StopPayload struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	CWD            string `json:"cwd"`
	HookEventName  string `json:"hook_event_name"`

	// StopHookActive is set when the session is already continuing because
	// of a prior block decision. The protocol loops without it.
	StopHookActive bool `json:"stop_hook_active"`
}

// ReadPayload decodes a stop payload from r.
func ReadPayload(r io.Reader) (*StopPayload, error) {
	var p StopPayload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode stop payload: %w", err)
	}
	return &p, nil
}

// Decision is the hook's reply. The zero value permits the stop.
type Decision struct {
	Decision string `json:"decision,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Allow permits the stop.
func Allow() Decision {
	return Decision{}
}

// Block suppresses the stop and feeds reason back to the session.
func Block(reason string) Decision {
	return Decision{Decision: "block", Reason: reason}
}

// FromResult converts an enforcement result into a hook decision. A nil
// result permits the stop.
func FromResult(res *autopilot.Result) Decision {
	if res == nil || !res.Block {
		return Allow()
	}
	return Block(res.Message)
}

// Write encodes the decision to w.
func (d Decision) Write(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(d); err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}
	return nil
}
