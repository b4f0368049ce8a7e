package autopilot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deepredk/oh-my-claudecode/internal/transcript"
)

func newTestDetector(t *testing.T, home string) *Detector {
	t.Helper()
	det, err := NewDetector(transcript.NewLocator(home, nil), zap.NewNop())
	require.NoError(t, err)
	return det
}

func writeTranscript(t *testing.T, path, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
}

func TestNewDetector(t *testing.T) {
	_, err := NewDetector(nil, zap.NewNop())
	assert.Error(t, err)
}

func TestDetector_Detect_ExplicitPath(t *testing.T) {
	home := t.TempDir()
	det := newTestDetector(t, home)

	path := filepath.Join(t.TempDir(), "session.txt")
	writeTranscript(t, path, "all tasks done.\nEXECUTION_COMPLETE\n")

	assert.True(t, det.Detect("", "", path, SignalExecutionComplete))
	assert.False(t, det.Detect("", "", path, SignalQAComplete))
}

func TestDetector_Detect_CaseInsensitive(t *testing.T) {
	det := newTestDetector(t, t.TempDir())

	path := filepath.Join(t.TempDir(), "session.txt")
	writeTranscript(t, path, "wrapping up: execution_complete, moving on")

	assert.True(t, det.Detect("", "", path, SignalExecutionComplete))
}

func TestDetector_Detect_ProjectDirCandidate(t *testing.T) {
	home := t.TempDir()
	det := newTestDetector(t, home)

	workDir := "/tmp/proj"
	path := filepath.Join(home, ".claude", "projects",
		transcript.ProjectDirName(workDir), "sess-9.jsonl")
	writeTranscript(t, path,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"QA_COMPLETE"}]}}`+"\n")

	assert.True(t, det.Detect("sess-9", workDir, "", SignalQAComplete))
	assert.False(t, det.Detect("sess-other", workDir, "", SignalQAComplete))
}

func TestDetector_Detect_MissingCandidatesSkipped(t *testing.T) {
	det := newTestDetector(t, t.TempDir())
	assert.False(t, det.Detect("sess-1", "/tmp/proj", "/nope/missing.txt", SignalQAComplete))
}

func TestDetector_DetectAny_Order(t *testing.T) {
	det := newTestDetector(t, t.TempDir())

	path := filepath.Join(t.TempDir(), "session.txt")
	// Both markers present; enumeration order decides the winner.
	writeTranscript(t, path, "TRANSITION_TO_QA then PLANNING_COMPLETE")

	sig, ok := det.DetectAny("", "", path)
	require.True(t, ok)
	assert.Equal(t, SignalPlanningComplete, sig)
}

func TestDetector_DetectAny_None(t *testing.T) {
	det := newTestDetector(t, t.TempDir())

	path := filepath.Join(t.TempDir(), "session.txt")
	writeTranscript(t, path, "nothing to see here")

	_, ok := det.DetectAny("", "", path)
	assert.False(t, ok)
}

func TestExpectedSignal(t *testing.T) {
	cases := map[Phase]Signal{
		PhaseExpansion:  SignalExpansionComplete,
		PhasePlanning:   SignalPlanningComplete,
		PhaseExecution:  SignalExecutionComplete,
		PhaseQA:         SignalQAComplete,
		PhaseValidation: SignalValidationComplete,
	}
	for phase, want := range cases {
		sig, ok := ExpectedSignal(phase)
		require.True(t, ok, string(phase))
		assert.Equal(t, want, sig)
	}

	_, ok := ExpectedSignal(PhaseComplete)
	assert.False(t, ok)
	_, ok = ExpectedSignal(PhaseFailed)
	assert.False(t, ok)
}
