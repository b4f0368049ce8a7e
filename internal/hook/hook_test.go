package hook

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepredk/oh-my-claudecode/internal/autopilot"
)

func TestReadPayload(t *testing.T) {
	in := strings.NewReader(`{
		"session_id": "sess-1",
		"transcript_path": "/home/u/.claude/projects/p/sess-1.jsonl",
		"cwd": "/work/proj",
		"hook_event_name": "Stop",
		"stop_hook_active": true
	}`)

	p, err := ReadPayload(in)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", p.SessionID)
	assert.Equal(t, "/work/proj", p.CWD)
	assert.Equal(t, "Stop", p.HookEventName)
	assert.True(t, p.StopHookActive)
}

func TestReadPayload_Invalid(t *testing.T) {
	_, err := ReadPayload(strings.NewReader("not json"))
	assert.Error(t, err)
}

func TestDecision_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Allow().Write(&buf))
	assert.JSONEq(t, `{}`, buf.String())

	buf.Reset()
	require.NoError(t, Block("keep going").Write(&buf))
	assert.JSONEq(t, `{"decision":"block","reason":"keep going"}`, buf.String())
}

func TestFromResult(t *testing.T) {
	assert.Equal(t, Allow(), FromResult(nil))

	assert.Equal(t, Allow(), FromResult(&autopilot.Result{
		Block:   false,
		Message: "done",
	}))

	d := FromResult(&autopilot.Result{
		Block:   true,
		Message: "continue working",
	})
	assert.Equal(t, "block", d.Decision)
	assert.Equal(t, "continue working", d.Reason)
}
