package transcript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectDirName(t *testing.T) {
	tests := []struct {
		workDir string
		want    string
	}{
		{"/home/alice/myproject", "-home-alice-myproject"},
		{"/home/alice/my.project", "-home-alice-my-project"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.workDir, func(t *testing.T) {
			assert.Equal(t, tt.want, ProjectDirName(tt.workDir))
		})
	}
}

func TestLocator_Candidates(t *testing.T) {
	l := NewLocator("/home/alice", []string{"/srv/transcripts"})

	paths := l.Candidates("sess-1", "/home/alice/proj", "")
	require.NotEmpty(t, paths)

	assert.Equal(t,
		filepath.Join("/home/alice", ".claude", "projects", "-home-alice-proj", "sess-1.jsonl"),
		paths[0])
	assert.Contains(t, paths,
		filepath.Join("/home/alice", ".config", "claude", "projects", "-home-alice-proj", "sess-1.jsonl"))
	assert.Contains(t, paths, filepath.Join("/srv/transcripts", "sess-1.jsonl"))
}

func TestLocator_Candidates_ExplicitPathFirst(t *testing.T) {
	l := NewLocator("/home/alice", nil)

	paths := l.Candidates("sess-1", "/home/alice/proj", "/tmp/session.jsonl")
	require.NotEmpty(t, paths)
	assert.Equal(t, "/tmp/session.jsonl", paths[0])
}

func TestLocator_Candidates_NoSession(t *testing.T) {
	l := NewLocator("/home/alice", nil)

	assert.Empty(t, l.Candidates("", "/home/alice/proj", ""))
	assert.Equal(t, []string{"/tmp/t.jsonl"}, l.Candidates("", "", "/tmp/t.jsonl"))
}

func TestReadText_JSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sess.jsonl")

	lines := `{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"working on it"}]}}
{"type":"user","message":{"role":"user","content":"keep going"}}
{"type":"system","message":{"role":"system","content":"ignored"}}
{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"EXECUTION_COMPLETE"}]}}
`
	require.NoError(t, os.WriteFile(path, []byte(lines), 0644))

	text, err := ReadText(path)
	require.NoError(t, err)

	assert.Contains(t, text, "working on it")
	assert.Contains(t, text, "keep going")
	assert.Contains(t, text, "EXECUTION_COMPLETE")
	assert.NotContains(t, text, "ignored")
}

func TestReadText_MalformedLinesKeptRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sess.jsonl")

	require.NoError(t, os.WriteFile(path, []byte("not json but QA_COMPLETE here\n"), 0644))

	text, err := ReadText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "QA_COMPLETE")
}

func TestReadText_PlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sess.log")

	require.NoError(t, os.WriteFile(path, []byte("PLANNING_COMPLETE\n"), 0644))

	text, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "PLANNING_COMPLETE\n", text)
}

func TestReadText_Missing(t *testing.T) {
	_, err := ReadText(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}
