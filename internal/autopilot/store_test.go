package autopilot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(".omcc", zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestNewFileStore(t *testing.T) {
	_, err := NewFileStore("", zap.NewNop())
	assert.Error(t, err)

	store, err := NewFileStore(".omcc", nil)
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestFileStore_SaveLoad(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()

	rec := NewRecord("build a thing", 50)
	rec.SessionID = "sess-1"
	rec.Execution.TasksTotal = 4

	require.NoError(t, store.Save(dir, rec))

	loaded, err := store.Load(dir)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, rec.RunID, loaded.RunID)
	assert.Equal(t, "sess-1", loaded.SessionID)
	assert.Equal(t, PhaseExpansion, loaded.Phase)
	assert.Equal(t, 4, loaded.Execution.TasksTotal)
	assert.True(t, loaded.Active)
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.Load(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".omcc"), 0o700))
	require.NoError(t, os.WriteFile(store.StatePath(dir), []byte("{not json"), 0o600))

	rec, err := store.Load(dir)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFileStore_LoadUnknownPhase(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".omcc"), 0o700))
	require.NoError(t, os.WriteFile(store.StatePath(dir), []byte(`{"phase":"warp"}`), 0o600))

	rec, err := store.Load(dir)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFileStore_Delete(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()

	require.NoError(t, store.Save(dir, NewRecord("idea", 50)))
	require.NoError(t, store.Delete(dir))

	rec, err := store.Load(dir)
	require.NoError(t, err)
	assert.Nil(t, rec)

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(dir))
}

func TestFileStore_SaveAtomicOverwrite(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()

	rec := NewRecord("idea", 50)
	require.NoError(t, store.Save(dir, rec))

	rec.Iteration = 7
	require.NoError(t, store.Save(dir, rec))

	loaded, err := store.Load(dir)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 7, loaded.Iteration)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Join(dir, ".omcc"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_Archive(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()

	rec := NewRecord("idea", 50)
	require.NoError(t, store.Save(dir, rec))
	require.NoError(t, store.Archive(dir))

	live, err := store.Load(dir)
	require.NoError(t, err)
	assert.Nil(t, live)

	data, err := os.ReadFile(store.ArchivePath(dir))
	require.NoError(t, err)
	assert.Contains(t, string(data), rec.RunID)

	// Archiving with no live record is a no-op.
	assert.NoError(t, store.Archive(dir))
}
