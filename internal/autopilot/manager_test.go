package autopilot

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T, archive bool) (*Manager, *FileStore) {
	t.Helper()
	store := newTestStore(t)
	mgr, err := NewManager(store, 50, archive, zap.NewNop())
	require.NoError(t, err)
	return mgr, store
}

func TestNewManager_Validation(t *testing.T) {
	store := newTestStore(t)
	_, err := NewManager(nil, 50, true, zap.NewNop())
	assert.Error(t, err)
	_, err = NewManager(store, 0, true, zap.NewNop())
	assert.Error(t, err)
}

func TestManager_Start(t *testing.T) {
	mgr, store := newTestManager(t, true)
	dir := t.TempDir()

	rec, err := mgr.Start(dir, "build a cache", 0)
	require.NoError(t, err)
	assert.Equal(t, PhaseExpansion, rec.Phase)
	assert.Equal(t, 50, rec.MaxIterations)
	assert.True(t, rec.Active)
	assert.NotEmpty(t, rec.RunID)

	loaded, err := store.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, rec.RunID, loaded.RunID)
}

func TestManager_Start_EmptyIdea(t *testing.T) {
	mgr, _ := newTestManager(t, true)
	_, err := mgr.Start(t.TempDir(), "   ", 0)
	assert.Error(t, err)
}

func TestManager_Start_Exists(t *testing.T) {
	mgr, _ := newTestManager(t, true)
	dir := t.TempDir()

	_, err := mgr.Start(dir, "first", 0)
	require.NoError(t, err)

	_, err = mgr.Start(dir, "second", 0)
	assert.ErrorIs(t, err, ErrRunExists)
}

func TestManager_Start_CustomIterations(t *testing.T) {
	mgr, _ := newTestManager(t, true)

	rec, err := mgr.Start(t.TempDir(), "idea", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, rec.MaxIterations)
}

func TestManager_Cancel_Archives(t *testing.T) {
	mgr, store := newTestManager(t, true)
	dir := t.TempDir()

	started, err := mgr.Start(dir, "idea", 0)
	require.NoError(t, err)

	cancelled, err := mgr.Cancel(dir)
	require.NoError(t, err)
	assert.Equal(t, started.RunID, cancelled.RunID)

	live, err := store.Load(dir)
	require.NoError(t, err)
	assert.Nil(t, live)

	_, err = os.Stat(store.ArchivePath(dir))
	assert.NoError(t, err)
}

func TestManager_Cancel_NoArchive(t *testing.T) {
	mgr, store := newTestManager(t, false)
	dir := t.TempDir()

	_, err := mgr.Start(dir, "idea", 0)
	require.NoError(t, err)
	_, err = mgr.Cancel(dir)
	require.NoError(t, err)

	_, err = os.Stat(store.ArchivePath(dir))
	assert.True(t, os.IsNotExist(err))
}

func TestManager_Cancel_NoRun(t *testing.T) {
	mgr, _ := newTestManager(t, true)
	_, err := mgr.Cancel(t.TempDir())
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestManager_Resume(t *testing.T) {
	mgr, store := newTestManager(t, true)
	dir := t.TempDir()

	rec, err := mgr.Start(dir, "idea", 0)
	require.NoError(t, err)
	rec.Phase = PhaseFailed
	rec.FailedFrom = PhaseExecution
	rec.Iteration = 50
	require.NoError(t, store.Save(dir, rec))

	resumed, err := mgr.Resume(dir)
	require.NoError(t, err)
	assert.Equal(t, PhaseExecution, resumed.Phase)
	assert.Equal(t, 0, resumed.Iteration)
	assert.True(t, resumed.Active)
	assert.Empty(t, string(resumed.FailedFrom))
}

func TestManager_Resume_NotFailed(t *testing.T) {
	mgr, _ := newTestManager(t, true)
	dir := t.TempDir()

	_, err := mgr.Start(dir, "idea", 0)
	require.NoError(t, err)

	_, err = mgr.Resume(dir)
	assert.ErrorIs(t, err, ErrNotFailed)
}

func TestManager_Resume_NoRun(t *testing.T) {
	mgr, _ := newTestManager(t, true)
	_, err := mgr.Resume(t.TempDir())
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestManager_Status(t *testing.T) {
	mgr, _ := newTestManager(t, true)
	dir := t.TempDir()

	_, err := mgr.Status(dir)
	assert.ErrorIs(t, err, ErrNoRun)

	started, err := mgr.Start(dir, "idea", 0)
	require.NoError(t, err)

	status, err := mgr.Status(dir)
	require.NoError(t, err)
	assert.Equal(t, started.RunID, status.RunID)
}
