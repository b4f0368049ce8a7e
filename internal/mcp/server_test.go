package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deepredk/oh-my-claudecode/internal/autopilot"
)

func newTestManager(t *testing.T) *autopilot.Manager {
	t.Helper()
	store, err := autopilot.NewFileStore(".omcc", zap.NewNop())
	require.NoError(t, err)
	mgr, err := autopilot.NewManager(store, 50, true, zap.NewNop())
	require.NoError(t, err)
	return mgr
}

func TestNewServer(t *testing.T) {
	srv, err := NewServer(ServerConfig{Name: "omcc", Version: "0.1.0"}, newTestManager(t))
	require.NoError(t, err)
	assert.NotNil(t, srv)
}

func TestNewServer_RequiresManager(t *testing.T) {
	_, err := NewServer(ServerConfig{}, nil)
	assert.Error(t, err)
}

func TestNewServer_Defaults(t *testing.T) {
	srv, err := NewServer(ServerConfig{}, newTestManager(t))
	require.NoError(t, err)
	assert.NotNil(t, srv.logger)
}
