package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, EnsureConfigDir())

	info, err := os.Stat(filepath.Join(home, ".config", "omcc"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Creating an existing directory is not an error.
	assert.NoError(t, EnsureConfigDir())
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 50, cfg.Autopilot.MaxIterations)
	assert.Equal(t, ".omcc", cfg.Autopilot.StateDirName)
	assert.True(t, cfg.Autopilot.ArchiveOnCancel)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.False(t, cfg.Observability.Enabled)
	assert.Equal(t, "omcc", cfg.Observability.ServiceName)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero max iterations",
			mutate:  func(c *Config) { c.Autopilot.MaxIterations = 0 },
			wantErr: "max_iterations",
		},
		{
			name:    "negative max iterations",
			mutate:  func(c *Config) { c.Autopilot.MaxIterations = -1 },
			wantErr: "max_iterations",
		},
		{
			name:    "empty state dir",
			mutate:  func(c *Config) { c.Autopilot.StateDirName = "" },
			wantErr: "state_dir_name",
		},
		{
			name:    "bad logging format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging format",
		},
		{
			name: "observability enabled without service name",
			mutate: func(c *Config) {
				c.Observability.Enabled = true
				c.Observability.ServiceName = ""
			},
			wantErr: "service_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadWithFile_EnvOverrides(t *testing.T) {
	t.Setenv("AUTOPILOT_MAX_ITERATIONS", "25")
	t.Setenv("LOGGING_LEVEL", "debug")
	t.Setenv("LOGGING_FORMAT", "json")

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Autopilot.MaxIterations)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadWithFile_RejectsPathOutsideAllowedDirs(t *testing.T) {
	_, err := LoadWithFile("/tmp/evil.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file must be in")
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("not-a-duration")))
	assert.Error(t, d.UnmarshalText([]byte("-5s")))
}

func TestDuration_MarshalJSON(t *testing.T) {
	d := Duration(time.Minute)
	b, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1m0s"`, string(b))
}
