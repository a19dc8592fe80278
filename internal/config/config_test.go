package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doiupdate/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("DATACITE_BASE_URL", "")
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, filepath.Join(home, ".config", "doiupdate", "config.toml"), resolved)

	assert.Equal(t, filepath.Join(home, ".local", "state", "doiupdate"), cfg.Paths.StateDir)
	assert.Equal(t, "https://api.datacite.org", cfg.DataCite.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.True(t, cfg.Journal.Enabled)
	assert.False(t, cfg.Batch.KeepGoing)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, filepath.Join(cfg.Paths.StateDir, "journal.db"), cfg.JournalPath())
	assert.Equal(t, filepath.Join(cfg.Paths.StateDir, "batch.lock"), cfg.BatchLockPath())
}

func TestLoadHonoursXDGStateHome(t *testing.T) {
	isolateEnv(t)
	stateHome := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateHome)

	cfg, _, _, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(stateHome, "doiupdate"), cfg.Paths.StateDir)
}

func TestLoadCustomFile(t *testing.T) {
	home := isolateEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	custom := config.Default()
	custom.Paths.StateDir = "~/doi-state"
	custom.DataCite.BaseURL = " https://api.test.datacite.org/ "
	custom.DataCite.TimeoutSeconds = 5
	custom.Journal.Enabled = false
	custom.Batch.KeepGoing = true
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "Debug"
	data, err := toml.Marshal(custom)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, filepath.Join(home, "doi-state"), cfg.Paths.StateDir)
	assert.Equal(t, "https://api.test.datacite.org", cfg.DataCite.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout())
	assert.False(t, cfg.Journal.Enabled)
	assert.True(t, cfg.Batch.KeepGoing)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadProjectFileFallback(t *testing.T) {
	isolateEnv(t)
	require.NoError(t, os.WriteFile("doiupdate.toml", []byte("[datacite]\ntimeout_seconds = 7\n"), 0o644))

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "doiupdate.toml", filepath.Base(resolved))
	assert.Equal(t, 7*time.Second, cfg.RequestTimeout())
}

func TestLoadBaseURLFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DATACITE_BASE_URL", "https://api.test.datacite.org/")

	cfg, _, _, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://api.test.datacite.org", cfg.DataCite.BaseURL)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[datacite]\npassword = \"secret\"\n"), 0o644))

	_, _, _, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{name: "non http base url", mutate: func(c *config.Config) { c.DataCite.BaseURL = "ftp://api.datacite.org" }, want: "datacite.base_url"},
		{name: "missing host", mutate: func(c *config.Config) { c.DataCite.BaseURL = "https://" }, want: "host"},
		{name: "zero timeout", mutate: func(c *config.Config) { c.DataCite.TimeoutSeconds = 0 }, want: "timeout_seconds"},
		{name: "bad format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }, want: "logging.format"},
		{name: "bad level", mutate: func(c *config.Config) { c.Logging.Level = "trace" }, want: "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	cfg := config.Default()
	require.NoError(t, cfg.Validate())
}

func TestCreateSampleLoads(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path, false))

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "https://api.datacite.org", cfg.DataCite.BaseURL)

	require.ErrorIs(t, config.CreateSample(path, false), config.ErrConfigExists)
	require.NoError(t, config.CreateSample(path, true))
}

func TestEnsureDirectories(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, cfg.EnsureDirectories())
	info, err := os.Stat(cfg.Paths.StateDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
