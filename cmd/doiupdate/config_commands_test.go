package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "[OK] valid")
	assert.Contains(t, out, env.fake.URL)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote sample configuration")
	_, err = os.Stat(target)
	require.NoError(t, err)

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "")
	require.NoError(t, err)

	out, _, err = runCLI(t, []string{"--config", target, "config", "validate"}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "https://api.datacite.org")
}

func TestConfigValidateJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "--json", "config", "validate")
	require.NoError(t, err)

	var view configJSON
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.True(t, view.Exists)
	assert.Equal(t, env.configPath, view.Path)
	assert.Equal(t, env.fake.URL, view.BaseURL)
	assert.Equal(t, env.stateDir, view.StateDir)
	assert.Equal(t, "warn", view.LogLevel)
}

func TestConfigValidateRejectsUnknownKeys(t *testing.T) {
	setupCLITestEnv(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[datacite]\npassword = \"nope\"\n"), 0o644))

	_, _, err := runCLI(t, []string{"--config", path, "config", "validate"}, "")
	require.Error(t, err)
}

func TestConfigInitSkipsConfigLoad(t *testing.T) {
	setupCLITestEnv(t)
	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("not toml ["), 0o644))
	target := filepath.Join(t.TempDir(), "config.toml")

	_, _, err := runCLI(t, []string{"--config", bad, "config", "init", "--path", target}, "")
	require.NoError(t, err)
}
