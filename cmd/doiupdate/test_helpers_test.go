package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"doiupdate/internal/testsupport"
)

type cliTestEnv struct {
	fake       *testsupport.FakeDataCite
	configPath string
	stateDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	require.NoError(t, os.MkdirAll(homeDir, 0o755))
	t.Setenv("HOME", homeDir)
	t.Setenv("DATACITE_BASE_URL", "")
	t.Setenv("DATACITE_USERNAME", "repo.user")
	t.Setenv("DATACITE_PASSWORD", "secret")

	fake := testsupport.NewFakeDataCite(t)
	stateDir := filepath.Join(base, "state")
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, fake.URL, stateDir)

	return &cliTestEnv{fake: fake, configPath: configPath, stateDir: stateDir}
}

func writeTestConfig(t *testing.T, path, baseURL, stateDir string) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nstate_dir = %q\n\n[datacite]\nbase_url = %q\ntimeout_seconds = 5\n\n[logging]\nlevel = \"warn\"\n",
		stateDir,
		baseURL,
	)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", e.configPath}, args...), "")
}

func runCLI(t *testing.T, args []string, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
