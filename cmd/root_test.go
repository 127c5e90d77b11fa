// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/browsepilot/internal/mocks"
)

// executeCommand runs a fresh command tree and returns everything it printed.
func executeCommand(t *testing.T, factory *mocks.MockComponentFactory, args ...string) (string, error) {
	t.Helper()
	t.Setenv("BROWSEPILOT_LOGGER_LEVEL", "error")

	if factory == nil {
		factory = new(mocks.MockComponentFactory)
	}
	root := newRootCommand(factory)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(&bytes.Buffer{})
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := executeCommand(t, nil, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "browsepilot version "+Version)
}

func TestRootCmd_Help(t *testing.T) {
	out, err := executeCommand(t, nil, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "BrowsePilot drives a web browser from natural-language queries.")
	for _, sub := range []string{"run", "actions", "config"} {
		assert.Contains(t, out, sub)
	}
}

func TestConfigCmd_Defaults(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "super-secret-key")

	out, err := executeCommand(t, nil, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "content_mode: rich")
	assert.Contains(t, out, "max_interactions: 5")
	assert.Contains(t, out, "navigation_timeout: 1m30s")
	assert.NotContains(t, out, "super-secret-key", "the API key must never be printed")
}

func TestConfigCmd_EnvOverride(t *testing.T) {
	t.Setenv("BROWSEPILOT_INTERACTION_MAX_INTERACTIONS", "7")
	t.Setenv("BROWSEPILOT_EXECUTION_CONTENT_MODE", "plain")

	out, err := executeCommand(t, nil, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "max_interactions: 7")
	assert.Contains(t, out, "content_mode: plain")
}

func TestConfigCmd_ConfigFile(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.yaml")
	require.NoError(t, os.WriteFile(valid, []byte("browser:\n  headless: true\ninteraction:\n  stay_open: false\n"), 0o600))
	out, err := executeCommand(t, nil, "--config", valid, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "headless: true")
	assert.Contains(t, out, "stay_open: false")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("execution:\n  content_mode: verbose\n"), 0o600))
	_, err = executeCommand(t, nil, "--config", invalid, "config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content_mode")

	_, err = executeCommand(t, nil, "--config", filepath.Join(dir, "missing.yaml"), "config")
	assert.ErrorContains(t, err, "error reading config file")
}

func TestActionsCmd(t *testing.T) {
	out, err := executeCommand(t, nil, "actions")
	require.NoError(t, err)
	assert.Contains(t, out, "get(url*): Load a web page in the browser.\n")
	assert.Contains(t, out, "done(): Signal that the user request is complete.\n")

	out, err = executeCommand(t, nil, "actions", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "- name: get")
	assert.Contains(t, out, "css_selector:")

	_, err = executeCommand(t, nil, "actions", "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestGetConfigFromContext_Missing(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	assert.ErrorContains(t, err, "configuration not initialized")
}
