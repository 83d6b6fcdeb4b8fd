package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvDebug, "")
	return home
}

func TestLoadCreatesTemplates(t *testing.T) {
	home := isolateHome(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".local", "share", "assistui"), cfg.DataDir())
	assert.Equal(t, DefaultBackendURL, cfg.BackendURL)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.True(t, cfg.ResumeSession)
	assert.Equal(t, "alt+p", cfg.KeyBindings.GetActionKey("quick_actions"))

	assert.FileExists(t, GetSettingsFilePath())
	assert.FileExists(t, GetUserConfigPath(cfg.DataDir()))

	info, err := os.Stat(cfg.DataDir())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestLoadReadsUserConfig(t *testing.T) {
	isolateHome(t)
	dataDir := t.TempDir()
	t.Setenv(EnvDataDir, dataDir)

	content := `
[backend]
url = "http://backend.internal:9000"
timeout_seconds = 30

[session]
resume = false

[keybindings.modifiers]
primary = "ctrl"

[keybindings.actions]
quick_actions = "ctrl+k"
`
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.toml"), []byte(content), 0600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir())
	assert.Equal(t, "http://backend.internal:9000", cfg.BackendURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.ResumeSession)
	assert.Equal(t, "ctrl+k", cfg.KeyBindings.GetActionKey("quick_actions"))
	assert.Equal(t, "ctrl+y", cfg.KeyBindings.GetActionKey("yank_answer"))
}

func TestEnvOverridesBackendURL(t *testing.T) {
	isolateHome(t)
	t.Setenv(EnvDataDir, t.TempDir())
	t.Setenv(EnvAPIURL, "http://override:8001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://override:8001", cfg.BackendURL)
}

func TestLoadRejectsBrokenUserConfig(t *testing.T) {
	isolateHome(t)
	dataDir := t.TempDir()
	t.Setenv(EnvDataDir, dataDir)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.toml"), []byte("[backend\nurl="), 0600))

	_, err := Load()
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home := isolateHome(t)

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "data"), ExpandPath("~/data"))
	assert.Equal(t, filepath.Clean("/tmp/x"), ExpandPath("/tmp//x/"))
}

func TestCheckDebug(t *testing.T) {
	for value, want := range map[string]bool{"1": true, "true": true, "": false, "yes": false} {
		t.Setenv(EnvDebug, value)
		assert.Equal(t, want, CheckDebug(), value)
	}
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()

	nop, closeNop, err := NewLogger(dir, false)
	require.NoError(t, err)
	nop.Info("dropped")
	require.NoError(t, closeNop())
	assert.NoFileExists(t, filepath.Join(dir, "debug.log"))

	logger, closeLog, err := NewLogger(dir, true)
	require.NoError(t, err)
	logger.Info("kept")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "kept")

	// The file is closed; a second close reports it
	assert.Error(t, closeLog())
}
