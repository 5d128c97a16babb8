package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/taskman/internal/tasklist"
)

// isolate points HOME, the config dir and the working directory at fresh
// temp dirs and clears TASKMAN_* variables
func isolate(t *testing.T) (home string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, k := range []string{
		"TASKMAN_CONFIG", "TASKMAN_DATA_DIR", "TASKMAN_DB_PATH", "TASKMAN_THEME",
		"TASKMAN_SORT", "TASKMAN_LOG_LEVEL", "TASKMAN_LOG_FILE", "TASKMAN_NOTIFY", "TASKMAN_DEBUG",
	} {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(nil, nil)
	require.NoError(t, err)

	dataDir := filepath.Join(home, ".local", "share", "taskman")
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "taskman.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dataDir, "taskman.log"), cfg.LogFile)
	assert.Equal(t, filepath.Join(dataDir, "taskman.lock"), cfg.LockPath())
	assert.Equal(t, DefaultTheme, cfg.Theme)
	assert.Equal(t, tasklist.SortDate, cfg.Sort())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Notifications)
}

func TestDefault_Validates(t *testing.T) {
	home := isolate(t)

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join(home, ".local", "share", "taskman", "taskman.db"), cfg.DBPath)
}

func TestLoad_Precedence(t *testing.T) {
	isolate(t)

	userDir, err := os.UserConfigDir()
	require.NoError(t, err)
	writeFile(t, filepath.Join(userDir, "taskman", "taskman.toml"), `
theme = "dracula"
default_sort = "status"
log_level = "warn"
`)
	writeFile(t, ConfigFileName, `theme = "gruvbox"`)
	t.Setenv("TASKMAN_SORT", "date")

	fs := flag.NewFlagSet("taskman", flag.ContinueOnError)
	cfg, err := Load(fs, []string{"--log-level", "error", "list", "--search", "x"})
	require.NoError(t, err)

	assert.Equal(t, "gruvbox", cfg.Theme, "project file overrides user file")
	assert.Equal(t, tasklist.SortDate, cfg.Sort(), "env overrides files")
	assert.Equal(t, "error", cfg.LogLevel, "flags override env")
	assert.Equal(t, []string{"list", "--search", "x"}, fs.Args())
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, ConfigFileName, `theme = "gruvbox"`)
	explicit := filepath.Join(home, "custom.toml")
	writeFile(t, explicit, `
theme = "catppuccin"
data_dir = "~/tasks"
notifications = true
`)
	t.Setenv("TASKMAN_CONFIG", explicit)

	cfg, err := Load(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "catppuccin", cfg.Theme, "project file is skipped")
	assert.Equal(t, filepath.Join(home, "tasks"), cfg.DataDir)
	assert.Equal(t, filepath.Join(home, "tasks", "taskman.db"), cfg.DBPath)
	assert.True(t, cfg.Notifications)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	isolate(t)
	writeFile(t, ConfigFileName, `colour = "blue"`)

	_, err := Load(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"sort", "TASKMAN_SORT", "priority"},
		{"theme", "TASKMAN_THEME", "solarized"},
		{"log level", "TASKMAN_LOG_LEVEL", "loud"},
		{"notify", "TASKMAN_NOTIFY", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.env, tt.val)
			_, err := Load(nil, nil)
			assert.Error(t, err)
		})
	}
}

func TestLoad_DebugForcesDebugLevel(t *testing.T) {
	isolate(t)
	t.Setenv("TASKMAN_DEBUG", "1")

	cfg, err := Load(nil, nil)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TASKMAN_THEME", "")
	os.Unsetenv("TASKMAN_THEME")

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, "TASKMAN_THEME=dracula\n")
	require.NoError(t, LoadDotEnv(path))

	cfg, err := Load(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "dracula", cfg.Theme)
}
