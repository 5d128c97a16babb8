// Package config resolves taskman settings from defaults, TOML files,
// TASKMAN_* environment variables and command-line flags, in that order.
package config

import (
	"fmt"
	"strings"

	"github.com/dori/taskman/internal/tasklist"
)

const (
	AppName         = "taskman"
	ConfigFileName  = "taskman.toml"
	DefaultTheme    = "nord"
	DefaultLogLevel = "info"
)

// Themes are the palette names the UI knows about
var Themes = []string{"nord", "dracula", "gruvbox", "catppuccin"}

// Config holds all resolved settings
type Config struct {
	DataDir       string `toml:"data_dir"`
	DBPath        string `toml:"db_path"`
	Theme         string `toml:"theme"`
	DefaultSort   string `toml:"default_sort"`
	LogLevel      string `toml:"log_level"`
	LogFile       string `toml:"log_file"`
	Notifications bool   `toml:"notifications"`

	// Debug switches the log encoder to development mode and forces debug level.
	// It has no file key; use --debug or TASKMAN_DEBUG.
	Debug bool `toml:"-"`
}

func setDefaults(cfg *Config) {
	cfg.DataDir = "~/.local/share/" + AppName
	cfg.Theme = DefaultTheme
	cfg.DefaultSort = string(tasklist.SortDate)
	cfg.LogLevel = DefaultLogLevel
	cfg.Notifications = false
}

// Default returns the configuration used when nothing is set anywhere
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	// Built-in defaults always pass Validate; only the derived paths matter here.
	_ = finalizeConfig(cfg)
	return cfg
}

// Sort returns the parsed default sort option
func (c *Config) Sort() tasklist.SortOption {
	opt, err := tasklist.ParseSortOption(c.DefaultSort)
	if err != nil {
		return tasklist.SortDate
	}
	return opt
}

// Validate checks values that cannot be fixed up silently
func (c *Config) Validate() error {
	if _, err := tasklist.ParseSortOption(c.DefaultSort); err != nil {
		return fmt.Errorf("default_sort: %w", err)
	}
	if !validTheme(c.Theme) {
		return fmt.Errorf("theme: unknown theme %q (want one of %s)", c.Theme, strings.Join(Themes, ", "))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	return nil
}

func validTheme(name string) bool {
	for _, t := range Themes {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}
