package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. Config file: $TASKMAN_CONFIG if set, otherwise the user config dir
// 3. Project config file (taskman.toml in the current directory)
// 4. Environment variables
// 5. CLI flags
//
// fs may be nil, in which case no flags are parsed. Unparsed arguments are
// left in fs.Args().
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if explicit := os.Getenv("TASKMAN_CONFIG"); explicit != "" {
		if err := loadConfigFile(cfg, expandPath(explicit)); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", explicit, err)
		}
	} else {
		if path := findUserConfigFile(); path != "" {
			if err := loadConfigFile(cfg, path); err != nil {
				return nil, fmt.Errorf("loading user config file %s: %w", path, err)
			}
		}
		if path := findProjectConfigFile(); path != "" {
			if err := loadConfigFile(cfg, path); err != nil {
				return nil, fmt.Errorf("loading project config file %s: %w", path, err)
			}
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if fs != nil {
		if err := parseFlags(cfg, fs, args); err != nil {
			return nil, fmt.Errorf("parsing flags: %w", err)
		}
	}

	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// loadConfigFile loads TOML config from the given file. Unknown keys are
// rejected so typos do not go unnoticed.
func loadConfigFile(cfg *Config, path string) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func findUserConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, AppName, ConfigFileName)
	if fileExists(path) {
		return path
	}
	return ""
}

func findProjectConfigFile() string {
	if fileExists(ConfigFileName) {
		return ConfigFileName
	}
	return ""
}

// loadFromEnv overrides config from environment variables
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TASKMAN_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TASKMAN_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TASKMAN_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("TASKMAN_SORT"); v != "" {
		cfg.DefaultSort = v
	}
	if v := os.Getenv("TASKMAN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TASKMAN_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("TASKMAN_NOTIFY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TASKMAN_NOTIFY: %w", err)
		}
		cfg.Notifications = b
	}
	if v := os.Getenv("TASKMAN_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TASKMAN_DEBUG: %w", err)
		}
		cfg.Debug = b
	}
	return nil
}

// parseFlags defines and parses the global flags
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for the database, lock and log files")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Database path (default <data-dir>/taskman.db)")
	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "Color theme: "+strings.Join(Themes, ", "))
	fs.StringVar(&cfg.DefaultSort, "sort", cfg.DefaultSort, "Default task order: date or status")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file (default <data-dir>/taskman.log)")
	fs.BoolVar(&cfg.Notifications, "notify", cfg.Notifications, "Mirror alerts as desktop notifications")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Verbose development logging")
	return fs.Parse(args)
}

// finalizeConfig computes derived values and validates
func finalizeConfig(cfg *Config) error {
	cfg.DataDir = expandPath(cfg.DataDir)
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, AppName+".db")
	}
	cfg.DBPath = expandPath(cfg.DBPath)
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, AppName+".log")
	}
	cfg.LogFile = expandPath(cfg.LogFile)

	cfg.Theme = strings.ToLower(cfg.Theme)
	cfg.DefaultSort = strings.ToLower(strings.TrimSpace(cfg.DefaultSort))
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	return cfg.Validate()
}

// LockPath is the single-instance lock file inside the data dir
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, AppName+".lock")
}

// expandPath expands ~ and environment variables in paths
func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded := os.ExpandEnv(p)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		return filepath.Join(home, strings.TrimPrefix(expanded[1:], "/"))
	}
	return expanded
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
