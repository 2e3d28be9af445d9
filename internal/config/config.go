package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directory layout for runs and daemon state.
type Paths struct {
	SourceDir      string `toml:"source_dir"`
	DestinationDir string `toml:"destination_dir"`
	DataDir        string `toml:"data_dir"`
	LogDir         string `toml:"log_dir"`
}

// Category is one ordered classification rule as it appears in the config
// file. Enabled is a pointer so an omitted key means enabled rather than
// false.
type Category struct {
	Name       string   `toml:"name"`
	Folder     string   `toml:"folder"`
	Extensions []string `toml:"extensions"`
	Enabled    *bool    `toml:"enabled"`
}

// IsEnabled reports whether the rule participates in matching.
func (c Category) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Organize contains run behavior defaults.
type Organize struct {
	DryRunDefault bool `toml:"dry_run_default"`
}

// Watch contains configuration for the filesystem trigger.
type Watch struct {
	Enabled         bool `toml:"enabled"`
	DebounceSeconds int  `toml:"debounce_seconds"`
}

// Schedule contains configuration for the cron trigger.
type Schedule struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"`
}

// History contains configuration for the run history store.
type History struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
}

// Daemon contains overrides for daemon runtime paths.
type Daemon struct {
	SocketPath string `toml:"socket_path"`
	LockPath   string `toml:"lock_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for cubby.
//
// Configuration sections by subsystem:
//   - Paths: source/destination roots and daemon state directories
//   - Organize: run behavior defaults
//   - Categories: the ordered extension-to-folder rule table
//   - Watch: fsnotify-driven automatic runs
//   - Schedule: cron-driven automatic runs
//   - History: run history retention
//   - Daemon: socket and lock file overrides
//   - Logging: log format, level, and retention
type Config struct {
	Paths      Paths      `toml:"paths"`
	Organize   Organize   `toml:"organize"`
	Categories []Category `toml:"categories"`
	Watch      Watch      `toml:"watch"`
	Schedule   Schedule   `toml:"schedule"`
	History    History    `toml:"history"`
	Daemon     Daemon     `toml:"daemon"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cubby/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/cubby/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cubby.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation. The
// destination root is created by runs themselves, never here, so a dry run
// leaves the filesystem untouched.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the run history database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, defaultDatabaseFile)
}

// SocketPath returns the IPC socket location.
func (c *Config) SocketPath() string {
	if path := strings.TrimSpace(c.Daemon.SocketPath); path != "" {
		return path
	}
	return filepath.Join(c.Paths.DataDir, defaultSocketFile)
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	if path := strings.TrimSpace(c.Daemon.LockPath); path != "" {
		return path
	}
	return filepath.Join(c.Paths.DataDir, defaultLockFile)
}

// PIDPath returns the daemon PID file location.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, defaultPIDFile)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
