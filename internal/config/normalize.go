package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDaemon(); err != nil {
		return err
	}
	c.normalizeCategories()
	c.normalizeWatch()
	c.normalizeSchedule()
	c.normalizeHistory()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.SourceDir) == "" {
		c.Paths.SourceDir = defaultSourceDir
	}
	if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if trimmed := strings.TrimSpace(c.Paths.DestinationDir); trimmed == "" {
		// Left empty on purpose: runs default it to <source>/Organized.
		c.Paths.DestinationDir = ""
	} else if c.Paths.DestinationDir, err = expandPath(trimmed); err != nil {
		return fmt.Errorf("paths.destination_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDaemon() error {
	var err error
	if trimmed := strings.TrimSpace(c.Daemon.SocketPath); trimmed == "" {
		c.Daemon.SocketPath = ""
	} else if c.Daemon.SocketPath, err = expandPath(trimmed); err != nil {
		return fmt.Errorf("daemon.socket_path: %w", err)
	}
	if trimmed := strings.TrimSpace(c.Daemon.LockPath); trimmed == "" {
		c.Daemon.LockPath = ""
	} else if c.Daemon.LockPath, err = expandPath(trimmed); err != nil {
		return fmt.Errorf("daemon.lock_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeCategories() {
	for i := range c.Categories {
		cat := &c.Categories[i]
		cat.Name = strings.TrimSpace(cat.Name)
		cat.Folder = strings.TrimSpace(cat.Folder)
		tokens := make([]string, 0, len(cat.Extensions))
		for _, ext := range cat.Extensions {
			if token := strings.TrimSpace(ext); token != "" {
				tokens = append(tokens, token)
			}
		}
		cat.Extensions = tokens
	}
}

func (c *Config) normalizeWatch() {
	if c.Watch.DebounceSeconds <= 0 {
		c.Watch.DebounceSeconds = defaultWatchDebounceSeconds
	}
}

func (c *Config) normalizeSchedule() {
	c.Schedule.Cron = strings.TrimSpace(c.Schedule.Cron)
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = defaultScheduleCron
	}
}

func (c *Config) normalizeHistory() {
	if c.History.RetentionDays < 0 {
		c.History.RetentionDays = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
