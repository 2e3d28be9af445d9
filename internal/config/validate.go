package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCategories(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SourceDir) == "" {
		return errors.New("paths.source_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.DestinationDir != "" && c.Paths.DestinationDir == c.Paths.SourceDir {
		return errors.New("paths.destination_dir must differ from paths.source_dir")
	}
	return nil
}

func (c *Config) validateCategories() error {
	seen := make(map[string]struct{}, len(c.Categories))
	for i, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("categories[%d].name must be set", i)
		}
		if _, dup := seen[cat.Name]; dup {
			return fmt.Errorf("categories[%d].name %q is duplicated", i, cat.Name)
		}
		seen[cat.Name] = struct{}{}
		if cat.Folder == "" {
			return fmt.Errorf("categories[%d] (%s): folder must be set", i, cat.Name)
		}
		if len(cat.Extensions) == 0 {
			return fmt.Errorf("categories[%d] (%s): extensions must include at least one token", i, cat.Name)
		}
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.Enabled && c.Watch.DebounceSeconds <= 0 {
		return errors.New("watch.debounce_seconds must be positive when watch.enabled is true")
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if c.Schedule.Enabled && strings.TrimSpace(c.Schedule.Cron) == "" {
		return errors.New("schedule.cron must be set when schedule.enabled is true")
	}
	return nil
}
