package testsupport

import (
	"path/filepath"
	"testing"

	"cubby/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceDir = filepath.Join(base, "source")
	cfgVal.Paths.DestinationDir = filepath.Join(base, "organized")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWatch enables the filesystem trigger with the given debounce.
func WithWatch(debounceSeconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.Enabled = true
		b.cfg.Watch.DebounceSeconds = debounceSeconds
	}
}

// WithSchedule enables the cron trigger with the given expression.
func WithSchedule(expression string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Schedule.Enabled = true
		b.cfg.Schedule.Cron = expression
	}
}

// WithCategories replaces the config rule table.
func WithCategories(categories ...config.Category) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Categories = categories
	}
}

// WithHistoryDisabled turns off the run history store.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
