package config

const (
	defaultSourceDir            = "~/Downloads"
	defaultDataDir              = "~/.local/share/cubby"
	defaultLogDir               = "~/.local/share/cubby/logs"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 60
	defaultWatchDebounceSeconds = 5
	defaultScheduleCron         = "0 * * * *"
	defaultHistoryRetentionDays = 90
	defaultDatabaseFile         = "cubby.db"
	defaultSocketFile           = "cubby.sock"
	defaultLockFile             = "cubbyd.lock"
	defaultPIDFile              = "cubbyd.pid"
)

// Default returns a Config populated with repository defaults. The category
// table is left empty; an empty table means the built-in category set.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir: defaultSourceDir,
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
		},
		Watch: Watch{
			DebounceSeconds: defaultWatchDebounceSeconds,
		},
		Schedule: Schedule{
			Cron: defaultScheduleCron,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetentionDays,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
