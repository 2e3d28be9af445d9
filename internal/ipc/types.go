package ipc

import "time"

// serviceName is the registered RPC service name.
const serviceName = "Cubby"

// PingRequest checks daemon liveness.
type PingRequest struct{}

// PingResponse confirms the daemon answered.
type PingResponse struct {
	Pong bool `json:"pong"`
	PID  int  `json:"pid"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// RunStatus describes the active run, when there is one.
type RunStatus struct {
	ID          string `json:"id"`
	Phase       string `json:"phase"`
	Progress    int    `json:"progress"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	DryRun      bool   `json:"dry_run"`
}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running        bool       `json:"running"`
	PID            int        `json:"pid"`
	StartedAt      time.Time  `json:"started_at"`
	LockPath       string     `json:"lock_path"`
	SocketPath     string     `json:"socket_path"`
	DatabasePath   string     `json:"database_path"`
	WatchActive    bool       `json:"watch_active"`
	ScheduleActive bool       `json:"schedule_active"`
	Run            *RunStatus `json:"run"`
}

// OrganizeRequest starts a run. Empty paths fall back to the daemon config.
type OrganizeRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	DryRun      bool   `json:"dry_run"`
}

// OrganizeResponse carries the assigned run ID.
type OrganizeResponse struct {
	RunID string `json:"run_id"`
}

// StopRunRequest asks the daemon to stop the active run.
type StopRunRequest struct{}

// StopRunResponse reports whether a run was active to stop.
type StopRunResponse struct {
	Stopped bool `json:"stopped"`
}

// CategoriesRequest fetches the registry snapshot.
type CategoriesRequest struct{}

// CategoryInfo is one registry entry on the wire.
type CategoryInfo struct {
	Name       string   `json:"name"`
	Folder     string   `json:"folder"`
	Extensions []string `json:"extensions"`
	Enabled    bool     `json:"enabled"`
	Count      int      `json:"count"`
}

// CategoriesResponse lists registry entries in match order.
type CategoriesResponse struct {
	Categories []CategoryInfo `json:"categories"`
}

// AddCategoryRequest appends a category. Folder may be empty; the daemon
// derives one from the name.
type AddCategoryRequest struct {
	Name       string `json:"name"`
	Extensions string `json:"extensions"`
	Folder     string `json:"folder"`
}

// AddCategoryResponse acknowledges the addition.
type AddCategoryResponse struct{}

// SetCategoryEnabledRequest toggles a category.
type SetCategoryEnabledRequest struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// SetCategoryEnabledResponse acknowledges the toggle.
type SetCategoryEnabledResponse struct{}

// HistoryRequest lists recent runs.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// RunRecord is one history row on the wire.
type RunRecord struct {
	ID            string         `json:"id"`
	Source        string         `json:"source"`
	Destination   string         `json:"destination"`
	DryRun        bool           `json:"dry_run"`
	Status        string         `json:"status"`
	TotalFiles    int            `json:"total_files"`
	Organized     int            `json:"organized"`
	Uncategorized int            `json:"uncategorized"`
	Categories    map[string]int `json:"categories"`
	ErrorMessage  string         `json:"error_message"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
}

// HistoryResponse lists run records, newest first.
type HistoryResponse struct {
	Runs []RunRecord `json:"runs"`
}

// TailLogsRequest fetches buffered log events after a cursor.
type TailLogsRequest struct {
	Cursor     uint64 `json:"cursor"`
	Limit      int    `json:"limit"`
	WaitMillis int    `json:"wait_millis"`
}

// LogLine is one buffered log event on the wire.
type LogLine struct {
	Sequence  uint64            `json:"sequence"`
	Timestamp time.Time         `json:"timestamp"`
	Level     string            `json:"level"`
	Message   string            `json:"message"`
	Component string            `json:"component"`
	RunID     string            `json:"run_id"`
	Trigger   string            `json:"trigger"`
	Fields    map[string]string `json:"fields"`
}

// TailLogsResponse returns events and the next cursor.
type TailLogsResponse struct {
	Events []LogLine `json:"events"`
	Cursor uint64    `json:"cursor"`
}

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges the shutdown request.
type ShutdownResponse struct {
	ShuttingDown bool `json:"shutting_down"`
}
