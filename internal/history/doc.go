// Package history persists run outcomes to SQLite. The daemon writes rows as
// runs start and finish; the CLI reads the same database directly when no
// daemon is running.
package history
