// Package daemon hosts the long-running cubby process: the category registry,
// the single-flight run host, the watch and schedule triggers, and the run
// history store. A flock on the lock file enforces one instance per data
// directory. Watcher and scheduler firings share one trigger funnel; a firing
// while a run is active is skipped with a log line rather than queued.
package daemon
