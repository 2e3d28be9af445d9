// Package organize hosts the run engine: the orchestrator that sequences
// scan, classify, and relocate for one run, and the Runner that enforces a
// single active run and hands out run handles.
//
// A run executes on one background goroutine. All category counter mutation
// and all filesystem operations happen on that goroutine; the only state
// written from outside is the atomic cancellation flag. Events are delivered
// asynchronously to a single observer, in emission order, and the event queue
// drains before the run's Done channel closes.
package organize
