package organize

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"cubby/internal/category"
	"cubby/internal/logging"
	"cubby/internal/scan"
	"cubby/internal/services"
)

// Run is the handle for one organizing run. It is created by Runner.Start and
// executes on its own goroutine; the accessors are safe from any goroutine.
type Run struct {
	id       string
	req      Request
	registry *category.Registry
	logger   *slog.Logger
	dispatch *dispatcher

	stopFlag atomic.Bool
	done     chan struct{}

	mu            sync.Mutex
	phase         Phase
	progress      int
	total         int
	organized     int
	uncategorized int
	summary       *Summary
	err           error
	startedAt     time.Time
	finishedAt    time.Time
}

func newRun(id string, req Request, registry *category.Registry, logger *slog.Logger, observer Observer) *Run {
	return &Run{
		id:        id,
		req:       req,
		registry:  registry,
		logger:    logger,
		dispatch:  newDispatcher(observer),
		done:      make(chan struct{}),
		phase:     PhaseIdle,
		startedAt: time.Now(),
	}
}

// ID returns the run's UUID.
func (r *Run) ID() string { return r.id }

// Request returns the normalized request the run was started with.
func (r *Run) Request() Request { return r.req }

// Phase returns the current phase.
func (r *Run) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Progress returns the last emitted progress percentage.
func (r *Run) Progress() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Stop requests a cooperative stop. The flag is observed between files; an
// in-flight move runs to completion.
func (r *Run) Stop() {
	r.stopFlag.Store(true)
}

// Done closes after the run has reached a terminal phase and every queued
// event has been delivered.
func (r *Run) Done() <-chan struct{} { return r.done }

// Summary returns the run summary once the run completed normally. The second
// return is false for aborted and failed runs.
func (r *Run) Summary() (Summary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summary == nil {
		return Summary{}, false
	}
	return *r.summary, true
}

// Err returns the fatal error for a failed run, nil otherwise.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Run) setPhase(phase Phase) {
	r.mu.Lock()
	r.phase = phase
	r.mu.Unlock()
}

func (r *Run) emitProgress(percent int) {
	r.mu.Lock()
	r.progress = percent
	r.mu.Unlock()
	r.dispatch.publish(Event{Kind: EventProgress, Progress: percent})
}

func (r *Run) emitStatus(text string) {
	r.dispatch.publish(Event{Kind: EventStatus, Text: text})
}

func (r *Run) emitLog(text string) {
	r.dispatch.publish(Event{Kind: EventLog, Text: text})
}

// execute drives the state machine. It always leaves the run in a terminal
// phase, closes the event stream, waits for delivery, then closes done.
func (r *Run) execute() {
	defer func() {
		r.mu.Lock()
		r.finishedAt = time.Now()
		r.mu.Unlock()
		r.dispatch.close()
		<-r.dispatch.drained
		close(r.done)
	}()

	logger := r.logger
	mode := "execute"
	if r.req.DryRun {
		mode = "dry-run"
	}
	logger.Info("run starting",
		logging.String("source", r.req.SourceRoot),
		logging.String("destination", r.req.DestinationRoot),
		logging.String("mode", mode))

	r.setPhase(PhaseScanning)
	r.emitStatus("Scanning files...")

	records, err := scan.Collect(r.req.SourceRoot, r.stopFlag.Load)
	if err != nil {
		r.fail(err)
		return
	}
	if r.stopFlag.Load() {
		r.abort()
		return
	}

	r.mu.Lock()
	r.total = len(records)
	r.mu.Unlock()

	if len(records) == 0 {
		r.emitLog("No files found to organize")
		r.finalize(nil)
		return
	}
	r.emitLog(fmt.Sprintf("Found %d files to process", len(records)))

	r.setPhase(PhaseProcessing)
	if !r.req.DryRun {
		if err := os.MkdirAll(r.req.DestinationRoot, 0o755); err != nil {
			r.fail(services.Wrap(services.ErrConfiguration, "organize", "ensure destination",
				fmt.Sprintf("failed to create destination root %s", r.req.DestinationRoot), err))
			return
		}
	}
	r.registry.ResetCounts()

	reloc := &relocator{
		registry: r.registry,
		destRoot: r.req.DestinationRoot,
		dryRun:   r.req.DryRun,
		emitLog:  r.emitLog,
		logger:   logger,
	}

	var unmatched []scan.FileRecord
	total := len(records)
	for i, rec := range records {
		if r.stopFlag.Load() {
			r.abort()
			return
		}
		r.emitProgress(i * 100 / total)
		r.emitStatus("Processing: " + rec.Name)

		// Files already under the destination root count toward the total
		// but are never classified or moved.
		if pathWithin(rec.Path, r.req.DestinationRoot) {
			continue
		}

		cat := r.registry.Match(rec.Ext)
		if cat == nil {
			unmatched = append(unmatched, rec)
			continue
		}
		if err := reloc.place(rec, cat); err == nil {
			r.mu.Lock()
			r.organized++
			r.mu.Unlock()
		} else if services.FatalToRun(err) {
			r.fail(err)
			return
		}
	}

	r.mu.Lock()
	r.uncategorized = len(unmatched)
	r.mu.Unlock()

	r.setPhase(PhaseFinalizing)
	if !r.req.DryRun {
		reloc.placeUncategorized(unmatched)
	}
	r.finalize(records)
}

func (r *Run) finalize(records []scan.FileRecord) {
	r.setPhase(PhaseFinalizing)

	r.mu.Lock()
	summary := &Summary{
		TotalFiles:    r.total,
		Organized:     r.organized,
		Uncategorized: r.uncategorized,
		Categories:    r.registry.Counts(),
	}
	if len(records) == 0 {
		summary.Categories = map[string]int{}
	}
	r.summary = summary
	r.mu.Unlock()

	r.emitProgress(100)
	if len(records) > 0 {
		r.emitLog(fmt.Sprintf("Organization complete. Processed %d files.", summary.Organized))
	}
	r.emitStatus("Complete!")
	published := *summary
	r.dispatch.publish(Event{Kind: EventSummary, Summary: &published})

	r.setPhase(PhaseCompleted)
	r.logger.Info("run completed",
		logging.Int("total", summary.TotalFiles),
		logging.Int("organized", summary.Organized),
		logging.Int("uncategorized", summary.Uncategorized))
}

func (r *Run) abort() {
	r.setPhase(PhaseAborted)
	r.logger.Info("run aborted")
}

func (r *Run) fail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	r.dispatch.publish(Event{Kind: EventError, Text: err.Error()})
	r.setPhase(PhaseFailed)
	r.logger.Error("run failed", logging.Error(err))
}
