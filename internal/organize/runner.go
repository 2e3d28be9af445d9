package organize

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cubby/internal/category"
	"cubby/internal/logging"
	"cubby/internal/services"
)

// HistoryRecorder persists run outcomes. Implemented by the history store;
// the Runner treats recording failures as log-worthy, never run-fatal.
type HistoryRecorder interface {
	RecordStart(ctx context.Context, id, source, destination string, dryRun bool, startedAt time.Time) error
	RecordFinish(ctx context.Context, id, status string, total, organized, uncategorized int, categories map[string]int, errMessage string, finishedAt time.Time) error
}

// Runner hosts runs against a shared registry and enforces that at most one
// run is active at a time.
type Runner struct {
	registry *category.Registry
	logger   *slog.Logger
	history  HistoryRecorder

	mu     sync.Mutex
	active *Run
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithHistory attaches a history recorder to the Runner.
func WithHistory(history HistoryRecorder) RunnerOption {
	return func(r *Runner) { r.history = history }
}

// NewRunner builds a Runner over the given registry.
func NewRunner(registry *category.Registry, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		registry: registry,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start validates the request and launches a run on a background goroutine.
// A second start while a run is active fails with a conflict error. Canceling
// ctx requests a cooperative stop of the run.
func (rn *Runner) Start(ctx context.Context, req Request, observer Observer) (*Run, error) {
	normalized, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	rn.mu.Lock()
	defer rn.mu.Unlock()

	if rn.active != nil {
		select {
		case <-rn.active.Done():
		default:
			return nil, services.Wrap(services.ErrConflict, "runner", "start run",
				"a run is already active", nil)
		}
	}

	run := newRun(uuid.NewString(), normalized, rn.registry, rn.logger, observer)
	rn.active = run

	ctx = services.WithRunID(ctx, run.id)
	if rn.history != nil {
		if err := rn.history.RecordStart(ctx, run.id, normalized.SourceRoot, normalized.DestinationRoot, normalized.DryRun, run.startedAt); err != nil {
			rn.logger.Warn("failed to record run start", logging.Error(err))
		}
	}

	go func() {
		watchDone := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				run.Stop()
			case <-watchDone:
			}
		}()
		run.execute()
		close(watchDone)
		rn.recordFinish(run)
	}()
	return run, nil
}

// Active returns the in-flight run, or nil when no run is active.
func (rn *Runner) Active() *Run {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	if rn.active == nil {
		return nil
	}
	select {
	case <-rn.active.Done():
		return nil
	default:
		return rn.active
	}
}

// StopActive requests a stop of the in-flight run. It reports whether a run
// was active to stop.
func (rn *Runner) StopActive() bool {
	run := rn.Active()
	if run == nil {
		return false
	}
	run.Stop()
	return true
}

// Registry returns the registry the Runner organizes against.
func (rn *Runner) Registry() *category.Registry { return rn.registry }

func (rn *Runner) recordFinish(run *Run) {
	if rn.history == nil {
		return
	}

	run.mu.Lock()
	phase := run.phase
	total := run.total
	organized := run.organized
	uncategorized := run.uncategorized
	finishedAt := run.finishedAt
	runErr := run.err
	run.mu.Unlock()

	status := string(phase)
	errMessage := ""
	if runErr != nil {
		errMessage = runErr.Error()
	}
	categories := map[string]int{}
	if summary, ok := run.Summary(); ok {
		categories = summary.Categories
	}
	if err := rn.history.RecordFinish(context.Background(), run.id, status, total, organized, uncategorized, categories, errMessage, finishedAt); err != nil {
		rn.logger.Warn("failed to record run finish", logging.Error(err))
	}
}
