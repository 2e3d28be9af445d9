package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"cubby/internal/category"
	"cubby/internal/config"
	"cubby/internal/history"
	"cubby/internal/logging"
	"cubby/internal/organize"
	"cubby/internal/preflight"
	"cubby/internal/schedule"
	"cubby/internal/services"
	"cubby/internal/textutil"
	"cubby/internal/watch"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *category.Registry
	runner   *organize.Runner
	store    *history.Store
	stream   *logging.StreamHub

	watcher   *watch.Watcher
	scheduler *schedule.Scheduler

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// RunStatus describes the active run for status reporting.
type RunStatus struct {
	ID          string
	Phase       string
	Progress    int
	Source      string
	Destination string
	DryRun      bool
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	StartedAt      time.Time
	LockPath       string
	SocketPath     string
	DatabasePath   string
	WatchActive    bool
	ScheduleActive bool
	Run            *RunStatus
}

// New constructs a daemon. The history store and stream hub are optional; a
// nil store disables history recording and a nil stream disables log
// following.
func New(cfg *config.Config, registry *category.Registry, store *history.Store, stream *logging.StreamHub, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || registry == nil {
		return nil, errors.New("daemon requires config and registry")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	var opts []organize.RunnerOption
	if store != nil {
		opts = append(opts, organize.WithHistory(store))
	}
	runner := organize.NewRunner(registry, logging.NewComponentLogger(logger, "runner"), opts...)

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		runner:     runner,
		store:      store,
		stream:     stream,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		shutdownCh: make(chan struct{}),
	}

	if cfg.Watch.Enabled {
		// An empty configured destination means runs default to
		// source/Organized; the watcher must ignore that subtree too.
		destRoot := cfg.Paths.DestinationDir
		if destRoot == "" {
			destRoot = filepath.Join(cfg.Paths.SourceDir, organize.DefaultDestinationFolder)
		}
		debounce := time.Duration(cfg.Watch.DebounceSeconds) * time.Second
		d.watcher = watch.New(
			cfg.Paths.SourceDir,
			destRoot,
			debounce,
			func() { d.triggerRun("watch") },
			logging.NewComponentLogger(logger, "watch"),
		)
	}
	if cfg.Schedule.Enabled {
		d.scheduler = schedule.New(
			cfg.Schedule.Cron,
			func() { d.triggerRun("schedule") },
			logging.NewComponentLogger(logger, "schedule"),
		)
	}

	return d, nil
}

// Start acquires the daemon lock and launches the configured triggers.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cubby daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.watcher != nil {
		if err := d.watcher.Start(); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return fmt.Errorf("start watcher: %w", err)
		}
	}
	if d.scheduler != nil {
		if err := d.scheduler.Start(); err != nil {
			if d.watcher != nil {
				d.watcher.Stop()
			}
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("cubby daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts triggers, stops any active run, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.scheduler != nil {
		d.scheduler.Stop()
	}
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if run := d.runner.Active(); run != nil {
		d.logger.Info("stopping active run", logging.String(logging.FieldRunID, run.ID()))
		run.Stop()
		<-run.Done()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("cubby daemon stopped")
}

// Close stops the daemon and closes the history store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// RequestShutdown asks the daemon process to exit. Safe to call repeatedly.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() { close(d.shutdownCh) })
}

// ShutdownRequested closes when an IPC client asked for process exit.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdownCh
}

// Status reports daemon runtime information.
func (d *Daemon) Status() Status {
	status := Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		StartedAt:      d.startedAt,
		LockPath:       d.lockPath,
		SocketPath:     d.cfg.SocketPath(),
		DatabasePath:   d.cfg.DatabasePath(),
		WatchActive:    d.watcher != nil,
		ScheduleActive: d.scheduler != nil,
	}
	if run := d.runner.Active(); run != nil {
		req := run.Request()
		status.Run = &RunStatus{
			ID:          run.ID(),
			Phase:       string(run.Phase()),
			Progress:    run.Progress(),
			Source:      req.SourceRoot,
			Destination: req.DestinationRoot,
			DryRun:      req.DryRun,
		}
	}
	return status
}

// Organize starts a run for an explicit request and returns the run ID.
func (d *Daemon) Organize(req organize.Request) (string, error) {
	if req.SourceRoot == "" {
		req.SourceRoot = d.cfg.Paths.SourceDir
	}
	if req.DestinationRoot == "" {
		req.DestinationRoot = d.cfg.Paths.DestinationDir
	}
	run, err := d.startRun(req, "manual")
	if err != nil {
		return "", err
	}
	return run.ID(), nil
}

// StopRun requests a stop of the active run. Reports whether one was active.
func (d *Daemon) StopRun() bool {
	stopped := d.runner.StopActive()
	if stopped {
		d.logger.Info("run stop requested")
	}
	return stopped
}

// Categories returns a snapshot of the registry.
func (d *Daemon) Categories() []category.Category {
	return d.registry.Snapshot()
}

// AddCategory appends a category. An empty folder name is derived from the
// category name.
func (d *Daemon) AddCategory(name, extensions, folder string) error {
	if folder == "" {
		folder = textutil.FolderName(name)
	}
	if err := d.registry.Add(name, extensions, folder); err != nil {
		return err
	}
	d.logger.Info("category added",
		logging.String(logging.FieldCategory, name),
		logging.String("folder", folder))
	return nil
}

// SetCategoryEnabled toggles a category.
func (d *Daemon) SetCategoryEnabled(name string, enabled bool) error {
	if err := d.registry.SetEnabled(name, enabled); err != nil {
		return err
	}
	d.logger.Info("category toggled",
		logging.String(logging.FieldCategory, name),
		logging.Bool("enabled", enabled))
	return nil
}

// History lists recent run records.
func (d *Daemon) History(ctx context.Context, limit int) ([]history.Record, error) {
	if d.store == nil {
		return nil, services.Wrap(services.ErrUnavailable, "daemon", "list history",
			"history store is disabled", nil)
	}
	return d.store.List(ctx, limit)
}

// TailLogs fetches buffered log events after the cursor. With wait set the
// call blocks until new events arrive or ctx ends.
func (d *Daemon) TailLogs(ctx context.Context, cursor uint64, limit int, wait bool) ([]logging.LogEvent, uint64, error) {
	if d.stream == nil {
		return nil, cursor, services.Wrap(services.ErrUnavailable, "daemon", "tail logs",
			"log streaming is disabled", nil)
	}
	return d.stream.Fetch(ctx, cursor, limit, wait)
}

// triggerRun is the shared funnel for watcher and scheduler firings.
func (d *Daemon) triggerRun(trigger string) {
	if !d.running.Load() {
		return
	}
	if d.runner.Active() != nil {
		d.logger.Info("run already active, skipping trigger",
			logging.String(logging.FieldTrigger, trigger))
		return
	}
	req := organize.Request{
		SourceRoot:      d.cfg.Paths.SourceDir,
		DestinationRoot: d.cfg.Paths.DestinationDir,
		DryRun:          d.cfg.Organize.DryRunDefault,
	}
	if _, err := d.startRun(req, trigger); err != nil {
		d.logger.Warn("triggered run failed to start",
			logging.String(logging.FieldTrigger, trigger),
			logging.Error(err))
	}
}

func (d *Daemon) startRun(req organize.Request, trigger string) (*organize.Run, error) {
	normalized, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	if !normalized.DryRun {
		results := preflight.RunAll(normalized.SourceRoot, normalized.DestinationRoot)
		if !preflight.AllPassed(results) {
			for _, result := range results {
				if !result.Passed {
					d.logger.Warn("preflight check failed",
						logging.String("check", result.Name),
						logging.String("detail", result.Detail))
				}
			}
			return nil, services.Wrap(services.ErrValidation, "daemon", "preflight",
				"preflight checks failed", nil)
		}
	}

	ctx := d.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithTrigger(ctx, trigger)
	observer := d.eventObserver(trigger)
	run, err := d.runner.Start(ctx, normalized, observer)
	if err != nil {
		return nil, err
	}
	d.logger.Info("run started",
		logging.String(logging.FieldRunID, run.ID()),
		logging.String(logging.FieldTrigger, trigger),
		logging.Bool("dry_run", normalized.DryRun))
	return run, nil
}

// eventObserver bridges run events into the daemon log so the stream hub and
// log files carry them.
func (d *Daemon) eventObserver(trigger string) organize.Observer {
	logger := d.logger.With(
		logging.String(logging.FieldComponent, "run"),
		logging.String(logging.FieldTrigger, trigger),
	)
	return organize.ObserverFunc(func(event organize.Event) {
		switch event.Kind {
		case organize.EventLog:
			logger.Info(event.Text)
		case organize.EventStatus:
			logger.Debug(event.Text)
		case organize.EventProgress:
			logger.Debug("progress", logging.Int("percent", event.Progress))
		case organize.EventSummary:
			if event.Summary != nil {
				logger.Info("run summary",
					logging.Int("total", event.Summary.TotalFiles),
					logging.Int("organized", event.Summary.Organized),
					logging.Int("uncategorized", event.Summary.Uncategorized))
			}
		case organize.EventError:
			logger.Error(event.Text)
		}
	})
}
