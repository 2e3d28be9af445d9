// Package watch turns filesystem activity under the source root into run
// triggers. Event bursts are debounced per trigger, not per path: any burst of
// create, write, rename, or remove events schedules one trigger after the
// quiet period.
package watch

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"cubby/internal/logging"
)

// Trigger is invoked once per debounce window. Implementations decide what a
// trigger means; the daemon submits a run request and skips when one is
// already active.
type Trigger func()

// Watcher watches a single source root.
type Watcher struct {
	sourceRoot string
	destRoot   string
	debounce   time.Duration
	trigger    Trigger
	logger     *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// New builds a watcher over sourceRoot. Events under destRoot are ignored so
// the run's own moves never retrigger it.
func New(sourceRoot, destRoot string, debounce time.Duration, trigger Trigger, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if debounce <= 0 {
		debounce = 5 * time.Second
	}
	return &Watcher{
		sourceRoot: sourceRoot,
		destRoot:   destRoot,
		debounce:   debounce,
		trigger:    trigger,
		logger:     logger,
	}
}

// Start begins watching. Non-blocking; the event loop runs on its own
// goroutine until Stop.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.sourceRoot); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	w.logger.Info("watching source root", logging.String("path", w.sourceRoot))
	go w.loop(watcher, w.stopCh, w.doneCh)
	return nil
}

// Stop shuts the watcher down and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh := w.stopCh
	doneCh := w.doneCh
	watcher := w.watcher
	w.watcher = nil
	w.mu.Unlock()

	close(stopCh)
	_ = watcher.Close()
	<-doneCh
}

func (w *Watcher) loop(watcher *fsnotify.Watcher, stopCh chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-stopCh:
			timer.Stop()
			return
		case event, ok := <-watcher.Events:
			if !ok {
				timer.Stop()
				return
			}
			if !w.relevant(event) {
				continue
			}
			if !pending {
				pending = true
			} else if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				timer.Stop()
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		case <-timer.C:
			pending = false
			w.logger.Info("change burst settled, triggering run")
			if w.trigger != nil {
				w.trigger()
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	if w.destRoot != "" && within(event.Name, w.destRoot) {
		return false
	}
	return true
}

func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..")
}
