package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cubby/internal/category"
	"cubby/internal/daemon"
	"cubby/internal/logging"
	"cubby/internal/organize"
	"cubby/internal/services"
	"cubby/internal/testsupport"
)

func newDaemon(t *testing.T, opts ...testsupport.ConfigOption) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if err := os.MkdirAll(cfg.Paths.SourceDir, 0o755); err != nil {
		t.Fatal(err)
	}

	registry, err := category.FromConfig(cfg.Categories)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, registry, store, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestStartStopLifecycle(t *testing.T) {
	d := newDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status := d.Status()
	if !status.Running || status.PID != os.Getpid() {
		t.Fatalf("status %+v", status)
	}
	d.Stop()
	if d.Status().Running {
		t.Fatal("daemon should report stopped")
	}
}

func TestStartRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if err := os.MkdirAll(cfg.Paths.SourceDir, 0o755); err != nil {
		t.Fatal(err)
	}
	registry, err := category.FromConfig(nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}

	first, err := daemon.New(cfg, registry, nil, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second, err := daemon.New(cfg, registry, nil, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail lock acquisition")
	}
}

func TestOrganizeRunsToCompletion(t *testing.T) {
	d := newDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	sourceRoot := filepath.Join(testsupportBase(t, d), "source")
	testsupport.WriteFile(t, filepath.Join(sourceRoot, "a.pdf"), 4)

	runID, err := d.Organize(organize.Request{})
	if err != nil {
		t.Fatalf("Organize: %v", err)
	}
	if runID == "" {
		t.Fatal("expected a run ID")
	}

	waitForIdle(t, d)

	deadline := time.After(5 * time.Second)
	for {
		records, err := d.History(context.Background(), 5)
		if err != nil {
			t.Fatalf("History: %v", err)
		}
		if len(records) == 1 && records[0].ID == runID && records[0].Status == "completed" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("history never settled: %+v", records)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestOrganizeRejectsConcurrentRuns(t *testing.T) {
	d := newDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	sourceRoot := filepath.Join(testsupportBase(t, d), "source")
	for i := 0; i < 50; i++ {
		testsupport.WriteFile(t, filepath.Join(sourceRoot, "f"+string(rune('a'+i%26))+string(rune('a'+i/26))+".pdf"), 1)
	}

	if _, err := d.Organize(organize.Request{}); err != nil {
		t.Fatalf("Organize: %v", err)
	}
	_, err := d.Organize(organize.Request{})
	if err != nil && !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict or success, got %v", err)
	}
	waitForIdle(t, d)
}

func TestWatchIgnoresDefaultDestinationActivity(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWatch(1))
	cfg.Paths.DestinationDir = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if err := os.MkdirAll(cfg.Paths.SourceDir, 0o755); err != nil {
		t.Fatal(err)
	}
	registry, err := category.FromConfig(cfg.Categories)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, registry, store, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// With no configured destination, runs land in source/Organized. A run's
	// own moves there must not arm the debounce timer.
	organized := filepath.Join(cfg.Paths.SourceDir, "Organized")
	testsupport.WriteFile(t, filepath.Join(organized, "Documents", "placed.pdf"), 4)
	time.Sleep(2500 * time.Millisecond)
	records, err := d.History(context.Background(), 5)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("destination activity triggered %d runs, want 0", len(records))
	}

	// A drop directly into the source still triggers.
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "fresh.pdf"), 4)
	deadline := time.After(10 * time.Second)
	for {
		records, err := d.History(context.Background(), 5)
		if err != nil {
			t.Fatalf("History: %v", err)
		}
		if len(records) > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("source activity never triggered a run")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestAddCategoryDerivesFolder(t *testing.T) {
	d := newDaemon(t)
	if err := d.AddCategory("ebooks", ".epub,.mobi", ""); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	for _, cat := range d.Categories() {
		if cat.Name == "ebooks" {
			if cat.Folder != "Ebooks" {
				t.Fatalf("derived folder %q, want Ebooks", cat.Folder)
			}
			return
		}
	}
	t.Fatal("ebooks category not found")
}

func TestHistoryUnavailableWithoutStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	registry, err := category.FromConfig(nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	d, err := daemon.New(cfg, registry, nil, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if _, err := d.History(context.Background(), 5); !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func waitForIdle(t *testing.T, d *daemon.Daemon) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for d.Status().Run != nil {
		select {
		case <-deadline:
			t.Fatal("run never finished")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func testsupportBase(t *testing.T, d *daemon.Daemon) string {
	t.Helper()
	return filepath.Dir(filepath.Dir(d.Status().DatabasePath))
}
