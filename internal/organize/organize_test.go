package organize_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"cubby/internal/category"
	"cubby/internal/logging"
	"cubby/internal/organize"
	"cubby/internal/services"
)

type collector struct {
	mu     sync.Mutex
	events []organize.Event
}

func (c *collector) HandleEvent(event organize.Event) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
}

func (c *collector) all() []organize.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]organize.Event(nil), c.events...)
}

func (c *collector) summary() *organize.Summary {
	for _, event := range c.all() {
		if event.Kind == organize.EventSummary {
			return event.Summary
		}
	}
	return nil
}

func (c *collector) logs() []string {
	var lines []string
	for _, event := range c.all() {
		if event.Kind == organize.EventLog {
			lines = append(lines, event.Text)
		}
	}
	return lines
}

func testRegistry() *category.Registry {
	return category.NewRegistry(
		&category.Category{Name: "Documents", Folder: "Documents", Extensions: []string{".txt"}, Enabled: true},
		&category.Category{Name: "Images", Folder: "Images", Extensions: []string{".jpg"}, Enabled: true},
	)
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Fatal(err)
		}
	})
}

func startRun(t *testing.T, runner *organize.Runner, req organize.Request, obs organize.Observer) *organize.Run {
	t.Helper()
	run, err := runner.Start(context.Background(), req, obs)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-run.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish")
	}
	return run
}

func TestRunEndToEnd(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "a.TXT"))
	writeFile(t, filepath.Join(source, "b.jpg"))
	writeFile(t, filepath.Join(source, "photo.jpg"))

	runner := organize.NewRunner(testRegistry(), logging.NewNop())
	events := &collector{}
	run := startRun(t, runner, organize.Request{SourceRoot: source}, events)

	if run.Phase() != organize.PhaseCompleted {
		t.Fatalf("phase %s, want completed", run.Phase())
	}
	summary, ok := run.Summary()
	if !ok {
		t.Fatal("expected a summary")
	}
	if summary.TotalFiles != 3 || summary.Organized != 3 || summary.Uncategorized != 0 {
		t.Fatalf("summary %+v", summary)
	}
	if summary.Categories["Documents"] != 1 || summary.Categories["Images"] != 2 {
		t.Fatalf("category counts %v", summary.Categories)
	}

	dest := filepath.Join(source, "Organized")
	for _, want := range []string{
		filepath.Join(dest, "Documents", "a.TXT"),
		filepath.Join(dest, "Images", "b.jpg"),
		filepath.Join(dest, "Images", "photo.jpg"),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Fatalf("expected %s to exist: %v", want, err)
		}
	}

	if events.summary() == nil {
		t.Fatal("expected summary event")
	}
	joined := strings.Join(events.logs(), "\n")
	if !strings.Contains(joined, "Found 3 files to process") {
		t.Fatalf("missing found line in logs:\n%s", joined)
	}
	if !strings.Contains(joined, "Moved a.TXT → Documents") {
		t.Fatalf("missing move line in logs:\n%s", joined)
	}
	if !strings.Contains(joined, "Organization complete. Processed 3 files.") {
		t.Fatalf("missing completion line in logs:\n%s", joined)
	}
}

func TestSummaryIsLastEvent(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "a.txt"))

	runner := organize.NewRunner(testRegistry(), logging.NewNop())
	events := &collector{}
	startRun(t, runner, organize.Request{SourceRoot: source, DryRun: true}, events)

	all := events.all()
	if len(all) == 0 {
		t.Fatal("no events delivered")
	}
	if all[len(all)-1].Kind != organize.EventSummary {
		t.Fatalf("last event is %s, want summary", all[len(all)-1].Kind)
	}
}

func TestDryRunParityWithoutMutation(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "a.txt"))
	writeFile(t, filepath.Join(source, "b.jpg"))
	writeFile(t, filepath.Join(source, "notes.md"))

	registry := testRegistry()
	runner := organize.NewRunner(registry, logging.NewNop())
	events := &collector{}
	run := startRun(t, runner, organize.Request{SourceRoot: source, DryRun: true}, events)

	dry, ok := run.Summary()
	if !ok {
		t.Fatal("expected dry run summary")
	}
	if _, err := os.Stat(filepath.Join(source, "Organized")); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create destination, stat err = %v", err)
	}
	for _, name := range []string{"a.txt", "b.jpg", "notes.md"} {
		if _, err := os.Stat(filepath.Join(source, name)); err != nil {
			t.Fatalf("dry run moved %s: %v", name, err)
		}
	}
	joined := strings.Join(events.logs(), "\n")
	if !strings.Contains(joined, "[DRY] Would move a.txt → Documents") {
		t.Fatalf("missing dry-run narration:\n%s", joined)
	}

	real := startRun(t, runner, organize.Request{SourceRoot: source}, &collector{})
	realSummary, ok := real.Summary()
	if !ok {
		t.Fatal("expected real run summary")
	}
	if dry.Organized != realSummary.Organized || dry.Uncategorized != realSummary.Uncategorized {
		t.Fatalf("dry %+v and real %+v disagree", dry, realSummary)
	}
	for name, count := range dry.Categories {
		if realSummary.Categories[name] != count {
			t.Fatalf("category %s dry %d real %d", name, count, realSummary.Categories[name])
		}
	}
}

func TestUncategorizedMovedOnlyInExecuteMode(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "mystery.xyz"))

	runner := organize.NewRunner(testRegistry(), logging.NewNop())
	events := &collector{}
	run := startRun(t, runner, organize.Request{SourceRoot: source}, events)

	summary, ok := run.Summary()
	if !ok {
		t.Fatal("expected summary")
	}
	if summary.Uncategorized != 1 || summary.Organized != 0 {
		t.Fatalf("summary %+v", summary)
	}
	moved := filepath.Join(source, "Organized", "Uncategorized", "mystery.xyz")
	if _, err := os.Stat(moved); err != nil {
		t.Fatalf("expected %s: %v", moved, err)
	}
	// The completion line counts categorized moves only.
	joined := strings.Join(events.logs(), "\n")
	if !strings.Contains(joined, "Organization complete. Processed 0 files.") {
		t.Fatalf("completion line should report 0 organized files:\n%s", joined)
	}
}

func TestIdempotence(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "a.txt"))
	writeFile(t, filepath.Join(source, "weird.xyz"))

	runner := organize.NewRunner(testRegistry(), logging.NewNop())
	startRun(t, runner, organize.Request{SourceRoot: source}, &collector{})

	second := startRun(t, runner, organize.Request{SourceRoot: source}, &collector{})
	summary, ok := second.Summary()
	if !ok {
		t.Fatal("expected summary from second run")
	}
	if summary.Organized != 0 || summary.Uncategorized != 0 {
		t.Fatalf("second run should move nothing, got %+v", summary)
	}
	if summary.TotalFiles == 0 {
		t.Fatal("already-organized files should still be counted in the total")
	}
}

func TestIdempotenceWithRelativeSource(t *testing.T) {
	base := t.TempDir()
	source := filepath.Join(base, "inbox")
	writeFile(t, filepath.Join(source, "a.txt"))
	chdir(t, base)

	dest := filepath.Join(source, "Organized")
	runner := organize.NewRunner(testRegistry(), logging.NewNop())
	startRun(t, runner, organize.Request{SourceRoot: "inbox", DestinationRoot: dest}, &collector{})

	second := startRun(t, runner, organize.Request{SourceRoot: "inbox", DestinationRoot: dest}, &collector{})
	summary, ok := second.Summary()
	if !ok {
		t.Fatal("expected summary from second run")
	}
	if summary.Organized != 0 || summary.Uncategorized != 0 {
		t.Fatalf("second run should move nothing, got %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(dest, "Documents", "a_1.txt")); !os.IsNotExist(err) {
		t.Fatalf("already-placed file was renamed again, stat err = %v", err)
	}
}

func TestNormalizeMakesRootsAbsolute(t *testing.T) {
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "inbox"), 0o755); err != nil {
		t.Fatal(err)
	}
	chdir(t, base)

	req, err := organize.Request{SourceRoot: "inbox"}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !filepath.IsAbs(req.SourceRoot) || !filepath.IsAbs(req.DestinationRoot) {
		t.Fatalf("roots should be absolute, got %q and %q", req.SourceRoot, req.DestinationRoot)
	}
}

func TestCollisionNaming(t *testing.T) {
	source := t.TempDir()
	dest := filepath.Join(source, "Organized")
	writeFile(t, filepath.Join(source, "report.txt"))
	writeFile(t, filepath.Join(dest, "Documents", "report.txt"))
	writeFile(t, filepath.Join(dest, "Documents", "report_1.txt"))

	runner := organize.NewRunner(testRegistry(), logging.NewNop())
	startRun(t, runner, organize.Request{SourceRoot: source}, &collector{})

	if _, err := os.Stat(filepath.Join(dest, "Documents", "report_2.txt")); err != nil {
		t.Fatalf("expected report_2.txt: %v", err)
	}
}

func TestEmptySource(t *testing.T) {
	runner := organize.NewRunner(testRegistry(), logging.NewNop())
	run := startRun(t, runner, organize.Request{SourceRoot: t.TempDir()}, &collector{})

	summary, ok := run.Summary()
	if !ok {
		t.Fatal("expected summary")
	}
	if summary.TotalFiles != 0 || summary.Organized != 0 || summary.Uncategorized != 0 || len(summary.Categories) != 0 {
		t.Fatalf("expected zero-valued summary, got %+v", summary)
	}
}

func TestDisabledCategoryRoutesToUncategorized(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "a.txt"))

	registry := testRegistry()
	if err := registry.SetEnabled("Documents", false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	runner := organize.NewRunner(registry, logging.NewNop())
	run := startRun(t, runner, organize.Request{SourceRoot: source}, &collector{})

	summary, ok := run.Summary()
	if !ok {
		t.Fatal("expected summary")
	}
	if summary.Uncategorized != 1 || summary.Organized != 0 {
		t.Fatalf("summary %+v", summary)
	}
}

func TestStartRejectsMissingSource(t *testing.T) {
	runner := organize.NewRunner(testRegistry(), logging.NewNop())
	_, err := runner.Start(context.Background(), organize.Request{SourceRoot: filepath.Join(t.TempDir(), "missing")}, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStartRejectsConcurrentRun(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "a.txt"))

	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	blocking := organize.ObserverFunc(func(event organize.Event) {
		once.Do(func() { close(started) })
		<-release
	})

	runner := organize.NewRunner(testRegistry(), logging.NewNop())
	run, err := runner.Start(context.Background(), organize.Request{SourceRoot: source}, blocking)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-started

	if _, err := runner.Start(context.Background(), organize.Request{SourceRoot: source}, nil); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	close(release)
	select {
	case <-run.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish")
	}

	if _, err := runner.Start(context.Background(), organize.Request{SourceRoot: source}, nil); err != nil {
		t.Fatalf("expected restart after completion, got %v", err)
	}
}

func TestContextCancelStopsRun(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "a.txt"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := organize.NewRunner(testRegistry(), logging.NewNop())
	run, err := runner.Start(ctx, organize.Request{SourceRoot: source}, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-run.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish")
	}
	// The flag may land before or after the scan; either terminal outcome is
	// acceptable as long as the run ends.
	if phase := run.Phase(); !phase.Terminal() {
		t.Fatalf("phase %s is not terminal", phase)
	}
}

type recorderCall struct {
	id     string
	status string
}

type fakeRecorder struct {
	mu       sync.Mutex
	starts   []string
	finishes []recorderCall
}

func (f *fakeRecorder) RecordStart(ctx context.Context, id, source, destination string, dryRun bool, startedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, id)
	return nil
}

func (f *fakeRecorder) RecordFinish(ctx context.Context, id, status string, total, organized, uncategorized int, categories map[string]int, errMessage string, finishedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishes = append(f.finishes, recorderCall{id: id, status: status})
	return nil
}

func TestRunnerRecordsHistory(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "a.txt"))

	recorder := &fakeRecorder{}
	runner := organize.NewRunner(testRegistry(), logging.NewNop(), organize.WithHistory(recorder))
	run := startRun(t, runner, organize.Request{SourceRoot: source}, &collector{})

	deadline := time.After(5 * time.Second)
	for {
		recorder.mu.Lock()
		done := len(recorder.finishes) == 1
		recorder.mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("finish was never recorded")
		case <-time.After(10 * time.Millisecond):
		}
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.starts) != 1 || recorder.starts[0] != run.ID() {
		t.Fatalf("starts %v, want [%s]", recorder.starts, run.ID())
	}
	if recorder.finishes[0].id != run.ID() || recorder.finishes[0].status != "completed" {
		t.Fatalf("finish %+v", recorder.finishes[0])
	}
}
