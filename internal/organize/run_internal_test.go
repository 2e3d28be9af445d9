package organize

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"cubby/internal/category"
	"cubby/internal/logging"
)

type eventSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *eventSink) HandleEvent(event Event) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *eventSink) hasSummary() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range s.events {
		if event.Kind == EventSummary {
			return true
		}
	}
	return false
}

func TestStopBeforeScanAbortsWithoutSummary(t *testing.T) {
	source := t.TempDir()
	if err := os.WriteFile(filepath.Join(source, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	req, err := Request{SourceRoot: source}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	registry := category.NewRegistry(
		&category.Category{Name: "Documents", Folder: "Documents", Extensions: []string{".txt"}, Enabled: true},
	)
	sink := &eventSink{}
	run := newRun("test-run", req, registry, logging.NewNop(), sink)
	run.Stop()
	run.execute()

	if run.Phase() != PhaseAborted {
		t.Fatalf("phase %s, want aborted", run.Phase())
	}
	if _, ok := run.Summary(); ok {
		t.Fatal("aborted run must not produce a summary")
	}
	if sink.hasSummary() {
		t.Fatal("aborted run must not emit a summary event")
	}
	if _, err := os.Stat(filepath.Join(source, "a.txt")); err != nil {
		t.Fatalf("aborted run must leave files in place: %v", err)
	}
}

func TestProgressFloorsPerFile(t *testing.T) {
	source := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		if err := os.WriteFile(filepath.Join(source, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	req, err := Request{SourceRoot: source, DryRun: true}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	registry := category.NewRegistry(
		&category.Category{Name: "Documents", Folder: "Documents", Extensions: []string{".txt"}, Enabled: true},
	)
	sink := &eventSink{}
	run := newRun("test-run", req, registry, logging.NewNop(), sink)
	run.execute()
	<-run.Done()

	var got []int
	sink.mu.Lock()
	for _, event := range sink.events {
		if event.Kind == EventProgress {
			got = append(got, event.Progress)
		}
	}
	sink.mu.Unlock()

	want := []int{0, 33, 66, 100}
	if len(got) != len(want) {
		t.Fatalf("progress %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("progress %v, want %v", got, want)
		}
	}
}

func TestPathWithin(t *testing.T) {
	root := filepath.Join("/", "tmp", "dest")
	cases := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "file.txt"), true},
		{filepath.Join(root, "nested", "file.txt"), true},
		{root, true},
		{filepath.Join("/", "tmp", "destother", "file.txt"), false},
		{filepath.Join("/", "tmp", "file.txt"), false},
	}
	for _, tc := range cases {
		if got := pathWithin(tc.path, root); got != tc.want {
			t.Fatalf("pathWithin(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
