package preflight_test

import (
	"os"
	"path/filepath"
	"testing"

	"cubby/internal/preflight"
)

func TestCheckSourceReadable(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckSourceReadable(dir)
	if !result.Passed {
		t.Fatalf("expected pass for %s: %s", dir, result.Detail)
	}

	result = preflight.CheckSourceReadable(filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatal("expected failure for missing source")
	}

	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := preflight.CheckSourceReadable(file); result.Passed {
		t.Fatal("expected failure for non-directory source")
	}
}

func TestCheckDestinationWritableExisting(t *testing.T) {
	dir := t.TempDir()
	if result := preflight.CheckDestinationWritable(dir); !result.Passed {
		t.Fatalf("expected pass: %s", result.Detail)
	}
}

func TestCheckDestinationWritableMissingFallsBackToAncestor(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "not", "yet", "created")
	if result := preflight.CheckDestinationWritable(nested); !result.Passed {
		t.Fatalf("expected pass via ancestor: %s", result.Detail)
	}
}

func TestCheckDistinctRoots(t *testing.T) {
	dir := t.TempDir()
	if result := preflight.CheckDistinctRoots(dir, dir); result.Passed {
		t.Fatal("expected failure for identical roots")
	}
	if result := preflight.CheckDistinctRoots(dir, filepath.Join(dir, "Organized")); !result.Passed {
		t.Fatalf("expected pass: %s", result.Detail)
	}
}

func TestRunAll(t *testing.T) {
	source := t.TempDir()
	dest := filepath.Join(source, "Organized")

	results := preflight.RunAll(source, dest)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !preflight.AllPassed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}

	results = preflight.RunAll(source, "")
	if len(results) != 1 {
		t.Fatalf("dry-run check set should only probe the source, got %d", len(results))
	}
}
