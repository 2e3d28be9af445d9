package main

import (
	"os"
	"path/filepath"
	"testing"

	"cubby/internal/testsupport"
)

func TestOrganizeCommandMovesFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.SourceDir, "report.pdf"), 16)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.SourceDir, "notes.xyz"), 16)

	out, _, err := runCLI(t, []string{"organize"}, env.configPath)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	requireContains(t, out, "Found 2 files to process")
	requireContains(t, out, "Moved report.pdf → Documents")
	requireContains(t, out, "Organization complete. Processed 1 files.")

	moved := filepath.Join(env.cfg.Paths.DestinationDir, "Documents", "report.pdf")
	if _, err := os.Stat(moved); err != nil {
		t.Fatalf("expected %s: %v", moved, err)
	}
	uncategorized := filepath.Join(env.cfg.Paths.DestinationDir, "Uncategorized", "notes.xyz")
	if _, err := os.Stat(uncategorized); err != nil {
		t.Fatalf("expected %s: %v", uncategorized, err)
	}
}

func TestPreviewLeavesFilesInPlace(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.cfg.Paths.SourceDir, "song.mp3")
	testsupport.WriteFile(t, source, 16)

	out, _, err := runCLI(t, []string{"preview"}, env.configPath)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	requireContains(t, out, "[DRY] Would move song.mp3 → Music")

	if _, err := os.Stat(source); err != nil {
		t.Fatalf("dry run must not move files: %v", err)
	}
}

func TestOrganizeCommandEmptySource(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"organize"}, env.configPath)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	requireContains(t, out, "No files found to organize")
}

func TestOrganizeCommandExplicitSource(t *testing.T) {
	env := setupCLITestEnv(t)
	extra := filepath.Join(env.baseDir, "inbox")
	testsupport.WriteFile(t, filepath.Join(extra, "photo.jpg"), 16)

	out, _, err := runCLI(t, []string{"organize", extra}, env.configPath)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	requireContains(t, out, "Moved photo.jpg → Images")

	moved := filepath.Join(extra, "Organized", "Images", "photo.jpg")
	if _, err := os.Stat(moved); err != nil {
		t.Fatalf("expected default destination under source: %v", err)
	}
}

func TestOrganizeCommandMissingSourceFails(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"organize", filepath.Join(env.baseDir, "absent")}, env.configPath)
	if err == nil {
		t.Fatal("expected failure for missing source")
	}
}
