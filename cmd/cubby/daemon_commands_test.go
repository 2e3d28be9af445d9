package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cubby/internal/organize"
	"cubby/internal/testsupport"
)

func TestStatusWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running")
}

func TestStatusWithDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	env.startTestDaemon(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running")
	requireContains(t, out, "Idle")
}

func TestStopWithoutActiveRun(t *testing.T) {
	env := setupCLITestEnv(t)
	env.startTestDaemon(t)

	out, _, err := runCLI(t, []string{"stop"}, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "No active run to stop")
}

func TestCategoriesFallbackWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"categories"}, env.configPath)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	requireContains(t, out, "Documents")
	requireContains(t, out, "Daemon not running; showing configured categories")
}

func TestCategoriesAddOverIPC(t *testing.T) {
	env := setupCLITestEnv(t)
	env.startTestDaemon(t)

	out, _, err := runCLI(t, []string{"categories", "add", "ebooks", "epub,mobi"}, env.configPath)
	if err != nil {
		t.Fatalf("categories add: %v", err)
	}
	requireContains(t, out, `Added category "ebooks"`)

	out, _, err = runCLI(t, []string{"categories"}, env.configPath)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	requireContains(t, out, "ebooks")
	requireContains(t, out, "Ebooks")
}

func TestHistoryOverIPCAfterRun(t *testing.T) {
	env := setupCLITestEnv(t)
	d := env.startTestDaemon(t)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.SourceDir, "a.pdf"), 8)

	if _, err := d.Organize(organize.Request{}); err != nil {
		t.Fatalf("Organize: %v", err)
	}
	waitFor(t, 10*time.Second, func() bool {
		out, _, err := runCLI(t, []string{"history"}, env.configPath)
		return err == nil && strings.Contains(out, "completed")
	})
}
