package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"lightbox/internal/queue"
	"lightbox/internal/testsupport"
)

func TestAddCommandQueuesSource(t *testing.T) {
	env := setupCLITestEnv(t)

	cardDir := filepath.Join(env.baseDir, "cards", "hike")
	testsupport.WriteFile(t, filepath.Join(cardDir, "DSC0001.ARW"), 2048)
	testsupport.WriteFile(t, filepath.Join(cardDir, "DSC0002.ARW"), 2048)

	out, _, err := runCLI(t, []string{"add", cardDir, "--label", "Hike"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Queued source as item #")
	requireContains(t, out, "(Hike)")

	items, err := env.store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 queued item, got %d", len(items))
	}
	if items[0].Status != queue.StatusPending {
		t.Fatalf("expected pending item, got %s", items[0].Status)
	}

	out, _, err = runCLI(t, []string{"add", cardDir}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Source already queued as item #%d", items[0].ID))
}

func TestAddCommandWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	cardDir := filepath.Join(env.baseDir, "cards", "offline")
	testsupport.WriteFile(t, filepath.Join(cardDir, "DSC0100.ARW"), 1024)

	deadSocket := filepath.Join(t.TempDir(), "missing.sock")
	out, _, err := runCLI(t, []string{"add", cardDir}, deadSocket, env.configPath)
	if err != nil {
		t.Fatalf("add without daemon: %v", err)
	}
	requireContains(t, out, "Queued source as item #")
	requireContains(t, out, "(offline)")
}

func TestAddCommandRejectsMissingDirectory(t *testing.T) {
	env := setupCLITestEnv(t)

	missing := filepath.Join(env.baseDir, "cards", "nope")
	_, _, err := runCLI(t, []string{"add", missing}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "directory does not exist") {
		t.Fatalf("expected missing directory error, got %v", err)
	}
}

func TestAddCommandRejectsEmptyDirectory(t *testing.T) {
	env := setupCLITestEnv(t)

	emptyDir := filepath.Join(env.baseDir, "cards", "empty")
	testsupport.WriteFile(t, filepath.Join(emptyDir, "notes.txt"), 16)

	_, _, err := runCLI(t, []string{"add", emptyDir}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "no camera files found") {
		t.Fatalf("expected no camera files error, got %v", err)
	}
}
