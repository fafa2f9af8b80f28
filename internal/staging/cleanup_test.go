package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lightbox/internal/logging"
)

func mkStagingDir(t *testing.T, root, name string) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(path, "shots.json"), []byte(`{"records":[]}`), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func backdate(t *testing.T, path string, age time.Duration) {
	t.Helper()
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("backdate %s: %v", path, err)
	}
}

func TestCleanStaleSkipsMissingRoot(t *testing.T) {
	for _, root := range []string{"", "   ", filepath.Join(t.TempDir(), "absent")} {
		result := CleanStale(context.Background(), root, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("root %q: expected empty result, got %+v", root, result)
		}
	}
}

func TestCleanStaleRemovesOldDirectories(t *testing.T) {
	root := t.TempDir()
	old := mkStagingDir(t, root, "DEADBEEF01")
	backdate(t, old, 2*time.Hour)
	fresh := mkStagingDir(t, root, "CAFEBABE02")

	result := CleanStale(context.Background(), root, time.Hour, logging.NewNop())

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != old {
		t.Fatalf("removed = %v, want [%s]", result.Removed, old)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("stale directory still present")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh directory removed: %v", err)
	}
}

func TestCleanStaleZeroAgeRemovesEverything(t *testing.T) {
	root := t.TempDir()
	dir := mkStagingDir(t, root, "DEADBEEF01")
	backdate(t, dir, time.Minute)

	result := CleanStale(context.Background(), root, 0, logging.NewNop())

	if len(result.Removed) != 1 {
		t.Fatalf("removed = %v, want one entry", result.Removed)
	}
}

func TestCleanStaleLeavesFiles(t *testing.T) {
	root := t.TempDir()
	stray := filepath.Join(root, "leftover.json")
	if err := os.WriteFile(stray, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}
	backdate(t, stray, 2*time.Hour)

	result := CleanStale(context.Background(), root, time.Hour, logging.NewNop())

	if len(result.Removed) != 0 {
		t.Fatalf("removed = %v, want none", result.Removed)
	}
	if _, err := os.Stat(stray); err != nil {
		t.Errorf("stray file removed: %v", err)
	}
}

func TestCleanOrphanedRemovesUnclaimed(t *testing.T) {
	root := t.TempDir()
	claimed := mkStagingDir(t, root, "DEADBEEF01")
	orphan := mkStagingDir(t, root, "0BADF00D02")

	active := map[string]struct{}{"DEADBEEF01": {}}
	result := CleanOrphaned(context.Background(), root, active, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != orphan {
		t.Fatalf("removed = %v, want [%s]", result.Removed, orphan)
	}
	if _, err := os.Stat(claimed); err != nil {
		t.Errorf("claimed directory removed: %v", err)
	}
}

func TestCleanOrphanedMatchesCaseInsensitively(t *testing.T) {
	root := t.TempDir()
	dir := mkStagingDir(t, root, "deadbeef01")

	active := map[string]struct{}{"DEADBEEF01": {}}
	result := CleanOrphaned(context.Background(), root, active, logging.NewNop())

	if len(result.Removed) != 0 {
		t.Fatalf("removed = %v, want none", result.Removed)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("claimed directory removed: %v", err)
	}
}

func TestCleanOrphanedLeavesQueueFallbackDirs(t *testing.T) {
	root := t.TempDir()
	fallback := mkStagingDir(t, root, "queue-17")
	orphan := mkStagingDir(t, root, "0BADF00D02")

	result := CleanOrphaned(context.Background(), root, map[string]struct{}{}, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != orphan {
		t.Fatalf("removed = %v, want [%s]", result.Removed, orphan)
	}
	if _, err := os.Stat(fallback); err != nil {
		t.Errorf("queue fallback directory removed: %v", err)
	}
}

func TestListDirectories(t *testing.T) {
	root := t.TempDir()
	dir := mkStagingDir(t, root, "DEADBEEF01")
	if err := os.WriteFile(filepath.Join(dir, "groups.json"), []byte("12345"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	dirs, err := ListDirectories(root)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 1 {
		t.Fatalf("got %d directories, want 1", len(dirs))
	}
	info := dirs[0]
	if info.Name != "DEADBEEF01" {
		t.Errorf("Name = %q, want DEADBEEF01", info.Name)
	}
	if info.Path != dir {
		t.Errorf("Path = %q, want %q", info.Path, dir)
	}
	if info.ModTime.IsZero() {
		t.Error("ModTime is zero")
	}
	wantSize := int64(len(`{"records":[]}`) + len("12345"))
	if info.Size != wantSize {
		t.Errorf("Size = %d, want %d", info.Size, wantSize)
	}
}

func TestListDirectoriesMissingRoot(t *testing.T) {
	for _, root := range []string{"", filepath.Join(t.TempDir(), "absent")} {
		dirs, err := ListDirectories(root)
		if err != nil {
			t.Fatalf("root %q: %v", root, err)
		}
		if dirs != nil {
			t.Errorf("root %q: got %v, want nil", root, dirs)
		}
	}
}
