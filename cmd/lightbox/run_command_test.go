package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lightbox/internal/testsupport"
)

// installExtractStub shadows the plain version-only exiftool stub with one
// that answers -json probes, so the inline pipeline can run end to end.
func installExtractStub(t *testing.T, dir string, payload string) {
	t.Helper()
	binDir := filepath.Join(dir, "extract-bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	script := fmt.Sprintf("#!/bin/sh\nif [ \"$1\" = \"-ver\" ]; then\n    echo \"13.10\"\n    exit 0\nfi\ncat <<'JSON'\n%s\nJSON\n", payload)
	if err := os.WriteFile(filepath.Join(binDir, "exiftool"), []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestRunCommandGroupsDirectory(t *testing.T) {
	env := setupCLITestEnv(t)

	cardDir := filepath.Join(env.baseDir, "cards", "sunset")
	testsupport.WriteFile(t, filepath.Join(cardDir, "DSC0001.ARW"), 512)
	testsupport.WriteFile(t, filepath.Join(cardDir, "DSC0002.ARW"), 512)
	testsupport.WriteFile(t, filepath.Join(cardDir, "DSC0003.ARW"), 512)

	payload := `[
  {"SourceFile":"DSC0001.ARW","SubSecDateTimeOriginal":"2024:06:09 19:40:00.10","ExposureBiasValue":"-2","ExposureTime":"1/125","FNumber":"8.0","FocalLength":"24.0 mm","ISO":100},
  {"SourceFile":"DSC0002.ARW","SubSecDateTimeOriginal":"2024:06:09 19:40:00.60","ExposureBiasValue":"0","ExposureTime":"1/125","FNumber":"8.0","FocalLength":"24.0 mm","ISO":100},
  {"SourceFile":"DSC0003.ARW","SubSecDateTimeOriginal":"2024:06:09 19:40:01.10","ExposureBiasValue":"+2","ExposureTime":"1/125","FNumber":"8.0","FocalLength":"24.0 mm","ISO":100}
]`
	installExtractStub(t, env.baseDir, payload)

	out, _, err := runCLI(t, []string{"run", cardDir}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Session:")
	requireContains(t, out, "3 shots in 1 stacks (1 approved, 0 review, 0 hold)")
	requireContains(t, out, "Approved (HDR)")
	requireContains(t, out, "group_0001_")
}

func TestRunCommandSkipsRecordsWithoutTimestamps(t *testing.T) {
	env := setupCLITestEnv(t)

	cardDir := filepath.Join(env.baseDir, "cards", "partial")
	testsupport.WriteFile(t, filepath.Join(cardDir, "DSC0001.ARW"), 512)
	testsupport.WriteFile(t, filepath.Join(cardDir, "DSC0002.ARW"), 512)

	payload := `[
  {"SourceFile":"DSC0001.ARW","DateTimeOriginal":"2024:06:09 19:40:00","ExposureTime":"1/60"},
  {"SourceFile":"DSC0002.ARW","ExposureTime":"1/60"}
]`
	installExtractStub(t, env.baseDir, payload)

	out, _, err := runCLI(t, []string{"run", cardDir}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Skipped 1 files without usable timestamps")
	requireContains(t, out, "1 shots in 1 stacks")
}

func TestRunCommandRejectsEmptyDirectory(t *testing.T) {
	env := setupCLITestEnv(t)

	emptyDir := filepath.Join(env.baseDir, "cards", "blank")
	testsupport.WriteFile(t, filepath.Join(emptyDir, "README.txt"), 8)

	_, _, err := runCLI(t, []string{"run", emptyDir}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "no camera files found") {
		t.Fatalf("expected no camera files error, got %v", err)
	}
}
