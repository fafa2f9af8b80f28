package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"lightbox/internal/api"
	"lightbox/internal/ipc"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Lightbox", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Lightbox:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Lightbox", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestStatusKindFromSeverity(t *testing.T) {
	cases := []struct {
		severity string
		want     statusKind
	}{
		{"ok", statusOK},
		{"OK", statusOK},
		{"warn", statusWarn},
		{"warning", statusWarn},
		{"error", statusError},
		{"", statusInfo},
		{"unknown", statusInfo},
	}
	for _, tc := range cases {
		if got := statusKindFromSeverity(tc.severity); got != tc.want {
			t.Fatalf("statusKindFromSeverity(%q) = %v, want %v", tc.severity, got, tc.want)
		}
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader("Queue Status", false)
	if len(lines) != 2 {
		t.Fatalf("expected header and rule, got %d lines", len(lines))
	}
	if lines[0] != "== Queue Status ==" {
		t.Fatalf("unexpected header line %q", lines[0])
	}
	if lines[1] != strings.Repeat("-", len(lines[0])) {
		t.Fatalf("rule length mismatch: %q", lines[1])
	}
}

func TestDependencyLines(t *testing.T) {
	summary := api.DependencySummary{Severity: "error", Detail: "1 required dependency missing"}
	deps := []ipc.DependencyStatus{
		{Name: "exiftool", Available: false, Severity: "error"},
		{Name: "exiftool", Available: true, Command: "exiftool"},
		{Name: "ntfy", Available: false, Optional: true, Detail: "not configured", Severity: "warn"},
	}
	lines := dependencyLines(deps, summary, false)
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[ERROR]") || !strings.Contains(lines[0], "Summary") {
		t.Fatalf("expected summary line first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] not available") {
		t.Fatalf("expected error detail in second line, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[OK] Ready (command: exiftool)") {
		t.Fatalf("expected ready detail in third line, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "[WARN] not configured") {
		t.Fatalf("expected warn detail in fourth line, got %q", lines[3])
	}
	if !strings.Contains(lines[4], "Missing dependencies:") {
		t.Fatalf("expected missing dependencies summary, got %q", lines[4])
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
