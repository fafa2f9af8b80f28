package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"lightbox/internal/config"
)

func writeExiftoolStub(t *testing.T) string {
	t.Helper()
	stub := filepath.Join(t.TempDir(), "exiftool")
	script := []byte("#!/bin/sh\necho \"12.76\"\n")
	if err := os.WriteFile(stub, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return stub
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDirectoryReadable_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryReadable("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryReadable_NotExist(t *testing.T) {
	result := CheckDirectoryReadable("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
}

func TestCheckExiftool_OK(t *testing.T) {
	stub := writeExiftoolStub(t)
	result := CheckExiftool(context.Background(), stub)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result.Detail != "version 12.76" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckExiftool_NotConfigured(t *testing.T) {
	result := CheckExiftool(context.Background(), "   ")
	if result.Passed {
		t.Fatal("expected failure for blank binary")
	}
	if result.Detail != "command not configured" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckExiftool_Missing(t *testing.T) {
	result := CheckExiftool(context.Background(), "definitely-not-exiftool")
	if result.Passed {
		t.Fatal("expected failure for missing binary")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := config.Default()
	cfg.Exiftool.Binary = writeExiftoolStub(t)

	statuses := CheckSystemDeps(&cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Name != "ExifTool" {
		t.Fatalf("unexpected first status: %s", statuses[0].Name)
	}
	if !statuses[0].Available {
		t.Fatalf("expected exiftool stub to be available: %s", statuses[0].Detail)
	}
	if statuses[0].Resolved == "" {
		t.Fatal("expected resolved path for exiftool stub")
	}
	if statuses[1].Name != "lsblk" || !statuses[1].Optional {
		t.Fatalf("expected optional lsblk status, got %#v", statuses[1])
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Paths.LibraryDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.WatchDirs = []string{t.TempDir()}
	cfg.Exiftool.Binary = writeExiftoolStub(t)

	results := RunAll(context.Background(), &cfg)
	// staging + library + log + watch + exiftool
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestParseCardList(t *testing.T) {
	output := `NAME="sda" LABEL="" FSTYPE="" RM="0" MOUNTPOINT=""
NAME="sda1" LABEL="root" FSTYPE="ext4" RM="0" MOUNTPOINT="/"
NAME="sdb" LABEL="" FSTYPE="" RM="1" MOUNTPOINT=""
NAME="sdb1" LABEL="EOS_DIGITAL" FSTYPE="exfat" RM="1" MOUNTPOINT="/media/kai/EOS DIGITAL"
`

	cards := ParseCardList(output)
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}
	card := cards[0]
	if card.Device != "/dev/sdb1" {
		t.Fatalf("unexpected device: %s", card.Device)
	}
	if card.Label != "EOS_DIGITAL" {
		t.Fatalf("unexpected label: %s", card.Label)
	}
	if card.FSType != "exfat" {
		t.Fatalf("unexpected fstype: %s", card.FSType)
	}
	if card.MountPoint != "/media/kai/EOS DIGITAL" {
		t.Fatalf("mount point with spaces not preserved: %s", card.MountPoint)
	}
}

func TestParseCardList_Empty(t *testing.T) {
	if cards := ParseCardList(""); cards != nil {
		t.Fatalf("expected nil cards, got %v", cards)
	}
}

func TestCardDetail(t *testing.T) {
	mounted := CardProbe{Device: "/dev/sdb1", Label: "EOS_DIGITAL", FSType: "exfat", MountPoint: "/media/kai/EOS_DIGITAL"}
	if got := mounted.CardDetail(); got != "EXFAT card 'EOS_DIGITAL' at /media/kai/EOS_DIGITAL" {
		t.Fatalf("unexpected detail: %s", got)
	}

	unmounted := CardProbe{Device: "/dev/sdb1", Label: "EOS_DIGITAL", FSType: "exfat"}
	if got := unmounted.CardDetail(); got != "EXFAT card 'EOS_DIGITAL' on /dev/sdb1 (not mounted)" {
		t.Fatalf("unexpected detail: %s", got)
	}

	unlabeled := CardProbe{Device: "/dev/mmcblk0p1", FSType: "vfat"}
	if got := unlabeled.CardDetail(); got != "VFAT card 'unlabeled' on /dev/mmcblk0p1 (not mounted)" {
		t.Fatalf("unexpected detail: %s", got)
	}
}
