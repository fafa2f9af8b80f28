package scanner_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lightbox/internal/exposure"
	"lightbox/internal/logging"
	"lightbox/internal/queue"
	"lightbox/internal/scanner"
	"lightbox/internal/services"
	"lightbox/internal/testsupport"
)

type stubExtractor struct {
	entries map[string]map[string]any
	calls   [][]string
	err     error
}

func (s *stubExtractor) Extract(ctx context.Context, files []string) ([]map[string]any, error) {
	s.calls = append(s.calls, append([]string(nil), files...))
	if s.err != nil {
		return nil, s.err
	}
	out := make([]map[string]any, 0, len(files))
	for _, file := range files {
		if fields, ok := s.entries[file]; ok {
			out = append(out, fields)
			continue
		}
		out = append(out, map[string]any{
			"SourceFile": file,
			"Directory":  filepath.Dir(file),
			"FileName":   filepath.Base(file),
		})
	}
	return out, nil
}

func entryFor(file, timestamp string, ev float64) map[string]any {
	return map[string]any{
		"SourceFile":        file,
		"Directory":         filepath.Dir(file),
		"FileName":          filepath.Base(file),
		"DateTimeOriginal":  timestamp,
		"ExposureBiasValue": ev,
		"ExposureTime":      "1/125",
		"ISO":               float64(100),
		"FNumber":           8.0,
		"FocalLength":       "24.0 mm",
	}
}

type stubNotifier struct {
	ingests []string
	scans   []int
}

func (s *stubNotifier) NotifyIngestDetected(ctx context.Context, sourcePath, sessionLabel string) error {
	s.ingests = append(s.ingests, sessionLabel)
	return nil
}

func (s *stubNotifier) NotifyScanComplete(ctx context.Context, sessionLabel string, shotCount int) error {
	s.scans = append(s.scans, shotCount)
	return nil
}

func (s *stubNotifier) NotifyGroupingComplete(ctx context.Context, sessionLabel string, groups, approved, review, hold int) error {
	return nil
}

func (s *stubNotifier) NotifyOrganizationCompleted(ctx context.Context, sessionLabel, libraryPath string) error {
	return nil
}

func (s *stubNotifier) NotifyReviewNeeded(ctx context.Context, sessionLabel, reason string) error {
	return nil
}

func (s *stubNotifier) NotifyQueueStarted(ctx context.Context, count int) error { return nil }

func (s *stubNotifier) NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	return nil
}

func (s *stubNotifier) NotifyError(ctx context.Context, err error, contextLabel string) error {
	return nil
}

func (s *stubNotifier) TestNotification(ctx context.Context) error { return nil }

func TestScannerBuildsShotsFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(testsupport.BaseDir(cfg), "desert_shoot")
	names := []string{"IMG_0001.ARW", "IMG_0002.ARW", "IMG_0003.ARW"}
	extractor := &stubExtractor{entries: map[string]map[string]any{}}
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range names {
		path := filepath.Join(source, name)
		testsupport.WriteFile(t, path, 2048)
		ts := base.Add(time.Duration(i) * time.Second).Format("2006:01:02 15:04:05")
		extractor.entries[path] = entryFor(path, ts, float64(i-1)*2)
	}

	item := testsupport.NewSource(t, store, source, "fp-scan")
	item.Status = queue.StatusScanning
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	notifier := &stubNotifier{}
	handler := scanner.NewScannerWithDependencies(cfg, store, logging.NewNop(), extractor, notifier)
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if item.SessionLabel != "Desert Shoot" {
		t.Fatalf("unexpected session label: %q", item.SessionLabel)
	}
	if item.SourceFingerprint == "" {
		t.Fatal("expected source fingerprint")
	}
	if item.ShotCount != len(names) {
		t.Fatalf("expected %d shots, got %d", len(names), item.ShotCount)
	}
	if item.ProgressMessage != "Extracted 3 shots" {
		t.Fatalf("unexpected progress message: %q", item.ProgressMessage)
	}

	payload, err := os.ReadFile(item.ShotsFile)
	if err != nil {
		t.Fatalf("read shots file: %v", err)
	}
	var records []exposure.Record
	if err := json.Unmarshal(payload, &records); err != nil {
		t.Fatalf("decode shots file: %v", err)
	}
	if len(records) != len(names) {
		t.Fatalf("expected %d records, got %d", len(names), len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Time.Before(records[i-1].Time) {
			t.Fatal("expected records in capture order")
		}
	}
	if records[0].EV == nil || *records[0].EV != -2 {
		t.Fatalf("unexpected first EV: %v", records[0].EV)
	}

	if len(extractor.calls) == 0 {
		t.Fatal("expected extractor invocation")
	}
	if len(notifier.ingests) != 1 || notifier.ingests[0] != "Desert Shoot" {
		t.Fatalf("unexpected ingest notifications: %v", notifier.ingests)
	}
	if len(notifier.scans) != 1 || notifier.scans[0] != 3 {
		t.Fatalf("unexpected scan notifications: %v", notifier.scans)
	}
}

func TestScannerDropsTimestamplessFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(testsupport.BaseDir(cfg), "mixed")
	good := filepath.Join(source, "IMG_0001.ARW")
	bad := filepath.Join(source, "IMG_0002.ARW")
	testsupport.WriteFile(t, good, 1024)
	testsupport.WriteFile(t, bad, 1024)

	extractor := &stubExtractor{entries: map[string]map[string]any{
		good: entryFor(good, "2025:06:01 10:00:00", 0),
	}}

	item := testsupport.NewSource(t, store, source, "fp-mixed")
	handler := scanner.NewScannerWithDependencies(cfg, store, logging.NewNop(), extractor, &stubNotifier{})
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if item.ShotCount != 1 {
		t.Fatalf("expected 1 shot after drops, got %d", item.ShotCount)
	}
}

func TestScannerRejectsEmptySource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(testsupport.BaseDir(cfg), "empty")
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatalf("mkdir source: %v", err)
	}

	item := testsupport.NewSource(t, store, source, "fp-empty")
	handler := scanner.NewScannerWithDependencies(cfg, store, logging.NewNop(), &stubExtractor{}, &stubNotifier{})
	err := handler.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected execute error")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if services.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("expected review classification, got %s", services.FailureStatus(err))
	}
}

func TestScannerWrapsExtractorErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(testsupport.BaseDir(cfg), "glacier")
	testsupport.WriteFile(t, filepath.Join(source, "IMG_0001.ARW"), 1024)

	item := testsupport.NewSource(t, store, source, "fp-tool")
	extractor := &stubExtractor{err: errors.New("exiftool exploded")}
	handler := scanner.NewScannerWithDependencies(cfg, store, logging.NewNop(), extractor, &stubNotifier{})
	err := handler.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected execute error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if services.FailureStatus(err) != queue.StatusFailed {
		t.Fatalf("expected failed classification, got %s", services.FailureStatus(err))
	}
}

func TestScannerHealthReady(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)

	handler := scanner.NewScannerWithDependencies(cfg, store, logging.NewNop(), &stubExtractor{}, &stubNotifier{})
	health := handler.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("expected ready health, got %+v", health)
	}
}

func TestScannerHealthMissingClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	handler := scanner.NewScannerWithDependencies(cfg, store, logging.NewNop(), nil, &stubNotifier{})
	health := handler.HealthCheck(context.Background())
	if health.Ready {
		t.Fatalf("expected not ready health, got %+v", health)
	}
	if !strings.Contains(strings.ToLower(health.Detail), "client") {
		t.Fatalf("expected detail to mention client, got %q", health.Detail)
	}
}
