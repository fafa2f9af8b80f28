package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"log/slog"

	"lightbox/internal/config"
	"lightbox/internal/exposure"
	"lightbox/internal/logging"
	"lightbox/internal/notifications"
	"lightbox/internal/queue"
	"lightbox/internal/services"
	"lightbox/internal/services/exiftool"
	"lightbox/internal/stage"
)

// Scanner manages the metadata extraction stage for queued sources.
type Scanner struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	client   exiftool.Extractor
	notifier notifications.Service
}

// NewScanner constructs the scan handler using default dependencies.
func NewScanner(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Scanner {
	var client exiftool.Extractor
	if c, err := exiftool.New(cfg.ExiftoolBinary(), cfg.Exiftool.BatchSize, cfg.Exiftool.ExtractTimeout); err != nil {
		logger.Warn("exiftool client unavailable", logging.Error(err))
	} else {
		client = c
	}
	return NewScannerWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewScannerWithClient keeps a shorthand for tests that only override the extractor.
func NewScannerWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, client exiftool.Extractor) *Scanner {
	return NewScannerWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewScannerWithDependencies allows injecting all collaborators (used in tests).
func NewScannerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client exiftool.Extractor, notifier notifications.Service) *Scanner {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "scanner"))
	}
	return &Scanner{store: store, cfg: cfg, logger: stageLogger, client: client, notifier: notifier}
}

func (s *Scanner) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	item.InitProgress("Scanning", "Starting scan")
	if strings.TrimSpace(item.SessionLabel) == "" {
		item.SessionLabel = DeriveSessionLabel(item.SourcePath)
	}
	logger.Info(
		"starting scan preparation",
		logging.String("session_label", item.SessionLabel),
		logging.String("source_path", strings.TrimSpace(item.SourcePath)),
	)
	if s.notifier != nil {
		if err := s.notifier.NotifyIngestDetected(ctx, item.SourcePath, item.SessionLabel); err != nil {
			logger.Warn("failed to send ingest notification", logging.Error(err))
		}
	}
	return nil
}

func (s *Scanner) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	source := strings.TrimSpace(item.SourcePath)
	if source == "" {
		return services.Wrap(
			services.ErrValidation,
			"scanner",
			"check source",
			"Queue item has no source path; re-add the card or folder",
			nil,
		)
	}
	if info, err := os.Stat(source); err != nil || !info.IsDir() {
		return services.Wrap(
			services.ErrValidation,
			"scanner",
			"check source",
			"Source directory missing or unreadable; reinsert the card",
			err,
		)
	}

	frames, err := CollectFrames(source, s.cfg.Exiftool.IncludeJPEG)
	if err != nil {
		return services.Wrap(
			services.ErrTransient,
			"scanner",
			"walk source",
			"Failed to list source files; check card mount and permissions",
			err,
		)
	}
	if len(frames) == 0 {
		return services.Wrap(
			services.ErrValidation,
			"scanner",
			"collect frames",
			"No RAW files found under the source; nothing to ingest",
			nil,
		)
	}
	logger.Info(
		"collected source frames",
		logging.Int("frames", len(frames)),
		logging.Bool("include_jpeg", s.cfg.Exiftool.IncludeJPEG),
	)
	s.applyProgress(ctx, item, fmt.Sprintf("Found %d files", len(frames)), 10)

	fingerprint, err := Fingerprint(source, frames)
	if err != nil {
		return services.Wrap(
			services.ErrTransient,
			"scanner",
			"fingerprint source",
			"Failed to fingerprint source files; check card readability",
			err,
		)
	}
	item.SourceFingerprint = fingerprint

	if s.client == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"scanner",
			"extract metadata",
			"exiftool client unavailable; check the exiftool installation",
			nil,
		)
	}
	entries, err := s.client.Extract(ctx, frames)
	if err != nil {
		return services.Wrap(
			services.ErrExternalTool,
			"scanner",
			"extract metadata",
			"exiftool extraction failed; check the binary and card readability",
			err,
		)
	}
	s.applyProgress(ctx, item, "Building exposure records", 70)

	records := make([]exposure.Record, 0, len(entries))
	dropped := 0
	for _, fields := range entries {
		record, ok := exposure.BuildRecord(fields)
		if !ok {
			dropped++
			continue
		}
		records = append(records, record)
	}
	if dropped > 0 {
		logger.Warn(
			"dropped files without usable timestamps",
			logging.Int("dropped", dropped),
			logging.Int("kept", len(records)),
		)
	}
	if len(records) == 0 {
		return services.Wrap(
			services.ErrValidation,
			"scanner",
			"build records",
			"No files carried usable capture timestamps; check the camera clock metadata",
			nil,
		)
	}

	stagingRoot := item.StagingRoot(s.cfg.Paths.StagingDir)
	if stagingRoot == "" {
		return services.Wrap(
			services.ErrConfiguration,
			"scanner",
			"resolve staging dir",
			"Staging directory not configured; set staging_dir",
			nil,
		)
	}
	if err := os.MkdirAll(stagingRoot, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"scanner",
			"ensure staging dir",
			"Failed to create staging directory; set staging_dir to a writable location",
			err,
		)
	}
	shotsPath := filepath.Join(stagingRoot, "shots.json")
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, "scanner", "encode shots", "Failed to encode shot records", err)
	}
	if err := os.WriteFile(shotsPath, payload, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "scanner", "write shots", "Failed to write shots.json into staging", err)
	}

	item.ShotsFile = shotsPath
	item.ShotCount = len(records)
	item.SetProgressComplete("Scanned", fmt.Sprintf("Extracted %d shots", len(records)))
	logger.Info(
		"scan completed",
		logging.Int("shots", len(records)),
		logging.Int("dropped", dropped),
		logging.String("shots_file", shotsPath),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifyScanComplete(ctx, item.SessionLabel, len(records)); err != nil {
			logger.Warn("scan completion notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies scan stage dependencies.
func (s *Scanner) HealthCheck(ctx context.Context) stage.Health {
	const name = "scanner"
	if s.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(s.cfg.Paths.StagingDir) == "" {
		return stage.Unhealthy(name, "staging directory not configured")
	}
	if s.client == nil {
		return stage.Unhealthy(name, "exiftool client unavailable")
	}
	binary := strings.TrimSpace(s.cfg.ExiftoolBinary())
	if binary == "" {
		return stage.Unhealthy(name, "exiftool binary not configured")
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("exiftool binary %q not found", binary))
	}
	return stage.Healthy(name)
}

func (s *Scanner) applyProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, s.logger)
	copy := *item
	copy.SetProgress("Scanning", message, percent)
	if err := s.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist progress", logging.Error(err))
		return
	}
	*item = copy
}
