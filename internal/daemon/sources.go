package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"lightbox/internal/config"
	"lightbox/internal/logging"
	"lightbox/internal/notifications"
	"lightbox/internal/queue"
	"lightbox/internal/scanner"
)

// errNoFrames marks a directory with no camera files worth queueing.
var errNoFrames = errors.New("no camera frames found")

// sourceEnqueuer fingerprints source directories and adds them to the queue,
// skipping directories whose fingerprint is already queued.
type sourceEnqueuer struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	notifier notifications.Service
}

func newSourceEnqueuer(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *sourceEnqueuer {
	return &sourceEnqueuer{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "source-enqueuer"),
		notifier: notifier,
	}
}

// Enqueue fingerprints dir and creates a pending queue item for it. When the
// fingerprint matches an existing item the existing item is returned with
// created=false; re-processing a failed item goes through queue retry instead
// of a second row.
func (e *sourceEnqueuer) Enqueue(ctx context.Context, dir, label string) (*queue.Item, bool, error) {
	fingerprint, count, err := scanner.FingerprintSource(dir, e.cfg.Exiftool.IncludeJPEG)
	if err != nil {
		return nil, false, err
	}
	if count == 0 {
		return nil, false, errNoFrames
	}

	existing, err := e.store.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		e.logger.Debug("source already queued",
			logging.String("source_path", dir),
			logging.String("status", string(existing.Status)),
			logging.Int64(logging.FieldItemID, existing.ID))
		return existing, false, nil
	}

	if strings.TrimSpace(label) == "" {
		label = filepath.Base(dir)
	}
	item, err := e.store.NewSource(ctx, dir, label, fingerprint)
	if err != nil {
		return nil, false, err
	}

	e.logger.Info("source queued",
		logging.String(logging.FieldEventType, "source_queued"),
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("source_path", dir),
		logging.String("session_label", label),
		logging.Int("frame_count", count))

	if e.notifier != nil {
		if err := e.notifier.NotifyIngestDetected(ctx, dir, label); err != nil {
			e.logger.Warn("ingest notification failed", logging.Error(err))
		}
	}
	return item, true, nil
}

// ScanWatchDirs sweeps every configured watch directory and enqueues each
// immediate subdirectory holding camera files. Memory cards mount as
// subdirectories of the watch roots, so the roots themselves are never
// treated as sources. Returns the number of newly queued items.
func (e *sourceEnqueuer) ScanWatchDirs(ctx context.Context) int {
	if e == nil || e.cfg == nil {
		return 0
	}

	added := 0
	for _, watchDir := range e.cfg.Paths.WatchDirs {
		entries, err := os.ReadDir(watchDir)
		if err != nil {
			e.logger.Warn("watch directory unreadable",
				logging.String("watch_dir", watchDir),
				logging.Error(err),
				logging.String(logging.FieldEventType, "watch_dir_unreadable"))
			continue
		}
		for _, entry := range entries {
			if ctx.Err() != nil {
				return added
			}
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			candidate := filepath.Join(watchDir, entry.Name())
			_, created, err := e.Enqueue(ctx, candidate, entry.Name())
			if errors.Is(err, errNoFrames) {
				e.logger.Debug("skipping directory without camera files",
					logging.String("source_path", candidate))
				continue
			}
			if err != nil {
				e.logger.Warn("failed to enqueue source",
					logging.String("source_path", candidate),
					logging.Error(err),
					logging.String(logging.FieldEventType, "source_enqueue_failed"))
				continue
			}
			if created {
				added++
			}
		}
	}
	return added
}
