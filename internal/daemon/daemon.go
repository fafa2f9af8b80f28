package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"lightbox/internal/config"
	"lightbox/internal/logging"
	"lightbox/internal/notifications"
	"lightbox/internal/queue"
	"lightbox/internal/stackplan"
	"lightbox/internal/workflow"
)

// Daemon coordinates background processing and enforces single-instance
// execution via a lock file next to the queue database.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	notifier notifications.Service
	logPath  string

	lockPath string
	lock     *flock.Flock

	sources *sourceEnqueuer
	cards   *cardMonitor
	rescans *rescanScheduler

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	Workflow       workflow.StatusSummary
	QueueDBPath    string
	LockFilePath   string
	CardMonitoring bool
}

// New constructs a daemon with initialized dependencies. The log path is
// run-scoped (the bootstrap names one file per daemon start) and is served
// back to CLI clients through the LogTail RPC.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager, logPath string) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	notifier := notifications.NewService(cfg)
	sources := newSourceEnqueuer(cfg, store, logger, notifier)
	lockPath := filepath.Join(cfg.Paths.LogDir, "lightboxd.lock")

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		workflow: wf,
		notifier: notifier,
		logPath:  logPath,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		sources:  sources,
	}
	d.cards = newCardMonitor(cfg, logger, d.rescanWatchDirs)
	d.rescans = newRescanScheduler(cfg, logger, d.rescanWatchDirs)
	return d, nil
}

// Start launches the workflow manager, card monitor, and rescan schedule,
// and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another lightbox daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	// Card detection and scheduled rescans are conveniences; the daemon is
	// useful for manual adds even when neither can run.
	if err := d.cards.Start(d.ctx); err != nil {
		d.logger.Warn("card monitor unavailable",
			logging.Error(err),
			logging.String(logging.FieldEventType, "card_monitor_unavailable"),
			logging.String(logging.FieldErrorHint, "insert events will not be detected; use lightbox add or the rescan schedule"))
	}
	if err := d.rescans.Start(d.ctx); err != nil {
		d.logger.Warn("rescan schedule rejected",
			logging.Error(err),
			logging.String(logging.FieldEventType, "rescan_schedule_invalid"),
			logging.String(logging.FieldErrorHint, "fix workflow.rescan_schedule in the configuration"))
	}

	d.running.Store(true)
	d.logger.Info("lightbox daemon started", logging.String("lock", d.lockPath))

	// Catch anything that arrived while the daemon was down.
	d.rescanWatchDirs(d.ctx)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.rescans.Stop()
	d.cards.Stop()
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("lightbox daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// ListQueue returns queue items filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	if len(statuses) == 0 {
		return d.store.List(ctx)
	}
	return d.store.List(ctx, statuses...)
}

// GetQueueItem returns one queue item, or nil when the ID is unknown.
func (d *Daemon) GetQueueItem(ctx context.Context, id int64) (*queue.Item, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	return d.store.GetByID(ctx, id)
}

// ClearQueue removes all queue items.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.Clear(ctx)
}

// ClearCompleted removes only completed queue items.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes only failed queue items.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearFailed(ctx)
}

// ResetStuck rolls in-flight items back to the start of their stage.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ResetStuckProcessing(ctx)
}

// RetryFailed resets failed items (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.RetryFailed(ctx, ids...)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	if d.store == nil {
		return queue.HealthSummary{}, errors.New("queue store unavailable")
	}
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	if d.store == nil {
		return queue.DatabaseHealth{}, errors.New("queue store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// AddSource enqueues a source directory for ingest. A directory whose
// fingerprint already matches a queued item returns that item instead of a
// duplicate.
func (d *Daemon) AddSource(ctx context.Context, sourcePath, label string) (*queue.Item, bool, error) {
	if d.store == nil {
		return nil, false, errors.New("queue store unavailable")
	}
	trimmed := strings.TrimSpace(sourcePath)
	if trimmed == "" {
		return nil, false, errors.New("source path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, false, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, false, fmt.Errorf("stat source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, false, fmt.Errorf("source path %q is not a directory", absPath)
	}

	item, created, err := d.sources.Enqueue(ctx, absPath, label)
	if errors.Is(err, errNoFrames) {
		return nil, false, fmt.Errorf("no camera files found under %s", absPath)
	}
	if err != nil {
		return nil, false, err
	}
	return item, created, nil
}

// ItemGroups loads the group plan recorded for a queue item. The second
// return value is false when the item does not exist.
func (d *Daemon) ItemGroups(ctx context.Context, id int64) (stackplan.Envelope, bool, error) {
	if d.store == nil {
		return stackplan.Envelope{}, false, errors.New("queue store unavailable")
	}
	item, err := d.store.GetByID(ctx, id)
	if err != nil {
		return stackplan.Envelope{}, false, err
	}
	if item == nil {
		return stackplan.Envelope{}, false, nil
	}

	env, err := stackplan.Parse(item.GroupPlanData)
	if err != nil {
		return stackplan.Envelope{}, true, fmt.Errorf("parse group plan: %w", err)
	}
	if len(env.Groups) > 0 {
		return env, true, nil
	}
	groupsPath := strings.TrimSpace(item.GroupsFile)
	if groupsPath == "" {
		return env, true, nil
	}
	payload, err := os.ReadFile(groupsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return env, true, nil
		}
		return stackplan.Envelope{}, true, fmt.Errorf("read groups file: %w", err)
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return stackplan.Envelope{}, true, fmt.Errorf("decode groups file: %w", err)
	}
	return env, true, nil
}

// LogPath returns the path to the daemon log file for this run.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := d.workflow.Status(ctx)
	return Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		Workflow:       summary,
		QueueDBPath:    filepath.Join(d.cfg.Paths.LogDir, "queue.db"),
		LockFilePath:   d.lockPath,
		CardMonitoring: d.cards.Running(),
	}
}

// rescanWatchDirs sweeps the configured watch directories for new sources.
// It serves as the card monitor callback and the cron job body.
func (d *Daemon) rescanWatchDirs(ctx context.Context) {
	if d.sources == nil {
		return
	}
	added := d.sources.ScanWatchDirs(ctx)
	if added > 0 {
		d.logger.Info("watch directory rescan queued new sources",
			logging.Int("queued_count", added),
			logging.String(logging.FieldEventType, "watch_rescan_complete"))
	}
}
