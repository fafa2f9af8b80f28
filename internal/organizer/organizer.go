package organizer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"lightbox/internal/config"
	"lightbox/internal/fileutil"
	"lightbox/internal/logging"
	"lightbox/internal/notifications"
	"lightbox/internal/queue"
	"lightbox/internal/services"
	"lightbox/internal/stackplan"
	"lightbox/internal/stage"
	"lightbox/internal/textutil"
)

// Organizer manages the library placement stage.
type Organizer struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
}

// NewOrganizer constructs the organizing handler using default dependencies.
func NewOrganizer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Organizer {
	return NewOrganizerWithDependencies(cfg, store, logger, notifications.NewService(cfg))
}

// NewOrganizerWithDependencies allows injecting collaborators (used in tests).
func NewOrganizerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Organizer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "organizer"))
	}
	return &Organizer{store: store, cfg: cfg, logger: stageLogger, notifier: notifier}
}

func (o *Organizer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, o.logger)
	item.InitProgress("Organizing", "Starting organization")
	logger.Info(
		"starting organization preparation",
		logging.String("session_label", strings.TrimSpace(item.SessionLabel)),
		logging.Int("groups", item.GroupCount),
	)
	return nil
}

func (o *Organizer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, o.logger)

	env, err := o.loadPlan(item)
	if err != nil {
		return err
	}
	if len(env.Groups) == 0 {
		return services.Wrap(
			services.ErrValidation,
			"organizer",
			"check plan",
			"No stacks to organize; rerun grouping",
			nil,
		)
	}

	libraryDir := strings.TrimSpace(o.cfg.Paths.LibraryDir)
	if libraryDir == "" {
		return services.Wrap(
			services.ErrConfiguration,
			"organizer",
			"resolve library dir",
			"Library directory not configured; set library_dir",
			nil,
		)
	}

	label := strings.TrimSpace(item.SessionLabel)
	if label == "" {
		label = strings.TrimSpace(env.Session)
	}
	if label == "" {
		label = "Untitled Session"
	}
	sessionDir := filepath.Join(libraryDir, textutil.SanitizeFileName(label))
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"organizer",
			"ensure session dir",
			"Failed to create the session folder; set library_dir to a writable location",
			err,
		)
	}

	totalBytes, err := planBytes(env.Groups)
	if err != nil {
		return services.Wrap(
			services.ErrValidation,
			"organizer",
			"stat sources",
			"Source files missing; keep the card mounted until organizing finishes",
			err,
		)
	}
	item.ProgressTotalBytes = totalBytes
	item.ProgressBytesCopied = 0
	o.applyProgress(ctx, item, fmt.Sprintf("Placing %d stacks", len(env.Groups)), 5)

	var copied int64
	for idx := range env.Groups {
		group := &env.Groups[idx]
		ordered := presentationOrder(group.Records)
		folderName := GroupFolderName(group.Index, group.Records)
		groupDir := filepath.Join(sessionDir, folderName)
		if err := os.MkdirAll(groupDir, 0o755); err != nil {
			return services.Wrap(
				services.ErrTransient,
				"organizer",
				"create group folder",
				fmt.Sprintf("Failed to create %s in the library", folderName),
				err,
			)
		}
		if err := writeManifest(filepath.Join(groupDir, manifestFileName), ordered); err != nil {
			return services.Wrap(
				services.ErrTransient,
				"organizer",
				"write manifest",
				fmt.Sprintf("Failed to write the manifest for %s", folderName),
				err,
			)
		}
		if err := writeConfidence(filepath.Join(groupDir, confidenceFileName), group.Confidence); err != nil {
			return services.Wrap(
				services.ErrTransient,
				"organizer",
				"write confidence",
				fmt.Sprintf("Failed to write the confidence sidecar for %s", folderName),
				err,
			)
		}
		for _, record := range ordered {
			base := filepath.Base(record.Path)
			dst := fileutil.UniquePath(groupDir, base)
			if err := fileutil.CopyFileVerified(record.Path, dst); err != nil {
				return services.Wrap(
					services.ErrTransient,
					"organizer",
					"copy shot",
					fmt.Sprintf("Failed to copy %s into the library", base),
					err,
				)
			}
			if info, statErr := os.Stat(dst); statErr == nil {
				copied += info.Size()
			}
			o.applyByteProgress(ctx, item, fmt.Sprintf("Copying into %s", folderName), copied, totalBytes)
		}
		env.SetFolderName(group.Index, folderName)
		logger.Info(
			"stack placed",
			logging.Int("group", group.Index),
			logging.String("folder", folderName),
			logging.Int("shots", len(group.Records)),
			logging.Bool("approved", group.Confidence.AutoApproved),
		)
	}

	if err := queue.PersistGroupPlan(ctx, o.store, item, env); err != nil {
		return services.Wrap(
			services.ErrValidation,
			"organizer",
			"persist group plan",
			"Failed to record library folders on the group plan",
			err,
		)
	}
	o.refreshGroupsFile(ctx, item, env)

	summary := env.Counts()
	item.OutputDir = sessionDir
	if summary.Hold > 0 || summary.Review > 0 {
		item.NeedsReview = true
		item.ReviewReason = reviewReason(summary)
	}
	item.SetProgressComplete("Organized", fmt.Sprintf("Placed %d stacks in %s", summary.Groups, sessionDir))
	logger.Info(
		"organization completed",
		logging.Int("groups", summary.Groups),
		logging.Int("shots", summary.Shots),
		logging.Int("approved", summary.Approved),
		logging.Int("review", summary.Review),
		logging.Int("hold", summary.Hold),
		logging.String("library_path", sessionDir),
	)

	if o.notifier != nil {
		if err := o.notifier.NotifyOrganizationCompleted(ctx, label, sessionDir); err != nil {
			logger.Warn("organization notification failed", logging.Error(err))
		}
		if item.NeedsReview {
			if err := o.notifier.NotifyReviewNeeded(ctx, label, item.ReviewReason); err != nil {
				logger.Warn("review notification failed", logging.Error(err))
			}
		}
	}
	return nil
}

// HealthCheck verifies organizing stage dependencies.
func (o *Organizer) HealthCheck(ctx context.Context) stage.Health {
	const name = "organizer"
	if o.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(o.cfg.Paths.LibraryDir) == "" {
		return stage.Unhealthy(name, "library directory not configured")
	}
	return stage.Healthy(name)
}

// loadPlan prefers the inline group plan and falls back to groups.json in
// staging for items that predate inline persistence.
func (o *Organizer) loadPlan(item *queue.Item) (stackplan.Envelope, error) {
	env, err := stage.ParseGroupPlan(item.GroupPlanData)
	if err != nil {
		return stackplan.Envelope{}, err
	}
	if len(env.Groups) > 0 {
		return env, nil
	}
	groupsPath := strings.TrimSpace(item.GroupsFile)
	if groupsPath == "" {
		return env, nil
	}
	payload, err := os.ReadFile(groupsPath)
	if err != nil {
		return stackplan.Envelope{}, services.Wrap(
			services.ErrValidation,
			"organizer",
			"load groups",
			"Group plan missing from staging; rerun grouping",
			err,
		)
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return stackplan.Envelope{}, services.Wrap(
			services.ErrValidation,
			"organizer",
			"decode groups",
			"Group plan corrupted; rerun grouping",
			err,
		)
	}
	return env, nil
}

// refreshGroupsFile mirrors the realised folder names into groups.json so the
// staging copy matches what landed in the library. Failures only warn; the
// inline plan already carries the folders.
func (o *Organizer) refreshGroupsFile(ctx context.Context, item *queue.Item, env stackplan.Envelope) {
	groupsPath := strings.TrimSpace(item.GroupsFile)
	if groupsPath == "" {
		return
	}
	logger := logging.WithContext(ctx, o.logger)
	payload, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		logger.Warn("failed to encode groups.json", logging.Error(err))
		return
	}
	if err := os.WriteFile(groupsPath, payload, 0o644); err != nil {
		logger.Warn("failed to refresh groups.json", logging.Error(err))
	}
}

func reviewReason(sum stackplan.Summary) string {
	attention := sum.Hold + sum.Review
	return fmt.Sprintf("%d of %d stacks need review before use", attention, sum.Groups)
}

func (o *Organizer) applyProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, o.logger)
	copy := *item
	copy.SetProgress("Organizing", message, percent)
	if err := o.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist progress", logging.Error(err))
		return
	}
	*item = copy
}

// applyByteProgress persists copy progress without touching status or
// heartbeat columns, so it is safe to call from inside the copy loop.
func (o *Organizer) applyByteProgress(ctx context.Context, item *queue.Item, message string, copied, total int64) {
	percent := 5.0
	if total > 0 {
		percent += 90 * float64(copied) / float64(total)
	}
	item.ProgressBytesCopied = copied
	item.ProgressTotalBytes = total
	item.SetProgress("Organizing", message, percent)
	if err := o.store.UpdateProgress(ctx, item); err != nil {
		logging.WithContext(ctx, o.logger).Warn("failed to persist copy progress", logging.Error(err))
	}
}
