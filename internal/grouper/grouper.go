package grouper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"lightbox/internal/config"
	"lightbox/internal/confidence"
	"lightbox/internal/exposure"
	"lightbox/internal/grouping"
	"lightbox/internal/logging"
	"lightbox/internal/notifications"
	"lightbox/internal/queue"
	"lightbox/internal/services"
	"lightbox/internal/stackplan"
	"lightbox/internal/stage"
)

// Grouper manages the bracket detection stage.
type Grouper struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
}

// NewGrouper constructs the grouping handler using default dependencies.
func NewGrouper(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Grouper {
	return NewGrouperWithDependencies(cfg, store, logger, notifications.NewService(cfg))
}

// NewGrouperWithDependencies allows injecting collaborators (used in tests).
func NewGrouperWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Grouper {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "grouper"))
	}
	return &Grouper{store: store, cfg: cfg, logger: stageLogger, notifier: notifier}
}

func (g *Grouper) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, g.logger)
	item.InitProgress("Grouping", "Starting grouping")
	logger.Info(
		"starting grouping preparation",
		logging.String("session_label", strings.TrimSpace(item.SessionLabel)),
		logging.Int("shots", item.ShotCount),
	)
	return nil
}

func (g *Grouper) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, g.logger)

	records, err := g.loadRecords(item)
	if err != nil {
		return err
	}
	g.applyProgress(ctx, item, fmt.Sprintf("Grouping %d shots", len(records)), 20)

	groups := grouping.Pipeline(records, GroupingParams(g.cfg))
	scoreParams := ConfidenceParams(g.cfg)

	env := stackplan.Envelope{
		Fingerprint: item.SourceFingerprint,
		Session:     item.SessionLabel,
		Groups:      make([]stackplan.Group, 0, len(groups)),
	}
	for idx, members := range groups {
		env.Groups = append(env.Groups, stackplan.Group{
			Index:      idx + 1,
			Records:    members,
			Confidence: confidence.Score(members, scoreParams),
		})
	}
	summary := env.Counts()
	g.applyProgress(ctx, item, "Scoring complete", 70)

	stagingRoot := item.StagingRoot(g.cfg.Paths.StagingDir)
	if stagingRoot == "" {
		return services.Wrap(
			services.ErrConfiguration,
			"grouper",
			"resolve staging dir",
			"Staging directory not configured; set staging_dir",
			nil,
		)
	}
	if err := os.MkdirAll(stagingRoot, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"grouper",
			"ensure staging dir",
			"Failed to create staging directory; set staging_dir to a writable location",
			err,
		)
	}
	groupsPath := filepath.Join(stagingRoot, "groups.json")
	payload, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, "grouper", "encode groups", "Failed to encode the group plan", err)
	}
	if err := os.WriteFile(groupsPath, payload, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "grouper", "write groups", "Failed to write groups.json into staging", err)
	}

	item.GroupsFile = groupsPath
	item.GroupCount = summary.Groups
	item.ApprovedCount = summary.Approved
	item.ReviewCount = summary.Review
	item.HoldCount = summary.Hold
	if err := queue.PersistGroupPlan(ctx, g.store, item, env); err != nil {
		return services.Wrap(services.ErrValidation, "grouper", "persist group plan", "Failed to persist the group plan", err)
	}

	item.SetProgressComplete("Grouped", fmt.Sprintf(
		"%d stacks (%d approved, %d review, %d hold)",
		summary.Groups, summary.Approved, summary.Review, summary.Hold,
	))
	logger.Info(
		"grouping completed",
		logging.Int("groups", summary.Groups),
		logging.Int("approved", summary.Approved),
		logging.Int("review", summary.Review),
		logging.Int("hold", summary.Hold),
		logging.Int("hdr_candidates", summary.HDR),
		logging.String("groups_file", groupsPath),
	)

	if g.notifier != nil {
		if err := g.notifier.NotifyGroupingComplete(ctx, item.SessionLabel, summary.Groups, summary.Approved, summary.Review, summary.Hold); err != nil {
			logger.Warn("grouping completion notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies grouping stage dependencies.
func (g *Grouper) HealthCheck(ctx context.Context) stage.Health {
	const name = "grouper"
	if g.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(g.cfg.Paths.StagingDir) == "" {
		return stage.Unhealthy(name, "staging directory not configured")
	}
	if g.cfg.Grouping.MaxStackSize <= 1 {
		return stage.Unhealthy(name, "max stack size must exceed 1")
	}
	return stage.Healthy(name)
}

func (g *Grouper) loadRecords(item *queue.Item) ([]exposure.Record, error) {
	shotsPath := strings.TrimSpace(item.ShotsFile)
	if shotsPath == "" {
		shotsPath = filepath.Join(item.StagingRoot(g.cfg.Paths.StagingDir), "shots.json")
	}
	payload, err := os.ReadFile(shotsPath)
	if err != nil {
		return nil, services.Wrap(
			services.ErrValidation,
			"grouper",
			"load shots",
			"Shot records missing from staging; rerun the scan",
			err,
		)
	}
	var records []exposure.Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, services.Wrap(
			services.ErrValidation,
			"grouper",
			"decode shots",
			"Shot records corrupted; rerun the scan",
			err,
		)
	}
	if len(records) == 0 {
		return nil, services.Wrap(
			services.ErrValidation,
			"grouper",
			"check shots",
			"No shot records to group; rerun the scan",
			nil,
		)
	}
	return records, nil
}

func (g *Grouper) applyProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, g.logger)
	copy := *item
	copy.SetProgress("Grouping", message, percent)
	if err := g.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist progress", logging.Error(err))
		return
	}
	*item = copy
}
