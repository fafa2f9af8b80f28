package daemon_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lightbox/internal/confidence"
	"lightbox/internal/config"
	"lightbox/internal/daemon"
	"lightbox/internal/exposure"
	"lightbox/internal/logging"
	"lightbox/internal/queue"
	"lightbox/internal/stackplan"
	"lightbox/internal/stage"
	"lightbox/internal/testsupport"
	"lightbox/internal/workflow"
)

type noopHandler struct {
	name string
}

func (h *noopHandler) Prepare(ctx context.Context, item *queue.Item) error { return nil }

func (h *noopHandler) Execute(ctx context.Context, item *queue.Item) error { return nil }

func (h *noopHandler) HealthCheck(ctx context.Context) stage.Health { return stage.Healthy(h.name) }

type daemonFixture struct {
	daemon  *daemon.Daemon
	store   *queue.Store
	cfg     *config.Config
	manager *workflow.Manager
}

func newDaemonFixture(t *testing.T, opts ...testsupport.ConfigOption) *daemonFixture {
	t.Helper()

	opts = append([]testsupport.ConfigOption{testsupport.WithStubbedBinaries()}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{
		Scanner:   &noopHandler{name: "scanner"},
		Grouper:   &noopHandler{name: "grouper"},
		Organizer: &noopHandler{name: "organizer"},
	})

	logPath := filepath.Join(cfg.Paths.LogDir, "lightbox-test.log")
	d, err := daemon.New(cfg, store, logger, mgr, logPath)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})
	return &daemonFixture{daemon: d, store: store, cfg: cfg, manager: mgr}
}

func writeSourceFrames(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		testsupport.WriteFile(t, filepath.Join(dir, name), 2048)
	}
}

func TestDaemonStartStop(t *testing.T) {
	fx := newDaemonFixture(t)
	ctx := context.Background()

	status := fx.daemon.Status(ctx)
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}

	if err := fx.daemon.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	status = fx.daemon.Status(ctx)
	if !status.Running {
		t.Fatal("daemon should report running after Start")
	}
	if status.PID <= 0 {
		t.Fatalf("expected positive PID, got %d", status.PID)
	}
	if status.QueueDBPath == "" || status.LockFilePath == "" {
		t.Fatalf("expected queue db and lock paths, got %q and %q", status.QueueDBPath, status.LockFilePath)
	}

	if err := fx.daemon.Start(ctx); err == nil {
		t.Fatal("second Start should fail while running")
	}

	fx.daemon.Stop()
	if fx.daemon.Status(ctx).Running {
		t.Fatal("daemon should not report running after Stop")
	}

	// Stop is idempotent.
	fx.daemon.Stop()
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	fx := newDaemonFixture(t)
	ctx := context.Background()

	if err := fx.daemon.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// The lock check happens before the workflow starts, so reusing the
	// fixture's manager is safe here.
	second, err := daemon.New(fx.cfg, fx.store, logging.NewNop(), fx.manager, "")
	if err != nil {
		t.Fatalf("daemon.New second instance: %v", err)
	}
	err = second.Start(ctx)
	if err == nil {
		second.Stop()
		t.Fatal("second instance Start should fail while lock is held")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock conflict error, got: %v", err)
	}
}

func TestDaemonAddSource(t *testing.T) {
	fx := newDaemonFixture(t)
	ctx := context.Background()

	sourceDir := t.TempDir()
	writeSourceFrames(t, sourceDir, "DSC00001.ARW", "DSC00002.ARW", "DSC00003.ARW")

	item, created, err := fx.daemon.AddSource(ctx, sourceDir, "morning-shoot")
	if err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if !created {
		t.Fatal("expected first AddSource to create an item")
	}
	if item.SessionLabel != "morning-shoot" {
		t.Fatalf("expected session label to stick, got %q", item.SessionLabel)
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}

	again, created, err := fx.daemon.AddSource(ctx, sourceDir, "other-label")
	if err != nil {
		t.Fatalf("AddSource duplicate: %v", err)
	}
	if created {
		t.Fatal("duplicate AddSource should not create a second item")
	}
	if again.ID != item.ID {
		t.Fatalf("expected existing item %d, got %d", item.ID, again.ID)
	}

	emptyDir := t.TempDir()
	if _, _, err := fx.daemon.AddSource(ctx, emptyDir, ""); err == nil {
		t.Fatal("AddSource on empty directory should fail")
	} else if !strings.Contains(err.Error(), "no camera files") {
		t.Fatalf("expected no camera files error, got: %v", err)
	}

	if _, _, err := fx.daemon.AddSource(ctx, filepath.Join(emptyDir, "missing"), ""); err == nil {
		t.Fatal("AddSource on missing path should fail")
	}

	filePath := filepath.Join(t.TempDir(), "frame.arw")
	testsupport.WriteFile(t, filePath, 16)
	if _, _, err := fx.daemon.AddSource(ctx, filePath, ""); err == nil {
		t.Fatal("AddSource on a file should fail")
	} else if !strings.Contains(err.Error(), "not a directory") {
		t.Fatalf("expected directory error, got: %v", err)
	}

	if _, _, err := fx.daemon.AddSource(ctx, "   ", ""); err == nil {
		t.Fatal("AddSource on blank path should fail")
	}
}

func TestDaemonItemGroups(t *testing.T) {
	fx := newDaemonFixture(t)
	ctx := context.Background()

	score := 0.91
	env := stackplan.Envelope{
		Fingerprint: "fp-groups",
		Session:     "groups-session",
		Groups: []stackplan.Group{
			{
				Index: 1,
				Records: []exposure.Record{
					{Path: "/cards/a/DSC00001.ARW", EV: exposure.Float(-2)},
					{Path: "/cards/a/DSC00002.ARW", EV: exposure.Float(0)},
					{Path: "/cards/a/DSC00003.ARW", EV: exposure.Float(2)},
				},
				Confidence: confidence.Result{
					Score:          score,
					AutoApproved:   true,
					IsHDRCandidate: true,
				},
			},
		},
	}
	encoded, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	item := testsupport.NewSource(t, fx.store, "/cards/a", "fp-groups")
	item.GroupPlanData = encoded
	if err := fx.store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, found, err := fx.daemon.ItemGroups(ctx, item.ID)
	if err != nil {
		t.Fatalf("ItemGroups: %v", err)
	}
	if !found {
		t.Fatal("expected item to be found")
	}
	if len(got.Groups) != 1 || got.Session != "groups-session" {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	if len(got.Groups[0].Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got.Groups[0].Records))
	}

	if _, found, err := fx.daemon.ItemGroups(ctx, item.ID+100); err != nil {
		t.Fatalf("ItemGroups missing item: %v", err)
	} else if found {
		t.Fatal("missing item should not be found")
	}
}

func TestDaemonItemGroupsReadsGroupsFile(t *testing.T) {
	fx := newDaemonFixture(t)
	ctx := context.Background()

	env := stackplan.Envelope{
		Fingerprint: "fp-file",
		Session:     "file-session",
		Groups: []stackplan.Group{
			{Index: 1, Records: []exposure.Record{{Path: "/cards/b/DSC00010.ARW"}}},
			{Index: 2, Records: []exposure.Record{{Path: "/cards/b/DSC00011.ARW"}}},
		},
	}
	encoded, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	groupsPath := filepath.Join(t.TempDir(), "groups.json")
	if err := os.WriteFile(groupsPath, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write groups file: %v", err)
	}

	item := testsupport.NewSource(t, fx.store, "/cards/b", "fp-file")
	item.GroupsFile = groupsPath
	if err := fx.store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, found, err := fx.daemon.ItemGroups(ctx, item.ID)
	if err != nil {
		t.Fatalf("ItemGroups: %v", err)
	}
	if !found {
		t.Fatal("expected item to be found")
	}
	if len(got.Groups) != 2 {
		t.Fatalf("expected plan loaded from groups file, got %+v", got)
	}
}

func TestDaemonQueueMaintenance(t *testing.T) {
	fx := newDaemonFixture(t)
	ctx := context.Background()

	first := testsupport.NewSource(t, fx.store, "/cards/one", "fp-one")
	second := testsupport.NewSource(t, fx.store, "/cards/two", "fp-two")

	second.Status = queue.StatusFailed
	second.ErrorMessage = "scan blew up"
	if err := fx.store.Update(ctx, second); err != nil {
		t.Fatalf("Update: %v", err)
	}

	items, err := fx.daemon.ListQueue(ctx, nil)
	if err != nil {
		t.Fatalf("ListQueue: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	failedOnly, err := fx.daemon.ListQueue(ctx, []queue.Status{queue.StatusFailed})
	if err != nil {
		t.Fatalf("ListQueue failed filter: %v", err)
	}
	if len(failedOnly) != 1 || failedOnly[0].ID != second.ID {
		t.Fatalf("expected only the failed item, got %+v", failedOnly)
	}

	got, err := fx.daemon.GetQueueItem(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetQueueItem: %v", err)
	}
	if got == nil || got.ID != first.ID {
		t.Fatalf("expected item %d, got %+v", first.ID, got)
	}
	if missing, err := fx.daemon.GetQueueItem(ctx, 9999); err != nil {
		t.Fatalf("GetQueueItem missing: %v", err)
	} else if missing != nil {
		t.Fatalf("expected nil for unknown ID, got %+v", missing)
	}

	health, err := fx.daemon.QueueHealth(ctx)
	if err != nil {
		t.Fatalf("QueueHealth: %v", err)
	}
	if health.Total != 2 || health.Failed != 1 || health.Pending != 1 {
		t.Fatalf("unexpected health: %+v", health)
	}

	dbHealth, err := fx.daemon.DatabaseHealth(ctx)
	if err != nil {
		t.Fatalf("DatabaseHealth: %v", err)
	}
	if !dbHealth.DatabaseExists || !dbHealth.TableExists {
		t.Fatalf("expected healthy database report, got %+v", dbHealth)
	}

	retried, err := fx.daemon.RetryFailed(ctx, nil)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if retried != 1 {
		t.Fatalf("expected 1 retried item, got %d", retried)
	}

	refreshed, err := fx.daemon.GetQueueItem(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetQueueItem after retry: %v", err)
	}
	if refreshed.Status != queue.StatusPending {
		t.Fatalf("expected retried item pending, got %s", refreshed.Status)
	}

	refreshed.Status = queue.StatusCompleted
	if err := fx.store.Update(ctx, refreshed); err != nil {
		t.Fatalf("Update: %v", err)
	}
	removed, err := fx.daemon.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 completed item removed, got %d", removed)
	}

	removed, err = fx.daemon.ClearQueue(ctx)
	if err != nil {
		t.Fatalf("ClearQueue: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 remaining item removed, got %d", removed)
	}
}

func TestDaemonTestNotificationWithoutTopic(t *testing.T) {
	fx := newDaemonFixture(t)

	sent, message, err := fx.daemon.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if sent {
		t.Fatal("notification should not send without a topic")
	}
	if !strings.Contains(message, "not configured") {
		t.Fatalf("unexpected message: %q", message)
	}
}

func TestDaemonLogPath(t *testing.T) {
	fx := newDaemonFixture(t)
	if got := fx.daemon.LogPath(); !strings.HasSuffix(got, "lightbox-test.log") {
		t.Fatalf("unexpected log path %q", got)
	}
}
