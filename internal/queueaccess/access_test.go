package queueaccess_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lightbox/internal/api"
	"lightbox/internal/confidence"
	"lightbox/internal/exposure"
	"lightbox/internal/ipc"
	"lightbox/internal/queue"
	"lightbox/internal/queueaccess"
	"lightbox/internal/stackplan"
	"lightbox/internal/testsupport"
)

func TestStoreAccessCoversQueueLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	access := queueaccess.NewStoreAccess(store)

	testsupport.NewSource(t, store, "/cards/one", "fp-one")

	failed := testsupport.NewSource(t, store, "/cards/two", "fp-two")
	failed.Status = queue.StatusFailed
	failed.ErrorMessage = "scan exploded"
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update(failed): %v", err)
	}

	stuck := testsupport.NewSource(t, store, "/cards/three", "fp-three")
	stuck.Status = queue.StatusGrouping
	if err := store.Update(ctx, stuck); err != nil {
		t.Fatalf("Update(stuck): %v", err)
	}

	done := testsupport.NewSource(t, store, "/cards/four", "fp-four")
	done.Status = queue.StatusCompleted
	captured := time.Date(2024, 6, 9, 14, 31, 0, 0, time.UTC)
	env := stackplan.Envelope{
		Fingerprint: "fp-four",
		Session:     "2024-06-09_hike",
		Groups: []stackplan.Group{
			{
				Index:      1,
				FolderName: "stack_001_hdr3",
				Records: []exposure.Record{
					{Path: "/cards/four/DSC0001.ARW", Time: captured, EV: exposure.Float(-2)},
					{Path: "/cards/four/DSC0002.ARW", Time: captured.Add(400 * time.Millisecond), EV: exposure.Float(0)},
					{Path: "/cards/four/DSC0003.ARW", Time: captured.Add(800 * time.Millisecond), EV: exposure.Float(2)},
				},
				Confidence: confidence.Result{Score: 0.96, AutoApproved: true, IsHDRCandidate: true},
			},
			{
				Index:      2,
				FolderName: "stack_002",
				Records: []exposure.Record{
					{Path: "/cards/four/DSC0004.ARW", Time: captured.Add(5 * time.Minute)},
				},
				Confidence: confidence.Result{Score: 0.55, NeedsReview: true, Reasons: []string{"ev spacing uneven"}},
			},
		},
	}
	encoded, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	done.GroupPlanData = encoded
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update(done): %v", err)
	}

	stats, err := access.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[string(queue.StatusPending)] != 1 || stats[string(queue.StatusFailed)] != 1 || stats[string(queue.StatusCompleted)] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	health, err := access.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 4 || health.Failed != 1 || health.Processing != 1 {
		t.Fatalf("unexpected health summary: %+v", health)
	}

	items, err := access.List(ctx, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("List returned %d items, want 4", len(items))
	}

	onlyFailed, err := access.List(ctx, []string{"failed"})
	if err != nil {
		t.Fatalf("List(failed): %v", err)
	}
	if len(onlyFailed) != 1 || onlyFailed[0].ID != failed.ID {
		t.Fatalf("failed filter returned %+v", onlyFailed)
	}

	// Unknown status words are ignored, so this behaves like an unfiltered list.
	all, err := access.List(ctx, []string{"bogus"})
	if err != nil {
		t.Fatalf("List(bogus): %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("List with unknown filter returned %d items, want 4", len(all))
	}

	desc, err := access.Describe(ctx, failed.ID)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if desc == nil || desc.ErrorMessage != "scan exploded" {
		t.Fatalf("Describe returned %+v", desc)
	}
	missing, err := access.Describe(ctx, done.ID+999)
	if err != nil {
		t.Fatalf("Describe(missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing item, got %+v", missing)
	}

	report, err := access.Groups(ctx, done.ID)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if report == nil {
		t.Fatal("expected group report for completed item")
	}
	if report.Session != "2024-06-09_hike" {
		t.Fatalf("unexpected session %q", report.Session)
	}
	if len(report.Stacks) != 2 {
		t.Fatalf("expected 2 stacks, got %d", len(report.Stacks))
	}
	if report.Stacks[0].Decision != api.StackApproved || !report.Stacks[0].HDR || report.Stacks[0].Shots != 3 {
		t.Fatalf("unexpected first stack: %+v", report.Stacks[0])
	}
	if report.Stacks[1].Decision != api.StackReview {
		t.Fatalf("unexpected second stack: %+v", report.Stacks[1])
	}

	noReport, err := access.Groups(ctx, done.ID+999)
	if err != nil {
		t.Fatalf("Groups(missing): %v", err)
	}
	if noReport != nil {
		t.Fatalf("expected nil report for missing item, got %+v", noReport)
	}

	fingerprints, err := access.ActiveFingerprints(ctx)
	if err != nil {
		t.Fatalf("ActiveFingerprints: %v", err)
	}
	if len(fingerprints) != 4 {
		t.Fatalf("ActiveFingerprints returned %d entries, want 4", len(fingerprints))
	}
	if _, ok := fingerprints["FP-TWO"]; !ok {
		t.Fatalf("expected uppercase fingerprint keys, got %v", fingerprints)
	}

	reset, err := access.ResetStuck(ctx)
	if err != nil {
		t.Fatalf("ResetStuck: %v", err)
	}
	if reset != 1 {
		t.Fatalf("ResetStuck reset %d items, want 1", reset)
	}
	refreshed, err := store.GetByID(ctx, stuck.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if refreshed.Status != queue.StatusScanned {
		t.Fatalf("stuck item rolled back to %s, want %s", refreshed.Status, queue.StatusScanned)
	}

	retried, err := access.Retry(ctx, []int64{failed.ID})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if retried != 1 {
		t.Fatalf("Retry touched %d items, want 1", retried)
	}
	retriedAll, err := access.RetryAll(ctx)
	if err != nil {
		t.Fatalf("RetryAll: %v", err)
	}
	if retriedAll != 0 {
		t.Fatalf("RetryAll touched %d items, want 0 after explicit retry", retriedAll)
	}

	removed, err := access.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if removed != 1 {
		t.Fatalf("ClearCompleted removed %d, want 1", removed)
	}
	clearedFailed, err := access.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed: %v", err)
	}
	if clearedFailed != 0 {
		t.Fatalf("ClearFailed removed %d, want 0", clearedFailed)
	}
	remaining, err := access.ClearAll(ctx)
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if remaining != 3 {
		t.Fatalf("ClearAll removed %d, want 3", remaining)
	}
}

func TestOpenWithFallbackUsesStoreWhenDialFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	session, err := queueaccess.OpenWithFallback(
		func() (*ipc.Client, error) { return nil, errors.New("socket missing") },
		func() (*queue.Store, error) { return queue.Open(cfg) },
	)
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}()

	stats, err := session.Access.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats over store fallback: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("expected empty stats, got %+v", stats)
	}
}

func TestOpenWithFallbackRequiresStoreOpener(t *testing.T) {
	_, err := queueaccess.OpenWithFallback(
		func() (*ipc.Client, error) { return nil, errors.New("daemon offline") },
		nil,
	)
	if err == nil || !strings.Contains(err.Error(), "no store opener") {
		t.Fatalf("expected store opener error, got %v", err)
	}
}
