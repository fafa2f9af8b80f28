package daemon

import (
	"context"
	"testing"
	"time"

	"lightbox/internal/logging"
	"lightbox/internal/testsupport"
)

func TestNewRescanSchedulerRequiresScheduleAndWatchDirs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWatchDir(t.TempDir()))
	cfg.Workflow.RescanSchedule = ""
	if s := newRescanScheduler(cfg, logging.NewNop(), nil); s != nil {
		t.Fatal("expected nil scheduler without a schedule")
	}

	cfg = testsupport.NewConfig(t)
	cfg.Workflow.RescanSchedule = "*/15 * * * *"
	if s := newRescanScheduler(cfg, logging.NewNop(), nil); s != nil {
		t.Fatal("expected nil scheduler without watch dirs")
	}

	var s *rescanScheduler
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("nil Start: %v", err)
	}
	s.Stop()
}

func TestRescanSchedulerRejectsInvalidExpression(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWatchDir(t.TempDir()))
	cfg.Workflow.RescanSchedule = "whenever"

	s := newRescanScheduler(cfg, logging.NewNop(), func(ctx context.Context) {})
	if s == nil {
		t.Fatal("expected scheduler to be created")
	}
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected invalid schedule to be rejected")
	}
}

func TestRescanSchedulerRunsJob(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWatchDir(t.TempDir()))
	cfg.Workflow.RescanSchedule = "@every 100ms"

	ran := make(chan struct{}, 4)
	s := newRescanScheduler(cfg, logging.NewNop(), func(ctx context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled rescan never ran")
	}
}
