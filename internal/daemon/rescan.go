package daemon

import (
	"context"
	"strings"
	"sync"

	"log/slog"

	"github.com/robfig/cron/v3"

	"lightbox/internal/config"
	"lightbox/internal/logging"
)

// rescanScheduler runs periodic watch directory sweeps on a cron schedule so
// cards inserted while the daemon was busy or events that netlink missed are
// still picked up.
type rescanScheduler struct {
	schedule string
	logger   *slog.Logger
	job      func(ctx context.Context)

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// newRescanScheduler creates a scheduler for the configured cron expression.
// Returns nil when no schedule or no watch directories are configured.
func newRescanScheduler(cfg *config.Config, logger *slog.Logger, job func(ctx context.Context)) *rescanScheduler {
	if cfg == nil || len(cfg.Paths.WatchDirs) == 0 {
		return nil
	}
	schedule := strings.TrimSpace(cfg.Workflow.RescanSchedule)
	if schedule == "" {
		return nil
	}
	return &rescanScheduler{
		schedule: schedule,
		logger:   logging.NewComponentLogger(logger, "rescan-scheduler"),
		job:      job,
	}
}

// Start registers the rescan job and begins the cron loop. An invalid
// schedule expression is returned as an error without starting anything.
func (s *rescanScheduler) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() {
		if ctx.Err() != nil {
			return
		}
		s.job(ctx)
	}); err != nil {
		return err
	}
	c.Start()

	s.cron = c
	s.running = true
	s.logger.Info("rescan schedule active",
		logging.String(logging.FieldEventType, "rescan_schedule_started"),
		logging.String("schedule", s.schedule),
	)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *rescanScheduler) Stop() {
	if s == nil {
		return
	}

	s.mu.Lock()
	c := s.cron
	s.cron = nil
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	if wasRunning {
		s.logger.Info("rescan schedule stopped",
			logging.String(logging.FieldEventType, "rescan_schedule_stopped"),
		)
	}
}
