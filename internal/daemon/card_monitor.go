package daemon

import (
	"context"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/pilebones/go-udev/netlink"

	"lightbox/internal/config"
	"lightbox/internal/logging"
)

// cardMonitor listens for udev netlink events and triggers a watch directory
// rescan when a memory card partition appears. This removes the need for udev
// rules that invoke the CLI as root.
type cardMonitor struct {
	cfg    *config.Config
	logger *slog.Logger
	onCard func(ctx context.Context)
	settle time.Duration

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
	wg      sync.WaitGroup
}

// newCardMonitor creates a monitor for card insertion events. Returns nil
// when no watch directories are configured, since a rescan would have nothing
// to sweep.
func newCardMonitor(cfg *config.Config, logger *slog.Logger, onCard func(ctx context.Context)) *cardMonitor {
	if cfg == nil || len(cfg.Paths.WatchDirs) == 0 {
		return nil
	}

	settle := time.Duration(cfg.Workflow.CardSettleSeconds) * time.Second
	if settle < 0 {
		settle = 0
	}

	return &cardMonitor{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "card-monitor"),
		onCard: onCard,
		settle: settle,
	}
}

// Start begins listening for udev netlink events.
func (m *cardMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; card detection will rely on the rescan schedule",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "automatic card detection unavailable"),
		)
		return nil // Non-fatal - scheduled and manual rescans still work
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	// Pass quit channel to goroutine to avoid reading m.quit without lock
	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("card monitor started",
		logging.String(logging.FieldEventType, "card_monitor_started"),
		logging.Duration("settle_delay", m.settle),
	)

	return nil
}

// Stop shuts down the card monitor and waits for in-flight rescans.
func (m *cardMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}

	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}

	m.running = false
	m.mu.Unlock()

	m.wg.Wait()

	m.logger.Info("card monitor stopped",
		logging.String(logging.FieldEventType, "card_monitor_stopped"),
	)
}

// Running reports whether the card monitor is active.
func (m *cardMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// monitorLoop reads netlink events and processes card insertions.
func (m *cardMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	matcher := m.buildMatcher()

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, matcher)

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("card monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "card_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "card detection may be affected"),
			)
		}
	}
}

// buildMatcher creates a matcher for new block device partitions.
// Matches: SUBSYSTEM=block, DEVTYPE=partition, ACTION=add
func (m *cardMonitor) buildMatcher() netlink.Matcher {
	action := "add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
			"DEVTYPE":   "partition",
		},
	})
	return rules
}

// handleEvent processes a matched uevent.
func (m *cardMonitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := m.extractDeviceName(uevent)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	if !isCardPartitionName(devname) {
		m.logger.Debug("ignoring non-card partition",
			logging.String("device", devname),
		)
		return
	}

	m.logger.Info("card partition detected via netlink",
		logging.String(logging.FieldEventType, "card_detected"),
		logging.String("device", devname),
		logging.String("action", string(uevent.Action)),
	)

	if m.onCard == nil {
		return
	}

	// The automounter needs a moment to mount the filesystem before the
	// watch directories show the card contents.
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if m.settle > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.settle):
			}
		}
		m.onCard(ctx)
	}()
}

// extractDeviceName gets the device path from a uevent.
func (m *cardMonitor) extractDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}

	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}

	parts := strings.Split(devpath, "/")
	if len(parts) == 0 {
		return ""
	}
	return "/dev/" + parts[len(parts)-1]
}

// isCardPartitionName reports whether a device name looks like a partition on
// removable card media: sd-style names with a partition number (sdb1) or
// mmcblk partitions (mmcblk0p1). Whole disks and optical or NVMe devices are
// rejected.
func isCardPartitionName(device string) bool {
	name := device
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		return false
	}

	if rest, ok := strings.CutPrefix(name, "mmcblk"); ok {
		// mmcblk<digits>p<digits>
		digits := 0
		for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
			digits++
		}
		if digits == 0 || digits >= len(rest) || rest[digits] != 'p' {
			return false
		}
		part := rest[digits+1:]
		if part == "" {
			return false
		}
		for i := 0; i < len(part); i++ {
			if part[i] < '0' || part[i] > '9' {
				return false
			}
		}
		return true
	}

	if rest, ok := strings.CutPrefix(name, "sd"); ok {
		// sd<letters><digits>
		letters := 0
		for letters < len(rest) && rest[letters] >= 'a' && rest[letters] <= 'z' {
			letters++
		}
		if letters == 0 || letters >= len(rest) {
			return false
		}
		part := rest[letters:]
		for i := 0; i < len(part); i++ {
			if part[i] < '0' || part[i] > '9' {
				return false
			}
		}
		return true
	}

	return false
}
