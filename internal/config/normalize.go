package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExiftool()
	c.normalizeGrouping()
	c.normalizeConfidence()
	c.normalizeNotifications()
	c.normalizeWorkflow()
	if err := c.normalizeDaemon(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if len(c.Paths.WatchDirs) > 0 {
		dirs := make([]string, 0, len(c.Paths.WatchDirs))
		seen := make(map[string]struct{}, len(c.Paths.WatchDirs))
		for _, dir := range c.Paths.WatchDirs {
			trimmed := strings.TrimSpace(dir)
			if trimmed == "" {
				continue
			}
			expanded, err := expandPath(trimmed)
			if err != nil {
				return fmt.Errorf("paths.watch_dirs: %w", err)
			}
			if _, exists := seen[expanded]; exists {
				continue
			}
			seen[expanded] = struct{}{}
			dirs = append(dirs, expanded)
		}
		c.Paths.WatchDirs = dirs
	}
	return nil
}

func (c *Config) normalizeExiftool() {
	c.Exiftool.Binary = strings.TrimSpace(c.Exiftool.Binary)
	if c.Exiftool.Binary == "" {
		c.Exiftool.Binary = defaultExiftoolBinary
	}
	if c.Exiftool.BatchSize <= 0 {
		c.Exiftool.BatchSize = defaultExiftoolBatchSize
	}
	if c.Exiftool.ExtractTimeout <= 0 {
		c.Exiftool.ExtractTimeout = defaultExtractTimeout
	}
}

func (c *Config) normalizeGrouping() {
	if c.Grouping.GapFloorSeconds <= 0 {
		c.Grouping.GapFloorSeconds = defaultGapFloorSeconds
	}
	if c.Grouping.GapBaseSeconds <= 0 {
		c.Grouping.GapBaseSeconds = defaultGapBaseSeconds
	}
	if c.Grouping.GapShutterFactor <= 0 {
		c.Grouping.GapShutterFactor = defaultGapShutterFactor
	}
	if c.Grouping.ApertureTolerance <= 0 {
		c.Grouping.ApertureTolerance = defaultApertureTolerance
	}
	if c.Grouping.FocalToleranceMM <= 0 {
		c.Grouping.FocalToleranceMM = defaultFocalToleranceMM
	}
	if c.Grouping.MaxStackSize <= 0 {
		c.Grouping.MaxStackSize = defaultMaxStackSize
	}
	if c.Grouping.DirectionThresholdEV <= 0 {
		c.Grouping.DirectionThresholdEV = defaultDirectionThresholdEV
	}
	if c.Grouping.ReversalThresholdEV <= 0 {
		c.Grouping.ReversalThresholdEV = defaultReversalThresholdEV
	}
	if c.Grouping.RestartThresholdEV <= 0 {
		c.Grouping.RestartThresholdEV = defaultRestartThresholdEV
	}
}

func (c *Config) normalizeConfidence() {
	if c.Confidence.HDREVRange <= 0 {
		c.Confidence.HDREVRange = defaultHDREVRange
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if value, ok := os.LookupEnv("LIGHTBOX_NTFY_TOPIC"); ok && strings.TrimSpace(value) != "" {
		c.Notifications.NtfyTopic = strings.TrimSpace(value)
	}
}

func (c *Config) normalizeWorkflow() {
	c.Workflow.RescanSchedule = strings.TrimSpace(c.Workflow.RescanSchedule)
}

func (c *Config) normalizeDaemon() error {
	var err error
	c.Daemon.SocketPath = strings.TrimSpace(c.Daemon.SocketPath)
	if c.Daemon.SocketPath == "" {
		c.Daemon.SocketPath = filepath.Join(c.Paths.LogDir, "lightboxd.sock")
	} else if c.Daemon.SocketPath, err = expandPath(c.Daemon.SocketPath); err != nil {
		return fmt.Errorf("daemon.socket_path: %w", err)
	}
	c.Daemon.PIDFile = strings.TrimSpace(c.Daemon.PIDFile)
	if c.Daemon.PIDFile == "" {
		c.Daemon.PIDFile = filepath.Join(c.Paths.LogDir, "lightboxd.pid")
	} else if c.Daemon.PIDFile, err = expandPath(c.Daemon.PIDFile); err != nil {
		return fmt.Errorf("daemon.pid_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
