package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateExiftool(); err != nil {
		return err
	}
	if err := c.validateGrouping(); err != nil {
		return err
	}
	if err := c.validateConfidence(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateExiftool() error {
	if strings.TrimSpace(c.Exiftool.Binary) == "" {
		return errors.New("exiftool.binary must be set")
	}
	if c.Exiftool.BatchSize <= 0 {
		return errors.New("exiftool.batch_size must be positive")
	}
	if c.Exiftool.ExtractTimeout <= 0 {
		return errors.New("exiftool.extract_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateGrouping() error {
	if err := ensurePositiveFloatMap(map[string]float64{
		"grouping.gap_floor_seconds":      c.Grouping.GapFloorSeconds,
		"grouping.gap_base_seconds":       c.Grouping.GapBaseSeconds,
		"grouping.gap_shutter_factor":     c.Grouping.GapShutterFactor,
		"grouping.aperture_tolerance":     c.Grouping.ApertureTolerance,
		"grouping.focal_tolerance_mm":     c.Grouping.FocalToleranceMM,
		"grouping.direction_threshold_ev": c.Grouping.DirectionThresholdEV,
		"grouping.reversal_threshold_ev":  c.Grouping.ReversalThresholdEV,
		"grouping.restart_threshold_ev":   c.Grouping.RestartThresholdEV,
	}); err != nil {
		return err
	}
	if c.Grouping.MaxStackSize < 2 {
		return errors.New("grouping.max_stack_size must be at least 2")
	}
	return nil
}

func (c *Config) validateConfidence() error {
	if c.Confidence.HDREVRange <= 0 {
		return errors.New("confidence.hdr_ev_range must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"workflow.card_settle_seconds":  c.Workflow.CardSettleSeconds,
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	if schedule := strings.TrimSpace(c.Workflow.RescanSchedule); schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return fmt.Errorf("workflow.rescan_schedule is not a valid cron expression: %w", err)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.QueueMinItems < 1 {
		return errors.New("notifications.queue_min_items must be >= 1")
	}
	if c.Notifications.DedupWindowSeconds < 0 {
		return errors.New("notifications.dedup_window_seconds must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func ensurePositiveFloatMap(values map[string]float64) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
