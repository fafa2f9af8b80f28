package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string   `toml:"staging_dir"`
	LibraryDir string   `toml:"library_dir"`
	LogDir     string   `toml:"log_dir"`
	WatchDirs  []string `toml:"watch_dirs"`
}

// Exiftool contains configuration for metadata extraction.
type Exiftool struct {
	Binary         string `toml:"binary"`
	BatchSize      int    `toml:"batch_size"`
	ExtractTimeout int    `toml:"extract_timeout"`
	IncludeJPEG    bool   `toml:"include_jpeg"`
}

// Grouping contains the bracket stack detection thresholds.
type Grouping struct {
	// GapFloorSeconds is the minimum allowed gap between consecutive shots
	// in a cluster regardless of shutter speed.
	GapFloorSeconds float64 `toml:"gap_floor_seconds"`
	// GapBaseSeconds and GapShutterFactor extend the allowed gap for long
	// exposures: gap = max(floor, base + factor * max(shutterA, shutterB)).
	GapBaseSeconds   float64 `toml:"gap_base_seconds"`
	GapShutterFactor float64 `toml:"gap_shutter_factor"`
	// ApertureTolerance and FocalToleranceMM bound how much the aperture or
	// focal length may drift before two shots stop counting as one setup.
	ApertureTolerance float64 `toml:"aperture_tolerance"`
	FocalToleranceMM  float64 `toml:"focal_tolerance_mm"`
	// MaxStackSize caps a bracket stack before the splitter forces a cut.
	MaxStackSize int `toml:"max_stack_size"`
	// DirectionThresholdEV, ReversalThresholdEV, and RestartThresholdEV
	// drive the exposure sweep splitter inside oversized clusters.
	DirectionThresholdEV float64 `toml:"direction_threshold_ev"`
	ReversalThresholdEV  float64 `toml:"reversal_threshold_ev"`
	RestartThresholdEV   float64 `toml:"restart_threshold_ev"`
}

// Confidence contains scoring thresholds.
type Confidence struct {
	// HDREVRange is the minimum exposure value spread for a group to count
	// as an HDR bracket candidate.
	HDREVRange float64 `toml:"hdr_ev_range"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic          string `toml:"ntfy_topic"`
	RequestTimeout     int    `toml:"request_timeout"`
	Scan               bool   `toml:"scan"`
	Grouping           bool   `toml:"grouping"`
	Organization       bool   `toml:"organization"`
	Queue              bool   `toml:"queue"`
	Review             bool   `toml:"review"`
	Errors             bool   `toml:"errors"`
	QueueMinItems      int    `toml:"queue_min_items"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int    `toml:"queue_poll_interval"`
	ErrorRetryInterval int    `toml:"error_retry_interval"`
	HeartbeatInterval  int    `toml:"heartbeat_interval"`
	HeartbeatTimeout   int    `toml:"heartbeat_timeout"`
	CardSettleSeconds  int    `toml:"card_settle_seconds"`
	RescanSchedule     string `toml:"rescan_schedule"`
}

// Daemon contains socket and pid file locations.
type Daemon struct {
	SocketPath string `toml:"socket_path"`
	PIDFile    string `toml:"pid_file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Lightbox.
//
// Configuration sections by subsystem:
//   - Paths: staging/library/log directories and watched ingest sources
//   - Exiftool: metadata extraction binary and batching
//   - Grouping: bracket stack detection thresholds
//   - Confidence: scoring thresholds
//   - Notifications: ntfy push notification settings
//   - Workflow: daemon polling intervals and timeouts
//   - Daemon: control socket and pid file locations
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Exiftool      Exiftool      `toml:"exiftool"`
	Grouping      Grouping      `toml:"grouping"`
	Confidence    Confidence    `toml:"confidence"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Daemon        Daemon        `toml:"daemon"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lightbox/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/lightbox/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lightbox.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// LibraryDir is created on a best-effort basis so the daemon can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LibraryDir) != "" {
		// Best-effort to avoid failing config load when storage is offline.
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	return nil
}

// ExiftoolBinary returns the exiftool executable name.
func (c *Config) ExiftoolBinary() string {
	if binary := strings.TrimSpace(c.Exiftool.Binary); binary != "" {
		return binary
	}
	return "exiftool"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
