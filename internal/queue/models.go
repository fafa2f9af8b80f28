package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusScanning   Status = "scanning"
	StatusScanned    Status = "scanned"
	StatusGrouping   Status = "grouping"
	StatusGrouped    Status = "grouped"
	StatusOrganizing Status = "organizing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusReview     Status = "review"
)

// UserStopReason is the review reason set when a user explicitly stops an item.
const UserStopReason = "Stop requested by user"

// DaemonStopReason is the error message set when items are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusScanning,
	StatusScanned,
	StatusGrouping,
	StatusGrouped,
	StatusOrganizing,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusScanning:   {},
	StatusGrouping:   {},
	StatusOrganizing: {},
}

type statusTransition struct {
	from Status
	to   Status
}

// Interrupted stages roll back to the start of their own stage, never further.
var stageRollbackTransitions = []statusTransition{
	{from: StatusScanning, to: StatusPending},
	{from: StatusGrouping, to: StatusScanned},
	{from: StatusOrganizing, to: StatusGrouped},
}

func processingRollbackTransitions() []statusTransition {
	return stageRollbackTransitions
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// Item represents an ingest batch persisted in SQLite. One item covers one
// source directory (typically a mounted card) from detection through library
// placement.
type Item struct {
	ID                  int64
	SourcePath          string
	SessionLabel        string
	Status              Status
	SourceFingerprint   string
	ShotsFile           string
	GroupsFile          string
	OutputDir           string
	GroupPlanData       string
	ErrorMessage        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ProgressStage       string
	ProgressPercent     float64
	ProgressMessage     string
	ProgressBytesCopied int64 // Only set during organizing
	ProgressTotalBytes  int64 // Only set during organizing
	ShotCount           int
	GroupCount          int
	ApprovedCount       int
	ReviewCount         int
	HoldCount           int
	LastHeartbeat       *time.Time
	NeedsReview         bool
	ReviewReason        string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsUserStopReason reports whether a review reason represents a user-initiated stop.
func IsUserStopReason(reason string) bool {
	return strings.EqualFold(strings.TrimSpace(reason), UserStopReason)
}

// InitProgress resets progress fields for a new stage.
// If ProgressStage is currently empty, it is set to the provided stage value;
// otherwise the existing stage is preserved (to support resume scenarios).
// ProgressMessage is set to message, ProgressPercent is reset to 0,
// and ErrorMessage is cleared.
func (i *Item) InitProgress(stage, message string) {
	if i.ProgressStage == "" {
		i.ProgressStage = stage
	}
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
// Use this instead of setting ProgressStage, ProgressPercent, and ProgressMessage individually.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
// Convenience method for stage completion.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message.
// Clears heartbeat and sets progress fields appropriately.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}

// IsInWorkflow returns true when an item is actively progressing (or queued to
// progress) through stages and should not be re-enqueued simply because the
// same card was reinserted.
func (i Item) IsInWorkflow() bool {
	if i.IsProcessing() {
		return true
	}
	switch i.Status {
	case StatusPending,
		StatusScanned,
		StatusGrouped,
		StatusCompleted:
		return true
	default:
		return false
	}
}

// ProcessingLane partitions workflow into card-facing ingest stages and
// library-facing background work.
type ProcessingLane string

const (
	LaneIngest  ProcessingLane = "ingest"
	LaneLibrary ProcessingLane = "library"
)

// LaneForItem maps a queue item to the lane that owns its next transition.
func LaneForItem(item *Item) ProcessingLane {
	if item == nil {
		return LaneIngest
	}
	switch item.Status {
	case StatusPending, StatusScanning, StatusScanned, StatusGrouping, StatusFailed:
		return LaneIngest
	case StatusGrouped, StatusOrganizing, StatusCompleted, StatusReview:
		return LaneLibrary
	default:
		return LaneIngest
	}
}
