package ipc

import "lightbox/internal/api"

// QueueItem mirrors the API queue item representation for RPC responses.
type QueueItem = api.QueueItem

// StageHealth mirrors workflow stage readiness for RPC responses.
type StageHealth = api.StageHealth

// DependencyStatus mirrors dependency availability for RPC responses.
type DependencyStatus = api.DependencyStatus

// StackSummary mirrors the per-stack plan view for RPC responses.
type StackSummary = api.StackSummary

// StartRequest asks the daemon to start processing.
type StartRequest struct{}

// StartResponse reports whether processing started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message,omitempty"`
}

// StopRequest asks the daemon to stop processing.
type StopRequest struct{}

// StopResponse acknowledges a stop request.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest retrieves daemon runtime status.
type StatusRequest struct{}

// StatusResponse carries daemon, queue, and stage state.
type StatusResponse struct {
	Running        bool               `json:"running"`
	PID            int                `json:"pid"`
	CardMonitoring bool               `json:"cardMonitoring"`
	QueueStats     map[string]int     `json:"queueStats"`
	LastError      string             `json:"lastError,omitempty"`
	LastItem       *QueueItem         `json:"lastItem,omitempty"`
	LockPath       string             `json:"lockPath,omitempty"`
	QueueDBPath    string             `json:"queueDbPath,omitempty"`
	StageHealth    []StageHealth      `json:"stageHealth,omitempty"`
	Dependencies   []DependencyStatus `json:"dependencies,omitempty"`

	// Snapshot-only sections the CLI fills for offline-capable display.
	SystemChecks      []api.StatusLine      `json:"systemChecks,omitempty"`
	StagingPaths      []api.StatusLine      `json:"stagingPaths,omitempty"`
	DependencySummary api.DependencySummary `json:"dependencySummary"`
}

// QueueListRequest filters queue items by optional statuses.
type QueueListRequest struct {
	Statuses []string `json:"statuses,omitempty"`
}

// QueueListResponse returns queue items.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueDescribeRequest fetches a single queue item by ID.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse returns the requested queue item when found.
type QueueDescribeResponse struct {
	Item  QueueItem `json:"item"`
	Found bool      `json:"found"`
}

// QueueClearRequest removes all queue items.
type QueueClearRequest struct{}

// QueueClearResponse reports the number of removed items.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearCompletedRequest removes completed queue items.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse reports the number of removed items.
type QueueClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearFailedRequest removes failed queue items.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse reports the number of removed items.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueResetRequest rolls stuck in-flight items back to their stage start.
type QueueResetRequest struct{}

// QueueResetResponse reports the number of reset items.
type QueueResetResponse struct {
	Updated int64 `json:"updated"`
}

// QueueRetryRequest retries failed items; an empty ID list retries all.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids,omitempty"`
}

// QueueRetryResponse reports the number of retried items.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueueHealthRequest retrieves aggregate queue counts.
type QueueHealthRequest struct{}

// QueueHealthResponse summarizes queue state per lifecycle bucket.
type QueueHealthResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Review     int `json:"review"`
	Completed  int `json:"completed"`
}

// DatabaseHealthRequest retrieves queue database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse carries detailed database diagnostics.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"dbPath"`
	DatabaseExists   bool     `json:"databaseExists"`
	DatabaseReadable bool     `json:"databaseReadable"`
	SchemaVersion    string   `json:"schemaVersion,omitempty"`
	TableExists      bool     `json:"tableExists"`
	ColumnsPresent   []string `json:"columnsPresent,omitempty"`
	MissingColumns   []string `json:"missingColumns,omitempty"`
	IntegrityCheck   bool     `json:"integrityCheck"`
	TotalItems       int      `json:"totalItems"`
	Error            string   `json:"error,omitempty"`
}

// AddSourceRequest enqueues a source directory for ingest.
type AddSourceRequest struct {
	Path  string `json:"path"`
	Label string `json:"label,omitempty"`
}

// AddSourceResponse returns the enqueued (or already-known) queue item.
type AddSourceResponse struct {
	Item    QueueItem `json:"item"`
	Created bool      `json:"created"`
	Message string    `json:"message,omitempty"`
}

// ItemGroupsRequest fetches the group plan for a queue item.
type ItemGroupsRequest struct {
	ID int64 `json:"id"`
}

// ItemGroupsResponse returns the per-stack plan summaries.
type ItemGroupsResponse struct {
	Found   bool           `json:"found"`
	Session string         `json:"session,omitempty"`
	Stacks  []StackSummary `json:"stacks,omitempty"`
}

// LogTailRequest reads daemon log lines. A negative offset tails the end of
// the file; Follow with WaitMillis blocks briefly for new lines.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit,omitempty"`
	Follow     bool  `json:"follow,omitempty"`
	WaitMillis int64 `json:"waitMillis,omitempty"`
}

// LogTailResponse returns log lines and the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines,omitempty"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification delivery test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the delivery outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message,omitempty"`
}
