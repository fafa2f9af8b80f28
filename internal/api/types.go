package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a queue entry in a transport-friendly format.
type QueueItem struct {
	ID                int64         `json:"id"`
	SessionLabel      string        `json:"sessionLabel"`
	SourcePath        string        `json:"sourcePath"`
	Status            string        `json:"status"`
	ProcessingLane    string        `json:"processingLane"`
	Progress          QueueProgress `json:"progress"`
	ErrorMessage      string        `json:"errorMessage"`
	CreatedAt         string        `json:"createdAt,omitempty"`
	UpdatedAt         string        `json:"updatedAt,omitempty"`
	SourceFingerprint string        `json:"sourceFingerprint,omitempty"`
	ShotCount         int           `json:"shotCount"`
	GroupCount        int           `json:"groupCount"`
	ApprovedCount     int           `json:"approvedCount"`
	ReviewCount       int           `json:"reviewCount"`
	HoldCount         int           `json:"holdCount"`
	OutputDir         string        `json:"outputDir,omitempty"`
	NeedsReview       bool          `json:"needsReview"`
	ReviewReason      string        `json:"reviewReason,omitempty"`
}

// QueueProgress captures stage progress information for a queue entry.
type QueueProgress struct {
	Stage       string  `json:"stage"`
	Percent     float64 `json:"percent"`
	Message     string  `json:"message"`
	BytesCopied int64   `json:"bytesCopied,omitempty"`
	TotalBytes  int64   `json:"totalBytes,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastItem    *QueueItem     `json:"lastItem,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
	Severity    string `json:"severity,omitempty"`
}

// StackSummary is the per-stack view of a group plan used by the CLI.
type StackSummary struct {
	Index      int      `json:"index"`
	FolderName string   `json:"folderName,omitempty"`
	Shots      int      `json:"shots"`
	CapturedAt string   `json:"capturedAt,omitempty"`
	Score      float64  `json:"score"`
	Decision   string   `json:"decision"`
	HDR        bool     `json:"hdr"`
	Reasons    []string `json:"reasons,omitempty"`
}

// Stack decision labels derived from confidence scoring.
const (
	StackApproved = "approved"
	StackReview   = "review"
	StackHold     = "hold"
)

// StatusLine is a labeled severity entry rendered in status output.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

// DependencySummary aggregates dependency readiness for status output.
type DependencySummary struct {
	Total           int    `json:"total"`
	Available       int    `json:"available"`
	MissingRequired int    `json:"missingRequired"`
	MissingOptional int    `json:"missingOptional"`
	Severity        string `json:"severity"`
	Detail          string `json:"detail"`
}
