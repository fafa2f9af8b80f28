package api

import (
	"slices"
	"sort"
	"time"

	"lightbox/internal/queue"
	"lightbox/internal/stackplan"
	"lightbox/internal/workflow"
)

// FromQueueItem converts a queue record to its API representation.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}

	dto := QueueItem{
		ID:             item.ID,
		SessionLabel:   item.SessionLabel,
		SourcePath:     item.SourcePath,
		Status:         string(item.Status),
		ProcessingLane: string(queue.LaneForItem(item)),
		Progress: QueueProgress{
			Stage:       item.ProgressStage,
			Percent:     item.ProgressPercent,
			Message:     item.ProgressMessage,
			BytesCopied: item.ProgressBytesCopied,
			TotalBytes:  item.ProgressTotalBytes,
		},
		ErrorMessage:      item.ErrorMessage,
		SourceFingerprint: item.SourceFingerprint,
		ShotCount:         item.ShotCount,
		GroupCount:        item.GroupCount,
		ApprovedCount:     item.ApprovedCount,
		ReviewCount:       item.ReviewCount,
		HoldCount:         item.HoldCount,
		OutputDir:         item.OutputDir,
		NeedsReview:       item.NeedsReview,
		ReviewReason:      item.ReviewReason,
	}
	if !item.CreatedAt.IsZero() {
		dto.CreatedAt = item.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromQueueItems converts a slice of queue records into API DTOs.
func FromQueueItems(items []*queue.Item) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to an API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	healthNames := make([]string, 0, len(summary.StageHealth))
	for name := range summary.StageHealth {
		healthNames = append(healthNames, name)
	}
	slices.Sort(healthNames)

	health := make([]StageHealth, 0, len(healthNames))
	for _, name := range healthNames {
		h := summary.StageHealth[name]
		health = append(health, StageHealth{
			Name:   name,
			Ready:  h.Ready,
			Detail: h.Detail,
		})
	}

	stats := make(map[string]int, len(summary.QueueStats))
	for status, count := range summary.QueueStats {
		stats[string(status)] = count
	}

	wf := WorkflowStatus{
		Running:     summary.Running,
		QueueStats:  stats,
		StageHealth: health,
	}
	if summary.LastError != "" {
		wf.LastError = summary.LastError
	}
	if summary.LastItem != nil {
		last := FromQueueItem(summary.LastItem)
		wf.LastItem = &last
	}
	return wf
}

// StacksFromPlan flattens a group plan into per-stack summaries.
func StacksFromPlan(env stackplan.Envelope) []StackSummary {
	if len(env.Groups) == 0 {
		return nil
	}
	out := make([]StackSummary, 0, len(env.Groups))
	for _, group := range env.Groups {
		summary := StackSummary{
			Index:      group.Index,
			FolderName: group.FolderName,
			Shots:      len(group.Records),
			Score:      group.Confidence.Score,
			Decision:   stackDecision(group),
			HDR:        group.Confidence.IsHDRCandidate,
		}
		if len(group.Confidence.Reasons) > 0 {
			summary.Reasons = slices.Clone(group.Confidence.Reasons)
		}
		if captured, ok := earliestCapture(group); ok {
			summary.CapturedAt = captured.UTC().Format(dateTimeFormat)
		}
		out = append(out, summary)
	}
	return out
}

func stackDecision(group stackplan.Group) string {
	switch {
	case group.Confidence.AutoApproved:
		return StackApproved
	case group.Confidence.NeedsReview:
		return StackReview
	default:
		return StackHold
	}
}

func earliestCapture(group stackplan.Group) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, record := range group.Records {
		if record.Time.IsZero() {
			continue
		}
		if !found || record.Time.Before(earliest) {
			earliest = record.Time
			found = true
		}
	}
	return earliest, found
}

// SortQueueItemsNewestFirst orders queue items by CreatedAt descending,
// breaking ties by ID descending.
func SortQueueItemsNewestFirst(items []QueueItem) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]QueueItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		ti := ParseQueueTime(sorted[i].CreatedAt)
		tj := ParseQueueTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})
	return sorted
}

// ParseQueueTime parses an API timestamp for display formatting; the zero
// time is returned for blank or malformed values.
func ParseQueueTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
