// Package api defines wire-format types and converters for the IPC layer.
// It translates internal queue and plan models into transport-friendly DTOs
// so the CLI renders daemon responses without coupling to internal types.
//
// # Key Types
//
// QueueItem: transport representation of a queue entry with progress, stack
// tallies, and review state.
//
// WorkflowStatus: daemon running state, queue stats, stage health, last item.
//
// StackSummary: per-stack view of a group plan (shot count, score, decision)
// for the `lightbox groups` command.
//
// # Converters
//
// FromQueueItem: queue.Item -> QueueItem with RFC3339 timestamps and lane
// derivation. FromStatusSummary: workflow.StatusSummary -> WorkflowStatus
// with deterministically ordered stage health. StacksFromPlan: group plan
// envelope -> []StackSummary.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Internal enums (queue.Status, the processing
// lane) are exposed as lowercase strings. Timestamps use RFC3339 with
// milliseconds.
package api
