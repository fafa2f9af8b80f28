// Package stackplan defines the structured payload shared between workflow
// stages.
//
// The Envelope type captures the grouped shots of one ingest batch together
// with their confidence results as items progress through scanning, grouping,
// and organising. Stages read and extend the envelope rather than maintaining
// separate state, so the plan becomes the single source of truth for which
// stacks a card produced and where they landed.
//
// # Key Types
//
// Envelope: root container with Fingerprint, Session, and Groups. Persisted
// as JSON in queue.group_plan_data.
//
// Group: one bracket stack or burst, holding its shot records in capture
// order plus the confidence result that classified it.
//
// # Lifecycle
//
// Grouping populates Fingerprint, Session, and Groups. Organising fills each
// group's FolderName as folders are realised in the library.
//
// # Entry Points
//
// Parse: load an envelope from JSON (returns empty envelope on blank input).
// Envelope.Encode: serialise the envelope to JSON for persistence.
// GroupKey: format deterministic "group_0001" keys.
// Envelope.Counts: aggregate per-classification totals for display.
package stackplan
