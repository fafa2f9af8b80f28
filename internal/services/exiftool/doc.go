// Package exiftool mediates access to the exiftool CLI used during scanning.
//
// It normalizes command invocation, batches large file lists to stay under
// argv limits, decodes the JSON output into loose field maps, and exposes a
// testable interface for the scanning stage.
//
// Prefer this package over ad-hoc exec.Command usage when reading camera
// metadata so batching and timeout handling remain consistent.
package exiftool
