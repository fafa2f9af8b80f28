// Package scanner orchestrates the metadata extraction stage for queued
// sources.
//
// The handler walks the source directory for RAW captures, fingerprints the
// file set for duplicate-ingest detection, batches the files through
// exiftool, and builds the exposure records later stages group and score.
// Files without a usable capture timestamp are dropped with a logged count;
// everything else lands in shots.json under the item's staging directory.
//
// Centralize new scan behaviours here so the workflow manager interacts with
// a single, well-tested abstraction.
package scanner
