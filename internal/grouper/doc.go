// Package grouper orchestrates the bracket detection stage for scanned
// sources.
//
// The handler loads the exposure records the scanner extracted, runs the
// grouping pipeline with thresholds from config, scores every group, and
// persists the resulting plan both as groups.json in staging and inline on
// the queue item so later stages and the CLI read it without touching the
// staging tree. Classification counts land on the item for status displays.
package grouper
