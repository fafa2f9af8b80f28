// Package config loads, normalizes, and validates Lightbox configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LIGHTBOX_NTFY_TOPIC. The Config type centralizes every knob the daemon and
// CLI need, from staging/library directories to the bracket grouping and
// confidence thresholds.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
