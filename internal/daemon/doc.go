// Package daemon coordinates the long-running Lightbox process and system
// integration points.
//
// It wires configuration, queue storage, the workflow manager, the card
// monitor, and the rescan scheduler into a single lifecycle with flock-based
// locking to prevent multiple instances. The daemon exposes queue maintenance
// helpers for the IPC layer, enqueues source directories with fingerprint
// deduplication, and reacts to card insertion by rescanning the watch
// directories after a settle delay.
//
// Keep orchestration logic here: individual workflow stages live in their
// respective packages while the daemon focuses on startup, shutdown, and
// high level coordination.
package daemon
