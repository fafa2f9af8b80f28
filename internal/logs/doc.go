// Package logs reads daemon log files for CLI display.
//
// Tail returns lines from a log file either backwards from the end (for an
// initial "show me the last N lines" view) or forwards from a byte offset
// (for follow mode). Offsets returned by one call feed the next, so a client
// can poll for new lines without re-reading the file.
package logs
