// Package organizer finalises processing by copying grouped shots into the
// photo library.
//
// The stage reads the group plan produced by grouping, realises one folder
// per stack inside a session directory, and writes a CSV manifest plus a
// confidence sidecar next to the copied files. Realised folder names are
// recorded back onto the plan so status commands can show where each stack
// landed. Items whose plan contains held or review-flagged stacks still
// complete; they are marked for review attention rather than failed.
//
// Centralize new library-placement behaviours here so the workflow manager
// interacts with a single, well-tested abstraction.
package organizer
